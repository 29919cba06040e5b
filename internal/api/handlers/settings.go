package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/transdesk/backend/internal/config"
	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/db/models"
	"github.com/transdesk/backend/internal/provider"
	"github.com/transdesk/backend/internal/translate"
)

// ModelLister lists the models offered by a provider endpoint.
type ModelLister interface {
	ListModels(ctx context.Context, endpoint, apiKey string) ([]provider.Model, error)
}

type SettingsHandler struct {
	database *db.Database
	models   ModelLister
	defaults config.ProviderConfig
}

func NewSettingsHandler(database *db.Database, models ModelLister, defaults config.ProviderConfig) *SettingsHandler {
	return &SettingsHandler{database: database, models: models, defaults: defaults}
}

type settingsResponse struct {
	models.GlobalSettings
	HasAPIKey       bool   `json:"has_api_key"`
	DefaultEndpoint string `json:"default_endpoint"`
	DefaultPrompt   string `json:"default_prompt"`
}

// GetSettings returns the global provider settings with the key masked.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.database.GetGlobalSettings()
	if err != nil {
		jsonError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	resp := settingsResponse{
		GlobalSettings:  s,
		HasAPIKey:       s.APIKey != "",
		DefaultEndpoint: h.defaults.Endpoint,
		DefaultPrompt:   translate.DefaultPrompt,
	}
	resp.APIKey = maskSecret(s.APIKey)
	jsonResponse(w, resp, http.StatusOK)
}

// UpdateSettings replaces the global settings. A masked key keeps the stored one.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.GlobalSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	current, err := h.database.GetGlobalSettings()
	if err != nil {
		jsonError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	if isMasked(req.APIKey) {
		req.APIKey = current.APIKey
	}
	if err := h.database.SaveGlobalSettings(req); err != nil {
		jsonError(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListModels queries the configured endpoint, doubling as a connection test.
func (h *SettingsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	s, err := h.database.GetGlobalSettings()
	if err != nil {
		jsonError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	cfg, err := translate.ResolveConfig(nil, s, h.defaults)
	if err != nil {
		// nothing to query without a key
		jsonResponse(w, []provider.Model{}, http.StatusOK)
		return
	}

	list, err := h.models.ListModels(r.Context(), cfg.Endpoint, cfg.APIKey)
	if errors.Is(err, provider.ErrUnauthorized) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, "failed to fetch models: "+err.Error(), http.StatusBadGateway)
		return
	}
	jsonResponse(w, list, http.StatusOK)
}
