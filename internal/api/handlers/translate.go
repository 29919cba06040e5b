package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/transdesk/backend/internal/translate"
)

type TranslateHandler struct {
	svc *translate.Service
}

func NewTranslateHandler(svc *translate.Service) *TranslateHandler {
	return &TranslateHandler{svc: svc}
}

// Translate resolves free-standing texts and returns {results, failed}.
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.TranslateTexts(r.Context(), req)
	if err != nil {
		translateError(w, err)
		return
	}
	jsonResponse(w, res, http.StatusOK)
}

// TranslateProject fills one language of a project's entries and records a task.
func (h *TranslateHandler) TranslateProject(w http.ResponseWriter, r *http.Request) {
	var batch translate.ProjectBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	batch.ProjectID = chi.URLParam(r, "id")

	res, err := h.svc.TranslateProject(r.Context(), batch)
	if err != nil {
		translateError(w, err)
		return
	}
	jsonResponse(w, res, http.StatusOK)
}

func translateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, translate.ErrNoTexts),
		errors.Is(err, translate.ErrNoTargetLang),
		errors.Is(err, translate.ErrMissingAPIKey):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, translate.ErrProjectNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("[translate] batch failed: %v", err)
		jsonError(w, "translation failed", http.StatusInternalServerError)
	}
}
