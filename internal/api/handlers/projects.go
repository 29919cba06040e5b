package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/db/models"
)

type ProjectsHandler struct {
	db *db.Database
}

func NewProjectsHandler(database *db.Database) *ProjectsHandler {
	return &ProjectsHandler{db: database}
}

// maskSecret keeps the last 4 characters of a secret visible.
func maskSecret(val string) string {
	if val == "" {
		return ""
	}
	if len(val) > 4 {
		return secretMask + val[len(val)-4:]
	}
	return secretMask
}

const secretMask = "••••••••"

func isMasked(val string) bool {
	return strings.HasPrefix(val, secretMask)
}

func maskProject(p *models.Project) *models.Project {
	masked := *p
	masked.APIKey = maskSecret(p.APIKey)
	return &masked
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.ListProjects(r.Context())
	if err != nil {
		jsonError(w, "failed to list projects", http.StatusInternalServerError)
		return
	}
	for i, p := range projects {
		projects[i] = maskProject(p)
	}
	jsonResponse(w, projects, http.StatusOK)
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, "project name is required", http.StatusBadRequest)
		return
	}

	p, err := h.db.CreateProject(r.Context(), req.Name)
	if errors.Is(err, db.ErrConflict) {
		jsonError(w, "project name already exists", http.StatusConflict)
		return
	}
	if err != nil {
		jsonError(w, "failed to create project", http.StatusInternalServerError)
		return
	}
	log.Printf("[api] project %s created (%s)", p.Name, p.ID)
	jsonResponse(w, maskProject(p), http.StatusCreated)
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	jsonResponse(w, maskProject(p), http.StatusOK)
}

func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			jsonError(w, "project name is required", http.StatusBadRequest)
			return
		}
		patch.Name = &name
	}
	// the console sends the masked key back unchanged
	if patch.APIKey != nil && isMasked(*patch.APIKey) {
		patch.APIKey = nil
	}

	p, err := h.db.UpdateProject(r.Context(), chi.URLParam(r, "id"), patch)
	switch {
	case errors.Is(err, db.ErrNotFound):
		jsonError(w, "project not found", http.StatusNotFound)
	case errors.Is(err, db.ErrConflict):
		jsonError(w, "project name already exists", http.StatusConflict)
	case err != nil:
		jsonError(w, "failed to update project", http.StatusInternalServerError)
	default:
		jsonResponse(w, maskProject(p), http.StatusOK)
	}
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.db.DeleteProject(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete project", http.StatusInternalServerError)
		return
	}
	log.Printf("[api] project %s deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	stats, err := h.db.ProjectStats(r.Context(), p.ID)
	if err != nil {
		jsonError(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, stats, http.StatusOK)
}

// loadProject resolves the {id} URL parameter and writes the error response itself.
func loadProject(w http.ResponseWriter, r *http.Request, database *db.Database) (*models.Project, bool) {
	p, err := database.GetProject(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "project not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, "failed to load project", http.StatusInternalServerError)
		return nil, false
	}
	return p, true
}
