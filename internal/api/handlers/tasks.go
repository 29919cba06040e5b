package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/db/models"
)

type TasksHandler struct {
	db *db.Database
}

func NewTasksHandler(database *db.Database) *TasksHandler {
	return &TasksHandler{db: database}
}

func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	tasks, err := h.db.ListTasks(r.Context(), p.ID)
	if err != nil {
		jsonError(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, tasks, http.StatusOK)
}

// Create records a pending task for a batch driven by the client.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	var req struct {
		TotalCount int `json:"total_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TotalCount < 0 {
		jsonError(w, "total_count must not be negative", http.StatusBadRequest)
		return
	}

	task, err := h.db.CreateTask(r.Context(), p.ID, req.TotalCount)
	if err != nil {
		jsonError(w, "failed to create task", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, task, http.StatusCreated)
}

func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	jsonResponse(w, task, http.StatusOK)
}

func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		jsonError(w, "invalid status", http.StatusBadRequest)
		return
	}

	updated, err := h.db.UpdateTask(r.Context(), task.ID, patch)
	if err != nil {
		jsonError(w, "failed to update task", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, updated, http.StatusOK)
}

// loadTask finds {taskId} and checks it belongs to project {id}.
func (h *TasksHandler) loadTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	task, err := h.db.GetTask(r.Context(), chi.URLParam(r, "taskId"))
	if errors.Is(err, db.ErrNotFound) || (err == nil && task.ProjectID != chi.URLParam(r, "id")) {
		jsonError(w, "task not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, "failed to load task", http.StatusInternalServerError)
		return nil, false
	}
	return task, true
}
