package translate

import (
	"context"
	"log"

	"github.com/transdesk/backend/internal/db/models"
)

type TaskStore interface {
	CreateTask(ctx context.Context, projectID string, total int) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
}

// Tracker keeps the task record of a batch. Tasks only serve progress display,
// so store failures are logged and never stop a batch.
type Tracker struct {
	store TaskStore
}

func NewTracker(store TaskStore) *Tracker {
	return &Tracker{store: store}
}

// CreateTask returns the id of a new pending task, or "" if it could not be stored.
func (t *Tracker) CreateTask(ctx context.Context, projectID string, total int) string {
	task, err := t.store.CreateTask(ctx, projectID, total)
	if err != nil {
		log.Printf("[task] create for project %s failed: %v", projectID, err)
		return ""
	}
	log.Printf("[task] %s created: %d items", task.ID, total)
	return task.ID
}

func (t *Tracker) CompleteTask(ctx context.Context, id string, success, fail int) {
	status := models.TaskCompleted
	t.update(ctx, id, models.TaskPatch{Status: &status, SuccessCount: &success, FailCount: &fail})
}

func (t *Tracker) FailTask(ctx context.Context, id string, fail int) {
	status := models.TaskFailed
	success := 0
	t.update(ctx, id, models.TaskPatch{Status: &status, SuccessCount: &success, FailCount: &fail})
}

func (t *Tracker) update(ctx context.Context, id string, patch models.TaskPatch) {
	if id == "" {
		return
	}
	// the batch's own context may already be cancelled
	if _, err := t.store.UpdateTask(context.WithoutCancel(ctx), id, patch); err != nil {
		log.Printf("[task] %s update failed: %v", id, err)
		return
	}
	log.Printf("[task] %s %s: success=%d fail=%d", id, *patch.Status, *patch.SuccessCount, *patch.FailCount)
}
