package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/transdesk/backend/internal/db/models"
)

var taskColumns = []string{
	"id", "project_id", "status", "total_count", "success_count", "fail_count", "created_at", "updated_at",
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(&t.ID, &t.ProjectID, &t.Status, &t.TotalCount, &t.SuccessCount, &t.FailCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTask records a pending batch of total items.
func (d *Database) CreateTask(ctx context.Context, projectID string, total int) (*models.Task, error) {
	now := time.Now().UTC()
	t := &models.Task{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Status:     models.TaskPending,
		TotalCount: total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sqlStr, args, err := d.sq.Insert("translation_tasks").Columns(taskColumns...).
		Values(t.ID, t.ProjectID, t.Status, t.TotalCount, t.SuccessCount, t.FailCount, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := d.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Database) GetTask(ctx context.Context, id string) (*models.Task, error) {
	sqlStr, args, err := d.sq.Select(taskColumns...).From("translation_tasks").
		Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	t, err := scanTask(d.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// ListTasks returns the tasks of a project, newest first.
func (d *Database) ListTasks(ctx context.Context, projectID string) ([]*models.Task, error) {
	sqlStr, args, err := d.sq.Select(taskColumns...).From("translation_tasks").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at DESC", "rowid DESC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask applies the non-nil fields of patch.
func (d *Database) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.TotalCount != nil {
		set["total_count"] = *patch.TotalCount
	}
	if patch.SuccessCount != nil {
		set["success_count"] = *patch.SuccessCount
	}
	if patch.FailCount != nil {
		set["fail_count"] = *patch.FailCount
	}

	sqlStr, args, err := d.sq.Update("translation_tasks").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	res, err := d.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return d.GetTask(ctx, id)
}
