package models

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskProcessing, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// Task summarises the outcome of one batch translation.
type Task struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"project_id"`
	Status       TaskStatus `json:"status"`
	TotalCount   int        `json:"total_count"`
	SuccessCount int        `json:"success_count"`
	FailCount    int        `json:"fail_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TaskPatch is a partial update; nil fields are left as they are.
type TaskPatch struct {
	Status       *TaskStatus `json:"status"`
	TotalCount   *int        `json:"total_count"`
	SuccessCount *int        `json:"success_count"`
	FailCount    *int        `json:"fail_count"`
}
