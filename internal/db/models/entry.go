package models

import "time"

// Entry is a key with per-language strings. Translation and corpus records
// share this shape; (ProjectID, Key) is unique within each table.
type Entry struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	Key       string            `json:"key"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SourceText returns data[lang] when present, otherwise the key itself.
func (e *Entry) SourceText(lang string) string {
	if lang != "" {
		if v := e.Data[lang]; v != "" {
			return v
		}
	}
	return e.Key
}

// UpsertResult reports what an upsert did to the row.
type UpsertResult int

const (
	UpsertUnchanged UpsertResult = iota
	UpsertAdded
	UpsertUpdated
)
