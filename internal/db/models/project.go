package models

import "time"

// Project scopes translation and corpus entries. APIEndpoint, APIKey and
// SystemPrompt override the global settings when non-empty.
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Languages      []string  `json:"languages"`
	SourceLanguage string    `json:"source_language"`
	APIEndpoint    string    `json:"api_endpoint"`
	APIKey         string    `json:"api_key,omitempty"`
	SystemPrompt   string    `json:"system_prompt"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProjectPatch lists the fields a settings edit may change; nil means untouched.
type ProjectPatch struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Languages      *[]string `json:"languages"`
	SourceLanguage *string   `json:"source_language"`
	APIEndpoint    *string   `json:"api_endpoint"`
	APIKey         *string   `json:"api_key"`
	SystemPrompt   *string   `json:"system_prompt"`
}

type ProjectStats struct {
	TranslationCount int `json:"translation_count"`
	CorpusCount      int `json:"corpus_count"`
}
