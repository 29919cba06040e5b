package translate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/transdesk/backend/internal/config"
	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/db/models"
)

var ErrProjectNotFound = errors.New("project not found")

// Store is the slice of the database the service reads settings and projects
// from and writes task records to.
type Store interface {
	TaskStore
	GetGlobalSettings() (models.GlobalSettings, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
}

// EntryStore is the translation table as seen by a project batch.
type EntryStore interface {
	List(ctx context.Context, projectID, search string) ([]*models.Entry, error)
	ListByIDs(ctx context.Context, projectID string, ids []string) ([]*models.Entry, error)
	SetLanguage(ctx context.Context, projectID, key, lang, value string) error
}

// ProviderFactory builds a provider for the configuration resolved for a request.
type ProviderFactory func(cfg ProviderConfig) Provider

type Service struct {
	store        Store
	translations EntryStore
	resolver     *Resolver
	tracker      *Tracker
	newProvider  ProviderFactory
	defaults     config.ProviderConfig
}

func NewService(store Store, translations EntryStore, corpus CorpusStore, newProvider ProviderFactory, defaults config.ProviderConfig) *Service {
	return &Service{
		store:        store,
		translations: translations,
		resolver: &Resolver{
			Corpus:      corpus,
			Concurrency: defaults.Concurrency,
			Timeout:     defaults.Timeout,
		},
		tracker:     NewTracker(store),
		newProvider: newProvider,
		defaults:    defaults,
	}
}

// TranslateTexts resolves free-standing texts. Nothing is persisted and no task
// is recorded. An unknown project id only loses its overrides and corpus.
func (s *Service) TranslateTexts(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var project *models.Project
	if req.ProjectID != "" {
		p, err := s.store.GetProject(ctx, req.ProjectID)
		switch {
		case errors.Is(err, db.ErrNotFound):
			log.Printf("[translate] project %s not found, using global settings", req.ProjectID)
		case err != nil:
			return nil, fmt.Errorf("load project: %w", err)
		default:
			project = p
		}
	}

	cfg, err := s.resolveConfig(project)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, req, s.newProvider(cfg), cfg.PromptTemplate)
}

// ProjectBatch selects the translation entries of a project to fill in for TargetLang.
type ProjectBatch struct {
	ProjectID     string   `json:"project_id"`
	TargetLang    string   `json:"target_lang"`
	SourceLang    string   `json:"source_lang,omitempty"`
	EntryIDs      []string `json:"ids,omitempty"`
	CorpusEnabled bool     `json:"corpus_enabled"`
}

// ProjectResult reports a finished batch. Translations and Failed are keyed by entry key.
type ProjectResult struct {
	TaskID       string            `json:"task_id,omitempty"`
	TotalCount   int               `json:"total_count"`
	SuccessCount int               `json:"success_count"`
	FailCount    int               `json:"fail_count"`
	Translations map[string]string `json:"results"`
	Failed       []string          `json:"failed"`
}

// TranslateProject translates the selected entries (all when EntryIDs is empty)
// and writes each result into data[TargetLang]. The source text of an entry is
// data[SourceLang] when present, otherwise its key. The project's own source
// language is not a fallback; an empty SourceLang is "auto".
func (s *Service) TranslateProject(ctx context.Context, batch ProjectBatch) (*ProjectResult, error) {
	if batch.TargetLang == "" {
		return nil, ErrNoTargetLang
	}

	project, err := s.store.GetProject(ctx, batch.ProjectID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	// no source language: send the key and let the provider detect it
	sourceLang := batch.SourceLang

	var entries []*models.Entry
	if len(batch.EntryIDs) > 0 {
		entries, err = s.translations.ListByIDs(ctx, project.ID, batch.EntryIDs)
	} else {
		entries, err = s.translations.List(ctx, project.ID, "")
	}
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoTexts
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.SourceText(sourceLang)
	}

	cfg, err := s.resolveConfig(project)
	if err != nil {
		return nil, err
	}

	total := len(entries)
	taskID := s.tracker.CreateTask(ctx, project.ID, total)

	res, err := s.resolver.Resolve(ctx, Request{
		Texts:         texts,
		TargetLang:    batch.TargetLang,
		SourceLang:    sourceLang,
		ProjectID:     project.ID,
		CorpusEnabled: batch.CorpusEnabled,
	}, s.newProvider(cfg), cfg.PromptTemplate)
	if err != nil {
		s.tracker.FailTask(ctx, taskID, total)
		return nil, err
	}

	out := &ProjectResult{
		TaskID:       taskID,
		TotalCount:   total,
		Translations: make(map[string]string),
		Failed:       []string{},
	}
	for i, e := range entries {
		value, ok := res.Translations[texts[i]]
		if !ok {
			out.Failed = append(out.Failed, e.Key)
			continue
		}
		err := s.translations.SetLanguage(ctx, project.ID, e.Key, batch.TargetLang, value)
		if errors.Is(err, db.ErrNotFound) {
			// removed while the batch was running
			out.Failed = append(out.Failed, e.Key)
			continue
		}
		if err != nil {
			s.tracker.FailTask(ctx, taskID, total)
			return nil, fmt.Errorf("save %s: %w", e.Key, err)
		}
		out.Translations[e.Key] = value
	}

	out.SuccessCount = len(out.Translations)
	out.FailCount = total - out.SuccessCount
	s.tracker.CompleteTask(ctx, taskID, out.SuccessCount, out.FailCount)
	return out, nil
}

func (s *Service) resolveConfig(project *models.Project) (ProviderConfig, error) {
	global, err := s.store.GetGlobalSettings()
	if err != nil {
		return ProviderConfig{}, fmt.Errorf("load settings: %w", err)
	}
	return ResolveConfig(project, global, s.defaults)
}
