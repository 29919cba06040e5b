package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/transdesk/backend/internal/db/models"
)

var projectColumns = []string{
	"id", "name", "description", "languages", "source_language",
	"api_endpoint", "api_key", "system_prompt", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	p := &models.Project{}
	var languages string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &languages, &p.SourceLanguage,
		&p.APIEndpoint, &p.APIKey, &p.SystemPrompt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(languages), &p.Languages); err != nil {
		return nil, fmt.Errorf("decode languages of project %s: %w", p.ID, err)
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	return p, nil
}

// CreateProject inserts a project with the default languages (en, zh) and
// source language (zh). Duplicate names return ErrConflict.
func (d *Database) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	now := time.Now().UTC()
	p := &models.Project{
		ID:             uuid.NewString(),
		Name:           name,
		Languages:      []string{"en", "zh"},
		SourceLanguage: "zh",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	languages, _ := json.Marshal(p.Languages)
	sqlStr, args, err := d.sq.Insert("projects").
		Columns(projectColumns...).
		Values(p.ID, p.Name, p.Description, string(languages), p.SourceLanguage,
			p.APIEndpoint, p.APIKey, p.SystemPrompt, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := d.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return p, nil
}

func (d *Database) GetProject(ctx context.Context, id string) (*models.Project, error) {
	sqlStr, args, err := d.sq.Select(projectColumns...).From("projects").
		Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanProject(d.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListProjects returns all projects, newest first.
func (d *Database) ListProjects(ctx context.Context) ([]*models.Project, error) {
	sqlStr, args, err := d.sq.Select(projectColumns...).From("projects").
		OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject applies the non-nil fields of patch and returns the updated project.
func (d *Database) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Languages != nil {
		languages := *patch.Languages
		if languages == nil {
			languages = []string{}
		}
		b, _ := json.Marshal(languages)
		set["languages"] = string(b)
	}
	if patch.SourceLanguage != nil {
		set["source_language"] = *patch.SourceLanguage
	}
	if patch.APIEndpoint != nil {
		set["api_endpoint"] = *patch.APIEndpoint
	}
	if patch.APIKey != nil {
		set["api_key"] = *patch.APIKey
	}
	if patch.SystemPrompt != nil {
		set["system_prompt"] = *patch.SystemPrompt
	}

	sqlStr, args, err := d.sq.Update("projects").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	res, err := d.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return d.GetProject(ctx, id)
}

// DeleteProject removes the project together with its translations, corpus and tasks.
func (d *Database) DeleteProject(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"translations", "corpus", "translation_tasks"} {
		sqlStr, args, _ := d.sq.Delete(table).Where(sq.Eq{"project_id": id}).ToSql()
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	sqlStr, args, _ := d.sq.Delete("projects").Where(sq.Eq{"id": id}).ToSql()
	res, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (d *Database) ProjectStats(ctx context.Context, id string) (models.ProjectStats, error) {
	var stats models.ProjectStats
	var err error
	if stats.TranslationCount, err = d.Translations().Count(ctx, id); err != nil {
		return stats, err
	}
	if stats.CorpusCount, err = d.Corpus().Count(ctx, id); err != nil {
		return stats, err
	}
	return stats, nil
}
