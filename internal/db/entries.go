package db

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/transdesk/backend/internal/db/models"
)

// EntryStore persists key -> language -> string records for one table.
// Translations and corpus share the schema and therefore the implementation.
type EntryStore struct {
	db    *Database
	table string
}

func (d *Database) Translations() *EntryStore {
	return &EntryStore{db: d, table: "translations"}
}

func (d *Database) Corpus() *EntryStore {
	return &EntryStore{db: d, table: "corpus"}
}

var entryColumns = []string{"id", "project_id", "key", "data", "created_at", "updated_at"}

func scanEntry(row rowScanner) (*models.Entry, error) {
	e := &models.Entry{}
	var data string
	if err := row.Scan(&e.ID, &e.ProjectID, &e.Key, &data, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
		return nil, fmt.Errorf("decode data of entry %s: %w", e.ID, err)
	}
	if e.Data == nil {
		e.Data = map[string]string{}
	}
	return e, nil
}

func encodeData(data map[string]string) string {
	if data == nil {
		data = map[string]string{}
	}
	b, _ := json.Marshal(data)
	return string(b)
}

func (s *EntryStore) queryOne(ctx context.Context, where sq.Sqlizer) (*models.Entry, error) {
	sqlStr, args, err := s.db.sq.Select(entryColumns...).From(s.table).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	return scanEntry(s.db.db.QueryRowContext(ctx, sqlStr, args...))
}

func (s *EntryStore) queryMany(ctx context.Context, q sq.SelectBuilder) ([]*models.Entry, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Find looks an entry up by its key. A missing entry is (nil, nil).
func (s *EntryStore) Find(ctx context.Context, projectID, key string) (*models.Entry, error) {
	e, err := s.queryOne(ctx, sq.Eq{"project_id": projectID, "key": key})
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s entry: %w", s.table, err)
	}
	return e, nil
}

func (s *EntryStore) Get(ctx context.Context, projectID, id string) (*models.Entry, error) {
	e, err := s.queryOne(ctx, sq.Eq{"project_id": projectID, "id": id})
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// List returns a project's entries, newest first. A non-empty search filters
// keys case-insensitively.
func (s *EntryStore) List(ctx context.Context, projectID, search string) ([]*models.Entry, error) {
	q := s.db.sq.Select(entryColumns...).From(s.table).Where(sq.Eq{"project_id": projectID})
	if search != "" {
		q = q.Where("LOWER(key) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}
	return s.queryMany(ctx, q.OrderBy("created_at DESC", "rowid DESC"))
}

// ListByIDs returns the given entries of a project; unknown ids are ignored.
func (s *EntryStore) ListByIDs(ctx context.Context, projectID string, ids []string) ([]*models.Entry, error) {
	if len(ids) == 0 {
		return []*models.Entry{}, nil
	}
	q := s.db.sq.Select(entryColumns...).From(s.table).
		Where(sq.Eq{"project_id": projectID, "id": ids}).
		OrderBy("created_at DESC", "rowid DESC")
	return s.queryMany(ctx, q)
}

// Create inserts a new entry; a duplicate key within the project is ErrConflict.
func (s *EntryStore) Create(ctx context.Context, projectID, key string, data map[string]string) (*models.Entry, error) {
	now := time.Now().UTC()
	e := &models.Entry{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Key:       key,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.Data == nil {
		e.Data = map[string]string{}
	}
	sqlStr, args, err := s.db.sq.Insert(s.table).Columns(entryColumns...).
		Values(e.ID, e.ProjectID, e.Key, encodeData(e.Data), e.CreatedAt, e.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return e, nil
}

// Update replaces key and data of an entry.
func (s *EntryStore) Update(ctx context.Context, projectID, id, key string, data map[string]string) (*models.Entry, error) {
	sqlStr, args, err := s.db.sq.Update(s.table).
		Set("key", key).
		Set("data", encodeData(data)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"project_id": projectID, "id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.db.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, projectID, id)
}

// SetLanguage writes one language value of an existing entry. Concurrent
// writers to the same entry are last-write-wins.
func (s *EntryStore) SetLanguage(ctx context.Context, projectID, key, lang, value string) error {
	sqlStr, args, err := s.db.sq.Update(s.table).
		Set("data", sq.Expr("json_set(data, ?, ?)", "$."+jsonPathKey(lang), value)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"project_id": projectID, "key": key}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert sets the data of (projectID, key), creating the entry if needed.
func (s *EntryStore) Upsert(ctx context.Context, projectID, key string, data map[string]string) (models.UpsertResult, error) {
	existing, err := s.Find(ctx, projectID, key)
	if err != nil {
		return models.UpsertUnchanged, err
	}
	if existing == nil {
		if _, err := s.Create(ctx, projectID, key, data); err != nil {
			return models.UpsertUnchanged, err
		}
		return models.UpsertAdded, nil
	}
	if maps.Equal(existing.Data, data) {
		return models.UpsertUnchanged, nil
	}
	if _, err := s.Update(ctx, projectID, existing.ID, key, data); err != nil {
		return models.UpsertUnchanged, err
	}
	return models.UpsertUpdated, nil
}

// DeleteMany removes the given entries of a project and reports how many went.
func (s *EntryStore) DeleteMany(ctx context.Context, projectID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sqlStr, args, err := s.db.sq.Delete(s.table).Where(sq.Eq{"project_id": projectID, "id": ids}).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *EntryStore) Count(ctx context.Context, projectID string) (int, error) {
	sqlStr, args, err := s.db.sq.Select("COUNT(*)").From(s.table).Where(sq.Eq{"project_id": projectID}).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// jsonPathKey quotes a language code for use as a JSON path member.
func jsonPathKey(lang string) string {
	b, _ := json.Marshal(lang)
	return string(b)
}
