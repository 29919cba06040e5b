package sheet

import (
	"context"
	"fmt"
	"sort"

	"github.com/transdesk/backend/internal/db/models"
)

// Upserter stores imported rows.
type Upserter interface {
	Upsert(ctx context.Context, projectID, key string, data map[string]string) (models.UpsertResult, error)
}

type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Import upserts every row with a key. All other columns become the entry's data.
func Import(ctx context.Context, store Upserter, projectID string, rows []Row) (ImportResult, error) {
	var res ImportResult
	for i, row := range rows {
		key := row[KeyColumn]
		if key == "" {
			res.Skipped++
			continue
		}
		data := make(map[string]string, len(row)-1)
		for col, v := range row {
			if col != KeyColumn {
				data[col] = v
			}
		}
		outcome, err := store.Upsert(ctx, projectID, key, data)
		if err != nil {
			return res, fmt.Errorf("row %d (%s): %w", i+2, key, err)
		}
		switch outcome {
		case models.UpsertAdded:
			res.Added++
		case models.UpsertUpdated:
			res.Updated++
		}
	}
	return res, nil
}

// FromEntries lays entries out as rows. Columns are the key, then languages in
// order, then any other language found in the data, per entry in sorted order.
func FromEntries(languages []string, entries []*models.Entry) ([]string, []Row) {
	columns := []string{KeyColumn}
	seen := map[string]bool{KeyColumn: true}
	for _, lang := range languages {
		if !seen[lang] {
			seen[lang] = true
			columns = append(columns, lang)
		}
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		row := Row{KeyColumn: e.Key}
		var extra []string
		for lang, v := range e.Data {
			if lang == KeyColumn {
				continue
			}
			row[lang] = v
			if !seen[lang] {
				extra = append(extra, lang)
			}
		}
		sort.Strings(extra)
		for _, lang := range extra {
			seen[lang] = true
			columns = append(columns, lang)
		}
		rows = append(rows, row)
	}
	return columns, rows
}
