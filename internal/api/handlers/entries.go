package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/sheet"
)

// EntriesHandler serves one entry table of a project. The translation and
// corpus routes each get their own instance.
type EntriesHandler struct {
	db             *db.Database
	store          *db.EntryStore
	sheetName      string
	uploadMaxBytes int64
}

func NewTranslationsHandler(database *db.Database, uploadMaxBytes int64) *EntriesHandler {
	return &EntriesHandler{db: database, store: database.Translations(), sheetName: "Translations", uploadMaxBytes: uploadMaxBytes}
}

func NewCorpusHandler(database *db.Database, uploadMaxBytes int64) *EntriesHandler {
	return &EntriesHandler{db: database, store: database.Corpus(), sheetName: "Corpus", uploadMaxBytes: uploadMaxBytes}
}

func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	entries, err := h.store.List(r.Context(), p.ID, strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		jsonError(w, "failed to list entries", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, entries, http.StatusOK)
}

type entryRequest struct {
	ID   string            `json:"id"`
	Key  string            `json:"key"`
	Data map[string]string `json:"data"`
}

func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		jsonError(w, "key is required", http.StatusBadRequest)
		return
	}

	e, err := h.store.Create(r.Context(), p.ID, req.Key, req.Data)
	if errors.Is(err, db.ErrConflict) {
		jsonError(w, "key already exists", http.StatusConflict)
		return
	}
	if err != nil {
		jsonError(w, "failed to create entry", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, e, http.StatusCreated)
}

func (h *EntriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" || strings.TrimSpace(req.Key) == "" {
		jsonError(w, "id and key are required", http.StatusBadRequest)
		return
	}

	e, err := h.store.Update(r.Context(), p.ID, req.ID, req.Key, req.Data)
	switch {
	case errors.Is(err, db.ErrNotFound):
		jsonError(w, "entry not found", http.StatusNotFound)
	case errors.Is(err, db.ErrConflict):
		jsonError(w, "key already exists", http.StatusConflict)
	case err != nil:
		jsonError(w, "failed to update entry", http.StatusInternalServerError)
	default:
		jsonResponse(w, e, http.StatusOK)
	}
}

func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		jsonError(w, "ids are required", http.StatusBadRequest)
		return
	}

	n, err := h.store.DeleteMany(r.Context(), p.ID, req.IDs)
	if err != nil {
		jsonError(w, "failed to delete entries", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]int64{"deleted": n}, http.StatusOK)
}

// Upload imports the spreadsheet in the "file" form field.
func (h *EntriesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := sheet.Read(header.Filename, file)
	if err != nil {
		jsonError(w, "failed to read spreadsheet: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := sheet.Import(r.Context(), h.store, p.ID, rows)
	if err != nil {
		log.Printf("[api] import into %s: %v", p.ID, err)
		jsonError(w, "import failed", http.StatusInternalServerError)
		return
	}
	log.Printf("[api] %s import for %s: added=%d updated=%d skipped=%d",
		strings.ToLower(h.sheetName), p.ID, res.Added, res.Updated, res.Skipped)
	jsonResponse(w, res, http.StatusOK)
}

// Export writes all entries as ?format=xlsx (default) or csv.
func (h *EntriesHandler) Export(w http.ResponseWriter, r *http.Request) {
	p, ok := loadProject(w, r, h.db)
	if !ok {
		return
	}
	format, err := sheet.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.store.List(r.Context(), p.ID, "")
	if err != nil {
		jsonError(w, "failed to list entries", http.StatusInternalServerError)
		return
	}
	columns, rows := sheet.FromEntries(p.Languages, entries)

	filename := fmt.Sprintf("project_%s_%s.%s", p.ID, strings.ToLower(h.sheetName), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := sheet.Write(w, format, h.sheetName, columns, rows); err != nil {
		log.Printf("[api] export %s: %v", p.ID, err)
	}
}
