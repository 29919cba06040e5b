package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnauthorized means the provider rejected the API key.
var ErrUnauthorized = errors.New("provider rejected the API key")

const modelCacheTTL = time.Hour

// Model is a provider model as shown in the settings page.
type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

type modelCacheEntry struct {
	models  []Model
	fetched time.Time
}

// ModelLister queries GET {endpoint}/models and caches the answer per endpoint
// and API key.
type ModelLister struct {
	http *resty.Client

	mu    sync.Mutex
	cache map[string]modelCacheEntry
}

func NewModelLister() *ModelLister {
	return &ModelLister{
		http:  resty.New().SetTimeout(10 * time.Second),
		cache: make(map[string]modelCacheEntry),
	}
}

// ListModels returns the models of endpoint sorted by id. A stale cache entry
// is served when the provider cannot be reached, but never when it rejects the key.
func (l *ModelLister) ListModels(ctx context.Context, endpoint, apiKey string) ([]Model, error) {
	endpoint = strings.TrimRight(endpoint, "/")
	key := cacheKey(endpoint, apiKey)

	l.mu.Lock()
	cached, ok := l.cache[key]
	l.mu.Unlock()
	if ok && time.Since(cached.fetched) < modelCacheTTL {
		return copyModels(cached.models), nil
	}

	var resp struct {
		Data []struct {
			ID      string `json:"id"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	r, err := l.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetResult(&resp).
		Get(endpoint + "/models")
	if err == nil && r.IsError() {
		switch r.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			l.mu.Lock()
			delete(l.cache, key)
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, r.Status())
		}
		err = fmt.Errorf("list models: %s; body: %s", r.Status(), r.String())
	}
	if err != nil {
		if ok {
			log.Printf("[provider] list models failed, serving cache: %v", err)
			return copyModels(cached.models), nil
		}
		return nil, err
	}

	models := make([]Model, 0, len(resp.Data))
	for _, m := range resp.Data {
		if m.ID == "" {
			continue
		}
		models = append(models, Model{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	l.mu.Lock()
	l.cache[key] = modelCacheEntry{models: models, fetched: time.Now()}
	l.mu.Unlock()
	return copyModels(models), nil
}

// cacheKey keeps lists fetched with different keys apart without holding the key itself.
func cacheKey(endpoint, apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return endpoint + "#" + hex.EncodeToString(sum[:8])
}

func copyModels(models []Model) []Model {
	result := make([]Model, len(models))
	copy(result, models)
	return result
}
