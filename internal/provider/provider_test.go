package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestOpenAITranslate(t *testing.T) {
	var gotReq struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var gotAuth, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  你好\n"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(srv.URL+"/", "sk-test", "deepseek-chat")
	got, err := p.Translate(context.Background(), "Translate to zh", "hello")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "你好" {
		t.Errorf("got %q, want 你好", got)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "deepseek-chat" || gotReq.Stream {
		t.Errorf("model/stream = %q/%v", gotReq.Model, gotReq.Stream)
	}
	if len(gotReq.Messages) != 2 ||
		gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "Translate to zh" ||
		gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestOpenAITranslate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAI(srv.URL, "sk-test", "deepseek-chat")
	if _, err := p.Translate(context.Background(), "sys", "hello"); err == nil {
		t.Error("expected error for status 500")
	}
}

func TestOpenAITranslate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(srv.URL, "sk-test", "deepseek-chat")
	if _, err := p.Translate(context.Background(), "sys", "hello"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestListModelsCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"deepseek-reasoner","owned_by":"deepseek"},{"id":"deepseek-chat","owned_by":"deepseek"}]}`))
	}))
	defer srv.Close()

	l := NewModelLister()
	models, err := l.ListModels(context.Background(), srv.URL, "sk-test")
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0].ID != "deepseek-chat" {
		t.Errorf("models = %+v, want sorted by id", models)
	}

	if _, err := l.ListModels(context.Background(), srv.URL+"/", "sk-test"); err != nil {
		t.Fatalf("ListModels cached: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestListModelsServesStaleCacheOnError(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"deepseek-chat"}]}`))
	}))
	defer srv.Close()

	l := NewModelLister()
	if _, err := l.ListModels(context.Background(), srv.URL, "sk"); err != nil {
		t.Fatalf("ListModels: %v", err)
	}

	// expire the entry
	expire(l, srv.URL, "sk")

	fail.Store(true)
	models, err := l.ListModels(context.Background(), srv.URL, "sk")
	if err != nil {
		t.Fatalf("stale cache not served: %v", err)
	}
	if len(models) != 1 {
		t.Errorf("models = %+v", models)
	}

	if _, err := NewModelLister().ListModels(context.Background(), srv.URL, "sk"); err == nil {
		t.Error("expected error without cache")
	}
}

func expire(l *ModelLister, endpoint, apiKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := cacheKey(endpoint, apiKey)
	entry := l.cache[key]
	entry.fetched = time.Now().Add(-2 * modelCacheTTL)
	l.cache[key] = entry
}

// keyOnlyServer lists models for "Bearer good" and answers 401 otherwise.
func keyOnlyServer(t *testing.T, revoked *atomic.Bool) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" || (revoked != nil && revoked.Load()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"deepseek-chat"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListModelsCacheIsPerKey(t *testing.T) {
	srv := keyOnlyServer(t, nil)
	l := NewModelLister()

	if _, err := l.ListModels(context.Background(), srv.URL, "good"); err != nil {
		t.Fatalf("ListModels good: %v", err)
	}
	models, err := l.ListModels(context.Background(), srv.URL, "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong key: models = %v, err = %v, want ErrUnauthorized", models, err)
	}
}

func TestListModelsRejectedKeyDropsStaleCache(t *testing.T) {
	var revoked atomic.Bool
	srv := keyOnlyServer(t, &revoked)
	l := NewModelLister()

	if _, err := l.ListModels(context.Background(), srv.URL, "good"); err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	expire(l, srv.URL, "good")
	revoked.Store(true)

	if _, err := l.ListModels(context.Background(), srv.URL, "good"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("revoked key err = %v, want ErrUnauthorized", err)
	}
	revoked.Store(false)
	l.mu.Lock()
	n := len(l.cache)
	l.mu.Unlock()
	if n != 0 {
		t.Errorf("cache entries = %d after rejection, want 0", n)
	}
}
