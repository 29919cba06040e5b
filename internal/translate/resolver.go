package translate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/transdesk/backend/internal/db/models"
)

var (
	ErrNoTexts      = errors.New("texts must not be empty")
	ErrNoTargetLang = errors.New("target language is required")
)

// Provider turns one text into its translation using the given system prompt.
type Provider interface {
	Translate(ctx context.Context, systemPrompt, text string) (string, error)
}

// CorpusStore looks up pinned translations. A missing entry is (nil, nil).
type CorpusStore interface {
	Find(ctx context.Context, projectID, key string) (*models.Entry, error)
}

type Request struct {
	Texts         []string `json:"texts"`
	TargetLang    string   `json:"target_lang"`
	SourceLang    string   `json:"source_lang,omitempty"`
	ProjectID     string   `json:"project_id,omitempty"`
	CorpusEnabled bool     `json:"corpus_enabled"`
}

func (r Request) validate() error {
	if len(r.Texts) == 0 {
		return ErrNoTexts
	}
	if strings.TrimSpace(r.TargetLang) == "" {
		return ErrNoTargetLang
	}
	return nil
}

// Result maps each resolved source text to its translation. Failed lists the
// submitted texts that ended up without one, in input order.
type Result struct {
	Translations map[string]string `json:"results"`
	Failed       []string          `json:"failed"`
}

// Resolver answers texts from the corpus first and sends the rest to a
// provider, at most Concurrency at a time.
type Resolver struct {
	Corpus      CorpusStore
	Concurrency int
	Timeout     time.Duration
}

// Resolve never fails because of a single text. Errors returned are validation
// errors, corpus store errors, or cancellation of ctx.
func (r *Resolver) Resolve(ctx context.Context, req Request, p Provider, promptTemplate string) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	res := &Result{Translations: make(map[string]string), Failed: []string{}}

	pending := req.Texts
	if req.CorpusEnabled && req.ProjectID != "" && r.Corpus != nil {
		pending = make([]string, 0, len(req.Texts))
		for _, text := range req.Texts {
			entry, err := r.Corpus.Find(ctx, req.ProjectID, text)
			if err != nil {
				return nil, fmt.Errorf("corpus lookup: %w", err)
			}
			if entry != nil {
				if v := strings.TrimSpace(entry.Data[req.TargetLang]); v != "" {
					res.Translations[text] = v
					continue
				}
			}
			pending = append(pending, text)
		}
		log.Printf("[translate] corpus resolved %d/%d texts for %s", len(req.Texts)-len(pending), len(req.Texts), req.TargetLang)
	}

	if len(pending) > 0 {
		systemPrompt := BuildPrompt(promptTemplate, req.TargetLang, req.SourceLang)
		slots := r.dispatch(ctx, p, systemPrompt, pending)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("translation cancelled: %w", err)
		}
		for i, text := range pending {
			if slots[i] != "" {
				res.Translations[text] = slots[i]
			}
		}
	}

	for _, text := range req.Texts {
		if _, ok := res.Translations[text]; !ok {
			res.Failed = append(res.Failed, text)
		}
	}
	log.Printf("[translate] resolved %d/%d texts to %s (%d failed)",
		len(req.Texts)-len(res.Failed), len(req.Texts), req.TargetLang, len(res.Failed))
	return res, nil
}

// dispatch sends one request per text. Each goroutine writes only its own
// slot; a failed text leaves its slot empty.
func (r *Resolver) dispatch(ctx context.Context, p Provider, systemPrompt string, texts []string) []string {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	slots := make([]string, len(texts))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

loop:
	for i, text := range texts {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)

		go func(idx int, text string) {
			defer wg.Done()
			defer func() { <-sem }()

			itemCtx := ctx
			if r.Timeout > 0 {
				var cancel context.CancelFunc
				itemCtx, cancel = context.WithTimeout(ctx, r.Timeout)
				defer cancel()
			}

			out, err := p.Translate(itemCtx, systemPrompt, text)
			if err != nil {
				log.Printf("[translate] item %d failed: %v", idx, err)
				return
			}
			out = strings.TrimSpace(out)
			if out == "" {
				log.Printf("[translate] item %d returned empty content", idx)
				return
			}
			slots[idx] = out
		}(i, text)
	}

	wg.Wait()
	return slots
}
