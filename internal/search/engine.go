// Package search answers the delegate search of clustering requests from the
// full-text index and the document store.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/keyword"
	"github.com/hyperjump/matome/internal/models"
)

// SourceStore loads the _source objects of hits.
type SourceStore interface {
	GetSources(ctx context.Context, ids []string) (map[string]map[string]any, error)
}

// SpellChecker proposes a corrected query.
type SpellChecker interface {
	Check(query string) (*models.Suggestion, error)
}

// Engine runs keyword search and attaches sources and suggestions.
type Engine struct {
	index   keyword.Index
	sources SourceStore
	speller SpellChecker
	config  *config.SearchConfig
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSpellChecker enables suggestions for requests asking for them.
func WithSpellChecker(s SpellChecker) Option {
	return func(e *Engine) { e.speller = s }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a search engine over index. Sources are read from
// sources when a request wants them.
func NewEngine(index keyword.Index, sources SourceStore, cfg *config.SearchConfig, opts ...Option) *Engine {
	e := &Engine{
		index:   index,
		sources: sources,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs req. The keyword search and the spell check run concurrently;
// a failing spell check only drops the suggestion.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	startTime := time.Now()
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &models.ValidationError{Errors: errs}
	}
	query := ProcessQuery(req, e.config)

	var (
		result     *models.SearchResult
		searchErr  error
		suggestion *models.Suggestion
		wg         sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		result, searchErr = e.index.Search(ctx, query)
	}()

	if query.Suggest && e.speller != nil && strings.TrimSpace(query.Query) != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := e.speller.Check(query.Query)
			if err != nil {
				e.logger.Warn("spell check failed", zap.String("query", query.Query), zap.Error(err))
				return
			}
			suggestion = s
		}()
	}

	wg.Wait()
	if searchErr != nil {
		return nil, fmt.Errorf("keyword search failed: %w", searchErr)
	}

	if query.WantsSource() && len(result.Hits.Hits) > 0 {
		ids := make([]string, len(result.Hits.Hits))
		for i, h := range result.Hits.Hits {
			ids[i] = h.ID
		}
		sources, err := e.sources.GetSources(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load sources: %w", err)
		}
		for _, h := range result.Hits.Hits {
			h.Source = sources[h.ID]
		}
	}

	if query.Highlight != nil && query.Highlight.FragmentSize > 0 {
		for _, h := range result.Hits.Hits {
			for field, fragments := range h.Highlight {
				for i, f := range fragments {
					fragments[i] = TrimFragment(f, query.Highlight.FragmentSize)
				}
				h.Highlight[field] = fragments
			}
		}
	}

	if suggestion != nil {
		result.Suggest = append(result.Suggest, *suggestion)
	}
	result.Took = time.Since(startTime).Milliseconds()

	e.logger.Debug("search completed",
		zap.String("query", query.Query),
		zap.Uint64("total", result.Hits.Total),
		zap.Int("returned", len(result.Hits.Hits)),
		zap.Int64("took_ms", result.Took),
	)
	return result, nil
}
