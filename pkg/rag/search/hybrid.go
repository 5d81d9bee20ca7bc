package search

import (
	"context"
	"fmt"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/apperror"
	"sales-assistant-be/pkg/resilience"
	"sales-assistant-be/pkg/store"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	PerStrategy int
	MaxResults  int
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		PerStrategy: 5,
		MaxResults:  5,
	}
}

// cacheLookup is implemented by searchers that can answer without I/O.
type cacheLookup interface {
	Lookup(query string, k int, filter *Filter) ([]store.Document, bool)
}

// HybridRetriever runs a keyword-filtered and a pure semantic search concurrently,
// both through the retrieval breaker, and merges the results.
type HybridRetriever struct {
	searcher Searcher
	breaker  *resilience.CircuitBreaker
	cfg      Config
	logger   logger.ILogger
}

func NewHybridRetriever(searcher Searcher, breaker *resilience.CircuitBreaker, cfg Config, log logger.ILogger) *HybridRetriever {
	def := DefaultConfig()
	if cfg.PerStrategy <= 0 {
		cfg.PerStrategy = def.PerStrategy
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	return &HybridRetriever{searcher: searcher, breaker: breaker, cfg: cfg, logger: log}
}

// Retrieve returns at most MaxResults documents, keyword results first, deduplicated
// by exact content. Any failure is reported as RETRIEVAL_FAILED; nothing is retried.
func (h *HybridRetriever) Retrieve(ctx context.Context, query string) ([]store.Document, error) {
	var keywordFilter *Filter
	if kw := Keywords(query); len(kw) > 0 {
		keywordFilter = &Filter{Keywords: kw}
	}

	var keywordDocs, semanticDocs []store.Document
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if keywordFilter == nil {
			return nil
		}
		docs, err := h.search(gctx, query, keywordFilter)
		if err != nil {
			return fmt.Errorf("keyword search: %w", err)
		}
		keywordDocs = docs
		return nil
	})
	g.Go(func() error {
		docs, err := h.search(gctx, query, nil)
		if err != nil {
			return fmt.Errorf("semantic search: %w", err)
		}
		semanticDocs = docs
		return nil
	})

	if err := g.Wait(); err != nil {
		appErr := apperror.FromDependency(apperror.CodeRetrievalFailed, err)
		h.logger.Error("HybridRetriever", "Retrieval failed", map[string]interface{}{
			"error":    err,
			"error_id": appErr.ErrorID,
			"breaker":  h.breaker.State(),
		})
		return nil, appErr
	}

	merged := Merge(h.cfg.MaxResults, keywordDocs, semanticDocs)
	h.logger.Debug("HybridRetriever", "Retrieval merged", map[string]interface{}{
		"keyword":  len(keywordDocs),
		"semantic": len(semanticDocs),
		"merged":   len(merged),
	})
	return merged, nil
}

func (h *HybridRetriever) search(ctx context.Context, query string, filter *Filter) ([]store.Document, error) {
	if c, ok := h.searcher.(cacheLookup); ok {
		if docs, hit := c.Lookup(query, h.cfg.PerStrategy, filter); hit {
			return docs, nil
		}
	}
	return resilience.Execute(ctx, h.breaker, func(ctx context.Context) ([]store.Document, error) {
		return h.searcher.Search(ctx, query, h.cfg.PerStrategy, filter)
	})
}

// Merge concatenates the result sets, keeps the first occurrence of each distinct
// content and caps the output at limit.
func Merge(limit int, sets ...[]store.Document) []store.Document {
	seen := make(map[string]struct{})
	out := make([]store.Document, 0, limit)
	for _, set := range sets {
		for _, d := range set {
			if len(out) >= limit {
				return out
			}
			if _, dup := seen[d.Content]; dup {
				continue
			}
			seen[d.Content] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}
