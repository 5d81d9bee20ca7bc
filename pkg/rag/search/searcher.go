package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/repository/contract"
	"sales-assistant-be/internal/repository/specification"
	"sales-assistant-be/pkg/embedding"
	"sales-assistant-be/pkg/store"
)

// Filter narrows a search to documents mentioning at least one keyword and,
// optionally, to certain source types.
type Filter struct {
	Keywords    []string
	SourceTypes []string
}

// Searcher is the vector/keyword search backend.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filter *Filter) ([]store.Document, error)
}

// VectorSearcher embeds the query and runs a pgvector similarity search over the
// knowledge base, applying the filter as SQL predicates.
type VectorSearcher struct {
	embeddingProvider embedding.EmbeddingProvider
	repo              contract.KnowledgeDocumentRepository
	logger            logger.ILogger
}

func NewVectorSearcher(embeddingProvider embedding.EmbeddingProvider, repo contract.KnowledgeDocumentRepository, log logger.ILogger) *VectorSearcher {
	return &VectorSearcher{
		embeddingProvider: embeddingProvider,
		repo:              repo,
		logger:            log,
	}
}

func (s *VectorSearcher) Search(ctx context.Context, query string, k int, filter *Filter) ([]store.Document, error) {
	vec, err := s.embeddingProvider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var specs []specification.Specification
	if filter != nil {
		specs = append(specs,
			specification.ContentMatchesAny{Keywords: filter.Keywords},
			specification.BySourceTypes{Types: filter.SourceTypes},
		)
	}

	results, err := s.repo.SearchSimilar(ctx, vec, k, specs...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	docs := make([]store.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, ToDocument(r))
	}

	s.logger.Debug("VectorSearcher", "Search completed", map[string]interface{}{
		"filtered": filter != nil,
		"results":  len(docs),
	})
	return docs, nil
}

// ToDocument flattens a stored knowledge document into the pipeline's view.
func ToDocument(r *entity.ScoredKnowledgeDocument) store.Document {
	d := r.Document
	meta := make(map[string]interface{}, len(d.Metadata)+3)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[store.MetaSource] = d.Source
	meta[store.MetaSourceType] = d.SourceType
	if d.LastUpdated != nil {
		meta[store.MetaLastUpdated] = d.LastUpdated.UTC().Format(time.RFC3339)
	}

	return store.Document{
		ID:       d.Id.String(),
		Title:    d.Title,
		Content:  d.Content,
		Score:    float32(r.Similarity),
		Metadata: meta,
	}
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "you": {}, "your": {}, "what": {},
	"how": {}, "does": {}, "can": {}, "with": {}, "this": {}, "that": {}, "about": {},
	"have": {}, "from": {}, "tell": {}, "much": {}, "there": {}, "which": {}, "would": {},
	"could": {}, "should": {}, "will": {}, "want": {}, "need": {}, "please": {}, "any": {},
}

// Keywords extracts lexical search terms: lowercased words of three or more
// characters that are not stop words, in first-seen order.
func Keywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r >= 0x80)
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
