package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/repository/specification"
	"sales-assistant-be/pkg/apperror"
	"sales-assistant-be/pkg/resilience"
	"sales-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	query  string
	k      int
	filter *Filter
}

type fakeSearcher struct {
	mu       sync.Mutex
	calls    []call
	keyword  []store.Document
	semantic []store.Document
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int, filter *Filter) ([]store.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{query, k, filter})
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if filter != nil {
		return f.keyword, nil
	}
	return f.semantic, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func docs(contents ...string) []store.Document {
	out := make([]store.Document, len(contents))
	for i, c := range contents {
		out[i] = store.Document{Content: c, Metadata: map[string]interface{}{}}
	}
	return out
}

func contents(ds []store.Document) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Content
	}
	return out
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		sets  [][]store.Document
		want  []string
	}{
		{"dedup across sets", 5, [][]store.Document{docs("a", "b"), docs("b", "c")}, []string{"a", "b", "c"}},
		{"dedup within set", 5, [][]store.Document{docs("a", "a", "b")}, []string{"a", "b"}},
		{"cap", 3, [][]store.Document{docs("a", "b"), docs("c", "d", "e")}, []string{"a", "b", "c"}},
		{"case sensitive", 5, [][]store.Document{docs("A"), docs("a")}, []string{"A", "a"}},
		{"empty", 5, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contents(Merge(tt.limit, tt.sets...)))
		})
	}
}

func TestMerge_ContentAppearsOnce(t *testing.T) {
	a := docs("x", "y", "x", "z", "y")
	b := docs("z", "x", "w")
	out := Merge(10, a, b)

	counts := map[string]int{}
	for _, d := range out {
		counts[d.Content]++
	}
	for c, n := range counts {
		assert.Equal(t, 1, n, c)
	}
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"react", "pricing", "e-commerce"}, Keywords("How much is React pricing for an e-commerce site? react!")[:3])
	assert.Empty(t, Keywords("how are you"))
}

func TestHybridRetriever_Retrieve(t *testing.T) {
	fs := &fakeSearcher{
		keyword:  docs("pricing page", "plans overview", "faq"),
		semantic: docs("faq", "case study", "pricing page", "blog", "team"),
	}
	cb := resilience.NewCircuitBreaker("retrieval")
	h := NewHybridRetriever(fs, cb, DefaultConfig(), logger.NewNop())

	out, err := h.Retrieve(context.Background(), "latest pricing plans")
	require.NoError(t, err)
	assert.Equal(t, []string{"pricing page", "plans overview", "faq", "case study", "blog"}, contents(out))

	require.Equal(t, 2, fs.callCount())
	for _, c := range fs.calls {
		assert.Equal(t, 5, c.k)
		if c.filter != nil {
			assert.Equal(t, []string{"latest", "pricing", "plans"}, c.filter.Keywords)
		}
	}
}

func TestHybridRetriever_NoKeywordsSkipsLexicalSearch(t *testing.T) {
	fs := &fakeSearcher{semantic: docs("a")}
	h := NewHybridRetriever(fs, resilience.NewCircuitBreaker("retrieval"), Config{}, logger.NewNop())

	out, err := h.Retrieve(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, contents(out))
	assert.Equal(t, 1, fs.callCount())
}

func TestHybridRetriever_Failures(t *testing.T) {
	t.Run("backend error", func(t *testing.T) {
		fs := &fakeSearcher{err: errors.New("connection refused")}
		h := NewHybridRetriever(fs, resilience.NewCircuitBreaker("retrieval"), DefaultConfig(), logger.NewNop())

		_, err := h.Retrieve(context.Background(), "pricing")
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeRetrievalFailed, appErr.Code)
		assert.True(t, appErr.Retryable)
	})

	t.Run("breaker open", func(t *testing.T) {
		fs := &fakeSearcher{err: errors.New("down")}
		cb := resilience.NewCircuitBreaker("retrieval", resilience.WithFailureThreshold(1))
		h := NewHybridRetriever(fs, cb, DefaultConfig(), logger.NewNop())

		_, _ = h.Retrieve(context.Background(), "pricing plans")
		require.Equal(t, resilience.StateOpen, cb.State())

		before := fs.callCount()
		_, err := h.Retrieve(context.Background(), "pricing plans")
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeRetrievalFailed, appErr.Code)
		assert.Equal(t, apperror.UnavailableMessage, appErr.UserMessage)
		assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
		assert.Equal(t, before, fs.callCount())
	})
}

func TestCachedSearcher(t *testing.T) {
	fs := &fakeSearcher{keyword: docs("k"), semantic: docs("s")}
	c := NewCachedSearcher(fs, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := c.Search(ctx, "Pricing ", 5, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"s"}, contents(out))
	}
	_, _ = c.Search(ctx, "pricing", 5, &Filter{Keywords: []string{"b", "a"}})
	_, _ = c.Search(ctx, "pricing", 5, &Filter{Keywords: []string{"a", "b"}})
	assert.Equal(t, 2, fs.callCount())

	c.Flush()
	_, _ = c.Search(ctx, "pricing", 5, nil)
	assert.Equal(t, 3, fs.callCount())
}

func TestHybridRetriever_CacheHitBypassesOpenBreaker(t *testing.T) {
	fs := &fakeSearcher{keyword: docs("k"), semantic: docs("s")}
	cached := NewCachedSearcher(fs, time.Minute)
	cb := resilience.NewCircuitBreaker("retrieval", resilience.WithFailureThreshold(1))
	h := NewHybridRetriever(cached, cb, DefaultConfig(), logger.NewNop())

	_, err := h.Retrieve(context.Background(), "pricing")
	require.NoError(t, err)

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("trip") })
	require.Equal(t, resilience.StateOpen, cb.State())

	out, err := h.Retrieve(context.Background(), "pricing")
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "s"}, contents(out))
}

type fakeEmbedder struct{ err error }

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, f.err
}
func (f fakeEmbedder) Dimensions() int { return 2 }

type fakeKnowledgeRepo struct {
	specs   []specification.Specification
	results []*entity.ScoredKnowledgeDocument
}

func (r *fakeKnowledgeRepo) Create(ctx context.Context, doc *entity.KnowledgeDocument) error {
	return nil
}
func (r *fakeKnowledgeRepo) CreateBulk(ctx context.Context, docs []*entity.KnowledgeDocument) error {
	return nil
}
func (r *fakeKnowledgeRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeDocument, error) {
	return nil, nil
}
func (r *fakeKnowledgeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeDocument, error) {
	return nil, nil
}
func (r *fakeKnowledgeRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (r *fakeKnowledgeRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*entity.ScoredKnowledgeDocument, error) {
	r.specs = specs
	return r.results, nil
}

func TestVectorSearcher(t *testing.T) {
	updated := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	repo := &fakeKnowledgeRepo{results: []*entity.ScoredKnowledgeDocument{{
		Document: &entity.KnowledgeDocument{
			Id: uuid.New(), Title: "Pricing", Content: "Plans start at $49",
			Source: "https://example.com/pricing", SourceType: "official_docs",
			LastUpdated: &updated, Metadata: map[string]interface{}{"section": "plans"},
		},
		Similarity: 0.87,
	}}}
	s := NewVectorSearcher(fakeEmbedder{}, repo, logger.NewNop())

	out, err := s.Search(context.Background(), "pricing", 5, &Filter{Keywords: []string{"pricing"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, repo.specs, 2)

	d := out[0]
	assert.Equal(t, "official_docs", d.SourceType())
	assert.Equal(t, "https://example.com/pricing", d.Source())
	assert.Equal(t, "plans", d.Metadata["section"])
	ts, ok := d.LastUpdated()
	require.True(t, ok)
	assert.True(t, updated.Equal(ts))

	_, err = s.Search(context.Background(), "pricing", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, repo.specs)

	_, err = NewVectorSearcher(fakeEmbedder{err: errors.New("ollama down")}, repo, logger.NewNop()).
		Search(context.Background(), "x", 5, nil)
	assert.Error(t, err)
}
