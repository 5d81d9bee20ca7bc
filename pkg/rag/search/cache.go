package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"sales-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

const DefaultCacheTTL = 10 * time.Minute

// CachedSearcher memoises identical searches for a short TTL.
type CachedSearcher struct {
	next  Searcher
	cache *cache.Cache
}

func NewCachedSearcher(next Searcher, ttl time.Duration) *CachedSearcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSearcher{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Lookup returns a cached result without touching the backend.
func (c *CachedSearcher) Lookup(query string, k int, filter *Filter) ([]store.Document, bool) {
	x, found := c.cache.Get(cacheKey(query, k, filter))
	if !found {
		return nil, false
	}
	return x.([]store.Document), true
}

func (c *CachedSearcher) Search(ctx context.Context, query string, k int, filter *Filter) ([]store.Document, error) {
	if docs, ok := c.Lookup(query, k, filter); ok {
		return docs, nil
	}

	docs, err := c.next.Search(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(cacheKey(query, k, filter), docs)
	return docs, nil
}

func (c *CachedSearcher) Flush() {
	c.cache.Flush()
}

func cacheKey(query string, k int, filter *Filter) string {
	key := fmt.Sprintf("%d|%s", k, strings.ToLower(strings.TrimSpace(query)))
	if filter == nil {
		return key
	}
	kw := append([]string(nil), filter.Keywords...)
	st := append([]string(nil), filter.SourceTypes...)
	sort.Strings(kw)
	sort.Strings(st)
	return key + "|kw=" + strings.Join(kw, ",") + "|st=" + strings.Join(st, ",")
}
