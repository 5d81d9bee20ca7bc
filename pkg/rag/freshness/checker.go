package freshness

import (
	"regexp"
	"strings"
	"time"

	"sales-assistant-be/pkg/store"
)

const (
	DefaultMaxAge          = 7 * 24 * time.Hour
	DefaultSuggestedAction = "This information may be out of date. Confirm current details with our team before making a decision."
)

// DefaultKeywords mark a query as needing current information. Matching is on word
// prefixes, so "updates" and "newest" count but "renew" does not.
var DefaultKeywords = []string{"pricing", "latest", "current", "new", "update"}

type Checker struct {
	pattern         *regexp.Regexp
	maxAge          time.Duration
	suggestedAction string
	now             func() time.Time
}

type Option func(*Checker)

func WithMaxAge(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

func WithSuggestedAction(s string) Option {
	return func(c *Checker) { c.suggestedAction = s }
}

func WithKeywords(keywords ...string) Option {
	return func(c *Checker) {
		if len(keywords) > 0 {
			c.pattern = compile(keywords)
		}
	}
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		pattern:         compile(DefaultKeywords),
		maxAge:          DefaultMaxAge,
		suggestedAction: DefaultSuggestedAction,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func compile(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(k))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)`)
}

// Sensitive reports whether the query asks for current information.
func (c *Checker) Sensitive(query string) bool {
	return c.pattern.MatchString(strings.ToLower(query))
}

// Check annotates every document with a freshness warning when the query is
// sensitive and the oldest dated document exceeds the max age. Documents without a
// usable timestamp do not count towards the oldest age. Nothing is ever dropped,
// and the input slice is not modified.
func (c *Checker) Check(query string, docs []store.ScoredDocument) []store.ScoredDocument {
	out := make([]store.ScoredDocument, len(docs))
	copy(out, docs)

	if len(docs) == 0 || !c.Sensitive(query) {
		return out
	}

	var oldest time.Time
	for _, d := range docs {
		ts, ok := d.LastUpdated()
		if !ok {
			continue
		}
		if oldest.IsZero() || ts.Before(oldest) {
			oldest = ts
		}
	}
	if oldest.IsZero() || c.now().Sub(oldest) <= c.maxAge {
		return out
	}

	for i := range out {
		out[i].Document = out[i].Document.WithMetadata(map[string]interface{}{
			store.MetaFreshnessWarning: true,
			store.MetaSuggestedAction:  c.suggestedAction,
		})
	}
	return out
}

// AnyWarning reports whether any document carries a freshness warning.
func AnyWarning(docs []store.ScoredDocument) bool {
	for _, d := range docs {
		if d.HasFreshnessWarning() {
			return true
		}
	}
	return false
}
