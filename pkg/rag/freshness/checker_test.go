package freshness

import (
	"testing"
	"time"

	"sales-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func scored(content string, age time.Duration) store.ScoredDocument {
	meta := map[string]interface{}{store.MetaSource: "kb"}
	if age >= 0 {
		meta[store.MetaLastUpdated] = now.Add(-age).Format(time.RFC3339)
	}
	return store.ScoredDocument{Document: store.Document{Content: content, Metadata: meta}}
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestChecker_Sensitive(t *testing.T) {
	c := NewChecker()
	tests := []struct {
		query string
		want  bool
	}{
		{"What is the latest pricing?", true},
		{"any updates on the API", true},
		{"Is this CURRENT?", true},
		{"what's new", true},
		{"newest features", true},
		{"how do I renew my plan", false},
		{"tell me about your services", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Sensitive(tt.query))
		})
	}
}

func TestChecker_Check(t *testing.T) {
	c := NewChecker(WithClock(func() time.Time { return now }))

	tests := []struct {
		name        string
		query       string
		docs        []store.ScoredDocument
		wantWarning bool
	}{
		{"latest pricing all stale", "latest pricing", []store.ScoredDocument{scored("a", days(10)), scored("b", days(10))}, true},
		{"oldest stale marks all", "current plans", []store.ScoredDocument{scored("fresh", days(1)), scored("old", days(30))}, true},
		{"exactly seven days", "latest pricing", []store.ScoredDocument{scored("a", days(7))}, false},
		{"fresh set", "latest pricing", []store.ScoredDocument{scored("a", days(2))}, false},
		{"not sensitive", "tell me about react", []store.ScoredDocument{scored("a", days(100))}, false},
		{"no timestamps", "latest pricing", []store.ScoredDocument{scored("a", -1)}, false},
		{"undated doc still annotated", "latest pricing", []store.ScoredDocument{scored("a", -1), scored("b", days(9))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := c.Check(tt.query, tt.docs)
			require.Len(t, out, len(tt.docs))
			for i, d := range out {
				assert.Equal(t, tt.docs[i].Content, d.Content)
				assert.Equal(t, tt.wantWarning, d.HasFreshnessWarning())
				if tt.wantWarning {
					assert.Equal(t, DefaultSuggestedAction, d.SuggestedAction())
				}
			}
			assert.Equal(t, tt.wantWarning, AnyWarning(out))
		})
	}
}

func TestChecker_DoesNotMutateInput(t *testing.T) {
	c := NewChecker(WithClock(func() time.Time { return now }), WithMaxAge(24*time.Hour))
	in := []store.ScoredDocument{scored("a", days(3))}

	out := c.Check("new features", in)
	assert.True(t, out[0].HasFreshnessWarning())
	assert.False(t, in[0].HasFreshnessWarning())
}

func TestChecker_CustomKeywords(t *testing.T) {
	c := NewChecker(WithKeywords("today"))
	assert.True(t, c.Sensitive("rates today"))
	assert.False(t, c.Sensitive("latest pricing"))
}
