package store

import (
	"fmt"
	"time"
)

// Metadata keys understood by the pipeline.
const (
	MetaSource           = "source"
	MetaLastUpdated      = "lastUpdated"
	MetaSourceType       = "sourceType"
	MetaFreshnessWarning = "freshnessWarning"
	MetaSuggestedAction  = "suggestedAction"
)

// Document is a retrieved reference snippet. Owned by the retrieval backend.
type Document struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ScoredDocument is a Document annotated by the re-ranker.
type ScoredDocument struct {
	Document
	RelevanceScore float64 `json:"relevance_score"`
	RecencyScore   float64 `json:"recency_score"`
	TrustScore     float64 `json:"trust_score"`
	FinalScore     float64 `json:"final_score"`
}

func (d Document) Source() string {
	return d.metaString(MetaSource)
}

func (d Document) SourceType() string {
	return d.metaString(MetaSourceType)
}

func (d Document) HasFreshnessWarning() bool {
	v, _ := d.Metadata[MetaFreshnessWarning].(bool)
	return v
}

func (d Document) SuggestedAction() string {
	return d.metaString(MetaSuggestedAction)
}

// LastUpdated parses the lastUpdated metadata. It accepts time.Time values and
// RFC 3339 or YYYY-MM-DD strings.
func (d Document) LastUpdated() (time.Time, bool) {
	switch v := d.Metadata[MetaLastUpdated].(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// WithMetadata returns a copy of d whose metadata map is cloned and extended with kv.
func (d Document) WithMetadata(kv map[string]interface{}) Document {
	meta := make(map[string]interface{}, len(d.Metadata)+len(kv))
	for k, v := range d.Metadata {
		meta[k] = v
	}
	for k, v := range kv {
		meta[k] = v
	}
	d.Metadata = meta
	return d
}

func (d Document) metaString(key string) string {
	switch v := d.Metadata[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
