package rerank

import (
	"math"
	"sort"
	"strings"
	"time"

	"sales-assistant-be/pkg/store"
)

const (
	DefaultTopK = 3
	recencyRate = 0.05
)

// DefaultTrust scores sources by type. Unlisted types get UnknownTrust.
var DefaultTrust = map[string]float64{
	"official_docs": 1.0,
	"tutorial":      0.9,
	"blog_post":     0.7,
	"forum_post":    0.6,
	"user_comment":  0.5,
}

const UnknownTrust = 0.5

type Weights struct {
	Relevance float64
	Recency   float64
	Trust     float64
}

var DefaultWeights = Weights{Relevance: 0.6, Recency: 0.2, Trust: 0.2}

type Config struct {
	TopK    int
	Weights Weights
	Trust   map[string]float64
	Now     func() time.Time
}

func DefaultConfig() Config {
	return Config{
		TopK:    DefaultTopK,
		Weights: DefaultWeights,
		Trust:   DefaultTrust,
		Now:     time.Now,
	}
}

// Ranker scores documents by relevance, recency and source trust. It does no I/O.
type Ranker struct {
	cfg Config
}

func NewRanker(cfg Config) *Ranker {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.Trust == nil {
		cfg.Trust = def.Trust
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &Ranker{cfg: cfg}
}

// Rank scores every document, sorts by final score (ties keep input order) and
// returns the top K.
func (r *Ranker) Rank(query string, docs []store.Document) []store.ScoredDocument {
	now := r.cfg.Now()
	terms := QueryTerms(query)

	scored := make([]store.ScoredDocument, len(docs))
	for i, d := range docs {
		rel := Relevance(terms, d.Content)
		rec := 0.0
		if ts, ok := d.LastUpdated(); ok {
			rec = Recency(AgeInDays(now, ts))
		}
		trust := r.trustFor(d.SourceType())

		scored[i] = store.ScoredDocument{
			Document:       d,
			RelevanceScore: rel,
			RecencyScore:   rec,
			TrustScore:     trust,
			FinalScore:     r.combine(rel, rec, trust),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	if len(scored) > r.cfg.TopK {
		scored = scored[:r.cfg.TopK]
	}
	return scored
}

func (r *Ranker) trustFor(sourceType string) float64 {
	if v, ok := r.cfg.Trust[sourceType]; ok {
		return v
	}
	return UnknownTrust
}

func (r *Ranker) combine(rel, rec, trust float64) float64 {
	w := r.cfg.Weights
	total := w.Relevance + w.Recency + w.Trust
	if total <= 0 {
		return 0
	}
	score := (w.Relevance*rel + w.Recency*rec + w.Trust*trust) / total
	return math.Max(0, math.Min(1, score))
}

// QueryTerms lowercases and splits the query on whitespace.
func QueryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Relevance is the share of terms that occur as substrings of content.
func Relevance(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	found := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// Recency decays exponentially with age. Negative ages count as zero.
func Recency(ageInDays float64) float64 {
	if ageInDays < 0 {
		ageInDays = 0
	}
	return math.Exp(-recencyRate * ageInDays)
}

func AgeInDays(now, ts time.Time) float64 {
	return now.Sub(ts).Hours() / 24
}
