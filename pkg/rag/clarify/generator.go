package clarify

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"sales-assistant-be/pkg/store"
)

// Threshold below which the model's answer is replaced by a clarifying question.
const Threshold = 0.5

// ClarifiedConfidence is reported once the pipeline has asked for clarification.
const ClarifiedConfidence = 0.95

const fallbackTopic = "your project"

type Category string

const (
	CategoryLowConfidence   Category = "low_confidence"
	CategoryMissingContext  Category = "missing_context"
	CategoryMultipleOptions Category = "multiple_options"
)

var templates = map[Category][]string{
	CategoryLowConfidence: {
		"I want to make sure I get this right. Could you tell me a bit more about what you need regarding %s?",
		"Just to be sure I understand: what would you like to know about %s?",
		"Could you rephrase or add some detail about %s so I can give you an accurate answer?",
	},
	CategoryMissingContext: {
		"Could you share a little more context about %s, like your goals or timeline?",
		"To point you in the right direction, what are you hoping to achieve with %s?",
		"What's the situation around %s? A few details will help me give you a useful answer.",
	},
	CategoryMultipleOptions: {
		"There are a few directions we could take with %s. Which aspect matters most to you?",
		"%s can mean a few different things. Are you asking about scope, cost, or timeline?",
		"I can help with several parts of %s. Which one should we start with?",
	},
}

// Chooser picks an index in [0, n).
type Chooser interface {
	IntN(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// NewSeededChooser returns a goroutine-safe Chooser backed by a PCG source.
func NewSeededChooser(seed uint64) Chooser {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type Generator struct {
	chooser Chooser
}

func NewGenerator(chooser Chooser) *Generator {
	if chooser == nil {
		chooser = NewSeededChooser(uint64(time.Now().UnixNano()))
	}
	return &Generator{chooser: chooser}
}

// Needed reports whether confidence is too low to show the model's answer.
func Needed(meta store.ResponseMetadata) bool {
	return meta.Confidence < Threshold
}

// CategoryFor picks the template family from the detected topics.
func CategoryFor(meta store.ResponseMetadata) Category {
	switch {
	case len(meta.Topics) == 0:
		return CategoryMissingContext
	case len(meta.Topics) > 1:
		return CategoryMultipleOptions
	default:
		return CategoryLowConfidence
	}
}

// Question renders one template of the category with the first topic substituted.
func (g *Generator) Question(category Category, topics []string) string {
	options, ok := templates[category]
	if !ok {
		options = templates[CategoryLowConfidence]
	}

	topic := fallbackTopic
	if len(topics) > 0 && strings.TrimSpace(topics[0]) != "" {
		topic = strings.TrimSpace(topics[0])
	}

	tmpl := options[g.chooser.IntN(len(options))]
	out := strings.Replace(tmpl, "%s", topic, 1)
	if strings.HasPrefix(tmpl, "%s") {
		r, n := utf8.DecodeRuneInString(out)
		out = string(unicode.ToUpper(r)) + out[n:]
	}
	return out
}

// Apply returns the answer and metadata to emit. When confidence is below the
// threshold the answer is replaced by a clarifying question and the metadata is
// overridden, keeping the detected topics.
func (g *Generator) Apply(answer string, meta store.ResponseMetadata) (string, store.ResponseMetadata, bool) {
	if !Needed(meta) {
		return answer, meta, false
	}

	question := g.Question(CategoryFor(meta), meta.Topics)
	return question, store.ResponseMetadata{
		Confidence: ClarifiedConfidence,
		Intent:     store.IntentClarification,
		Topics:     meta.Topics,
	}, true
}
