package lead

import (
	"strings"

	"sales-assistant-be/pkg/store"
)

const (
	DefaultHistoryTurns  = 3
	DefaultAskConfidence = 0.6
)

var DefaultHighIntentPhrases = []string{
	"pricing", "cost", "how much", "book", "schedule", "demo",
	"interested", "quote", "hire", "project", "budget",
}

// Signal is the lead evidence found in a turn. Either Email and Name are both set,
// or ShouldAsk is true and no contact data was resolved.
type Signal struct {
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	ShouldAsk bool   `json:"shouldAsk"`
}

func (s *Signal) Complete() bool {
	return s != nil && s.Email != "" && s.Name != ""
}

type contact map[Field]string

func (c contact) fill(text string, strategies ...Strategy) {
	if len(strategies) == 0 {
		return
	}
	field := strategies[0].Field()
	if c[field] != "" {
		return
	}
	if r := FirstFound(text, strategies...); r.Found {
		c[field] = r.Value
	}
}

type Detector struct {
	historyTurns  int
	askConfidence float64
	phrases       []string
}

type Option func(*Detector)

func WithHistoryTurns(n int) Option {
	return func(d *Detector) {
		if n >= 0 {
			d.historyTurns = n
		}
	}
}

func WithAskConfidence(c float64) Option {
	return func(d *Detector) { d.askConfidence = c }
}

func WithHighIntentPhrases(phrases ...string) Option {
	return func(d *Detector) {
		if len(phrases) > 0 {
			d.phrases = phrases
		}
	}
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		historyTurns:  DefaultHistoryTurns,
		askConfidence: DefaultAskConfidence,
		phrases:       DefaultHighIntentPhrases,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect looks for contact details in message and, failing that, in the user turns
// among the last few history turns. history must not include message itself.
// It returns nil when there is nothing to act on.
func (d *Detector) Detect(message string, meta store.ResponseMetadata, history []store.Turn) *Signal {
	c := contact{}
	c.fill(message, emailStrategy{})
	c.fill(message, nameIntroStrategy{}, residualNameStrategy{})
	c.fill(message, phoneStrategy{})
	c.fill(message, companyStrategy{})

	if c[FieldEmail] == "" || c[FieldName] == "" {
		recent := history
		if len(recent) > d.historyTurns {
			recent = recent[len(recent)-d.historyTurns:]
		}
		for i := len(recent) - 1; i >= 0; i-- {
			if recent[i].Role != store.RoleUser {
				continue
			}
			text := recent[i].Content
			c.fill(text, emailStrategy{})
			c.fill(text, nameIntroStrategy{}, bareNameStrategy{})
			c.fill(text, phoneStrategy{})
			c.fill(text, companyStrategy{})
		}
		// A bare reply to "what's your name?" once the email is already known.
		if c[FieldEmail] != "" {
			c.fill(message, bareNameStrategy{})
		}
	}

	if c[FieldEmail] != "" && c[FieldName] != "" {
		return &Signal{
			Email:   c[FieldEmail],
			Name:    c[FieldName],
			Phone:   c[FieldPhone],
			Company: c[FieldCompany],
		}
	}

	if d.HighIntent(message) && (meta.Intent == store.IntentPricing || meta.Intent == store.IntentDemo || meta.Confidence >= d.askConfidence) {
		return &Signal{ShouldAsk: true}
	}
	return nil
}

func (d *Detector) HighIntent(message string) bool {
	m := strings.ToLower(message)
	for _, p := range d.phrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}
