package store

import "strings"

type Intent string

const (
	IntentInformation   Intent = "information"
	IntentPricing       Intent = "pricing"
	IntentDemo          Intent = "demo"
	IntentSupport       Intent = "support"
	IntentClarification Intent = "clarification"
	IntentOther         Intent = "other"
)

var knownIntents = map[Intent]struct{}{
	IntentInformation:   {},
	IntentPricing:       {},
	IntentDemo:          {},
	IntentSupport:       {},
	IntentClarification: {},
	IntentOther:         {},
}

// ParseIntent maps free text onto the intent enum, defaulting to IntentOther.
func ParseIntent(raw string) Intent {
	i := Intent(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownIntents[i]; ok {
		return i
	}
	return IntentOther
}

const DefaultConfidence = 0.5

// ResponseMetadata is the structured trailer parsed out of a generated answer.
type ResponseMetadata struct {
	Confidence float64  `json:"confidence"`
	Intent     Intent   `json:"intent"`
	Topics     []string `json:"topics"`
}

// ClampConfidence forces c into [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c:
		return DefaultConfidence
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

func normalizeTopic(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
