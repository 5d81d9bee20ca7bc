package response

import (
	"strings"

	"sales-assistant-be/pkg/store"
)

type Mode string

const (
	ModePricing  Mode = "pricing"
	ModeSteps    Mode = "steps"
	ModeDetailed Mode = "detailed"
	ModeQuick    Mode = "quick"
)

var (
	pricingPhrases  = []string{"pricing", "price", "cost", "how much", "quote", "budget", "fee", "rates"}
	stepsPhrases    = []string{"how to", "how do i", "steps", "step by step"}
	detailedPhrases = []string{"explain", "detail", "in depth"}
)

var modeInstructions = map[Mode]string{
	ModePricing:  "The visitor is asking about cost. Give concrete price ranges or packages from the reference material, say what drives the price, and offer a tailored quote.",
	ModeSteps:    "Answer as a short numbered list of steps. Keep each step to one or two sentences.",
	ModeDetailed: "Give a thorough answer with a short overview first, then the relevant details.",
	ModeQuick:    "The visitor is following up on the previous answer. Reply briefly in two to four sentences.",
}

// SelectMode picks the response style for this turn. A session in information
// gathering that has already received an answer is treated as a follow-up.
func SelectMode(input string, session *store.Session) Mode {
	q := strings.ToLower(input)

	if containsAny(q, pricingPhrases) || (session != nil && session.LastIntent == store.IntentPricing) {
		return ModePricing
	}
	if containsAny(q, stepsPhrases) {
		return ModeSteps
	}
	if containsAny(q, detailedPhrases) {
		return ModeDetailed
	}
	if session != nil && session.Stage == store.StageInformationGathering && session.CountRole(store.RoleAssistant) > 0 {
		return ModeQuick
	}
	return ModeDetailed
}

func (m Mode) Instruction() string {
	if s, ok := modeInstructions[m]; ok {
		return s
	}
	return modeInstructions[ModeDetailed]
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
