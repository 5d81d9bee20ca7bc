package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"sales-assistant-be/pkg/store"
)

var (
	confidenceMarker = regexp.MustCompile(`(?i)\[\s*CONFIDENCE\s*:\s*([^\]]*)\]`)
	intentMarker     = regexp.MustCompile(`(?i)\[\s*INTENT\s*:\s*([^\]]*)\]`)
	topicsMarker     = regexp.MustCompile(`(?i)\[\s*TOPICS\s*:\s*([^\]]*)\]`)
	blankRun         = regexp.MustCompile(`[ \t]+\n`)
)

// Instruction is appended to the system prompt so the model emits the markers Parse
// understands.
const Instruction = `Always end your response with metadata in exactly this format:
[CONFIDENCE: 0.8] [INTENT: pricing] [TOPICS: web development, react]
CONFIDENCE: 0.0-1.0, how confident you are that you understood and answered the question.
INTENT: one of information, pricing, demo, support, other.
TOPICS: comma-separated topics discussed.`

// Parse extracts the trailing metadata markers and returns the text with every
// marker removed.
func Parse(raw string) (string, store.ResponseMetadata) {
	meta := store.ResponseMetadata{
		Confidence: store.DefaultConfidence,
		Intent:     store.IntentOther,
		Topics:     []string{},
	}

	if m := lastMatch(confidenceMarker, raw); m != "" {
		if c, err := strconv.ParseFloat(strings.TrimSpace(m), 64); err == nil {
			meta.Confidence = c
		}
	}
	meta.Confidence = store.ClampConfidence(meta.Confidence)

	if m := lastMatch(intentMarker, raw); m != "" {
		meta.Intent = store.ParseIntent(m)
	}

	if m := lastMatch(topicsMarker, raw); m != "" {
		for _, t := range strings.Split(m, ",") {
			if t = strings.TrimSpace(t); t != "" {
				meta.Topics = append(meta.Topics, t)
			}
		}
	}

	clean := confidenceMarker.ReplaceAllString(raw, "")
	clean = intentMarker.ReplaceAllString(clean, "")
	clean = topicsMarker.ReplaceAllString(clean, "")
	clean = blankRun.ReplaceAllString(clean, "\n")
	return strings.TrimSpace(clean), meta
}

// lastMatch returns the capture of the final occurrence; the trailer wins over
// anything the model echoed earlier in its answer.
func lastMatch(re *regexp.Regexp, s string) string {
	all := re.FindAllStringSubmatch(s, -1)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1][1]
}
