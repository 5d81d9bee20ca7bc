package response

import (
	"fmt"
	"strings"

	"sales-assistant-be/pkg/rag/freshness"
	"sales-assistant-be/pkg/rag/metadata"
	"sales-assistant-be/pkg/store"
)

// Persona is the assistant's standing brief.
const Persona = `You are the sales assistant for our web and software development studio.
Answer questions about our services, process, pricing and past work.
Help visitors understand how we can help with their project and, when they show buying interest, invite them to share contact details.
Be professional, concise and friendly. Never invent prices, dates or capabilities that are not in the reference material.`

// BuildSystemPrompt assembles persona, reference material, freshness disclosure,
// response mode and the metadata trailer instruction.
func BuildSystemPrompt(mode Mode, docs []store.ScoredDocument, topics []string) string {
	var b strings.Builder

	b.WriteString(Persona)
	b.WriteString("\n\n")

	b.WriteString("<reference_material>\n")
	if len(docs) == 0 {
		b.WriteString("No reference material matched this question. Say so briefly and ask what the visitor needs.\n")
	}
	for i, d := range docs {
		title := d.Title
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		fmt.Fprintf(&b, "\n--- SOURCE %d: %s", i+1, title)
		if src := d.Source(); src != "" {
			fmt.Fprintf(&b, " (%s)", src)
		}
		if ts, ok := d.LastUpdated(); ok {
			fmt.Fprintf(&b, " [updated %s]", ts.Format("2006-01-02"))
		}
		b.WriteString(" ---\n")
		b.WriteString(d.Content)
		b.WriteString("\n")
	}
	b.WriteString("</reference_material>\n\n")

	if freshness.AnyWarning(docs) {
		action := docs[0].SuggestedAction()
		b.WriteString("<freshness_warning>\n")
		b.WriteString("Some reference material may be outdated for this question. You MUST tell the visitor that the information may not be current")
		if action != "" {
			fmt.Fprintf(&b, " and suggest: %s", action)
		}
		b.WriteString("\n</freshness_warning>\n\n")
	}

	if len(topics) > 0 {
		fmt.Fprintf(&b, "<conversation_topics>%s</conversation_topics>\n\n", strings.Join(topics, ", "))
	}

	b.WriteString("<response_mode>\n")
	b.WriteString(mode.Instruction())
	b.WriteString("\n</response_mode>\n\n")

	b.WriteString(metadata.Instruction)
	return b.String()
}
