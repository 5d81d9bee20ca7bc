package dto

import (
	"strings"
	"unicode"
)

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,max=8000"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

// Sanitize strips control characters other than newline and tab from every message
// and drops earlier messages left empty. The last message is always kept so an
// empty input still fails validation.
func (r *ChatRequest) Sanitize() {
	for i := range r.Messages {
		r.Messages[i].Role = strings.ToLower(strings.TrimSpace(r.Messages[i].Role))
		r.Messages[i].Content = strings.TrimSpace(strings.Map(func(c rune) rune {
			if c == '\n' || c == '\t' {
				return c
			}
			if unicode.IsControl(c) {
				return -1
			}
			return c
		}, r.Messages[i].Content))
	}

	if len(r.Messages) < 2 {
		return
	}
	last := len(r.Messages) - 1
	kept := r.Messages[:0]
	for i, m := range r.Messages {
		if i != last && m.Content == "" {
			continue
		}
		kept = append(kept, m)
	}
	r.Messages = kept
}

// Input returns the content of the last message when it is from the user.
func (r *ChatRequest) Input() (string, bool) {
	if len(r.Messages) == 0 {
		return "", false
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != "user" || last.Content == "" {
		return "", false
	}
	return last.Content, true
}

// Earlier returns every message before the last one.
func (r *ChatRequest) Earlier() []ChatMessage {
	if len(r.Messages) < 2 {
		return nil
	}
	return r.Messages[:len(r.Messages)-1]
}

// SSE event payloads. Each is written as one "data: <json>" frame.

type ContentEvent struct {
	Content string `json:"content"`
}

type MetadataEvent struct {
	Metadata ChatMetadata `json:"metadata"`
}

type ErrorEvent struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	ErrorId   string `json:"errorId,omitempty"`
}

type ChatMetadata struct {
	Confidence        float64         `json:"confidence"`
	Intent            string          `json:"intent"`
	Topics            []string        `json:"topics"`
	ConversationStage string          `json:"conversationStage"`
	SessionId         string          `json:"sessionId"`
	ResponseMode      string          `json:"responseMode,omitempty"`
	Clarification     bool            `json:"clarification"`
	FreshnessWarning  bool            `json:"freshnessWarning"`
	SuggestedAction   string          `json:"suggestedAction,omitempty"`
	Sources           []SourceSummary `json:"sources"`
	Lead              *LeadMetadata   `json:"lead,omitempty"`
	ProcessingTimeMs  int64           `json:"processingTimeMs"`
}

type SourceSummary struct {
	Title      string  `json:"title"`
	Source     string  `json:"source,omitempty"`
	SourceType string  `json:"sourceType,omitempty"`
	Score      float64 `json:"score"`
}

type LeadMetadata struct {
	ShouldAsk bool   `json:"shouldAsk"`
	Captured  bool   `json:"captured"`
	Prompt    string `json:"prompt,omitempty"`
}

// ChatTurnResponse is the outcome of one pipeline run, written to the stream as a
// content event followed by a metadata event.
type ChatTurnResponse struct {
	Content  string       `json:"content"`
	Metadata ChatMetadata `json:"metadata"`
}
