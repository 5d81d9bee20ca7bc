package store

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Stage is the coarse phase of a conversation.
type Stage string

const (
	StageInitial              Stage = "initial"
	StageInformationGathering Stage = "information_gathering"
	StageSolutionProposal     Stage = "solution_proposal"
	StageLeadCapture          Stage = "lead_capture"
)

// Turn is one message in the conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is the per-visitor conversation state kept in the session store.
// ChatHistory is append-only.
type Session struct {
	ID              string                 `json:"id"`
	ChatHistory     []Turn                 `json:"chat_history"`
	TopicsDiscussed []string               `json:"topics_discussed"`
	Stage           Stage                  `json:"conversation_stage"`
	LastConfidence  *float64               `json:"last_confidence,omitempty"`
	LastIntent      Intent                 `json:"last_intent,omitempty"`
	UserContext     map[string]interface{} `json:"user_context,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:              id,
		ChatHistory:     []Turn{},
		TopicsDiscussed: []string{},
		Stage:           StageInitial,
		UserContext:     map[string]interface{}{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AppendTurn adds a turn to the end of the history.
func (s *Session) AppendTurn(role Role, content string) {
	s.ChatHistory = append(s.ChatHistory, Turn{Role: role, Content: content})
}

// AddTopics merges topics into TopicsDiscussed, keeping first-seen order and
// ignoring case-insensitive duplicates.
func (s *Session) AddTopics(topics ...string) {
	seen := make(map[string]struct{}, len(s.TopicsDiscussed))
	for _, t := range s.TopicsDiscussed {
		seen[normalizeTopic(t)] = struct{}{}
	}
	for _, t := range topics {
		key := normalizeTopic(t)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		s.TopicsDiscussed = append(s.TopicsDiscussed, t)
	}
}

// RecentHistory returns at most the last n turns. The returned slice shares no
// backing array with the session.
func (s *Session) RecentHistory(n int) []Turn {
	h := s.ChatHistory
	if n >= 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]Turn, len(h))
	copy(out, h)
	return out
}

// CountRole returns how many turns in the history were written by role.
func (s *Session) CountRole(role Role) int {
	n := 0
	for _, t := range s.ChatHistory {
		if t.Role == role {
			n++
		}
	}
	return n
}
