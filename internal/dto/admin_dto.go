package dto

import (
	"time"

	"sales-assistant-be/pkg/resilience"
)

type SessionStatsResponse struct {
	Id                string     `json:"id"`
	MessageCount      int        `json:"message_count"`
	UserMessages      int        `json:"user_messages"`
	AssistantMessages int        `json:"assistant_messages"`
	TopicsDiscussed   []string   `json:"topics_discussed"`
	ConversationStage string     `json:"conversation_stage"`
	LastIntent        string     `json:"last_intent,omitempty"`
	LastConfidence    *float64   `json:"last_confidence,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

type SessionTurnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type BreakerStatsResponse struct {
	Breakers []resilience.Stats `json:"breakers"`
}

type HealthResponse struct {
	Status    string             `json:"status"`
	Breakers  []resilience.Stats `json:"breakers"`
	Timestamp time.Time          `json:"timestamp"`
}
