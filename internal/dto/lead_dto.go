package dto

import (
	"time"

	"github.com/google/uuid"
)

// LeadCapturedMessage is the payload published on the in-process lead topic.
type LeadCapturedMessage struct {
	SessionId  string    `json:"session_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Company    string    `json:"company,omitempty"`
	Intent     string    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Topics     []string  `json:"topics"`
	Message    string    `json:"message"`
	CapturedAt time.Time `json:"captured_at"`
}

// LeadNotification is pushed to dashboards over the websocket hub.
type LeadNotification struct {
	Type      string    `json:"type"`
	LeadId    uuid.UUID `json:"lead_id"`
	SessionId string    `json:"session_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Intent    string    `json:"intent"`
	Topics    []string  `json:"topics"`
	Duplicate bool      `json:"duplicate"`
	CreatedAt time.Time `json:"created_at"`
}

type LeadListResponse struct {
	Id        uuid.UUID `json:"id"`
	SessionId string    `json:"session_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Intent    string    `json:"intent"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
