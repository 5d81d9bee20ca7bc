package entity

import (
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew      LeadStatus = "new"
	LeadStatusNotified LeadStatus = "notified"
	LeadStatusUpdated  LeadStatus = "updated"
)

type Lead struct {
	Id         uuid.UUID
	SessionId  string
	Email      string
	Name       string
	Phone      string
	Company    string
	Intent     string
	Confidence float64
	Topics     []string
	Message    string
	Status     LeadStatus
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
