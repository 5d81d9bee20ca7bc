package events

import "time"

const TypeLeadCaptured = "lead.captured"

// LeadCaptured is emitted once a lead has been stored, for downstream CRM sync.
type LeadCaptured struct {
	LeadId     string
	SessionId  string
	Email      string
	Name       string
	Phone      string
	Company    string
	Intent     string
	Confidence float64
	Topics     []string
	Duplicate  bool
	OccurredAt time.Time
}

func (e LeadCaptured) EventType() string {
	return TypeLeadCaptured
}

func (e LeadCaptured) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lead_id":     e.LeadId,
		"session_id":  e.SessionId,
		"email":       e.Email,
		"name":        e.Name,
		"phone":       e.Phone,
		"company":     e.Company,
		"intent":      e.Intent,
		"confidence":  e.Confidence,
		"topics":      e.Topics,
		"duplicate":   e.Duplicate,
		"occurred_at": e.OccurredAt.Format(time.RFC3339),
	}
}

func (e LeadCaptured) Timestamp() time.Time {
	return e.OccurredAt
}
