package mapper

import (
	"encoding/json"
	"time"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type LeadMapper struct{}

func NewLeadMapper() *LeadMapper {
	return &LeadMapper{}
}

func (m *LeadMapper) ToEntity(l *model.Lead) *entity.Lead {
	if l == nil {
		return nil
	}

	topics := []string{}
	if len(l.Topics) > 0 {
		_ = json.Unmarshal(l.Topics, &topics)
	}

	return &entity.Lead{
		Id:         l.Id,
		SessionId:  l.SessionId,
		Email:      l.Email,
		Name:       l.Name,
		Phone:      l.Phone,
		Company:    l.Company,
		Intent:     l.Intent,
		Confidence: l.Confidence,
		Topics:     topics,
		Message:    l.Message,
		Status:     entity.LeadStatus(l.Status),
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  timePtr(l.UpdatedAt),
	}
}

func (m *LeadMapper) ToModel(e *entity.Lead) *model.Lead {
	if e == nil {
		return nil
	}

	topics := datatypes.JSON("[]")
	if len(e.Topics) > 0 {
		if raw, err := json.Marshal(e.Topics); err == nil {
			topics = datatypes.JSON(raw)
		}
	}

	status := string(e.Status)
	if status == "" {
		status = string(entity.LeadStatusNew)
	}

	return &model.Lead{
		Id:         e.Id,
		SessionId:  e.SessionId,
		Email:      e.Email,
		Name:       e.Name,
		Phone:      e.Phone,
		Company:    e.Company,
		Intent:     e.Intent,
		Confidence: e.Confidence,
		Topics:     topics,
		Message:    e.Message,
		Status:     status,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  timeValue(e.UpdatedAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
