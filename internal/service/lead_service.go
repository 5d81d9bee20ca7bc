package service

import (
	"context"
	"encoding/json"
	"fmt"

	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/lead"
)

// LeadTopic is the in-process topic resolved leads are published on.
const LeadTopic = "lead.captured"

// LeadService is the chat pipeline's lead sink. Submit only enqueues; storage and
// notifications happen in the lead consumer.
type LeadService struct {
	publisher IPublisherService
	logger    logger.ILogger
}

var _ lead.Sink = (*LeadService)(nil)

func NewLeadService(publisher IPublisherService, log logger.ILogger) *LeadService {
	return &LeadService{publisher: publisher, logger: log}
}

func (s *LeadService) Submit(ctx context.Context, capture lead.Capture) error {
	payload, err := json.Marshal(dto.LeadCapturedMessage{
		SessionId:  capture.SessionID,
		Email:      capture.Signal.Email,
		Name:       capture.Signal.Name,
		Phone:      capture.Signal.Phone,
		Company:    capture.Signal.Company,
		Intent:     string(capture.Intent),
		Confidence: capture.Confidence,
		Topics:     capture.Topics,
		Message:    capture.Message,
		CapturedAt: capture.CapturedAt,
	})
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish lead: %w", err)
	}

	s.logger.Info("LeadService", "Lead queued", map[string]interface{}{
		"session_id": capture.SessionID,
		"intent":     capture.Intent,
	})
	return nil
}
