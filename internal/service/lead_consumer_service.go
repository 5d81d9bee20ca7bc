package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/repository/specification"
	"sales-assistant-be/internal/repository/unitofwork"
	"sales-assistant-be/pkg/apperror"
	"sales-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const DefaultLeadDedupWindow = 24 * time.Hour

type ILeadConsumerService interface {
	Consume(ctx context.Context) error
}

// EventPublisher forwards stored leads to the external event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// LeadMailer notifies the sales inbox.
type LeadMailer interface {
	SendLeadNotification(toEmail string, lead *entity.Lead) error
}

// LeadBroadcaster pushes leads to live dashboards.
type LeadBroadcaster interface {
	Broadcast(notification dto.LeadNotification)
}

type LeadConsumerConfig struct {
	DedupWindow   time.Duration
	NotifyEmail   string
	RetryAttempts uint
	RetryDelay    time.Duration
}

type leadConsumerService struct {
	subscriber  message.Subscriber
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	events      EventPublisher
	mailer      LeadMailer
	broadcaster LeadBroadcaster
	cfg         LeadConsumerConfig
	logger      logger.ILogger
	now         func() time.Time
}

// NewLeadConsumerService wires the lead pipeline. eventPublisher, mailer and broadcaster
// are optional; a nil one is skipped.
func NewLeadConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher EventPublisher,
	mailer LeadMailer,
	broadcaster LeadBroadcaster,
	cfg LeadConsumerConfig,
	log logger.ILogger,
) ILeadConsumerService {
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultLeadDedupWindow
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &leadConsumerService{
		subscriber:  subscriber,
		topicName:   topicName,
		uowFactory:  uowFactory,
		events:      eventPublisher,
		mailer:      mailer,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      log,
		now:         time.Now,
	}
}

func (cs *leadConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: a lead that cannot be stored is logged with its
// details rather than redelivered forever.
func (cs *leadConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.LeadCapturedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.fail("Invalid lead message", "", err, nil)
		return
	}

	l, duplicate, err := cs.store(ctx, &payload)
	if err != nil {
		cs.fail("Failed to store lead", payload.SessionId, err, map[string]interface{}{
			"email": payload.Email,
			"name":  payload.Name,
		})
		return
	}

	cs.logger.Info("LeadConsumer", "Lead stored", map[string]interface{}{
		"lead_id":    l.Id,
		"session_id": l.SessionId,
		"duplicate":  duplicate,
	})

	cs.publishEvent(ctx, l, duplicate)
	if !duplicate {
		cs.notifyInbox(ctx, l)
	}
	if cs.broadcaster != nil {
		cs.broadcaster.Broadcast(dto.LeadNotification{
			Type:      "lead_captured",
			LeadId:    l.Id,
			SessionId: l.SessionId,
			Email:     l.Email,
			Name:      l.Name,
			Company:   l.Company,
			Intent:    l.Intent,
			Topics:    l.Topics,
			Duplicate: duplicate,
			CreatedAt: l.CreatedAt,
		})
	}
}

// store creates the lead, or merges into one with the same email captured within
// the dedup window.
func (cs *leadConsumerService) store(ctx context.Context, p *dto.LeadCapturedMessage) (*entity.Lead, bool, error) {
	var (
		result    *entity.Lead
		duplicate bool
	)
	err := retry.Do(func() error {
		uow := cs.uowFactory.NewUnitOfWork(ctx)
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer uow.Rollback()

		repo := uow.LeadRepository()
		existing, err := repo.FindOne(ctx,
			specification.ByEmail{Email: p.Email},
			specification.CreatedAfter{At: cs.now().Add(-cs.cfg.DedupWindow)},
			specification.OrderBy{Field: "created_at", Desc: true},
		)
		if err != nil {
			return fmt.Errorf("find lead: %w", err)
		}

		if existing != nil {
			mergeLead(existing, p)
			now := cs.now()
			existing.UpdatedAt = &now
			existing.Status = entity.LeadStatusUpdated
			if err := repo.Update(ctx, existing); err != nil {
				return fmt.Errorf("update lead: %w", err)
			}
			result, duplicate = existing, true
		} else {
			l := newLead(p, cs.now())
			if err := repo.Create(ctx, l); err != nil {
				return fmt.Errorf("create lead: %w", err)
			}
			result, duplicate = l, false
		}
		return uow.Commit()
	},
		retry.Context(ctx),
		retry.Attempts(cs.cfg.RetryAttempts),
		retry.Delay(cs.cfg.RetryDelay),
		retry.LastErrorOnly(true),
	)
	return result, duplicate, err
}

func (cs *leadConsumerService) publishEvent(ctx context.Context, l *entity.Lead, duplicate bool) {
	if cs.events == nil {
		return
	}
	event := events.LeadCaptured{
		LeadId:     l.Id.String(),
		SessionId:  l.SessionId,
		Email:      l.Email,
		Name:       l.Name,
		Phone:      l.Phone,
		Company:    l.Company,
		Intent:     l.Intent,
		Confidence: l.Confidence,
		Topics:     l.Topics,
		Duplicate:  duplicate,
		OccurredAt: cs.now(),
	}
	err := retry.Do(func() error {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cs.events.Publish(pubCtx, event)
	},
		retry.Context(ctx),
		retry.Attempts(cs.cfg.RetryAttempts),
		retry.Delay(cs.cfg.RetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		cs.fail("Failed to publish lead event", l.SessionId, err, map[string]interface{}{"lead_id": l.Id})
	}
}

func (cs *leadConsumerService) notifyInbox(ctx context.Context, l *entity.Lead) {
	if cs.mailer == nil || cs.cfg.NotifyEmail == "" {
		return
	}
	err := retry.Do(func() error {
		return cs.mailer.SendLeadNotification(cs.cfg.NotifyEmail, l)
	},
		retry.Context(ctx),
		retry.Attempts(cs.cfg.RetryAttempts),
		retry.Delay(cs.cfg.RetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		cs.fail("Failed to send lead notification", l.SessionId, err, map[string]interface{}{"lead_id": l.Id})
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	l.Status = entity.LeadStatusNotified
	if err := uow.LeadRepository().Update(ctx, l); err != nil {
		cs.logger.Warn("LeadConsumer", "Failed to mark lead notified", map[string]interface{}{
			"lead_id": l.Id,
			"error":   err.Error(),
		})
	}
}

func (cs *leadConsumerService) fail(message, sessionId string, err error, details map[string]interface{}) {
	appErr := apperror.Wrap(apperror.CodeLeadCaptureFailed, message, err)
	if details == nil {
		details = map[string]interface{}{}
	}
	details["session_id"] = sessionId
	details["error"] = err
	details["error_id"] = appErr.ErrorID
	details["code"] = appErr.Code
	cs.logger.Error("LeadConsumer", message, details)
}

func newLead(p *dto.LeadCapturedMessage, now time.Time) *entity.Lead {
	createdAt := p.CapturedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &entity.Lead{
		Id:         uuid.New(),
		SessionId:  p.SessionId,
		Email:      strings.ToLower(strings.TrimSpace(p.Email)),
		Name:       strings.TrimSpace(p.Name),
		Phone:      p.Phone,
		Company:    p.Company,
		Intent:     p.Intent,
		Confidence: p.Confidence,
		Topics:     p.Topics,
		Message:    p.Message,
		Status:     entity.LeadStatusNew,
		CreatedAt:  createdAt,
	}
}

// mergeLead fills blanks from a repeated capture and appends the new message.
func mergeLead(existing *entity.Lead, p *dto.LeadCapturedMessage) {
	if p.Name != "" {
		existing.Name = strings.TrimSpace(p.Name)
	}
	if existing.Phone == "" {
		existing.Phone = p.Phone
	}
	if existing.Company == "" {
		existing.Company = p.Company
	}
	if p.Intent != "" {
		existing.Intent = p.Intent
	}
	if p.Confidence > existing.Confidence {
		existing.Confidence = p.Confidence
	}
	seen := make(map[string]struct{}, len(existing.Topics))
	for _, t := range existing.Topics {
		seen[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range p.Topics {
		if _, ok := seen[strings.ToLower(t)]; !ok {
			existing.Topics = append(existing.Topics, t)
			seen[strings.ToLower(t)] = struct{}{}
		}
	}
	if p.Message != "" {
		if existing.Message != "" {
			existing.Message += "\n\n"
		}
		existing.Message += p.Message
	}
}
