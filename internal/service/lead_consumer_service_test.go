package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/repository/contract"
	"sales-assistant-be/internal/repository/specification"
	"sales-assistant-be/internal/repository/unitofwork"
	"sales-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeadRepo struct {
	mu    sync.Mutex
	leads []*entity.Lead
	err   error
}

func (r *fakeLeadRepo) Create(ctx context.Context, l *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.leads = append(r.leads, l)
	return nil
}

func (r *fakeLeadRepo) Update(ctx context.Context, l *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.leads {
		if existing.Id == l.Id {
			r.leads[i] = l
		}
	}
	return nil
}

func (r *fakeLeadRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Lead, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeLeadRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.Lead
	for _, l := range r.leads {
		if matchesLead(l, specs) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func matchesLead(l *entity.Lead, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByEmail:
			if !strings.EqualFold(l.Email, strings.TrimSpace(spec.Email)) {
				return false
			}
		case specification.CreatedAfter:
			if !l.CreatedAt.After(spec.At) {
				return false
			}
		}
	}
	return true
}

type fakeUow struct {
	leads *fakeLeadRepo
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }
func (u *fakeUow) KnowledgeDocumentRepository() contract.KnowledgeDocumentRepository {
	return nil
}
func (u *fakeUow) LeadRepository() contract.LeadRepository { return u.leads }

type fakeUowFactory struct {
	leads *fakeLeadRepo
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{leads: f.leads}
}

type fakeEvents struct {
	published []events.Event
	err       error
}

func (f *fakeEvents) Publish(ctx context.Context, event events.Event) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) SendLeadNotification(toEmail string, l *entity.Lead) error {
	f.sent = append(f.sent, toEmail+":"+l.Email)
	return nil
}

type fakeBroadcaster struct {
	notifications []dto.LeadNotification
}

func (f *fakeBroadcaster) Broadcast(n dto.LeadNotification) {
	f.notifications = append(f.notifications, n)
}

type consumerFixture struct {
	svc    *leadConsumerService
	repo   *fakeLeadRepo
	events *fakeEvents
	mailer *fakeMailer
	hub    *fakeBroadcaster
}

func newConsumerFixture() *consumerFixture {
	f := &consumerFixture{
		repo:   &fakeLeadRepo{},
		events: &fakeEvents{},
		mailer: &fakeMailer{},
		hub:    &fakeBroadcaster{},
	}
	svc := NewLeadConsumerService(
		nil,
		LeadTopic,
		&fakeUowFactory{leads: f.repo},
		f.events,
		f.mailer,
		f.hub,
		LeadConsumerConfig{NotifyEmail: "sales@example.com", RetryAttempts: 1, RetryDelay: time.Millisecond},
		logger.NewNop(),
	).(*leadConsumerService)
	svc.now = func() time.Time { return testNow }
	f.svc = svc
	return f
}

func leadMessage(t *testing.T, p dto.LeadCapturedMessage) *message.Message {
	t.Helper()
	payload, err := json.Marshal(p)
	require.NoError(t, err)
	return message.NewMessage(uuid.NewString(), payload)
}

func TestLeadConsumer_StoresNewLead(t *testing.T) {
	f := newConsumerFixture()

	f.svc.processMessage(context.Background(), leadMessage(t, dto.LeadCapturedMessage{
		SessionId:  "s1",
		Email:      " Jane@Acme.io ",
		Name:       "Jane Doe",
		Intent:     "pricing",
		Confidence: 0.8,
		Topics:     []string{"pricing"},
		Message:    "Jane Doe, jane@acme.io",
		CapturedAt: testNow,
	}))

	require.Len(t, f.repo.leads, 1)
	stored := f.repo.leads[0]
	assert.Equal(t, "jane@acme.io", stored.Email)
	assert.Equal(t, entity.LeadStatusNotified, stored.Status)

	require.Len(t, f.events.published, 1)
	assert.Equal(t, events.TypeLeadCaptured, f.events.published[0].EventType())
	assert.Equal(t, []string{"sales@example.com:jane@acme.io"}, f.mailer.sent)

	require.Len(t, f.hub.notifications, 1)
	assert.False(t, f.hub.notifications[0].Duplicate)
	assert.Equal(t, "s1", f.hub.notifications[0].SessionId)
}

func TestLeadConsumer_MergesWithinDedupWindow(t *testing.T) {
	f := newConsumerFixture()
	existingId := uuid.New()
	f.repo.leads = []*entity.Lead{{
		Id:        existingId,
		SessionId: "s1",
		Email:     "jane@acme.io",
		Name:      "Jane",
		Topics:    []string{"pricing"},
		Message:   "first",
		Status:    entity.LeadStatusNotified,
		CreatedAt: testNow.Add(-2 * time.Hour),
	}}

	f.svc.processMessage(context.Background(), leadMessage(t, dto.LeadCapturedMessage{
		SessionId: "s2",
		Email:     "JANE@acme.io",
		Name:      "Jane Doe",
		Company:   "Acme",
		Topics:    []string{"Pricing", "demo"},
		Message:   "second",
	}))

	require.Len(t, f.repo.leads, 1)
	merged := f.repo.leads[0]
	assert.Equal(t, existingId, merged.Id)
	assert.Equal(t, "Jane Doe", merged.Name)
	assert.Equal(t, "Acme", merged.Company)
	assert.Equal(t, []string{"pricing", "demo"}, merged.Topics)
	assert.Equal(t, "first\n\nsecond", merged.Message)
	assert.Equal(t, entity.LeadStatusUpdated, merged.Status)
	require.NotNil(t, merged.UpdatedAt)

	assert.Empty(t, f.mailer.sent)
	require.Len(t, f.hub.notifications, 1)
	assert.True(t, f.hub.notifications[0].Duplicate)
}

func TestLeadConsumer_OutsideWindowCreatesNewLead(t *testing.T) {
	f := newConsumerFixture()
	f.repo.leads = []*entity.Lead{{
		Id:        uuid.New(),
		Email:     "jane@acme.io",
		CreatedAt: testNow.Add(-25 * time.Hour),
	}}

	f.svc.processMessage(context.Background(), leadMessage(t, dto.LeadCapturedMessage{
		SessionId: "s3",
		Email:     "jane@acme.io",
		Name:      "Jane Doe",
	}))

	assert.Len(t, f.repo.leads, 2)
	assert.Len(t, f.mailer.sent, 1)
}

func TestLeadConsumer_FailuresNeverPropagate(t *testing.T) {
	t.Run("invalid payload", func(t *testing.T) {
		f := newConsumerFixture()
		f.svc.processMessage(context.Background(), message.NewMessage(uuid.NewString(), []byte("{not json")))
		assert.Empty(t, f.repo.leads)
		assert.Empty(t, f.hub.notifications)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newConsumerFixture()
		f.repo.err = errors.New("db down")
		f.svc.processMessage(context.Background(), leadMessage(t, dto.LeadCapturedMessage{Email: "a@b.com", Name: "A B"}))
		assert.Empty(t, f.events.published)
		assert.Empty(t, f.mailer.sent)
		assert.Empty(t, f.hub.notifications)
	})

	t.Run("event publish error still notifies", func(t *testing.T) {
		f := newConsumerFixture()
		f.events.err = errors.New("nats down")
		f.svc.processMessage(context.Background(), leadMessage(t, dto.LeadCapturedMessage{Email: "a@b.com", Name: "A B"}))
		assert.Len(t, f.repo.leads, 1)
		assert.Len(t, f.mailer.sent, 1)
		assert.Len(t, f.hub.notifications, 1)
	})
}
