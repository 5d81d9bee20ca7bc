package service

import (
	"context"
	"errors"
	"time"

	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/repository/specification"
	"sales-assistant-be/internal/repository/unitofwork"
	"sales-assistant-be/pkg/rag/session"
	"sales-assistant-be/pkg/resilience"
	"sales-assistant-be/pkg/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBreakerNotFound = errors.New("circuit breaker not found")
)

const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

type IAdminService interface {
	GetSessionStats(ctx context.Context, sessionId string) (*dto.SessionStatsResponse, error)
	GetSessionHistory(ctx context.Context, sessionId string) ([]dto.SessionTurnResponse, error)
	DeleteSession(ctx context.Context, sessionId string) error

	GetBreakers() []resilience.Stats
	ResetBreaker(name string) error
	Health() *dto.HealthResponse

	GetSystemLogs(ctx context.Context, page, limit int, level, errorId string) ([]logger.LogEntry, error)
	GetLeads(ctx context.Context, page, limit int, email string) ([]*dto.LeadListResponse, error)
}

type adminService struct {
	sessions   *session.Manager
	breakers   *resilience.Registry
	uowFactory unitofwork.RepositoryFactory
	logPath    string
	logger     logger.ILogger
	now        func() time.Time
}

// NewAdminService builds the admin service. uowFactory may be nil when no
// database is configured; lead listing then returns nothing.
func NewAdminService(sessions *session.Manager, breakers *resilience.Registry, uowFactory unitofwork.RepositoryFactory, logPath string, log logger.ILogger) IAdminService {
	return &adminService{
		sessions:   sessions,
		breakers:   breakers,
		uowFactory: uowFactory,
		logPath:    logPath,
		logger:     log,
		now:        time.Now,
	}
}

func (s *adminService) load(ctx context.Context, sessionId string) (*store.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *adminService) GetSessionStats(ctx context.Context, sessionId string) (*dto.SessionStatsResponse, error) {
	sess, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	expires := sess.UpdatedAt.Add(s.sessions.TTL())
	return &dto.SessionStatsResponse{
		Id:                sess.ID,
		MessageCount:      len(sess.ChatHistory),
		UserMessages:      sess.CountRole(store.RoleUser),
		AssistantMessages: sess.CountRole(store.RoleAssistant),
		TopicsDiscussed:   sess.TopicsDiscussed,
		ConversationStage: string(sess.Stage),
		LastIntent:        string(sess.LastIntent),
		LastConfidence:    sess.LastConfidence,
		CreatedAt:         sess.CreatedAt,
		UpdatedAt:         sess.UpdatedAt,
		ExpiresAt:         &expires,
	}, nil
}

func (s *adminService) GetSessionHistory(ctx context.Context, sessionId string) ([]dto.SessionTurnResponse, error) {
	sess, err := s.load(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	res := make([]dto.SessionTurnResponse, 0, len(sess.ChatHistory))
	for _, t := range sess.ChatHistory {
		res = append(res, dto.SessionTurnResponse{Role: string(t.Role), Content: t.Content})
	}
	return res, nil
}

func (s *adminService) DeleteSession(ctx context.Context, sessionId string) error {
	if _, err := s.load(ctx, sessionId); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionId); err != nil {
		return err
	}
	s.logger.Info("AdminService", "Session deleted", map[string]interface{}{"session_id": sessionId})
	return nil
}

func (s *adminService) GetBreakers() []resilience.Stats {
	return s.breakers.Stats()
}

func (s *adminService) ResetBreaker(name string) error {
	cb, ok := s.breakers.Get(name)
	if !ok {
		return ErrBreakerNotFound
	}
	cb.Reset()
	s.logger.Warn("AdminService", "Circuit breaker reset manually", map[string]interface{}{"breaker": name})
	return nil
}

func (s *adminService) Health() *dto.HealthResponse {
	status := HealthStatusOK
	if s.breakers.AnyOpen() {
		status = HealthStatusDegraded
	}
	return &dto.HealthResponse{
		Status:    status,
		Breakers:  s.breakers.Stats(),
		Timestamp: s.now().UTC(),
	}
}

func (s *adminService) GetSystemLogs(ctx context.Context, page, limit int, level, errorId string) ([]logger.LogEntry, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	return logger.ReadLogs(s.logPath, logger.LogQuery{
		Level:   level,
		ErrorID: errorId,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	})
}

func (s *adminService) GetLeads(ctx context.Context, page, limit int, email string) ([]*dto.LeadListResponse, error) {
	if s.uowFactory == nil {
		return []*dto.LeadListResponse{}, nil
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	}
	if email != "" {
		specs = append(specs, specification.ByEmail{Email: email})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	leads, err := uow.LeadRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LeadListResponse, 0, len(leads))
	for _, l := range leads {
		res = append(res, &dto.LeadListResponse{
			Id:        l.Id,
			SessionId: l.SessionId,
			Email:     l.Email,
			Name:      l.Name,
			Phone:     l.Phone,
			Company:   l.Company,
			Intent:    l.Intent,
			Status:    string(l.Status),
			CreatedAt: l.CreatedAt,
		})
	}
	return res, nil
}
