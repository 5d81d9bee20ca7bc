package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/repository/contract"
	"sales-assistant-be/pkg/store"

	"github.com/google/uuid"
)

const DefaultTTL = 2 * time.Hour

// Manager loads and saves conversation state. Updates to the same id are serialized
// within this process; writers in other processes can still overwrite each other.
type Manager struct {
	repo   contract.SessionRepository
	ttl    time.Duration
	now    func() time.Time
	locks  *keyedMutex
	logger logger.ILogger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(repo contract.SessionRepository, ttl time.Duration, log logger.ILogger, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		locks:  newKeyedMutex(),
		logger: log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewID returns a fresh opaque session id.
func NewID() string {
	return uuid.NewString()
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get returns the stored session or nil.
func (m *Manager) Get(ctx context.Context, id string) (*store.Session, error) {
	s, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return s, nil
}

// LoadOrCreate returns the stored session, or an unsaved new one seeded with
// history when the id is unknown. created reports which.
func (m *Manager) LoadOrCreate(ctx context.Context, id string, history []store.Turn) (s *store.Session, created bool, err error) {
	s, err = m.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if s != nil {
		return s, false, nil
	}
	s = store.NewSession(id, m.now())
	for _, t := range history {
		s.AppendTurn(t.Role, t.Content)
	}
	return s, true, nil
}

// Update applies fn to the latest stored copy of the session (creating it if
// absent) and writes the result back with a fresh TTL. If fn returns an error
// nothing is written.
func (m *Manager) Update(ctx context.Context, id string, fn func(s *store.Session) error) (*store.Session, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = store.NewSession(id, m.now())
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = m.now()

	if err := m.repo.SetWithTTL(ctx, s, m.ttl); err != nil {
		return nil, fmt.Errorf("save session %s: %w", id, err)
	}
	m.logger.Debug("SessionManager", "Session saved", map[string]interface{}{
		"session_id": id,
		"turns":      len(s.ChatHistory),
		"stage":      s.Stage,
	})
	return s, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()
	if err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
