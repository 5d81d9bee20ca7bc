package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sales-assistant-be/internal/repository/contract"
	"sales-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is the single-process session store. Sessions are stored as
// JSON so callers never share a *store.Session with the cache. mu orders the
// expiry touch in Get against writes, so a touch never restores older bytes.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Get(ctx context.Context, id string) (*store.Session, error) {
	r.mu.Lock()
	x, found := r.cache.Get(id)
	if !found {
		r.mu.Unlock()
		return nil, nil
	}
	raw := x.([]byte)
	// Touch to refresh expiry.
	r.cache.Set(id, raw, r.ttl)
	r.mu.Unlock()

	var s store.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) SetWithTTL(ctx context.Context, session *store.Session, ttl time.Duration) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(session.ID, raw, ttl)
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(id)
	return nil
}

// Count reports sessions currently held, expired-but-unpurged included.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
