package contract

import (
	"context"
	"time"

	"sales-assistant-be/pkg/store"
)

// SessionRepository stores conversation state with a TTL. Get returns (nil, nil)
// when the id is unknown or expired, and refreshes the TTL of a hit.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*store.Session, error)
	SetWithTTL(ctx context.Context, session *store.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
