package lead

import (
	"context"
	"time"

	"sales-assistant-be/pkg/store"
)

// Capture is a resolved lead handed to the sink along with the turn's context.
type Capture struct {
	SessionID  string
	Signal     Signal
	Intent     store.Intent
	Confidence float64
	Topics     []string
	Message    string
	CapturedAt time.Time
}

// Sink receives captured leads. Submit is called best-effort; its error never
// reaches the visitor.
type Sink interface {
	Submit(ctx context.Context, capture Capture) error
}

type SinkFunc func(ctx context.Context, capture Capture) error

func (f SinkFunc) Submit(ctx context.Context, capture Capture) error {
	return f(ctx, capture)
}
