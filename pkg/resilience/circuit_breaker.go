package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without invoking the operation while the breaker is open
// or while a half-open trial is already in flight.
var ErrCircuitOpen = errors.New("circuit breaker is open")

var errPanicked = errors.New("operation panicked")

type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 60 * time.Second
)

// Stats is a point-in-time copy of a breaker, safe to serialize.
type Stats struct {
	Name            string     `json:"name"`
	State           State      `json:"state"`
	FailureCount    int        `json:"failure_count"`
	LastFailureTime *time.Time `json:"last_failure_time,omitempty"`
	TotalRequests   int64      `json:"total_requests"`
	TotalFailures   int64      `json:"total_failures"`
	TotalRejected   int64      `json:"total_rejected"`
}

type Option func(*CircuitBreaker)

func WithFailureThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.failureThreshold = n
		}
	}
}

func WithResetTimeout(d time.Duration) Option {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.resetTimeout = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) {
		if now != nil {
			cb.now = now
		}
	}
}

// WithStateChangeHook is called (outside the lock) whenever the state changes.
func WithStateChangeHook(fn func(name string, from, to State)) Option {
	return func(cb *CircuitBreaker) {
		cb.onStateChange = fn
	}
}

// CircuitBreaker guards a single external dependency. One instance is shared by all
// requests hitting that dependency.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time
	onStateChange    func(name string, from, to State)

	mu              sync.Mutex
	state           State
	failureCount    int
	lastFailureTime time.Time
	trialInFlight   bool

	totalRequests int64
	totalFailures int64
	totalRejected int64
}

func NewCircuitBreaker(name string, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		failureThreshold: DefaultFailureThreshold,
		resetTimeout:     DefaultResetTimeout,
		now:              time.Now,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute runs op unless the breaker rejects the call. A failure observed after the
// caller cancelled ctx is passed through without counting against the dependency.
// A panic in op counts as a failure and is re-raised.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) (opErr error) {
	trial, err := cb.acquire()
	if err != nil {
		return err
	}

	completed := false
	defer func() {
		if !completed {
			cb.record(trial, errPanicked, false)
		}
	}()

	opErr = op(ctx)
	completed = true
	cb.record(trial, opErr, opErr != nil && errors.Is(ctx.Err(), context.Canceled))
	return opErr
}

// Execute is the value-returning form of CircuitBreaker.Execute.
func Execute[T any](ctx context.Context, cb *CircuitBreaker, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}

func (cb *CircuitBreaker) acquire() (trial bool, err error) {
	cb.mu.Lock()
	var from State
	changed := false

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.resetTimeout {
			cb.totalRejected++
			cb.mu.Unlock()
			return false, ErrCircuitOpen
		}
		from, changed = cb.state, true
		cb.state = StateHalfOpen
		cb.trialInFlight = true
		trial = true
	case StateHalfOpen:
		if cb.trialInFlight {
			cb.totalRejected++
			cb.mu.Unlock()
			return false, ErrCircuitOpen
		}
		cb.trialInFlight = true
		trial = true
	}
	cb.totalRequests++
	cb.mu.Unlock()

	if changed {
		cb.notify(from, StateHalfOpen)
	}
	return trial, nil
}

func (cb *CircuitBreaker) record(trial bool, opErr error, cancelled bool) {
	cb.mu.Lock()
	from := cb.state

	if trial {
		cb.trialInFlight = false
	}

	switch {
	case cancelled:
		// The caller gave up; the dependency's health is unknown.
	case opErr == nil:
		cb.failureCount = 0
		if cb.state == StateHalfOpen {
			cb.state = StateClosed
		}
	default:
		cb.totalFailures++
		cb.failureCount++
		cb.lastFailureTime = cb.now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}
	}

	to := cb.state
	cb.mu.Unlock()

	if from != to {
		cb.notify(from, to)
	}
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// State reports the stored state. An OPEN breaker whose reset timeout has elapsed
// still reports OPEN until the next call moves it to HALF_OPEN.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := Stats{
		Name:          cb.name,
		State:         cb.state,
		FailureCount:  cb.failureCount,
		TotalRequests: cb.totalRequests,
		TotalFailures: cb.totalFailures,
		TotalRejected: cb.totalRejected,
	}
	if !cb.lastFailureTime.IsZero() {
		t := cb.lastFailureTime
		s.LastFailureTime = &t
	}
	return s
}

// Reset forces the breaker back to CLOSED.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.failureCount = 0
	cb.trialInFlight = false
	cb.lastFailureTime = time.Time{}
	cb.mu.Unlock()

	if from != StateClosed {
		cb.notify(from, StateClosed)
	}
}
