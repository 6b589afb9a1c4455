// Package circuitbreaker stops calling an upstream that keeps failing and
// lets a few probe calls through once a cool-down has passed.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrOpen is returned by Call without running fn while the circuit is open.
var ErrOpen = errors.New("circuit breaker open")

// State is the circuit breaker state (Closed, Open, HalfOpen).
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker parameters. Zero values take the defaults
// 5 failures, 2 half-open successes and a 30s cool-down.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	Component        string
	OnStateChange    func(component string, from, to State)
}

// CircuitBreaker guards one upstream. Safe for concurrent use.
type CircuitBreaker struct {
	cfg Config

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	now             func() time.Time
}

// New creates a CircuitBreaker in the closed state.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed, now: time.Now}
}

// Component returns the name the breaker reports metrics under.
func (cb *CircuitBreaker) Component() string {
	return cb.cfg.Component
}

// Call runs fn when the circuit allows it. While open and inside the
// cool-down it returns ErrOpen; after the cool-down the circuit goes
// half-open and fn runs as a probe. A nil breaker always runs fn.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if cb == nil {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	if cb.state != StateOpen {
		cb.mu.Unlock()
		return nil
	}
	if cb.now().Sub(cb.lastFailureTime) < cb.cfg.Timeout {
		cb.mu.Unlock()
		return fmt.Errorf("%s: %w", cb.cfg.Component, ErrOpen)
	}
	cb.successCount = 0
	cb.transitionLocked(StateHalfOpen)
	return nil
}

// record updates counters after a call. It releases cb.mu on every path.
func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	if err != nil {
		cb.failureCount++
		cb.lastFailureTime = cb.now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.cfg.FailureThreshold {
			cb.failureCount = 0
			cb.transitionLocked(StateOpen)
			return
		}
		cb.mu.Unlock()
		return
	}

	cb.failureCount = 0
	if cb.state != StateHalfOpen {
		cb.mu.Unlock()
		return
	}
	cb.successCount++
	if cb.successCount >= cb.cfg.SuccessThreshold {
		cb.successCount = 0
		cb.transitionLocked(StateClosed)
		return
	}
	cb.mu.Unlock()
}

// transitionLocked moves to state to, unlocks cb.mu, then fires OnStateChange
// so callbacks never run under the lock.
func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	cb.state = to
	cb.mu.Unlock()
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Component, from, to)
	}
}

// State returns the current state (for metrics and health).
func (cb *CircuitBreaker) State() State {
	if cb == nil {
		return StateClosed
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
