package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CBState is the export breaker's position: closed (exports flow), open
// (fast-fail until the cooldown elapses), half-open (probe exports allowed).
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without touching the remote while the breaker is
// open. The caller must not treat it as a remote failure worth retrying now.
var ErrCircuitOpen = errors.New("export breaker is open")

// CircuitBreaker keeps a flapping or dead sync remote from being hammered on
// every cycle. Consecutive export failures trip it open; after the cooldown a
// single probe is let through, and enough probe successes close it again.
// The watermark is unaffected by breaker state — unsent records simply stay
// pending.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     CBState
	failures  int
	successes int
	openedAt  time.Time

	failureThreshold int
	successThreshold int
	cooldown         time.Duration

	now func() time.Time
}

// NewCircuitBreaker builds a closed breaker. Non-positive arguments fall back
// to the SYNC_CB_* config defaults (5 failures, 2 successes, 60s cooldown).
func NewCircuitBreaker(failureThreshold, successThreshold int, cooldown time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 2
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &CircuitBreaker{
		state:            CBClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
		now:              time.Now,
	}
}

// Execute runs one export attempt through the breaker. A cancelled context
// returns immediately and counts as neither success nor failure; an open
// breaker fast-fails with ErrCircuitOpen before fn is invoked.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cb.current() == CBOpen {
		return ErrCircuitOpen
	}
	if err := fn(ctx); err != nil {
		if ctx.Err() == nil {
			cb.recordFailure()
		}
		return err
	}
	cb.recordSuccess()
	return nil
}

// State reports the breaker's position, moving open → half-open once the
// cooldown has elapsed. Served by the health endpoint.
func (cb *CircuitBreaker) State() CBState {
	return cb.current()
}

func (cb *CircuitBreaker) current() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cooldown {
		cb.state = CBHalfOpen
		cb.successes = 0
		log.Info().Msg("export breaker half-open, allowing probe")
	}
	return cb.state
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case CBClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.trip()
		}
	case CBHalfOpen:
		// The probe failed: the remote is still down.
		cb.trip()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = CBOpen
	cb.openedAt = cb.now()
	cb.failures = 0
	cb.successes = 0
	log.Warn().
		Dur("cooldown", cb.cooldown).
		Msg("export breaker opened")
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = CBClosed
			cb.failures = 0
			cb.successes = 0
			log.Info().Msg("export breaker closed, remote recovered")
		}
	}
}
