package assist

import (
	"sync"
	"time"
)

// BreakerState enumerates the circuit breaker's states.
type BreakerState int

const (
	// BreakerClosed lets calls through and counts failures.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the cooldown elapses.
	BreakerOpen
	// BreakerHalfOpen lets a single trial call decide open vs closed.
	BreakerHalfOpen
)

// String returns the lowercase state name for logs and metrics labels.
func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker is a process-wide circuit breaker guarding the completion
// provider. After FailureThreshold consecutive failures it opens; once the
// cooldown elapses it admits a single trial call whose outcome decides
// whether to close or re-open.
//
// The breaker is a liveness safeguard only: state is not persisted across
// restarts, and callers must treat "breaker open" as "skip to fallback",
// never as a fatal error. Safe for concurrent use.
type Breaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time

	threshold int
	cooldown  time.Duration

	// now is a clock seam for tests.
	now func() time.Time
}

// NewBreaker constructs a closed Breaker. threshold values < 1 are coerced
// to 1; cooldown values <= 0 are coerced to 30s.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether an upstream call should be attempted right now.
// When the breaker is open and the cooldown has elapsed, Allow flips to
// half-open and admits exactly one trial call.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.lastFailure) >= b.cooldown {
			b.state = BreakerHalfOpen
			return true
		}
		return false
	case BreakerHalfOpen:
		// The trial call is already in flight; hold further calls back.
		return false
	default:
		return true
	}
}

// RecordSuccess resets failure accounting and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = BreakerClosed
}

// RecordFailure increments failure accounting. Crossing the threshold, or
// failing the half-open trial call, opens the breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()
	if b.state == BreakerHalfOpen || b.failures >= b.threshold {
		b.state = BreakerOpen
	}
}

// State returns the current state (for logs, metrics, and tests).
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
