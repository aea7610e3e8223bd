package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Call while the breaker is rejecting requests.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the state of a circuit breaker.
type State int

const (
	StateClosed   State = iota // normal operation
	StateOpen                  // requests fail immediately
	StateHalfOpen              // probing whether the service recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker implements the circuit breaker pattern around a flaky dependency.
// After maxFailures consecutive failures it opens and rejects calls until
// resetTimeout elapses, then allows probe calls in half-open state.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int

	mu            sync.Mutex
	state         State
	failureCount  int
	successCount  int
	halfOpenCalls int
	lastFailTime  time.Time
}

// NewBreaker creates a circuit breaker. name is used only for observability.
func NewBreaker(name string, maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  3,
		state:        StateClosed,
	}
}

// Name returns the breaker's identifier.
func (b *Breaker) Name() string { return b.name }

// Call executes fn under breaker protection. When the breaker is open it
// returns ErrOpen without invoking fn.
func (b *Breaker) Call(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastFailTime) >= b.resetTimeout {
			b.state = StateHalfOpen
			b.halfOpenCalls = 0
			b.successCount = 0
			b.halfOpenCalls++
			return true
		}
		return false
	case StateHalfOpen:
		if b.halfOpenCalls < b.halfOpenMax {
			b.halfOpenCalls++
			return true
		}
		return false
	}
	return false
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		switch b.state {
		case StateClosed:
			b.failureCount = 0
		case StateHalfOpen:
			b.successCount++
			if b.successCount >= b.halfOpenMax {
				b.state = StateClosed
				b.failureCount = 0
				b.halfOpenCalls = 0
				b.successCount = 0
			}
		}
		return
	}

	b.lastFailTime = time.Now()
	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.maxFailures {
			b.state = StateOpen
		}
	case StateHalfOpen:
		// Any failure while probing reopens immediately.
		b.state = StateOpen
		b.halfOpenCalls = 0
		b.successCount = 0
	}
}

// GetState returns the current breaker state.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.halfOpenCalls = 0
	b.successCount = 0
}
