// Package breaker implements a per-processor circuit breaker that acts
// as a cheap negative signal alongside the Health Monitor: it never
// decides a processor's healthy flag itself, it only gates whether the
// Dispatcher bothers attempting a processor again before the next
// probe lands.
package breaker

import (
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

type Config struct {
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration
}

// DefaultConfig uses a short reset timeout, since a gateway attempt is
// far cheaper than a user-facing call and a recovered processor should
// be retried quickly between the Monitor's 5s probes.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     5 * time.Second,
	}
}

// CircuitBreaker tracks consecutive send failures for one processor.
type CircuitBreaker struct {
	name   string
	config Config

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	lastFailTime time.Time
}

func New(name string, cfg Config) *CircuitBreaker {
	return &CircuitBreaker{name: name, config: cfg, state: Closed}
}

// Allow reports whether a send attempt should be made right now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		return true
	case Open:
		if time.Since(cb.lastFailTime) > cb.config.ResetTimeout {
			cb.state = HalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case HalfOpen:
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		cb.failureCount = 0
	case HalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = Closed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailTime = time.Now()
	cb.successCount = 0

	switch cb.state {
	case Closed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.state = Open
		}
	case HalfOpen:
		cb.state = Open
		cb.failureCount++
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
