// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/titanlabs/titan/pkg/errors"
)

// CircuitBreakerState represents the state of a circuit breaker.
type CircuitBreakerState string

const (
	// StateClosed means the circuit breaker is working normally.
	StateClosed CircuitBreakerState = "closed"

	// StateOpen means the circuit breaker is blocking calls.
	StateOpen CircuitBreakerState = "open"

	// StateHalfOpen means the circuit breaker is testing if the provider recovered.
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of failures before opening the circuit.
	FailureThreshold int

	// SuccessThreshold is the number of successes in half-open before closing.
	SuccessThreshold int

	// Timeout is how long to wait before trying half-open state.
	Timeout time.Duration

	// Name is the circuit breaker identifier for logging/metrics,
	// usually the provider id.
	Name string
}

// CircuitBreaker prevents hammering a failing provider.
type CircuitBreaker struct {
	config       CircuitBreakerConfig
	state        CircuitBreakerState
	failures     int
	successes    int
	lastFailTime time.Time
	mu           sync.RWMutex
}

// NewCircuitBreaker creates a new circuit breaker with the given config.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Name == "" {
		config.Name = "circuit_breaker"
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Call executes fn if the circuit breaker allows, tracking success/failure.
// Returns errors.CodeProviderResponse if the circuit is open. The lock is
// held only for state bookkeeping, never across fn, so concurrent calls to
// the same provider proceed independently.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn()

	cb.mu.Lock()
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	cb.mu.Unlock()
	return err
}

// allow admits a call, moving an open circuit to half-open once the
// cooldown has passed.
func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.lastFailTime) <= cb.config.Timeout {
			return errors.New(errors.CodeProviderResponse, "circuit breaker open", nil).
				WithContext("breaker", cb.config.Name).
				WithRecoverable(true)
		}
		cb.transition(StateHalfOpen)
	}
	return nil
}

// onFailure must be called under lock.
func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailTime = time.Now()
	if cb.failures >= cb.config.FailureThreshold && cb.state == StateClosed {
		cb.transition(StateOpen)
	}
}

// onSuccess must be called under lock.
func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transition(StateClosed)
		}
	case StateClosed:
		cb.failures = 0
	}
}

// transition moves to a new state and clears the counters. Must be called
// under lock.
func (cb *CircuitBreaker) transition(state CircuitBreakerState) {
	cb.state = state
	cb.failures = 0
	cb.successes = 0
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset manually resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
}

// Open manually forces the circuit breaker to open state.
func (cb *CircuitBreaker) Open() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateOpen
	cb.lastFailTime = time.Now()
}
