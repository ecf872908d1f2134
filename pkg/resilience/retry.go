// SPDX-License-Identifier: Apache-2.0
// Package resilience provides retry and circuit breaker patterns for TITAN
// provider calls.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/titanlabs/titan/pkg/errors"
)

// RetryConfig controls retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (must be >= 1).
	MaxAttempts int

	// InitialDelay is the initial backoff delay.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff delay.
	MaxDelay time.Duration

	// Multiplier for exponential backoff (default 2.0).
	Multiplier float64

	// IsRecoverable determines if an error should be retried.
	// If nil, typed errors follow their Recoverable flag and untyped
	// errors are retried.
	IsRecoverable func(error) bool

	// Jitter adds randomness to backoff to prevent thundering herd.
	// Value between 0 and 1; 0.1 means ±10% jitter.
	Jitter float64
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		Jitter:        0.1,
		IsRecoverable: isRecoverableDefault,
	}
}

// WithMaxAttempts returns a new config with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(max int) RetryConfig {
	rc.MaxAttempts = max
	return rc
}

// WithInitialDelay returns a new config with InitialDelay set.
func (rc RetryConfig) WithInitialDelay(d time.Duration) RetryConfig {
	rc.InitialDelay = d
	return rc
}

// WithMaxDelay returns a new config with MaxDelay set.
func (rc RetryConfig) WithMaxDelay(d time.Duration) RetryConfig {
	rc.MaxDelay = d
	return rc
}

// WithIsRecoverable returns a new config with IsRecoverable set.
func (rc RetryConfig) WithIsRecoverable(fn func(error) bool) RetryConfig {
	rc.IsRecoverable = fn
	return rc
}

// Do executes fn with retry logic, returning the last error if all attempts fail.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	if rc.IsRecoverable == nil {
		rc.IsRecoverable = isRecoverableDefault
	}

	var lastErr error
	for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := rc.sleep(ctx, attempt); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !rc.IsRecoverable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// DoWithResult executes fn with retry logic, returning both result and error.
func (rc RetryConfig) DoWithResult(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	var result interface{}
	err := rc.Do(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// sleep waits out the backoff delay for the given attempt, or fails fast
// when the context ends first.
func (rc RetryConfig) sleep(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return errors.New(errors.CodeContextLost, "context canceled during retry", ctx.Err()).
			WithContext("attempt", attempt).
			WithContext("max_attempts", rc.MaxAttempts)
	case <-time.After(rc.backoff(attempt)):
		return nil
	}
}

// backoff computes the exponential delay with jitter for an attempt.
func (rc RetryConfig) backoff(attempt int) time.Duration {
	multiplier := rc.Multiplier
	if multiplier == 0 {
		multiplier = 2.0
	}

	delay := time.Duration(float64(rc.InitialDelay) * math.Pow(multiplier, float64(attempt)))
	if delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}

	if rc.Jitter > 0 {
		spread := float64(delay) * rc.Jitter
		delay += time.Duration(2 * spread * (rand.Float64() - 0.5))
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// isRecoverableDefault keeps the propagation policy: typed errors carry an
// explicit Recoverable flag, untyped errors are assumed transient.
func isRecoverableDefault(err error) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(*errors.TitanError); ok {
		return te.Recoverable
	}
	return true
}
