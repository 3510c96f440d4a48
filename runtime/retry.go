package runtime

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	Retries       int           // Retries after the first attempt; 0 disables retrying
	BackoffFactor float64       // Exponential backoff multiplier
	MinDelay      time.Duration // Delay before the first retry
	MaxDelay      time.Duration // Upper bound for any delay
	Jitter        bool          // Spread delays by ±25%
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:       3,
		BackoffFactor: 2.0,
		MinDelay:      100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		Jitter:        true,
	}
}

// RetryOption customizes a RetryConfig.
type RetryOption func(*RetryConfig)

// WithRetries sets the number of retries after the first attempt.
func WithRetries(n int) RetryOption {
	return func(c *RetryConfig) {
		c.Retries = n
	}
}

// WithBackoffFactor sets the exponential backoff factor.
func WithBackoffFactor(f float64) RetryOption {
	return func(c *RetryConfig) {
		c.BackoffFactor = f
	}
}

// WithMinDelay sets the delay before the first retry.
func WithMinDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.MinDelay = d
	}
}

// WithMaxDelay sets the maximum retry delay.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.MaxDelay = d
	}
}

// WithJitter enables or disables jitter.
func WithJitter(on bool) RetryOption {
	return func(c *RetryConfig) {
		c.Jitter = on
	}
}

// Validate rejects negative or inverted settings.
func (c RetryConfig) Validate() error {
	switch {
	case c.Retries < 0:
		return fmt.Errorf("retry count must not be negative, got %d", c.Retries)
	case c.BackoffFactor < 1 && c.BackoffFactor != 0:
		return fmt.Errorf("backoff factor must be at least 1, got %g", c.BackoffFactor)
	case c.MinDelay < 0 || c.MaxDelay < 0:
		return fmt.Errorf("retry delays must not be negative")
	case c.MaxDelay > 0 && c.MinDelay > c.MaxDelay:
		return fmt.Errorf("min delay %s exceeds max delay %s", c.MinDelay, c.MaxDelay)
	}
	return nil
}

// BaseDelay returns the delay before retry n (1-based) without jitter:
// min(MaxDelay, MinDelay * BackoffFactor^(n-1)).
func (c RetryConfig) BaseDelay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	factor := c.BackoffFactor
	if factor == 0 {
		factor = 1
	}
	d := float64(c.MinDelay) * math.Pow(factor, float64(n-1))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Delay returns the delay before retry n, with ±25% jitter when enabled.
func (c RetryConfig) Delay(n int) time.Duration {
	d := c.BaseDelay(n)
	if !c.Jitter {
		return d
	}
	jitterRange := d / 4
	if jitterRange <= 0 {
		return d
	}
	return d - jitterRange + time.Duration(rand.Int63n(int64(jitterRange)*2))
}

// State is a step of the per-operation retry state machine:
//
//	Idle -> Attempting -> Succeeded
//	                   -> RetryScheduled -> Attempting
//	                   -> FailedPermanently
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateRetryScheduled
	StateSucceeded
	StateFailedPermanently
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAttempting:
		return "Attempting"
	case StateRetryScheduled:
		return "RetryScheduled"
	case StateSucceeded:
		return "Succeeded"
	case StateFailedPermanently:
		return "FailedPermanently"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Next decides the transition after attempt (1-based) failed. transient
// tells whether the failure was classified as retryable.
func (c RetryConfig) Next(attempt int, transient bool) State {
	if transient && attempt <= c.Retries {
		return StateRetryScheduled
	}
	return StateFailedPermanently
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
