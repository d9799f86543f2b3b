package retry

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

// Used only at startup (connecting to dependencies). Request paths never retry.
type RetryPolicy interface {
	Execute(ctx context.Context, fn func() error) error
}

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultConfig returns conservative defaults for backoff retries.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// ExponentialBackoff retries with exponential delay between attempts.
type ExponentialBackoff struct {
	config *Config
}

// NewExponentialBackoff applies defaults when config is nil.
func NewExponentialBackoff(config *Config) *ExponentialBackoff {
	if config == nil {
		config = DefaultConfig()
	}
	return &ExponentialBackoff{config: config}
}

func (eb *ExponentialBackoff) Execute(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= eb.config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == eb.config.MaxAttempts || !IsRetryable(err) {
			break
		}

		timer := time.NewTimer(eb.calculateDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if !IsRetryable(lastErr) {
		return lastErr
	}

	return &MaxRetriesExceededError{
		LastError:   lastErr,
		MaxAttempts: eb.config.MaxAttempts,
	}
}

func (eb *ExponentialBackoff) calculateDelay(attempt int) time.Duration {
	delay := float64(eb.config.BaseDelay) * math.Pow(eb.config.Multiplier, float64(attempt-1))
	if delay > float64(eb.config.MaxDelay) {
		delay = float64(eb.config.MaxDelay)
	}

	return time.Duration(delay)
}

// IsRetryable reports whether err looks like a transient network condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"the database system is starting up",
		"no such host",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// MaxRetriesExceededError indicates that all retry attempts were exhausted.
type MaxRetriesExceededError struct {
	LastError   error
	MaxAttempts int
}

func (e *MaxRetriesExceededError) Error() string {
	return "max retries exceeded: " + e.LastError.Error()
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.LastError
}

// IsMaxRetriesExceeded reports whether err is a MaxRetriesExceededError.
func IsMaxRetriesExceeded(err error) bool {
	var maxRetriesErr *MaxRetriesExceededError
	return errors.As(err, &maxRetriesErr)
}
