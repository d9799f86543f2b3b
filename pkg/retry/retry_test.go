package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(attempts int) *Config {
	return &Config{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestExponentialBackoff_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	err := NewExponentialBackoff(fastConfig(3)).Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExponentialBackoff_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("password authentication failed")

	err := NewExponentialBackoff(fastConfig(5)).Execute(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.False(t, IsMaxRetriesExceeded(err))
	assert.Equal(t, 1, calls)
}

func TestExponentialBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := NewExponentialBackoff(fastConfig(2)).Execute(context.Background(), func() error {
		calls++
		return errors.New("i/o timeout")
	})

	assert.True(t, IsMaxRetriesExceeded(err))
	assert.Equal(t, 2, calls)
}

func TestExponentialBackoff_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}
	err := NewExponentialBackoff(cfg).Execute(ctx, func() error {
		return errors.New("connection reset by peer")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay_CapsAtMax(t *testing.T) {
	eb := NewExponentialBackoff(&Config{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2})

	assert.Equal(t, time.Second, eb.calculateDelay(1))
	assert.Equal(t, 2*time.Second, eb.calculateDelay(2))
	assert.Equal(t, 3*time.Second, eb.calculateDelay(5))
}
