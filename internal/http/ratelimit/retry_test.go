package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct {
	code       int
	retryAfter string
}

func (e statusErr) Error() string      { return "status" }
func (e statusErr) StatusCode() int    { return e.code }
func (e statusErr) RetryAfter() string { return e.retryAfter }

func fastConfig() Config {
	return Config{MaxRetries: 2, InitialBackoffMs: 1, MaxBackoffMs: 2}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialBackoffMs: 100, MaxBackoffMs: 1000}

	tests := []struct {
		name    string
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{name: "first", attempt: 0, min: 100 * time.Millisecond, max: 125 * time.Millisecond},
		{name: "third", attempt: 2, min: 400 * time.Millisecond, max: 500 * time.Millisecond},
		{name: "capped", attempt: 10, min: time.Second, max: 1250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBackoff(tt.attempt, cfg)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestCalculateRateLimitBackoffHonorsRetryAfter(t *testing.T) {
	got := CalculateRateLimitBackoff(0, DefaultConfig(), "3")
	assert.GreaterOrEqual(t, got, 3*time.Second)
	assert.Less(t, got, 4*time.Second)

	got = CalculateRateLimitBackoff(1, Config{InitialBackoffMs: 10, MaxBackoffMs: 1000}, "")
	assert.GreaterOrEqual(t, got, 30*time.Millisecond)
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(429))
	assert.True(t, IsRetryableStatus(503))
	assert.False(t, IsRetryableStatus(404))
	assert.False(t, IsRetryableStatus(200))
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastConfig(), "u", nil, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastConfig(), "http://x", nil, func(ctx context.Context) error {
		calls++
		return statusErr{code: 503}
	})

	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 3, retryErr.Attempts)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "http://x")
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	sentinel := errors.New("fatal")
	err := Retry(context.Background(), fastConfig(), "u", func(err error) bool {
		return !errors.Is(err, sentinel)
	}, func(ctx context.Context) error {
		calls++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxRetries: 5, InitialBackoffMs: 10000, MaxBackoffMs: 10000}

	err := Retry(ctx, cfg, "u", nil, func(ctx context.Context) error {
		cancel()
		return errors.New("boom")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPacer(t *testing.T) {
	p := NewPacer(Config{RequestsPerSecond: 4})
	assert.Equal(t, 250*time.Millisecond, p.Interval())

	unlimited := NewPacer(Config{})
	assert.Equal(t, time.Duration(0), unlimited.Interval())
	for i := 0; i < 5; i++ {
		require.NoError(t, unlimited.Wait(context.Background()))
	}
}

func TestWithOverrides(t *testing.T) {
	retries := 7
	cfg := DefaultConfig().WithOverrides(PartialConfig{MaxRetries: &retries})

	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, DefaultConfig().InitialBackoffMs, cfg.InitialBackoffMs)
}
