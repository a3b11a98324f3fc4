package ratelimit

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// RetryError is returned when every attempt failed
type RetryError struct {
	URL       string
	Attempts  int
	LastError error
}

func (e *RetryError) Error() string {
	msg := "failed to render " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error {
	return e.LastError
}

// StatusCoder is implemented by errors carrying an HTTP status
type StatusCoder interface {
	StatusCode() int
	RetryAfter() string
}

// IsRetryableStatus checks if an HTTP status code is retryable
// Retryable: 429, 5xx
func IsRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// CalculateBackoff calculates exponential backoff delay for a given attempt
// Uses exponential backoff with jitter (0-25%)
func CalculateBackoff(attempt int, config Config) time.Duration {
	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(2.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay

	return time.Duration((cappedDelay + jitter) * float64(time.Millisecond))
}

// CalculateRateLimitBackoff calculates backoff for HTTP 429 responses.
// A positive Retry-After (seconds) wins; otherwise a 3x exponential is used.
func CalculateRateLimitBackoff(attempt int, config Config, retryAfter string) time.Duration {
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		jitter := time.Duration(rand.Float64() * float64(time.Second))
		return time.Duration(seconds)*time.Second + jitter
	}

	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(3.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay

	return time.Duration((cappedDelay + jitter) * float64(time.Millisecond))
}

// Retry calls fn until it succeeds, returns a non-retryable error, or
// MaxRetries retries are spent. retryable decides which errors are worth
// another attempt; nil retries everything.
func Retry(ctx context.Context, config Config, url string, retryable func(error) bool, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if retryable != nil && !retryable(lastErr) {
			return &RetryError{URL: url, Attempts: attempt + 1, LastError: lastErr}
		}
		if attempt == config.MaxRetries {
			break
		}

		backoff := CalculateBackoff(attempt, config)
		var sc StatusCoder
		if errors.As(lastErr, &sc) && sc.StatusCode() == http.StatusTooManyRequests {
			backoff = CalculateRateLimitBackoff(attempt, config, sc.RetryAfter())
		}

		if err := Sleep(ctx, backoff); err != nil {
			return err
		}
	}

	return &RetryError{URL: url, Attempts: config.MaxRetries + 1, LastError: lastErr}
}

// Sleep blocks for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
