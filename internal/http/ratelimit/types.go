package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Config holds pacing and retry configuration for render calls
type Config struct {
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	MaxRetries        int     `json:"maxRetries"`
	InitialBackoffMs  int     `json:"initialBackoffMs"`
	MaxBackoffMs      int     `json:"maxBackoffMs"`
}

// DefaultConfig returns the default configuration: one render every two
// seconds, three retries
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 0.5,
		MaxRetries:        3,
		InitialBackoffMs:  1000,
		MaxBackoffMs:      30000,
	}
}

// WithOverrides returns cfg with the set fields of overrides applied
func (cfg Config) WithOverrides(overrides PartialConfig) Config {
	if overrides.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *overrides.RequestsPerSecond
	}
	if overrides.MaxRetries != nil {
		cfg.MaxRetries = *overrides.MaxRetries
	}
	if overrides.InitialBackoffMs != nil {
		cfg.InitialBackoffMs = *overrides.InitialBackoffMs
	}
	if overrides.MaxBackoffMs != nil {
		cfg.MaxBackoffMs = *overrides.MaxBackoffMs
	}
	return cfg
}

// PartialConfig allows partial configuration overrides
type PartialConfig struct {
	RequestsPerSecond *float64 `json:"requestsPerSecond,omitempty"`
	MaxRetries        *int     `json:"maxRetries,omitempty"`
	InitialBackoffMs  *int     `json:"initialBackoffMs,omitempty"`
	MaxBackoffMs      *int     `json:"maxBackoffMs,omitempty"`
}

// Pacer spaces successive render calls. A non-positive rate disables pacing.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing RequestsPerSecond calls with a burst of one
func NewPacer(config Config) *Pacer {
	if config.RequestsPerSecond <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)}
}

// Wait blocks until the next call is allowed or ctx is done
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Interval returns the minimum spacing between calls
func (p *Pacer) Interval() time.Duration {
	limit := p.limiter.Limit()
	if limit == rate.Inf || limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limit))
}
