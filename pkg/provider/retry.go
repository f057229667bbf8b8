package provider

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/agentcore/agentcore/pkg/types"
)

// RetryConfig controls the transient-failure retry wrapper, grounded on
// pkg/llm/retry.go's exponential-backoff-with-jitter loop, simplified since
// a local provider has no Retry-After header to honor.
type RetryConfig struct {
	MaxRetries      int           // default 2
	RetryDelay      time.Duration // default 500ms
	BackoffFactor   float64       // default 2.0
	JitterFraction  float64       // default 0.2
}

func defaultedRetryConfig(cfg RetryConfig) RetryConfig {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 2.0
	}
	if cfg.JitterFraction <= 0 {
		cfg.JitterFraction = 0.2
	}
	return cfg
}

// WithRetry calls fn, retrying up to cfg.MaxRetries times when fn returns an
// error wrapping types.ErrProviderTransient, sleeping an exponentially
// growing, jittered delay between attempts. Non-transient errors and
// context cancellation are returned immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (string, error)) (string, error) {
	cfg = defaultedRetryConfig(cfg)

	var lastErr error
	delay := cfg.RetryDelay
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			jittered := delay + time.Duration(rand.Float64()*cfg.JitterFraction*float64(delay))
			select {
			case <-time.After(jittered):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		}

		text, err := fn(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errors.Is(err, types.ErrProviderTransient) {
			return "", err
		}
	}
	return "", lastErr
}
