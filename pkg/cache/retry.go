package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// RetryConfig holds the configuration for start-up readiness checks.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first one).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// WaitReady pings the resource until it answers or the attempts run out.
func WaitReady(ctx context.Context, name string, p Pinger, config RetryConfig) error {
	return retryWithBackoff(ctx, name, config, func() error {
		return p.Ping(ctx)
	})
}

// retryWithBackoff executes a function with exponential backoff retry logic.
// It respects context cancellation and adds jitter to the waits.
func retryWithBackoff(ctx context.Context, name string, config RetryConfig, fn func() error) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("resource", name).
					Int("attempt", attempt).
					Msg("Cache resource ready after retry")
			}
			return nil
		}

		lastErr = err

		if attempt >= config.MaxAttempts {
			break
		}

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))

		log.Debug().
			Err(err).
			Str("resource", name).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Cache resource not ready, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	log.Warn().
		Str("resource", name).
		Int("max_attempts", config.MaxAttempts).
		Msg("Cache resource readiness attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
