// Package retry re-runs flaky browser operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts    int           // including the first
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64 // fraction of each backoff added at random, 0 for none
}

// DefaultConfig returns the retry policy used for page navigation
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.2,
	}
}

// Do runs fn until it succeeds, returns an error that is not worth another
// attempt, or runs out of attempts. op names the operation in logs.
func Do(ctx context.Context, cfg Config, op string, fn func(attempt int) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	logger := log.With().Str("component", "retry").Str("op", op).Logger()

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			if attempt > 1 {
				logger.Debug().Int("attempts", attempt).Msg("Succeeded after retry")
			}
			return nil
		}
		if !Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := cfg.backoff(attempt)
		logger.Debug().
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", wait).
			Err(err).
			Msg("Retrying")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if attempts > 1 {
		logger.Warn().Int("attempts", attempts).Err(err).Msg("Giving up")
		return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
	}
	return err
}

// backoff returns the pause after the given 1-based attempt
func (c Config) backoff(attempt int) time.Duration {
	d := float64(c.InitialBackoff) * math.Pow(c.Multiplier, float64(attempt-1))
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if c.Jitter > 0 {
		d += d * c.Jitter * rand.Float64()
	}
	return time.Duration(d)
}

// Retryable reports whether another attempt could change the outcome of err.
// Classified engine errors decide for themselves; a crashed browser or a
// cancelled caller never retries.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, engine.ErrBrowserCrash), errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var ee *engine.EngineError
	if errors.As(err, &ee) {
		return ee.Retry
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return timeout.Timeout()
	}
	return true
}
