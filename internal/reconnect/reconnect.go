// Package reconnect supervises a connection session, restarting it after
// a backoff each time it ends.
package reconnect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Config controls the delay between sessions.
type Config struct {
	MaxRetries    int           // Consecutive failed sessions before giving up (0 = unlimited)
	RetryDelay    time.Duration // Delay before the next session
	MaxRetryDelay time.Duration // Cap when Exponential is set
	Exponential   bool          // Double the delay on every consecutive failure
}

// DefaultConfig retries forever with a fixed 10 second delay.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    0,
		RetryDelay:    10 * time.Second,
		MaxRetryDelay: 10 * time.Second,
	}
}

// State tracks retries across sessions.
type State struct {
	CurrentRetries int
	Reconnects     *uint32 // Atomic counter of session restarts
}

// SessionFunc runs one connection session until it ends. Returning nil
// means the session ended normally (the producer went away) and should be
// restarted.
type SessionFunc func(ctx context.Context) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as ending supervision instead of triggering a retry.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Supervise runs fn until it returns a Permanent error, ctx is cancelled,
// or MaxRetries consecutive sessions fail. The first session starts
// immediately; every later one waits for the backoff delay.
func Supervise(ctx context.Context, fn SessionFunc, cfg Config, state *State) error {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("reconnect: context cancelled, stopping supervision")
			return ctx.Err()
		default:
		}

		err := fn(ctx)

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		state.CurrentRetries++
		if state.Reconnects != nil {
			atomic.AddUint32(state.Reconnects, 1)
		}

		if cfg.MaxRetries > 0 && state.CurrentRetries > cfg.MaxRetries {
			return fmt.Errorf("reconnect: max retries exceeded (%d attempts): %w", cfg.MaxRetries, err)
		}

		delay := calculateBackoff(state.CurrentRetries, cfg)
		if err != nil {
			slog.Info("reconnect: session failed, retrying",
				"error", err,
				"attempt", state.CurrentRetries,
				"delay", delay,
			)
		} else {
			slog.Info("reconnect: session ended, restarting", "delay", delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			slog.Debug("reconnect: context cancelled during backoff")
			return ctx.Err()
		}
	}
}

// calculateBackoff returns RetryDelay, or RetryDelay * 2^(attempt-1)
// capped at MaxRetryDelay when Exponential is set.
func calculateBackoff(attempt int, cfg Config) time.Duration {
	if !cfg.Exponential || attempt <= 1 {
		return cfg.RetryDelay
	}
	delay := cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if cfg.MaxRetryDelay > 0 && delay >= cfg.MaxRetryDelay {
			return cfg.MaxRetryDelay
		}
	}
	return delay
}

// Reset clears the consecutive retry count once a session is established.
func Reset(state *State) {
	state.CurrentRetries = 0
	slog.Debug("reconnect: state reset")
}
