package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RetryConfig controls retry behaviour for transient provider failures.
type RetryConfig struct {
	MaxAttempts int           // total attempts including the first (default 3)
	BaseDelay   time.Duration // delay before the second attempt (default 500ms)
	MaxDelay    time.Duration // cap for the exponential backoff (default 8s)
}

// DefaultRetryConfig returns the retry policy used by all providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// httpStatusError marks an HTTP-level provider failure so retry logic can
// distinguish 429/5xx (transient) from 4xx (permanent).
type httpStatusError struct {
	Status int
	Body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// IsTransientError reports whether an error is worth retrying: rate limits,
// server errors, and network-level failures.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	var se *httpStatusError
	if errors.As(err, &se) {
		return se.Status == 429 || se.Status >= 500
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"timeout", "connection reset", "connection refused", "eof", "temporary failure", "no such host"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// RetryDo runs fn with exponential backoff on transient errors.
// Permanent errors and context cancellation return immediately.
func RetryDo[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}

	delay := cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransientError(err) || attempt == cfg.MaxAttempts {
			return zero, err
		}

		slog.Warn("provider call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return zero, lastErr
}
