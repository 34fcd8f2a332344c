// Package cron wraps gronx with the one-shot "@once@{rfc3339}" extension
// used by scheduled jobs and reminders.
package cron

import (
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// OncePrefix marks a one-shot job: "@once@2026-03-01T09:00:00-07:00".
const OncePrefix = "@once@"

// IsOnce reports whether the expression is a one-shot marker.
func IsOnce(expr string) bool {
	return strings.HasPrefix(expr, OncePrefix)
}

// OnceTime parses the timestamp of a one-shot expression.
func OnceTime(expr string) (time.Time, error) {
	if !IsOnce(expr) {
		return time.Time{}, fmt.Errorf("not a one-shot expression: %q", expr)
	}
	t, err := time.Parse(time.RFC3339, strings.TrimPrefix(expr, OncePrefix))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse one-shot time: %w", err)
	}
	return t, nil
}

// Validate checks a job expression: five-field cron or @once@{rfc3339}.
func Validate(expr string) error {
	if IsOnce(expr) {
		_, err := OnceTime(expr)
		return err
	}
	if !gronx.New().IsValid(expr) {
		return fmt.Errorf("invalid cron expression: %q", expr)
	}
	return nil
}

// NextRun computes the next fire time strictly after the given instant,
// evaluated in the job's IANA timezone. One-shot expressions have no next run.
func NextRun(expr, timezone string, after time.Time) (time.Time, error) {
	if IsOnce(expr) {
		return time.Time{}, fmt.Errorf("one-shot job has no next run")
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	next, err := gronx.NextTickAfter(expr, after.In(loc), false)
	if err != nil {
		return time.Time{}, fmt.Errorf("compute next run: %w", err)
	}
	return next, nil
}
