package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CurrentTimeTool reports the current time in the user's timezone.
type CurrentTimeTool struct{}

func NewCurrentTimeTool() *CurrentTimeTool { return &CurrentTimeTool{} }

func (t *CurrentTimeTool) Name() string { return "current_time" }

func (t *CurrentTimeTool) Description() string {
	return "Get the current date and time in the user's timezone."
}

func (t *CurrentTimeTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *CurrentTimeTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	loc, err := time.LoadLocation(UserTimezoneFromCtx(ctx))
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	return NewResult(now.Format("Monday, January 2, 2006 3:04 PM MST") + " (" + now.Format(time.RFC3339) + ")")
}

// ResolveDateTool turns relative time phrases into absolute RFC-3339 timestamps.
type ResolveDateTool struct{}

func NewResolveDateTool() *ResolveDateTool { return &ResolveDateTool{} }

func (t *ResolveDateTool) Name() string { return "resolve_date" }

func (t *ResolveDateTool) Description() string {
	return "Resolve a relative time phrase (e.g. 'tomorrow at 3pm', 'in 2 hours', 'friday') to an absolute RFC-3339 timestamp in the user's timezone."
}

func (t *ResolveDateTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"expression": map[string]interface{}{
				"type":        "string",
				"description": "The relative time phrase to resolve",
			},
		},
		"required": []string{"expression"},
	}
}

func (t *ResolveDateTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	expr, _ := args["expression"].(string)
	if strings.TrimSpace(expr) == "" {
		return ErrorResult("expression is required")
	}

	loc, err := time.LoadLocation(UserTimezoneFromCtx(ctx))
	if err != nil {
		loc = time.UTC
	}

	resolved, ok := ResolveRelative(expr, time.Now().In(loc))
	if !ok {
		return ErrorResult(fmt.Sprintf("could not resolve %q to a timestamp", expr))
	}
	return NewResult(resolved.Format(time.RFC3339))
}

var (
	inDurationRe = regexp.MustCompile(`\bin\s+(\d+)\s+(minute|hour|day|week)s?\b`)
	clockRe      = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	clock24Re    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// ResolveRelative resolves a relative phrase against the reference time.
// Returns false when no recognized pattern is present.
func ResolveRelative(expr string, now time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(expr))

	if m := inDurationRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "minute":
			return now.Add(time.Duration(n) * time.Minute), true
		case "hour":
			return now.Add(time.Duration(n) * time.Hour), true
		case "day":
			return now.AddDate(0, 0, n), true
		case "week":
			return now.AddDate(0, 0, 7*n), true
		}
	}

	// Day anchor: today / tomorrow / weekday name. Default is today.
	day := now
	matched := false
	switch {
	case strings.Contains(s, "tomorrow"):
		day = now.AddDate(0, 0, 1)
		matched = true
	case strings.Contains(s, "today"), strings.Contains(s, "tonight"):
		matched = true
	default:
		for name, wd := range weekdays {
			if strings.Contains(s, name) {
				delta := (int(wd) - int(now.Weekday()) + 7) % 7
				if delta == 0 {
					delta = 7 // "friday" on a Friday means next week
				}
				day = now.AddDate(0, 0, delta)
				matched = true
				break
			}
		}
	}

	hour, minute, clockFound := parseClock(s)
	if !matched && !clockFound {
		return time.Time{}, false
	}
	if !clockFound {
		// Day-only phrase: default to 9am local.
		hour, minute = 9, 0
	}

	resolved := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
	if !matched && resolved.Before(now) {
		// Bare clock time already past: roll to tomorrow.
		resolved = resolved.AddDate(0, 0, 1)
	}
	return resolved, true
}

func parseClock(s string) (hour, minute int, ok bool) {
	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if m[3] == "pm" && hour < 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		return hour, minute, true
	}
	if m := clock24Re.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			return hour, minute, true
		}
	}
	return 0, 0, false
}

// ContainsRelativeDate reports whether text mentions a relative time phrase.
// The planner uses this to decide whether a date-resolution pass is needed.
func ContainsRelativeDate(text string) bool {
	s := strings.ToLower(text)
	if strings.Contains(s, "tomorrow") || strings.Contains(s, "today") || strings.Contains(s, "tonight") {
		return true
	}
	if inDurationRe.MatchString(s) {
		return true
	}
	for name := range weekdays {
		if strings.Contains(s, name) {
			return true
		}
	}
	return false
}
