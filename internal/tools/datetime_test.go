package tools

import (
	"testing"
	"time"
)

func TestResolveRelative(t *testing.T) {
	// Wednesday, 2026-08-19 10:00 UTC.
	now := time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
		ok   bool
	}{
		{"in minutes", "in 30 minutes", now.Add(30 * time.Minute), true},
		{"in hours", "in 2 hours", now.Add(2 * time.Hour), true},
		{"in days", "in 3 days", now.AddDate(0, 0, 3), true},
		{"in weeks", "in 1 week", now.AddDate(0, 0, 7), true},
		{"tomorrow default 9am", "tomorrow", time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC), true},
		{"tomorrow at 3pm", "tomorrow at 3pm", time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC), true},
		{"today at clock", "today at 14:30", time.Date(2026, 8, 19, 14, 30, 0, 0, time.UTC), true},
		{"tonight", "tonight at 8pm", time.Date(2026, 8, 19, 20, 0, 0, 0, time.UTC), true},
		{"friday", "friday at noonish 1pm", time.Date(2026, 8, 21, 13, 0, 0, 0, time.UTC), true},
		{"same weekday rolls a week", "wednesday at 9am", time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC), true},
		{"bare future clock", "at 5pm", time.Date(2026, 8, 19, 17, 0, 0, 0, time.UTC), true},
		{"bare past clock rolls", "at 8am", time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC), true},
		{"12am", "tomorrow at 12am", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), true},
		{"unresolvable", "whenever you like", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveRelative(tt.expr, now)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ResolveRelative(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestContainsRelativeDate(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"schedule dentist tomorrow at 3pm", true},
		{"remind me in 2 hours", true},
		{"what's on friday", true},
		{"call mom today", true},
		{"what's the capital of France", false},
		{"create event at 2026-09-01T15:00:00Z", false},
	}
	for _, tt := range tests {
		if got := ContainsRelativeDate(tt.text); got != tt.want {
			t.Errorf("ContainsRelativeDate(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
