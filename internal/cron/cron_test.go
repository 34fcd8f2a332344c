package cron

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 9 * * *", false},
		{"*/15 * * * 1-5", false},
		{"@once@2026-09-01T09:00:00-07:00", false},
		{"@once@next tuesday", true},
		{"not cron", true},
		{"0 9 * *", true},
	}
	for _, tt := range tests {
		if err := Validate(tt.expr); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) err = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestOnceTime(t *testing.T) {
	got, err := OnceTime("@once@2026-09-01T09:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("OnceTime = %v, want %v", got, want)
	}
	if _, err := OnceTime("0 9 * * *"); err == nil {
		t.Error("plain cron should not parse as one-shot")
	}
}

func TestNextRunDailyIsDSTAware(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// An ordinary day: 9am to 9am is exactly 24h of wall clock.
	after := time.Date(2026, 8, 10, 9, 0, 0, 0, loc)
	next, err := NextRun("0 9 * * *", "America/Los_Angeles", after)
	if err != nil {
		t.Fatal(err)
	}
	if next.Sub(after) != 24*time.Hour {
		t.Errorf("next - after = %v, want 24h", next.Sub(after))
	}

	// Across the spring-forward boundary the local time-of-day holds at
	// 9am even though only 23 absolute hours elapse.
	springEve := time.Date(2026, 3, 7, 9, 0, 0, 0, loc)
	next, err = NextRun("0 9 * * *", "America/Los_Angeles", springEve)
	if err != nil {
		t.Fatal(err)
	}
	if next.In(loc).Hour() != 9 {
		t.Errorf("next local hour = %d, want 9", next.In(loc).Hour())
	}
	if next.Sub(springEve) != 23*time.Hour {
		t.Errorf("elapsed = %v, want 23h across spring forward", next.Sub(springEve))
	}
}

func TestNextRunRefusesOneShot(t *testing.T) {
	if _, err := NextRun("@once@2026-09-01T09:00:00Z", "UTC", time.Now()); err == nil {
		t.Error("one-shot expression should have no next run")
	}
}
