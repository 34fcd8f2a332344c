package convo

import (
	"strings"
	"testing"
	"time"

	"github.com/hermes-assist/hermes/internal/store"
)

func msg(role, content string, age time.Duration, now time.Time) store.Message {
	return store.Message{Role: role, Content: content, CreatedAt: now.Add(-age)}
}

func TestWindowEmpty(t *testing.T) {
	got := Window(nil, time.Now(), WindowConfig{})
	if len(got) != 0 {
		t.Errorf("Window(nil) = %v", got)
	}
	if Format(got) != "(No recent conversation history)" {
		t.Errorf("Format(empty) = %q", Format(got))
	}
}

func TestWindowAgeCutoff(t *testing.T) {
	now := time.Now()
	msgs := []store.Message{
		msg("user", "old", 25*time.Hour, now),
		msg("assistant", "recent", time.Hour, now),
	}
	got := Window(msgs, now, WindowConfig{})
	if len(got) != 1 || got[0].Content != "recent" {
		t.Errorf("age cutoff kept %v", got)
	}
}

func TestWindowMessageCap(t *testing.T) {
	now := time.Now()
	var msgs []store.Message
	for i := 0; i < 30; i++ {
		msgs = append(msgs, msg("user", "m", time.Minute, now))
	}
	got := Window(msgs, now, WindowConfig{})
	if len(got) != DefaultMaxMessages {
		t.Errorf("len = %d, want %d", len(got), DefaultMaxMessages)
	}
}

func TestWindowTokenBudget(t *testing.T) {
	now := time.Now()
	big := strings.Repeat("x", 10000) // ~3031 tokens
	msgs := []store.Message{
		msg("user", big, 3*time.Minute, now),
		msg("assistant", big, 2*time.Minute, now),
		msg("user", "latest", time.Minute, now),
	}
	got := Window(msgs, now, WindowConfig{})
	// Newest-first walk: "latest" + one big message fit in 4000 tokens; the
	// second big message would exceed the budget.
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[len(got)-1].Content != "latest" {
		t.Error("window must stay chronological, newest last")
	}
}

func TestWindowOversizedSingleMessage(t *testing.T) {
	now := time.Now()
	huge := strings.Repeat("x", 20000)
	got := Window([]store.Message{msg("user", huge, time.Minute, now)}, now, WindowConfig{})
	if len(got) != 0 {
		t.Errorf("a single over-budget message should yield an empty window, got %d", len(got))
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"abc", 1},     // ceil(3/3.3)
		{"abcd", 2},    // ceil(4/3.3)
		{strings.Repeat("x", 33), 10},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.content); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.content), got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	now := time.Now()
	msgs := []store.Message{
		msg("user", "hi", time.Minute, now),
		msg("assistant", "hello", time.Minute, now),
	}
	got := Format(msgs)
	want := "User: hi\nAssistant: hello"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}
