// Package convo reduces raw conversation history to the window that is
// worth showing the planner: recent, bounded, and within a token budget.
package convo

import (
	"math"
	"strings"
	"time"

	"github.com/hermes-assist/hermes/internal/store"
)

// Defaults for the planning window.
const (
	DefaultMaxAgeHours = 24
	DefaultMaxMessages = 20
	DefaultMaxTokens   = 4000

	// charsPerToken is the estimate used for the token budget.
	charsPerToken = 3.3
)

// WindowConfig bounds the conversation window.
type WindowConfig struct {
	MaxAgeHours int
	MaxMessages int
	MaxTokens   int
}

func (c WindowConfig) withDefaults() WindowConfig {
	if c.MaxAgeHours <= 0 {
		c.MaxAgeHours = DefaultMaxAgeHours
	}
	if c.MaxMessages <= 0 {
		c.MaxMessages = DefaultMaxMessages
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// EstimateTokens approximates the token count of a message's content.
func EstimateTokens(content string) int {
	return int(math.Ceil(float64(len(content)) / charsPerToken))
}

// Window filters messages (chronological, newest last) down to the planning
// window: age cap, then count cap, then token budget walked newest-first.
// A single message larger than the token budget yields an empty window.
func Window(messages []store.Message, now time.Time, cfg WindowConfig) []store.Message {
	cfg = cfg.withDefaults()

	cutoff := now.Add(-time.Duration(cfg.MaxAgeHours) * time.Hour)
	var recent []store.Message
	for _, m := range messages {
		if !m.CreatedAt.Before(cutoff) {
			recent = append(recent, m)
		}
	}

	if len(recent) > cfg.MaxMessages {
		recent = recent[len(recent)-cfg.MaxMessages:]
	}

	// Walk newest to oldest until the budget would be exceeded.
	tokens := 0
	start := len(recent)
	for i := len(recent) - 1; i >= 0; i-- {
		cost := EstimateTokens(recent[i].Content)
		if tokens+cost > cfg.MaxTokens {
			break
		}
		tokens += cost
		start = i
	}

	return recent[start:]
}

// Format renders a window for prompt injection: "Role: content" lines,
// or a fixed placeholder when the window is empty.
func Format(messages []store.Message) string {
	if len(messages) == 0 {
		return "(No recent conversation history)"
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != "" {
			role = strings.ToUpper(role[:1]) + role[1:]
		}
		lines = append(lines, role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
