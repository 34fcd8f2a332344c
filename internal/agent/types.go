package agent

import (
	"log/slog"

	"github.com/hermes-assist/hermes/internal/store"
)

// TokenUsage counts LLM tokens consumed by one invocation.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// ToolCallRecord captures one tool invocation for observability.
type ToolCallRecord struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// StepResult is the outcome of any single agent, skill, or tool invocation.
type StepResult struct {
	Success    bool             `json:"success"`
	Output     interface{}      `json:"output"` // json value or nil, never undefined
	Error      string           `json:"error,omitempty"`
	ToolCalls  []ToolCallRecord `json:"toolCalls,omitempty"`
	TokenUsage *TokenUsage      `json:"tokenUsage,omitempty"`
}

// Failure builds a failed StepResult with a nil output.
func Failure(errMsg string) *StepResult {
	return &StepResult{Success: false, Output: nil, Error: errMsg}
}

// OutputMap returns the result output as a map when it is one.
func (r *StepResult) OutputMap() map[string]interface{} {
	m, _ := r.Output.(map[string]interface{})
	return m
}

// OutputFlag reports whether output is a map carrying a true boolean at key.
func (r *StepResult) OutputFlag(key string) bool {
	if m := r.OutputMap(); m != nil {
		v, _ := m[key].(bool)
		return v
	}
	return false
}

// ExecContext is the read-only per-request bundle carried to every
// agent, skill, and tool invocation.
type ExecContext struct {
	Phone        string            // user identifier
	Channel      string            // "sms" or "whatsapp" ("email", "scheduler" for background paths)
	User         *store.UserConfig // nil when the user has no profile
	PrevResults  map[string]*StepResult
	MediaContext string // pre-analysis summaries for attached media
	Logger       *slog.Logger
}

// Log returns the diagnostic logger, defaulting to slog.Default().
func (ec *ExecContext) Log() *slog.Logger {
	if ec != nil && ec.Logger != nil {
		return ec.Logger
	}
	return slog.Default()
}

// Timezone returns the user's IANA timezone, or "UTC".
func (ec *ExecContext) Timezone() string {
	if ec != nil && ec.User != nil && ec.User.Timezone != "" {
		return ec.User.Timezone
	}
	return "UTC"
}
