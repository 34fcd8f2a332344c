// Package orchestrator implements the plan/execute/replan loop that turns an
// inbound message into a reply: the planner proposes steps, the step executor
// runs them through agents and skills, the replanner adjusts after failures,
// and the composer assembles the final text.
package orchestrator

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hermes-assist/hermes/internal/agent"
	"github.com/hermes-assist/hermes/internal/store"
)

// Execution limits. Single source of truth for the whole loop.
const (
	MaxTotalSteps       = 8
	MaxReplans          = 2
	MaxExecutionTime    = 120 * time.Second
	DefaultStepRetries  = 2
	maxLoopIterations   = MaxTotalSteps * (MaxReplans + 2) // safety cap
)

// Step status values.
const (
	StepPending   = "pending"
	StepRunning   = "running"
	StepCompleted = "completed"
	StepFailed    = "failed"
	StepSkipped   = "skipped"
)

// Step target types.
const (
	TargetAgent = "agent"
	TargetSkill = "skill"
)

// Plan status values.
const (
	PlanPlanning  = "planning"
	PlanExecuting = "executing"
	PlanCompleted = "completed"
	PlanFailed    = "failed"
)

// PlanStep is one unit of work in an execution plan.
type PlanStep struct {
	ID         string            `json:"id"`
	TargetType string            `json:"targetType"` // "agent" or "skill"
	Target     string            `json:"target"`
	Task       string            `json:"task"`
	Status     string            `json:"status"`
	RetryCount int               `json:"retryCount"`
	MaxRetries int               `json:"maxRetries"`
	Result     *agent.StepResult `json:"result,omitempty"`
}

// ExecutionPlan is an ordered, versioned list of steps for one request.
type ExecutionPlan struct {
	ID          string      `json:"id"`
	UserRequest string      `json:"userRequest"`
	Goal        string      `json:"goal"`
	Steps       []*PlanStep `json:"steps"`
	Status      string      `json:"status"`
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewPlan builds a version-1 plan in executing state.
func NewPlan(userRequest, goal string, steps []*PlanStep) *ExecutionPlan {
	now := time.Now()
	return &ExecutionPlan{
		ID:          uuid.NewString(),
		UserRequest: userRequest,
		Goal:        goal,
		Steps:       steps,
		Status:      PlanExecuting,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NextPending returns the first pending step and its index, or nil.
func (p *ExecutionPlan) NextPending() (*PlanStep, int) {
	for i, s := range p.Steps {
		if s.Status == StepPending {
			return s, i
		}
	}
	return nil, -1
}

// RemainingAfter counts pending steps after the given index.
func (p *ExecutionPlan) RemainingAfter(idx int) int {
	n := 0
	for i := idx + 1; i < len(p.Steps); i++ {
		if p.Steps[i].Status == StepPending {
			n++
		}
	}
	return n
}

// CompletedSteps returns the completed steps in order.
func (p *ExecutionPlan) CompletedSteps() []*PlanStep {
	var out []*PlanStep
	for _, s := range p.Steps {
		if s.Status == StepCompleted {
			out = append(out, s)
		}
	}
	return out
}

// HasStepID reports whether any step carries the given id.
func (p *ExecutionPlan) HasStepID(id string) bool {
	for _, s := range p.Steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// StepError pairs a failed step with its error text.
type StepError struct {
	StepID string `json:"stepId"`
	Error  string `json:"error"`
}

// PlanContext is the executor-facing view of one request.
type PlanContext struct {
	UserMessage  string
	History      string // pre-formatted conversation window
	Facts        []store.MemoryFact
	User         *store.UserConfig
	Phone        string
	Channel      string
	MediaContext string

	StepResults map[string]*agent.StepResult
	Errors      []StepError

	Logger *slog.Logger
}

// Log returns the diagnostic logger, defaulting to slog.Default().
func (pc *PlanContext) Log() *slog.Logger {
	if pc != nil && pc.Logger != nil {
		return pc.Logger
	}
	return slog.Default()
}

// ExecCtx builds the per-step execution context sharing the plan's
// accumulated step results.
func (pc *PlanContext) ExecCtx() *agent.ExecContext {
	return &agent.ExecContext{
		Phone:        pc.Phone,
		Channel:      pc.Channel,
		User:         pc.User,
		PrevResults:  pc.StepResults,
		MediaContext: pc.MediaContext,
		Logger:       pc.Logger,
	}
}

// Timezone returns the user's IANA timezone, or "UTC".
func (pc *PlanContext) Timezone() string {
	if pc != nil && pc.User != nil && pc.User.Timezone != "" {
		return pc.User.Timezone
	}
	return "UTC"
}
