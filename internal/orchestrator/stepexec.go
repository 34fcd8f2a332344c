package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/hermes-assist/hermes/internal/agent"
	"github.com/hermes-assist/hermes/internal/skills"
	"github.com/hermes-assist/hermes/internal/tools"
)

// StepExecutor resolves a plan step to an agent or skill and runs it,
// retrying in place on transient failures.
type StepExecutor struct {
	agents *agent.Registry
	skills *skills.Registry
}

func NewStepExecutor(agents *agent.Registry, reg *skills.Registry) *StepExecutor {
	return &StepExecutor{agents: agents, skills: reg}
}

// Execute runs one step, mutating its status, retry count, and result.
func (e *StepExecutor) Execute(ctx context.Context, step *PlanStep, pc *PlanContext) *agent.StepResult {
	step.Status = StepRunning

	var result *agent.StepResult
	for {
		result = e.runOnce(ctx, step, pc)
		if result == nil {
			result = agent.Failure("step produced no result")
		}
		if result.Success || step.RetryCount >= step.MaxRetries || !isTransient(result) {
			break
		}
		step.RetryCount++
		pc.Log().Info("retrying step after transient failure",
			"step", step.ID, "attempt", step.RetryCount, "error", result.Error)
	}

	if result.Success {
		step.Status = StepCompleted
	} else {
		step.Status = StepFailed
		pc.Errors = append(pc.Errors, StepError{StepID: step.ID, Error: result.Error})
	}
	step.Result = result
	pc.StepResults[step.ID] = result
	return result
}

func (e *StepExecutor) runOnce(ctx context.Context, step *PlanStep, pc *PlanContext) (result *agent.StepResult) {
	defer func() {
		if r := recover(); r != nil {
			pc.Log().Error("step panicked", "step", step.ID, "panic", r)
			result = agent.Failure(fmt.Sprintf("step panicked: %v", r))
		}
	}()

	switch step.TargetType {
	case TargetAgent:
		return e.agents.RouteToAgent(ctx, step.Target, step.Task, pc.ExecCtx())
	case TargetSkill:
		return e.runSkill(ctx, step, pc)
	default:
		return agent.Failure("unknown target type: " + step.TargetType)
	}
}

func (e *StepExecutor) runSkill(ctx context.Context, step *PlanStep, pc *PlanContext) *agent.StepResult {
	if e.skills == nil {
		return agent.Failure("no skill registry configured")
	}
	ctx = tools.WithPhone(ctx, pc.Phone)
	ctx = tools.WithChannel(ctx, pc.Channel)
	if pc.User != nil {
		ctx = tools.WithUserConfig(ctx, pc.User)
	}
	res, err := e.skills.ExecuteByName(ctx, step.Target, step.Task)
	if err != nil {
		return agent.Failure(err.Error())
	}
	if !res.Success {
		return agent.Failure(res.Err)
	}
	return &agent.StepResult{Success: true, Output: res.Output}
}

// transientMarkers classify retryable failures by substring. A result may
// also declare itself retryable via output.retryable.
var transientMarkers = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"temporarily unavailable",
	"rate limit",
	"429",
	"502",
	"503",
}

func isTransient(result *agent.StepResult) bool {
	if result.OutputFlag("retryable") {
		return true
	}
	msg := strings.ToLower(result.Error)
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
