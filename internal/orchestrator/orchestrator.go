package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hermes-assist/hermes/internal/agent"
	"github.com/hermes-assist/hermes/internal/providers"
	"github.com/hermes-assist/hermes/internal/skills"
)

var tracer = otel.Tracer("hermes/orchestrator")

// Orchestrator drives one request through plan, execute, replan, compose.
type Orchestrator struct {
	planner   *Planner
	executor  *StepExecutor
	replanner *Replanner
}

// Result is the outcome of a full orchestration.
type Result struct {
	Success  bool
	Response string
	Plan     *ExecutionPlan
}

func New(provider providers.Provider, agents *agent.Registry, reg *skills.Registry) *Orchestrator {
	return &Orchestrator{
		planner:   NewPlanner(provider, agents, reg),
		executor:  NewStepExecutor(agents, reg),
		replanner: NewReplanner(provider, agents),
	}
}

// Run executes the full loop for one request.
func (o *Orchestrator) Run(ctx context.Context, pc *PlanContext) *Result {
	ctx, span := tracer.Start(ctx, "orchestrator.run")
	defer span.End()

	if pc.StepResults == nil {
		pc.StepResults = make(map[string]*agent.StepResult)
	}
	startedAt := time.Now()

	plan := o.planner.CreatePlan(ctx, pc)
	pc.Log().Info("plan created", "plan", plan.ID, "goal", plan.Goal, "steps", len(plan.Steps))
	span.SetAttributes(attribute.Int("plan.steps", len(plan.Steps)))

	iterations := 0
	for {
		step, idx := plan.NextPending()
		if step == nil {
			break
		}
		iterations++
		if iterations > maxLoopIterations {
			pc.Log().Warn("orchestrator iteration cap hit", "plan", plan.ID)
			break
		}

		result := o.executor.Execute(ctx, step, pc)
		pc.Log().Info("step executed",
			"step", step.ID, "target", step.Target, "success", result.Success)

		remaining := plan.RemainingAfter(idx)
		if shouldReplan(result, remaining) && o.replanner.CanReplan(plan, startedAt) {
			plan = o.replanner.Replan(ctx, plan, pc)
			continue
		}

		if time.Since(startedAt) > MaxExecutionTime {
			pc.Log().Warn("execution time cap hit", "plan", plan.ID)
			break
		}
	}

	plan.Status = PlanCompleted
	success := true
	for _, s := range plan.Steps {
		if s.Status == StepFailed {
			plan.Status = PlanFailed
			success = false
		}
	}
	plan.UpdatedAt = time.Now()

	span.SetAttributes(
		attribute.Bool("plan.success", success),
		attribute.Int("plan.version", plan.Version),
	)

	return &Result{
		Success:  success,
		Response: Compose(plan, pc),
		Plan:     plan,
	}
}

// shouldReplan checks the replan triggers in fixed precedence: an explicit
// needsReplan flag, then failure, then an isEmpty flag. A failure on the
// last step is a definitive failure, not a replan trigger; an empty result
// always invites a broader retry while budget remains.
func shouldReplan(result *agent.StepResult, remaining int) bool {
	if result.OutputFlag("needsReplan") {
		return true
	}
	if !result.Success && remaining > 0 {
		return true
	}
	if result.OutputFlag("isEmpty") {
		return true
	}
	return false
}
