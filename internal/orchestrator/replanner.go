package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hermes-assist/hermes/internal/agent"
	"github.com/hermes-assist/hermes/internal/providers"
)

// outputTruncateLen bounds per-step output shown in the replan prompt.
const outputTruncateLen = 200

// Replanner produces a new plan version after a mid-plan failure or empty
// result, preserving completed steps verbatim.
type Replanner struct {
	provider providers.Provider
	agents   *agent.Registry
}

func NewReplanner(provider providers.Provider, agents *agent.Registry) *Replanner {
	return &Replanner{provider: provider, agents: agents}
}

// CanReplan reports whether the plan is still within the replan, step, and
// wall-clock budgets.
func (r *Replanner) CanReplan(plan *ExecutionPlan, startedAt time.Time) bool {
	if plan.Version >= MaxReplans+1 {
		return false
	}
	if len(plan.Steps) >= MaxTotalSteps {
		return false
	}
	if time.Since(startedAt) >= MaxExecutionTime {
		return false
	}
	return true
}

// Replan asks the LLM for a revised step list and merges it with the prior
// plan. Parse failure keeps only the completed steps, so the loop proceeds
// straight to synthesis.
func (r *Replanner) Replan(ctx context.Context, plan *ExecutionPlan, pc *PlanContext) *ExecutionPlan {
	prompt := r.buildPrompt(plan, pc)

	var proposed []parsedStep
	resp, err := r.provider.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: replanSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{providers.OptMaxTokens: 2048},
	})
	if err != nil {
		pc.Log().Warn("replanner LLM call failed, keeping completed steps only", "error", err)
	} else if parsed, perr := parsePlanJSON(resp.Content); perr != nil {
		pc.Log().Warn("replanner returned unparseable plan, keeping completed steps only", "error", perr)
	} else {
		proposed = parsed.Steps
	}

	return r.merge(plan, proposed, pc)
}

const replanSystemPrompt = `You are revising a partially executed plan for a personal assistant.
Completed steps will be preserved; propose only the remaining work.
Respond with a single JSON object and nothing else:
{"goal": "...", "steps": [{"id": "step_N", "targetType": "agent" or "skill", "target": "name", "task": "instruction"}]}
Do not repeat completed work. Propose fewer, better steps.`

func (r *Replanner) buildPrompt(plan *ExecutionPlan, pc *PlanContext) string {
	var b strings.Builder

	b.WriteString("Available agents:\n")
	for _, cap := range r.agents.List() {
		fmt.Fprintf(&b, "- %s: %s\n", cap.Name, cap.Description)
	}

	fmt.Fprintf(&b, "\nOriginal request: %s\nGoal: %s\n\nSteps so far:\n", plan.UserRequest, plan.Goal)
	for _, s := range plan.Steps {
		fmt.Fprintf(&b, "[%s] %s (%s)\n  Task: %s\n", s.ID, s.Target, s.Status, s.Task)
		if s.Result != nil {
			if s.Result.Success {
				fmt.Fprintf(&b, "  Result: SUCCESS\n  Output: %s\n", truncate(stringifyOutput(s.Result.Output), outputTruncateLen))
			} else {
				fmt.Fprintf(&b, "  Result: FAILED - %s\n", s.Result.Error)
			}
		}
	}

	if len(pc.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range pc.Errors {
			fmt.Fprintf(&b, "- %s: %s\n", e.StepID, e.Error)
		}
	}

	budget := MaxTotalSteps - len(plan.CompletedSteps())
	fmt.Fprintf(&b, "\nYou may propose at most %d new steps.\n", budget)
	return b.String()
}

// merge builds the next plan version: completed steps verbatim, then
// proposed steps deduplicated by (target, task), truncated to the step cap.
func (r *Replanner) merge(plan *ExecutionPlan, proposed []parsedStep, pc *PlanContext) *ExecutionPlan {
	newVersion := plan.Version + 1
	steps := make([]*PlanStep, 0, MaxTotalSteps)

	seen := make(map[string]bool)
	for _, s := range plan.CompletedSteps() {
		steps = append(steps, s)
		seen[s.Target+"\x00"+s.Task] = true
	}

	for _, p := range proposed {
		if len(steps) >= MaxTotalSteps {
			break
		}
		key := p.Target + "\x00" + p.Task
		if seen[key] {
			continue
		}
		seen[key] = true

		id := p.ID
		if id == "" || hasID(steps, id) {
			id = fmt.Sprintf("step_%d_v%d", len(steps)+1, newVersion)
		}
		steps = append(steps, &PlanStep{
			ID:         id,
			TargetType: p.TargetType,
			Target:     p.Target,
			Task:       p.Task,
			Status:     StepPending,
			MaxRetries: DefaultStepRetries,
		})
	}

	plan.Steps = steps
	plan.Version = newVersion
	plan.UpdatedAt = time.Now()
	pc.Log().Info("plan revised", "version", newVersion, "steps", len(steps))
	return plan
}

func hasID(steps []*PlanStep, id string) bool {
	for _, s := range steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func stringifyOutput(output interface{}) string {
	switch v := output.(type) {
	case nil:
		return "(none)"
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
