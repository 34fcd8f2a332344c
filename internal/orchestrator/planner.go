package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hermes-assist/hermes/internal/agent"
	"github.com/hermes-assist/hermes/internal/providers"
	"github.com/hermes-assist/hermes/internal/skills"
)

// factCharCap bounds the user-facts block in the planner prompt.
const factCharCap = 1200

// Planner asks the LLM for an execution plan routing the request through
// agents and skills.
type Planner struct {
	provider providers.Provider
	agents   *agent.Registry
	skills   *skills.Registry
}

func NewPlanner(provider providers.Provider, agents *agent.Registry, reg *skills.Registry) *Planner {
	return &Planner{provider: provider, agents: agents, skills: reg}
}

// CreatePlan produces a version-1 plan for the request. LLM or parse failure
// degrades to a single general-agent step rather than an error.
func (p *Planner) CreatePlan(ctx context.Context, pc *PlanContext) *ExecutionPlan {
	prompt := p.buildPrompt(pc)

	resp, err := p.provider.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: fmt.Sprintf(plannerSystemPrompt, MaxTotalSteps)},
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{providers.OptMaxTokens: 2048},
	})

	var parsed *parsedPlan
	if err != nil {
		pc.Log().Warn("planner LLM call failed, using fallback plan", "error", err)
	} else {
		parsed, err = parsePlanJSON(resp.Content)
		if err != nil {
			pc.Log().Warn("planner returned unparseable plan, using fallback", "error", err)
		}
	}

	if parsed == nil || len(parsed.Steps) == 0 {
		return NewPlan(pc.UserMessage, "respond to user", []*PlanStep{{
			ID:         "step_1",
			TargetType: TargetAgent,
			Target:     agent.GeneralAgent,
			Task:       pc.UserMessage,
			Status:     StepPending,
			MaxRetries: DefaultStepRetries,
		}})
	}

	steps := make([]*PlanStep, 0, len(parsed.Steps))
	usedIDs := make(map[string]bool)
	for i, s := range parsed.Steps {
		id := s.ID
		if id == "" || usedIDs[id] {
			id = fmt.Sprintf("step_%d", i+1)
		}
		usedIDs[id] = true
		steps = append(steps, &PlanStep{
			ID:         id,
			TargetType: s.TargetType,
			Target:     s.Target,
			Task:       s.Task,
			Status:     StepPending,
			MaxRetries: DefaultStepRetries,
		})
	}
	if len(steps) > MaxTotalSteps {
		steps = steps[:MaxTotalSteps]
	}

	resolveTaskDates(steps, pc)

	return NewPlan(pc.UserMessage, parsed.Goal, steps)
}

const plannerSystemPrompt = `You are a planner for a personal assistant reached over text message.
Given the user's message, available agents, and available skills, produce a short
ordered plan. Respond with a single JSON object and nothing else:
{"goal": "...", "steps": [{"id": "step_1", "targetType": "agent" or "skill", "target": "name", "task": "instruction"}]}
Rules:
- At most %d steps. Most requests need exactly one.
- Prefer a skill when one clearly fits; otherwise pick the most specific agent.
- Use general-agent only when nothing else applies.
- Steps run in order; a later task may reference an earlier step id.`

func (p *Planner) buildPrompt(pc *PlanContext) string {
	var b strings.Builder

	loc, err := time.LoadLocation(pc.Timezone())
	if err != nil {
		loc = time.UTC
	}
	fmt.Fprintf(&b, "Current time: %s\n", time.Now().In(loc).Format("Monday, January 2, 2006 3:04 PM MST"))

	if pc.User != nil && pc.User.Name != "" {
		fmt.Fprintf(&b, "User: %s\n", pc.User.Name)
	}
	if facts := formatFacts(pc); facts != "" {
		b.WriteString("\nKnown facts about the user:\n" + facts + "\n")
	}

	b.WriteString("\nRecent conversation:\n" + pc.History + "\n")

	b.WriteString("\nAvailable agents:\n")
	for _, cap := range p.agents.List() {
		fmt.Fprintf(&b, "- %s: %s\n", cap.Name, cap.Description)
		if len(cap.Examples) > 0 {
			fmt.Fprintf(&b, "    Examples: %s\n", strings.Join(cap.Examples, ", "))
		}
	}

	routable := routableSkills(p.skills, pc.Channel)
	if len(routable) > 0 {
		b.WriteString("\nAvailable skills:\n")
		for _, s := range routable {
			fmt.Fprintf(&b, "- %s: %s (hints: %s)\n", s.Name, s.Description, strings.Join(s.MatchHints, ", "))
		}
	}

	if pc.MediaContext != "" {
		b.WriteString("\nAttached media: " + pc.MediaContext + "\n")
	}

	b.WriteString("\nUser message: " + pc.UserMessage + "\n")
	return b.String()
}

func routableSkills(reg *skills.Registry, channel string) []*skills.LoadedSkill {
	if reg == nil {
		return nil
	}
	var out []*skills.LoadedSkill
	for _, s := range reg.List() {
		if s.Enabled && s.RoutableFrom(channel) {
			out = append(out, s)
		}
	}
	return out
}

// formatFacts renders memory facts ranked by confidence, capped by length.
func formatFacts(pc *PlanContext) string {
	if len(pc.Facts) == 0 {
		return ""
	}
	facts := make([]struct {
		text string
		conf float64
	}, 0, len(pc.Facts))
	for _, f := range pc.Facts {
		facts = append(facts, struct {
			text string
			conf float64
		}{f.Fact, f.Confidence})
	}
	sort.SliceStable(facts, func(i, j int) bool { return facts[i].conf > facts[j].conf })

	var b strings.Builder
	for _, f := range facts {
		line := "- " + f.text + "\n"
		if b.Len()+len(line) > factCharCap {
			break
		}
		b.WriteString(line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// parsedPlan is the LLM's JSON plan shape, shared with the replanner.
type parsedPlan struct {
	Goal  string       `json:"goal"`
	Steps []parsedStep `json:"steps"`
}

type parsedStep struct {
	ID         string `json:"id"`
	TargetType string `json:"targetType"`
	Target     string `json:"target"`
	Task       string `json:"task"`
}

// parsePlanJSON parses the planner/replanner output, tolerating a markdown
// code fence, and shape-validates every step.
func parsePlanJSON(raw string) (*parsedPlan, error) {
	body := stripCodeFence(raw)

	var plan parsedPlan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if plan.Goal == "" {
		return nil, fmt.Errorf("plan missing goal")
	}
	for i, s := range plan.Steps {
		if s.TargetType != TargetAgent && s.TargetType != TargetSkill {
			return nil, fmt.Errorf("step %d: bad targetType %q", i, s.TargetType)
		}
		if s.Target == "" || s.Task == "" {
			return nil, fmt.Errorf("step %d: target and task are required", i)
		}
	}
	return &plan, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
