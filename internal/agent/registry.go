package agent

import (
	"context"
	"sync"
)

// GeneralAgent is the fallback agent name for unknown routes.
const GeneralAgent = "general-agent"

// Capability describes what an agent can do; the planner prompt is built from it.
type Capability struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"` // tool names, or ["*"] for all
	Examples    []string `json:"examples"`
}

// Executor runs one task against an agent.
type Executor func(ctx context.Context, task string, ec *ExecContext) *StepResult

// Registration pairs a capability descriptor with its executor.
type Registration struct {
	Capability Capability
	Execute    Executor
}

// Registry maps agent names to registrations. Static after startup.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Registration
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Registration)}
}

// Register adds an agent. Re-registering a name replaces the executor
// but keeps its position in the listing order.
func (r *Registry) Register(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[reg.Capability.Name]; !exists {
		r.order = append(r.order, reg.Capability.Name)
	}
	r.agents[reg.Capability.Name] = reg
}

// Get returns the registration for an agent name.
func (r *Registry) Get(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.agents[name]
	return reg, ok
}

// List returns capabilities in registration order.
func (r *Registry) List() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		caps = append(caps, r.agents[name].Capability)
	}
	return caps
}

// RouteToAgent dispatches a task to the named agent. Unknown names fall back
// to the general agent; if that is also missing, a typed failure is returned
// rather than a crash.
func (r *Registry) RouteToAgent(ctx context.Context, name, task string, ec *ExecContext) *StepResult {
	reg, ok := r.Get(name)
	if !ok {
		ec.Log().Warn("unknown agent, falling back", "agent", name, "fallback", GeneralAgent)
		reg, ok = r.Get(GeneralAgent)
		if !ok {
			return Failure("unknown agent: " + name)
		}
	}
	return reg.Execute(ctx, task, ec)
}
