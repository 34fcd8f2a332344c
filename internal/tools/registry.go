package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hermes-assist/hermes/internal/providers"
)

// Tool is the interface all tools must implement.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) *Result
}

// Registry holds registered tools and dispatches execution by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Later registrations replace earlier ones of the same name.
func (r *Registry) Register(t Tool) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the tool or nil.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderDefs returns LLM tool definitions for every registered tool.
func (r *Registry) ProviderDefs() []providers.ToolDefinition {
	return r.DefsFor([]string{"*"})
}

// DefsFor returns definitions for the allowed tool names.
// The single element "*" means all registered tools; unknown names are skipped.
func (r *Registry) DefsFor(allowed []string) []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	if len(allowed) == 1 && allowed[0] == "*" {
		for name := range r.tools {
			names = append(names, name)
		}
		sort.Strings(names)
	} else {
		for _, name := range allowed {
			if _, ok := r.tools[name]; ok {
				names = append(names, name)
			}
		}
	}

	defs := make([]providers.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, providers.ToolDefinition{
			Type: "function",
			Function: providers.ToolFunctionSchema{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute runs a tool by name. Missing tools and panics become error Results
// so the LLM loop can recover instead of crashing the run.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (result *Result) {
	t := r.Get(name)
	if t == nil {
		return ErrorResult(fmt.Sprintf("unknown tool: %s", name))
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tool panicked", "tool", name, "panic", rec)
			result = ErrorResult(fmt.Sprintf("tool %s failed: %v", name, rec))
		}
	}()

	result = t.Execute(ctx, args)
	if result == nil {
		result = ErrorResult(fmt.Sprintf("tool %s returned no result", name))
	}
	return result
}
