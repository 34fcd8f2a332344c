package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/hermes-assist/hermes/internal/providers"
	"github.com/hermes-assist/hermes/internal/tools"
)

// echoTool records calls and returns a fixed result.
type echoTool struct {
	name  string
	calls int
}

func (t *echoTool) Name() string        { return t.name }
func (t *echoTool) Description() string { return "test tool" }
func (t *echoTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (t *echoTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	t.calls++
	return tools.NewResult("echoed")
}

// chatScript yields responses in order, repeating the last one forever.
type chatScript struct {
	responses []*providers.ChatResponse
	calls     int
}

func (p *chatScript) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return p.responses[i], nil
}
func (p *chatScript) DefaultModel() string { return "chat-script" }
func (p *chatScript) Name() string         { return "script" }

func toolUseResp(id, name string) *providers.ChatResponse {
	return &providers.ChatResponse{
		ToolCalls:    []providers.ToolCall{{ID: id, Name: name, Arguments: map[string]interface{}{}}},
		FinishReason: "tool_calls",
		Usage:        &providers.Usage{PromptTokens: 10, CompletionTokens: 5},
	}
}

func TestExecutePlainText(t *testing.T) {
	script := &chatScript{responses: []*providers.ChatResponse{
		{Content: "Hi!", FinishReason: "stop", Usage: &providers.Usage{PromptTokens: 7, CompletionTokens: 2}},
	}}
	s := NewSurface(SurfaceConfig{Provider: script})

	result := s.Execute(context.Background(), ExecuteRequest{
		SystemPrompt: "be brief",
		Task:         "Hello!",
	}, &ExecContext{Phone: "+1555", Channel: "sms"})

	if !result.Success || result.Output != "Hi!" {
		t.Fatalf("result = %+v", result)
	}
	if len(result.ToolCalls) != 0 {
		t.Error("plain text turn should record no tool calls")
	}
	if result.TokenUsage == nil || result.TokenUsage.Input != 7 || result.TokenUsage.Output != 2 {
		t.Errorf("tokenUsage = %+v", result.TokenUsage)
	}
}

func TestExecuteToolRoundTrip(t *testing.T) {
	reg := tools.NewRegistry()
	tool := &echoTool{name: "echo"}
	reg.Register(tool)

	script := &chatScript{responses: []*providers.ChatResponse{
		toolUseResp("tc_1", "echo"),
		{Content: "done", FinishReason: "stop"},
	}}
	s := NewSurface(SurfaceConfig{Provider: script, Tools: reg})

	result := s.Execute(context.Background(), ExecuteRequest{
		SystemPrompt: "x", Task: "use the tool", AllowedTools: []string{"echo"},
	}, &ExecContext{})

	if !result.Success || result.Output != "done" {
		t.Fatalf("result = %+v", result)
	}
	if tool.calls != 1 {
		t.Errorf("tool calls = %d, want 1", tool.calls)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != "echo" {
		t.Errorf("toolCalls = %+v", result.ToolCalls)
	}
}

func TestExecuteMissingToolRecovers(t *testing.T) {
	script := &chatScript{responses: []*providers.ChatResponse{
		toolUseResp("tc_1", "no_such_tool"),
		{Content: "sorry, moving on", FinishReason: "stop"},
	}}
	s := NewSurface(SurfaceConfig{Provider: script})

	result := s.Execute(context.Background(), ExecuteRequest{
		SystemPrompt: "x", Task: "y", AllowedTools: []string{"*"},
	}, &ExecContext{})

	// The missing tool becomes an error tool-result; the loop continues.
	if !result.Success || result.Output != "sorry, moving on" {
		t.Fatalf("result = %+v", result)
	}
}

func TestExecuteToolLoopCap(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(&echoTool{name: "echo"})

	// Every turn requests another tool call.
	script := &chatScript{responses: []*providers.ChatResponse{toolUseResp("tc", "echo")}}
	s := NewSurface(SurfaceConfig{Provider: script, Tools: reg})

	result := s.Execute(context.Background(), ExecuteRequest{
		SystemPrompt: "x", Task: "y", AllowedTools: []string{"*"},
	}, &ExecContext{})

	if result.Success {
		t.Fatal("loop cap should fail the step")
	}
	if result.Error != "tool loop exceeded" {
		t.Errorf("error = %q", result.Error)
	}
	if script.calls != DefaultMaxToolIterations {
		t.Errorf("LLM calls = %d, want %d", script.calls, DefaultMaxToolIterations)
	}
}

func TestRouteToAgentFallback(t *testing.T) {
	r := NewRegistry()
	r.Register(Registration{
		Capability: Capability{Name: GeneralAgent, Description: "fallback"},
		Execute: func(ctx context.Context, task string, ec *ExecContext) *StepResult {
			return &StepResult{Success: true, Output: "general says: " + task}
		},
	})

	result := r.RouteToAgent(context.Background(), "nonexistent-agent", "hi", &ExecContext{})
	if !result.Success || result.Output != "general says: hi" {
		t.Errorf("unknown agent should fall back to general-agent, got %+v", result)
	}
}

func TestRouteToAgentNoFallback(t *testing.T) {
	r := NewRegistry()
	result := r.RouteToAgent(context.Background(), "ghost", "hi", &ExecContext{})
	if result.Success || !strings.Contains(result.Error, "unknown agent") {
		t.Errorf("result = %+v", result)
	}
}

func TestRenderPrompt(t *testing.T) {
	got := RenderPrompt("Hello {userContext} at {timeContext}", &ExecContext{})
	if strings.Contains(got, "{userContext}") || strings.Contains(got, "{timeContext}") {
		t.Errorf("placeholders not resolved: %q", got)
	}
	if !strings.Contains(got, "has not shared their name") {
		t.Errorf("anonymous user context missing: %q", got)
	}
}
