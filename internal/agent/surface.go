package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hermes-assist/hermes/internal/providers"
	"github.com/hermes-assist/hermes/internal/tools"
)

// DefaultMaxToolIterations caps the tool-call loop per invocation.
const DefaultMaxToolIterations = 10

var tracer = otel.Tracer("hermes/agent")

// Surface drives the LLM tool-call loop for one task.
// It is the single execution path shared by agents, skills, and scheduled jobs.
type Surface struct {
	provider          providers.Provider
	model             string
	registry          *tools.Registry
	maxToolIterations int
	maxTokens         int
	temperature       float64
}

// SurfaceConfig configures a new Surface.
type SurfaceConfig struct {
	Provider          providers.Provider
	Model             string
	Tools             *tools.Registry
	MaxToolIterations int
	MaxTokens         int
	Temperature       float64
}

func NewSurface(cfg SurfaceConfig) *Surface {
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = DefaultMaxToolIterations
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.Tools == nil {
		cfg.Tools = tools.NewRegistry()
	}
	return &Surface{
		provider:          cfg.Provider,
		model:             cfg.Model,
		registry:          cfg.Tools,
		maxToolIterations: cfg.MaxToolIterations,
		maxTokens:         cfg.MaxTokens,
		temperature:       cfg.Temperature,
	}
}

// Tools exposes the underlying tool registry.
func (s *Surface) Tools() *tools.Registry { return s.registry }

// ExecuteRequest is the input for one pass through the tool-call loop.
type ExecuteRequest struct {
	SystemPrompt string
	Task         string
	// AllowedTools restricts the tool schema; ["*"] exposes every registered tool.
	AllowedTools []string
	// InitialMessages are injected between the system prompt and the task,
	// e.g. the original-user-request preamble for scheduled jobs.
	InitialMessages []providers.Message
}

// Execute runs the LLM chat loop until the model returns plain text or the
// iteration cap is hit. Tool handler failures never escape; they are fed back
// to the model as error tool results.
func (s *Surface) Execute(ctx context.Context, req ExecuteRequest, ec *ExecContext) *StepResult {
	ctx, span := tracer.Start(ctx, "surface.execute")
	defer span.End()
	span.SetAttributes(attribute.Int("tools.allowed", len(req.AllowedTools)))

	// Per-request values for tool handlers.
	if ec != nil {
		ctx = tools.WithPhone(ctx, ec.Phone)
		ctx = tools.WithChannel(ctx, ec.Channel)
		if ec.User != nil {
			ctx = tools.WithUserConfig(ctx, ec.User)
		}
	}

	messages := make([]providers.Message, 0, len(req.InitialMessages)+2)
	messages = append(messages, providers.Message{Role: "system", Content: req.SystemPrompt})
	messages = append(messages, req.InitialMessages...)
	messages = append(messages, providers.Message{Role: "user", Content: req.Task})

	toolDefs := s.registry.DefsFor(req.AllowedTools)

	var usage providers.Usage
	var records []ToolCallRecord

	for iteration := 1; iteration <= s.maxToolIterations; iteration++ {
		resp, err := s.provider.Chat(ctx, providers.ChatRequest{
			Messages: messages,
			Tools:    toolDefs,
			Model:    s.model,
			Options: map[string]interface{}{
				providers.OptMaxTokens:   s.maxTokens,
				providers.OptTemperature: s.temperature,
			},
		})
		if err != nil {
			return &StepResult{
				Success:    false,
				Output:     nil,
				Error:      fmt.Sprintf("LLM call failed (iteration %d): %v", iteration, err),
				ToolCalls:  records,
				TokenUsage: tokenUsage(&usage),
			}
		}
		usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			return &StepResult{
				Success:    true,
				Output:     resp.Content,
				ToolCalls:  records,
				TokenUsage: tokenUsage(&usage),
			}
		}

		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			records = append(records, ToolCallRecord{ID: tc.ID, Name: tc.Name, Input: tc.Arguments})

			argsJSON, _ := json.Marshal(tc.Arguments)
			ec.Log().Info("tool call", "tool", tc.Name, "args_len", len(argsJSON))

			result := s.registry.Execute(ctx, tc.Name, tc.Arguments)
			if result.IsError {
				errMsg := result.ForLLM
				if len(errMsg) > 200 {
					errMsg = errMsg[:200] + "..."
				}
				ec.Log().Warn("tool error", "tool", tc.Name, "error", errMsg)
			}

			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    result.ForLLM,
				ToolCallID: tc.ID,
			})
		}
	}

	return &StepResult{
		Success:    false,
		Output:     nil,
		Error:      "tool loop exceeded",
		ToolCalls:  records,
		TokenUsage: tokenUsage(&usage),
	}
}

func tokenUsage(u *providers.Usage) *TokenUsage {
	if u == nil || (u.PromptTokens == 0 && u.CompletionTokens == 0) {
		return nil
	}
	return &TokenUsage{Input: u.PromptTokens, Output: u.CompletionTokens}
}
