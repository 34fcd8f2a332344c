package tools

import (
	"context"
	"strings"
	"testing"
)

type stubTool struct {
	name string
	fn   func(ctx context.Context, args map[string]interface{}) *Result
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (t *stubTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	return t.fn(ctx, args)
}

func TestDefsFor(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"beta", "alpha", "gamma"} {
		r.Register(&stubTool{name: name, fn: func(context.Context, map[string]interface{}) *Result {
			return NewResult("ok")
		}})
	}

	all := r.DefsFor([]string{"*"})
	if len(all) != 3 || all[0].Function.Name != "alpha" {
		t.Errorf("wildcard defs = %v", all)
	}

	subset := r.DefsFor([]string{"beta", "no_such", "gamma"})
	if len(subset) != 2 {
		t.Errorf("subset defs = %d, unknown names must be skipped", len(subset))
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), "ghost", nil)
	if !res.IsError || !strings.Contains(res.ForLLM, "unknown tool: ghost") {
		t.Errorf("result = %+v", res)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "bomb", fn: func(context.Context, map[string]interface{}) *Result {
		panic("kaboom")
	}})
	res := r.Execute(context.Background(), "bomb", nil)
	if !res.IsError || !strings.Contains(res.ForLLM, "kaboom") {
		t.Errorf("result = %+v", res)
	}
}

func TestContextValues(t *testing.T) {
	ctx := WithPhone(context.Background(), "+1555")
	ctx = WithChannel(ctx, "whatsapp")
	if PhoneFromCtx(ctx) != "+1555" || ChannelFromCtx(ctx) != "whatsapp" {
		t.Error("context round-trip failed")
	}
	if UserTimezoneFromCtx(context.Background()) != "UTC" {
		t.Error("timezone should default to UTC")
	}
}
