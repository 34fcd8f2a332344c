package tools

import (
	"context"

	"github.com/hermes-assist/hermes/internal/store"
)

// Tool execution context keys.
// Per-request values are injected into context by the execution surface and
// read by individual tools during Execute(), keeping tool instances immutable
// and safe for concurrent use.

type toolContextKey string

const (
	ctxPhone      toolContextKey = "tool_phone"
	ctxChannel    toolContextKey = "tool_channel"
	ctxUserConfig toolContextKey = "tool_user_config"
)

func WithPhone(ctx context.Context, phone string) context.Context {
	return context.WithValue(ctx, ctxPhone, phone)
}

func PhoneFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxPhone).(string)
	return v
}

func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, ctxChannel, channel)
}

func ChannelFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxChannel).(string)
	return v
}

func WithUserConfig(ctx context.Context, cfg *store.UserConfig) context.Context {
	return context.WithValue(ctx, ctxUserConfig, cfg)
}

func UserConfigFromCtx(ctx context.Context) *store.UserConfig {
	v, _ := ctx.Value(ctxUserConfig).(*store.UserConfig)
	return v
}

// UserTimezoneFromCtx returns the user's IANA timezone, or "UTC".
func UserTimezoneFromCtx(ctx context.Context) string {
	if cfg := UserConfigFromCtx(ctx); cfg != nil && cfg.Timezone != "" {
		return cfg.Timezone
	}
	return "UTC"
}
