// Package gateway is the inbound entry point: it persists the exchange,
// builds the planning context, runs the orchestrator, and applies per-channel
// reply policy before handing the reply back to the transport.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/hermes-assist/hermes/internal/bus"
	"github.com/hermes-assist/hermes/internal/convo"
	"github.com/hermes-assist/hermes/internal/orchestrator"
	"github.com/hermes-assist/hermes/internal/store"
)

// smsMaxLen is the single-segment SMS budget. Longer replies are replaced
// by a canned acknowledgment rather than split across segments.
const smsMaxLen = 160

const smsOverflowReply = "Done! The full details were too long for a text; ask me for specifics."

// Orchestrate runs one plan. Narrowed so tests can script outcomes.
type Orchestrate interface {
	Run(ctx context.Context, pc *orchestrator.PlanContext) *orchestrator.Result
}

// Assistant handles inbound messages end to end.
type Assistant struct {
	orch   Orchestrate
	stores *store.Stores
	window convo.WindowConfig
	clock  store.Clock
}

// Config assembles an Assistant.
type Config struct {
	Orchestrator Orchestrate
	Stores       *store.Stores
	Window       convo.WindowConfig
	Clock        store.Clock
}

func NewAssistant(cfg Config) *Assistant {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Assistant{
		orch:   cfg.Orchestrator,
		stores: cfg.Stores,
		window: cfg.Window,
		clock:  cfg.Clock,
	}
}

// HandleRequest processes one inbound message and returns the reply body.
// Store failures around the edges are logged, not fatal: a reply still goes
// out even if history could not be persisted.
func (a *Assistant) HandleRequest(ctx context.Context, msg bus.InboundMessage) string {
	now := a.clock()
	log := slog.With("phone", msg.Phone, "channel", msg.Channel)

	if err := a.stores.Conversations.AddMessage(ctx, store.Message{
		Phone:     msg.Phone,
		Role:      "user",
		Content:   msg.Content,
		Channel:   msg.Channel,
		CreatedAt: now,
	}); err != nil {
		log.Error("persist inbound failed", "error", err)
	}

	user, err := a.stores.Users.Get(ctx, msg.Phone)
	if err != nil {
		log.Warn("user lookup failed", "error", err)
	}

	history, err := a.stores.Conversations.GetHistory(ctx, msg.Phone, store.HistoryOpts{Limit: 50})
	if err != nil {
		log.Warn("history lookup failed", "error", err)
	}
	windowed := convo.Window(history, now, a.window)

	facts, err := a.stores.Memory.GetFacts(ctx, msg.Phone)
	if err != nil {
		log.Warn("facts lookup failed", "error", err)
	}

	result := a.orch.Run(ctx, &orchestrator.PlanContext{
		UserMessage:  msg.Content,
		History:      convo.Format(windowed),
		Facts:        facts,
		User:         user,
		Phone:        msg.Phone,
		Channel:      msg.Channel,
		MediaContext: msg.MediaContext,
		Logger:       log,
	})

	reply := applyChannelPolicy(result.Response, msg.Channel)

	if err := a.stores.Conversations.AddMessage(ctx, store.Message{
		Phone:     msg.Phone,
		Role:      "assistant",
		Content:   reply,
		Channel:   msg.Channel,
		CreatedAt: a.clock(),
	}); err != nil {
		log.Error("persist reply failed", "error", err)
	}

	log.Info("request handled", "success", result.Success, "plan_version", result.Plan.Version)
	return reply
}

// applyChannelPolicy enforces per-channel reply constraints. SMS bodies over
// one segment are replaced; other channels pass through.
func applyChannelPolicy(reply, channel string) string {
	if channel == bus.ChannelSMS && len(reply) > smsMaxLen {
		return smsOverflowReply
	}
	return reply
}
