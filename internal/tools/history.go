package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hermes-assist/hermes/internal/store"
)

// ConversationHistoryTool lets an agent look further back than the
// orchestrator's conversation window.
type ConversationHistoryTool struct {
	conversations store.ConversationStore
}

func NewConversationHistoryTool(conversations store.ConversationStore) *ConversationHistoryTool {
	return &ConversationHistoryTool{conversations: conversations}
}

func (t *ConversationHistoryTool) Name() string { return "get_conversation_history" }

func (t *ConversationHistoryTool) Description() string {
	return "Fetch earlier messages from this conversation, oldest first. Use when the user refers to something said before the recent context."
}

func (t *ConversationHistoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Max messages to return (default 20, max 100)",
			},
		},
	}
}

func (t *ConversationHistoryTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	phone := PhoneFromCtx(ctx)
	if phone == "" {
		return ErrorResult("no user in context")
	}

	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	if limit > 100 {
		limit = 100
	}

	msgs, err := t.conversations.GetHistory(ctx, phone, store.HistoryOpts{Limit: limit})
	if err != nil {
		return ErrorResult("failed to load history: " + err.Error()).WithError(err)
	}
	if len(msgs) == 0 {
		return NewResult("No conversation history.")
	}

	var b strings.Builder
	for _, m := range msgs {
		role := "User"
		if m.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.CreatedAt.Format("2006-01-02 15:04"), role, m.Content)
	}
	return NewResult(strings.TrimRight(b.String(), "\n"))
}
