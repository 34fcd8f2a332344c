package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hermes-assist/hermes/internal/store"
)

// SaveMemoryTool stores a fact about the user.
type SaveMemoryTool struct {
	memory store.MemoryStore
}

func NewSaveMemoryTool(memory store.MemoryStore) *SaveMemoryTool {
	return &SaveMemoryTool{memory: memory}
}

func (t *SaveMemoryTool) Name() string { return "save_memory" }

func (t *SaveMemoryTool) Description() string {
	return "Remember a fact about the user for future conversations (preferences, names, recurring plans)."
}

func (t *SaveMemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"fact": map[string]interface{}{
				"type":        "string",
				"description": "The fact to remember, phrased as a standalone sentence",
			},
			"confidence": map[string]interface{}{
				"type":        "number",
				"description": "How certain the fact is, 0 to 1 (default 0.8)",
			},
		},
		"required": []string{"fact"},
	}
}

func (t *SaveMemoryTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	fact, _ := args["fact"].(string)
	if strings.TrimSpace(fact) == "" {
		return ErrorResult("fact is required")
	}
	confidence := 0.8
	if c, ok := args["confidence"].(float64); ok && c > 0 && c <= 1 {
		confidence = c
	}

	phone := PhoneFromCtx(ctx)
	if phone == "" {
		return ErrorResult("no user in context")
	}

	err := t.memory.AddFact(ctx, &store.MemoryFact{
		Phone:      phone,
		Fact:       fact,
		Confidence: confidence,
	})
	if err != nil {
		return ErrorResult("failed to save memory: " + err.Error()).WithError(err)
	}
	return NewResult("Remembered: " + fact)
}

// SearchMemoryTool looks up remembered facts by keyword.
type SearchMemoryTool struct {
	memory store.MemoryStore
}

func NewSearchMemoryTool(memory store.MemoryStore) *SearchMemoryTool {
	return &SearchMemoryTool{memory: memory}
}

func (t *SearchMemoryTool) Name() string { return "search_memory" }

func (t *SearchMemoryTool) Description() string {
	return "Search facts previously remembered about the user. Empty query lists all facts."
}

func (t *SearchMemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Keywords to match against stored facts",
			},
		},
	}
}

func (t *SearchMemoryTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	phone := PhoneFromCtx(ctx)
	if phone == "" {
		return ErrorResult("no user in context")
	}

	facts, err := t.memory.GetFacts(ctx, phone)
	if err != nil {
		return ErrorResult("failed to load memory: " + err.Error()).WithError(err)
	}

	query, _ := args["query"].(string)
	terms := strings.Fields(strings.ToLower(query))

	var lines []string
	for _, f := range facts {
		if matchesAllTerms(f.Fact, terms) {
			lines = append(lines, fmt.Sprintf("- [%s] %s", f.ID, f.Fact))
		}
	}
	if len(lines) == 0 {
		return NewResult("No matching facts found.")
	}
	return NewResult(strings.Join(lines, "\n"))
}

func matchesAllTerms(fact string, terms []string) bool {
	lower := strings.ToLower(fact)
	for _, term := range terms {
		if !strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// DeleteMemoryTool forgets a fact by id.
type DeleteMemoryTool struct {
	memory store.MemoryStore
}

func NewDeleteMemoryTool(memory store.MemoryStore) *DeleteMemoryTool {
	return &DeleteMemoryTool{memory: memory}
}

func (t *DeleteMemoryTool) Name() string { return "delete_memory" }

func (t *DeleteMemoryTool) Description() string {
	return "Forget a previously remembered fact by its id (from search_memory)."
}

func (t *DeleteMemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "The fact id to delete",
			},
		},
		"required": []string{"id"},
	}
}

func (t *DeleteMemoryTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	id, _ := args["id"].(string)
	if id == "" {
		return ErrorResult("id is required")
	}
	if err := t.memory.DeleteFact(ctx, id); err != nil {
		return ErrorResult("failed to delete memory: " + err.Error()).WithError(err)
	}
	return NewResult("Forgotten.")
}
