package store

import "time"

// Message is one persisted conversation message.
type Message struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Channel   string    `json:"channel"` // "sms" or "whatsapp"
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryOpts filters a conversation history query.
type HistoryOpts struct {
	Limit int       // max messages, newest kept (0 = store default)
	Since time.Time // zero = no age filter
}

// UserConfig is the per-user profile and feature flags.
type UserConfig struct {
	Phone             string    `json:"phone"`
	Name              string    `json:"name,omitempty"`
	Timezone          string    `json:"timezone,omitempty"` // IANA, e.g. "America/Los_Angeles"
	EmailWatcher      bool      `json:"emailWatcher,omitempty"`
	WatcherCheckpoint string    `json:"watcherCheckpoint,omitempty"` // provider sync token
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Credential holds an OAuth credential blob for one user+provider pair.
type Credential struct {
	Phone     string    `json:"phone"`
	Provider  string    `json:"provider"` // "google", "microsoft", ...
	Data      []byte    `json:"data"`     // opaque token JSON
	ExpiresAt time.Time `json:"expiresAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MemoryFact is one remembered fact about a user.
type MemoryFact struct {
	ID         string    `json:"id"`
	Phone      string    `json:"phone"`
	Fact       string    `json:"fact"`
	Confidence float64   `json:"confidence"` // 0..1, planner ranks by this
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ScheduledJob is a saved cron or one-shot job fired by the scheduler.
type ScheduledJob struct {
	ID             string    `json:"id"`
	Phone          string    `json:"phone"`
	UserRequest    string    `json:"userRequest,omitempty"` // original user phrasing, for context
	Prompt         string    `json:"prompt"`                // task given to the execution surface
	CronExpression string    `json:"cronExpression"`        // five-field cron, or "@once@{rfc3339}"
	Timezone       string    `json:"timezone"`              // IANA
	Channel        string    `json:"channel"`               // delivery channel, "sms" default
	NextRunAt      int64     `json:"nextRunAt"`             // unix seconds
	LastRunAt      int64     `json:"lastRunAt,omitempty"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// JobPatch is a partial update applied to a scheduled job after a fire.
type JobPatch struct {
	NextRunAt *int64
	LastRunAt *int64
	Enabled   *bool
}
