package store

import (
	"context"
	"time"
)

// ConversationStore persists per-user message history.
type ConversationStore interface {
	AddMessage(ctx context.Context, msg Message) error
	GetHistory(ctx context.Context, phone string, opts HistoryOpts) ([]Message, error)
}

// UserConfigStore persists per-user profile and watcher state.
type UserConfigStore interface {
	Get(ctx context.Context, phone string) (*UserConfig, error)
	Set(ctx context.Context, cfg *UserConfig) error
	// GetEmailWatcherUsers lists phones with the watcher flag enabled.
	GetEmailWatcherUsers(ctx context.Context) ([]string, error)
	UpdateWatcherCheckpoint(ctx context.Context, phone, token string) error
}

// CredentialStore persists provider credentials.
type CredentialStore interface {
	Get(ctx context.Context, phone, provider string) (*Credential, error)
	Set(ctx context.Context, cred *Credential) error
	Delete(ctx context.Context, phone, provider string) error
}

// MemoryStore persists remembered user facts.
type MemoryStore interface {
	GetFacts(ctx context.Context, phone string) ([]MemoryFact, error)
	AddFact(ctx context.Context, fact *MemoryFact) error
	UpdateFact(ctx context.Context, id, text string, confidence float64) error
	DeleteFact(ctx context.Context, id string) error
}

// JobStore persists scheduled jobs.
type JobStore interface {
	CreateJob(ctx context.Context, job *ScheduledJob) error
	GetJob(ctx context.Context, id string) (*ScheduledJob, error)
	// GetDueJobs returns enabled jobs with nextRunAt <= nowSeconds, ascending.
	GetDueJobs(ctx context.Context, nowSeconds int64) ([]ScheduledJob, error)
	ListJobs(ctx context.Context, phone string) ([]ScheduledJob, error)
	UpdateJob(ctx context.Context, id string, patch JobPatch) error
	DeleteJob(ctx context.Context, id string) error
}

// Stores is the top-level container for all storage backends.
type Stores struct {
	Conversations ConversationStore
	Users         UserConfigStore
	Credentials   CredentialStore
	Memory        MemoryStore
	Jobs          JobStore

	closer func() error
}

// SetCloser registers the backend close function.
func (s *Stores) SetCloser(fn func() error) { s.closer = fn }

// Close releases the underlying backend.
func (s *Stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Config selects and configures a storage backend.
type Config struct {
	// Mode is "sqlite" (default, standalone) or "postgres" (managed).
	Mode string
	// SQLitePath is the database file for sqlite mode.
	SQLitePath string
	// PostgresDSN is the connection string for postgres mode (env only).
	PostgresDSN string
}

// Clock abstracts time for tests.
type Clock func() time.Time
