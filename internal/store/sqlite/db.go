// Package sqlite implements the store interfaces on a local SQLite database.
// This is the standalone-mode backend: schema is applied at open time.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hermes-assist/hermes/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	phone      TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	channel    TEXT NOT NULL DEFAULT 'sms',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_phone_created ON messages(phone, created_at);

CREATE TABLE IF NOT EXISTS users (
	phone              TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	timezone           TEXT NOT NULL DEFAULT '',
	email_watcher      INTEGER NOT NULL DEFAULT 0,
	watcher_checkpoint TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMP NOT NULL,
	updated_at         TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS credentials (
	phone      TEXT NOT NULL,
	provider   TEXT NOT NULL,
	data       BLOB NOT NULL,
	expires_at TIMESTAMP,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (phone, provider)
);

CREATE TABLE IF NOT EXISTS memory_facts (
	id         TEXT PRIMARY KEY,
	phone      TEXT NOT NULL,
	fact       TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0.5,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_phone ON memory_facts(phone);

CREATE TABLE IF NOT EXISTS scheduled_jobs (
	id              TEXT PRIMARY KEY,
	phone           TEXT NOT NULL,
	user_request    TEXT NOT NULL DEFAULT '',
	prompt          TEXT NOT NULL,
	cron_expression TEXT NOT NULL,
	timezone        TEXT NOT NULL DEFAULT 'UTC',
	channel         TEXT NOT NULL DEFAULT 'sms',
	next_run_at     INTEGER NOT NULL,
	last_run_at     INTEGER NOT NULL DEFAULT 0,
	enabled         INTEGER NOT NULL DEFAULT 1,
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_due ON scheduled_jobs(enabled, next_run_at);
`

// Open opens (creating if needed) the SQLite database and applies the schema.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// NewStores creates all stores backed by SQLite (standalone mode).
func NewStores(path string) (*store.Stores, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	s := &store.Stores{
		Conversations: NewConversationStore(db),
		Users:         NewUserConfigStore(db),
		Credentials:   NewCredentialStore(db),
		Memory:        NewMemoryStore(db),
		Jobs:          NewJobStore(db),
	}
	s.SetCloser(db.Close)
	return s, nil
}
