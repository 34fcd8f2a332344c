package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hermes-assist/hermes/internal/store"
)

// UserConfigStore implements store.UserConfigStore on SQLite.
type UserConfigStore struct {
	db *sql.DB
}

func NewUserConfigStore(db *sql.DB) *UserConfigStore {
	return &UserConfigStore{db: db}
}

func (s *UserConfigStore) Get(ctx context.Context, phone string) (*store.UserConfig, error) {
	var cfg store.UserConfig
	var watcher int
	err := s.db.QueryRowContext(ctx,
		`SELECT phone, name, timezone, email_watcher, watcher_checkpoint, created_at, updated_at
		 FROM users WHERE phone = ?`, phone,
	).Scan(&cfg.Phone, &cfg.Name, &cfg.Timezone, &watcher, &cfg.WatcherCheckpoint, &cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	cfg.EmailWatcher = watcher != 0
	return &cfg, nil
}

func (s *UserConfigStore) Set(ctx context.Context, cfg *store.UserConfig) error {
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	watcher := 0
	if cfg.EmailWatcher {
		watcher = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (phone, name, timezone, email_watcher, watcher_checkpoint, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (phone) DO UPDATE SET
		   name = excluded.name,
		   timezone = excluded.timezone,
		   email_watcher = excluded.email_watcher,
		   watcher_checkpoint = excluded.watcher_checkpoint,
		   updated_at = excluded.updated_at`,
		cfg.Phone, cfg.Name, cfg.Timezone, watcher, cfg.WatcherCheckpoint, cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *UserConfigStore) GetEmailWatcherUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phone FROM users WHERE email_watcher = 1 ORDER BY phone`)
	if err != nil {
		return nil, fmt.Errorf("query watcher users: %w", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}

func (s *UserConfigStore) UpdateWatcherCheckpoint(ctx context.Context, phone, token string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET watcher_checkpoint = ?, updated_at = ? WHERE phone = ?`,
		token, time.Now().UTC(), phone,
	)
	if err != nil {
		return fmt.Errorf("update checkpoint: %w", err)
	}
	return nil
}
