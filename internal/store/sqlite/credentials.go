package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hermes-assist/hermes/internal/store"
)

// CredentialStore implements store.CredentialStore on SQLite.
type CredentialStore struct {
	db *sql.DB
}

func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) Get(ctx context.Context, phone, provider string) (*store.Credential, error) {
	var cred store.Credential
	var expires sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT phone, provider, data, expires_at, updated_at FROM credentials
		 WHERE phone = ? AND provider = ?`, phone, provider,
	).Scan(&cred.Phone, &cred.Provider, &cred.Data, &expires, &cred.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}
	if expires.Valid {
		cred.ExpiresAt = expires.Time
	}
	return &cred, nil
}

func (s *CredentialStore) Set(ctx context.Context, cred *store.Credential) error {
	cred.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (phone, provider, data, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (phone, provider) DO UPDATE SET
		   data = excluded.data,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		cred.Phone, cred.Provider, cred.Data, cred.ExpiresAt, cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context, phone, provider string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE phone = ? AND provider = ?`, phone, provider)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}
