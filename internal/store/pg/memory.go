package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hermes-assist/hermes/internal/store"
)

// MemoryStore implements store.MemoryStore on Postgres.
type MemoryStore struct {
	db *sql.DB
}

func NewMemoryStore(db *sql.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) GetFacts(ctx context.Context, phone string) ([]store.MemoryFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phone, fact, confidence, created_at, updated_at FROM memory_facts
		 WHERE phone = $1 ORDER BY confidence DESC, updated_at DESC`, phone)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	var facts []store.MemoryFact
	for rows.Next() {
		var f store.MemoryFact
		if err := rows.Scan(&f.ID, &f.Phone, &f.Fact, &f.Confidence, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (s *MemoryStore) AddFact(ctx context.Context, fact *store.MemoryFact) error {
	if fact.ID == "" {
		fact.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	fact.CreatedAt = now
	fact.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_facts (id, phone, fact, confidence, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fact.ID, fact.Phone, fact.Fact, fact.Confidence, fact.CreatedAt, fact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	return nil
}

func (s *MemoryStore) UpdateFact(ctx context.Context, id, text string, confidence float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memory_facts SET fact = $1, confidence = $2, updated_at = $3 WHERE id = $4`,
		text, confidence, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update fact: %w", err)
	}
	return nil
}

func (s *MemoryStore) DeleteFact(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memory_facts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fact: %w", err)
	}
	return nil
}
