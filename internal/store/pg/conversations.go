package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hermes-assist/hermes/internal/store"
)

const defaultHistoryLimit = 50

// ConversationStore implements store.ConversationStore on Postgres.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

func (s *ConversationStore) AddMessage(ctx context.Context, msg store.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, phone, role, content, channel, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.Phone, msg.Role, msg.Content, msg.Channel, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *ConversationStore) GetHistory(ctx context.Context, phone string, opts store.HistoryOpts) ([]store.Message, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `SELECT id, phone, role, content, channel, created_at FROM messages WHERE phone = $1`
	args := []interface{}{phone}
	if !opts.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args)+1)
		args = append(args, opts.Since)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var msgs []store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.Phone, &m.Role, &m.Content, &m.Channel, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
