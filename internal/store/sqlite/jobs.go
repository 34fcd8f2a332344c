package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hermes-assist/hermes/internal/store"
)

// JobStore implements store.JobStore on SQLite.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

const jobColumns = `id, phone, user_request, prompt, cron_expression, timezone, channel,
	next_run_at, last_run_at, enabled, created_at, updated_at`

func scanJob(row interface{ Scan(...interface{}) error }) (*store.ScheduledJob, error) {
	var j store.ScheduledJob
	var enabled int
	err := row.Scan(&j.ID, &j.Phone, &j.UserRequest, &j.Prompt, &j.CronExpression,
		&j.Timezone, &j.Channel, &j.NextRunAt, &j.LastRunAt, &enabled, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Enabled = enabled != 0
	return &j, nil
}

func (s *JobStore) CreateJob(ctx context.Context, job *store.ScheduledJob) error {
	if job.ID == "" {
		job.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Channel == "" {
		job.Channel = "sms"
	}

	enabled := 0
	if job.Enabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_jobs (`+jobColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Phone, job.UserRequest, job.Prompt, job.CronExpression,
		job.Timezone, job.Channel, job.NextRunAt, job.LastRunAt, enabled, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *JobStore) GetJob(ctx context.Context, id string) (*store.ScheduledJob, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM scheduled_jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	return job, nil
}

func (s *JobStore) GetDueJobs(ctx context.Context, nowSeconds int64) ([]store.ScheduledJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM scheduled_jobs
		 WHERE enabled = 1 AND next_run_at <= ? ORDER BY next_run_at ASC`, nowSeconds)
	if err != nil {
		return nil, fmt.Errorf("query due jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *JobStore) ListJobs(ctx context.Context, phone string) ([]store.ScheduledJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM scheduled_jobs WHERE phone = ? ORDER BY created_at ASC`, phone)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows *sql.Rows) ([]store.ScheduledJob, error) {
	var jobs []store.ScheduledJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *JobStore) UpdateJob(ctx context.Context, id string, patch store.JobPatch) error {
	query := `UPDATE scheduled_jobs SET updated_at = ?`
	args := []interface{}{time.Now().UTC()}

	if patch.NextRunAt != nil {
		query += `, next_run_at = ?`
		args = append(args, *patch.NextRunAt)
	}
	if patch.LastRunAt != nil {
		query += `, last_run_at = ?`
		args = append(args, *patch.LastRunAt)
	}
	if patch.Enabled != nil {
		enabled := 0
		if *patch.Enabled {
			enabled = 1
		}
		query += `, enabled = ?`
		args = append(args, enabled)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (s *JobStore) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}
