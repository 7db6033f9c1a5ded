package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
)

type outboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, entry *models.OutboxEntry) (*models.OutboxEntry, error) {
	query := `INSERT INTO outbox (id, record_id, hook, status, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, '', $5, $5)
		RETURNING created_at, updated_at`
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.Status = models.OutboxPending
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.RecordID, entry.Hook, entry.Status, time.Now(),
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue outbox entry: %w", err)
	}
	return entry, nil
}

func (r *outboxRepository) DuePending(ctx context.Context, maxAttempts, limit int) ([]*models.OutboxEntry, error) {
	query := `SELECT id, record_id, hook, status, attempts, last_error, created_at, updated_at
		FROM outbox WHERE status = $1 AND attempts < $2
		ORDER BY created_at LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, models.OutboxPending, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var entries []*models.OutboxEntry
	for rows.Next() {
		e := &models.OutboxEntry{}
		if err := rows.Scan(&e.ID, &e.RecordID, &e.Hook, &e.Status, &e.Attempts, &e.LastError, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *outboxRepository) MarkDone(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET status = $2, updated_at = $3 WHERE id = $1`,
		id, models.OutboxDone, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry done: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, attempts int, lastError string, terminal bool) error {
	status := models.OutboxPending
	if terminal {
		status = models.OutboxFailed
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET status = $2, attempts = $3, last_error = $4, updated_at = $5 WHERE id = $1`,
		id, status, attempts, lastError, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry failed: %w", err)
	}
	return nil
}
