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

type recordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) repository.RecordRepository {
	return &recordRepository{db: db}
}

const recordColumns = `id, kind, chat_id, project, description, amount, currency, money_source,
	person, status, priority, date, repeat_type, repeat_until, remind_at, remind_sent,
	link, file_name, created_at`

func (r *recordRepository) Create(ctx context.Context, rec *models.Record) (*models.Record, error) {
	query := `INSERT INTO records (id, kind, chat_id, project, description, amount, currency, money_source,
			person, status, priority, date, repeat_type, repeat_until, remind_at, remind_sent, link, file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at`
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.Kind, rec.ChatID, rec.Project, rec.Description, rec.Amount, rec.Currency,
		rec.MoneySource, rec.Person, rec.Status, rec.Priority, rec.Date, rec.RepeatType,
		rec.RepeatUntil, rec.RemindAt, rec.RemindSent, rec.Link, rec.FileName, rec.CreatedAt,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	return rec, nil
}

func (r *recordRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`
	rec := &models.Record{}
	err := scanRecord(r.db.QueryRowContext(ctx, query, id), rec)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

func (r *recordRepository) ListByOwner(ctx context.Context, chatID int64, filters repository.RecordFilters) ([]*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE chat_id = $1`
	args := []interface{}{chatID}
	argIdx := 2

	if filters.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)
		args = append(args, *filters.Kind)
		argIdx++
	}
	if filters.Project != nil {
		query += fmt.Sprintf(" AND project = $%d", argIdx)
		args = append(args, *filters.Project)
		argIdx++
	}

	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		argIdx++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		rec := &models.Record{}
		if err := scanRecord(rows, rec); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *recordRepository) DueReminders(ctx context.Context) ([]*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records
		WHERE kind = $1 AND remind_sent = false AND remind_at IS NOT NULL AND remind_at <= NOW()
		ORDER BY remind_at`
	rows, err := r.db.QueryContext(ctx, query, models.KindReminder)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		rec := &models.Record{}
		if err := scanRecord(rows, rec); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *recordRepository) Update(ctx context.Context, rec *models.Record) (*models.Record, error) {
	query := `UPDATE records SET project=$2, description=$3, amount=$4, status=$5, priority=$6,
		repeat_type=$7, repeat_until=$8, remind_at=$9, remind_sent=$10
		WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Project, rec.Description, rec.Amount, rec.Status, rec.Priority,
		rec.RepeatType, rec.RepeatUntil, rec.RemindAt, rec.RemindSent,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, fmt.Errorf("record %s not found", rec.ID)
	}
	return rec, nil
}

func (r *recordRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("record %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner, rec *models.Record) error {
	return row.Scan(
		&rec.ID, &rec.Kind, &rec.ChatID, &rec.Project, &rec.Description, &rec.Amount,
		&rec.Currency, &rec.MoneySource, &rec.Person, &rec.Status, &rec.Priority,
		&rec.Date, &rec.RepeatType, &rec.RepeatUntil, &rec.RemindAt, &rec.RemindSent,
		&rec.Link, &rec.FileName, &rec.CreatedAt,
	)
}
