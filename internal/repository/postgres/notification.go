package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Get(ctx context.Context, ownerChatID int64, project string) (*models.NotificationSetting, error) {
	query := `SELECT id, owner_chat_id, project, notify_personal, transaction_chats, task_chats, idea_chats, channels, created_at, updated_at
		FROM notification_settings WHERE owner_chat_id = $1 AND project = $2`
	s := &models.NotificationSetting{}
	err := r.db.QueryRowContext(ctx, query, ownerChatID, project).Scan(
		&s.ID, &s.OwnerChatID, &s.Project, &s.NotifyPersonal,
		(*pq.Int64Array)(&s.TransactionChats), (*pq.Int64Array)(&s.TaskChats),
		(*pq.Int64Array)(&s.IdeaChats), (*pq.Int64Array)(&s.Channels),
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification setting: %w", err)
	}
	return s, nil
}

func (r *notificationRepository) ListByOwner(ctx context.Context, ownerChatID int64) ([]*models.NotificationSetting, error) {
	query := `SELECT id, owner_chat_id, project, notify_personal, transaction_chats, task_chats, idea_chats, channels, created_at, updated_at
		FROM notification_settings WHERE owner_chat_id = $1 ORDER BY project`
	rows, err := r.db.QueryContext(ctx, query, ownerChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification settings: %w", err)
	}
	defer rows.Close()

	var settings []*models.NotificationSetting
	for rows.Next() {
		s := &models.NotificationSetting{}
		if err := rows.Scan(
			&s.ID, &s.OwnerChatID, &s.Project, &s.NotifyPersonal,
			(*pq.Int64Array)(&s.TransactionChats), (*pq.Int64Array)(&s.TaskChats),
			(*pq.Int64Array)(&s.IdeaChats), (*pq.Int64Array)(&s.Channels),
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification setting: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *notificationRepository) Upsert(ctx context.Context, setting *models.NotificationSetting) (*models.NotificationSetting, error) {
	query := `INSERT INTO notification_settings
			(owner_chat_id, project, notify_personal, transaction_chats, task_chats, idea_chats, channels, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (owner_chat_id, project) DO UPDATE SET
			notify_personal = EXCLUDED.notify_personal,
			transaction_chats = EXCLUDED.transaction_chats,
			task_chats = EXCLUDED.task_chats,
			idea_chats = EXCLUDED.idea_chats,
			channels = EXCLUDED.channels,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		setting.OwnerChatID, setting.Project, setting.NotifyPersonal,
		pq.Int64Array(setting.TransactionChats), pq.Int64Array(setting.TaskChats),
		pq.Int64Array(setting.IdeaChats), pq.Int64Array(setting.Channels), now,
	).Scan(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert notification setting: %w", err)
	}
	return setting, nil
}
