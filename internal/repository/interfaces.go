package repository

import (
	"context"

	"github.com/kochnev/domovoy/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// RecordRepository defines the interface for record data operations
type RecordRepository interface {
	Create(ctx context.Context, rec *models.Record) (*models.Record, error)
	GetByID(ctx context.Context, id string) (*models.Record, error)
	ListByOwner(ctx context.Context, chatID int64, filters RecordFilters) ([]*models.Record, error)
	DueReminders(ctx context.Context) ([]*models.Record, error)
	Update(ctx context.Context, rec *models.Record) (*models.Record, error)
	Delete(ctx context.Context, id string) error
}

// NotificationRepository defines the interface for notification settings
type NotificationRepository interface {
	Get(ctx context.Context, ownerChatID int64, project string) (*models.NotificationSetting, error)
	ListByOwner(ctx context.Context, ownerChatID int64) ([]*models.NotificationSetting, error)
	Upsert(ctx context.Context, setting *models.NotificationSetting) (*models.NotificationSetting, error)
}

// AliasRepository defines the interface for person alias lookups
type AliasRepository interface {
	ListByOwner(ctx context.Context, ownerChatID int64) ([]*models.PersonAlias, error)
	Upsert(ctx context.Context, alias *models.PersonAlias) (*models.PersonAlias, error)
	Delete(ctx context.Context, ownerChatID int64, name string) error
}

// OutboxRepository defines the interface for post-commit hook entries
type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *models.OutboxEntry) (*models.OutboxEntry, error)
	DuePending(ctx context.Context, maxAttempts, limit int) ([]*models.OutboxEntry, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string, terminal bool) error
}

// RecordFilters represents filters for querying records
type RecordFilters struct {
	Kind    *models.Kind
	Project *string
	Limit   int
	Offset  int
}
