package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (chat_id, username, first_name, last_name, tier, spreadsheet_id, mirror_enabled, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Tier == "" {
		user.Tier = models.TierFree
	}
	if user.Metadata == nil {
		user.Metadata = models.Metadata{}
	}
	err := r.db.QueryRowContext(ctx, query,
		user.ChatID, user.Username, user.FirstName, user.LastName, user.Tier,
		user.SpreadsheetID, user.MirrorEnabled, user.Metadata, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	query := `SELECT id, chat_id, username, first_name, last_name, tier, spreadsheet_id, mirror_enabled, metadata, created_at, updated_at
		FROM users WHERE chat_id = $1`
	return r.getOne(ctx, query, chatID)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, chat_id, username, first_name, last_name, tier, spreadsheet_id, mirror_enabled, metadata, created_at, updated_at
		FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.ChatID, &user.Username, &user.FirstName, &user.LastName,
		&user.Tier, &user.SpreadsheetID, &user.MirrorEnabled, &user.Metadata,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query := `UPDATE users SET username=$2, first_name=$3, last_name=$4, tier=$5, spreadsheet_id=$6, mirror_enabled=$7, metadata=$8, updated_at=$9
		WHERE id=$1 RETURNING updated_at`
	user.UpdatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.LastName, user.Tier,
		user.SpreadsheetID, user.MirrorEnabled, user.Metadata, user.UpdatedAt,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
