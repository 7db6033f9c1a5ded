package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
)

type aliasRepository struct {
	db *sql.DB
}

func NewAliasRepository(db *sql.DB) repository.AliasRepository {
	return &aliasRepository{db: db}
}

func (r *aliasRepository) ListByOwner(ctx context.Context, ownerChatID int64) ([]*models.PersonAlias, error) {
	query := `SELECT id, owner_chat_id, name, target_chat_id, created_at
		FROM person_aliases WHERE owner_chat_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, ownerChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*models.PersonAlias
	for rows.Next() {
		a := &models.PersonAlias{}
		if err := rows.Scan(&a.ID, &a.OwnerChatID, &a.Name, &a.TargetChatID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

func (r *aliasRepository) Upsert(ctx context.Context, alias *models.PersonAlias) (*models.PersonAlias, error) {
	query := `INSERT INTO person_aliases (owner_chat_id, name, target_chat_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_chat_id, name) DO UPDATE SET target_chat_id = EXCLUDED.target_chat_id
		RETURNING id, created_at`
	alias.Name = strings.ToLower(strings.TrimSpace(alias.Name))
	err := r.db.QueryRowContext(ctx, query,
		alias.OwnerChatID, alias.Name, alias.TargetChatID, time.Now(),
	).Scan(&alias.ID, &alias.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert alias: %w", err)
	}
	return alias, nil
}

func (r *aliasRepository) Delete(ctx context.Context, ownerChatID int64, name string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM person_aliases WHERE owner_chat_id = $1 AND name = $2`,
		ownerChatID, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("alias %q not found", name)
	}
	return nil
}
