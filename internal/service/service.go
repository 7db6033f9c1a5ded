package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
)

// Service is the central business logic layer that holds all
// repositories and provides high-level methods for the application.
type Service struct {
	db       *sql.DB
	logger   *logrus.Logger
	Users    repository.UserRepository
	Records  repository.RecordRepository
	Settings repository.NotificationRepository
	Aliases  repository.AliasRepository
	Outbox   repository.OutboxRepository
}

// New creates a new Service with all required dependencies.
func New(db *sql.DB, logger *logrus.Logger,
	users repository.UserRepository,
	records repository.RecordRepository,
	settings repository.NotificationRepository,
	aliases repository.AliasRepository,
	outbox repository.OutboxRepository,
) *Service {
	return &Service{
		db: db, logger: logger,
		Users: users, Records: records, Settings: settings,
		Aliases: aliases, Outbox: outbox,
	}
}

// EnsureUser retrieves an existing user by chat ID, or creates a new
// one if not found. If the user already exists but their profile
// information has changed, it updates the record.
func (s *Service) EnsureUser(ctx context.Context, chatID int64, username, firstName, lastName string) (*models.User, error) {
	username = strings.TrimSpace(username)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	user, err := s.Users.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (chat_id=%d): %w", chatID, err)
	}
	if user == nil {
		user = &models.User{
			ChatID:    chatID,
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
			Tier:      models.TierFree,
			Metadata:  models.Metadata{},
		}
		user, err = s.Users.Create(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to create user (chat_id=%d): %w", chatID, err)
		}
		s.logger.Infof("Created new user: %s (chat_id=%d)", user.DisplayName(), chatID)
		return user, nil
	}

	needsUpdate := false
	if user.Username != username {
		user.Username = username
		needsUpdate = true
	}
	if user.FirstName != firstName {
		user.FirstName = firstName
		needsUpdate = true
	}
	if user.LastName != lastName {
		user.LastName = lastName
		needsUpdate = true
	}

	if needsUpdate {
		user, err = s.Users.Update(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to update user %d: %w", user.ID, err)
		}
	}

	return user, nil
}

// SetUserState stores a wizard step marker in the user's metadata bag.
// Passing empty values clears the keys, ending the wizard.
func (s *Service) SetUserState(ctx context.Context, user *models.User, state map[string]string) error {
	if user.Metadata == nil {
		user.Metadata = models.Metadata{}
	}
	for k, v := range state {
		if v == "" {
			delete(user.Metadata, k)
		} else {
			user.Metadata[k] = v
		}
	}
	if _, err := s.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to persist user state: %w", err)
	}
	return nil
}

// SaveRecord persists a record submitted outside the Telegram pipeline
// (the dashboard API) and enqueues the same post-commit hooks. Hook
// enqueue failures are logged only: the save has already committed.
func (s *Service) SaveRecord(ctx context.Context, rec *models.Record) (*models.Record, error) {
	if !rec.Kind.Valid() {
		return nil, fmt.Errorf("invalid record kind %q", rec.Kind)
	}
	if rec.ChatID == 0 {
		return nil, fmt.Errorf("record owner chat id is required")
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}

	saved, err := s.Records.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	if saved.Kind.Notifiable() {
		for _, hook := range []models.HookKind{models.HookNotify, models.HookMirror} {
			if _, err := s.Outbox.Enqueue(ctx, &models.OutboxEntry{RecordID: saved.ID, Hook: hook}); err != nil {
				s.logger.WithError(err).Errorf("Failed to enqueue %s hook for record %s", hook, saved.ID)
			}
		}
	}
	return saved, nil
}

// MonthlyReport sums this month's transactions for the owner and
// formats an income/expense summary.
func (s *Service) MonthlyReport(ctx context.Context, chatID int64, now time.Time) (string, error) {
	kind := models.KindTransaction
	records, err := s.Records.ListByOwner(ctx, chatID, repository.RecordFilters{Kind: &kind, Limit: 1000})
	if err != nil {
		return "", fmt.Errorf("failed to list transactions: %w", err)
	}

	income := decimal.Zero
	expense := decimal.Zero
	byProject := map[string]decimal.Decimal{}
	count := 0

	for _, rec := range records {
		if rec.Date.Year() != now.Year() || rec.Date.Month() != now.Month() {
			continue
		}
		amount, err := rec.AmountValue()
		if err != nil {
			s.logger.WithField("record_id", rec.ID).WithError(err).Warn("Skipping transaction with unparseable amount")
			continue
		}
		count++
		if amount.IsNegative() {
			expense = expense.Add(amount.Neg())
		} else {
			income = income.Add(amount)
		}
		byProject[rec.Project] = byProject[rec.Project].Add(amount)
	}

	if count == 0 {
		return "📊 За этот месяц транзакций нет.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Отчёт за %s*\n\n", now.Format("01.2006"))
	fmt.Fprintf(&sb, "📈 Доходы: %s\n", income.String())
	fmt.Fprintf(&sb, "📉 Расходы: %s\n", expense.String())
	fmt.Fprintf(&sb, "💰 Итог: %s\n\n", income.Sub(expense).String())
	sb.WriteString("*По проектам:*\n")
	for project, total := range byProject {
		if project == "" {
			project = "без проекта"
		}
		fmt.Fprintf(&sb, "• %s: %s\n", project, total.String())
	}
	return sb.String(), nil
}
