// Package notify delivers saved-record notifications to the chats and
// channels configured per owner and project.
package notify

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
)

// Sender delivers one message to one chat or channel.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Fanout looks up notification settings for a saved record and relays a
// formatted message to every configured target. Targets are independent:
// one bad target never blocks the others.
type Fanout struct {
	settings repository.NotificationRepository
	sender   Sender
	logger   *logrus.Logger
}

// New creates a Fanout.
func New(settings repository.NotificationRepository, sender Sender, logger *logrus.Logger) *Fanout {
	return &Fanout{settings: settings, sender: sender, logger: logger}
}

// Notify fans the record out to all configured targets. A missing
// setting is a no-op. Per-target failures are logged and collected; the
// combined error lets the outbox dispatcher retry the delivery.
func (f *Fanout) Notify(ctx context.Context, rec *models.Record) error {
	setting, err := f.settings.Get(ctx, rec.ChatID, rec.Project)
	if err != nil {
		return fmt.Errorf("lookup notification setting: %w", err)
	}
	if setting == nil {
		return nil
	}

	targets := f.targetsFor(setting, rec)
	if len(targets) == 0 {
		return nil
	}

	text := FormatMessage(rec)

	var merr *multierror.Error
	for _, target := range targets {
		if err := f.sender.SendMessage(target, text); err != nil {
			f.logger.WithFields(logrus.Fields{
				"record_id": rec.ID,
				"target":    target,
			}).WithError(err).Error("Failed to deliver notification")
			merr = multierror.Append(merr, fmt.Errorf("target %d: %w", target, err))
		}
	}
	return merr.ErrorOrNil()
}

// targetsFor collects the deduplicated delivery targets: the per-kind
// extra chats, the channels, and the owner's personal chat when enabled
// and distinct from the record's own chat.
func (f *Fanout) targetsFor(setting *models.NotificationSetting, rec *models.Record) []int64 {
	seen := map[int64]bool{rec.ChatID: true}
	var targets []int64

	add := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}

	for _, id := range setting.ChatsFor(rec.Kind) {
		add(id)
	}
	for _, id := range setting.Channels {
		add(id)
	}
	if setting.NotifyPersonal {
		add(setting.OwnerChatID)
	}
	return targets
}

// FormatMessage composes the kind-specific notification text.
func FormatMessage(rec *models.Record) string {
	switch rec.Kind {
	case models.KindTransaction:
		direction := "Расход"
		if !rec.IsExpense() {
			direction = "Доход"
		}
		text := fmt.Sprintf("💰 %s: %s %s\n📁 %s\n📝 %s",
			direction, rec.Amount, rec.Currency, rec.Project, rec.Description)
		if rec.MoneySource != "" {
			text += "\n💳 " + rec.MoneySource
		}
		return text
	case models.KindTask:
		text := fmt.Sprintf("📋 Новая задача: %s\n📁 %s", rec.Description, rec.Project)
		if rec.Person != "" {
			text += "\n👤 " + rec.Person
		}
		if rec.Priority != "" {
			text += "\n❗ Приоритет: " + rec.Priority
		}
		if rec.RepeatType != "" {
			text += "\n🔄 " + rec.RepeatType
		}
		return text
	case models.KindIdea:
		text := fmt.Sprintf("💡 Идея: %s\n📁 %s", rec.Description, rec.Project)
		if rec.Link != "" {
			text += "\n🔗 " + rec.Link
		}
		return text
	}
	return fmt.Sprintf("📌 %s (%s)", rec.Description, rec.Project)
}
