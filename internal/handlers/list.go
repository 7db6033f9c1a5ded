package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
	"github.com/kochnev/domovoy/internal/service"
)

const listLimit = 15

// ListHandler handles the /list command
type ListHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewListHandler(svc *service.Service, logger *logrus.Logger) *ListHandler {
	return &ListHandler{svc: svc, logger: logger}
}

func (h *ListHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	filters := repository.RecordFilters{Limit: listLimit}
	if len(args) > 0 {
		if kind, ok := kindFromArg(args[0]); ok {
			filters.Kind = &kind
		} else {
			msg := tgbotapi.NewMessage(message.Chat.ID,
				"Использование: /list [транзакции|задачи|идеи|напоминания]")
			bot.Send(msg)
			return nil
		}
	}

	records, err := h.svc.Records.ListByOwner(ctx, message.Chat.ID, filters)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	if len(records) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID, "📭 Записей пока нет.")
		bot.Send(msg)
		return nil
	}

	var sb strings.Builder
	sb.WriteString("🗂 *Последние записи:*\n\n")
	for _, rec := range records {
		sb.WriteString(formatListLine(rec))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}

func kindFromArg(arg string) (models.Kind, bool) {
	switch strings.ToLower(arg) {
	case "транзакции", "transactions":
		return models.KindTransaction, true
	case "задачи", "tasks":
		return models.KindTask, true
	case "идеи", "ideas":
		return models.KindIdea, true
	case "напоминания", "reminders":
		return models.KindReminder, true
	}
	return "", false
}

func formatListLine(rec *models.Record) string {
	switch rec.Kind {
	case models.KindTransaction:
		return fmt.Sprintf("💰 %s: %s %s — %s\n", rec.Date.Format("02.01"), rec.Amount, rec.Currency, rec.Description)
	case models.KindTask:
		return fmt.Sprintf("📋 %s: %s\n", rec.Date.Format("02.01"), rec.Description)
	case models.KindIdea:
		return fmt.Sprintf("💡 %s: %s\n", rec.Date.Format("02.01"), rec.Description)
	case models.KindReminder:
		when := rec.Date.Format("02.01")
		if rec.RemindAt != nil {
			when = rec.RemindAt.Format("02.01 15:04")
		}
		return fmt.Sprintf("⏰ %s: %s\n", when, rec.Description)
	}
	return fmt.Sprintf("📌 %s\n", rec.Description)
}
