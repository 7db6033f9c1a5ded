package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/service"
)

// MirrorHandler handles the /mirror command: linking or unlinking the
// owner's Google spreadsheet copy.
type MirrorHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewMirrorHandler(svc *service.Service, logger *logrus.Logger) *MirrorHandler {
	return &MirrorHandler{svc: svc, logger: logger}
}

func (h *MirrorHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user, err := h.svc.EnsureUser(ctx, message.Chat.ID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	if len(args) == 0 {
		text := "📄 Зеркалирование выключено. Включить: /mirror <id таблицы>"
		if user.MirrorEnabled && user.SpreadsheetID != "" {
			text = fmt.Sprintf("📄 Записи копируются в таблицу `%s`. Выключить: /mirror off", user.SpreadsheetID)
		}
		msg := tgbotapi.NewMessage(message.Chat.ID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
		return nil
	}

	if args[0] == "off" {
		user.MirrorEnabled = false
	} else {
		user.SpreadsheetID = args[0]
		user.MirrorEnabled = true
	}

	if _, err := h.svc.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("update mirror preference: %w", err)
	}

	text := "🗑 Зеркалирование выключено"
	if user.MirrorEnabled {
		text = fmt.Sprintf("✅ Новые записи будут копироваться в таблицу `%s`", user.SpreadsheetID)
	}
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}
