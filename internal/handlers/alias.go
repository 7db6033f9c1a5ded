package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/service"
)

// AliasHandler handles the /alias command: listing, adding and removing
// person-to-chat mappings used when a task names someone.
type AliasHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewAliasHandler(svc *service.Service, logger *logrus.Logger) *AliasHandler {
	return &AliasHandler{svc: svc, logger: logger}
}

func (h *AliasHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	switch {
	case len(args) == 0:
		return h.list(ctx, bot, message.Chat.ID)
	case args[0] == "del" && len(args) >= 2:
		return h.delete(ctx, bot, message.Chat.ID, args[1])
	case len(args) >= 2:
		return h.add(ctx, bot, message.Chat.ID, args[0], args[1])
	}

	msg := tgbotapi.NewMessage(message.Chat.ID,
		"Использование: /alias <имя> <chat_id>, /alias del <имя> или /alias")
	bot.Send(msg)
	return nil
}

func (h *AliasHandler) list(ctx context.Context, bot *tgbotapi.BotAPI, chatID int64) error {
	aliases, err := h.svc.Aliases.ListByOwner(ctx, chatID)
	if err != nil {
		return fmt.Errorf("list aliases: %w", err)
	}

	if len(aliases) == 0 {
		msg := tgbotapi.NewMessage(chatID, "👤 Привязок нет. Добавьте: /alias <имя> <chat_id>")
		bot.Send(msg)
		return nil
	}

	var sb strings.Builder
	sb.WriteString("👤 *Привязки имён:*\n\n")
	for _, a := range aliases {
		sb.WriteString(fmt.Sprintf("• %s → `%d`\n", a.Name, a.TargetChatID))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}

func (h *AliasHandler) add(ctx context.Context, bot *tgbotapi.BotAPI, chatID int64, name, rawTarget string) error {
	target, err := strconv.ParseInt(rawTarget, 10, 64)
	if err != nil {
		msg := tgbotapi.NewMessage(chatID, "❌ chat_id должен быть числом")
		bot.Send(msg)
		return nil
	}

	alias := &models.PersonAlias{OwnerChatID: chatID, Name: name, TargetChatID: target}
	if _, err := h.svc.Aliases.Upsert(ctx, alias); err != nil {
		return fmt.Errorf("upsert alias: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Задачи для «%s» теперь уходят в чат %d", alias.Name, target))
	bot.Send(msg)
	return nil
}

func (h *AliasHandler) delete(ctx context.Context, bot *tgbotapi.BotAPI, chatID int64, name string) error {
	if err := h.svc.Aliases.Delete(ctx, chatID, name); err != nil {
		msg := tgbotapi.NewMessage(chatID, "❌ Такой привязки нет")
		bot.Send(msg)
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🗑 Привязка «%s» удалена", strings.ToLower(name)))
	bot.Send(msg)
	return nil
}
