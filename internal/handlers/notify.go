package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/service"
)

// Wizard state keys kept in the user's metadata bag. The bag is
// persisted, so a half-finished setup survives restarts.
const (
	stateWizard  = "wizard"
	stateProject = "wizard_project"
	stateInput   = "wizard_input"

	wizardNotifyProject = "notify_project"
	wizardNotifyMenu    = "notify"
)

// NotifyHandler handles the /notify command and starts the notification
// setup wizard.
type NotifyHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewNotifyHandler(svc *service.Service, logger *logrus.Logger) *NotifyHandler {
	return &NotifyHandler{svc: svc, logger: logger}
}

func (h *NotifyHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user, err := h.svc.EnsureUser(ctx, message.Chat.ID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	if len(args) > 0 {
		project := strings.Join(args, " ")
		if err := h.svc.SetUserState(ctx, user, map[string]string{
			stateWizard: wizardNotifyMenu, stateProject: project, stateInput: "",
		}); err != nil {
			return err
		}
		return sendNotifyMenu(bot, message.Chat.ID, project)
	}

	if err := h.svc.SetUserState(ctx, user, map[string]string{
		stateWizard: wizardNotifyProject, stateProject: "", stateInput: "",
	}); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "📁 Для какого проекта настроить уведомления?")
	bot.Send(msg)
	return nil
}

func sendNotifyMenu(bot *tgbotapi.BotAPI, chatID int64, project string) error {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Транзакции", "nw:kind:transaction"),
			tgbotapi.NewInlineKeyboardButtonData("📋 Задачи", "nw:kind:task"),
			tgbotapi.NewInlineKeyboardButtonData("💡 Идеи", "nw:kind:idea"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📣 Каналы", "nw:channels"),
			tgbotapi.NewInlineKeyboardButtonData("🔔 Личные вкл/выкл", "nw:personal"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Готово", "nw:done"),
		),
	)

	msg := tgbotapi.NewMessage(chatID,
		fmt.Sprintf("⚙️ Уведомления для проекта «%s». Что настроить?", project))
	msg.ReplyMarkup = keyboard
	_, err := bot.Send(msg)
	return err
}

func formatSetting(s *models.NotificationSetting) string {
	personal := "выкл"
	if s.NotifyPersonal {
		personal = "вкл"
	}
	return fmt.Sprintf(
		"⚙️ *Проект «%s»*\n🔔 Личные: %s\n💰 Чаты транзакций: %s\n📋 Чаты задач: %s\n💡 Чаты идей: %s\n📣 Каналы: %s",
		s.Project, personal,
		formatIDList(s.TransactionChats), formatIDList(s.TaskChats),
		formatIDList(s.IdeaChats), formatIDList(s.Channels),
	)
}

func formatIDList(ids []int64) string {
	if len(ids) == 0 {
		return "—"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
