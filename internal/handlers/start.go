package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/service"
)

// StartHandler handles the /start command
type StartHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(svc *service.Service, logger *logrus.Logger) *StartHandler {
	return &StartHandler{svc: svc, logger: logger}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	user, err := h.svc.EnsureUser(ctx, message.Chat.ID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	welcomeText := `🏠 *Домовой — семейный ассистент*

Просто напишите или наговорите, что случилось, а я разберусь:

• «потратил 1500 на продукты» → транзакция
• «напомни через 3 часа позвонить маме» → напоминание
• «надо починить кран до 15 числа» → задача
• «идея: копилка для отпуска» → идея

*Команды:*
/report — отчёт по транзакциям за месяц
/list — последние записи
/notify — настройка уведомлений
/alias — кому пересылать задачи
/mirror — зеркалирование в таблицу
/help — справка`

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": user.ID,
	}).Info("Sent start message")

	return nil
}
