package handlers

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/service"
)

// ReportHandler handles the /report command
type ReportHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewReportHandler(svc *service.Service, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

func (h *ReportHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	report, err := h.svc.MonthlyReport(ctx, message.Chat.ID, time.Now())
	if err != nil {
		return fmt.Errorf("monthly report: %w", err)
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, report)
	msg.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(msg)
	return nil
}
