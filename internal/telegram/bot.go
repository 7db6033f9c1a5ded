package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const pollTimeout = 60

// Bot owns the Telegram connection and feeds inbound updates to the
// router. It also satisfies the fan-out Sender and the API webhook
// receiver interfaces.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
	router *Router
}

// NewBot authenticates against the Telegram API and returns a Bot with
// an empty router.
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:    api,
		logger: logger,
		router: NewRouter(logger),
	}, nil
}

// SetWebhook registers the public HTTPS endpoint with Telegram. Updates
// then arrive through HandleWebhook instead of polling.
func (b *Bot) SetWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	b.logger.Infof("Webhook set to %s", webhookURL)
	return nil
}

// Start runs long polling until the context is cancelled. Any previously
// registered webhook is removed first, since Telegram refuses polling
// while one is active.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

// HandleWebhook accepts one update delivered by the HTTP server.
func (b *Bot) HandleWebhook(update tgbotapi.Update) {
	go b.handleUpdate(update)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	// A panicking handler must not take down the process.
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	switch {
	case update.Message != nil:
		b.router.HandleMessage(b.api, update.Message)
	case update.CallbackQuery != nil:
		b.router.HandleCallbackQuery(b.api, update.CallbackQuery)
	}
}

// SendMessage delivers markdown text to a chat or channel.
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// RegisterCommand registers a command handler on the router.
func (b *Bot) RegisterCommand(command string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
}

// SetFallback registers the handler for non-command messages and
// callback queries.
func (b *Bot) SetFallback(handler UpdateHandler) {
	b.router.SetFallback(handler)
}
