package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/classifier"
	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/pipeline"
	"github.com/kochnev/domovoy/internal/service"
)

// Transcriber converts a downloadable voice file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, fileURL string) (string, error)
}

// MessageHandler processes everything that is not a command: free text
// and voice notes go through the classification pipeline, unless the
// user is mid-wizard, and inline keyboard callbacks drive the
// notification setup.
type MessageHandler struct {
	svc         *service.Service
	pipe        *pipeline.Pipeline
	transcriber Transcriber
	logger      *logrus.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(svc *service.Service, pipe *pipeline.Pipeline, transcriber Transcriber, logger *logrus.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, pipe: pipe, transcriber: transcriber, logger: logger}
}

// HandleMessage routes one inbound text or voice message.
func (h *MessageHandler) HandleMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message) error {
	ctx := context.Background()

	user, err := h.svc.EnsureUser(ctx, message.Chat.ID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	text := message.Text
	if message.Voice != nil {
		text, err = h.transcribeVoice(ctx, bot, message)
		if err != nil {
			h.logger.WithError(err).Error("Voice transcription failed")
			reply := tgbotapi.NewMessage(message.Chat.ID, classifier.ApologyReply)
			bot.Send(reply)
			return nil
		}
	}

	if user.Metadata[stateWizard] != "" {
		handled, err := h.handleWizardInput(ctx, bot, user, text)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	result := h.pipe.Process(ctx, message.Chat.ID, text)
	reply := tgbotapi.NewMessage(message.Chat.ID, result.Text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	bot.Send(reply)
	return nil
}

func (h *MessageHandler) transcribeVoice(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message) (string, error) {
	fileURL, err := bot.GetFileDirectURL(message.Voice.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve voice file: %w", err)
	}
	text, err := h.transcriber.Transcribe(ctx, fileURL)
	if err != nil {
		return "", err
	}
	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"length":  len(text),
	}).Info("Transcribed voice message")
	return text, nil
}

// handleWizardInput consumes text the active wizard is waiting for.
// Returns false when the wizard is open but not expecting input, so the
// text falls through to the pipeline.
func (h *MessageHandler) handleWizardInput(ctx context.Context, bot *tgbotapi.BotAPI, user *models.User, text string) (bool, error) {
	switch user.Metadata[stateWizard] {
	case wizardNotifyProject:
		project := strings.TrimSpace(text)
		if project == "" {
			return true, nil
		}
		if err := h.svc.SetUserState(ctx, user, map[string]string{
			stateWizard: wizardNotifyMenu, stateProject: project,
		}); err != nil {
			return true, err
		}
		return true, sendNotifyMenu(bot, user.ChatID, project)

	case wizardNotifyMenu:
		input := user.Metadata[stateInput]
		if input == "" {
			return false, nil
		}
		return true, h.applyTargets(ctx, bot, user, input, text)
	}
	return false, nil
}

// applyTargets stores a comma-separated target list into the slot the
// user picked on the menu.
func (h *MessageHandler) applyTargets(ctx context.Context, bot *tgbotapi.BotAPI, user *models.User, input, text string) error {
	ids, ok := parseIDList(text)
	if !ok {
		msg := tgbotapi.NewMessage(user.ChatID, "❌ Не понял. Отправьте ID через запятую, например: -1001234567890, 987654321")
		bot.Send(msg)
		return nil
	}

	project := user.Metadata[stateProject]
	setting, err := h.getOrNewSetting(ctx, user.ChatID, project)
	if err != nil {
		return err
	}

	switch input {
	case "kind:transaction":
		setting.TransactionChats = ids
	case "kind:task":
		setting.TaskChats = ids
	case "kind:idea":
		setting.IdeaChats = ids
	case "channels":
		setting.Channels = ids
	default:
		return fmt.Errorf("unknown wizard input slot %q", input)
	}

	if _, err := h.svc.Settings.Upsert(ctx, setting); err != nil {
		return fmt.Errorf("save notification setting: %w", err)
	}
	if err := h.svc.SetUserState(ctx, user, map[string]string{stateInput: ""}); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(user.ChatID, "✅ Сохранил.")
	bot.Send(msg)
	return sendNotifyMenu(bot, user.ChatID, project)
}

// HandleCallback drives the notification setup keyboard.
func (h *MessageHandler) HandleCallback(bot *tgbotapi.BotAPI, callbackQuery *tgbotapi.CallbackQuery) error {
	data := callbackQuery.Data
	if !strings.HasPrefix(data, "nw:") || callbackQuery.Message == nil {
		return nil
	}

	ctx := context.Background()
	chatID := callbackQuery.Message.Chat.ID

	user, err := h.svc.EnsureUser(ctx, chatID, callbackQuery.From.UserName, callbackQuery.From.FirstName, callbackQuery.From.LastName)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	project := user.Metadata[stateProject]
	if project == "" {
		msg := tgbotapi.NewMessage(chatID, "Настройка не начата. Используйте /notify")
		bot.Send(msg)
		return nil
	}

	action := strings.TrimPrefix(data, "nw:")
	switch {
	case strings.HasPrefix(action, "kind:"):
		if err := h.svc.SetUserState(ctx, user, map[string]string{stateInput: action}); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, "Отправьте ID чатов через запятую:")
		bot.Send(msg)

	case action == "channels":
		if err := h.svc.SetUserState(ctx, user, map[string]string{stateInput: "channels"}); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, "Отправьте ID каналов через запятую:")
		bot.Send(msg)

	case action == "personal":
		setting, err := h.getOrNewSetting(ctx, chatID, project)
		if err != nil {
			return err
		}
		setting.NotifyPersonal = !setting.NotifyPersonal
		if _, err := h.svc.Settings.Upsert(ctx, setting); err != nil {
			return fmt.Errorf("toggle personal notifications: %w", err)
		}
		state := "выключены"
		if setting.NotifyPersonal {
			state = "включены"
		}
		msg := tgbotapi.NewMessage(chatID, "🔔 Личные уведомления "+state)
		bot.Send(msg)

	case action == "done":
		if err := h.svc.SetUserState(ctx, user, map[string]string{
			stateWizard: "", stateProject: "", stateInput: "",
		}); err != nil {
			return err
		}
		setting, err := h.svc.Settings.Get(ctx, chatID, project)
		if err != nil {
			return err
		}
		text := fmt.Sprintf("✅ Настройка проекта «%s» завершена.", project)
		if setting != nil {
			text = formatSetting(setting)
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		bot.Send(msg)
	}

	return nil
}

func (h *MessageHandler) getOrNewSetting(ctx context.Context, chatID int64, project string) (*models.NotificationSetting, error) {
	setting, err := h.svc.Settings.Get(ctx, chatID, project)
	if err != nil {
		return nil, fmt.Errorf("load notification setting: %w", err)
	}
	if setting == nil {
		setting = &models.NotificationSetting{
			OwnerChatID:    chatID,
			Project:        project,
			NotifyPersonal: true,
		}
	}
	return setting, nil
}

func parseIDList(text string) ([]int64, bool) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n'
	})
	if len(fields) == 0 {
		return nil, false
	}
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
