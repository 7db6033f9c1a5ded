package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

// NewHelpHandler creates a new help command handler
func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

// Handle processes the /help command
func (h *HelpHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	helpText := `📖 *Как пользоваться*

Пишите свободным текстом или голосом — бот сам определит тип записи.

*Транзакции* — «купил билеты за 3200», «пришла зарплата +80000»
*Задачи* — «попроси Машу забрать посылку», «полить цветы еженедельно»
*Идеи* — «идея: сделать общий список подарков»
*Напоминания* — «напомни через 2 часа выключить духовку»

*Команды:*
/report — доходы и расходы за текущий месяц
/list [транзакции|задачи|идеи|напоминания] — последние записи
/notify — уведомления в другие чаты и каналы
/alias <имя> <chat\_id> — куда пересылать задачи для человека
/alias del <имя> — удалить привязку
/mirror <id таблицы> — включить копию в Google-таблицу
/mirror off — выключить копию`

	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}
	return nil
}
