// Package pipeline wires the per-message flow: classify, normalize,
// persist, then enqueue post-commit hooks. Each stage recovers its own
// failures; the pipeline always produces a user-facing reply.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/classifier"
	"github.com/kochnev/domovoy/internal/metrics"
	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/normalizer"
	"github.com/kochnev/domovoy/internal/repository"
)

// SaveFailedReply is returned when the record could not be persisted.
const SaveFailedReply = "❌ Не удалось сохранить запись. Попробуйте ещё раз позже."

// RecordClassifier is the classification stage contract.
type RecordClassifier interface {
	Classify(ctx context.Context, text string, chatID int64) *classifier.Result
}

// Reply is the pipeline outcome shown to the submitting user.
type Reply struct {
	Text   string
	Record *models.Record
	Saved  bool
}

// Pipeline processes one inbound message at a time. Post-commit side
// effects (fan-out, mirroring) are recorded in the outbox and handled
// by the dispatcher, so they never block or fail the reply.
type Pipeline struct {
	classifier      RecordClassifier
	records         repository.RecordRepository
	aliases         repository.AliasRepository
	outbox          repository.OutboxRepository
	defaultCurrency string
	logger          *logrus.Logger
	now             func() time.Time
}

// New creates a Pipeline.
func New(
	cls RecordClassifier,
	records repository.RecordRepository,
	aliases repository.AliasRepository,
	outbox repository.OutboxRepository,
	defaultCurrency string,
	logger *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		classifier:      cls,
		records:         records,
		aliases:         aliases,
		outbox:          outbox,
		defaultCurrency: defaultCurrency,
		logger:          logger,
		now:             time.Now,
	}
}

// Process runs the full flow for one message and returns the reply.
func (p *Pipeline) Process(ctx context.Context, chatID int64, text string) *Reply {
	result := p.classifier.Classify(ctx, text, chatID)
	if !result.IsRecord() {
		metrics.MessagesProcessed.WithLabelValues("", "text").Inc()
		return &Reply{Text: result.Text}
	}

	rec := result.Record
	p.normalize(ctx, rec, chatID)

	saved, err := p.records.Create(ctx, rec)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"kind":    rec.Kind,
		}).WithError(err).Error("Failed to save record")
		metrics.MessagesProcessed.WithLabelValues(string(rec.Kind), "save_failed").Inc()
		return &Reply{Text: SaveFailedReply}
	}

	if saved.Kind.Notifiable() {
		p.enqueueHooks(ctx, saved)
	}

	metrics.MessagesProcessed.WithLabelValues(string(saved.Kind), "saved").Inc()
	return &Reply{Text: confirmation(saved), Record: saved, Saved: true}
}

func (p *Pipeline) normalize(ctx context.Context, rec *models.Record, chatID int64) {
	aliasMap := map[string]int64{}
	if aliases, err := p.aliases.ListByOwner(ctx, chatID); err != nil {
		// Alias lookup is best-effort; the task just stays with the sender.
		p.logger.WithError(err).Warn("Failed to load person aliases")
	} else {
		aliasMap = normalizer.AliasMap(aliases)
	}

	normalizer.Normalize(rec, chatID, p.now(), aliasMap)

	if rec.Kind == models.KindTransaction && rec.Currency == "" {
		rec.Currency = p.defaultCurrency
	}
}

// enqueueHooks records the post-commit side effects. Enqueue failures
// are logged and swallowed: the save already succeeded and the user has
// their confirmation.
func (p *Pipeline) enqueueHooks(ctx context.Context, rec *models.Record) {
	for _, hook := range []models.HookKind{models.HookNotify, models.HookMirror} {
		entry := &models.OutboxEntry{RecordID: rec.ID, Hook: hook}
		if _, err := p.outbox.Enqueue(ctx, entry); err != nil {
			p.logger.WithFields(logrus.Fields{
				"record_id": rec.ID,
				"hook":      hook,
			}).WithError(err).Error("Failed to enqueue outbox entry")
		}
	}
}

func confirmation(rec *models.Record) string {
	switch rec.Kind {
	case models.KindTransaction:
		return fmt.Sprintf("✅ Записал транзакцию: %s %s — %s (%s)",
			rec.Amount, rec.Currency, rec.Description, rec.Project)
	case models.KindTask:
		return fmt.Sprintf("📋 Добавил задачу: %s (%s)", rec.Description, rec.Project)
	case models.KindIdea:
		return fmt.Sprintf("💡 Сохранил идею: %s (%s)", rec.Description, rec.Project)
	case models.KindReminder:
		if rec.RemindAt != nil {
			return fmt.Sprintf("⏰ Напомню: %s — %s",
				rec.Description, rec.RemindAt.Format("02.01.2006 15:04"))
		}
		return fmt.Sprintf("⏰ Напоминание сохранено: %s", rec.Description)
	}
	return "✅ Записал."
}
