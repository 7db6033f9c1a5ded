package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/kochnev/domovoy/internal/metrics"
	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
	"github.com/kochnev/domovoy/pkg/logger"
)

const (
	// Entries are retried until this many attempts, then dead-lettered
	// with status failed.
	maxHookAttempts = 5
	sweepBatchSize  = 50
)

// Notifier runs the fan-out hook for a saved record.
type Notifier interface {
	Notify(ctx context.Context, rec *models.Record) error
}

// Mirrorer runs the spreadsheet mirror hook for a saved record.
type Mirrorer interface {
	MirrorRecord(ctx context.Context, rec *models.Record) error
}

// OutboxDispatcher sweeps pending outbox entries and executes their
// hooks. Failures are recorded on the entry and retried on later
// sweeps; nothing here ever surfaces to the submitting user.
type OutboxDispatcher struct {
	records   repository.RecordRepository
	outbox    repository.OutboxRepository
	notifier  Notifier
	mirror    Mirrorer
	logger    *logrus.Entry
	running   atomic.Bool
	Processed atomic.Int64
}

// NewOutboxDispatcher creates an OutboxDispatcher.
func NewOutboxDispatcher(
	records repository.RecordRepository,
	outbox repository.OutboxRepository,
	notifier Notifier,
	mirror Mirrorer,
	log *logrus.Logger,
) *OutboxDispatcher {
	return &OutboxDispatcher{
		records:  records,
		outbox:   outbox,
		notifier: notifier,
		mirror:   mirror,
		logger:   logger.WithComponent(log, "outbox"),
	}
}

// Sweep processes one batch of pending entries. Overlapping sweeps are
// skipped: a slow external API must not stack up concurrent deliveries.
func (d *OutboxDispatcher) Sweep(ctx context.Context) {
	if !d.running.CompareAndSwap(false, true) {
		return
	}
	defer d.running.Store(false)

	entries, err := d.outbox.DuePending(ctx, maxHookAttempts, sweepBatchSize)
	if err != nil {
		d.logger.WithError(err).Error("Failed to fetch pending outbox entries")
		return
	}

	for _, entry := range entries {
		d.dispatch(ctx, entry)
		d.Processed.Inc()
	}
}

func (d *OutboxDispatcher) dispatch(ctx context.Context, entry *models.OutboxEntry) {
	rec, err := d.records.GetByID(ctx, entry.RecordID)
	if err != nil {
		d.fail(ctx, entry, err)
		return
	}
	if rec == nil {
		// Record deleted out from under the hook; nothing left to do.
		if err := d.outbox.MarkDone(ctx, entry.ID); err != nil {
			d.logger.WithError(err).Error("Failed to close orphaned outbox entry")
		}
		return
	}

	switch entry.Hook {
	case models.HookNotify:
		err = d.notifier.Notify(ctx, rec)
	case models.HookMirror:
		err = d.mirror.MirrorRecord(ctx, rec)
	default:
		d.logger.WithField("hook", entry.Hook).Error("Unknown outbox hook")
		err = nil
	}

	if err != nil {
		d.fail(ctx, entry, err)
		return
	}

	if err := d.outbox.MarkDone(ctx, entry.ID); err != nil {
		d.logger.WithError(err).Error("Failed to mark outbox entry done")
		return
	}
	metrics.OutboxDispatched.WithLabelValues(string(entry.Hook), "done").Inc()
}

func (d *OutboxDispatcher) fail(ctx context.Context, entry *models.OutboxEntry, cause error) {
	attempts := entry.Attempts + 1
	terminal := attempts >= maxHookAttempts

	outcome := "retry"
	if terminal {
		outcome = "failed"
	}
	metrics.OutboxDispatched.WithLabelValues(string(entry.Hook), outcome).Inc()

	d.logger.WithFields(logrus.Fields{
		"entry_id":  entry.ID,
		"record_id": entry.RecordID,
		"hook":      entry.Hook,
		"attempts":  attempts,
		"terminal":  terminal,
	}).WithError(cause).Warn("Outbox hook failed")

	if err := d.outbox.MarkFailed(ctx, entry.ID, attempts, cause.Error(), terminal); err != nil {
		d.logger.WithError(err).Error("Failed to record outbox failure")
	}
}
