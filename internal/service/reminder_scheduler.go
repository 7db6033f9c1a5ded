package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/kochnev/domovoy/internal/metrics"
	"github.com/kochnev/domovoy/internal/normalizer"
)

// ReminderCallback is a function that sends a reminder message to a chat.
type ReminderCallback func(chatID int64, text string)

// Scheduler drives the periodic work: the due-reminder sweep and the
// outbox dispatch, both on a minute cadence.
type Scheduler struct {
	cron       *cron.Cron
	svc        *Service
	dispatcher *OutboxDispatcher
	callback   ReminderCallback
}

// NewScheduler creates a Scheduler.
func NewScheduler(svc *Service, dispatcher *OutboxDispatcher, callback ReminderCallback) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		svc:        svc,
		dispatcher: dispatcher,
		callback:   callback,
	}
}

// Start registers the jobs and blocks until the context is cancelled,
// so it should be launched in a separate goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("* * * * *", func() {
		s.svc.ProcessDueReminders(ctx, s.callback)
	}); err != nil {
		return fmt.Errorf("add reminder job: %w", err)
	}

	if _, err := s.cron.AddFunc("* * * * *", func() {
		s.dispatcher.Sweep(ctx)
	}); err != nil {
		return fmt.Errorf("add outbox job: %w", err)
	}

	s.cron.Start()
	s.svc.logger.Info("Scheduler started")

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.svc.logger.Info("Scheduler stopped")
	return nil
}

// ProcessDueReminders fetches due reminder records and fires the
// callback for each one. One-shot reminders are marked sent; repeating
// reminders advance to their next time until repeat_until passes.
func (s *Service) ProcessDueReminders(ctx context.Context, callback ReminderCallback) {
	reminders, err := s.Records.DueReminders(ctx)
	if err != nil {
		s.logger.Errorf("Failed to get due reminders: %v", err)
		return
	}

	for _, rec := range reminders {
		callback(rec.ChatID, fmt.Sprintf("⏰ *Напоминание*\n%s", rec.Description))
		metrics.RemindersFired.Inc()

		if rec.RepeatType != "" && rec.RemindAt != nil {
			next := normalizer.NextOccurrence(*rec.RemindAt, rec.RepeatType)
			if rec.RepeatUntil == nil || !next.After(*rec.RepeatUntil) {
				rec.RemindAt = &next
			} else {
				rec.RemindSent = true
			}
		} else {
			rec.RemindSent = true
		}

		if _, err := s.Records.Update(ctx, rec); err != nil {
			s.logger.Errorf("Failed to update reminder %s: %v", rec.ID, err)
		}
	}
}
