package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MessagesProcessed counts pipeline results by record kind and outcome.
// Outcome is one of: saved, save_failed, text, classify_failed.
var MessagesProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "domovoy",
		Name:      "messages_processed_total",
		Help:      "Inbound messages processed by the classification pipeline.",
	},
	[]string{"kind", "outcome"},
)

// OutboxDispatched counts outbox sweep results by hook and outcome
// (done, retry, failed).
var OutboxDispatched = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "domovoy",
		Name:      "outbox_dispatched_total",
		Help:      "Outbox entries dispatched by the post-commit hook dispatcher.",
	},
	[]string{"hook", "outcome"},
)

// RemindersFired counts reminder messages sent by the scheduler.
var RemindersFired = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "domovoy",
		Name:      "reminders_fired_total",
		Help:      "Due reminders delivered to their owner chats.",
	},
)
