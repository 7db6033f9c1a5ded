package models

import "time"

// HookKind names a post-commit side effect recorded in the outbox.
type HookKind string

const (
	HookNotify HookKind = "notify"
	HookMirror HookKind = "mirror"
)

// OutboxStatus is the delivery state of an outbox entry.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxDone    OutboxStatus = "done"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEntry records one pending post-commit side effect (notification
// fan-out or spreadsheet mirror) for a saved record. Entries are swept
// by the dispatcher, retried on failure up to a cap, and dead-lettered
// as failed after that, never silently dropped.
type OutboxEntry struct {
	ID        string       `json:"id" db:"id"`
	RecordID  string       `json:"record_id" db:"record_id"`
	Hook      HookKind     `json:"hook" db:"hook"`
	Status    OutboxStatus `json:"status" db:"status"`
	Attempts  int          `json:"attempts" db:"attempts"`
	LastError string       `json:"last_error" db:"last_error"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}
