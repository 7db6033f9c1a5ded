package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates the four record types the classifier can produce.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindTask        Kind = "task"
	KindIdea        Kind = "idea"
	KindReminder    Kind = "reminder"
)

// Valid reports whether k is one of the known record kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTransaction, KindTask, KindIdea, KindReminder:
		return true
	}
	return false
}

// Notifiable reports whether records of this kind participate in
// notification fan-out and spreadsheet mirroring.
func (k Kind) Notifiable() bool {
	return k == KindTransaction || k == KindTask || k == KindIdea
}

// Record is one user-submitted item: a transaction, task, idea or
// reminder. The amount is stored exactly as submitted: a decimal string
// with an explicit sign, where "-" marks an expense and "+" an income.
type Record struct {
	ID          string     `json:"id" db:"id"`
	Kind        Kind       `json:"kind" db:"kind"`
	ChatID      int64      `json:"chat_id" db:"chat_id"`
	Project     string     `json:"project" db:"project"`
	Description string     `json:"description" db:"description"`
	Amount      string     `json:"amount,omitempty" db:"amount"`
	Currency    string     `json:"currency,omitempty" db:"currency"`
	MoneySource string     `json:"money_source,omitempty" db:"money_source"`
	Person      string     `json:"person,omitempty" db:"person"`
	Status      string     `json:"status,omitempty" db:"status"`
	Priority    string     `json:"priority,omitempty" db:"priority"`
	Date        time.Time  `json:"date" db:"date"`
	RepeatType  string     `json:"repeat_type,omitempty" db:"repeat_type"`
	RepeatUntil *time.Time `json:"repeat_until,omitempty" db:"repeat_until"`
	RemindAt    *time.Time `json:"remind_at,omitempty" db:"remind_at"`
	RemindSent  bool       `json:"remind_sent,omitempty" db:"remind_sent"`
	Link        string     `json:"link,omitempty" db:"link"`
	FileName    string     `json:"file_name,omitempty" db:"file_name"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// AmountValue parses the signed amount string. A missing amount parses
// as zero.
func (r *Record) AmountValue() (decimal.Decimal, error) {
	if r.Amount == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(r.Amount)
}

// IsExpense reports whether the amount carries a negative sign.
func (r *Record) IsExpense() bool {
	d, err := r.AmountValue()
	if err != nil {
		return false
	}
	return d.IsNegative()
}
