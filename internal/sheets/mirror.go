// Package sheets mirrors saved records into a linked Google
// spreadsheet. The mirror is a non-authoritative best-effort copy: the
// primary save is committed before any append is attempted.
package sheets

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
)

// Appender is the spreadsheet boundary the mirror writes through.
// *Client satisfies it.
type Appender interface {
	IsConfigured() bool
	AppendRow(ctx context.Context, spreadsheetID, sheetName string, row []interface{}) error
}

// Mirror resolves the owner's storage preference and appends one row
// per saved record, using a fixed per-kind column layout.
type Mirror struct {
	users  repository.UserRepository
	client Appender
	logger *logrus.Logger
}

// NewMirror creates a Mirror.
func NewMirror(users repository.UserRepository, client Appender, logger *logrus.Logger) *Mirror {
	return &Mirror{users: users, client: client, logger: logger}
}

// MirrorRecord appends the record to the owner's spreadsheet. Owners
// without mirroring enabled, or without a linked spreadsheet, are a
// silent no-op.
func (m *Mirror) MirrorRecord(ctx context.Context, rec *models.Record) error {
	if !m.client.IsConfigured() {
		return nil
	}

	user, err := m.users.GetByChatID(ctx, rec.ChatID)
	if err != nil {
		return err
	}
	if user == nil || !user.MirrorEnabled || user.SpreadsheetID == "" {
		return nil
	}

	return m.client.AppendRow(ctx, user.SpreadsheetID, SheetFor(rec.Kind), RowFor(rec))
}

// SheetFor maps a record kind to its sheet name within the spreadsheet.
func SheetFor(kind models.Kind) string {
	switch kind {
	case models.KindTransaction:
		return "Транзакции"
	case models.KindTask:
		return "Задачи"
	case models.KindIdea:
		return "Идеи"
	}
	return "Записи"
}

// RowFor builds the fixed column layout for a record kind.
func RowFor(rec *models.Record) []interface{} {
	date := rec.Date.Format("2006-01-02")
	switch rec.Kind {
	case models.KindTransaction:
		return []interface{}{date, rec.Project, rec.Amount, rec.Currency, rec.MoneySource, rec.Description}
	case models.KindTask:
		return []interface{}{date, rec.Project, rec.Description, rec.Person, rec.Priority, rec.Status, rec.RepeatType}
	case models.KindIdea:
		return []interface{}{date, rec.Project, rec.Description, rec.Link, rec.FileName}
	}
	return []interface{}{date, rec.Project, rec.Description}
}
