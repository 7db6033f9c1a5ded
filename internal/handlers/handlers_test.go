package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochnev/domovoy/internal/models"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int64
		ok   bool
	}{
		{"comma separated", "-1001234567890, 987654321", []int64{-1001234567890, 987654321}, true},
		{"space separated", "100 200 300", []int64{100, 200, 300}, true},
		{"newline separated", "100\n200", []int64{100, 200}, true},
		{"single id", "42", []int64{42}, true},
		{"empty", "", nil, false},
		{"garbage", "сто, двести", nil, false},
		{"mixed garbage", "100, abc", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, ok := parseIDList(tt.text)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestKindFromArg(t *testing.T) {
	kind, ok := kindFromArg("транзакции")
	require.True(t, ok)
	assert.Equal(t, models.KindTransaction, kind)

	kind, ok = kindFromArg("Задачи")
	require.True(t, ok)
	assert.Equal(t, models.KindTask, kind)

	kind, ok = kindFromArg("reminders")
	require.True(t, ok)
	assert.Equal(t, models.KindReminder, kind)

	_, ok = kindFromArg("всё")
	assert.False(t, ok)
}

func TestFormatListLine(t *testing.T) {
	date := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)

	line := formatListLine(&models.Record{
		Kind: models.KindTransaction, Date: date,
		Amount: "-1500", Currency: "RUB", Description: "продукты",
	})
	assert.Contains(t, line, "07.08")
	assert.Contains(t, line, "-1500 RUB")

	at := time.Date(2026, 8, 8, 9, 30, 0, 0, time.UTC)
	line = formatListLine(&models.Record{
		Kind: models.KindReminder, Date: date, RemindAt: &at, Description: "позвонить маме",
	})
	assert.Contains(t, line, "08.08 09:30")
}

func TestFormatSetting(t *testing.T) {
	text := formatSetting(&models.NotificationSetting{
		Project:          "семья",
		NotifyPersonal:   true,
		TransactionChats: []int64{100, 200},
		Channels:         []int64{-1900},
	})

	assert.Contains(t, text, "семья")
	assert.Contains(t, text, "Личные: вкл")
	assert.Contains(t, text, "100, 200")
	assert.Contains(t, text, "-1900")
}

func TestFormatIDList(t *testing.T) {
	assert.Equal(t, "—", formatIDList(nil))
	assert.Equal(t, "100, -200", formatIDList([]int64{100, -200}))
}
