package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
)

type memUserRepo struct {
	byChat  map[int64]*models.User
	nextID  int64
	updates int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byChat: map[int64]*models.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.nextID++
	saved := *user
	saved.ID = r.nextID
	r.byChat[saved.ChatID] = &saved
	return &saved, nil
}

func (r *memUserRepo) GetByChatID(_ context.Context, chatID int64) (*models.User, error) {
	return r.byChat[chatID], nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range r.byChat {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.updates++
	saved := *user
	r.byChat[saved.ChatID] = &saved
	return &saved, nil
}

type memRecordRepo struct {
	byID      map[string]*models.Record
	list      []*models.Record
	due       []*models.Record
	updated   []*models.Record
	getErr    error
	createErr error
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{byID: map[string]*models.Record{}}
}

func (r *memRecordRepo) Create(_ context.Context, rec *models.Record) (*models.Record, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	saved := *rec
	saved.ID = uuid.New().String()
	r.byID[saved.ID] = &saved
	return &saved, nil
}

func (r *memRecordRepo) GetByID(_ context.Context, id string) (*models.Record, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.byID[id], nil
}

func (r *memRecordRepo) ListByOwner(_ context.Context, chatID int64, _ repository.RecordFilters) ([]*models.Record, error) {
	return r.list, nil
}

func (r *memRecordRepo) DueReminders(context.Context) ([]*models.Record, error) {
	return r.due, nil
}

func (r *memRecordRepo) Update(_ context.Context, rec *models.Record) (*models.Record, error) {
	saved := *rec
	r.updated = append(r.updated, &saved)
	r.byID[saved.ID] = &saved
	return &saved, nil
}

func (r *memRecordRepo) Delete(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

type memSettingsRepo struct {
	settings map[string]*models.NotificationSetting
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{settings: map[string]*models.NotificationSetting{}}
}

func (r *memSettingsRepo) key(owner int64, project string) string {
	return fmt.Sprintf("%d/%s", owner, project)
}

func (r *memSettingsRepo) Get(_ context.Context, owner int64, project string) (*models.NotificationSetting, error) {
	return r.settings[r.key(owner, project)], nil
}

func (r *memSettingsRepo) ListByOwner(context.Context, int64) ([]*models.NotificationSetting, error) {
	var out []*models.NotificationSetting
	for _, s := range r.settings {
		out = append(out, s)
	}
	return out, nil
}

func (r *memSettingsRepo) Upsert(_ context.Context, s *models.NotificationSetting) (*models.NotificationSetting, error) {
	saved := *s
	r.settings[r.key(s.OwnerChatID, s.Project)] = &saved
	return &saved, nil
}

type memAliasRepo struct {
	aliases []*models.PersonAlias
}

func (r *memAliasRepo) ListByOwner(context.Context, int64) ([]*models.PersonAlias, error) {
	return r.aliases, nil
}

func (r *memAliasRepo) Upsert(_ context.Context, a *models.PersonAlias) (*models.PersonAlias, error) {
	r.aliases = append(r.aliases, a)
	return a, nil
}

func (r *memAliasRepo) Delete(context.Context, int64, string) error { return nil }

type failedCall struct {
	id        string
	attempts  int
	lastError string
	terminal  bool
}

type memOutboxRepo struct {
	entries []*models.OutboxEntry
	pending []*models.OutboxEntry
	done    []string
	failed  []failedCall
}

func (r *memOutboxRepo) Enqueue(_ context.Context, e *models.OutboxEntry) (*models.OutboxEntry, error) {
	saved := *e
	saved.ID = uuid.New().String()
	r.entries = append(r.entries, &saved)
	return &saved, nil
}

func (r *memOutboxRepo) DuePending(context.Context, int, int) ([]*models.OutboxEntry, error) {
	return r.pending, nil
}

func (r *memOutboxRepo) MarkDone(_ context.Context, id string) error {
	r.done = append(r.done, id)
	return nil
}

func (r *memOutboxRepo) MarkFailed(_ context.Context, id string, attempts int, lastError string, terminal bool) error {
	r.failed = append(r.failed, failedCall{id, attempts, lastError, terminal})
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestService(users *memUserRepo, records *memRecordRepo, outbox *memOutboxRepo) *Service {
	return New(nil, testLogger(), users, records, newMemSettingsRepo(), &memAliasRepo{}, outbox)
}

func TestEnsureUser_CreatesNew(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestService(users, newMemRecordRepo(), &memOutboxRepo{})

	user, err := svc.EnsureUser(context.Background(), 42, "masha", "Мария", "Иванова")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, int64(42), user.ChatID)
	assert.Equal(t, models.TierFree, user.Tier)
	assert.NotNil(t, user.Metadata)
}

func TestEnsureUser_UpdatesChangedProfile(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestService(users, newMemRecordRepo(), &memOutboxRepo{})

	_, err := svc.EnsureUser(context.Background(), 42, "masha", "Мария", "")
	require.NoError(t, err)

	user, err := svc.EnsureUser(context.Background(), 42, "masha_new", "Мария", "")
	require.NoError(t, err)

	assert.Equal(t, "masha_new", user.Username)
	assert.Equal(t, 1, users.updates)
}

func TestEnsureUser_NoopWhenUnchanged(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestService(users, newMemRecordRepo(), &memOutboxRepo{})

	_, err := svc.EnsureUser(context.Background(), 42, "masha", "Мария", "")
	require.NoError(t, err)
	_, err = svc.EnsureUser(context.Background(), 42, "masha", "Мария", "")
	require.NoError(t, err)

	assert.Zero(t, users.updates)
}

func TestSetUserState(t *testing.T) {
	users := newMemUserRepo()
	svc := newTestService(users, newMemRecordRepo(), &memOutboxRepo{})

	user, err := svc.EnsureUser(context.Background(), 42, "masha", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetUserState(context.Background(), user, map[string]string{"wizard": "notify"}))
	assert.Equal(t, "notify", user.Metadata["wizard"])

	require.NoError(t, svc.SetUserState(context.Background(), user, map[string]string{"wizard": ""}))
	_, ok := user.Metadata["wizard"]
	assert.False(t, ok)

	stored := users.byChat[42]
	_, ok = stored.Metadata["wizard"]
	assert.False(t, ok)
}

func TestSaveRecord_EnqueuesHooks(t *testing.T) {
	records := newMemRecordRepo()
	outbox := &memOutboxRepo{}
	svc := newTestService(newMemUserRepo(), records, outbox)

	saved, err := svc.SaveRecord(context.Background(), &models.Record{
		Kind:        models.KindTransaction,
		ChatID:      42,
		Amount:      "-1500",
		Description: "продукты",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.Date.IsZero())
	require.Len(t, outbox.entries, 2)
	assert.Equal(t, models.HookNotify, outbox.entries[0].Hook)
	assert.Equal(t, models.HookMirror, outbox.entries[1].Hook)
}

func TestSaveRecord_ReminderSkipsHooks(t *testing.T) {
	outbox := &memOutboxRepo{}
	svc := newTestService(newMemUserRepo(), newMemRecordRepo(), outbox)

	at := time.Now().Add(time.Hour)
	_, err := svc.SaveRecord(context.Background(), &models.Record{
		Kind:     models.KindReminder,
		ChatID:   42,
		RemindAt: &at,
	})

	require.NoError(t, err)
	assert.Empty(t, outbox.entries)
}

func TestSaveRecord_Validation(t *testing.T) {
	svc := newTestService(newMemUserRepo(), newMemRecordRepo(), &memOutboxRepo{})

	_, err := svc.SaveRecord(context.Background(), &models.Record{Kind: "joke", ChatID: 42})
	assert.Error(t, err)

	_, err = svc.SaveRecord(context.Background(), &models.Record{Kind: models.KindTask})
	assert.Error(t, err)
}

func TestMonthlyReport(t *testing.T) {
	now := time.Date(2026, 8, 7, 12, 0, 0, 0, time.UTC)
	records := newMemRecordRepo()
	records.list = []*models.Record{
		{Kind: models.KindTransaction, Amount: "+80000", Project: "зарплата", Date: now.AddDate(0, 0, -2)},
		{Kind: models.KindTransaction, Amount: "-1500.50", Project: "семья", Date: now.AddDate(0, 0, -1)},
		{Kind: models.KindTransaction, Amount: "-2000", Project: "семья", Date: now},
		// Last month: out of the reporting window.
		{Kind: models.KindTransaction, Amount: "-9999", Project: "семья", Date: now.AddDate(0, -1, 0)},
	}
	svc := newTestService(newMemUserRepo(), records, &memOutboxRepo{})

	report, err := svc.MonthlyReport(context.Background(), 42, now)

	require.NoError(t, err)
	assert.Contains(t, report, "Доходы: 80000")
	assert.Contains(t, report, "Расходы: 3500.5")
	assert.Contains(t, report, "Итог: 76499.5")
	assert.Contains(t, report, "зарплата")
	assert.NotContains(t, report, "9999")
}

func TestMonthlyReport_NoTransactions(t *testing.T) {
	svc := newTestService(newMemUserRepo(), newMemRecordRepo(), &memOutboxRepo{})

	report, err := svc.MonthlyReport(context.Background(), 42, time.Now())

	require.NoError(t, err)
	assert.Contains(t, report, "транзакций нет")
}

type reminderCapture struct {
	chatIDs []int64
	texts   []string
}

func (c *reminderCapture) callback(chatID int64, text string) {
	c.chatIDs = append(c.chatIDs, chatID)
	c.texts = append(c.texts, text)
}

func TestProcessDueReminders_OneShot(t *testing.T) {
	at := time.Date(2026, 8, 7, 10, 0, 0, 0, time.UTC)
	records := newMemRecordRepo()
	records.due = []*models.Record{
		{ID: "r1", Kind: models.KindReminder, ChatID: 42, Description: "позвонить маме", RemindAt: &at},
	}
	svc := newTestService(newMemUserRepo(), records, &memOutboxRepo{})

	capture := &reminderCapture{}
	svc.ProcessDueReminders(context.Background(), capture.callback)

	require.Len(t, capture.chatIDs, 1)
	assert.Equal(t, int64(42), capture.chatIDs[0])
	assert.Contains(t, capture.texts[0], "позвонить маме")

	require.Len(t, records.updated, 1)
	assert.True(t, records.updated[0].RemindSent)
}

func TestProcessDueReminders_RecurringAdvances(t *testing.T) {
	at := time.Date(2026, 8, 7, 10, 0, 0, 0, time.UTC)
	records := newMemRecordRepo()
	records.due = []*models.Record{
		{ID: "r1", Kind: models.KindReminder, ChatID: 42, Description: "полить цветы",
			RemindAt: &at, RepeatType: "еженедельно"},
	}
	svc := newTestService(newMemUserRepo(), records, &memOutboxRepo{})

	svc.ProcessDueReminders(context.Background(), (&reminderCapture{}).callback)

	require.Len(t, records.updated, 1)
	updated := records.updated[0]
	assert.False(t, updated.RemindSent)
	require.NotNil(t, updated.RemindAt)
	assert.Equal(t, at.AddDate(0, 0, 7), *updated.RemindAt)
}

func TestProcessDueReminders_RecurringStopsAtDeadline(t *testing.T) {
	at := time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC)
	until := time.Date(2026, 8, 15, 23, 59, 0, 0, time.UTC)
	records := newMemRecordRepo()
	records.due = []*models.Record{
		{ID: "r1", Kind: models.KindReminder, ChatID: 42, Description: "принять лекарство",
			RemindAt: &at, RepeatType: "ежедневно", RepeatUntil: &until},
	}
	svc := newTestService(newMemUserRepo(), records, &memOutboxRepo{})

	svc.ProcessDueReminders(context.Background(), (&reminderCapture{}).callback)

	// Aug 15 is still within the deadline; the reminder advances once more.
	require.Len(t, records.updated, 1)
	assert.False(t, records.updated[0].RemindSent)
	assert.Equal(t, at.AddDate(0, 0, 1), *records.updated[0].RemindAt)

	// The next firing lands past the deadline, so the reminder retires.
	records.due = records.updated
	records.updated = nil
	svc.ProcessDueReminders(context.Background(), (&reminderCapture{}).callback)

	require.Len(t, records.updated, 1)
	assert.True(t, records.updated[0].RemindSent)
}
