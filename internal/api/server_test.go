package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
	"github.com/kochnev/domovoy/internal/service"
)

type stubUserRepo struct{}

func (stubUserRepo) Create(_ context.Context, u *models.User) (*models.User, error) { return u, nil }
func (stubUserRepo) GetByChatID(context.Context, int64) (*models.User, error)       { return nil, nil }
func (stubUserRepo) GetByID(context.Context, int64) (*models.User, error)           { return nil, nil }
func (stubUserRepo) Update(_ context.Context, u *models.User) (*models.User, error) { return u, nil }

type stubRecordRepo struct {
	records []*models.Record
}

func (r *stubRecordRepo) Create(_ context.Context, rec *models.Record) (*models.Record, error) {
	saved := *rec
	saved.ID = uuid.New().String()
	r.records = append(r.records, &saved)
	return &saved, nil
}

func (r *stubRecordRepo) GetByID(_ context.Context, id string) (*models.Record, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *stubRecordRepo) ListByOwner(_ context.Context, chatID int64, filters repository.RecordFilters) ([]*models.Record, error) {
	var out []*models.Record
	for _, rec := range r.records {
		if rec.ChatID != chatID {
			continue
		}
		if filters.Kind != nil && rec.Kind != *filters.Kind {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *stubRecordRepo) DueReminders(context.Context) ([]*models.Record, error) { return nil, nil }

func (r *stubRecordRepo) Update(_ context.Context, rec *models.Record) (*models.Record, error) {
	return rec, nil
}

func (r *stubRecordRepo) Delete(context.Context, string) error { return nil }

type stubSettingsRepo struct {
	settings []*models.NotificationSetting
}

func (r *stubSettingsRepo) Get(context.Context, int64, string) (*models.NotificationSetting, error) {
	return nil, nil
}

func (r *stubSettingsRepo) ListByOwner(_ context.Context, owner int64) ([]*models.NotificationSetting, error) {
	var out []*models.NotificationSetting
	for _, s := range r.settings {
		if s.OwnerChatID == owner {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSettingsRepo) Upsert(_ context.Context, s *models.NotificationSetting) (*models.NotificationSetting, error) {
	saved := *s
	r.settings = append(r.settings, &saved)
	return &saved, nil
}

type stubAliasRepo struct{}

func (stubAliasRepo) ListByOwner(context.Context, int64) ([]*models.PersonAlias, error) {
	return nil, nil
}

func (stubAliasRepo) Upsert(_ context.Context, a *models.PersonAlias) (*models.PersonAlias, error) {
	return a, nil
}

func (stubAliasRepo) Delete(context.Context, int64, string) error { return nil }

type stubOutboxRepo struct {
	entries []*models.OutboxEntry
}

func (r *stubOutboxRepo) Enqueue(_ context.Context, e *models.OutboxEntry) (*models.OutboxEntry, error) {
	saved := *e
	saved.ID = uuid.New().String()
	r.entries = append(r.entries, &saved)
	return &saved, nil
}

func (r *stubOutboxRepo) DuePending(context.Context, int, int) ([]*models.OutboxEntry, error) {
	return nil, nil
}

func (r *stubOutboxRepo) MarkDone(context.Context, string) error { return nil }

func (r *stubOutboxRepo) MarkFailed(context.Context, string, int, string, bool) error { return nil }

type stubReceiver struct {
	updates []tgbotapi.Update
}

func (r *stubReceiver) HandleWebhook(update tgbotapi.Update) {
	r.updates = append(r.updates, update)
}

func newTestServer() (*Server, *stubRecordRepo, *stubOutboxRepo, *stubReceiver) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	records := &stubRecordRepo{}
	outbox := &stubOutboxRepo{}
	receiver := &stubReceiver{}
	svc := service.New(nil, logger, stubUserRepo{}, records, &stubSettingsRepo{}, stubAliasRepo{}, outbox)
	return NewServer(svc, receiver, "hook-token", logger), records, outbox, receiver
}

func TestRecords_CreateThenList(t *testing.T) {
	srv, _, outbox, _ := newTestServer()

	body := `{"kind":"transaction","chat_id":42,"project":"семья","amount":"-1500.50","currency":"RUB","description":"продукты"}`
	req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Len(t, outbox.entries, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/records?chat_id=42", nil)
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var listed []*models.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, "-1500.50", listed[0].Amount)
	assert.Equal(t, "семья", listed[0].Project)
}

func TestRecords_ListRequiresChatID(t *testing.T) {
	srv, _, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecords_ListRejectsUnknownKind(t *testing.T) {
	srv, _, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/records?chat_id=42&kind=joke", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecords_ListFiltersByKind(t *testing.T) {
	srv, records, _, _ := newTestServer()
	records.records = []*models.Record{
		{ID: "t1", Kind: models.KindTransaction, ChatID: 42},
		{ID: "i1", Kind: models.KindIdea, ChatID: 42},
		{ID: "t2", Kind: models.KindTransaction, ChatID: 99},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/records?chat_id=42&kind=transaction", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var listed []*models.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "t1", listed[0].ID)
}

func TestRecords_ListEmptyIsArray(t *testing.T) {
	srv, _, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/records?chat_id=42", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestRecords_CreateRejectsInvalid(t *testing.T) {
	srv, _, _, _ := newTestServer()

	tests := []struct {
		name string
		body string
	}{
		{"broken JSON", `{"kind":`},
		{"unknown kind", `{"kind":"joke","chat_id":42}`},
		{"missing chat id", `{"kind":"task","description":"без владельца"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestNotifications_PutThenGet(t *testing.T) {
	srv, _, _, _ := newTestServer()

	body := `{"owner_chat_id":42,"project":"семья","notify_personal":true,"task_chats":[100,200],"channels":[-1900]}`
	req := httptest.NewRequest(http.MethodPut, "/api/notifications", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/notifications?chat_id=42", nil)
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var listed []*models.NotificationSetting
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, []int64{100, 200}, listed[0].TaskChats)
	assert.Equal(t, []int64{-1900}, listed[0].Channels)
	assert.True(t, listed[0].NotifyPersonal)
}

func TestNotifications_PutRequiresOwnerAndProject(t *testing.T) {
	srv, _, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPut, "/api/notifications", strings.NewReader(`{"project":"семья"}`))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhook_RejectsWrongToken(t *testing.T) {
	srv, _, _, receiver := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/webhook/wrong", strings.NewReader(`{"update_id":1}`))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, receiver.updates)
}

func TestWebhook_DeliversUpdate(t *testing.T) {
	srv, _, _, receiver := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/webhook/hook-token", strings.NewReader(`{"update_id":7}`))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	require.Len(t, receiver.updates, 1)
	assert.Equal(t, 7, receiver.updates[0].UpdateID)
}

func TestWebhook_AcksMalformedBody(t *testing.T) {
	srv, _, _, receiver := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/webhook/hook-token", strings.NewReader("not json"))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, receiver.updates)
}

func TestHealthz(t *testing.T) {
	srv, _, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
