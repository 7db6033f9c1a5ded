package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/models"
	"github.com/kochnev/domovoy/internal/repository"
	"github.com/kochnev/domovoy/internal/service"
)

// WebhookReceiver accepts Telegram updates delivered over HTTPS.
type WebhookReceiver interface {
	HandleWebhook(update tgbotapi.Update)
}

// Server provides the HTTP API used by the dashboard front end and the
// Telegram webhook ingress.
type Server struct {
	svc          *service.Service
	receiver     WebhookReceiver
	webhookToken string
	logger       *logrus.Logger
	mux          *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, receiver WebhookReceiver, webhookToken string, logger *logrus.Logger) *Server {
	s := &Server{
		svc:          svc,
		receiver:     receiver,
		webhookToken: webhookToken,
		logger:       logger,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Records
	s.mux.HandleFunc("GET /api/records", s.handleListRecords)
	s.mux.HandleFunc("POST /api/records", s.handleCreateRecord)

	// API – Notification settings
	s.mux.HandleFunc("GET /api/notifications", s.handleGetNotifications)
	s.mux.HandleFunc("PUT /api/notifications", s.handlePutNotifications)

	// Telegram webhook ingress
	s.mux.HandleFunc("POST /webhook/{token}", s.handleWebhook)

	// Operational endpoints
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// requireChatID reads the chat_id query parameter.  It writes an error
// response and returns false when the parameter is absent or invalid.
func (s *Server) requireChatID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("chat_id")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "chat_id query parameter is required")
		return 0, false
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "chat_id must be an integer")
		return 0, false
	}
	return chatID, true
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}

	filters := repository.RecordFilters{Limit: 100}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind := models.Kind(raw)
		if !kind.Valid() {
			s.respondError(w, http.StatusBadRequest, "unknown kind")
			return
		}
		filters.Kind = &kind
	}
	if raw := r.URL.Query().Get("project"); raw != "" {
		filters.Project = &raw
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			filters.Offset = offset
		}
	}

	records, err := s.svc.Records.ListByOwner(r.Context(), chatID, filters)
	if err != nil {
		s.logger.WithError(err).Error("failed to list records")
		s.respondError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []*models.Record{}
	}
	s.respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var rec models.Record
	if ok, errMsg := s.decodeJSON(r, &rec); !ok {
		s.respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	saved, err := s.svc.SaveRecord(r.Context(), &rec)
	if err != nil {
		s.logger.WithError(err).Error("failed to create record")
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, saved)
}

// ---------------------------------------------------------------------------
// Notification settings
// ---------------------------------------------------------------------------

func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	chatID, ok := s.requireChatID(w, r)
	if !ok {
		return
	}

	settings, err := s.svc.Settings.ListByOwner(r.Context(), chatID)
	if err != nil {
		s.logger.WithError(err).Error("failed to list notification settings")
		s.respondError(w, http.StatusInternalServerError, "failed to list notification settings")
		return
	}
	if settings == nil {
		settings = []*models.NotificationSetting{}
	}
	s.respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutNotifications(w http.ResponseWriter, r *http.Request) {
	var setting models.NotificationSetting
	if ok, errMsg := s.decodeJSON(r, &setting); !ok {
		s.respondError(w, http.StatusBadRequest, errMsg)
		return
	}
	if setting.OwnerChatID == 0 || setting.Project == "" {
		s.respondError(w, http.StatusBadRequest, "owner_chat_id and project are required")
		return
	}

	saved, err := s.svc.Settings.Upsert(r.Context(), &setting)
	if err != nil {
		s.logger.WithError(err).Error("failed to upsert notification setting")
		s.respondError(w, http.StatusInternalServerError, "failed to save notification setting")
		return
	}
	s.respondJSON(w, http.StatusOK, saved)
}

// ---------------------------------------------------------------------------
// Webhook & health
// ---------------------------------------------------------------------------

// handleWebhook accepts provider updates. It always acknowledges with a
// fixed body: inner processing failures never reach the transport.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("token") != s.webhookToken {
		s.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.WithError(err).Warn("failed to decode webhook update")
	} else if s.receiver != nil {
		s.receiver.HandleWebhook(update)
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
