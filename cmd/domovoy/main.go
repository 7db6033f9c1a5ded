package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kochnev/domovoy/internal/api"
	"github.com/kochnev/domovoy/internal/classifier"
	"github.com/kochnev/domovoy/internal/config"
	"github.com/kochnev/domovoy/internal/handlers"
	"github.com/kochnev/domovoy/internal/notify"
	"github.com/kochnev/domovoy/internal/pipeline"
	"github.com/kochnev/domovoy/internal/repository/postgres"
	"github.com/kochnev/domovoy/internal/service"
	"github.com/kochnev/domovoy/internal/sheets"
	"github.com/kochnev/domovoy/internal/telegram"
	"github.com/kochnev/domovoy/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting Domovoy...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db.DB)
	recordRepo := postgres.NewRecordRepository(db.DB)
	settingRepo := postgres.NewNotificationRepository(db.DB)
	aliasRepo := postgres.NewAliasRepository(db.DB)
	outboxRepo := postgres.NewOutboxRepository(db.DB)

	// Service layer
	svc := service.New(db.DB, l, userRepo, recordRepo, settingRepo, aliasRepo, outboxRepo)

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	// Classification pipeline
	llm := openai.NewClient(cfg.OpenAIKey)
	cls := classifier.New(llm, cfg.OpenAIModel, cfg.WhisperModel, l)
	pipe := pipeline.New(cls, recordRepo, aliasRepo, outboxRepo, cfg.DefaultCurrency, l)

	// Post-commit hooks
	fanout := notify.New(settingRepo, bot, l)
	mirror := sheets.NewMirror(userRepo, sheets.NewClient(cfg.SheetsToken), l)
	dispatcher := service.NewOutboxDispatcher(recordRepo, outboxRepo, fanout, mirror, l)

	// Command handlers
	bot.RegisterCommand("start", handlers.NewStartHandler(svc, l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))
	bot.RegisterCommand("report", handlers.NewReportHandler(svc, l))
	bot.RegisterCommand("list", handlers.NewListHandler(svc, l))
	bot.RegisterCommand("notify", handlers.NewNotifyHandler(svc, l))
	bot.RegisterCommand("alias", handlers.NewAliasHandler(svc, l))
	bot.RegisterCommand("mirror", handlers.NewMirrorHandler(svc, l))

	// Free text, voice and wizard callbacks
	bot.SetFallback(handlers.NewMessageHandler(svc, pipe, cls, l))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Reminder sweep and outbox dispatch
	scheduler := service.NewScheduler(svc, dispatcher, func(chatID int64, text string) {
		if err := bot.SendMessage(chatID, text); err != nil {
			l.Errorf("Failed to send reminder: %v", err)
		}
	})
	go func() {
		if err := scheduler.Start(ctx); err != nil {
			l.Errorf("Scheduler error: %v", err)
		}
	}()

	// HTTP server: dashboard API, webhook ingress, metrics
	apiServer := api.NewServer(svc, bot, cfg.TelegramToken, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Webhook mode when a public URL is configured, long polling otherwise
	if cfg.WebhookURL != "" {
		if err := bot.SetWebhook(cfg.WebhookURL + "/webhook/" + cfg.TelegramToken); err != nil {
			l.Fatalf("Failed to set webhook: %v", err)
		}
	} else {
		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	}

	l.Info("Domovoy started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("Domovoy stopped")
}
