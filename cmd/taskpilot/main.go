package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"taskpilot/internal/ai"
	"taskpilot/internal/auth"
	"taskpilot/internal/config"
	"taskpilot/internal/db"
	httpx "taskpilot/internal/http"
	"taskpilot/internal/notify"
	"taskpilot/internal/reminder"
	"taskpilot/internal/task"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)

	emailSender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:         cfg.Mail.Host,
		Port:         cfg.Mail.Port,
		Username:     cfg.Mail.Username,
		Password:     cfg.Mail.Password,
		Sender:       cfg.Mail.Sender,
		SuppressSend: cfg.Mail.SuppressSend,
	}, log.With().Str("comp", "email").Logger())

	waClient := notify.NewTwilioClient(notify.TwilioConfig{
		AccountSID: cfg.WhatsApp.AccountSID,
		AuthToken:  cfg.WhatsApp.AuthToken,
		From:       cfg.WhatsApp.From,
		RatePerSec: cfg.WhatsApp.RatePerSec,
	}, log.With().Str("comp", "whatsapp").Logger())

	dispatcher := &reminder.Dispatcher{
		Email:    emailSender,
		WhatsApp: waClient,
		Timeout:  cfg.Reminder.DispatchTimeout,
		Log:      log.With().Str("comp", "dispatcher").Logger(),
	}
	scheduler := reminder.NewScheduler(reminder.Config{
		Workers:   cfg.Reminder.Workers,
		QueueSize: cfg.Reminder.QueueSize,
	}, dispatcher, log.With().Str("comp", "scheduler").Logger())
	scheduler.Start()

	// Re-arm reminders from the tasks table: once at startup (jobs are
	// in-memory and do not survive restarts) and then periodically so any
	// missed deadline edit converges.
	taskSvc := &task.Service{DB: gdb}
	reconcile := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rows, err := taskSvc.ListRemindable(ctx, time.Now().Add(reminder.Lead))
		if err != nil {
			log.Error().Err(err).Msg("reminder reconcile query failed")
			return
		}
		for _, row := range rows {
			scheduler.Schedule(reminder.ScheduleRequest{
				TaskID:   row.TaskID,
				Title:    row.Title,
				Deadline: row.Deadline,
				Email:    row.Email,
				WhatsApp: row.WhatsAppNumber,
			})
		}
		log.Info().Int("tasks", len(rows)).Msg("reminders reconciled")
	}
	reconcile()

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Reminder.SweepSpec, reconcile); err != nil {
		log.Error().Err(err).Str("spec", cfg.Reminder.SweepSpec).Msg("invalid sweep spec; sweep disabled")
	}
	sweeper.Start()

	aiClient := ai.NewClient(ai.ClientConfig{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
	}, log.With().Str("comp", "ai").Logger())

	r := httpx.NewRouter(httpx.Deps{
		Config:    cfg,
		DB:        gdb,
		JWT:       jwtSvc,
		Scheduler: scheduler,
		Email:     emailSender,
		WhatsApp:  waClient,
		AI:        aiClient,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	<-sweeper.Stop().Done()
	_ = srv.Shutdown(shutdownCtx)
	scheduler.Shutdown(shutdownCtx)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.ErrorFieldName = "err"
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05.000Z07:00"}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}
