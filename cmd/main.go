package main

import (
	"log"
	"time"

	"github.com/reportdash/internal/api"
	"github.com/reportdash/internal/auth"
	"github.com/reportdash/internal/config"
	"github.com/reportdash/internal/database"
	"github.com/reportdash/internal/dispatch"
	"github.com/reportdash/internal/jobs"
	"github.com/reportdash/internal/mailer"
	"github.com/reportdash/internal/notify"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize database
	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	db := database.GetDB()

	auth.SetSecret(cfg.Auth.JWTSecret)

	// Initialize email transport and optional Slack notifier
	transport := mailer.New(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.From, cfg.Mail.Password)
	notifier := notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel)

	// Initialize dispatch engine
	engine := dispatch.NewEngine(db, transport, notifier, dispatch.Options{
		BaseURL:  cfg.Report.BaseURL,
		Throttle: time.Duration(cfg.Mail.ThrottleMS) * time.Millisecond,
	})

	// Optional in-process cron trigger
	if cfg.Cron.Enabled {
		cronManager := jobs.NewCronManager(engine)
		if err := cronManager.Setup(cfg.Cron.Spec); err != nil {
			log.Fatalf("Failed to set up cron trigger: %v", err)
		}
		cronManager.Start()
		defer cronManager.Stop()
	}

	// Initialize and start API server
	server := api.NewServer(db, engine)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
