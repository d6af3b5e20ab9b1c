package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dataops/adapters/api"
	"dataops/internal/config"
	"dataops/internal/logging"
	"dataops/internal/session"
	"dataops/ui"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const pollInterval = time.Second

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	appConfig, err := config.Load(os.Getenv("DATAOPS_CONFIG"))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(appConfig.Log)
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	client := api.NewClient(api.Config{
		BaseURL: appConfig.API.BaseURL,
		Timeout: appConfig.API.Timeout,
	}, logging.Component(logger, "api"))

	staging, err := session.NewStaging(appConfig.Upload.StagingDir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to prepare staging directory")
	}
	store := session.NewStore(session.Config{
		TTL:           appConfig.Session.TTL,
		SweepInterval: appConfig.Session.SweepInterval,
	}, staging, logging.Component(logger, "sessions"))

	server, err := ui.NewServer(client, store, ui.Options{
		AppName:          appConfig.UI.AppName,
		APIBaseURL:       appConfig.API.BaseURL,
		MaxUploadMB:      appConfig.Upload.MaxSizeMB,
		MarkdownInsights: appConfig.UI.MarkdownInsights,
		SessionTTL:       appConfig.Session.TTL,
		PollInterval:     pollInterval,
		GinMode:          appConfig.Server.GinMode,
	}, logging.Component(logger, "ui"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create UI server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.PurgeOrphans()
	go store.Run(ctx)

	logger.WithFields(logrus.Fields{
		"api":     appConfig.API.BaseURL,
		"timeout": appConfig.API.Timeout,
		"staging": staging.BasePath(),
	}).Infof("%s starting on http://localhost:%s", appConfig.UI.AppName, appConfig.Server.Port)

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
