package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/hr-digital/surat-izin/internal/api"
	"github.com/hr-digital/surat-izin/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	cfg := a.Config.GetConfig()
	a.Logger.WithFields(logrus.Fields{"host": cfg.Server.Host, "port": cfg.Server.Port}).Info("Starting surat izin HTTP server")

	deps := api.Dependencies{
		Letters: a.Letters,
		Store:   a.Store,
		Metrics: a.Metrics,
		Logger:  a.Logger,
	}
	if reporter := a.BreakerReporter(); reporter != nil {
		deps.OCR = reporter
	}

	server := api.NewServer(a.Config, deps)
	if err := server.Start(ctx); err != nil {
		a.Logger.WithError(err).Error("Server failed")
		a.Close()
		os.Exit(1)
	}

	a.Logger.Info("Server stopped")
}
