package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hr-digital/surat-izin/internal/app"
	"github.com/hr-digital/surat-izin/internal/mcp"
	"github.com/hr-digital/surat-izin/internal/setup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.NewCLI(os.Stdout).Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stdout carries the MCP protocol.
	a, err := app.New(ctx, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	server := mcp.NewServer(a.Config.GetConfig().MCP, a.Letters, a.Logger)
	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		a.Logger.WithError(err).Error("MCP server failed")
		a.Close()
		os.Exit(1)
	}

	a.Logger.Info("Surat izin MCP server stopped")
}
