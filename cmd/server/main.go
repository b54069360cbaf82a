// Package main is the entry point for the Fresh Start HTTP server.
//
// MAIN PACKAGE IN GO:
// main should stay minimal. Its job is to:
//  1. Read configuration (YAML file + env vars, see internal/config)
//  2. Create dependencies (logger, store)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/fresh-start/internal/app"
	"github.com/sakif/fresh-start/internal/config"
	"github.com/sakif/fresh-start/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// Priority: ENV > config.yaml > defaults. AUTH_TOKEN_SECRET must be set:
	//   AUTH_TOKEN_SECRET=$(openssl rand -hex 32)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := app.NewLogger(cfg.Log)

	// === 3. STORAGE ===
	store, err := app.OpenStore(cfg.Storage)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger, store)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM, then shuts down and closes the store.
	if err := srv.Start(context.Background()); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
