// Package main is the entry point for the task board API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration
// 2. Create dependencies (logger, store)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
// `taskboard serve` does the same thing from the CLI; this binary exists for
// deployments that only want the API.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/taskboard/internal/config"
	"github.com/sakif/taskboard/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// TASKBOARD_CONFIG names an optional YAML file. Without it, defaults
	// plus TASKBOARD_* environment variables apply (see internal/config).
	cfg, err := config.Load(os.Getenv("TASKBOARD_CONFIG"))
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Text handler on stdout at log.level (debug, info, warn, error).
	logger := cfg.NewLogger(os.Stdout)

	// === 3. OPEN THE STORE ===
	// sqlite creates its directory on first run; redis is pinged before we
	// go any further.
	ctx := context.Background()
	store, err := server.OpenStore(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("backend", cfg.Storage.Backend),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	// and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
