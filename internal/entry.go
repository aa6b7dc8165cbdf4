// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/devassist/companion/internal/remote"
	"github.com/devassist/companion/internal/scanner"
	"github.com/devassist/companion/internal/state"
	"github.com/devassist/companion/internal/syncer"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("project", cfg.Project.Name),
		slog.String("directory", cfg.Workspace.Path),
		slog.String("base_url", cfg.Remote.BaseURL),
		slog.String("interval", cfg.Sync.Interval.Std().String()),
		slog.String("state_path", cfg.State.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	scan, err := scanner.NewFS(cfg.Workspace.Path, cfg.Workspace.Ignore, cfg.Workspace.MaxFileSize)
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}

	// Ensure the state directory exists.
	if dir := filepath.Dir(cfg.State.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := state.Open(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("init state: %w", err)
	}
	defer db.Close()

	api := app.remote
	if api == nil {
		api = remote.NewClient(cfg.Remote.BaseURL, cfg.Project.Name, cfg.Remote.APIKey, cfg.Remote.Timeout.Std())
	}

	s := syncer.New(scan, db, api, logger, cfg.Sync.Interval.Std(), cfg.Sync.Concurrency)

	if cfg.Sync.Once {
		rep, err := s.SyncOnce(ctx)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		logger.Info("sync pass complete",
			slog.Int("scanned", rep.Scanned),
			slog.Int("uploaded", rep.Uploaded),
			slog.Int("unchanged", rep.Unchanged),
			slog.Int("deleted", rep.Deleted),
			slog.Int("failed", rep.Failed))
		return nil
	}

	logger.Info("Sync loop starting...",
		slog.String("project", cfg.Project.Name),
		slog.String("directory", scan.Root()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	// Run the sync loop.
	g.Go(func() error {
		return s.Run(gCtx)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Sync stopped successfully")
	return nil
}
