// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/yodaliu/jera/internal/api"
	"github.com/yodaliu/jera/internal/habits"
	"github.com/yodaliu/jera/internal/icon"
	"github.com/yodaliu/jera/internal/index"
	"github.com/yodaliu/jera/internal/mcpserver"
	"github.com/yodaliu/jera/internal/period"
	"github.com/yodaliu/jera/internal/render"
	"github.com/yodaliu/jera/internal/sse"
	"github.com/yodaliu/jera/internal/storage"
	"github.com/yodaliu/jera/internal/trackerservice"
)

// appCore is everything bootstrap wires up; the caller owns closing db.
type appCore struct {
	svc    *trackerservice.Service
	db     *index.DB
	dir    *habits.Directory
	store  *storage.FS
	idxCfg index.Config
}

// bootstrap builds the shared application core: storage, index, habit
// directory, and the service layer.
func bootstrap(cfg *Config, logger *slog.Logger) (*appCore, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	idxCfg := index.Config{
		HabitFolder: cfg.Habits.Folder,
		Exclude:     cfg.Habits.Exclude,
		Heading:     cfg.Habits.Heading,
		Daily:       cfg.Periodic.Daily,
		Keys:        cfg.Habits.Keys,
	}

	if err := index.Sync(db, store, idxCfg, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	dir := habits.NewDirectory(store, cfg.Habits.Folder, cfg.Habits.Exclude, logger)
	if err := dir.Rebuild(); err != nil {
		logger.Warn("initial habit scan failed", slog.String("error", err.Error()))
	}

	agg := period.NewAggregator(store, cfg.Habits.Heading, logger)
	renderer := render.New(cfg.Habits.Keys, render.Glyphs{
		Checked:   cfg.Render.CheckedGlyph,
		Unchecked: cfg.Render.UncheckedGlyph,
		Rated:     cfg.Render.RatedGlyph,
		Unrated:   cfg.Render.UnratedGlyph,
	})
	defaults := icon.Defaults{
		CompletedGlyph:   cfg.Render.CompletedGlyph,
		UncompletedGlyph: cfg.Render.UncompletedGlyph,
		AccentColor:      cfg.Render.AccentColor,
	}

	svc := trackerservice.New(store, db, dir, agg, renderer, cfg.Habits.Keys, defaults,
		periodicOf(cfg), idxCfg, logger)
	return &appCore{svc: svc, db: db, dir: dir, store: store, idxCfg: idxCfg}, nil
}

func periodicOf(cfg *Config) trackerservice.Periodic {
	return trackerservice.Periodic{
		Daily:   cfg.Periodic.Daily,
		Weekly:  cfg.Periodic.Weekly,
		Monthly: cfg.Periodic.Monthly,
		Yearly:  cfg.Periodic.Yearly,
	}
}

// Run starts the HTTP server with the given options.
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
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("habit_folder", cfg.Habits.Folder),
		slog.String("log_level", cfg.App.LogLevel.String()))

	core, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer core.db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build API router.
	apiRouter := api.NewRouter(core.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := index.Watch(gCtx, core.db, core.store, core.idxCfg, core.store.Root(), core.dir, logger, func(kind, path string) {
			broker.PublishVaultEvent(kind, path)
		})
		if err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdio with the given options.
// Logs go to stderr so stdout stays clean for the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	core, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer core.db.Close()

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(core.svc, periodicOf(cfg)).ServeStdio()
}
