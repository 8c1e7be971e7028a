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

	"github.com/starford/blockpad/internal/api"
	"github.com/starford/blockpad/internal/devserver"
	"github.com/starford/blockpad/internal/events"
	"github.com/starford/blockpad/internal/index"
	"github.com/starford/blockpad/internal/mcpserver"
	"github.com/starford/blockpad/internal/plugin"
	"github.com/starford/blockpad/internal/session"
	"github.com/starford/blockpad/internal/sse"
	"github.com/starford/blockpad/internal/translate"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("close services", slog.String("error", err.Error()))
		}
	}()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	sessions := session.NewManager(session.Settings{
		HolderID:  cfg.Editor.HolderID,
		TriggerID: cfg.Editor.TriggerID,
		OutputID:  cfg.Editor.OutputID,
		Editor:    cfg.Editor.EditorSettings(svc.tools),
		Translate: translate.Options{Model: cfg.Translate.Model},
	}, session.Deps{
		Store:      svc.store,
		Index:      svc.db,
		Broker:     broker,
		Events:     svc.events,
		Mirror:     svc.mirror,
		Translator: translate.NewService(app.completer),
		Logger:     logger,
	})

	apiRouter := api.NewRouter(api.Options{
		Docs:        svc.docs,
		Sessions:    sessions,
		Tools:       svc.tools,
		Broker:      broker,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Logger:      logger,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	servers := []*http.Server{{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}}

	if cfg.Dev.Enabled() {
		target := cfg.Dev.ProxyTarget
		if target == "" {
			target = "http://localhost" + cfg.App.HTTP.Address()
		}
		dev, err := devserver.New(devserver.Config{
			ProxyPrefix: cfg.Dev.ProxyPrefix,
			ProxyTarget: target,
			StaticDir:   cfg.Dev.StaticDir,
		}, logger)
		if err != nil {
			return fmt.Errorf("init dev server: %w", err)
		}
		servers = append(servers, &http.Server{Addr: cfg.Dev.Address(), Handler: dev})
	}

	var autosave *session.Autosave
	if cfg.Editor.Autosave != "" {
		if autosave, err = sessions.StartAutosave(cfg.Editor.Autosave); err != nil {
			return err
		}
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE and event bus callbacks.
	g.Go(func() error {
		err := index.Watch(gCtx, svc.db, svc.store, cfg.Storage.Path, logger, func(kind, path string) {
			broker.PublishDocumentEvent(kind, path)
			if topic, ok := events.TopicForDocument(kind); ok {
				if err := svc.events.Publish(gCtx, topic, events.DocumentChanged{Path: path}); err != nil {
					logger.Warn("publish document event", slog.String("path", path), slog.String("error", err.Error()))
				}
			}
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP servers.
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if autosave != nil {
			autosave.Stop(shutdownCtx)
		}
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}
		sessions.CloseAll(shutdownCtx)

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits once the servers are
// down.
var errShutdown = errors.New("shutdown")

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// RunMCP serves stored documents over MCP on stdin/stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// stdout carries the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.Info("MCP server starting", slog.String("storage_path", cfg.Storage.Path))
	return mcpserver.New(svc.docs, svc.tools).ServeStdio()
}

// ToolTable resolves the configured editor tools.
func ToolTable(cfg *Config) (*plugin.Table, error) {
	return cfg.Editor.ToolTable()
}
