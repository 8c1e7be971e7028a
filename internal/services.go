package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/blockpad/internal/docservice"
	"github.com/starford/blockpad/internal/events"
	"github.com/starford/blockpad/internal/index"
	"github.com/starford/blockpad/internal/mirror"
	"github.com/starford/blockpad/internal/plugin"
	"github.com/starford/blockpad/internal/storage"
)

// services are the long-lived collaborators shared by the HTTP server and
// the MCP server.
type services struct {
	store  *storage.FS
	db     *index.DB
	docs   *docservice.Service
	tools  *plugin.Table
	events events.Publisher
	mirror *mirror.Mirror
}

// openServices opens storage, the search index and the tool table, then
// brings the index up to date with the store.
func openServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*services, error) {
	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	tools, err := cfg.Editor.ToolTable()
	if err != nil {
		return nil, fmt.Errorf("init tools: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	s := &services{
		store:  store,
		db:     db,
		docs:   docservice.NewService(store, db),
		tools:  tools,
		events: &events.NoopPublisher{},
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init events: %w", err)
		}
		s.events = pub
		logger.Info("publishing events to NATS", slog.String("url", cfg.Events.NATSURL))
	}

	s.mirror, err = openMirror(ctx, cfg.Mirror, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func openMirror(ctx context.Context, cfg MirrorConfig, logger *slog.Logger) (*mirror.Mirror, error) {
	var dests []mirror.Destination
	if cfg.BackupDir != "" {
		if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
			return nil, fmt.Errorf("create backup dir: %w", err)
		}
		backup, err := storage.NewFS(cfg.BackupDir)
		if err != nil {
			return nil, fmt.Errorf("init backup storage: %w", err)
		}
		dests = append(dests, mirror.StoreDestination{Store: backup})
	}
	if cfg.Bucket != "" {
		s3dest, err := mirror.NewS3Destination(ctx, cfg.Bucket, cfg.Prefix, cfg.Region, cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("init s3 mirror: %w", err)
		}
		dests = append(dests, s3dest)
	}
	return mirror.New(logger, dests...), nil
}

// Close releases the index and the event connection.
func (s *services) Close() error {
	return errors.Join(s.events.Close(), s.db.Close())
}
