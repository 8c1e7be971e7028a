package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/starford/blockpad/internal/events"
	"github.com/starford/blockpad/internal/index"
	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/storage"
	"github.com/starford/blockpad/internal/trigger"
)

// store saves the editor and persists the snapshot.
func (s *Session) store(ctx context.Context) (models.Snapshot, error) {
	snap, rev, err := s.Editor.SaveRevision(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	if err := s.persist(ctx, snap, rev); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// persist writes snap, captured at editor revision rev, to the store and
// fans it out to the index, the mirror and subscribers. A snapshot older
// than the one already stored is dropped.
func (s *Session) persist(ctx context.Context, snap models.Snapshot, rev uint64) error {
	m := s.manager
	logger := m.logger.With(slog.String("session", s.ID), slog.String("document", s.Document))

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if rev < s.saved.Load() {
		logger.Debug("stale snapshot dropped", slog.Uint64("revision", rev))
		return nil
	}

	path, err := storage.SaveSnapshot(m.deps.Store, s.Document, snap)
	if err != nil {
		logger.Error("store snapshot failed", slog.String("error", err.Error()))
		return fmt.Errorf("store snapshot: %w", err)
	}
	data, err := m.deps.Store.Read(path)
	if err != nil {
		logger.Error("read back snapshot failed", slog.String("error", err.Error()))
		return fmt.Errorf("read back snapshot: %w", err)
	}

	now := time.Now().UTC()
	s.saved.Store(rev)
	s.mu.Lock()
	s.savedAt = &now
	s.lastError = ""
	s.mu.Unlock()

	if m.deps.Index != nil {
		if err := index.IndexDocument(m.deps.Index, path, data); err != nil {
			logger.Warn("index snapshot failed", slog.String("error", err.Error()))
		}
	}
	if err := m.deps.Mirror.Write(ctx, path, data); err != nil {
		logger.Warn("mirror snapshot failed", slog.String("error", err.Error()))
	}

	m.publish(ctx, events.TopicEditorSaved, events.EditorSaved{
		SessionID: s.ID,
		Document:  path,
		Blocks:    len(snap.Blocks),
		Snapshot:  json.RawMessage(data),
		SavedAt:   now,
	})
	m.broadcast(EventSaved, s.ID, map[string]any{"document": path, "blocks": len(snap.Blocks)})
	logger.Debug("snapshot stored", slog.String("path", path), slog.Int("blocks", len(snap.Blocks)))
	return nil
}

// report records a failed save.
func (s *Session) report(res trigger.Result) {
	if res.Err == nil {
		return
	}
	m := s.manager
	s.mu.Lock()
	s.lastError = res.Err.Error()
	s.mu.Unlock()
	m.publish(context.Background(), events.TopicEditorSaveFail, events.EditorSaveFailed{SessionID: s.ID, Error: res.Err.Error()})
	m.broadcast(EventSaveFailed, s.ID, map[string]any{"error": res.Err.Error()})
}

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
}
