// Package session hosts editing sessions: one page, one editor and one save
// trigger per session, persisted to the document store on every save.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/dom"
	"github.com/starford/blockpad/internal/editor"
	"github.com/starford/blockpad/internal/events"
	"github.com/starford/blockpad/internal/index"
	"github.com/starford/blockpad/internal/mirror"
	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/sse"
	"github.com/starford/blockpad/internal/storage"
	"github.com/starford/blockpad/internal/translate"
	"github.com/starford/blockpad/internal/trigger"
)

// SSE event types emitted for sessions.
const (
	EventReady      = "editor.ready"
	EventChanged    = "editor.changed"
	EventSaved      = "editor.saved"
	EventSaveFailed = "editor.save_failed"
	EventClosed     = "session.closed"
)

// Settings describes the page every session is built from.
type Settings struct {
	HolderID  string
	TriggerID string
	OutputID  string

	Editor editor.Config
	// Translate holds the defaults for /translate.
	Translate translate.Options
}

// Deps are the collaborators a Manager persists and reports through. Only
// Store is required.
type Deps struct {
	Store      storage.Provider
	Index      index.DocumentIndex
	Broker     *sse.Broker
	Events     events.Publisher
	Mirror     *mirror.Mirror
	Translator translate.Translator
	Logger     *slog.Logger
}

// Info is a read-only summary of a session.
type Info struct {
	ID        string     `json:"id"`
	Document  string     `json:"document"`
	State     string     `json:"state"`
	Dirty     bool       `json:"dirty"`
	CreatedAt time.Time  `json:"created_at"`
	SavedAt   *time.Time `json:"saved_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Changes   int64      `json:"changes"`
}

// Session is one open document.
type Session struct {
	ID       string
	Document string
	Page     *dom.Page
	Editor   *editor.Editor
	Trigger  *trigger.Trigger
	Commands *translate.Registry

	createdAt time.Time
	manager   *Manager

	changes atomic.Int64

	// saved is the editor revision of the last stored snapshot.
	saved     atomic.Uint64
	persistMu sync.Mutex

	mu        sync.Mutex
	savedAt   *time.Time
	lastError string
}

// Manager owns every open session.
type Manager struct {
	settings Settings
	deps     Deps
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(settings Settings, deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Events == nil {
		deps.Events = &events.NoopPublisher{}
	}
	return &Manager{
		settings: settings,
		deps:     deps,
		logger:   deps.Logger,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session on document. The last stored snapshot of the
// document, if any, becomes the editor's initial content.
func (m *Manager) Open(ctx context.Context, document string) (*Session, error) {
	if _, err := storage.DocumentPath(document); err != nil {
		return nil, err
	}

	cfg := m.settings.Editor
	cfg.Holder = m.settings.HolderID
	cfg.Data = nil
	snap, err := storage.LoadSnapshot(m.deps.Store, document)
	switch {
	case err == nil:
		cfg.Data = &snap
	case errors.Is(err, apperr.ErrNotFound):
	default:
		return nil, fmt.Errorf("restore %s: %w", document, err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		Document:  document,
		Page:      dom.NewPage(m.settings.HolderID, m.settings.TriggerID, m.settings.OutputID),
		createdAt: time.Now().UTC(),
		manager:   m,
	}
	logger := m.logger.With(slog.String("session", s.ID))

	ready := false
	ed, err := editor.New(ctx, s.Page, cfg,
		editor.WithLogger(logger),
		editor.OnReady(func() { ready = true }),
		editor.OnChange(s.changed),
	)
	if err != nil {
		return nil, err
	}
	s.Editor = ed
	s.saved.Store(ed.Revision())
	s.Trigger = trigger.Bind(s.Page, trigger.SaverFunc(s.store), m.settings.TriggerID, m.settings.OutputID, logger)
	s.Trigger.OnResult(s.report)

	s.Commands = translate.NewRegistry(logger)
	tc := translate.NewTranslateCommand(m.deps.Translator, ed.Save, m.settings.Translate)
	s.Commands.Register("translate", tc.Handle)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.publish(ctx, events.TopicSessionOpened, events.SessionOpened{SessionID: s.ID, Document: document, Active: ed.Active()})
	if ready {
		blocks := 0
		if cfg.Data != nil {
			blocks = len(cfg.Data.Blocks)
		}
		m.publish(ctx, events.TopicEditorReady, events.EditorReady{SessionID: s.ID, Blocks: blocks})
		m.broadcast(EventReady, s.ID, map[string]any{"document": document})
	}
	logger.Info("session opened", slog.String("document", document), slog.Bool("restored", cfg.Data != nil))
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	return s, nil
}

// List returns a summary of every open session.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Info())
	}
	m.mu.RUnlock()
	sortInfos(out)
	return out
}

// Close destroys the session's editor and forgets it.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	s.Editor.Destroy()
	m.publish(ctx, events.TopicSessionClosed, events.SessionClosed{SessionID: id})
	m.broadcast(EventClosed, id, map[string]any{"document": s.Document})
	m.logger.Info("session closed", slog.String("session", id))
	return nil
}

// CloseAll closes every session.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.Close(ctx, id)
	}
}

// SaveDirty saves every session edited since its last successful save and
// returns how many saves succeeded.
func (m *Manager) SaveDirty(ctx context.Context) int {
	m.mu.RLock()
	var dirty []*Session
	for _, s := range m.sessions {
		if s.Dirty() {
			dirty = append(dirty, s)
		}
	}
	m.mu.RUnlock()

	saved := 0
	for _, s := range dirty {
		if _, err := s.Save(ctx); err != nil {
			m.logger.Warn("autosave failed", slog.String("session", s.ID), slog.String("error", err.Error()))
			continue
		}
		saved++
	}
	return saved
}

func (m *Manager) publish(ctx context.Context, topic string, event any) {
	if err := m.deps.Events.Publish(ctx, topic, event); err != nil {
		m.logger.Warn("event publish failed", slog.String("topic", topic), slog.String("error", err.Error()))
	}
}

func (m *Manager) broadcast(typ, session string, data any) {
	if m.deps.Broker == nil {
		return
	}
	m.deps.Broker.Publish(sse.Event{Type: typ, Session: session, Data: data})
}

// Info summarises the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.ID,
		Document:  s.Document,
		State:     s.Editor.State().String(),
		Dirty:     s.Dirty(),
		CreatedAt: s.createdAt,
		SavedAt:   s.savedAt,
		LastError: s.lastError,
		Changes:   s.changes.Load(),
	}
}

// Dirty reports whether the document changed since the snapshot last
// stored was captured.
func (s *Session) Dirty() bool {
	return s.Editor.Revision() != s.saved.Load()
}

// Output returns the current text of the output element.
func (s *Session) Output() string {
	el := dom.Lookup(s.Page, s.manager.settings.OutputID)
	if el == nil {
		return ""
	}
	return el.Text()
}

// Save runs the save trigger and waits for the result. The error covers
// both the editor save and storing the snapshot.
func (s *Session) Save(ctx context.Context) (models.Snapshot, error) {
	if s.Trigger.Bound() {
		return s.Trigger.Invoke(ctx)
	}
	snap, err := s.store(ctx)
	s.report(trigger.Result{Snapshot: snap, Err: err})
	return snap, err
}

// Click fires the trigger element the way a user would and returns the
// outcome of the save it started.
func (s *Session) Click() error {
	return s.Page.Dispatch(s.manager.settings.TriggerID, dom.EventClick)
}

// Command runs a slash command against the session.
func (s *Session) Command(ctx context.Context, input string) (translate.Reply, error) {
	return s.Commands.Dispatch(ctx, input)
}

// changed runs on the editor loop.
func (s *Session) changed(c editor.Change) {
	s.changes.Add(1)
	m := s.manager
	m.publish(context.Background(), events.TopicEditorChanged, events.EditorChanged{
		SessionID: s.ID, Kind: c.Kind, BlockID: c.BlockID, Type: c.Type, Index: c.Index,
	})
	m.broadcast(EventChanged, s.ID, c)
}
