package session

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/blocks"
	"github.com/starford/blockpad/internal/editor"
	"github.com/starford/blockpad/internal/events"
	"github.com/starford/blockpad/internal/index"
	"github.com/starford/blockpad/internal/mirror"
	"github.com/starford/blockpad/internal/plugin"
	"github.com/starford/blockpad/internal/storage"
	"github.com/starford/blockpad/internal/testutil"
	"github.com/starford/blockpad/internal/translate"
)

type env struct {
	manager *Manager
	store   storage.Provider
	backup  storage.Provider
	db      *index.DB
	rec     *events.Recorder
}

func setup(t *testing.T, tr translate.Translator) *env {
	t.Helper()
	_, store := testutil.TestStore(t)
	return setupWith(t, tr, store, testutil.Tools())
}

func setupWith(t *testing.T, tr translate.Translator, store storage.Provider, tools *plugin.Table) *env {
	t.Helper()
	_, backup := testutil.TestStore(t)
	db := testutil.TestDB(t)
	rec := &events.Recorder{}

	m := NewManager(Settings{
		HolderID:  "editorjs",
		TriggerID: "save-button",
		OutputID:  "output",
		Editor: editor.Config{
			Tools:         tools,
			InlineToolbar: blocks.DefaultInlineToolbar,
			DefaultBlock:  "paragraph",
		},
	}, Deps{
		Store:      store,
		Index:      db,
		Events:     rec,
		Mirror:     mirror.New(testutil.QuietLogger(), mirror.StoreDestination{Store: backup}),
		Translator: tr,
		Logger:     testutil.QuietLogger(),
	})
	t.Cleanup(func() { m.CloseAll(context.Background()) })
	return &env{manager: m, store: store, backup: backup, db: db, rec: rec}
}

func write(t *testing.T, s *Session, text string) {
	t.Helper()
	ctx := context.Background()
	infos, err := s.Editor.Blocks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(map[string]string{"text": text})
	if err := s.Editor.Update(ctx, infos[0].ID, data); err != nil {
		t.Fatal(err)
	}
}

func TestOpenEditSave(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()

	s, err := e.manager.Open(ctx, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Editor.Active() || !s.Trigger.Bound() {
		t.Fatal("expected an active editor with a bound trigger")
	}
	write(t, s, "Hello #intro")
	if !s.Dirty() {
		t.Error("expected dirty session after edit")
	}

	snap, err := s.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Blocks) != 1 || snap.Blocks[0].Type != "paragraph" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if s.Dirty() {
		t.Error("session still dirty after save")
	}
	if !strings.Contains(s.Output(), `"text": "Hello #intro"`) {
		t.Errorf("output = %q", s.Output())
	}

	stored, err := storage.LoadSnapshot(e.store, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Blocks) != 1 {
		t.Errorf("stored blocks = %d", len(stored.Blocks))
	}
	if _, err := e.backup.Read("welcome.json"); err != nil {
		t.Errorf("mirror copy missing: %v", err)
	}

	row, err := e.db.GetDocument("welcome.json")
	if err != nil {
		t.Fatal(err)
	}
	if row.Title != "Hello #intro" || !slices.Contains(row.Tags, "intro") {
		t.Errorf("indexed row = %+v", row)
	}

	topics := e.rec.Topics()
	for _, want := range []string{events.TopicSessionOpened, events.TopicEditorReady, events.TopicEditorChanged, events.TopicEditorSaved} {
		if !slices.Contains(topics, want) {
			t.Errorf("missing event %s in %v", want, topics)
		}
	}
}

func TestReopenRestoresDocument(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()

	s, err := e.manager.Open(ctx, "notes")
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "persisted")
	if _, err := s.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.manager.Close(ctx, s.ID); err != nil {
		t.Fatal(err)
	}

	again, err := e.manager.Open(ctx, "notes")
	if err != nil {
		t.Fatal(err)
	}
	snap, err := again.Editor.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Blocks) != 1 || !strings.Contains(string(snap.Blocks[0].Data), "persisted") {
		t.Errorf("restored snapshot = %+v", snap)
	}
}

func TestClickSaves(t *testing.T) {
	e := setup(t, nil)
	s, err := e.manager.Open(context.Background(), "clicked")
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "via click")
	if err := s.Click(); err != nil {
		t.Fatal(err)
	}
	res, ok := s.Trigger.Last()
	if !ok || res.Err != nil {
		t.Fatalf("last result = %+v, %v", res, ok)
	}
	if _, err := e.store.Read("clicked.json"); err != nil {
		t.Errorf("document not stored: %v", err)
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()
	s, err := e.manager.Open(ctx, "broken")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Editor.Insert(ctx, "image", json.RawMessage(`{"url":"relative/path.png"}`), -1); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Save(ctx); !errors.Is(err, editor.ErrSave) {
		t.Fatalf("expected ErrSave, got %v", err)
	}
	if s.Output() != "" {
		t.Errorf("output changed on failure: %q", s.Output())
	}
	if info := s.Info(); info.LastError == "" || !info.Dirty {
		t.Errorf("info = %+v", info)
	}
	if !slices.Contains(e.rec.Topics(), events.TopicEditorSaveFail) {
		t.Errorf("missing save_failed event: %v", e.rec.Topics())
	}
	if _, err := e.store.Read("broken.json"); err == nil {
		t.Error("failed save was stored")
	}
}

// gatedTool blocks every Save until gate is closed.
type gatedTool struct{ gate chan struct{} }

func (gatedTool) Prepare(context.Context, any) error { return nil }

func (g gatedTool) NewBlock(data json.RawMessage, _ any) (plugin.Block, error) {
	return &gatedBlock{gate: g.gate, data: append(json.RawMessage(nil), data...)}, nil
}

type gatedBlock struct {
	gate chan struct{}
	data json.RawMessage
}

func (b *gatedBlock) Update(data json.RawMessage) error {
	b.data = append(json.RawMessage(nil), data...)
	return nil
}

func (b *gatedBlock) Clone() plugin.Block {
	return &gatedBlock{gate: b.gate, data: append(json.RawMessage(nil), b.data...)}
}

func (b *gatedBlock) Save(context.Context) (json.RawMessage, error) {
	<-b.gate
	return json.RawMessage(`{}`), nil
}

func (b *gatedBlock) IsEmpty() bool { return false }

func TestEditDuringSaveStaysDirty(t *testing.T) {
	gate := make(chan struct{})
	tools := plugin.Build(append(blocks.Defaults(), plugin.Short("gated", gatedTool{gate: gate}))...)
	_, store := testutil.TestStore(t)
	e := setupWith(t, nil, store, tools)
	ctx := context.Background()

	s, err := e.manager.Open(ctx, "held")
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "before")
	if _, err := s.Editor.Insert(ctx, "gated", nil, -1); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(ctx)
		done <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for s.Editor.State() != editor.StateSaving {
		if time.Now().After(deadline) {
			t.Fatal("save never started")
		}
		time.Sleep(time.Millisecond)
	}
	write(t, s, "during")
	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	stored, err := storage.LoadSnapshot(e.store, "held")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(stored.Blocks[0].Data), "before") {
		t.Fatalf("stored = %s", stored.Blocks[0].Data)
	}
	if !s.Dirty() {
		t.Fatal("edit made during the save was marked clean")
	}
	if n := e.manager.SaveDirty(ctx); n != 1 {
		t.Errorf("SaveDirty = %d, want 1", n)
	}
	if s.Dirty() {
		t.Error("still dirty after autosave")
	}
	stored, err = storage.LoadSnapshot(e.store, "held")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(stored.Blocks[0].Data), "during") {
		t.Errorf("stored after autosave = %s", stored.Blocks[0].Data)
	}
}

// failingStore refuses every write.
type failingStore struct{ storage.Provider }

func (failingStore) Write(string, []byte) error { return errors.New("disk full") }

func TestStoreFailureFailsSave(t *testing.T) {
	_, store := testutil.TestStore(t)
	e := setupWith(t, nil, failingStore{store}, testutil.Tools())
	ctx := context.Background()
	s, err := e.manager.Open(ctx, "full")
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "lost")

	if _, err := s.Save(ctx); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Save err = %v", err)
	}
	if err := s.Click(); err == nil {
		t.Error("click reported success for an unstored save")
	}
	if s.Output() != "" {
		t.Errorf("output rendered for an unstored save: %q", s.Output())
	}
	if info := s.Info(); !info.Dirty || !strings.Contains(info.LastError, "disk full") {
		t.Errorf("info = %+v", info)
	}
	if !slices.Contains(e.rec.Topics(), events.TopicEditorSaveFail) {
		t.Errorf("missing save_failed event: %v", e.rec.Topics())
	}
	if n := e.manager.SaveDirty(ctx); n != 0 {
		t.Errorf("SaveDirty = %d, want 0", n)
	}
}

func TestSaveDirty(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()
	a, err := e.manager.Open(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.manager.Open(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	write(t, a, "edited")

	if n := e.manager.SaveDirty(ctx); n != 1 {
		t.Errorf("first pass saved %d, want 1", n)
	}
	if n := e.manager.SaveDirty(ctx); n != 0 {
		t.Errorf("second pass saved %d, want 0", n)
	}
}

func TestAutosaveSchedule(t *testing.T) {
	e := setup(t, nil)
	if _, err := e.manager.StartAutosave("not a schedule"); err == nil {
		t.Error("expected invalid schedule error")
	}
	a, err := e.manager.StartAutosave("@every 1h")
	if err != nil {
		t.Fatal(err)
	}
	a.Stop(context.Background())
}

func TestGetAndClose(t *testing.T) {
	e := setup(t, nil)
	ctx := context.Background()
	if _, err := e.manager.Get("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get missing: %v", err)
	}
	s, err := e.manager.Open(ctx, "doc")
	if err != nil {
		t.Fatal(err)
	}
	if got := e.manager.List(); len(got) != 1 || got[0].ID != s.ID {
		t.Errorf("List = %+v", got)
	}
	if err := e.manager.Close(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if s.Editor.State() != editor.StateDestroyed {
		t.Errorf("state = %s", s.Editor.State())
	}
	if err := e.manager.Close(ctx, s.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second close: %v", err)
	}
	if _, err := e.manager.Open(ctx, " "); err == nil {
		t.Error("expected error for empty document name")
	}
}

type upper struct{}

func (upper) Initialized() bool { return true }

func (upper) TranslateText(_ context.Context, text, _ string, _ translate.Options) (string, error) {
	return strings.ToUpper(text), nil
}

func TestTranslateCommand(t *testing.T) {
	e := setup(t, upper{})
	ctx := context.Background()
	s, err := e.manager.Open(ctx, "letter")
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "dear reader")

	reply, err := s.Command(ctx, "/translate fr")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Snapshot == nil || !strings.Contains(string(reply.Snapshot.Blocks[0].Data), "DEAR READER") {
		t.Fatalf("reply = %+v", reply)
	}

	// The live document is untouched.
	snap, err := s.Editor.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(snap.Blocks[0].Data), "dear reader") {
		t.Errorf("editor content changed: %s", snap.Blocks[0].Data)
	}
}

func TestTranslateWithoutBackend(t *testing.T) {
	e := setup(t, translate.NewService(nil))
	s, err := e.manager.Open(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Command(context.Background(), "/translate es"); !errors.Is(err, translate.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if s.Editor.State() != editor.StateMounted {
		t.Errorf("editor state = %s", s.Editor.State())
	}
}
