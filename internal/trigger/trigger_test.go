package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/blocks"
	"github.com/starford/blockpad/internal/dom"
	"github.com/starford/blockpad/internal/editor"
	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/plugin"
)

type stubSaver struct {
	snap  models.Snapshot
	err   error
	calls int
}

func (s *stubSaver) Save(context.Context) (models.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

func newLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestClickWritesIndentedSnapshot(t *testing.T) {
	page := dom.NewPage("save-button", "output")
	logger, buf := newLogger()
	snap := models.Snapshot{Time: 1, Version: models.FormatVersion, Blocks: []models.BlockRecord{
		{ID: "a", Type: "paragraph", Data: json.RawMessage(`{"text":"Hello"}`)},
	}}
	saver := &stubSaver{snap: snap}
	trg := Bind(page, saver, "save-button", "output", logger)
	if !trg.Bound() {
		t.Fatal("trigger not bound")
	}

	if err := page.Dispatch("save-button", dom.EventClick); err != nil {
		t.Fatal(err)
	}
	out, _ := page.ElementByID("output")
	want, _ := json.MarshalIndent(snap, "", "  ")
	if out.Text() != string(want) {
		t.Fatalf("output = %s\nwant %s", out.Text(), want)
	}
	if !strings.Contains(out.Text(), "\n  \"time\": 1") {
		t.Fatalf("output is not two-space indented: %s", out.Text())
	}
	if !strings.Contains(buf.String(), `"level":"INFO"`) || !strings.Contains(buf.String(), "Hello") {
		t.Fatalf("success not logged with snapshot: %s", buf.String())
	}
	if res, ok := trg.Last(); !ok || res.Err != nil {
		t.Fatalf("last = %+v", res)
	}
}

func TestFailureLeavesOutputUnchanged(t *testing.T) {
	page := dom.NewPage("save-button", "output")
	out, _ := page.ElementByID("output")
	out.SetText("previous")
	logger, buf := newLogger()
	saver := &stubSaver{err: errors.New("block 7 refused")}
	trg := Bind(page, saver, "save-button", "output", logger)

	var got []Result
	trg.OnResult(func(r Result) { got = append(got, r) })
	if _, err := trg.Invoke(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if out.Text() != "previous" {
		t.Fatalf("output changed to %q", out.Text())
	}
	if !strings.Contains(buf.String(), `"level":"ERROR"`) || !strings.Contains(buf.String(), "block 7 refused") {
		t.Fatalf("failure not logged: %s", buf.String())
	}

	saver.err = nil
	saver.snap = models.NewSnapshot(time.Unix(0, 0))
	if _, err := trg.Invoke(context.Background()); err != nil {
		t.Fatal(err)
	}
	if out.Text() == "previous" {
		t.Fatal("second invocation did not render")
	}
	if len(got) != 2 || got[0].Err == nil || got[1].Err != nil {
		t.Fatalf("results = %+v", got)
	}
}

func TestMissingTriggerIsInert(t *testing.T) {
	page := dom.NewPage("output")
	logger, buf := newLogger()
	saver := &stubSaver{}
	trg := Bind(page, saver, "save-button", "output", logger)
	if trg.Bound() {
		t.Fatal("trigger should be inert")
	}
	if _, err := trg.Invoke(context.Background()); !errors.Is(err, apperr.ErrInactive) {
		t.Fatalf("err = %v, want ErrInactive", err)
	}
	if saver.calls != 0 || page.Mutations() != 0 || buf.Len() != 0 {
		t.Fatal("inert trigger had side effects")
	}
}

// refusingTool produces blocks that fail to save while refuse is set.
type refusingTool struct{ refuse *bool }

func (refusingTool) Prepare(context.Context, any) error { return nil }

func (r refusingTool) NewBlock(json.RawMessage, any) (plugin.Block, error) {
	return &refusingBlock{refuse: r.refuse}, nil
}

type refusingBlock struct{ refuse *bool }

func (b *refusingBlock) Update(json.RawMessage) error { return nil }
func (b *refusingBlock) Clone() plugin.Block          { return &refusingBlock{refuse: b.refuse} }
func (b *refusingBlock) IsEmpty() bool                { return false }

func (b *refusingBlock) Save(context.Context) (json.RawMessage, error) {
	if *b.refuse {
		return nil, errors.New("cannot serialize")
	}
	return json.RawMessage(`{}`), nil
}

func TestEditorSaveThroughTrigger(t *testing.T) {
	refuse := true
	page := dom.NewPage("editorjs", "save-button", "output")
	logger, buf := newLogger()
	ed, err := editor.New(context.Background(), page, editor.Config{
		Holder: "editorjs",
		Tools: plugin.Build(
			plugin.Short("paragraph", blocks.Paragraph{}),
			plugin.Short("header", blocks.Header{}),
			plugin.Short("fragile", refusingTool{refuse: &refuse}),
		),
		DefaultBlock: "paragraph",
	}, editor.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Destroy()

	ctx := context.Background()
	infos, err := ed.Blocks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := ed.Update(ctx, infos[0].ID, json.RawMessage(`{"text":"Hello"}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := ed.Insert(ctx, "fragile", nil, -1); err != nil {
		t.Fatal(err)
	}

	trg := Bind(page, ed, "save-button", "output", logger)
	out, _ := page.ElementByID("output")
	if err := page.Dispatch("save-button", dom.EventClick); !errors.Is(err, editor.ErrSave) {
		t.Fatalf("dispatch err = %v, want ErrSave", err)
	}
	if out.Text() != "" {
		t.Fatalf("output written on failure: %s", out.Text())
	}
	res, _ := trg.Last()
	if !errors.Is(res.Err, editor.ErrSave) {
		t.Fatalf("err = %v, want ErrSave", res.Err)
	}
	if !strings.Contains(buf.String(), "cannot serialize") {
		t.Fatalf("failure not logged: %s", buf.String())
	}

	refuse = false
	if err := page.Dispatch("save-button", dom.EventClick); err != nil {
		t.Fatal(err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal([]byte(out.Text()), &snap); err != nil {
		t.Fatalf("output is not a snapshot: %v", err)
	}
	if len(snap.Blocks) != 2 || snap.Blocks[0].Type != "paragraph" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	var data bytes.Buffer
	if err := json.Compact(&data, snap.Blocks[0].Data); err != nil {
		t.Fatal(err)
	}
	if data.String() != `{"text":"Hello"}` {
		t.Fatalf("paragraph data = %s", data.String())
	}
}
