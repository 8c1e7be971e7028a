package mirror

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/blockpad/internal/storage"
)

type failingDestination struct{}

func (failingDestination) Write(context.Context, string, []byte) error {
	return errors.New("bucket unavailable")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMirrorWritesEveryDestination(t *testing.T) {
	backup, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := New(quietLogger(), failingDestination{}, StoreDestination{Store: backup})

	err = m.Write(context.Background(), "notes/a.json", []byte(`{"blocks":[]}`))
	if err == nil {
		t.Fatal("expected joined error from failing destination")
	}
	got, readErr := backup.Read("notes/a.json")
	if readErr != nil {
		t.Fatalf("healthy destination skipped: %v", readErr)
	}
	if string(got) != `{"blocks":[]}` {
		t.Errorf("content = %q", got)
	}
}

func TestDisabledMirror(t *testing.T) {
	var m *Mirror
	if m.Enabled() {
		t.Fatal("nil mirror should be disabled")
	}
	if err := m.Write(context.Background(), "a.json", nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if New(nil).Enabled() {
		t.Fatal("mirror without destinations should be disabled")
	}
}

func TestS3ObjectKey(t *testing.T) {
	d := &S3Destination{bucket: "b", prefix: "blockpad/docs"}
	if got := d.ObjectKey("a/b.json"); got != "blockpad/docs/a/b.json" {
		t.Errorf("key = %q", got)
	}
	d.prefix = ""
	if got := d.ObjectKey("a.json"); got != "a.json" {
		t.Errorf("key = %q", got)
	}
}
