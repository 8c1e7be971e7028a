// Package testutil provides shared test helpers for setting up document
// stores, index databases and editor tool tables.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/blockpad/internal/blocks"
	"github.com/starford/blockpad/internal/index"
	"github.com/starford/blockpad/internal/plugin"
	"github.com/starford/blockpad/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "blockpad-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary snapshot directory with a storage.Provider.
func TestStore(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Tools returns the built-in tool table.
func Tools() *plugin.Table {
	return plugin.Build(blocks.Defaults()...)
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
