package index

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// doc returns a stored snapshot with a header and a paragraph.
func doc(title string) string {
	return fmt.Sprintf(`{"time":1,"version":"2.31.0","blocks":[`+
		`{"id":"h","type":"header","data":{"text":%q,"level":1}},`+
		`{"id":"p","type":"paragraph","data":{"text":"body of %s"}}]}`, title, title)
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		Path:      "hello.json",
		Title:     "Hello World",
		Checksum:  "abc123",
		Types:     []string{"header", "paragraph"},
		Tags:      []string{"go"},
		Blocks:    2,
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDocument(row, "hello body", []string{"https://example.com"}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	cs, err := db.GetChecksum("hello.json")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
	got, err := db.GetDocument("hello.json")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "Hello World" || got.Blocks != 2 || len(got.Types) != 2 || got.UpdatedAt.IsZero() {
		t.Errorf("got %+v", got)
	}
	if _, err := db.GetDocument("missing.json"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLinkedFrom(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "a.json", Checksum: "1"}, "body", []string{"https://x.dev"})
	_ = db.UpsertDocument(DocumentRow{Path: "c.json", Checksum: "2"}, "body", []string{"https://x.dev"})

	src, err := db.LinkedFrom("https://x.dev")
	if err != nil {
		t.Fatalf("LinkedFrom: %v", err)
	}
	if len(src) != 2 || src[0] != "a.json" {
		t.Fatalf("sources = %v", src)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "del.json", Checksum: "x"}, "body", []string{"https://t.dev"})

	if err := db.DeleteDocument("del.json"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del.json")
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	src, _ := db.LinkedFrom("https://t.dev")
	if len(src) != 0 {
		t.Errorf("expected no links after delete, got %d", len(src))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "up.json", Title: "Old", Checksum: "1"}, "old body", []string{"https://x"})
	_ = db.UpsertDocument(DocumentRow{Path: "up.json", Title: "New", Checksum: "2"}, "new body", []string{"https://y"})

	cs, _ := db.GetChecksum("up.json")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if src, _ := db.LinkedFrom("https://x"); len(src) != 0 {
		t.Error("old link should be removed on upsert")
	}
	if src, _ := db.LinkedFrom("https://y"); len(src) != 1 {
		t.Error("new link should exist")
	}
}

func TestListDocuments(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = db.UpsertDocument(DocumentRow{Path: "a.json", Types: []string{"paragraph"}, UpdatedAt: base}, "", nil)
	_ = db.UpsertDocument(DocumentRow{Path: "b.json", Types: []string{"header", "paragraph"}, UpdatedAt: base.Add(time.Hour)}, "", nil)
	_ = db.UpsertDocument(DocumentRow{Path: "c.json", Types: []string{"table"}, UpdatedAt: base.Add(2 * time.Hour)}, "", nil)

	rows, total, err := db.ListDocuments(2, 0, "")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 3 || len(rows) != 2 || rows[0].Path != "c.json" {
		t.Fatalf("rows = %+v total = %d", rows, total)
	}

	rows, total, err = db.ListDocuments(10, 0, "paragraph")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].Path != "b.json" {
		t.Fatalf("filtered rows = %+v total = %d", rows, total)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "s.json", Title: "Search Me", Checksum: "1"}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.json" {
		t.Errorf("search results = %+v, want 1 hit for s.json", results)
	}
}

func TestSync(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	_ = store.Write("one.json", []byte(doc("One")))
	_ = store.Write("two.json", []byte(doc("Two")))
	_ = store.Write("broken.json", []byte("not json"))
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, err := db.GetDocument("one.json")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "One" || got.Blocks != 2 {
		t.Errorf("got %+v", got)
	}
	if _, err := db.GetDocument("broken.json"); err == nil {
		t.Error("unparseable document should not be indexed")
	}

	_ = store.Delete("two.json")
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	paths, _ := db.AllPaths()
	if _, ok := paths["two.json"]; ok || len(paths) != 1 {
		t.Errorf("paths = %v", paths)
	}
}
