//go:build sqlite_fts5

package index

import (
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents_fts`).Scan(&count); err != nil {
		t.Fatalf("documents_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{Path: "fts.json", Title: "FTS Document", Checksum: "f1", Tags: []string{"search"}}
	if err := db.UpsertDocument(row, "Blockpad provides powerful full-text search capabilities.", nil); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts.json" {
		t.Errorf("path = %q", results[0].Path)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "gone.json", Checksum: "g"}, "vanishing content", nil)
	_ = db.DeleteDocument("gone.json")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.json" {
			t.Error("deleted document still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "evo.json", Title: "Old", Checksum: "1"}, "original text", nil)
	_ = db.UpsertDocument(DocumentRow{Path: "evo.json", Title: "New", Checksum: "2"}, "replacement text", nil)

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
