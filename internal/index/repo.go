package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/blockpad/internal/apperr"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Types     []string  `json:"types"`
	Tags      []string  `json:"tags"`
	Blocks    int       `json:"blocks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDocument inserts or replaces a document, its FTS entry and its
// outgoing links within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	typesJSON, _ := json.Marshal(nonNil(d.Types))
	tagsJSON, _ := json.Marshal(nonNil(d.Tags))
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, types, tags, blocks, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			types      = excluded.types,
			tags       = excluded.tags,
			blocks     = excluded.blocks,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, string(typesJSON), string(tagsJSON), d.Blocks, body, d.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Path, d.Title, body, d.Tags); err != nil {
		return err
	}

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, d.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(d.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry and outgoing links.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

const rowColumns = `path, title, checksum, types, tags, blocks, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (DocumentRow, error) {
	var (
		d           DocumentRow
		types, tags string
	)
	if err := s.Scan(&d.Path, &d.Title, &d.Checksum, &types, &tags, &d.Blocks, &d.UpdatedAt); err != nil {
		return d, err
	}
	_ = json.Unmarshal([]byte(types), &d.Types)
	_ = json.Unmarshal([]byte(tags), &d.Tags)
	return d, nil
}

// GetDocument returns one indexed document.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	d, err := scanRow(db.conn.QueryRow(`SELECT `+rowColumns+` FROM documents WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: document %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns a page of documents, most recently updated first,
// and the total number of matches. A non-empty blockType keeps only
// documents containing that block type.
func (db *DB) ListDocuments(limit, offset int, blockType string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := "", []any{}
	if blockType != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(documents.types) WHERE json_each.value = ?)`
		args = append(args, blockType)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+rowColumns+` FROM documents `+where+`
		ORDER BY updated_at DESC, path ASC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		d, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed document path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// LinkedFrom returns all document paths that link to the given URL.
func (db *DB) LinkedFrom(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: linked from: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
