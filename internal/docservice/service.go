// Package docservice coordinates the snapshot store and the search index
// for stored documents.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/index"
	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/storage"
)

// DocumentDetail is the full representation of a stored document.
type DocumentDetail struct {
	Path       string          `json:"path"`
	Title      string          `json:"title"`
	Checksum   string          `json:"checksum"`
	Types      []string        `json:"types"`
	Tags       []string        `json:"tags"`
	Snapshot   models.Snapshot `json:"snapshot"`
	LinkedFrom []string        `json:"linked_from"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Types     []string  `json:"types"`
	Tags      []string  `json:"tags"`
	Blocks    int       `json:"blocks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    index.DocumentIndex
}

// NewService creates a new document service.
func NewService(store storage.Provider, db index.DocumentIndex) *Service {
	return &Service{store: store, db: db}
}

// GetDocument reads a stored snapshot and enriches it from the index.
func (s *Service) GetDocument(_ context.Context, name string) (*DocumentDetail, error) {
	path, err := storage.DocumentPath(name)
	if err != nil {
		return nil, err
	}
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.detail(path, data)
}

// CreateDocument stores snap under a new name.
func (s *Service) CreateDocument(_ context.Context, name string, snap models.Snapshot) (*DocumentDetail, error) {
	path, err := storage.DocumentPath(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	return s.write(path, snap)
}

// UpdateDocument replaces a stored snapshot. A non-empty ifMatch must equal
// the checksum of the current content.
func (s *Service) UpdateDocument(_ context.Context, name string, snap models.Snapshot, ifMatch string) (*DocumentDetail, error) {
	path, err := storage.DocumentPath(name)
	if err != nil {
		return nil, err
	}
	existing, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != storage.Checksum(existing) {
		return nil, apperr.ErrConflict
	}
	return s.write(path, snap)
}

// DeleteDocument removes a document from storage and index.
func (s *Service) DeleteDocument(_ context.Context, name string) error {
	path, err := storage.DocumentPath(name)
	if err != nil {
		return err
	}
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteDocument(path)
}

// RenameDocument moves a stored document to a new name and re-indexes it
// there.
func (s *Service) RenameDocument(_ context.Context, from, to string) (*DocumentDetail, error) {
	oldPath, err := storage.DocumentPath(from)
	if err != nil {
		return nil, err
	}
	newPath, err := storage.DocumentPath(to)
	if err != nil {
		return nil, err
	}
	if _, err := s.read(oldPath); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(newPath); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Move(oldPath, newPath); err != nil {
		return nil, err
	}
	if err := s.db.DeleteDocument(oldPath); err != nil {
		return nil, err
	}
	data, err := s.read(newPath)
	if err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, newPath, data); err != nil {
		return nil, err
	}
	return s.detail(newPath, data)
}

// ListDocuments returns a page of documents, optionally only those
// containing blockType.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, blockType string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, blockType)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Types:     nonNilSlice(r.Types),
			Tags:      nonNilSlice(r.Tags),
			Blocks:    r.Blocks,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	return nonNilSlice(results), err
}

// LinkedFrom returns the documents whose blocks link to target.
func (s *Service) LinkedFrom(_ context.Context, target string) ([]string, error) {
	return s.db.LinkedFrom(target)
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

func (s *Service) write(path string, snap models.Snapshot) (*DocumentDetail, error) {
	if snap.Blocks == nil {
		snap.Blocks = []models.BlockRecord{}
	}
	if snap.Version == "" {
		snap.Version = models.FormatVersion
	}
	if _, err := storage.SaveSnapshot(s.store, path, snap); err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, path, data); err != nil {
		return nil, err
	}
	return s.detail(path, data)
}

// detail builds a DocumentDetail from raw data without re-reading the file.
func (s *Service) detail(path string, data []byte) (*DocumentDetail, error) {
	snap, err := storage.DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	d := &DocumentDetail{
		Path:     path,
		Checksum: storage.Checksum(data),
		Snapshot: snap,
		Types:    []string{},
		Tags:     []string{},
	}
	if row, err := s.db.GetDocument(path); err == nil {
		d.Title = row.Title
		d.Types = nonNilSlice(row.Types)
		d.Tags = nonNilSlice(row.Tags)
		d.UpdatedAt = row.UpdatedAt
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	linked, err := s.db.LinkedFrom(path)
	if err != nil {
		return nil, err
	}
	d.LinkedFrom = nonNilSlice(linked)
	return d, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
