// Package storage defines the snapshot document store.
package storage

import "github.com/starford/blockpad/internal/models"

// Extension is the file extension of stored snapshot documents.
const Extension = ".json"

// Provider is the interface for document file operations.
type Provider interface {
	// List returns metadata for every snapshot document under dir (relative to root).
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the document at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the document at path (relative to root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to root).
	Move(oldPath, newPath string) error
}
