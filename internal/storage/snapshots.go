package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/models"
)

// Checksum fingerprints stored document bytes as hex SHA-256. Listing,
// indexing and conditional updates all compare against it.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentPath maps a document name to its relative path.
func DocumentPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("storage: empty document name")
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	return name, nil
}

// SaveSnapshot writes snap as indented JSON under name.
func SaveSnapshot(p Provider, name string, snap models.Snapshot) (string, error) {
	path, err := DocumentPath(name)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode %s: %w", path, err)
	}
	if err := p.Write(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// LoadSnapshot reads the document stored under name. A missing document
// yields an error wrapping apperr.ErrNotFound.
func LoadSnapshot(p Provider, name string) (models.Snapshot, error) {
	path, err := DocumentPath(name)
	if err != nil {
		return models.Snapshot{}, err
	}
	data, err := p.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Snapshot{}, fmt.Errorf("storage: %s: %w", path, apperr.ErrNotFound)
		}
		return models.Snapshot{}, err
	}
	return DecodeSnapshot(data)
}

// DecodeSnapshot parses a stored document.
func DecodeSnapshot(data []byte) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("storage: decode snapshot: %w", err)
	}
	if snap.Blocks == nil {
		snap.Blocks = []models.BlockRecord{}
	}
	return snap, nil
}
