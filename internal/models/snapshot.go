// Package models defines the domain types for Blockpad.
package models

import (
	"encoding/json"
	"time"
)

// FormatVersion tags every snapshot produced by the editor.
const FormatVersion = "2.31.0"

// BlockRecord is one serialized block inside a Snapshot.
type BlockRecord struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Snapshot is the portable, point-in-time representation of a document.
// It is a value: nothing in the editor keeps a reference to it after save.
type Snapshot struct {
	Time    int64         `json:"time"`
	Blocks  []BlockRecord `json:"blocks"`
	Version string        `json:"version"`
}

// NewSnapshot returns an empty snapshot stamped with t.
func NewSnapshot(t time.Time) Snapshot {
	return Snapshot{
		Time:    t.UnixMilli(),
		Blocks:  []BlockRecord{},
		Version: FormatVersion,
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Time: s.Time, Version: s.Version, Blocks: make([]BlockRecord, len(s.Blocks))}
	for i, b := range s.Blocks {
		data := make(json.RawMessage, len(b.Data))
		copy(data, b.Data)
		out.Blocks[i] = BlockRecord{ID: b.ID, Type: b.Type, Data: data}
	}
	return out
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
