// Package events publishes session and document lifecycle events to an
// external bus.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event topic constants
const (
	TopicSessionOpened   = "blockpad.session.opened"
	TopicSessionClosed   = "blockpad.session.closed"
	TopicEditorReady     = "blockpad.editor.ready"
	TopicEditorChanged   = "blockpad.editor.changed"
	TopicEditorSaved     = "blockpad.editor.saved"
	TopicEditorSaveFail  = "blockpad.editor.save_failed"
	TopicDocumentCreated = "blockpad.document.created"
	TopicDocumentUpdated = "blockpad.document.updated"
	TopicDocumentDeleted = "blockpad.document.deleted"
)

// Event types

type SessionOpened struct {
	SessionID string `json:"session_id"`
	Document  string `json:"document"`
	Active    bool   `json:"active"`
}

type SessionClosed struct {
	SessionID string `json:"session_id"`
}

type EditorReady struct {
	SessionID string `json:"session_id"`
	Blocks    int    `json:"blocks"`
}

type EditorChanged struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	BlockID   string `json:"block_id,omitempty"`
	Type      string `json:"type,omitempty"`
	Index     int    `json:"index"`
}

type EditorSaved struct {
	SessionID string          `json:"session_id"`
	Document  string          `json:"document"`
	Blocks    int             `json:"blocks"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	SavedAt   time.Time       `json:"saved_at"`
}

type EditorSaveFailed struct {
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

type DocumentChanged struct {
	Path string `json:"path"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// TopicForDocument maps a watcher change kind to its topic.
func TopicForDocument(kind string) (string, bool) {
	switch kind {
	case "created":
		return TopicDocumentCreated, true
	case "updated":
		return TopicDocumentUpdated, true
	case "deleted":
		return TopicDocumentDeleted, true
	}
	return "", false
}
