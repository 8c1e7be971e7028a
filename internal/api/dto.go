package api

import (
	"encoding/json"

	"github.com/starford/blockpad/internal/dom"
	"github.com/starford/blockpad/internal/editor"
	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/plugin"
	"github.com/starford/blockpad/internal/session"
)

// DocumentRequest is the request body for creating or replacing a stored
// document.
type DocumentRequest struct {
	Path     string          `json:"path,omitempty" example:"welcome"`
	Snapshot models.Snapshot `json:"snapshot" validate:"required"`
}

// RenameRequest moves a stored document.
type RenameRequest struct {
	Path string `json:"path" example:"archive/welcome"`
}

// OpenSessionRequest opens an editing session on a document.
type OpenSessionRequest struct {
	Document string `json:"document" example:"welcome" validate:"required"`
}

// SessionDetail is a session summary with its live blocks.
type SessionDetail struct {
	session.Info
	Blocks []editor.BlockInfo `json:"blocks"`
}

// InsertBlockRequest adds a block. An empty Type means the default block.
type InsertBlockRequest struct {
	Type  string          `json:"type,omitempty" example:"paragraph"`
	Data  json.RawMessage `json:"data,omitempty"`
	Index *int            `json:"index,omitempty"`
}

// UpdateBlockRequest replaces block data.
type UpdateBlockRequest struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

// MoveBlockRequest moves a block to Index.
type MoveBlockRequest struct {
	Index int `json:"index"`
}

// CommandRequest runs a slash command such as "/translate fr".
type CommandRequest struct {
	Input string `json:"input" example:"/translate fr" validate:"required"`
}

// OutputResponse is the current content of the output element.
type OutputResponse struct {
	Output string `json:"output"`
}

// PageResponse is the mount element's rendered structure.
type PageResponse struct {
	Holder   string     `json:"holder"`
	Children []dom.Node `json:"children"`
}

// BlockType describes one registered tool.
type BlockType struct {
	plugin.Descriptor
	Block bool `json:"block"`
}
