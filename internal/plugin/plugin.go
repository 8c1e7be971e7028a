// Package plugin declares block-type tools and the descriptor table an
// editor is built from.
package plugin

import (
	"context"
	"encoding/json"
)

// Tool is the implementation behind a descriptor. The table never looks
// inside it; only the editor calls Prepare, once per mount, with the
// descriptor's options.
type Tool interface {
	Prepare(ctx context.Context, options any) error
}

// BlockTool is a Tool that produces document blocks. Tools that do not
// implement it are inline tools and only contribute an inline command.
type BlockTool interface {
	Tool
	// NewBlock creates a live block. data is nil for a fresh, empty block.
	NewBlock(data json.RawMessage, options any) (Block, error)
}

// Block is the live, editable state of one document block.
type Block interface {
	// Update replaces the block's state with data.
	Update(data json.RawMessage) error
	// Clone returns a detached copy that later edits cannot reach.
	Clone() Block
	// Save serializes the block. It may be slow and is called off the
	// editor loop on a clone.
	Save(ctx context.Context) (json.RawMessage, error)
	// IsEmpty reports whether the block has nothing worth saving.
	IsEmpty() bool
}

// Descriptor is the resolved configuration of one tool id.
type Descriptor struct {
	ID            string        `json:"id"`
	Tool          Tool          `json:"-"`
	InlineToolbar InlineToolbar `json:"inlineToolbar"`
	Options       any           `json:"config,omitempty"`
}

// IsBlock reports whether the descriptor's tool produces blocks.
func (d Descriptor) IsBlock() bool {
	_, ok := d.Tool.(BlockTool)
	return ok
}

// BlockTool returns the descriptor's tool as a BlockTool, if it is one.
func (d Descriptor) BlockTool() (BlockTool, bool) {
	bt, ok := d.Tool.(BlockTool)
	return bt, ok
}
