package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/plugin"
)

// stubBlock holds a record whose type is not registered. It saves its
// data unchanged so nothing is lost on a round trip.
type stubBlock struct {
	data json.RawMessage
}

func (s *stubBlock) Update(data json.RawMessage) error {
	s.data = append(json.RawMessage(nil), data...)
	return nil
}

func (s *stubBlock) Clone() plugin.Block {
	return &stubBlock{data: append(json.RawMessage(nil), s.data...)}
}

func (s *stubBlock) Save(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.data) == 0 {
		return json.RawMessage("{}"), nil
	}
	return append(json.RawMessage(nil), s.data...), nil
}

func (s *stubBlock) IsEmpty() bool { return false }

func (e *Editor) stub(rec models.BlockRecord) (*liveBlock, error) {
	id := rec.ID
	if id == "" {
		var err error
		if id, err = e.newID(); err != nil {
			return nil, fmt.Errorf("generate block id: %w", err)
		}
	}
	return &liveBlock{id: id, typ: rec.Type, block: &stubBlock{data: append(json.RawMessage(nil), rec.Data...)}}, nil
}

func (e *Editor) find(id string) (int, error) {
	i := e.indexOf(id)
	if i < 0 {
		return -1, fmt.Errorf("block %q: %w", id, apperr.ErrNotFound)
	}
	return i, nil
}

// ensureDefault keeps at least one block in the document.
func (e *Editor) ensureDefault() error {
	if len(e.blocks) > 0 {
		return nil
	}
	b, err := e.newBlock("", e.cfg.DefaultBlock, nil)
	if err != nil {
		return err
	}
	e.blocks = append(e.blocks, b)
	return nil
}

// Insert adds a block of type typ at index and returns its id. An empty
// typ means the default block type; an index outside the document appends.
func (e *Editor) Insert(ctx context.Context, typ string, data json.RawMessage, index int) (string, error) {
	if typ == "" {
		typ = e.cfg.DefaultBlock
	}
	var id string
	err := e.do(ctx, func() error {
		b, err := e.newBlock("", typ, data)
		if err != nil {
			return err
		}
		if index < 0 || index > len(e.blocks) {
			index = len(e.blocks)
		}
		e.blocks = append(e.blocks, nil)
		copy(e.blocks[index+1:], e.blocks[index:])
		e.blocks[index] = b
		id = b.id
		e.render()
		e.emit(Change{Kind: ChangeAdded, BlockID: b.id, Type: b.typ, Index: index})
		return nil
	})
	return id, err
}

// Update replaces the data of block id. Fields missing from data keep
// their current values.
func (e *Editor) Update(ctx context.Context, id string, data json.RawMessage) error {
	return e.do(ctx, func() error {
		i, err := e.find(id)
		if err != nil {
			return err
		}
		b := e.blocks[i]
		if err := guard(func() error { return b.block.Update(data) }); err != nil {
			return fmt.Errorf("block %s (%s): %w", b.id, b.typ, err)
		}
		e.render()
		e.emit(Change{Kind: ChangeChanged, BlockID: b.id, Type: b.typ, Index: i})
		return nil
	})
}

// Delete removes block id. Deleting the last block leaves a fresh
// default block behind.
func (e *Editor) Delete(ctx context.Context, id string) error {
	return e.do(ctx, func() error {
		i, err := e.find(id)
		if err != nil {
			return err
		}
		b := e.blocks[i]
		e.blocks = append(e.blocks[:i], e.blocks[i+1:]...)
		if e.focused == id {
			e.focused = ""
		}
		if err := e.ensureDefault(); err != nil {
			return err
		}
		e.render()
		e.emit(Change{Kind: ChangeRemoved, BlockID: b.id, Type: b.typ, Index: i})
		return nil
	})
}

// Move places block id at index to, clamped to the document bounds.
func (e *Editor) Move(ctx context.Context, id string, to int) error {
	return e.do(ctx, func() error {
		from, err := e.find(id)
		if err != nil {
			return err
		}
		to = max(0, min(to, len(e.blocks)-1))
		if from == to {
			return nil
		}
		b := e.blocks[from]
		e.blocks = append(e.blocks[:from], e.blocks[from+1:]...)
		e.blocks = append(e.blocks[:to], append([]*liveBlock{b}, e.blocks[to:]...)...)
		e.render()
		e.emit(Change{Kind: ChangeMoved, BlockID: b.id, Type: b.typ, Index: to})
		return nil
	})
}

// Render replaces the whole document with snap. On error the document is
// left as it was.
func (e *Editor) Render(ctx context.Context, snap models.Snapshot) error {
	return e.do(ctx, func() error {
		prev, prevFocus := e.blocks, e.focused
		if err := e.load(&snap); err != nil {
			e.blocks, e.focused = prev, prevFocus
			return err
		}
		e.render()
		e.emit(Change{Kind: ChangeRendered, Index: len(e.blocks)})
		return nil
	})
}

// Clear empties the document down to a single default block.
func (e *Editor) Clear(ctx context.Context) error {
	return e.Render(ctx, models.Snapshot{})
}

// Focus moves the caret to block id.
func (e *Editor) Focus(ctx context.Context, id string) error {
	return e.do(ctx, func() error {
		if _, err := e.find(id); err != nil {
			return err
		}
		e.focused = id
		e.render()
		return nil
	})
}

// Blocks lists the live blocks in document order.
func (e *Editor) Blocks(ctx context.Context) ([]BlockInfo, error) {
	var out []BlockInfo
	err := e.do(ctx, func() error {
		out = make([]BlockInfo, 0, len(e.blocks))
		for _, b := range e.blocks {
			out = append(out, BlockInfo{
				ID:      b.id,
				Type:    b.typ,
				Empty:   b.block.IsEmpty(),
				Focused: b.id == e.focused,
				Inline:  append([]string(nil), b.inline...),
			})
		}
		return nil
	})
	return out, err
}
