// Package blocks provides the built-in block and inline tools.
//
// Every block tool stores its state as a plain data struct, validates it
// only when the block is saved, and decodes its own options from either
// its typed Options struct or a generic map (as read from config).
package blocks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/blockpad/internal/plugin"
)

// dataBlock is the shared plugin.Block implementation for tools whose
// state is a single JSON-encodable struct.
type dataBlock[D, O any] struct {
	tool     string
	data     D
	opts     O
	clone    func(D) D
	validate func(D, O) error
	empty    func(D, O) bool
	// fill derives computed fields after every update.
	fill func(D, O) D
}

func (b *dataBlock[D, O]) Update(raw json.RawMessage) error {
	d := b.clone(b.data)
	if err := json.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("%s: decode data: %w", b.tool, err)
	}
	if b.fill != nil {
		d = b.fill(d, b.opts)
	}
	b.data = d
	return nil
}

func (b *dataBlock[D, O]) Clone() plugin.Block {
	c := *b
	c.data = b.clone(b.data)
	return &c
}

func (b *dataBlock[D, O]) Save(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.validate != nil {
		if err := b.validate(b.data, b.opts); err != nil {
			return nil, fmt.Errorf("%s: %w", b.tool, err)
		}
	}
	out, err := json.Marshal(b.data)
	if err != nil {
		return nil, fmt.Errorf("%s: encode data: %w", b.tool, err)
	}
	return out, nil
}

func (b *dataBlock[D, O]) IsEmpty() bool {
	if b.empty == nil {
		return false
	}
	return b.empty(b.data, b.opts)
}

// newDataBlock decodes raw (when present) on top of initial.
func newDataBlock[D, O any](b *dataBlock[D, O], raw json.RawMessage) (plugin.Block, error) {
	if len(raw) > 0 && string(raw) != "null" {
		if err := b.Update(raw); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// decodeOptions interprets an opaque options value for one tool.
func decodeOptions[O any](tool string, raw any, defaults O) (O, error) {
	switch v := raw.(type) {
	case nil:
		return defaults, nil
	case O:
		return v, nil
	case *O:
		if v == nil {
			return defaults, nil
		}
		return *v, nil
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return defaults, fmt.Errorf("%s: encode options: %w", tool, err)
	}
	out := defaults
	if err := json.Unmarshal(buf, &out); err != nil {
		return defaults, fmt.Errorf("%s: decode options: %w", tool, err)
	}
	return out, nil
}

func same[D any](d D) D { return d }

// Catalog returns every built-in tool keyed by its catalog name.
func Catalog() map[string]plugin.Tool {
	return map[string]plugin.Tool{
		"paragraph":  Paragraph{},
		"header":     Header{},
		"list":       List{},
		"quote":      Quote{},
		"delimiter":  Delimiter{},
		"code":       Code{},
		"table":      Table{},
		"embed":      Embed{},
		"image":      Image{},
		"marker":     Marker{},
		"inlineCode": InlineCode{},
	}
}

// DefaultInlineToolbar is the global inline command set of the stock setup.
var DefaultInlineToolbar = []string{"link", "marker", "bold", "italic"}

// Defaults returns the stock tool declarations.
func Defaults() []plugin.Entry {
	return []plugin.Entry{
		plugin.Full("paragraph", Paragraph{}, plugin.Enabled(), ParagraphOptions{Placeholder: "Start typing…"}),
		plugin.Full("header", Header{}, plugin.Only("link"), HeaderOptions{Placeholder: "Enter a header"}),
		plugin.Full("list", List{}, plugin.Enabled(), ListOptions{DefaultStyle: ListUnordered}),
		plugin.Full("quote", Quote{}, plugin.Enabled(), nil),
		plugin.Short("delimiter", Delimiter{}),
		plugin.Short("inlineCode", InlineCode{}),
		plugin.Short("code", Code{}),
		plugin.Short("table", Table{}),
		plugin.Short("marker", Marker{}),
		plugin.Full("embed", Embed{}, plugin.Enabled(), EmbedOptions{Services: map[string]bool{
			"youtube": true, "vimeo": true, "codepen": true,
		}}),
		plugin.Full("image", Image{}, plugin.Disabled(), nil),
	}
}
