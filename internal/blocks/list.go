package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/blockpad/internal/plugin"
)

// List styles.
const (
	ListOrdered   = "ordered"
	ListUnordered = "unordered"
)

// ListOptions configures the list tool.
type ListOptions struct {
	DefaultStyle string `json:"defaultStyle"`
}

// ListData is the saved form of a list.
type ListData struct {
	Style string   `json:"style"`
	Items []string `json:"items"`
}

// List is the ordered/unordered list block tool.
type List struct{}

func (List) options(raw any) (ListOptions, error) {
	opts, err := decodeOptions("list", raw, ListOptions{DefaultStyle: ListUnordered})
	if err != nil {
		return opts, err
	}
	if !validListStyle(opts.DefaultStyle) {
		return opts, fmt.Errorf("list: unknown default style %q", opts.DefaultStyle)
	}
	return opts, nil
}

func validListStyle(s string) bool {
	return s == ListOrdered || s == ListUnordered
}

func (l List) Prepare(_ context.Context, options any) error {
	_, err := l.options(options)
	return err
}

func (l List) NewBlock(data json.RawMessage, options any) (plugin.Block, error) {
	opts, err := l.options(options)
	if err != nil {
		return nil, err
	}
	return newDataBlock(&dataBlock[ListData, ListOptions]{
		tool: "list",
		data: ListData{Style: opts.DefaultStyle, Items: []string{}},
		opts: opts,
		clone: func(d ListData) ListData {
			d.Items = append([]string{}, d.Items...)
			return d
		},
		validate: func(d ListData, _ ListOptions) error {
			if !validListStyle(d.Style) {
				return fmt.Errorf("unknown style %q", d.Style)
			}
			return nil
		},
		empty: func(d ListData, _ ListOptions) bool {
			for _, it := range d.Items {
				if strings.TrimSpace(it) != "" {
					return false
				}
			}
			return true
		},
	}, data)
}
