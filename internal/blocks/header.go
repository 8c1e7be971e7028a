package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/starford/blockpad/internal/plugin"
)

// HeaderOptions configures the header tool.
type HeaderOptions struct {
	Placeholder  string `json:"placeholder"`
	Levels       []int  `json:"levels"`
	DefaultLevel int    `json:"defaultLevel"`
}

// HeaderData is the saved form of a header.
type HeaderData struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Header is the heading block tool.
type Header struct{}

var defaultHeaderLevels = []int{1, 2, 3, 4, 5, 6}

func (Header) options(raw any) (HeaderOptions, error) {
	opts, err := decodeOptions("header", raw, HeaderOptions{})
	if err != nil {
		return opts, err
	}
	if len(opts.Levels) == 0 {
		opts.Levels = append([]int(nil), defaultHeaderLevels...)
	}
	if opts.DefaultLevel == 0 {
		opts.DefaultLevel = opts.Levels[0]
		if slices.Contains(opts.Levels, 2) {
			opts.DefaultLevel = 2
		}
	}
	if !slices.Contains(opts.Levels, opts.DefaultLevel) {
		return opts, fmt.Errorf("header: default level %d not in levels %v", opts.DefaultLevel, opts.Levels)
	}
	return opts, nil
}

func (h Header) Prepare(_ context.Context, options any) error {
	_, err := h.options(options)
	return err
}

func (h Header) NewBlock(data json.RawMessage, options any) (plugin.Block, error) {
	opts, err := h.options(options)
	if err != nil {
		return nil, err
	}
	return newDataBlock(&dataBlock[HeaderData, HeaderOptions]{
		tool:  "header",
		data:  HeaderData{Level: opts.DefaultLevel},
		opts:  opts,
		clone: same[HeaderData],
		validate: func(d HeaderData, o HeaderOptions) error {
			if !slices.Contains(o.Levels, d.Level) {
				return fmt.Errorf("level %d not in allowed levels %v", d.Level, o.Levels)
			}
			return nil
		},
		empty: func(d HeaderData, _ HeaderOptions) bool {
			return strings.TrimSpace(d.Text) == ""
		},
	}, data)
}
