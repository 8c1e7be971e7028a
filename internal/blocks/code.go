package blocks

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/starford/blockpad/internal/plugin"
)

// CodeOptions configures the code tool.
type CodeOptions struct {
	Placeholder string `json:"placeholder"`
}

// CodeData is the saved form of a code block.
type CodeData struct {
	Code string `json:"code"`
}

// Code is the preformatted code block tool.
type Code struct{}

func (Code) Prepare(_ context.Context, options any) error {
	_, err := decodeOptions("code", options, CodeOptions{})
	return err
}

func (Code) NewBlock(data json.RawMessage, options any) (plugin.Block, error) {
	opts, err := decodeOptions("code", options, CodeOptions{})
	if err != nil {
		return nil, err
	}
	return newDataBlock(&dataBlock[CodeData, CodeOptions]{
		tool:  "code",
		opts:  opts,
		clone: same[CodeData],
		empty: func(d CodeData, _ CodeOptions) bool {
			return strings.TrimSpace(d.Code) == ""
		},
	}, data)
}

// Delimiter is a content-free separator block.
type Delimiter struct{}

type delimiterData struct{}

func (Delimiter) Prepare(context.Context, any) error { return nil }

func (Delimiter) NewBlock(data json.RawMessage, _ any) (plugin.Block, error) {
	return newDataBlock(&dataBlock[delimiterData, struct{}]{
		tool:  "delimiter",
		clone: same[delimiterData],
	}, data)
}
