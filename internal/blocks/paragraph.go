package blocks

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/starford/blockpad/internal/plugin"
)

// ParagraphOptions configures the paragraph tool.
type ParagraphOptions struct {
	Placeholder   string `json:"placeholder"`
	PreserveBlank bool   `json:"preserveBlank"`
}

// ParagraphData is the saved form of a paragraph.
type ParagraphData struct {
	Text string `json:"text"`
}

// Paragraph is the plain text block tool.
type Paragraph struct{}

func (Paragraph) Prepare(_ context.Context, options any) error {
	_, err := decodeOptions("paragraph", options, ParagraphOptions{})
	return err
}

func (Paragraph) NewBlock(data json.RawMessage, options any) (plugin.Block, error) {
	opts, err := decodeOptions("paragraph", options, ParagraphOptions{})
	if err != nil {
		return nil, err
	}
	return newDataBlock(&dataBlock[ParagraphData, ParagraphOptions]{
		tool:  "paragraph",
		opts:  opts,
		clone: same[ParagraphData],
		empty: func(d ParagraphData, o ParagraphOptions) bool {
			return !o.PreserveBlank && strings.TrimSpace(d.Text) == ""
		},
	}, data)
}
