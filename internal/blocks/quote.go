package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/blockpad/internal/plugin"
)

// QuoteOptions configures the quote tool.
type QuoteOptions struct {
	QuotePlaceholder   string `json:"quotePlaceholder"`
	CaptionPlaceholder string `json:"captionPlaceholder"`
}

// QuoteData is the saved form of a quote.
type QuoteData struct {
	Text      string `json:"text"`
	Caption   string `json:"caption"`
	Alignment string `json:"alignment"`
}

// Quote is the block quote tool.
type Quote struct{}

func (Quote) Prepare(_ context.Context, options any) error {
	_, err := decodeOptions("quote", options, QuoteOptions{})
	return err
}

func (Quote) NewBlock(data json.RawMessage, options any) (plugin.Block, error) {
	opts, err := decodeOptions("quote", options, QuoteOptions{})
	if err != nil {
		return nil, err
	}
	return newDataBlock(&dataBlock[QuoteData, QuoteOptions]{
		tool:  "quote",
		data:  QuoteData{Alignment: "left"},
		opts:  opts,
		clone: same[QuoteData],
		validate: func(d QuoteData, _ QuoteOptions) error {
			if d.Alignment != "left" && d.Alignment != "center" {
				return fmt.Errorf("unknown alignment %q", d.Alignment)
			}
			return nil
		},
		empty: func(d QuoteData, _ QuoteOptions) bool {
			return strings.TrimSpace(d.Text) == ""
		},
	}, data)
}
