package blocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/starford/blockpad/internal/plugin"
)

// ImageData is the saved form of an image.
type ImageData struct {
	URL            string `json:"url"`
	Caption        string `json:"caption"`
	WithBorder     bool   `json:"withBorder"`
	WithBackground bool   `json:"withBackground"`
	Stretched      bool   `json:"stretched"`
}

// Image is the url-based image block tool. It takes no options.
type Image struct{}

func (Image) Prepare(context.Context, any) error { return nil }

func (Image) NewBlock(data json.RawMessage, _ any) (plugin.Block, error) {
	return newDataBlock(&dataBlock[ImageData, struct{}]{
		tool:  "image",
		clone: same[ImageData],
		validate: func(d ImageData, _ struct{}) error {
			if d.URL == "" {
				return errors.New("url is required")
			}
			u, err := url.Parse(d.URL)
			if err != nil || !u.IsAbs() {
				return fmt.Errorf("url %q is not absolute", d.URL)
			}
			return nil
		},
		empty: func(d ImageData, _ struct{}) bool {
			return d.URL == ""
		},
	}, data)
}
