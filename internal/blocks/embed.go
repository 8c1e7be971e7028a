package blocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/starford/blockpad/internal/plugin"
)

// EmbedOptions configures the embed tool. Services lists which providers
// may be embedded.
type EmbedOptions struct {
	Services map[string]bool `json:"services"`
}

// EmbedData is the saved form of an embed.
type EmbedData struct {
	Service string `json:"service"`
	Source  string `json:"source"`
	Embed   string `json:"embed"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Caption string `json:"caption"`
}

type embedService struct {
	pattern *regexp.Regexp
	embed   string
	width   int
	height  int
}

var embedServices = map[string]embedService{
	"youtube": {
		pattern: regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]{11})`),
		embed:   "https://www.youtube.com/embed/%s",
		width:   580, height: 320,
	},
	"vimeo": {
		pattern: regexp.MustCompile(`(?:https?://)?(?:www\.)?vimeo\.com/(\d+)`),
		embed:   "https://player.vimeo.com/video/%s?title=0&byline=0",
		width:   580, height: 320,
	},
	"codepen": {
		pattern: regexp.MustCompile(`https://codepen\.io/([^/?&]*/pen/[^/?&]*)`),
		embed:   "https://codepen.io/%s?height=300&theme-id=0&default-tab=css,result&embed-version=2",
		width:   600, height: 300,
	},
}

// Embed is the third-party content block tool.
type Embed struct{}

func (Embed) options(raw any) (EmbedOptions, error) {
	opts, err := decodeOptions("embed", raw, EmbedOptions{})
	if err != nil {
		return opts, err
	}
	var unknown []string
	for name := range opts.Services {
		if _, ok := embedServices[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return opts, fmt.Errorf("embed: unknown services %v", unknown)
	}
	return opts, nil
}

func (e Embed) Prepare(_ context.Context, options any) error {
	_, err := e.options(options)
	return err
}

func (e Embed) NewBlock(data json.RawMessage, options any) (plugin.Block, error) {
	opts, err := e.options(options)
	if err != nil {
		return nil, err
	}
	return newDataBlock(&dataBlock[EmbedData, EmbedOptions]{
		tool:     "embed",
		opts:     opts,
		clone:    same[EmbedData],
		validate: validateEmbed,
		fill:     fillEmbed,
		empty: func(d EmbedData, _ EmbedOptions) bool {
			return d.Source == ""
		},
	}, data)
}

// validateEmbed checks the service allow-list and fills in the embed url
// and frame size from the source when they are missing.
func validateEmbed(d EmbedData, o EmbedOptions) error {
	svc, ok := embedServices[d.Service]
	if !ok {
		return fmt.Errorf("unknown service %q", d.Service)
	}
	if len(o.Services) > 0 && !o.Services[d.Service] {
		return fmt.Errorf("service %q is not enabled", d.Service)
	}
	if d.Source == "" {
		return errors.New("source is required")
	}
	if d.Embed == "" && svc.pattern.FindStringSubmatch(d.Source) == nil {
		return fmt.Errorf("source %q does not match service %q", d.Source, d.Service)
	}
	return nil
}

func fillEmbed(d EmbedData, _ EmbedOptions) EmbedData {
	if d.Embed != "" || d.Source == "" {
		return d
	}
	resolved, err := ResolveEmbed(d.Service, d.Source)
	if err != nil {
		return d
	}
	d.Embed, d.Width, d.Height = resolved.Embed, resolved.Width, resolved.Height
	return d
}

// ResolveEmbed derives the embed url and frame size for a source url.
func ResolveEmbed(service, source string) (EmbedData, error) {
	svc, ok := embedServices[service]
	if !ok {
		return EmbedData{}, fmt.Errorf("embed: unknown service %q", service)
	}
	m := svc.pattern.FindStringSubmatch(source)
	if m == nil {
		return EmbedData{}, fmt.Errorf("embed: source %q does not match service %q", source, service)
	}
	return EmbedData{
		Service: service,
		Source:  source,
		Embed:   fmt.Sprintf(svc.embed, m[1]),
		Width:   svc.width,
		Height:  svc.height,
	}, nil
}
