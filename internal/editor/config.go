package editor

import (
	"errors"
	"fmt"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/blockpad/internal/models"
	"github.com/starford/blockpad/internal/plugin"
)

// Config is everything an editor is built from.
type Config struct {
	// Holder is the id of the mount element.
	Holder string `json:"holder"`
	// Tools is the descriptor table. The editor never mutates it.
	Tools *plugin.Table `json:"tools"`
	// InlineToolbar is the ordered command set used by blocks whose
	// toolbar is enabled without an explicit subset. Empty means every
	// available inline command.
	InlineToolbar []string `json:"inlineToolbar"`
	// DefaultBlock is the tool used for new untyped blocks and for the
	// empty document.
	DefaultBlock string `json:"defaultBlock"`
	Autofocus    bool   `json:"autofocus"`
	Placeholder  string `json:"placeholder"`
	// Data is the initial document. Nil starts empty.
	Data *models.Snapshot `json:"data"`
}

// Validate checks the configuration without touching any tool.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Holder, validation.Required),
		validation.Field(&c.Tools, validation.Required, validation.By(c.validateTools)),
		validation.Field(&c.DefaultBlock, validation.Required, validation.By(c.validateDefaultBlock)),
		validation.Field(&c.InlineToolbar, validation.By(c.validateCommands)),
	)
}

func (c Config) validateTools(any) error {
	if c.Tools.Len() == 0 {
		return errors.New("at least one tool is required")
	}
	commands := c.Tools.InlineCommands()
	for _, d := range c.Tools.Descriptors() {
		if d.Tool == nil {
			return fmt.Errorf("tool %q has no implementation", d.ID)
		}
		if d.InlineToolbar.Mode == plugin.ToolbarSubset {
			for _, cmd := range d.InlineToolbar.Commands {
				if !slices.Contains(commands, cmd) {
					return fmt.Errorf("tool %q: unknown inline command %q", d.ID, cmd)
				}
			}
		}
	}
	return nil
}

func (c Config) validateDefaultBlock(any) error {
	d, ok := c.Tools.Lookup(c.DefaultBlock)
	if !ok {
		return fmt.Errorf("%q is not a registered tool", c.DefaultBlock)
	}
	if !d.IsBlock() {
		return fmt.Errorf("%q is an inline tool", c.DefaultBlock)
	}
	return nil
}

func (c Config) validateCommands(any) error {
	if c.Tools == nil {
		return nil
	}
	commands := c.Tools.InlineCommands()
	for _, cmd := range c.InlineToolbar {
		if !slices.Contains(commands, cmd) {
			return fmt.Errorf("unknown inline command %q", cmd)
		}
	}
	return nil
}
