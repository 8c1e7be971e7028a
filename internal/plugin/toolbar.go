package plugin

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// BuiltinCommands are the inline commands every editor offers without a
// registered inline tool.
var BuiltinCommands = []string{"bold", "italic", "link"}

// ToolbarMode selects how a block's inline toolbar is populated.
type ToolbarMode int

const (
	ToolbarDisabled ToolbarMode = iota
	ToolbarDefault
	ToolbarSubset
)

// InlineToolbar is a descriptor's inline toolbar setting: off, the global
// default command set, or an explicit ordered subset.
type InlineToolbar struct {
	Mode     ToolbarMode
	Commands []string
}

// Disabled returns a toolbar setting with no inline commands.
func Disabled() InlineToolbar { return InlineToolbar{Mode: ToolbarDisabled} }

// Enabled returns a toolbar setting that uses the global command set.
func Enabled() InlineToolbar { return InlineToolbar{Mode: ToolbarDefault} }

// Only returns a toolbar setting restricted to commands, in order.
func Only(commands ...string) InlineToolbar {
	return InlineToolbar{Mode: ToolbarSubset, Commands: append([]string(nil), commands...)}
}

// Resolve returns the commands available in a block given the editor's
// global command list.
func (t InlineToolbar) Resolve(global []string) []string {
	switch t.Mode {
	case ToolbarDefault:
		return append([]string(nil), global...)
	case ToolbarSubset:
		return append([]string(nil), t.Commands...)
	default:
		return nil
	}
}

// MarshalJSON encodes the setting the way it is written in config:
// false, true, or a list of commands.
func (t InlineToolbar) MarshalJSON() ([]byte, error) {
	switch t.Mode {
	case ToolbarDefault:
		return []byte("true"), nil
	case ToolbarSubset:
		return json.Marshal(t.Commands)
	default:
		return []byte("false"), nil
	}
}

// UnmarshalYAML accepts a boolean or a sequence of command names.
func (t *InlineToolbar) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var on bool
		if err := node.Decode(&on); err != nil {
			return fmt.Errorf("inline_toolbar: %w", err)
		}
		if on {
			*t = Enabled()
		} else {
			*t = Disabled()
		}
		return nil
	case yaml.SequenceNode:
		var cmds []string
		if err := node.Decode(&cmds); err != nil {
			return fmt.Errorf("inline_toolbar: %w", err)
		}
		*t = Only(cmds...)
		return nil
	default:
		return fmt.Errorf("inline_toolbar: expected bool or list at line %d", node.Line)
	}
}

// UnmarshalTOML accepts a boolean or an array of command names.
func (t *InlineToolbar) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case bool:
		if val {
			*t = Enabled()
		} else {
			*t = Disabled()
		}
		return nil
	case []any:
		cmds := make([]string, 0, len(val))
		for _, c := range val {
			s, ok := c.(string)
			if !ok {
				return fmt.Errorf("inline_toolbar: command %v is not a string", c)
			}
			cmds = append(cmds, s)
		}
		*t = Only(cmds...)
		return nil
	default:
		return fmt.Errorf("inline_toolbar: expected bool or array, got %T", v)
	}
}
