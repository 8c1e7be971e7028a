package plugin

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Spec is a tool declaration as written in a config file. A bare string
// is the shorthand form: the id doubles as the catalog tool name.
type Spec struct {
	ID            string         `yaml:"id" toml:"id"`
	Tool          string         `yaml:"tool" toml:"tool"`
	InlineToolbar *InlineToolbar `yaml:"inline_toolbar" toml:"inline_toolbar"`
	Config        map[string]any `yaml:"config" toml:"config"`
}

// UnmarshalYAML accepts either a scalar (shorthand) or a mapping.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*s = Spec{ID: name, Tool: name}
		return nil
	}
	type plain Spec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Spec(p)
	return nil
}

// UnmarshalTOML accepts either a string (shorthand) or a table.
func (s *Spec) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		*s = Spec{ID: val, Tool: val}
		return nil
	case map[string]any:
		out := Spec{}
		for key, field := range val {
			switch key {
			case "id", "tool":
				str, ok := field.(string)
				if !ok {
					return fmt.Errorf("tools: %s must be a string", key)
				}
				if key == "id" {
					out.ID = str
				} else {
					out.Tool = str
				}
			case "inline_toolbar":
				var tb InlineToolbar
				if err := tb.UnmarshalTOML(field); err != nil {
					return err
				}
				out.InlineToolbar = &tb
			case "config":
				cfg, ok := field.(map[string]any)
				if !ok {
					return errors.New("tools: config must be a table")
				}
				out.Config = cfg
			default:
				return fmt.Errorf("tools: unknown key %q", key)
			}
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("tools: unsupported value %T", v)
	}
}

// IsShorthand reports whether s carries only a tool reference.
func (s Spec) IsShorthand() bool {
	return s.InlineToolbar == nil && s.Config == nil
}

// FromSpecs resolves config declarations against a catalog of tools.
func FromSpecs(specs []Spec, catalog map[string]Tool) ([]Entry, error) {
	entries := make([]Entry, 0, len(specs))
	for i, s := range specs {
		id := s.ID
		name := s.Tool
		if name == "" {
			name = id
		}
		if id == "" {
			id = name
		}
		if id == "" {
			return nil, fmt.Errorf("plugin: tools[%d]: id is required", i)
		}
		tool, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("plugin: tools[%d] %q: unknown tool %q", i, id, name)
		}
		if s.IsShorthand() {
			entries = append(entries, Short(id, tool))
			continue
		}
		toolbar := Disabled()
		if s.InlineToolbar != nil {
			toolbar = *s.InlineToolbar
		}
		var options any
		if s.Config != nil {
			options = s.Config
		}
		entries = append(entries, Full(id, tool, toolbar, options))
	}
	return entries, nil
}
