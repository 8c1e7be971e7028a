package plugin

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type fakeTool struct{ name string }

func (f *fakeTool) Prepare(context.Context, any) error { return nil }

type fakeBlockTool struct{ fakeTool }

func (f *fakeBlockTool) NewBlock(json.RawMessage, any) (Block, error) { return nil, nil }

func TestBuild_LastWriteWins(t *testing.T) {
	first := &fakeBlockTool{fakeTool{"first"}}
	second := &fakeBlockTool{fakeTool{"second"}}

	table := Build(
		Full("header", first, Enabled(), map[string]any{"placeholder": "one"}),
		Short("paragraph", first),
		Full("header", second, Only("link"), map[string]any{"placeholder": "two"}),
	)

	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
	d, ok := table.Lookup("header")
	if !ok {
		t.Fatal("header missing")
	}
	if d.Tool != second {
		t.Error("later tool should win")
	}
	if d.InlineToolbar.Mode != ToolbarSubset || !reflect.DeepEqual(d.InlineToolbar.Commands, []string{"link"}) {
		t.Errorf("toolbar = %+v", d.InlineToolbar)
	}
	if d.Options.(map[string]any)["placeholder"] != "two" {
		t.Errorf("options = %v", d.Options)
	}
	if got := table.IDs(); !reflect.DeepEqual(got, []string{"header", "paragraph"}) {
		t.Errorf("IDs = %v, want first-registration order", got)
	}
}

func TestShortAndFullAreEquivalent(t *testing.T) {
	tool := &fakeBlockTool{}
	a := Build(Short("delimiter", tool))
	b := Build(Full("delimiter", tool, Disabled(), nil))
	da, _ := a.Lookup("delimiter")
	db, _ := b.Lookup("delimiter")
	if !reflect.DeepEqual(da, db) {
		t.Errorf("shorthand %+v != full %+v", da, db)
	}
}

func TestInlineToolbarResolve(t *testing.T) {
	global := []string{"link", "marker", "bold", "italic"}
	if got := Disabled().Resolve(global); got != nil {
		t.Errorf("disabled = %v", got)
	}
	if got := Enabled().Resolve(global); !reflect.DeepEqual(got, global) {
		t.Errorf("enabled = %v", got)
	}
	if got := Only("link").Resolve(global); !reflect.DeepEqual(got, []string{"link"}) {
		t.Errorf("subset = %v", got)
	}
}

func TestInlineCommands(t *testing.T) {
	table := Build(
		Short("paragraph", &fakeBlockTool{}),
		Short("marker", &fakeTool{}),
		Short("inlineCode", &fakeTool{}),
	)
	want := []string{"bold", "italic", "link", "marker", "inlineCode"}
	if got := table.InlineCommands(); !reflect.DeepEqual(got, want) {
		t.Errorf("InlineCommands = %v, want %v", got, want)
	}
}

func TestInlineToolbarJSON(t *testing.T) {
	for _, tc := range []struct {
		in   InlineToolbar
		want string
	}{
		{Disabled(), "false"},
		{Enabled(), "true"},
		{Only("link", "bold"), `["link","bold"]`},
	} {
		got, err := json.Marshal(tc.in)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != tc.want {
			t.Errorf("Marshal(%+v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFromSpecs_YAML(t *testing.T) {
	src := `
- delimiter
- id: header
  tool: header
  inline_toolbar: [link]
  config:
    placeholder: Enter a header
- id: paragraph
  inline_toolbar: true
- id: header
  tool: paragraph
`
	var specs []Spec
	if err := yaml.Unmarshal([]byte(src), &specs); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !specs[0].IsShorthand() || specs[0].ID != "delimiter" || specs[0].Tool != "delimiter" {
		t.Fatalf("shorthand spec = %+v", specs[0])
	}

	para := &fakeBlockTool{fakeTool{"paragraph"}}
	catalog := map[string]Tool{
		"delimiter": &fakeBlockTool{},
		"header":    &fakeBlockTool{fakeTool{"header"}},
		"paragraph": para,
	}
	entries, err := FromSpecs(specs, catalog)
	if err != nil {
		t.Fatalf("FromSpecs: %v", err)
	}
	table := Build(entries...)
	h, _ := table.Lookup("header")
	if h.Tool != para {
		t.Error("duplicate header declaration should resolve to the later tool")
	}
	if h.InlineToolbar.Mode != ToolbarDisabled || h.Options != nil {
		t.Errorf("later shorthand header = %+v", h)
	}
	p, _ := table.Lookup("paragraph")
	if p.InlineToolbar.Mode != ToolbarDefault {
		t.Errorf("paragraph toolbar = %+v", p.InlineToolbar)
	}
}

func TestFromSpecs_UnknownTool(t *testing.T) {
	_, err := FromSpecs([]Spec{{ID: "x", Tool: "nope"}}, map[string]Tool{})
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Fatalf("err = %v", err)
	}
}

func TestFromSpecs_TOML(t *testing.T) {
	src := `
tools = [
  "paragraph",
  { id = "title", tool = "header", inline_toolbar = ["link"], config = { placeholder = "Title" } },
  { id = "quote", inline_toolbar = false },
]
`
	var cfg struct {
		Tools []Spec `toml:"tools"`
	}
	if _, err := toml.Decode(src, &cfg); err != nil {
		t.Fatalf("toml: %v", err)
	}
	if len(cfg.Tools) != 3 {
		t.Fatalf("got %d specs", len(cfg.Tools))
	}
	if !cfg.Tools[0].IsShorthand() || cfg.Tools[0].Tool != "paragraph" {
		t.Errorf("shorthand spec = %+v", cfg.Tools[0])
	}
	title := cfg.Tools[1]
	if title.ID != "title" || title.Tool != "header" || title.Config["placeholder"] != "Title" {
		t.Errorf("title spec = %+v", title)
	}
	if title.InlineToolbar == nil || title.InlineToolbar.Mode != ToolbarSubset {
		t.Errorf("title toolbar = %+v", title.InlineToolbar)
	}
	if q := cfg.Tools[2]; q.InlineToolbar == nil || q.InlineToolbar.Mode != ToolbarDisabled {
		t.Errorf("quote spec = %+v", q)
	}
}

func TestSpecTOML_UnknownKey(t *testing.T) {
	var s Spec
	if err := s.UnmarshalTOML(map[string]any{"colour": "red"}); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
