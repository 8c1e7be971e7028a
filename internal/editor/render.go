package editor

import (
	"strings"

	"github.com/starford/blockpad/internal/dom"
)

// render rewrites the mount subtree from the live document. Block content
// is not rendered, only its structure.
func (e *Editor) render() {
	placeholder := e.cfg.Placeholder != "" && len(e.blocks) == 1 &&
		e.blocks[0].typ == e.cfg.DefaultBlock && e.blocks[0].block.IsEmpty()

	nodes := make([]dom.Node, 0, len(e.blocks))
	for _, b := range e.blocks {
		class := "ce-block"
		if b.id == e.focused {
			class += " ce-block--focused"
		}
		attrs := map[string]string{
			"class":     class,
			"data-id":   b.id,
			"data-type": b.typ,
		}
		if len(b.inline) > 0 {
			attrs["data-inline-toolbar"] = strings.Join(b.inline, ",")
		}
		if placeholder {
			attrs["data-placeholder"] = e.cfg.Placeholder
		}
		nodes = append(nodes, dom.Node{Tag: "div", Attrs: attrs})
	}

	e.holder.ReplaceChildren(dom.Node{
		Tag:   "div",
		Attrs: map[string]string{"class": "codex-editor"},
		Children: []dom.Node{{
			Tag:      "div",
			Attrs:    map[string]string{"class": "codex-editor__redactor"},
			Children: nodes,
		}},
	})
}
