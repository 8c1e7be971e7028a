package plugin

// Entry is one line of a tool declaration, before it is folded into a Table.
type Entry struct {
	ID         string
	Descriptor Descriptor
}

// Short declares a tool by implementation only: inline toolbar disabled,
// no options.
func Short(id string, tool Tool) Entry {
	return Entry{ID: id, Descriptor: Descriptor{ID: id, Tool: tool, InlineToolbar: Disabled()}}
}

// Full declares a tool with an explicit inline toolbar and options.
func Full(id string, tool Tool, toolbar InlineToolbar, options any) Entry {
	return Entry{ID: id, Descriptor: Descriptor{ID: id, Tool: tool, InlineToolbar: toolbar, Options: options}}
}

// Table maps tool ids to descriptors. Iteration follows first
// registration order.
type Table struct {
	order []string
	byID  map[string]Descriptor
}

// Build folds entries into a Table. A repeated id replaces the earlier
// descriptor entirely and keeps the earlier position.
func Build(entries ...Entry) *Table {
	t := &Table{byID: make(map[string]Descriptor, len(entries))}
	for _, e := range entries {
		t.Set(e)
	}
	return t
}

// Set registers e, replacing any descriptor with the same id.
func (t *Table) Set(e Entry) {
	if t.byID == nil {
		t.byID = make(map[string]Descriptor)
	}
	d := e.Descriptor
	d.ID = e.ID
	if _, exists := t.byID[e.ID]; !exists {
		t.order = append(t.order, e.ID)
	}
	t.byID[e.ID] = d
}

// Lookup returns the descriptor for id.
func (t *Table) Lookup(id string) (Descriptor, bool) {
	if t == nil {
		return Descriptor{}, false
	}
	d, ok := t.byID[id]
	return d, ok
}

// Len returns the number of distinct ids.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// IDs returns tool ids in registration order.
func (t *Table) IDs() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Descriptors returns every descriptor in registration order.
func (t *Table) Descriptors() []Descriptor {
	if t == nil {
		return nil
	}
	out := make([]Descriptor, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

// InlineCommands returns the builtin inline commands followed by the ids of
// registered inline tools.
func (t *Table) InlineCommands() []string {
	out := append([]string(nil), BuiltinCommands...)
	for _, d := range t.Descriptors() {
		if d.Tool != nil && !d.IsBlock() {
			out = append(out, d.ID)
		}
	}
	return out
}
