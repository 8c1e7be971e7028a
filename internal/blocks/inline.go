package blocks

import "context"

// Marker is the highlight inline tool.
type Marker struct{}

func (Marker) Prepare(context.Context, any) error { return nil }

// InlineCode is the inline monospace tool.
type InlineCode struct{}

func (InlineCode) Prepare(context.Context, any) error { return nil }
