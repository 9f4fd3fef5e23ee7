package view

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Renderer writes a node tree in a specific format.
type Renderer interface {
	// Format returns the format name (e.g., "text", "json").
	Format() string

	// Render writes the tree rooted at n to w.
	Render(ctx context.Context, n *Node, w io.Writer) error
}

// NewRenderer creates a renderer by format name ("text" or "json").
// The format name is case-insensitive.
func NewRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return NewTextRenderer(), nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", format)
	}
}
