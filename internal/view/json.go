package view

import (
	"context"
	"encoding/json"
	"io"
)

// JSONRenderer outputs the tree as JSON.
type JSONRenderer struct {
	// Compact outputs single-line JSON when true (no indentation).
	Compact bool
	// IncludeHidden keeps hidden panels in the output.
	IncludeHidden bool
}

// Format returns "json".
func (r *JSONRenderer) Format() string {
	return "json"
}

// Render writes the tree to w.
func (r *JSONRenderer) Render(ctx context.Context, n *Node, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.IncludeHidden {
		n = pruneHidden(n)
	}
	enc := json.NewEncoder(w)
	if !r.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(n)
}

// pruneHidden returns a copy of n without hidden descendants.
func pruneHidden(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Children = nil
	for _, c := range n.Children {
		if c.Is(AttrHidden) {
			continue
		}
		cp.Children = append(cp.Children, pruneHidden(c))
	}
	return &cp
}
