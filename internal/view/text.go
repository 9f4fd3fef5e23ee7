package view

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	doubleLine = "═" // ═
	singleLine = "─" // ─
	lineWidth  = 50
)

// Badge colours keyed by the colour attribute.
var badgeColors = map[string]lipgloss.Color{
	"warning":   lipgloss.Color("#FFC107"),
	"info":      lipgloss.Color("#2196F3"),
	"success":   lipgloss.Color("#8BC34A"),
	"danger":    lipgloss.Color("#e53935"),
	"secondary": lipgloss.Color("#9E9E9E"),
}

// Styles holds the lipgloss styles of the text renderer.
type Styles struct {
	Title       lipgloss.Style
	Heading     lipgloss.Style
	NavItem     lipgloss.Style
	NavActive   lipgloss.Style
	Button      lipgloss.Style
	Disabled    lipgloss.Style
	Selected    lipgloss.Style
	Error       lipgloss.Style
	Placeholder lipgloss.Style
	Total       lipgloss.Style
	Muted       lipgloss.Style
}

// DefaultStyles returns the storefront palette.
func DefaultStyles() Styles {
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38")),
		Heading:     lipgloss.NewStyle().Bold(true).Underline(true),
		NavItem:     lipgloss.NewStyle().Padding(0, 1),
		NavActive:   lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true),
		Button:      lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")),
		Disabled:    lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")),
		Placeholder: lipgloss.NewStyle().Italic(true).Faint(true),
		Total:       lipgloss.NewStyle().Bold(true),
		Muted:       lipgloss.NewStyle().Faint(true),
	}
}

// TextRenderer lays a tree out as terminal text. Hidden nodes are
// skipped. Interactive nodes are numbered in the same order as
// Node.Actions so a caller can map a choice back to its action.
type TextRenderer struct {
	Styles Styles
	// NumberActions prefixes every enabled action with its index.
	NumberActions bool
}

// NewTextRenderer creates a TextRenderer with the default styles.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{Styles: DefaultStyles()}
}

// Format returns "text".
func (r *TextRenderer) Format() string {
	return "text"
}

// Render writes the tree to w.
func (r *TextRenderer) Render(ctx context.Context, n *Node, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(w, r.String(n))
	return err
}

// String lays out the tree.
func (r *TextRenderer) String(n *Node) string {
	b := &strings.Builder{}
	idx := 0
	r.write(b, n, 0, &idx)
	return b.String()
}

func (r *TextRenderer) write(b *strings.Builder, n *Node, depth int, idx *int) {
	if n == nil || n.Is(AttrHidden) {
		return
	}
	indent := strings.Repeat("  ", depth)
	st := r.Styles

	switch n.Kind {
	case KindPage:
		r.children(b, n, depth, idx)
		fmt.Fprintln(b, strings.Repeat(doubleLine, lineWidth))
		return

	case KindHeader:
		fmt.Fprintln(b, strings.Repeat(doubleLine, lineWidth))
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			if c.Is(AttrHidden) {
				continue
			}
			parts = append(parts, r.inline(c, idx))
		}
		fmt.Fprintln(b, st.Title.Render("storefront")+"  "+strings.Join(parts, "  "))
		return

	case KindNav:
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			if c.Is(AttrHidden) {
				continue
			}
			label := r.label(c, idx)
			if c.Is(AttrActive) {
				parts = append(parts, st.NavActive.Render(label))
			} else {
				parts = append(parts, st.NavItem.Render(label))
			}
		}
		fmt.Fprintln(b, strings.Join(parts, "|"))
		fmt.Fprintln(b, strings.Repeat(singleLine, lineWidth))
		return

	case KindPanel:
		r.children(b, n, depth, idx)
		return

	case KindHeading:
		fmt.Fprintln(b, indent+st.Heading.Render(n.Text))

	case KindForm, KindList, KindTable:
		if n.Text != "" {
			fmt.Fprintln(b, indent+st.Heading.Render(n.Text))
		}
		r.children(b, n, depth+1, idx)
		return

	case KindItem, KindRow:
		parts := []string{n.Text}
		var nested []*Node
		for _, c := range n.Children {
			if c.Is(AttrHidden) {
				continue
			}
			if c.Kind == KindList {
				nested = append(nested, c)
				continue
			}
			parts = append(parts, r.inline(c, idx))
		}
		fmt.Fprintln(b, indent+"- "+strings.Join(parts, "  "))
		for _, c := range nested {
			r.write(b, c, depth+1, idx)
		}
		return

	case KindField:
		line := indent + n.Text + ": " + n.Attr(AttrValue)
		if len(n.Children) > 0 {
			opts := make([]string, 0, len(n.Children))
			for _, c := range n.Children {
				opts = append(opts, r.inline(c, idx))
			}
			line = indent + n.Text + ": " + strings.Join(opts, " ")
		}
		fmt.Fprintln(b, line)
		return

	default:
		fmt.Fprintln(b, indent+r.inline(n, idx))
		return
	}
	r.children(b, n, depth, idx)
}

func (r *TextRenderer) children(b *strings.Builder, n *Node, depth int, idx *int) {
	for _, c := range n.Children {
		r.write(b, c, depth, idx)
	}
}

// inline renders a leaf (and any badge children) on one line.
func (r *TextRenderer) inline(n *Node, idx *int) string {
	st := r.Styles
	var s string
	switch n.Kind {
	case KindButton, KindNavItem:
		label := r.label(n, idx)
		switch {
		case n.Is(AttrDisabled):
			s = st.Disabled.Render(label)
		case n.Is(AttrSelected):
			s = st.Selected.Render(label)
		default:
			s = st.Button.Render(label)
		}
	case KindBadge:
		c, ok := badgeColors[n.Attr(AttrColor)]
		if !ok {
			c = badgeColors["secondary"]
		}
		s = lipgloss.NewStyle().Bold(true).Foreground(c).Render("(" + n.Text + ")")
	case KindError:
		s = st.Error.Render("! " + n.Text)
	case KindPlaceholder:
		s = st.Placeholder.Render(n.Text)
	case KindTotal:
		s = st.Total.Render(n.Text)
	default:
		s = n.Text
	}
	for _, c := range n.Children {
		if c.Is(AttrHidden) {
			continue
		}
		s += " " + r.inline(c, idx)
	}
	return s
}

// label returns the bracketed button label, numbered when enabled.
func (r *TextRenderer) label(n *Node, idx *int) string {
	if n.Action == nil || n.Is(AttrDisabled) || !r.NumberActions {
		return "[" + n.Text + "]"
	}
	*idx++
	return fmt.Sprintf("[%d:%s]", *idx, n.Text)
}
