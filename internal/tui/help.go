package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Keys

| Key | Action |
|---|---|
| h p c o a i m | home, products, cart, orders, admin, about, contact |
| b / f | back / forward |
| digits + enter | run the numbered action |
| / | search products |
| k | checkout |
| l / r | login / register |
| u | create a user (admin) |
| e | contact form |
| x | logout |
| ? | toggle this help |
| q | quit |

Prompts: **enter** confirms a field, **up** goes back, **esc** cancels.
`

// renderHelp renders the key reference for the given width. It falls back
// to the raw markdown when the terminal renderer cannot be built.
func renderHelp(width int) string {
	if width < 20 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
