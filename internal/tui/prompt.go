package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// promptField is one input of a prompt.
type promptField struct {
	label    string
	value    string
	password bool
}

// prompt collects a few fields one at a time and hands the values to
// submit once the last one is confirmed.
type prompt struct {
	title  string
	fields []promptField
	pos    int
	input  textinput.Model
	submit func(values []string) tea.Cmd
	cancel func()
}

func newPrompt(title string, fields []promptField, submit func([]string) tea.Cmd) *prompt {
	p := &prompt{title: title, fields: fields, submit: submit}
	p.load()
	return p
}

func (p *prompt) load() {
	f := p.fields[p.pos]
	ti := textinput.New()
	ti.Prompt = f.label + ": "
	ti.SetValue(f.value)
	ti.CharLimit = 256
	if f.password {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	p.input = ti
}

// values returns the entered values in field order.
func (p *prompt) values() []string {
	out := make([]string, len(p.fields))
	for i, f := range p.fields {
		out[i] = strings.TrimSpace(f.value)
	}
	return out
}

// update handles a key. done is true once the prompt is finished
// (submitted or cancelled).
func (p *prompt) update(msg tea.KeyMsg) (cmd tea.Cmd, done bool) {
	switch msg.String() {
	case "esc":
		if p.cancel != nil {
			p.cancel()
		}
		return nil, true
	case "enter":
		p.fields[p.pos].value = p.input.Value()
		if p.pos < len(p.fields)-1 {
			p.pos++
			p.load()
			return nil, false
		}
		return p.submit(p.values()), true
	case "shift+tab", "up":
		p.fields[p.pos].value = p.input.Value()
		if p.pos > 0 {
			p.pos--
			p.load()
		}
		return nil, false
	}
	p.input, cmd = p.input.Update(msg)
	return cmd, false
}

func (p *prompt) view() string {
	b := &strings.Builder{}
	b.WriteString(p.title)
	b.WriteString("\n")
	for i, f := range p.fields {
		if i == p.pos {
			b.WriteString("> " + p.input.View() + "\n")
			continue
		}
		v := f.value
		if f.password && v != "" {
			v = strings.Repeat("•", len(v))
		}
		b.WriteString("  " + f.label + ": " + v + "\n")
	}
	return b.String()
}
