// Package tui is the interactive storefront shell. It renders the page
// tree in a scrollable viewport, maps keys to navigation and numbered
// actions, and runs every API call as a tea.Cmd so the screen stays
// responsive.
package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0x6d61/storefront/internal/app"
	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/notify"
	"github.com/0x6d61/storefront/internal/router"
	"github.com/0x6d61/storefront/internal/view"
)

// routeKeys maps a key to the route it opens.
var routeKeys = map[string]router.Route{
	"h": router.Home,
	"p": router.Products,
	"c": router.Cart,
	"o": router.Orders,
	"a": router.Admin,
	"i": router.About,
	"m": router.Contact,
}

const helpText = "h/p/c/o/a/i/m pages  b/f back/forward  <n>+enter action  ? help  q quit"

// doneMsg reports that a command finished.
type doneMsg struct{}

// Model is the bubbletea model of the shell.
type Model struct {
	ctx      context.Context
	app      *app.App
	toasts   *Toasts
	renderer *view.TextRenderer

	viewport viewport.Model
	prompt   *prompt
	actions  []view.Action
	choice   string
	messages []notify.Message
	busy     bool
	ready    bool
	showHelp bool

	styles shellStyles
}

type shellStyles struct {
	Title   lipgloss.Style
	Help    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Busy    lipgloss.Style
}

func defaultShellStyles() shellStyles {
	return shellStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		Help:    lipgloss.NewStyle().Faint(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")),
		Busy:    lipgloss.NewStyle().Italic(true),
	}
}

// NewModel creates the shell model. toasts must be the notifier the App
// was built with. The model starts busy until the load started by Init
// finishes.
func NewModel(ctx context.Context, a *app.App, toasts *Toasts) Model {
	r := view.NewTextRenderer()
	r.NumberActions = true
	m := Model{
		ctx:      ctx,
		app:      a,
		toasts:   toasts,
		renderer: r,
		viewport: viewport.New(80, 20),
		styles:   defaultShellStyles(),
		busy:     true,
	}
	m.refresh()
	return m
}

// Init runs the initial load.
func (m Model) Init() tea.Cmd {
	return m.run(func(ctx context.Context) { m.app.Init(ctx) })
}

// run executes fn off the UI goroutine.
func (m *Model) run(fn func(ctx context.Context)) tea.Cmd {
	m.busy = true
	ctx := m.ctx
	return func() tea.Msg {
		fn(ctx)
		return doneMsg{}
	}
}

// refresh re-renders the page into the viewport and rebinds the numbered
// actions.
func (m *Model) refresh() {
	page := m.app.Page()
	m.actions = page.Actions()
	m.viewport.SetContent(m.renderer.String(page))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		m.ready = true
		return m, nil

	case doneMsg:
		m.busy = false
		m.showHelp = false
		m.pushToasts(m.toasts.Drain())
		m.refresh()
		if m.prompt == nil {
			m.openProductForm()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.prompt != nil {
			cmd, done := m.prompt.update(msg)
			if done && cmd != nil {
				m.busy = true
			}
			if done {
				m.prompt = nil
				m.refresh()
			}
			return m, cmd
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) pushToasts(msgs []notify.Message) {
	m.messages = append(m.messages, msgs...)
	if len(m.messages) > maxToasts {
		m.messages = m.messages[len(m.messages)-maxToasts:]
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// One command at a time: while it runs only quitting and scrolling work.
	if m.busy {
		if key == "q" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if r, ok := routeKeys[key]; ok {
		m.choice = ""
		m.showHelp = false
		return m, m.run(func(ctx context.Context) { m.app.Navigate(ctx, string(r)) })
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		if m.showHelp {
			m.viewport.SetContent(renderHelp(m.viewport.Width))
			m.viewport.GotoTop()
		} else {
			m.refresh()
		}
		return m, nil
	case "b":
		return m, m.run(func(ctx context.Context) { m.app.Back(ctx) })
	case "f":
		return m, m.run(func(ctx context.Context) { m.app.Forward(ctx) })
	case "x":
		return m, m.run(func(ctx context.Context) { m.app.Logout(ctx) })
	case "l":
		m.prompt = m.loginPrompt()
		return m, nil
	case "r":
		m.prompt = m.registerPrompt("Register")
		return m, nil
	case "u":
		m.prompt = m.registerPrompt("Create New User (Admin)")
		return m, nil
	case "/":
		m.prompt = m.searchPrompt()
		return m, nil
	case "k":
		m.prompt = m.checkoutPrompt()
		return m, nil
	case "e":
		m.prompt = m.contactPrompt()
		return m, nil
	case "backspace":
		if m.choice != "" {
			m.choice = m.choice[:len(m.choice)-1]
		}
		return m, nil
	case "enter":
		return m.dispatchChoice()
	case "esc":
		m.choice = ""
		return m, nil
	}

	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		m.choice += key
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// dispatchChoice runs the numbered action the user typed.
func (m Model) dispatchChoice() (tea.Model, tea.Cmd) {
	n, err := strconv.Atoi(m.choice)
	m.choice = ""
	if err != nil || n < 1 || n > len(m.actions) {
		return m, nil
	}
	act := m.actions[n-1]
	if act.Name == view.ActCheckout {
		m.prompt = m.checkoutPrompt()
		return m, nil
	}
	return m, m.run(func(ctx context.Context) { _ = m.app.Dispatch(ctx, act) })
}

// openProductForm starts the product prompt when an action opened the
// admin product form.
func (m *Model) openProductForm() {
	p := m.app.State().ProductForm()
	if p == nil {
		return
	}
	title := "Add Product"
	price, stock := "", ""
	if p.ID != "" {
		title = "Edit Product"
		price = p.Price.String()
		stock = strconv.Itoa(p.Stock)
	}
	id := p.ID
	a := m.app
	pr := newPrompt(title, []promptField{
		{label: "Name", value: p.Name},
		{label: "Description", value: p.Description},
		{label: "Price", value: price},
		{label: "Stock", value: stock},
		{label: "Category", value: p.Category},
		{label: "Image URL", value: p.Image},
	}, func(v []string) tea.Cmd {
		return m.run(func(ctx context.Context) {
			in, err := domain.ParseProductInput(v[0], v[1], v[2], v[3], v[4], v[5])
			if err != nil {
				m.toasts.Notify(notify.Error, app.UserMessage(err))
				a.CloseProductForm()
				return
			}
			if _, err := a.SaveProduct(ctx, id, in); err != nil {
				m.formToast(view.FormProduct)
				a.CloseProductForm()
			}
		})
	})
	pr.cancel = a.CloseProductForm
	m.prompt = pr
}

// formToast surfaces a form error, which the page has no input to show
// next to.
func (m *Model) formToast(form string) {
	if msg := m.app.State().FormError(form); msg != "" {
		m.toasts.Notify(notify.Error, msg)
	}
}

func (m *Model) loginPrompt() *prompt {
	return newPrompt("Login", []promptField{
		{label: "Email"},
		{label: "Password", password: true},
	}, func(v []string) tea.Cmd {
		return m.run(func(ctx context.Context) {
			if m.app.Login(ctx, v[0], v[1]) != nil {
				m.formToast(view.FormLogin)
			}
		})
	})
}

func (m *Model) registerPrompt(title string) *prompt {
	return newPrompt(title, []promptField{
		{label: "Name"},
		{label: "Email"},
		{label: "Password", password: true},
		{label: "Role (User/Admin)", value: string(domain.RoleUser)},
	}, func(v []string) tea.Cmd {
		return m.run(func(ctx context.Context) {
			in := domain.RegisterInput{Name: v[0], Email: v[1], Password: v[2], Role: domain.ParseRole(v[3])}
			if _, err := m.app.Register(ctx, in); err != nil {
				m.formToast(view.FormRegister)
			}
		})
	})
}

func (m *Model) searchPrompt() *prompt {
	snap := m.app.Snapshot()
	return newPrompt("Search products", []promptField{
		{label: "Search", value: snap.Search},
		{label: "Category", value: snap.Category},
	}, func(v []string) tea.Cmd {
		return m.run(func(ctx context.Context) {
			if m.app.Search(ctx, v[0], v[1]) == nil {
				m.app.Navigate(ctx, string(router.Products))
			}
		})
	})
}

func (m *Model) checkoutPrompt() *prompt {
	f := m.app.State().Checkout()
	return newPrompt("Checkout", []promptField{
		{label: "Name", value: f.Name},
		{label: "Email", value: f.Email},
		{label: "Address", value: f.Address},
	}, func(v []string) tea.Cmd {
		return m.run(func(ctx context.Context) {
			if _, err := m.app.Checkout(ctx, view.CheckoutForm{Name: v[0], Email: v[1], Address: v[2]}); err != nil {
				m.formToast(view.FormCheckout)
			}
		})
	})
}

func (m *Model) contactPrompt() *prompt {
	return newPrompt("Contact us", []promptField{
		{label: "Name"},
		{label: "Email"},
		{label: "Message"},
	}, func(v []string) tea.Cmd {
		return m.run(func(context.Context) {
			if m.app.SubmitContact(v[0], v[1], v[2]) != nil {
				m.formToast(view.FormContact)
			}
		})
	})
}

// View renders the shell.
func (m Model) View() string {
	b := &strings.Builder{}
	b.WriteString(m.styles.Title.Render("storefront"))
	if m.busy {
		b.WriteString("  " + m.styles.Busy.Render("loading…"))
	}
	if m.choice != "" {
		b.WriteString("  action #" + m.choice)
	}
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.prompt != nil {
		b.WriteString(m.prompt.view())
	}
	for _, t := range m.messages {
		b.WriteString(m.toastStyle(t.Kind).Render(notify.Prefix(t.Kind)+" "+t.Text) + "\n")
	}
	b.WriteString(m.styles.Help.Render(helpText))
	return b.String()
}

func (m Model) toastStyle(k notify.Kind) lipgloss.Style {
	switch k {
	case notify.Success:
		return m.styles.Success
	case notify.Error:
		return m.styles.Error
	}
	return m.styles.Info
}

// Actions returns the numbered actions of the current screen.
func (m Model) Actions() []view.Action {
	return append([]view.Action(nil), m.actions...)
}

// Run starts the shell and blocks until the user quits.
func Run(ctx context.Context, a *app.App, toasts *Toasts) error {
	p := tea.NewProgram(NewModel(ctx, a, toasts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
