package tui

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/0x6d61/storefront/internal/api"
	"github.com/0x6d61/storefront/internal/app"
	"github.com/0x6d61/storefront/internal/notify"
	"github.com/0x6d61/storefront/internal/router"
	"github.com/0x6d61/storefront/internal/testutil"
	"github.com/0x6d61/storefront/internal/transport"
	"github.com/0x6d61/storefront/internal/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

type shell struct {
	srv    *testutil.ShopServer
	app    *app.App
	toasts *Toasts
	model  Model
}

func newShell(t *testing.T) *shell {
	t.Helper()
	srv := testutil.NewShopServer()
	t.Cleanup(srv.Close)

	tc, err := transport.NewClient(transport.ClientOptions{Timeout: 5 * time.Second})
	require.NoError(t, err)
	client, err := api.New(tc, srv.URL, api.WithGuestID("guest-"+gofakeit.UUID()))
	require.NoError(t, err)

	toasts := &Toasts{}
	a := app.New(client, app.WithNotifier(toasts))
	s := &shell{srv: srv, app: a, toasts: toasts, model: NewModel(context.Background(), a, toasts)}
	s.exec(t, s.model.Init())
	return s
}

// exec runs cmd synchronously and feeds its message back to the model.
func (s *shell) exec(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if _, ok := msg.(doneMsg); !ok {
		return
	}
	next, _ := s.model.Update(msg)
	s.model = next.(Model)
}

func (s *shell) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := s.model.Update(msg)
	s.model = next.(Model)
	return cmd
}

func (s *shell) press(t *testing.T, key string) {
	t.Helper()
	s.exec(t, s.send(t, keyMsg(key)))
}

func (s *shell) typeText(t *testing.T, text string) {
	t.Helper()
	s.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// actionIndex returns the 1-based number of the first action matching
// name and target.
func (s *shell) actionIndex(t *testing.T, name, target string) int {
	t.Helper()
	for i, a := range s.model.Actions() {
		if a.Name == name && a.Target == target {
			return i + 1
		}
	}
	t.Fatalf("action %s(%s) not on screen", name, target)
	return 0
}

func (s *shell) choose(t *testing.T, n int) {
	t.Helper()
	for _, r := range strconv.Itoa(n) {
		s.press(t, string(r))
	}
	s.press(t, "enter")
}

func (s *shell) productID(name string) string {
	for _, p := range s.srv.Products() {
		if p.Name == name {
			return p.ID
		}
	}
	return ""
}

func TestModel_InitLoadsHome(t *testing.T) {
	s := newShell(t)

	assert.False(t, s.model.busy)
	assert.Equal(t, router.Home, s.app.Router().Active())
	assert.Contains(t, s.model.View(), "Walnut Desk")
	assert.Contains(t, s.model.View(), "storefront")
}

func TestModel_RouteKeys(t *testing.T) {
	s := newShell(t)

	s.press(t, "p")
	assert.Equal(t, router.Products, s.app.Router().Active())

	s.press(t, "c")
	assert.Equal(t, router.Cart, s.app.Router().Active())
	assert.Contains(t, s.model.View(), "Your cart is empty.")

	s.press(t, "b")
	assert.Equal(t, router.Products, s.app.Router().Active())
	s.press(t, "f")
	assert.Equal(t, router.Cart, s.app.Router().Active())
}

func TestModel_AdminKeyRedirectsAnonymous(t *testing.T) {
	s := newShell(t)

	s.press(t, "a")

	assert.Equal(t, router.Home, s.app.Router().Active())
	require.NotEmpty(t, s.model.messages)
	last := s.model.messages[len(s.model.messages)-1]
	assert.Equal(t, notify.Error, last.Kind)
	assert.Contains(t, s.model.View(), "Access denied")
}

func TestModel_NumberedActionAddsToCart(t *testing.T) {
	s := newShell(t)
	s.press(t, "p")

	n := s.actionIndex(t, view.ActAddToCart, s.productID("Desk Lamp"))
	s.choose(t, n)

	c := s.app.State().Cart()
	require.NotNil(t, c)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Contains(t, s.model.View(), "Product added to cart!")
}

func TestModel_OutOfRangeChoiceIsIgnored(t *testing.T) {
	s := newShell(t)
	before := s.srv.CountRequests("POST", "/api/cart")

	s.choose(t, 999)

	assert.Equal(t, before, s.srv.CountRequests("POST", "/api/cart"))
	assert.Empty(t, s.model.choice)
}

func TestModel_LoginPrompt(t *testing.T) {
	s := newShell(t)

	s.press(t, "l")
	require.NotNil(t, s.model.prompt)
	assert.Contains(t, s.model.View(), "Login")

	s.typeText(t, testutil.UserEmail)
	s.press(t, "enter")
	s.typeText(t, testutil.UserPassword)
	assert.NotContains(t, s.model.View(), testutil.UserPassword)
	s.press(t, "enter")

	assert.Nil(t, s.model.prompt)
	require.NotNil(t, s.app.Session())
	assert.Equal(t, testutil.UserEmail, s.app.Session().User.Email)
	assert.Contains(t, s.model.View(), "Login successful!")
}

func TestModel_LoginFailureShowsFormError(t *testing.T) {
	s := newShell(t)

	s.press(t, "l")
	s.typeText(t, testutil.UserEmail)
	s.press(t, "enter")
	s.typeText(t, "wrong-password")
	s.press(t, "enter")

	assert.Nil(t, s.app.Session())
	require.NotEmpty(t, s.model.messages)
	assert.Equal(t, notify.Error, s.model.messages[len(s.model.messages)-1].Kind)
}

func TestModel_PromptEscCancels(t *testing.T) {
	s := newShell(t)

	s.press(t, "k")
	require.NotNil(t, s.model.prompt)
	s.press(t, "esc")

	assert.Nil(t, s.model.prompt)
	assert.Equal(t, 0, s.srv.CountRequests("POST", "/api/orders"))
}

func TestModel_AdminProductForm(t *testing.T) {
	s := newShell(t)
	s.press(t, "l")
	s.typeText(t, testutil.AdminEmail)
	s.press(t, "enter")
	s.typeText(t, testutil.AdminPassword)
	s.press(t, "enter")
	require.True(t, s.app.Session().IsAdmin())

	s.press(t, "a")
	require.Equal(t, router.Admin, s.app.Router().Active())

	s.choose(t, s.actionIndex(t, view.ActNewProduct, ""))
	require.NotNil(t, s.model.prompt)
	assert.Equal(t, "Add Product", s.model.prompt.title)

	for _, v := range []string{"Standing Mat", "Anti-fatigue", "35.00", "7", "furniture", ""} {
		if v != "" {
			s.typeText(t, v)
		}
		s.press(t, "enter")
	}

	assert.Nil(t, s.model.prompt)
	assert.Nil(t, s.app.State().ProductForm())
	assert.NotEmpty(t, s.productID("Standing Mat"))
	assert.Contains(t, s.model.View(), "Product created successfully!")
}

func TestModel_ToastsAreCapped(t *testing.T) {
	s := newShell(t)
	for i := range 5 {
		s.toasts.Notify(notify.Info, "note "+strconv.Itoa(i))
	}
	s.exec(t, func() tea.Msg { return doneMsg{} })

	require.Len(t, s.model.messages, maxToasts)
	assert.Equal(t, "note 4", s.model.messages[maxToasts-1].Text)
}

func TestModel_KeysIgnoredWhileBusy(t *testing.T) {
	s := newShell(t)

	pending := s.send(t, keyMsg("p"))
	require.NotNil(t, pending)
	assert.True(t, s.model.busy)

	assert.Nil(t, s.send(t, keyMsg("c")))
	assert.Nil(t, s.send(t, keyMsg("l")))
	assert.Nil(t, s.model.prompt)
	s.send(t, keyMsg("1"))
	assert.Empty(t, s.model.choice)

	s.exec(t, pending)
	assert.False(t, s.model.busy)
	assert.Equal(t, router.Products, s.app.Router().Active())

	s.press(t, "c")
	assert.Equal(t, router.Cart, s.app.Router().Active())
}

func TestModel_QuitWhileBusy(t *testing.T) {
	s := newShell(t)

	require.NotNil(t, s.send(t, keyMsg("p")))
	cmd := s.send(t, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_Quit(t *testing.T) {
	s := newShell(t)

	cmd := s.send(t, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_WindowResize(t *testing.T) {
	s := newShell(t)

	s.send(t, tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.True(t, s.model.ready)
	assert.Equal(t, 100, s.model.viewport.Width)
	assert.Equal(t, 34, s.model.viewport.Height)
}

func TestModel_HelpToggle(t *testing.T) {
	s := newShell(t)

	s.press(t, "?")
	require.True(t, s.model.showHelp)
	assert.Contains(t, s.model.View(), "Keys")

	s.press(t, "?")
	assert.False(t, s.model.showHelp)
	assert.Contains(t, s.model.View(), "Walnut Desk")
}
