package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/notify"
)

// fakeLoader records which loads ran.
type fakeLoader struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeLoader) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeLoader) LoadProducts(context.Context) error { return f.record("products") }
func (f *fakeLoader) LoadCart(context.Context) error     { return f.record("cart") }
func (f *fakeLoader) LoadOrders(context.Context) error   { return f.record("orders") }
func (f *fakeLoader) LoadAdmin(context.Context) error    { return f.record("admin") }

func (f *fakeLoader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fixedSession struct{ s *domain.Session }

func (f *fixedSession) Current() *domain.Session { return f.s }

var (
	adminSession = &domain.Session{Token: "t-admin", User: domain.User{Name: "Root", Role: domain.RoleAdmin}}
	userSession  = &domain.Session{Token: "t-user", User: domain.User{Name: "Ada", Role: domain.RoleUser}}
)

func newTestRouter(s *domain.Session) (*Router, *fakeLoader, *notify.Recorder, *fixedSession) {
	loader := &fakeLoader{}
	rec := &notify.Recorder{}
	src := &fixedSession{s: s}
	return New(loader, src, WithNotifier(rec)), loader, rec, src
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Route
	}{
		{"home", Home},
		{"#cart", Cart},
		{"  Products ", Products},
		{"ADMIN", Admin},
		{"", Home},
		{"#", Home},
		{"checkout", Home},
		{"../etc", Home},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.in), "Parse(%q)", tt.in)
	}
}

func TestRouteFragmentAndTitle(t *testing.T) {
	assert.Equal(t, "#orders", Orders.Fragment())
	assert.Equal(t, "My Orders", Orders.Title())
	for _, r := range All {
		assert.NotEmpty(t, r.Title())
		assert.Equal(t, r, Parse(r.Fragment()))
	}
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

func TestNavigate_ExactlyOneActiveRoute(t *testing.T) {
	r, _, _, _ := newTestRouter(userSession)
	ctx := context.Background()

	for _, name := range []string{"products", "cart", "bogus", "about", "orders", "contact"} {
		out := r.Navigate(ctx, name)
		assert.Equal(t, out.Route, r.Active())
		assert.True(t, r.Active().Valid())
	}
	assert.Equal(t, Contact, r.Active())
}

func TestNavigate_InvalidNameFallsBackToHome(t *testing.T) {
	r, loader, _, _ := newTestRouter(nil)
	out := r.Navigate(context.Background(), "nowhere")
	assert.Equal(t, Home, out.Route)
	assert.Equal(t, Home, out.Requested)
	assert.False(t, out.Redirected())
	assert.Equal(t, []string{"products"}, loader.Calls())
}

func TestNavigate_LoadsPerRoute(t *testing.T) {
	tests := []struct {
		route string
		want  []string
	}{
		{"home", []string{"products"}},
		{"products", []string{"products"}},
		{"cart", []string{"cart"}},
		{"orders", []string{"orders"}},
		{"about", nil},
		{"contact", nil},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			r, loader, _, _ := newTestRouter(userSession)
			r.Navigate(context.Background(), tt.route)
			assert.Equal(t, tt.want, loader.Calls())
		})
	}
}

func TestNavigate_NonAdminRedirectedFromAdmin(t *testing.T) {
	for _, s := range []*domain.Session{nil, userSession} {
		r, loader, rec, _ := newTestRouter(s)
		out := r.Navigate(context.Background(), "admin")

		assert.Equal(t, Home, out.Route)
		assert.Equal(t, Admin, out.Requested)
		require.True(t, domain.IsPermission(out.Redirect))
		assert.NotContains(t, loader.Calls(), "admin")
		assert.True(t, rec.Contains(notify.Error, "Admin privileges required"))
		assert.Equal(t, []Route{Home}, r.History())
	}
}

func TestNavigate_AdminRedirectedFromCartAndOrders(t *testing.T) {
	for _, target := range []string{"cart", "orders"} {
		t.Run(target, func(t *testing.T) {
			r, loader, rec, _ := newTestRouter(adminSession)
			out := r.Navigate(context.Background(), target)

			assert.Equal(t, Admin, out.Route)
			assert.True(t, domain.IsPermission(out.Redirect))
			assert.Equal(t, []string{"admin"}, loader.Calls())
			assert.Equal(t, 1, rec.Count(notify.Error))
		})
	}
}

func TestNavigate_AdminEntersAdmin(t *testing.T) {
	r, loader, rec, _ := newTestRouter(adminSession)
	out := r.Navigate(context.Background(), "#admin")
	assert.Equal(t, Admin, out.Route)
	assert.Nil(t, out.Redirect)
	assert.Equal(t, []string{"admin"}, loader.Calls())
	assert.Empty(t, rec.Messages())
}

func TestNavigate_LoadFailureReported(t *testing.T) {
	r, loader, rec, _ := newTestRouter(nil)
	loader.fail = map[string]error{"products": errors.New("network error: connection refused")}

	out := r.Navigate(context.Background(), "products")
	assert.Equal(t, Products, out.Route)
	assert.Error(t, out.LoadErr)
	assert.True(t, rec.Contains(notify.Error, "connection refused"))
}

func TestNavigate_LoadFailureMessage(t *testing.T) {
	loader := &fakeLoader{fail: map[string]error{
		"orders": fmt.Errorf("failed to load orders: %w", &domain.NetworkError{Err: errors.New("connection refused")}),
	}}
	rec := &notify.Recorder{}
	r := New(loader, &fixedSession{}, WithNotifier(rec), WithMessage(func(err error) string {
		var ne *domain.NetworkError
		if errors.As(err, &ne) {
			return "Network error. Please try again."
		}
		return err.Error()
	}))

	out := r.Navigate(context.Background(), "orders")
	require.Error(t, out.LoadErr)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "Network error. Please try again.", last.Text)
	assert.NotContains(t, last.Text, "failed to load")
}

func TestNavigate_OnEnterHook(t *testing.T) {
	var entered []Route
	r := New(&fakeLoader{}, &fixedSession{}, OnEnter(func(rt Route) { entered = append(entered, rt) }))
	r.Navigate(context.Background(), "about")
	r.Navigate(context.Background(), "admin")
	assert.Equal(t, []Route{About, Home}, entered)
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func TestBackForward(t *testing.T) {
	r, loader, _, _ := newTestRouter(userSession)
	ctx := context.Background()

	r.Navigate(ctx, "products")
	r.Navigate(ctx, "cart")
	r.Navigate(ctx, "about")
	require.Equal(t, []Route{Products, Cart, About}, r.History())

	out, ok := r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, Cart, out.Route)
	assert.Equal(t, Cart, r.Active())

	out, ok = r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, Products, out.Route)

	_, ok = r.Back(ctx)
	assert.False(t, ok, "no entry before the first")

	out, ok = r.Forward(ctx)
	require.True(t, ok)
	assert.Equal(t, Cart, out.Route)

	assert.Equal(t, []Route{Products, Cart, About}, r.History(), "back/forward never push")
	assert.Equal(t, []string{"products", "cart", "cart", "products", "cart"}, loader.Calls())
}

func TestNavigateAfterBackDropsForwardEntries(t *testing.T) {
	r, _, _, _ := newTestRouter(userSession)
	ctx := context.Background()

	r.Navigate(ctx, "products")
	r.Navigate(ctx, "cart")
	r.Back(ctx)
	r.Navigate(ctx, "contact")

	assert.Equal(t, []Route{Products, Contact}, r.History())
	_, ok := r.Forward(ctx)
	assert.False(t, ok)
}

func TestBackReappliesGates(t *testing.T) {
	r, loader, _, src := newTestRouter(userSession)
	ctx := context.Background()

	r.Navigate(ctx, "cart")
	r.Navigate(ctx, "about")

	src.s = adminSession
	out, ok := r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, Admin, out.Route)
	assert.True(t, domain.IsPermission(out.Redirect))
	assert.Equal(t, "admin", loader.Calls()[len(loader.Calls())-1])
}

func TestReload(t *testing.T) {
	r, loader, _, src := newTestRouter(adminSession)
	ctx := context.Background()
	r.Navigate(ctx, "admin")

	src.s = nil
	out := r.Reload(ctx)
	assert.Equal(t, Home, out.Route)
	assert.Equal(t, []Route{Admin}, r.History(), "reload does not push")
	assert.Equal(t, []string{"admin", "products"}, loader.Calls())
}

func TestHistory(t *testing.T) {
	var h History
	_, ok := h.Current()
	assert.False(t, ok)
	_, ok = h.Back()
	assert.False(t, ok)

	h.Push(Home)
	h.Push(Cart)
	cur, _ := h.Current()
	assert.Equal(t, Cart, cur)
	assert.Equal(t, 2, h.Len())
}
