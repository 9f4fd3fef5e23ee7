// Package app is the storefront controller. It owns the application state,
// wires the router and the cart sequencer to the API facade and turns user
// actions into API calls, state replacement and notifications.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0x6d61/storefront/internal/api"
	"github.com/0x6d61/storefront/internal/cart"
	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/notify"
	"github.com/0x6d61/storefront/internal/router"
	"github.com/0x6d61/storefront/internal/session"
	"github.com/0x6d61/storefront/internal/view"
)

// persistTimeout bounds a session store write.
const persistTimeout = 5 * time.Second

// App is a running storefront.
type App struct {
	api      *api.Client
	state    *State
	router   *router.Router
	cart     *cart.Sequencer
	notifier notify.Notifier
	logger   *zap.Logger

	store session.Store
	// persistMu guards persisted, including while the store writes it.
	persistMu sync.Mutex
	persisted *session.State
}

// Option configures an App.
type Option func(*App)

// WithNotifier sets where user-facing messages go.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) {
		if n != nil {
			a.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithStore persists the session, the customer email and the last route
// in store, starting from st.
func WithStore(store session.Store, st *session.State) Option {
	return func(a *App) {
		a.store = store
		a.persisted = st
	}
}

// New creates an App driving client.
func New(client *api.Client, opts ...Option) *App {
	a := &App{
		api:      client,
		state:    NewState(),
		notifier: notify.Nop,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.persisted == nil {
		a.persisted = &session.State{APIURL: client.BaseURL()}
	}
	if a.persisted.GuestID == "" {
		a.persisted.GuestID = client.GuestID()
	}

	a.cart = cart.NewSequencer(client.Cart, client.Auth,
		cart.WithLogger(a.logger),
		cart.OnChange(func(c *domain.Cart) {
			a.state.update(func(s *State) { s.cart = c })
		}))

	a.router = router.New(a, client.Auth,
		router.WithNotifier(a.notifier),
		router.WithLogger(a.logger),
		router.WithMessage(UserMessage),
		router.OnEnter(a.enterRoute))
	return a
}

// State returns the application state.
func (a *App) State() *State { return a.state }

// Router returns the view router.
func (a *App) Router() *router.Router { return a.router }

// Cart returns the cart sequencer.
func (a *App) Cart() *cart.Sequencer { return a.cart }

// Session returns the current session, nil when anonymous.
func (a *App) Session() *domain.Session { return a.api.Auth.Current() }

// Snapshot returns a render snapshot of the current state.
func (a *App) Snapshot() view.Snapshot {
	return a.state.Snapshot(a.api.Auth.Current())
}

// Page renders the current screen.
func (a *App) Page() *view.Node {
	return view.Page(a.Snapshot())
}

// CustomerEmail returns the email remembered from the last checkout.
func (a *App) CustomerEmail() string {
	return a.persistedState().CustomerEmail
}

// Init performs the initial load (products, then the cart) and enters
// the last persisted route.
func (a *App) Init(ctx context.Context) router.Outcome {
	a.loadInitialData(ctx)
	start := a.persistedState().LastRoute
	if start == "" {
		start = string(router.Home)
	}
	return a.router.Navigate(ctx, start)
}

// Refresh reloads the catalog and, unless signed in as admin, the cart
// without changing the active route.
func (a *App) Refresh(ctx context.Context) {
	a.loadInitialData(ctx)
}

func (a *App) loadInitialData(ctx context.Context) {
	if err := a.LoadProducts(ctx); err != nil {
		a.report("", err)
	}
	if a.api.Auth.IsAdmin() {
		return
	}
	if err := a.LoadCart(ctx); err != nil {
		a.report("", err)
	}
}

// Navigate activates a route by name.
func (a *App) Navigate(ctx context.Context, name string) router.Outcome {
	return a.router.Navigate(ctx, name)
}

// Back re-enters the previous route.
func (a *App) Back(ctx context.Context) (router.Outcome, bool) {
	return a.router.Back(ctx)
}

// Forward re-enters the next route.
func (a *App) Forward(ctx context.Context) (router.Outcome, bool) {
	return a.router.Forward(ctx)
}

func (a *App) enterRoute(r router.Route) {
	a.state.update(func(s *State) { s.route = r })
	a.persist(func(st *session.State) { st.LastRoute = string(r) })
}

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

// report stops err at the handler boundary. Validation and credential
// errors of a form are shown inline; everything else is notified.
func (a *App) report(form string, err error) error {
	if err == nil {
		return nil
	}
	msg := UserMessage(err)
	if form != "" && (domain.IsValidation(err) || domain.IsAuth(err)) {
		a.state.setFormError(form, msg)
	} else {
		a.notifier.Notify(notify.Error, msg)
	}
	a.logger.Debug("action failed", zap.String("form", form), zap.Error(err))
	return err
}

// UserMessage returns the message of the innermost domain error in err,
// without the operation prefixes added while wrapping.
func UserMessage(err error) string {
	var (
		ve *domain.ValidationError
		ae *domain.AuthError
		pe *domain.PermissionError
		ne *domain.NotFoundError
		se *domain.ServerError
		we *domain.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ae):
		return ae.Error()
	case errors.As(err, &pe):
		return pe.Error()
	case errors.As(err, &ne):
		return ne.Error()
	case errors.As(err, &se):
		return se.Error()
	case errors.As(err, &we):
		return we.Error()
	}
	return err.Error()
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// persistedState returns a copy of the persisted state.
func (a *App) persistedState() session.State {
	a.persistMu.Lock()
	defer a.persistMu.Unlock()
	return *a.persisted
}

// persist applies mutate and writes the result. Writes are serialized so
// the store never sees a state that is being changed.
func (a *App) persist(mutate func(st *session.State)) {
	a.persistMu.Lock()
	defer a.persistMu.Unlock()
	mutate(a.persisted)
	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := a.store.Save(ctx, a.persisted); err != nil {
		a.logger.Warn("failed to persist session", zap.Error(err))
	}
}

func (a *App) persistSession() {
	sess := a.api.Auth.Current()
	a.persist(func(st *session.State) {
		if sess == nil {
			st.Token = ""
			st.User = nil
			return
		}
		u := sess.User
		st.Token = sess.Token
		st.User = &u
	})
}
