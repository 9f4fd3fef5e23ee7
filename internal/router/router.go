package router

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/notify"
)

// Loader fetches the data a view shows. Implementations record their own
// failure placeholders; the router only reports the error.
type Loader interface {
	LoadProducts(ctx context.Context) error
	LoadCart(ctx context.Context) error
	LoadOrders(ctx context.Context) error
	LoadAdmin(ctx context.Context) error
}

// SessionSource exposes the current session. *api.AuthService satisfies it.
type SessionSource interface {
	Current() *domain.Session
}

// Outcome describes the result of a navigation.
type Outcome struct {
	Requested Route
	Route     Route
	// Redirect is set when a role gate sent the user elsewhere.
	Redirect error
	// LoadErr is the entered view's load failure, already reported.
	LoadErr error
}

// Redirected reports whether the resolved route differs from the request.
func (o Outcome) Redirected() bool {
	return o.Redirect != nil
}

// Option configures a Router.
type Option func(*Router)

// WithNotifier sets where redirects and load failures are reported.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Router) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMessage sets how a load failure is turned into the text the user
// sees. The default is err.Error().
func WithMessage(fn func(error) string) Option {
	return func(r *Router) {
		if fn != nil {
			r.message = fn
		}
	}
}

// OnEnter registers a hook called with every route that becomes active.
func OnEnter(fn func(Route)) Option {
	return func(r *Router) {
		r.onEnter = fn
	}
}

// Router owns the active route and the navigation history.
type Router struct {
	loader   Loader
	session  SessionSource
	notifier notify.Notifier
	logger   *zap.Logger
	onEnter  func(Route)
	message  func(error) string

	mu      sync.Mutex
	active  Route
	history History
}

// New creates a Router. The active route starts as Home with an empty
// history.
func New(loader Loader, session SessionSource, opts ...Option) *Router {
	r := &Router{
		loader:   loader,
		session:  session,
		notifier: notify.Nop,
		logger:   zap.NewNop(),
		message:  func(err error) string { return err.Error() },
		active:   Home,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Active returns the active route.
func (r *Router) Active() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// History returns the visited routes, oldest first.
func (r *Router) History() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Entries()
}

// Navigate resolves name, applies the role gates, activates the resulting
// route, records it in the history and loads its data.
func (r *Router) Navigate(ctx context.Context, name string) Outcome {
	return r.enter(ctx, Parse(name), true)
}

// Back re-enters the previous history entry without recording a new one.
func (r *Router) Back(ctx context.Context) (Outcome, bool) {
	r.mu.Lock()
	target, ok := r.history.Back()
	r.mu.Unlock()
	if !ok {
		return Outcome{}, false
	}
	return r.enter(ctx, target, false), true
}

// Forward re-enters the next history entry without recording a new one.
func (r *Router) Forward(ctx context.Context) (Outcome, bool) {
	r.mu.Lock()
	target, ok := r.history.Forward()
	r.mu.Unlock()
	if !ok {
		return Outcome{}, false
	}
	return r.enter(ctx, target, false), true
}

// Reload re-enters the active route, re-evaluating the gates against the
// current session.
func (r *Router) Reload(ctx context.Context) Outcome {
	return r.enter(ctx, r.Active(), false)
}

func (r *Router) enter(ctx context.Context, target Route, push bool) Outcome {
	out := Outcome{Requested: target}
	out.Route, out.Redirect = resolve(target, r.session.Current())

	if out.Redirect != nil {
		r.logger.Info("navigation redirected",
			zap.String("requested", string(target)),
			zap.String("route", string(out.Route)))
		r.notifier.Notify(notify.Error, out.Redirect.Error())
	}

	r.mu.Lock()
	r.active = out.Route
	if push {
		r.history.Push(out.Route)
	}
	r.mu.Unlock()

	if r.onEnter != nil {
		r.onEnter(out.Route)
	}

	if err := r.load(ctx, out.Route); err != nil {
		out.LoadErr = err
		r.logger.Warn("view load failed",
			zap.String("route", string(out.Route)),
			zap.Error(err))
		r.notifier.Notify(notify.Error, r.message(err))
	}
	return out
}

// resolve applies the role gates to target.
func resolve(target Route, s *domain.Session) (Route, error) {
	switch target {
	case Admin:
		if !s.IsAdmin() {
			return Home, domain.ErrAdminRequired
		}
	case Cart:
		if s.IsAdmin() {
			return Admin, domain.ErrAdminNoCart
		}
	case Orders:
		if s.IsAdmin() {
			return Admin, domain.ErrAdminNoOrders
		}
	}
	return target, nil
}

func (r *Router) load(ctx context.Context, route Route) error {
	if r.loader == nil {
		return nil
	}
	switch route {
	case Home, Products:
		return r.loader.LoadProducts(ctx)
	case Cart:
		return r.loader.LoadCart(ctx)
	case Orders:
		return r.loader.LoadOrders(ctx)
	case Admin:
		return r.loader.LoadAdmin(ctx)
	}
	return nil
}
