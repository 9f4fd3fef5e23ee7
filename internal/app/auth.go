package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/notify"
	"github.com/0x6d61/storefront/internal/view"
)

// Login signs in, reloads the initial data and re-enters the current
// route under the new role.
func (a *App) Login(ctx context.Context, email, password string) error {
	a.state.setFormError(view.FormLogin, "")

	sess, err := a.api.Auth.Login(ctx, email, password)
	if err != nil {
		return a.report(view.FormLogin, err)
	}
	a.persistSession()
	a.logger.Info("session started", zap.String("user", sess.User.Email))

	a.loadInitialData(ctx)
	a.router.Reload(ctx)
	a.notifier.Notify(notify.Success, "Login successful!")
	return nil
}

// Register creates an account. A signed-in admin creates the user without
// leaving their own session; anyone else becomes the new user.
func (a *App) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	a.state.setFormError(view.FormRegister, "")
	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	actingAsAdmin := a.api.Auth.IsAdmin()
	user, err := a.api.Auth.Register(ctx, in, actingAsAdmin)
	if err != nil {
		return nil, a.report(view.FormRegister, err)
	}

	if actingAsAdmin {
		a.notifier.Notify(notify.Success, fmt.Sprintf("User %q (%s) created successfully!", user.Name, user.Role))
		return user, nil
	}

	a.persistSession()
	a.loadInitialData(ctx)
	a.router.Reload(ctx)
	a.notifier.Notify(notify.Success, fmt.Sprintf("Registration successful! You are now logged in as %s.", user.Role))
	return user, nil
}

// CreateUser is the admin-only form of Register.
func (a *App) CreateUser(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if !a.api.Auth.IsAdmin() {
		return nil, a.report("", domain.ErrAdminRequired)
	}
	return a.Register(ctx, in)
}

// Logout ends the session, drops the cart and the per-user caches and
// re-enters the current route as an anonymous visitor.
func (a *App) Logout(ctx context.Context) {
	a.api.Auth.Logout()
	a.cart.Reset()
	a.state.update(func(s *State) {
		s.orders = nil
		s.ordersLoaded = false
		s.adminProducts = nil
		s.adminOrders = nil
		s.selectedOrder = nil
		s.productForm = nil
		s.checkout = view.CheckoutForm{}
	})
	a.persistSession()
	a.router.Reload(ctx)
	a.notifier.Notify(notify.Info, "You have been logged out.")
}
