package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0x6d61/storefront/internal/api"
	"github.com/0x6d61/storefront/internal/router"
)

// Panel placeholders shown when a load fails.
const (
	msgProductsFailed = "Failed to load products. Please try again later."
	msgCartFailed     = "Failed to load cart."
	msgOrdersFailed   = "Failed to load orders."
)

// LoadProducts replaces the product snapshot using the current filter.
func (a *App) LoadProducts(ctx context.Context) error {
	a.state.mu.RLock()
	f := api.Filter{Search: a.state.search, Category: a.state.category}
	a.state.mu.RUnlock()

	products, err := a.api.Products.List(ctx, f)
	if err != nil {
		a.state.setPanelError(msgProductsFailed, router.Home, router.Products)
		return fmt.Errorf("failed to load products: %w", err)
	}
	a.state.update(func(s *State) { s.products = products })
	a.state.setPanelError("", router.Home, router.Products)
	a.logger.Debug("products loaded", zap.Int("count", len(products)))
	return nil
}

// LoadCart reloads the cart and pre-fills empty checkout fields from the
// session.
func (a *App) LoadCart(ctx context.Context) error {
	if _, err := a.cart.Load(ctx); err != nil {
		a.state.setPanelError(msgCartFailed, router.Cart)
		return err
	}
	a.state.setPanelError("", router.Cart)

	if sess := a.api.Auth.Current(); sess != nil {
		a.state.update(func(s *State) {
			if s.checkout.Name == "" {
				s.checkout.Name = sess.User.Name
			}
			if s.checkout.Email == "" {
				s.checkout.Email = sess.User.Email
			}
		})
	}
	return nil
}

// LoadOrders loads the order history of the signed-in user, or of the
// email used at the last checkout.
func (a *App) LoadOrders(ctx context.Context) error {
	email := a.persistedState().CustomerEmail
	if sess := a.api.Auth.Current(); sess != nil && sess.User.Email != "" {
		email = sess.User.Email
	}
	if email == "" {
		a.state.update(func(s *State) {
			s.orders = nil
			s.ordersLoaded = false
		})
		return nil
	}

	orders, err := a.api.Orders.ListByCustomerEmail(ctx, email)
	if err != nil {
		a.state.setPanelError(msgOrdersFailed, router.Orders)
		return fmt.Errorf("failed to load orders: %w", err)
	}
	a.state.update(func(s *State) {
		s.orders = orders
		s.ordersLoaded = true
	})
	a.state.setPanelError("", router.Orders)
	return nil
}

// LoadAdmin loads the admin product and order lists concurrently. A
// failure of one does not cancel the other.
func (a *App) LoadAdmin(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.loadAdminProducts(ctx) })
	g.Go(func() error { return a.loadAdminOrders(ctx) })
	err := g.Wait()
	if err == nil {
		a.state.setPanelError("", router.Admin)
	}
	return err
}

func (a *App) loadAdminProducts(ctx context.Context) error {
	products, err := a.api.Products.List(ctx, api.Filter{})
	if err != nil {
		a.state.setPanelError(msgProductsFailed, router.Admin)
		return fmt.Errorf("failed to load admin products: %w", err)
	}
	a.state.update(func(s *State) { s.adminProducts = products })
	return nil
}

func (a *App) loadAdminOrders(ctx context.Context) error {
	orders, err := a.api.Orders.List(ctx)
	if err != nil {
		a.state.setPanelError(msgOrdersFailed, router.Admin)
		return fmt.Errorf("failed to load admin orders: %w", err)
	}
	a.state.update(func(s *State) { s.adminOrders = orders })
	return nil
}
