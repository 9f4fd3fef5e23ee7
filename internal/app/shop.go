package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/notify"
	"github.com/0x6d61/storefront/internal/router"
	"github.com/0x6d61/storefront/internal/session"
	"github.com/0x6d61/storefront/internal/view"
)

// Search sets the product filter and reloads the catalog.
func (a *App) Search(ctx context.Context, search, category string) error {
	a.state.update(func(s *State) {
		s.search = strings.TrimSpace(search)
		s.category = strings.TrimSpace(category)
	})
	return a.report("", a.LoadProducts(ctx))
}

// FilterCategory keeps the search text and switches the category.
func (a *App) FilterCategory(ctx context.Context, category string) error {
	a.state.mu.RLock()
	search := a.state.search
	a.state.mu.RUnlock()
	return a.Search(ctx, search, category)
}

// AddToCart adds one unit of a product.
func (a *App) AddToCart(ctx context.Context, productID string) error {
	return a.AddQuantity(ctx, productID, 1)
}

// AddQuantity adds quantity units of a product.
func (a *App) AddQuantity(ctx context.Context, productID string, quantity int) error {
	if _, err := a.cart.Add(ctx, productID, quantity); err != nil {
		return a.report("", err)
	}
	a.notifier.Notify(notify.Success, "Product added to cart!")
	return nil
}

// Increment raises a cart line's quantity by one.
func (a *App) Increment(ctx context.Context, lineID string) error {
	_, err := a.cart.Increment(ctx, lineID)
	return a.report("", err)
}

// Decrement lowers a cart line's quantity by one, removing it at zero.
func (a *App) Decrement(ctx context.Context, lineID string) error {
	_, err := a.cart.Decrement(ctx, lineID)
	return a.report("", err)
}

// SetQuantity sets a cart line's quantity.
func (a *App) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	_, err := a.cart.SetQuantity(ctx, lineID, quantity)
	return a.report("", err)
}

// RemoveLine removes a cart line.
func (a *App) RemoveLine(ctx context.Context, lineID string) error {
	_, err := a.cart.Remove(ctx, lineID)
	return a.report("", err)
}

// ClearCart empties the cart.
func (a *App) ClearCart(ctx context.Context) error {
	_, err := a.cart.Clear(ctx)
	return a.report("", err)
}

// SetCheckout stores the checkout form fields.
func (a *App) SetCheckout(f view.CheckoutForm) {
	a.state.update(func(s *State) { s.checkout = f })
}

// Checkout places an order for the current cart. The name and email are
// required and an empty cart is rejected before any order request. On
// success the cart is cleared, the form reset, the email remembered and
// signed-in users are taken to their order history.
func (a *App) Checkout(ctx context.Context, f view.CheckoutForm) (*domain.Order, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)
	a.SetCheckout(f)
	a.state.setFormError(view.FormCheckout, "")

	if f.Name == "" || f.Email == "" {
		return nil, a.report(view.FormCheckout, domain.NewValidationError("checkout", "Please fill in all checkout fields."))
	}
	if a.api.Auth.IsAdmin() {
		return nil, a.report("", domain.ErrAdminNoCart)
	}
	if a.cart.Snapshot().IsEmpty() {
		return nil, a.report(view.FormCheckout, domain.NewValidationError("cart", "Cart is empty"))
	}

	order, err := a.api.Orders.Create(ctx, f.Name, f.Email)
	if err != nil {
		return nil, a.report(view.FormCheckout, err)
	}
	a.notifier.Notify(notify.Success, fmt.Sprintf("Order placed successfully! Order Number: %s", order.OrderNumber))

	if _, err := a.cart.Clear(ctx); err != nil {
		a.report("", err)
	}
	a.SetCheckout(view.CheckoutForm{})
	a.persist(func(st *session.State) { st.CustomerEmail = f.Email })

	if a.api.Auth.IsAuthenticated() {
		a.router.Navigate(ctx, string(router.Orders))
	}
	return order, nil
}

// SubmitContact validates the contact form. Messages are not sent
// anywhere; the visitor gets a confirmation.
func (a *App) SubmitContact(name, email, message string) error {
	a.state.setFormError(view.FormContact, "")
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(message) == "" {
		return a.report(view.FormContact, domain.NewValidationError("contact", "Please fill all contact fields."))
	}
	a.notifier.Notify(notify.Success, "Thanks! We'll get back to you shortly.")
	return nil
}
