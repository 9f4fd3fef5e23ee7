package app

import (
	"context"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/notify"
	"github.com/0x6d61/storefront/internal/view"
)

func (a *App) requireAdmin() error {
	if !a.api.Auth.IsAdmin() {
		return a.report("", domain.ErrAdminRequired)
	}
	return nil
}

// NewProduct opens an empty product form.
func (a *App) NewProduct() error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	a.state.setFormError(view.FormProduct, "")
	a.state.update(func(s *State) { s.productForm = &domain.Product{} })
	return nil
}

// EditProduct opens the product form filled with the product's current
// values.
func (a *App) EditProduct(ctx context.Context, id string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	p, err := a.api.Products.Get(ctx, id)
	if err != nil {
		return a.report("", err)
	}
	a.state.setFormError(view.FormProduct, "")
	a.state.update(func(s *State) { s.productForm = p })
	return nil
}

// CloseProductForm discards the product form.
func (a *App) CloseProductForm() {
	a.state.update(func(s *State) { s.productForm = nil })
	a.state.setFormError(view.FormProduct, "")
}

// SaveProduct creates a product when id is empty and updates it
// otherwise. Invalid input is rejected before any request.
func (a *App) SaveProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	a.state.setFormError(view.FormProduct, "")

	var (
		p   *domain.Product
		err error
		msg string
	)
	if id == "" {
		p, err = a.api.Products.Create(ctx, in)
		msg = "Product created successfully!"
	} else {
		p, err = a.api.Products.Update(ctx, id, in)
		msg = "Product updated successfully!"
	}
	if err != nil {
		return nil, a.report(view.FormProduct, err)
	}

	a.notifier.Notify(notify.Success, msg)
	a.state.update(func(s *State) { s.productForm = nil })
	a.refreshCatalog(ctx)
	return p, nil
}

// DeleteProduct removes a product.
func (a *App) DeleteProduct(ctx context.Context, id string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if err := a.api.Products.Delete(ctx, id); err != nil {
		return a.report("", err)
	}
	a.notifier.Notify(notify.Success, "Product deleted successfully!")
	a.refreshCatalog(ctx)
	return nil
}

func (a *App) refreshCatalog(ctx context.Context) {
	if err := a.loadAdminProducts(ctx); err != nil {
		a.report("", err)
	}
	if err := a.LoadProducts(ctx); err != nil {
		a.report("", err)
	}
}

// UpdateOrderStatus changes an order's status and reloads the admin
// order list.
func (a *App) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	o, err := a.api.Orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, a.report("", err)
	}
	a.notifier.Notify(notify.Success, "Order status updated!")
	a.state.update(func(s *State) {
		if s.selectedOrder != nil && s.selectedOrder.ID == o.ID {
			s.selectedOrder = o
		}
	})
	if err := a.loadAdminOrders(ctx); err != nil {
		a.report("", err)
	}
	return o, nil
}

// ViewOrder opens the details of an order.
func (a *App) ViewOrder(ctx context.Context, id string) (*domain.Order, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	o, err := a.api.Orders.Get(ctx, id)
	if err != nil {
		return nil, a.report("", err)
	}
	a.state.update(func(s *State) { s.selectedOrder = o })
	return o, nil
}

// CloseOrder hides the order details.
func (a *App) CloseOrder() {
	a.state.update(func(s *State) { s.selectedOrder = nil })
}
