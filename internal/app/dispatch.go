package app

import (
	"context"
	"fmt"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/view"
)

// Dispatch executes an action bound to a rendered node. Errors have
// already been reported when they are returned.
func (a *App) Dispatch(ctx context.Context, act view.Action) error {
	switch act.Name {
	case view.ActNavigate:
		a.Navigate(ctx, act.Target)
		return nil
	case view.ActAddToCart:
		return a.AddToCart(ctx, act.Target)
	case view.ActIncrement:
		return a.Increment(ctx, act.Target)
	case view.ActDecrement:
		return a.Decrement(ctx, act.Target)
	case view.ActRemove:
		return a.RemoveLine(ctx, act.Target)
	case view.ActClearCart:
		return a.ClearCart(ctx)
	case view.ActCheckout:
		_, err := a.Checkout(ctx, a.state.Checkout())
		return err
	case view.ActLogout:
		a.Logout(ctx)
		return nil
	case view.ActFilterCategory:
		return a.FilterCategory(ctx, act.Target)
	case view.ActNewProduct:
		return a.NewProduct()
	case view.ActEditProduct:
		return a.EditProduct(ctx, act.Target)
	case view.ActDeleteProduct:
		return a.DeleteProduct(ctx, act.Target)
	case view.ActViewOrder:
		_, err := a.ViewOrder(ctx, act.Target)
		return err
	case view.ActCloseOrder:
		a.CloseOrder()
		return nil
	case view.ActSetStatus:
		_, err := a.UpdateOrderStatus(ctx, act.Target, domain.OrderStatus(act.Value))
		return err
	}
	return fmt.Errorf("unknown action %q", act.Name)
}
