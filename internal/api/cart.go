package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/0x6d61/storefront/internal/domain"
)

// CartService manages the current session's (or guest's) cart. Every
// mutating call returns the full cart as the server sees it afterwards.
type CartService struct {
	client *Client
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (s *CartService) cartCall(ctx context.Context, method, path string, in any, op string) (*domain.Cart, error) {
	var out domain.Cart
	if err := s.client.do(ctx, method, path, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if out.Items == nil {
		out.Items = []domain.CartLine{}
	}
	return &out, nil
}

// Get returns the cart.
func (s *CartService) Get(ctx context.Context) (*domain.Cart, error) {
	return s.cartCall(ctx, http.MethodGet, "/api/cart", nil, "get cart")
}

// AddItem adds quantity of a product.
func (s *CartService) AddItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	return s.cartCall(ctx, http.MethodPost, "/api/cart/items",
		addItemRequest{ProductID: productID, Quantity: quantity}, "add cart item")
}

// UpdateItem sets the quantity of a cart line.
func (s *CartService) UpdateItem(ctx context.Context, lineID string, quantity int) (*domain.Cart, error) {
	return s.cartCall(ctx, http.MethodPut, "/api/cart/items/"+pathEscape(lineID),
		updateItemRequest{Quantity: quantity}, "update cart item")
}

// RemoveItem deletes a cart line.
func (s *CartService) RemoveItem(ctx context.Context, lineID string) (*domain.Cart, error) {
	return s.cartCall(ctx, http.MethodDelete, "/api/cart/items/"+pathEscape(lineID), nil, "remove cart item")
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context) (*domain.Cart, error) {
	return s.cartCall(ctx, http.MethodDelete, "/api/cart", nil, "clear cart")
}
