package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/0x6d61/storefront/internal/domain"
)

// OrderService places and manages orders.
type OrderService struct {
	client *Client
}

type createOrderRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

type createOrderResponse struct {
	Order domain.Order `json:"order"`
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// Create places an order for the current cart.
func (s *OrderService) Create(ctx context.Context, name, email string) (*domain.Order, error) {
	var out createOrderResponse
	err := s.client.do(ctx, http.MethodPost, "/api/orders",
		createOrderRequest{CustomerName: name, CustomerEmail: email}, &out)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &out.Order, nil
}

// ListByCustomerEmail returns the order history for an email address.
func (s *OrderService) ListByCustomerEmail(ctx context.Context, email string) ([]domain.Order, error) {
	var out []domain.Order
	if err := s.client.do(ctx, http.MethodGet, "/api/orders/customer/"+pathEscape(email), nil, &out); err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	if out == nil {
		out = []domain.Order{}
	}
	return out, nil
}

// List returns every order (admin only).
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := s.client.do(ctx, http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if out == nil {
		out = []domain.Order{}
	}
	return out, nil
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	if err := s.client.do(ctx, http.MethodGet, "/api/orders/"+pathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get order: %w", withEntity(err, "order", id))
	}
	return &out, nil
}

// UpdateStatus moves an order to a new status (admin only).
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown order status %q", status))
	}
	var out domain.Order
	err := s.client.do(ctx, http.MethodPatch, "/api/orders/"+pathEscape(id)+"/status", statusRequest{Status: status}, &out)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", withEntity(err, "order", id))
	}
	return &out, nil
}
