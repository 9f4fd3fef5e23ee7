package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/0x6d61/storefront/internal/domain"
)

// ProductService manages the catalog.
type ProductService struct {
	client *Client
}

// Filter narrows a product listing. Empty fields are ignored.
type Filter struct {
	Category string
	Search   string
}

func (f Filter) query() string {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// productRequest carries prices as JSON numbers.
type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	Image       string  `json:"image,omitempty"`
}

func newProductRequest(in domain.ProductInput) productRequest {
	return productRequest{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.InexactFloat64(),
		Stock:       in.Stock,
		Category:    in.Category,
		Image:       in.Image,
	}
}

// List returns the catalog, optionally filtered.
func (s *ProductService) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	var out []domain.Product
	if err := s.client.do(ctx, http.MethodGet, "/api/products"+f.query(), nil, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := s.client.do(ctx, http.MethodGet, "/api/products/"+pathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get product: %w", withEntity(err, "product", id))
	}
	return &out, nil
}

// Create adds a product. The input is validated before any request.
func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out domain.Product
	if err := s.client.do(ctx, http.MethodPost, "/api/products", newProductRequest(in), &out); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &out, nil
}

// Update replaces a product's fields.
func (s *ProductService) Update(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out domain.Product
	if err := s.client.do(ctx, http.MethodPut, "/api/products/"+pathEscape(id), newProductRequest(in), &out); err != nil {
		return nil, fmt.Errorf("update product: %w", withEntity(err, "product", id))
	}
	return &out, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.client.do(ctx, http.MethodDelete, "/api/products/"+pathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete product: %w", withEntity(err, "product", id))
	}
	return nil
}
