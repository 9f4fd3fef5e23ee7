package view

import (
	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/router"
)

// FeaturedCount is how many products the home view features.
const FeaturedCount = 8

// Form names used for inline errors.
const (
	FormLogin    = "login"
	FormRegister = "register"
	FormCheckout = "checkout"
	FormProduct  = "product"
	FormContact  = "contact"
)

// CheckoutForm holds the checkout fields.
type CheckoutForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Snapshot is the read-only input to every render function.
type Snapshot struct {
	Route         router.Route
	Session       *domain.Session
	Products      []domain.Product
	Search        string
	Category      string
	Cart          *domain.Cart
	Orders        []domain.Order
	OrdersLoaded  bool
	AdminProducts []domain.Product
	AdminOrders   []domain.Order
	SelectedOrder *domain.Order
	ProductForm   *domain.Product
	Checkout      CheckoutForm
	PanelErrors   map[router.Route]string
	FormErrors    map[string]string
}
