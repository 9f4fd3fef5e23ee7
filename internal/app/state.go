package app

import (
	"sync"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/router"
	"github.com/0x6d61/storefront/internal/view"
)

// State holds the data caches of a running storefront. Every snapshot is
// replaced wholesale; readers take copies through Snapshot.
type State struct {
	mu sync.RWMutex

	route         router.Route
	products      []domain.Product
	search        string
	category      string
	cart          *domain.Cart
	orders        []domain.Order
	ordersLoaded  bool
	adminProducts []domain.Product
	adminOrders   []domain.Order
	selectedOrder *domain.Order
	productForm   *domain.Product
	checkout      view.CheckoutForm
	panelErrors   map[router.Route]string
	formErrors    map[string]string
}

// NewState returns an empty state on the home route.
func NewState() *State {
	return &State{
		route:       router.Home,
		panelErrors: make(map[router.Route]string),
		formErrors:  make(map[string]string),
	}
}

// Snapshot copies the state for rendering.
func (s *State) Snapshot(sess *domain.Session) view.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := view.Snapshot{
		Route:         s.route,
		Session:       sess,
		Products:      append([]domain.Product(nil), s.products...),
		Search:        s.search,
		Category:      s.category,
		Cart:          s.cart,
		Orders:        append([]domain.Order(nil), s.orders...),
		OrdersLoaded:  s.ordersLoaded,
		AdminProducts: append([]domain.Product(nil), s.adminProducts...),
		AdminOrders:   append([]domain.Order(nil), s.adminOrders...),
		SelectedOrder: s.selectedOrder,
		ProductForm:   s.productForm,
		Checkout:      s.checkout,
		PanelErrors:   make(map[router.Route]string, len(s.panelErrors)),
		FormErrors:    make(map[string]string, len(s.formErrors)),
	}
	for k, v := range s.panelErrors {
		snap.PanelErrors[k] = v
	}
	for k, v := range s.formErrors {
		snap.FormErrors[k] = v
	}
	return snap
}

func (s *State) update(fn func(s *State)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

// Route returns the active route.
func (s *State) Route() router.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.route
}

// Products returns the product snapshot.
func (s *State) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...)
}

// Cart returns the cart snapshot, nil before the first load.
func (s *State) Cart() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

// Orders returns the customer order snapshot.
func (s *State) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Order(nil), s.orders...)
}

// AdminProducts returns the admin product snapshot.
func (s *State) AdminProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.adminProducts...)
}

// AdminOrders returns the admin order snapshot.
func (s *State) AdminOrders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Order(nil), s.adminOrders...)
}

// SelectedOrder returns the order opened in the admin panel.
func (s *State) SelectedOrder() *domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedOrder
}

// ProductForm returns the product being edited, nil when the form is
// closed.
func (s *State) ProductForm() *domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productForm
}

// Checkout returns the checkout form fields.
func (s *State) Checkout() view.CheckoutForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkout
}

// PanelError returns the load failure placeholder of a route.
func (s *State) PanelError(r router.Route) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panelErrors[r]
}

// FormError returns the inline error of a form.
func (s *State) FormError(form string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formErrors[form]
}

func (s *State) setPanelError(msg string, routes ...router.Route) {
	s.update(func(s *State) {
		for _, r := range routes {
			if msg == "" {
				delete(s.panelErrors, r)
			} else {
				s.panelErrors[r] = msg
			}
		}
	})
}

func (s *State) setFormError(form, msg string) {
	s.update(func(s *State) {
		if msg == "" {
			delete(s.formErrors, form)
		} else {
			s.formErrors[form] = msg
		}
	})
}
