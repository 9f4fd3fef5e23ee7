// Package testutil provides an in-memory storefront REST API for tests.
// The server is stateful (users, catalog, carts, orders) and records every
// request so tests can assert which calls were or were not made.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/0x6d61/storefront/internal/domain"
)

// Seeded accounts.
const (
	AdminEmail    = "admin@shop.test"
	AdminPassword = "admin123"
	UserEmail     = "ada@shop.test"
	UserPassword  = "lovelace"
	UserName      = "Ada Lovelace"
)

// RecordedRequest is one request the server received.
type RecordedRequest struct {
	Method string
	Path   string
	Auth   string
	Guest  string
}

type account struct {
	user     domain.User
	password string
}

type line struct {
	id        string
	productID string
	quantity  int
}

// ShopServer is a fake storefront API backed by httptest.
type ShopServer struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account // by email
	tokens   map[string]string   // token -> email
	products []*domain.Product
	carts    map[string][]*line // owner key -> lines
	orders   []*domain.Order
	requests []RecordedRequest
	failures map[string]int // "METHOD /path" -> status
	seq      int
}

// NewShopServer starts a server seeded with an admin, a user and a small
// catalog. Close it when done.
func NewShopServer() *ShopServer {
	s := &ShopServer{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		carts:    make(map[string][]*line),
		failures: make(map[string]int),
	}
	s.accounts[AdminEmail] = &account{
		user:     domain.User{ID: "u-admin", Name: "Shop Admin", Email: AdminEmail, Role: domain.RoleAdmin},
		password: AdminPassword,
	}
	s.accounts[UserEmail] = &account{
		user:     domain.User{ID: "u-ada", Name: UserName, Email: UserEmail, Role: domain.RoleUser},
		password: UserPassword,
	}
	s.SeedProduct(domain.Product{Name: "Walnut Desk", Description: "Solid walnut", Price: decimal.RequireFromString("249.99"), Stock: 5, Category: "furniture"})
	s.SeedProduct(domain.Product{Name: "Desk Lamp", Description: "Warm light", Price: decimal.RequireFromString("19.50"), Stock: 10, Category: "lighting"})
	s.SeedProduct(domain.Product{Name: "Sold Out Chair", Description: "Popular", Price: decimal.RequireFromString("89.00"), Stock: 0, Category: "furniture"})

	r := mux.NewRouter()
	r.Use(s.record)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)

	api.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", s.adminOnly(s.handleCreateProduct)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", s.handleGetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.adminOnly(s.handleUpdateProduct)).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", s.adminOnly(s.handleDeleteProduct)).Methods(http.MethodDelete)

	api.HandleFunc("/cart", s.handleGetCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", s.handleClearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", s.handleAddItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{lineID}", s.handleUpdateItem).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{lineID}", s.handleRemoveItem).Methods(http.MethodDelete)

	api.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", s.adminOnly(s.handleListOrders)).Methods(http.MethodGet)
	api.HandleFunc("/orders/customer/{email}", s.handleCustomerOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", s.adminOnly(s.handleUpdateStatus)).Methods(http.MethodPatch)

	s.Server = httptest.NewServer(r)
	return s
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// SeedProduct adds a product to the catalog and returns it with its id.
func (s *ShopServer) SeedProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	cp := p
	s.products = append(s.products, &cp)
	return cp
}

// Products returns a copy of the catalog.
func (s *ShopServer) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out
}

// Orders returns a copy of all placed orders.
func (s *ShopServer) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out
}

// Requests returns every request received so far.
func (s *ShopServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// CountRequests counts requests with the given method whose path starts
// with prefix. An empty method matches any method.
func (s *ShopServer) CountRequests(method, prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if (method == "" || r.Method == method) && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (s *ShopServer) ResetRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

// FailWith makes every subsequent request matching method and path return
// status until ClearFailures is called.
func (s *ShopServer) FailWith(method, path string, status int) {
	s.mu.Lock()
	s.failures[method+" "+path] = status
	s.mu.Unlock()
}

// ClearFailures removes all injected failures.
func (s *ShopServer) ClearFailures() {
	s.mu.Lock()
	s.failures = make(map[string]int)
	s.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *ShopServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Guest:  r.Header.Get("X-Session-Id"),
		})
		status, fail := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if fail {
			writeErr(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *ShopServer) adminOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := s.userFor(r)
		if u == nil {
			writeErr(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if u.Role != domain.RoleAdmin {
			writeErr(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		h(w, r)
	}
}

// userFor resolves the bearer token. It takes the lock itself.
func (s *ShopServer) userFor(r *http.Request) *domain.User {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tok == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[tok]
	if !ok {
		return nil
	}
	u := s.accounts[email].user
	return &u
}

// ownerKey identifies the cart a request operates on.
func (s *ShopServer) ownerKey(r *http.Request) (string, bool) {
	if u := s.userFor(r); u != nil {
		return "user:" + u.ID, true
	}
	if g := r.Header.Get("X-Session-Id"); g != "" {
		return "guest:" + g, true
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (s *ShopServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Email]
	if !ok || acct.password != req.Password {
		s.mu.Unlock()
		writeErr(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	tok := uuid.New().String()
	s.tokens[tok] = req.Email
	user := acct.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "user": user})
}

func (s *ShopServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string      `json:"name"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Role     domain.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	actor := s.userFor(r)
	actingAdmin := actor != nil && actor.Role == domain.RoleAdmin
	if req.Role == domain.RoleAdmin && !actingAdmin {
		writeErr(w, http.StatusForbidden, "Only admins can create admin accounts")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		writeErr(w, http.StatusBadRequest, "User already exists")
		return
	}
	user := domain.User{ID: uuid.New().String(), Name: req.Name, Email: req.Email, Role: domain.ParseRole(string(req.Role))}
	s.accounts[req.Email] = &account{user: user, password: req.Password}
	var tok string
	if !actingAdmin {
		tok = uuid.New().String()
		s.tokens[tok] = req.Email
	}
	s.mu.Unlock()

	body := map[string]any{"user": user}
	if tok != "" {
		body["token"] = tok
	}
	writeJSON(w, http.StatusCreated, body)
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func (s *ShopServer) handleListProducts(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(r.URL.Query().Get("category"))
	search := strings.ToLower(r.URL.Query().Get("search"))

	s.mu.Lock()
	out := []domain.Product{}
	for _, p := range s.products {
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search) {
			continue
		}
		out = append(out, *p)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *ShopServer) findProduct(id string) *domain.Product {
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *ShopServer) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.findProduct(mux.Vars(r)["id"])
	var out domain.Product
	if p != nil {
		out = *p
	}
	s.mu.Unlock()

	if p == nil {
		writeErr(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type productBody struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

func (s *ShopServer) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	p := s.SeedProduct(domain.Product{
		Name: req.Name, Description: req.Description, Price: req.Price,
		Stock: req.Stock, Category: req.Category, Image: req.Image,
	})
	writeJSON(w, http.StatusCreated, p)
}

func (s *ShopServer) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	s.mu.Lock()
	p := s.findProduct(mux.Vars(r)["id"])
	if p == nil {
		s.mu.Unlock()
		writeErr(w, http.StatusNotFound, "Product not found")
		return
	}
	p.Name, p.Description, p.Price = req.Name, req.Description, req.Price
	p.Stock, p.Category, p.Image = req.Stock, req.Category, req.Image
	out := *p
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *ShopServer) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	idx := -1
	for i, p := range s.products {
		if p.ID == id {
			idx = i
		}
	}
	if idx >= 0 {
		s.products = append(s.products[:idx], s.products[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		writeErr(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

// cartLocked renders the owner's cart. Callers hold s.mu.
func (s *ShopServer) cartLocked(owner string) domain.Cart {
	c := domain.Cart{Items: []domain.CartLine{}, Total: decimal.Zero}
	for _, l := range s.carts[owner] {
		p := s.findProduct(l.productID)
		if p == nil {
			continue
		}
		cl := domain.CartLine{
			ID:       l.id,
			Product:  domain.ProductRef{ID: p.ID, Name: p.Name},
			Price:    p.Price,
			Quantity: l.quantity,
		}
		c.Items = append(c.Items, cl)
		c.Total = c.Total.Add(cl.Subtotal())
	}
	return c
}

func (s *ShopServer) withCart(w http.ResponseWriter, r *http.Request, fn func(owner string) (int, string)) {
	owner, ok := s.ownerKey(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "No cart session")
		return
	}
	s.mu.Lock()
	status, msg := fn(owner)
	c := s.cartLocked(owner)
	s.mu.Unlock()

	if status != http.StatusOK {
		writeErr(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *ShopServer) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.withCart(w, r, func(string) (int, string) { return http.StatusOK, "" })
}

func (s *ShopServer) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.withCart(w, r, func(owner string) (int, string) {
		delete(s.carts, owner)
		return http.StatusOK, ""
	})
}

func (s *ShopServer) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.withCart(w, r, func(owner string) (int, string) {
		p := s.findProduct(req.ProductID)
		if p == nil {
			return http.StatusNotFound, "Product not found"
		}
		if req.Quantity < 1 {
			return http.StatusBadRequest, "Quantity must be at least 1"
		}
		for _, l := range s.carts[owner] {
			if l.productID == p.ID {
				if l.quantity+req.Quantity > p.Stock {
					return http.StatusBadRequest, "Insufficient stock"
				}
				l.quantity += req.Quantity
				return http.StatusOK, ""
			}
		}
		if req.Quantity > p.Stock {
			return http.StatusBadRequest, "Insufficient stock"
		}
		s.seq++
		s.carts[owner] = append(s.carts[owner], &line{
			id:        fmt.Sprintf("line-%d", s.seq),
			productID: p.ID,
			quantity:  req.Quantity,
		})
		return http.StatusOK, ""
	})
}

func (s *ShopServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	lineID := mux.Vars(r)["lineID"]
	s.withCart(w, r, func(owner string) (int, string) {
		for _, l := range s.carts[owner] {
			if l.id != lineID {
				continue
			}
			if req.Quantity < 1 {
				return http.StatusBadRequest, "Quantity must be at least 1"
			}
			if p := s.findProduct(l.productID); p != nil && req.Quantity > p.Stock {
				return http.StatusBadRequest, "Insufficient stock"
			}
			l.quantity = req.Quantity
			return http.StatusOK, ""
		}
		return http.StatusNotFound, "Cart item not found"
	})
}

func (s *ShopServer) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID := mux.Vars(r)["lineID"]
	s.withCart(w, r, func(owner string) (int, string) {
		lines := s.carts[owner]
		for i, l := range lines {
			if l.id == lineID {
				s.carts[owner] = append(lines[:i], lines[i+1:]...)
				return http.StatusOK, ""
			}
		}
		return http.StatusNotFound, "Cart item not found"
	})
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func (s *ShopServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerName  string `json:"customerName"`
		CustomerEmail string `json:"customerEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	owner, ok := s.ownerKey(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "No cart session")
		return
	}

	s.mu.Lock()
	c := s.cartLocked(owner)
	if len(c.Items) == 0 {
		s.mu.Unlock()
		writeErr(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	order := &domain.Order{
		ID:            uuid.New().String(),
		OrderNumber:   fmt.Sprintf("ORD-%04d", len(s.orders)+1),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Total:         c.Total,
		Status:        domain.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	for _, l := range c.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			Price:       l.Price,
			Subtotal:    l.Subtotal(),
		})
		if p := s.findProduct(l.Product.ID); p != nil {
			p.Stock -= l.Quantity
		}
	}
	s.orders = append(s.orders, order)
	out := *order
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"order": out})
}

func (s *ShopServer) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.filterOrders(func(*domain.Order) bool { return true }))
}

func (s *ShopServer) handleCustomerOrders(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	writeJSON(w, http.StatusOK, s.filterOrders(func(o *domain.Order) bool {
		return strings.EqualFold(o.CustomerEmail, email)
	}))
}

func (s *ShopServer) filterOrders(keep func(*domain.Order) bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *ShopServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, o := range s.filterOrders(func(o *domain.Order) bool { return o.ID == id }) {
		writeJSON(w, http.StatusOK, o)
		return
	}
	writeErr(w, http.StatusNotFound, "Order not found")
}

func (s *ShopServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		writeErr(w, http.StatusBadRequest, "Invalid status")
		return
	}
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	var out *domain.Order
	for _, o := range s.orders {
		if o.ID == id {
			o.Status = req.Status
			cp := *o
			out = &cp
		}
	}
	s.mu.Unlock()

	if out == nil {
		writeErr(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}
