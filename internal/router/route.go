// Package router selects the active storefront view. Exactly one route is
// active at a time; entering a route applies the role gates and triggers
// the data load that view needs.
package router

import "strings"

// Route names a view.
type Route string

const (
	Home     Route = "home"
	Products Route = "products"
	Cart     Route = "cart"
	Orders   Route = "orders"
	Admin    Route = "admin"
	About    Route = "about"
	Contact  Route = "contact"
)

// All lists every route in navigation order.
var All = []Route{Home, Products, Cart, Orders, Admin, About, Contact}

// Parse resolves a route name or fragment ("#cart"). Unknown and empty
// names resolve to Home.
func Parse(name string) Route {
	name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#")))
	r := Route(name)
	if r.Valid() {
		return r
	}
	return Home
}

// Valid reports whether r is a known route.
func (r Route) Valid() bool {
	for _, v := range All {
		if v == r {
			return true
		}
	}
	return false
}

// Fragment returns the URL fragment form, e.g. "#cart".
func (r Route) Fragment() string {
	return "#" + string(r)
}

// Title is the navigation label.
func (r Route) Title() string {
	switch r {
	case Home:
		return "Home"
	case Products:
		return "Products"
	case Cart:
		return "Cart"
	case Orders:
		return "My Orders"
	case Admin:
		return "Admin"
	case About:
		return "About"
	case Contact:
		return "Contact"
	}
	return string(r)
}
