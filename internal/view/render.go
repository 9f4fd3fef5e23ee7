package view

import (
	"fmt"
	"strconv"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/router"
)

const dateLayout = "2006-01-02"

// Page renders the whole screen: header, navigation and one panel per
// route. Only the active route's panel is visible and only its nav item is
// marked active.
func Page(s Snapshot) *Node {
	active := s.Route
	if !active.Valid() {
		active = router.Home
	}

	page := el(KindPage, "").withID("page")
	page.add(Header(s), Nav(s.Session, active))

	for _, r := range router.All {
		p := el(KindPanel, r.Title()).withID("view-" + string(r))
		if r != active {
			p.set(AttrHidden, "true")
		}
		if msg := s.PanelErrors[r]; msg != "" {
			p.add(el(KindError, msg))
		}
		p.add(panelBody(r, s)...)
		page.add(p)
	}
	return page
}

func panelBody(r router.Route, s Snapshot) []*Node {
	switch r {
	case router.Home:
		return []*Node{
			el(KindHeading, "Featured Products"),
			Featured(s.Products, s.Session),
		}
	case router.Products:
		return []*Node{
			el(KindHeading, "All Products"),
			Filters(s.Products, s.Search, s.Category),
			Products(s.Products, s.Session),
		}
	case router.Cart:
		return []*Node{
			el(KindHeading, "Shopping Cart"),
			Cart(s.Cart),
			CheckoutFormNode(s.Checkout, s.FormErrors[FormCheckout]),
		}
	case router.Orders:
		return []*Node{
			el(KindHeading, "My Orders"),
			Orders(s.Orders, s.OrdersLoaded || s.Session != nil),
		}
	case router.Admin:
		nodes := []*Node{
			el(KindHeading, "Admin Panel"),
			AdminProducts(s.AdminProducts),
			AdminOrders(s.AdminOrders),
		}
		if s.SelectedOrder != nil {
			nodes = append(nodes, OrderDetail(s.SelectedOrder))
		}
		if s.ProductForm != nil {
			nodes = append(nodes, ProductFormNode(s.ProductForm, s.FormErrors[FormProduct]))
		}
		return nodes
	case router.About:
		return []*Node{
			el(KindHeading, "About Us"),
			el(KindText, "We sell carefully chosen products at fair prices."),
		}
	case router.Contact:
		return []*Node{
			el(KindHeading, "Contact Us"),
			ContactFormNode(s.FormErrors[FormContact]),
		}
	}
	return nil
}

// Header renders the greeting and session controls.
func Header(s Snapshot) *Node {
	h := el(KindHeader, "").withID("header")
	if s.Session == nil {
		h.add(el(KindText, "Not signed in").withID("greeting"))
	} else {
		g := el(KindText, fmt.Sprintf("Hi, %s!", s.Session.User.Name)).withID("greeting")
		if s.Session.IsAdmin() {
			g.add(el(KindBadge, "Admin").set(AttrColor, "danger"))
		}
		h.add(g, button("Logout", Action{Name: ActLogout}).withID("logout"))
	}
	h.add(el(KindText, strconv.Itoa(s.Cart.ItemCount())).withID("cart-count"))
	return h
}

// Nav renders one item per route. Orders is shown only to signed-in
// users and Admin only to administrators; exactly one item is active.
func Nav(sess *domain.Session, active router.Route) *Node {
	nav := el(KindNav, "").withID("nav")
	for _, r := range router.All {
		item := button(r.Title(), Action{Name: ActNavigate, Target: string(r)})
		item.Kind = KindNavItem
		item.ID = "nav-" + string(r)
		if r == active {
			item.set(AttrActive, "true")
		}
		if (r == router.Orders && sess == nil) || (r == router.Admin && !sess.IsAdmin()) {
			item.set(AttrHidden, "true")
		}
		nav.add(item)
	}
	return nav
}

// Products renders the catalog list. Admin sessions get no add-to-cart
// buttons.
func Products(list []domain.Product, sess *domain.Session) *Node {
	return productList("product-list", list, sess.IsAdmin())
}

// Featured renders the first FeaturedCount products.
func Featured(list []domain.Product, sess *domain.Session) *Node {
	if len(list) > FeaturedCount {
		list = list[:FeaturedCount]
	}
	return productList("featured-list", list, sess.IsAdmin())
}

func productList(id string, list []domain.Product, admin bool) *Node {
	ul := el(KindList, "").withID(id)
	if len(list) == 0 {
		return ul.add(el(KindPlaceholder, "No products available."))
	}
	for _, p := range list {
		item := el(KindItem, p.Name).withID("product-" + p.ID)
		if p.Description != "" {
			item.add(el(KindText, p.Description))
		}
		item.add(el(KindText, domain.FormatPrice(p.Price)))
		switch {
		case admin:
			item.add(el(KindText, fmt.Sprintf("Stock: %d", p.Stock)))
		case p.InStock():
			item.add(button("Add to cart", Action{Name: ActAddToCart, Target: p.ID}))
			item.add(el(KindText, fmt.Sprintf("Stock: %d", p.Stock)))
		default:
			item.add(button("Out of Stock", Action{Name: ActAddToCart, Target: p.ID}).set(AttrDisabled, "true"))
		}
		ul.add(item)
	}
	return ul
}

// Filters renders the category filter derived from the loaded products.
func Filters(list []domain.Product, search, category string) *Node {
	f := el(KindForm, "").withID("product-filters")
	if search != "" {
		f.add(el(KindText, fmt.Sprintf("Search: %q", search)))
	}
	all := button("All", Action{Name: ActFilterCategory})
	if category == "" {
		all.set(AttrSelected, "true")
	}
	f.add(all)

	seen := map[string]bool{}
	if category != "" {
		seen[category] = true
		f.add(button(category, Action{Name: ActFilterCategory, Target: category}).set(AttrSelected, "true"))
	}
	for _, p := range list {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		f.add(button(p.Category, Action{Name: ActFilterCategory, Target: p.Category}))
	}
	return f
}

// Cart renders the cart lines and the total. A nil or empty cart shows
// the empty placeholder and a total of 0.00.
func Cart(c *domain.Cart) *Node {
	root := el(KindList, "").withID("cart-list")
	if c.IsEmpty() {
		root.add(el(KindPlaceholder, "Your cart is empty."))
		root.add(el(KindTotal, "0.00").withID("cart-total"))
		return root
	}

	for _, l := range c.Items {
		name := l.Product.Name
		if name == "" {
			name = "Unknown Product"
		}
		item := el(KindItem, name).withID("line-" + l.ID)
		item.add(
			el(KindText, fmt.Sprintf("%s × %d", domain.FormatPrice(l.Price), l.Quantity)),
			button("-", Action{Name: ActDecrement, Target: l.ID}),
			el(KindText, strconv.Itoa(l.Quantity)),
			button("+", Action{Name: ActIncrement, Target: l.ID}),
			button("Remove", Action{Name: ActRemove, Target: l.ID}),
		)
		root.add(item)
	}
	root.add(el(KindTotal, c.Total.StringFixed(2)).withID("cart-total"))
	root.add(button("Clear cart", Action{Name: ActClearCart}))
	return root
}

// CheckoutFormNode renders the checkout form.
func CheckoutFormNode(f CheckoutForm, errMsg string) *Node {
	form := el(KindForm, "Checkout").withID("checkout-form")
	form.add(
		field("customer-name", "Name", f.Name),
		field("customer-email", "Email", f.Email),
		field("customer-address", "Address", f.Address),
	)
	if errMsg != "" {
		form.add(el(KindError, errMsg))
	}
	return form.add(button("Place Order", Action{Name: ActCheckout}))
}

func field(id, label, value string) *Node {
	return el(KindField, label).withID(id).set(AttrValue, value)
}

// Orders renders the customer's order history. When signedIn is false the
// list asks the user to log in.
func Orders(orders []domain.Order, signedIn bool) *Node {
	ul := el(KindList, "").withID("orders-list")
	if !signedIn {
		return ul.add(el(KindPlaceholder, "Please log in to view your orders."))
	}
	if len(orders) == 0 {
		return ul.add(el(KindPlaceholder, "You have no orders yet."))
	}
	for _, o := range orders {
		item := el(KindItem, "Order #"+o.OrderNumber).withID("order-" + o.ID)
		item.add(
			StatusBadge(o.Status),
			el(KindTotal, domain.FormatPrice(o.Total)),
			el(KindText, "Date: "+o.CreatedAt.Format(dateLayout)),
		)
		lines := el(KindList, "Items:")
		for _, it := range o.Items {
			lines.add(el(KindItem, fmt.Sprintf("%s - %dx %s = %s",
				it.ProductName, it.Quantity, domain.FormatPrice(it.Price), domain.FormatPrice(it.Subtotal))))
		}
		ul.add(item.add(lines))
	}
	return ul
}

// StatusColor maps an order status to its badge colour.
func StatusColor(s domain.OrderStatus) string {
	switch s {
	case domain.StatusPending:
		return "warning"
	case domain.StatusProcessing:
		return "info"
	case domain.StatusCompleted:
		return "success"
	case domain.StatusCancelled:
		return "danger"
	}
	return "secondary"
}

// StatusBadge renders an order status.
func StatusBadge(s domain.OrderStatus) *Node {
	return el(KindBadge, string(s)).set(AttrColor, StatusColor(s))
}

// AdminProducts renders the product management list.
func AdminProducts(list []domain.Product) *Node {
	sec := el(KindList, "Products").withID("admin-products")
	sec.add(button("Add Product", Action{Name: ActNewProduct}))
	if len(list) == 0 {
		return sec.add(el(KindPlaceholder, "No products available."))
	}
	for _, p := range list {
		item := el(KindItem, p.Name).withID("admin-product-" + p.ID)
		if p.Description != "" {
			item.add(el(KindText, p.Description))
		}
		item.add(
			el(KindText, fmt.Sprintf("Price: %s | Stock: %d", domain.FormatPrice(p.Price), p.Stock)),
			button("Edit", Action{Name: ActEditProduct, Target: p.ID}),
			button("Delete", Action{Name: ActDeleteProduct, Target: p.ID}),
		)
		sec.add(item)
	}
	return sec
}

// AdminOrders renders the order management table.
func AdminOrders(orders []domain.Order) *Node {
	tbl := el(KindTable, "Orders").withID("admin-orders")
	if len(orders) == 0 {
		return tbl.add(el(KindPlaceholder, "No orders yet."))
	}
	for _, o := range orders {
		row := el(KindRow, o.OrderNumber).withID("admin-order-" + o.ID)
		row.add(
			el(KindText, o.CustomerName),
			el(KindText, o.CustomerEmail),
			el(KindTotal, domain.FormatPrice(o.Total)),
		)
		status := el(KindField, "Status").set(AttrValue, string(o.Status))
		for _, st := range domain.OrderStatuses {
			opt := button(string(st), Action{Name: ActSetStatus, Target: o.ID, Value: string(st)})
			if st == o.Status {
				opt.set(AttrSelected, "true")
			}
			status.add(opt)
		}
		row.add(
			status,
			el(KindText, o.CreatedAt.Format(dateLayout)),
			button("View", Action{Name: ActViewOrder, Target: o.ID}),
		)
		tbl.add(row)
	}
	return tbl
}

// OrderDetail renders one order in full.
func OrderDetail(o *domain.Order) *Node {
	d := el(KindList, "Order Details").withID("order-detail")
	if o == nil {
		return d.add(el(KindPlaceholder, "No order selected."))
	}
	d.add(
		el(KindText, "Order #: "+o.OrderNumber),
		el(KindText, "Customer: "+o.CustomerName),
		el(KindText, "Email: "+o.CustomerEmail),
		el(KindText, "Status: ").add(StatusBadge(o.Status)),
		el(KindTotal, "Total: "+domain.FormatPrice(o.Total)),
	)
	items := el(KindList, "Items:")
	for _, it := range o.Items {
		items.add(el(KindItem, fmt.Sprintf("- %s x%d = %s", it.ProductName, it.Quantity, domain.FormatPrice(it.Subtotal))))
	}
	return d.add(items, button("Close", Action{Name: ActCloseOrder}))
}

// ProductFormNode renders the add/edit product form. A product without an
// id is a new product.
func ProductFormNode(p *domain.Product, errMsg string) *Node {
	title := "Add Product"
	if p.ID != "" {
		title = "Edit Product"
	}
	price := ""
	if !p.Price.IsZero() {
		price = p.Price.String()
	}
	stock := ""
	if p.ID != "" {
		stock = strconv.Itoa(p.Stock)
	}
	form := el(KindForm, title).withID("product-form").set(AttrValue, p.ID)
	form.add(
		field("product-name", "Name", p.Name),
		field("product-description", "Description", p.Description),
		field("product-price", "Price", price),
		field("product-stock", "Stock", stock),
		field("product-category", "Category", p.Category),
		field("product-image-url", "Image URL", p.Image),
	)
	if errMsg != "" {
		form.add(el(KindError, errMsg))
	}
	return form
}

// ContactFormNode renders the contact form.
func ContactFormNode(errMsg string) *Node {
	form := el(KindForm, "Send us a message").withID("contact-form")
	form.add(
		field("contact-name", "Name", ""),
		field("contact-email", "Email", ""),
		field("contact-message", "Message", ""),
	)
	if errMsg != "" {
		form.add(el(KindError, errMsg))
	}
	return form
}
