// Package view builds the storefront screen as a tree of nodes. Render
// functions are pure: they read a Snapshot and return a fresh tree, with
// interactive nodes carrying the Action to dispatch when chosen.
package view

import "strings"

// Kind is the role of a node in the tree.
type Kind string

const (
	KindPage        Kind = "page"
	KindHeader      Kind = "header"
	KindNav         Kind = "nav"
	KindNavItem     Kind = "nav-item"
	KindPanel       Kind = "panel"
	KindHeading     Kind = "heading"
	KindText        Kind = "text"
	KindList        Kind = "list"
	KindItem        Kind = "item"
	KindButton      Kind = "button"
	KindBadge       Kind = "badge"
	KindTable       Kind = "table"
	KindRow         Kind = "row"
	KindForm        Kind = "form"
	KindField       Kind = "field"
	KindError       Kind = "error"
	KindPlaceholder Kind = "placeholder"
	KindTotal       Kind = "total"
)

// Common attribute keys.
const (
	AttrActive   = "active"
	AttrHidden   = "hidden"
	AttrDisabled = "disabled"
	AttrColor    = "color"
	AttrValue    = "value"
	AttrSelected = "selected"
)

// Action names.
const (
	ActNavigate       = "navigate"
	ActAddToCart      = "add-to-cart"
	ActIncrement      = "increment"
	ActDecrement      = "decrement"
	ActRemove         = "remove"
	ActClearCart      = "clear-cart"
	ActCheckout       = "checkout"
	ActLogout         = "logout"
	ActFilterCategory = "filter-category"
	ActNewProduct     = "new-product"
	ActEditProduct    = "edit-product"
	ActDeleteProduct  = "delete-product"
	ActViewOrder      = "view-order"
	ActCloseOrder     = "close-order"
	ActSetStatus      = "set-status"
)

// Action is a user intent bound to a node. Target identifies the object
// acted on (route, product id, cart line id, order id) and Value carries
// an optional argument such as a new order status.
type Action struct {
	Name   string `json:"name"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Node is one element of the rendered tree.
type Node struct {
	Kind     Kind              `json:"kind"`
	ID       string            `json:"id,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Action   *Action           `json:"action,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

func el(kind Kind, text string, children ...*Node) *Node {
	return &Node{Kind: kind, Text: text, Children: children}
}

func (n *Node) withID(id string) *Node {
	n.ID = id
	return n
}

func (n *Node) set(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

func (n *Node) add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func button(label string, a Action) *Node {
	return &Node{Kind: KindButton, Text: label, Action: &a}
}

// Attr returns the attribute value for key.
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Is reports whether the boolean attribute key is set.
func (n *Node) Is(key string) bool {
	return n.Attr(key) == "true"
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first node with the given id.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node of kind.
func (n *Node) FindAll(kind Kind) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Kind == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Actions returns the enabled actions reachable without entering hidden
// nodes, in tree order.
func (n *Node) Actions() []Action {
	var out []Action
	n.Walk(func(c *Node) bool {
		if c.Is(AttrHidden) {
			return false
		}
		if c.Action != nil && !c.Is(AttrDisabled) {
			out = append(out, *c.Action)
		}
		return true
	})
	return out
}

// PlainText concatenates the text of n and its visible descendants.
func (n *Node) PlainText() string {
	var parts []string
	n.Walk(func(c *Node) bool {
		if c.Is(AttrHidden) {
			return false
		}
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
		return true
	})
	return strings.Join(parts, " ")
}
