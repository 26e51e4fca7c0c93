package assist

import "strings"

// Action is a UI action descriptor suggested alongside a response.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

// ActionContext is the slice of the request context the deriver cares
// about: whether the user has anything in the cart and any orders.
type ActionContext struct {
	CartItems int
	Orders    int
}

// ActionContextFrom extracts an ActionContext from the loosely-structured
// request context blob ({cart: [...], user: {orders: [...]}}). Anything
// missing or oddly shaped counts as zero.
func ActionContextFrom(blob map[string]any) ActionContext {
	var ac ActionContext
	if blob == nil {
		return ac
	}
	if cart, ok := blob["cart"].([]any); ok {
		ac.CartItems = len(cart)
	}
	if user, ok := blob["user"].(map[string]any); ok {
		if orders, ok := user["orders"].([]any); ok {
			ac.Orders = len(orders)
		}
	}
	return ac
}

// DeriveActions scans the lowercased query (and, for product suggestions,
// the response) for domain keywords and returns UI action descriptors for
// every category that matches. Cart and order actions are only emitted when
// the context shows a non-empty cart or order list. Pure; always returns a
// non-nil slice.
func DeriveActions(query string, actx ActionContext, response string) []Action {
	q := strings.ToLower(query)
	actions := []Action{}

	containsAny := func(s string, kws ...string) bool {
		for _, kw := range kws {
			if strings.Contains(s, kw) {
				return true
			}
		}
		return false
	}

	if containsAny(q, "cart", "checkout") && actx.CartItems > 0 {
		actions = append(actions, Action{Type: "navigate", Label: "View your cart", Path: "/shop/cart", Icon: "shopping-cart"})
	}
	if containsAny(q, "order", "track") && actx.Orders > 0 {
		actions = append(actions, Action{Type: "navigate", Label: "Track your orders", Path: "/shop/orders", Icon: "package"})
	}
	if containsAny(q, "product", "buy", "find") || containsAny(strings.ToLower(response), "product") {
		actions = append(actions, Action{Type: "navigate", Label: "Browse products", Path: "/shop", Icon: "store"})
	}
	if containsAny(q, "service", "book") {
		actions = append(actions, Action{Type: "navigate", Label: "Book a service", Path: "/services", Icon: "calendar"})
	}
	if containsAny(q, "event", "race") {
		actions = append(actions, Action{Type: "navigate", Label: "Sim racing events", Path: "/sim-racing/events", Icon: "flag"})
	}
	if containsAny(q, "vendor", "mechanic", "near me") {
		actions = append(actions, Action{Type: "navigate", Label: "Vendors near you", Path: "/vendors/map", Icon: "map-pin"})
	}

	return actions
}
