package models

import "time"

// OrderStatusPending is the status every new order is created with. Later
// transitions belong to the kitchen/fulfillment side of the platform.
const OrderStatusPending = "pending"

// OrderRequest represents an incoming order request.
type OrderRequest struct {
	RestaurantID string     `json:"restaurant_id"`
	Items        []CartLine `json:"items"`
	TableLabel   string     `json:"table_label,omitempty"`
	CouponCode   string     `json:"coupon_code,omitempty"`
}

// CartLine is one requested (item, quantity, optional variant/add-ons) tuple.
type CartLine struct {
	MenuItemID string     `json:"menu_item_id"`
	Quantity   int        `json:"quantity"`
	VariantID  string     `json:"variant_id,omitempty"`
	AddOns     []AddOnRef `json:"addons,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// AddOnRef references an add-on by id within a cart line.
type AddOnRef struct {
	ID string `json:"id"`
}

// Order is a persisted order. SubtotalCents is the sum of line totals before
// discount, TotalCents the payable amount (never negative). The order token
// is an opaque identifier handed to the customer for unauthenticated status
// lookup, distinct from the primary key.
type Order struct {
	ID            string    `json:"id"`
	RestaurantID  string    `json:"restaurant_id"`
	Status        string    `json:"status"`
	SubtotalCents int64     `json:"subtotal_cents"`
	DiscountCents int64     `json:"discount_cents"`
	TotalCents    int64     `json:"total_cents"`
	CouponID      *string   `json:"coupon_id,omitempty"`
	CouponCode    *string   `json:"coupon_code,omitempty"`
	DiscountType  *string   `json:"discount_type,omitempty"`
	CurrencyCode  string    `json:"currency_code"`
	TableLabel    *string   `json:"table_label,omitempty"`
	ClientIP      string    `json:"-"`
	OrderToken    string    `json:"order_token"`
	PlacedAt      time.Time `json:"placed_at"`
}

// OrderItem is a denormalized line-item snapshot. Name and prices are copied
// at order time so later catalog edits never change historical orders.
type OrderItem struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"order_id"`
	MenuItemID     string          `json:"menu_item_id"`
	VariantID      *string         `json:"variant_id,omitempty"`
	AddOns         []AddOnSnapshot `json:"addons,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	LineTotalCents int64           `json:"line_total_cents"`
	NameSnapshot   string          `json:"name_snapshot"`
	Notes          string          `json:"notes,omitempty"`
}

// AddOnSnapshot is the add-on state captured into an order item.
type AddOnSnapshot struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}
