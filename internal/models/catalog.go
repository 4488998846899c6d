package models

// MenuItem represents a food item available for order.
// All prices are integer minor-currency units (cents).
type MenuItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	Active       bool   `json:"active"`
}

// Variant is an alternative configuration of a menu item (e.g. a size).
// Its price replaces the item's base price, it is not added on top.
type Variant struct {
	ID         string `json:"id"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Active     bool   `json:"active"`
}

// AddOn is an optional priced extra attached to a menu item. Its price is
// additive to whichever base or variant price applies.
type AddOn struct {
	ID         string `json:"id"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Active     bool   `json:"active"`
}
