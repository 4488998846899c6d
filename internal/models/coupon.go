package models

import "time"

// Discount types supported by coupons.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon represents a discount code scoped to one restaurant. Codes are
// stored and matched uppercase. For the fixed type DiscountValue is in cents,
// for the percentage type it is a whole percent (10 == 10% off).
type Coupon struct {
	ID               string     `json:"id"`
	RestaurantID     string     `json:"restaurant_id"`
	Code             string     `json:"code"`
	DiscountType     string     `json:"discount_type"`
	DiscountValue    int64      `json:"discount_value"`
	MinOrderCents    *int64     `json:"min_order_cents,omitempty"`
	MaxDiscountCents *int64     `json:"max_discount_cents,omitempty"` // percentage type only
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	UsageLimit       *int       `json:"usage_limit,omitempty"`
	UsageCount       int        `json:"usage_count"`
	Active           bool       `json:"active"`
}
