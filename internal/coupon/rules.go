package coupon

import (
	"strings"
	"time"

	"github.com/dineqr/order-api/internal/models"
)

// Normalize returns a coupon code the way it is stored: trimmed, uppercase.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Eligible reports whether a coupon may be applied to an order with the
// given pre-discount subtotal. All conditions must hold: active, unexpired,
// under its usage limit, and the subtotal meets the minimum if one is set.
func Eligible(c *models.Coupon, subtotalCents int64, now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return false
	}
	if c.MinOrderCents != nil && subtotalCents < *c.MinOrderCents {
		return false
	}
	return true
}

// Discount computes the discount in cents for an eligible coupon.
// Fixed coupons never discount more than the subtotal. Percentage coupons
// round half-up and are capped at MaxDiscountCents when configured.
func Discount(c *models.Coupon, subtotalCents int64) int64 {
	switch c.DiscountType {
	case models.DiscountFixed:
		if c.DiscountValue > subtotalCents {
			return subtotalCents
		}
		return c.DiscountValue
	case models.DiscountPercentage:
		d := (subtotalCents*c.DiscountValue + 50) / 100
		if c.MaxDiscountCents != nil && d > *c.MaxDiscountCents {
			d = *c.MaxDiscountCents
		}
		if d > subtotalCents {
			d = subtotalCents
		}
		return d
	default:
		return 0
	}
}
