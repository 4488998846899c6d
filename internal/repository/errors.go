package repository

import "errors"

// Not-found sentinels. Callers distinguish these from infrastructure
// failures; anything else returned by a repository is treated as such.
var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrItemNotFound       = errors.New("menu item not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrOrderNotFound      = errors.New("order not found")
)
