package service

import (
	"fmt"
	"net/http"
)

// Machine-checkable rejection reasons. The HTTP message a caller sees is
// built per request and pinpoints the violated constraint; the reason stays
// stable for programmatic handling and metrics.
const (
	ReasonMissingRestaurant  = "missing_restaurant_id"
	ReasonEmptyItems         = "empty_items"
	ReasonTooManyLines       = "too_many_lines"
	ReasonMissingMenuItem    = "missing_menu_item_id"
	ReasonInvalidQuantity    = "invalid_quantity"
	ReasonTotalQuantity      = "total_quantity_exceeded"
	ReasonTableLabelTooLong  = "table_label_too_long"
	ReasonRestaurantNotFound = "restaurant_not_found"
	ReasonRestaurantClosed   = "restaurant_closed"
	ReasonRateLimited        = "rate_limited"
	ReasonItemNotFound       = "item_not_found"
	ReasonItemUnavailable    = "item_unavailable"
	ReasonInvalidVariant     = "invalid_variant"
	ReasonInvalidAddOn       = "invalid_addon"
	ReasonLineTotalOverflow  = "line_total_overflow"
	ReasonOrderValueExceeded = "order_value_exceeded"
	ReasonOrderNotFound      = "order_not_found"
)

// Rejection is a structured refusal of a request. Anything that is not a
// Rejection is an infrastructure failure and surfaces as a 500.
type Rejection struct {
	Status  int
	Reason  string
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func badRequest(reason, format string, args ...any) *Rejection {
	return &Rejection{Status: http.StatusBadRequest, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func notFound(reason, format string, args ...any) *Rejection {
	return &Rejection{Status: http.StatusNotFound, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func rateLimited(format string, args ...any) *Rejection {
	return &Rejection{Status: http.StatusTooManyRequests, Reason: ReasonRateLimited, Message: fmt.Sprintf(format, args...)}
}
