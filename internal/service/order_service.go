package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/dineqr/order-api/internal/coupon"
	"github.com/dineqr/order-api/internal/models"
	"github.com/dineqr/order-api/internal/repository"
	"github.com/google/uuid"
)

// Anti-abuse and sanity limits for incoming orders.
const (
	MaxOrderLines      = 50
	MaxLineQuantity    = 100
	MaxTotalQuantity   = 500
	MaxTableLabelLen   = 20
	MaxOrderValueCents = 1_000_000 // 10,000.00 in major units

	OrderRateLimit  = 15
	OrderRateWindow = 15 * time.Minute
)

// unknownIPBucket is the shared rate-limit bucket for requests whose client
// address could not be resolved. They are limited together rather than not
// at all.
const unknownIPBucket = "unknown"

// RestaurantStore resolves restaurants.
type RestaurantStore interface {
	GetByID(ctx context.Context, id string) (*models.Restaurant, error)
}

// CatalogStore resolves menu items, variants and add-ons with their live
// prices and active flags.
type CatalogStore interface {
	GetItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error)
	GetVariant(ctx context.Context, variantID string) (*models.Variant, error)
	ListAddOns(ctx context.Context, ids []string) ([]models.AddOn, error)
}

// CouponStore resolves coupons and records their use.
type CouponStore interface {
	GetByCode(ctx context.Context, restaurantID, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, id string) error
}

// OrderStore persists orders and answers the rate-limit count.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order, items []models.OrderItem) error
	CountRecentByIP(ctx context.Context, ip string, since time.Time) (int, error)
}

// CouponGuard answers whether a coupon code could exist, letting the service
// skip store lookups for codes that definitely do not.
type CouponGuard interface {
	MightContain(code string) bool
}

// OrderService validates an order request against the live catalog, prices
// it, applies at most one coupon and persists the result.
type OrderService struct {
	restaurants RestaurantStore
	catalog     CatalogStore
	coupons     CouponStore
	orders      OrderStore
	guard       CouponGuard
	log         *slog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service. guard may be nil, in which
// case every supplied coupon code is looked up in the store.
func NewOrderService(restaurants RestaurantStore, catalog CatalogStore, coupons CouponStore, orders OrderStore, guard CouponGuard, log *slog.Logger) *OrderService {
	return &OrderService{
		restaurants: restaurants,
		catalog:     catalog,
		coupons:     coupons,
		orders:      orders,
		guard:       guard,
		log:         log,
		now:         time.Now,
	}
}

// PlaceOrder runs the full intake pipeline. It returns the persisted order,
// a *Rejection for any request the service refuses, or an infrastructure
// error.
func (s *OrderService) PlaceOrder(ctx context.Context, req models.OrderRequest, clientIP string) (*models.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	rest, err := s.restaurants.GetByID(ctx, req.RestaurantID)
	if errors.Is(err, repository.ErrRestaurantNotFound) {
		return nil, notFound(ReasonRestaurantNotFound, "restaurant not found")
	}
	if err != nil {
		return nil, err
	}
	if !rest.AcceptingOrders {
		return nil, badRequest(ReasonRestaurantClosed, "restaurant is not accepting orders right now")
	}

	if clientIP == "" {
		clientIP = unknownIPBucket
	}
	if err := s.checkRateLimit(ctx, clientIP); err != nil {
		return nil, err
	}

	items, subtotal, err := s.priceLines(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:            uuid.New().String(),
		RestaurantID:  rest.ID,
		Status:        models.OrderStatusPending,
		SubtotalCents: subtotal,
		TotalCents:    subtotal,
		CurrencyCode:  rest.CurrencyCode,
		ClientIP:      clientIP,
		OrderToken:    newOrderToken(),
		PlacedAt:      now,
	}
	if req.TableLabel != "" {
		label := req.TableLabel
		order.TableLabel = &label
	}

	applied := s.applyCoupon(ctx, req, subtotal, now)
	if applied != nil {
		discount := coupon.Discount(applied, subtotal)
		order.DiscountCents = discount
		order.TotalCents = subtotal - discount
		if order.TotalCents < 0 {
			order.TotalCents = 0
		}
		order.CouponID = &applied.ID
		order.CouponCode = &applied.Code
		order.DiscountType = &applied.DiscountType
	}

	if err := s.orders.Create(ctx, order, items); err != nil {
		return nil, err
	}

	if applied != nil {
		// Best-effort: a failed increment never fails a committed order.
		if err := s.coupons.IncrementUsage(ctx, applied.ID); err != nil {
			s.log.Warn("coupon usage increment failed",
				"coupon_id", applied.ID, "order_id", order.ID, "error", err)
		}
	}

	return order, nil
}

func validateRequest(req models.OrderRequest) error {
	if req.RestaurantID == "" {
		return badRequest(ReasonMissingRestaurant, "restaurant_id is required")
	}
	if len(req.Items) == 0 {
		return badRequest(ReasonEmptyItems, "items must be a non-empty array")
	}
	if len(req.Items) > MaxOrderLines {
		return badRequest(ReasonTooManyLines, "order exceeds %d distinct lines", MaxOrderLines)
	}

	totalQty := 0
	for _, line := range req.Items {
		if line.MenuItemID == "" {
			return badRequest(ReasonMissingMenuItem, "every line requires a menu_item_id")
		}
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return badRequest(ReasonInvalidQuantity, "quantity for item %s must be between 1 and %d", line.MenuItemID, MaxLineQuantity)
		}
		totalQty += line.Quantity
	}
	if totalQty > MaxTotalQuantity {
		return badRequest(ReasonTotalQuantity, "total quantity exceeds %d", MaxTotalQuantity)
	}

	if len(req.TableLabel) > MaxTableLabelLen {
		return badRequest(ReasonTableLabelTooLong, "table_label exceeds %d characters", MaxTableLabelLen)
	}

	return nil
}

func (s *OrderService) checkRateLimit(ctx context.Context, clientIP string) error {
	since := s.now().Add(-OrderRateWindow)
	count, err := s.orders.CountRecentByIP(ctx, clientIP, since)
	if err != nil {
		return err
	}
	if count >= OrderRateLimit {
		return rateLimited("too many orders from this address, try again later")
	}
	return nil
}

// priceLines resolves every cart line against the catalog and returns the
// order items with snapshot prices plus the order subtotal.
func (s *OrderService) priceLines(ctx context.Context, req models.OrderRequest) ([]models.OrderItem, int64, error) {
	items := make([]models.OrderItem, 0, len(req.Items))
	var subtotal int64

	for _, line := range req.Items {
		item, err := s.catalog.GetItem(ctx, req.RestaurantID, line.MenuItemID)
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, 0, badRequest(ReasonItemNotFound, "menu item %s does not exist", line.MenuItemID)
		}
		if err != nil {
			return nil, 0, err
		}
		if !item.Active {
			return nil, 0, badRequest(ReasonItemUnavailable, "%q is currently unavailable", item.Name)
		}

		orderItem := models.OrderItem{
			ID:           uuid.New().String(),
			MenuItemID:   item.ID,
			Quantity:     line.Quantity,
			NameSnapshot: item.Name,
			Notes:        line.Notes,
		}

		unit := item.PriceCents
		if line.VariantID != "" {
			v, err := s.catalog.GetVariant(ctx, line.VariantID)
			if errors.Is(err, repository.ErrVariantNotFound) {
				return nil, 0, badRequest(ReasonInvalidVariant, "variant %s for %q does not exist", line.VariantID, item.Name)
			}
			if err != nil {
				return nil, 0, err
			}
			if v.MenuItemID != item.ID || !v.Active {
				return nil, 0, badRequest(ReasonInvalidVariant, "variant %s is not available for %q", line.VariantID, item.Name)
			}
			// Variant price replaces the base price.
			unit = v.PriceCents
			variantID := v.ID
			orderItem.VariantID = &variantID
		}

		if len(line.AddOns) > 0 {
			ids := make([]string, 0, len(line.AddOns))
			for _, ref := range line.AddOns {
				ids = append(ids, ref.ID)
			}

			found, err := s.catalog.ListAddOns(ctx, ids)
			if err != nil {
				return nil, 0, err
			}
			byID := make(map[string]models.AddOn, len(found))
			for _, a := range found {
				byID[a.ID] = a
			}

			for _, id := range ids {
				a, ok := byID[id]
				if !ok || a.MenuItemID != item.ID || !a.Active {
					return nil, 0, badRequest(ReasonInvalidAddOn, "add-on %s is not available for %q", id, item.Name)
				}
				unit += a.PriceCents
				orderItem.AddOns = append(orderItem.AddOns, models.AddOnSnapshot{
					ID:         a.ID,
					Name:       a.Name,
					PriceCents: a.PriceCents,
				})
			}
		}

		lineTotal := unit * int64(line.Quantity)
		if unit != 0 && lineTotal/int64(line.Quantity) != unit {
			return nil, 0, badRequest(ReasonLineTotalOverflow, "line total for %q is out of range", item.Name)
		}

		orderItem.UnitPriceCents = unit
		orderItem.LineTotalCents = lineTotal
		items = append(items, orderItem)

		subtotal += lineTotal
		if subtotal > MaxOrderValueCents {
			return nil, 0, badRequest(ReasonOrderValueExceeded, "order value exceeds the %d cent maximum", MaxOrderValueCents)
		}
	}

	return items, subtotal, nil
}

// applyCoupon resolves and validates the requested coupon. It never fails
// the order: lookup errors and ineligible coupons both yield no discount.
func (s *OrderService) applyCoupon(ctx context.Context, req models.OrderRequest, subtotal int64, now time.Time) *models.Coupon {
	if req.CouponCode == "" {
		return nil
	}

	code := coupon.Normalize(req.CouponCode)
	if code == "" {
		return nil
	}

	if s.guard != nil && !s.guard.MightContain(code) {
		return nil
	}

	c, err := s.coupons.GetByCode(ctx, req.RestaurantID, code)
	if errors.Is(err, repository.ErrCouponNotFound) {
		return nil
	}
	if err != nil {
		s.log.Warn("coupon lookup failed, order proceeds without discount",
			"restaurant_id", req.RestaurantID, "code", code, "error", err)
		return nil
	}

	if !coupon.Eligible(c, subtotal, now) {
		return nil
	}

	return c
}

func newOrderToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// UUID rather than panicking in the order path.
		return uuid.New().String()
	}
	return hex.EncodeToString(buf)
}
