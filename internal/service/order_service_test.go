package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dineqr/order-api/internal/models"
	"github.com/dineqr/order-api/internal/repository"
	"github.com/dineqr/order-api/pkg/logger"
)

const (
	testRestaurant = "rest-1"
	testIP         = "203.0.113.7"
)

type testEnv struct {
	svc     *OrderService
	coupons *repository.InMemoryCouponRepository
	orders  *repository.InMemoryOrderRepository
	clock   time.Time
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func newTestEnv() *testEnv {
	restaurants := repository.NewInMemoryRestaurantRepository()
	restaurants.Add(models.Restaurant{ID: testRestaurant, Name: "Waffle Corner", CurrencyCode: "USD", AcceptingOrders: true})
	restaurants.Add(models.Restaurant{ID: "rest-closed", Name: "Closed Corner", CurrencyCode: "USD", AcceptingOrders: false})

	catalog := repository.NewInMemoryCatalogRepository()
	catalog.AddItem(models.MenuItem{ID: "item-waffle", RestaurantID: testRestaurant, Name: "Belgian Waffle", PriceCents: 500, Active: true})
	catalog.AddItem(models.MenuItem{ID: "item-cheap", RestaurantID: testRestaurant, Name: "Side Salad", PriceCents: 300, Active: true})
	catalog.AddItem(models.MenuItem{ID: "item-off", RestaurantID: testRestaurant, Name: "Seasonal Special", PriceCents: 800, Active: false})
	catalog.AddItem(models.MenuItem{ID: "item-big", RestaurantID: testRestaurant, Name: "Catering Platter", PriceCents: 600_000, Active: true})
	catalog.AddItem(models.MenuItem{ID: "item-huge", RestaurantID: testRestaurant, Name: "Broken Price", PriceCents: math.MaxInt64 / 2, Active: true})

	catalog.AddVariant(models.Variant{ID: "var-large", MenuItemID: "item-waffle", Name: "Large", PriceCents: 700, Active: true})
	catalog.AddVariant(models.Variant{ID: "var-off", MenuItemID: "item-waffle", Name: "Retired", PriceCents: 900, Active: false})
	catalog.AddVariant(models.Variant{ID: "var-foreign", MenuItemID: "item-cheap", Name: "Large", PriceCents: 400, Active: true})

	catalog.AddAddOn(models.AddOn{ID: "add-cheese", MenuItemID: "item-waffle", Name: "Cheese", PriceCents: 100, Active: true})
	catalog.AddAddOn(models.AddOn{ID: "add-bacon", MenuItemID: "item-waffle", Name: "Bacon", PriceCents: 150, Active: true})
	catalog.AddAddOn(models.AddOn{ID: "add-off", MenuItemID: "item-waffle", Name: "Gone", PriceCents: 50, Active: false})
	catalog.AddAddOn(models.AddOn{ID: "add-foreign", MenuItemID: "item-cheap", Name: "Dressing", PriceCents: 25, Active: true})

	maxDiscount := int64(150)
	usageLimit := 1
	bigMin := int64(100_000)
	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	coupons := repository.NewInMemoryCouponRepository()
	coupons.Add(models.Coupon{ID: "cpn-save10", RestaurantID: testRestaurant, Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: 10, MaxDiscountCents: &maxDiscount, Active: true})
	coupons.Add(models.Coupon{ID: "cpn-fiver", RestaurantID: testRestaurant, Code: "FIVER", DiscountType: models.DiscountFixed, DiscountValue: 500, Active: true})
	coupons.Add(models.Coupon{ID: "cpn-expired", RestaurantID: testRestaurant, Code: "EXPIRED", DiscountType: models.DiscountFixed, DiscountValue: 100, ExpiresAt: &expired, Active: true})
	coupons.Add(models.Coupon{ID: "cpn-maxed", RestaurantID: testRestaurant, Code: "MAXED", DiscountType: models.DiscountFixed, DiscountValue: 100, UsageLimit: &usageLimit, UsageCount: 1, Active: true})
	coupons.Add(models.Coupon{ID: "cpn-off", RestaurantID: testRestaurant, Code: "RETIRED", DiscountType: models.DiscountFixed, DiscountValue: 100, Active: false})
	coupons.Add(models.Coupon{ID: "cpn-bigmin", RestaurantID: testRestaurant, Code: "BIGSPENDER", DiscountType: models.DiscountFixed, DiscountValue: 100, MinOrderCents: &bigMin, Active: true})

	orders := repository.NewInMemoryOrderRepository()

	env := &testEnv{
		coupons: coupons,
		orders:  orders,
		clock:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	env.svc = NewOrderService(restaurants, catalog, coupons, orders, nil, logger.New("error"))
	env.svc.now = func() time.Time { return env.clock }

	return env
}

func singleLine(quantity int) models.OrderRequest {
	return models.OrderRequest{
		RestaurantID: testRestaurant,
		Items:        []models.CartLine{{MenuItemID: "item-waffle", Quantity: quantity}},
	}
}

func wantRejection(t *testing.T, err error, status int, reason string) {
	t.Helper()
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected a rejection, got %v", err)
	}
	if rej.Status != status {
		t.Errorf("status = %d, want %d", rej.Status, status)
	}
	if rej.Reason != reason {
		t.Errorf("reason = %q, want %q", rej.Reason, reason)
	}
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	manyLines := make([]models.CartLine, MaxOrderLines+1)
	for i := range manyLines {
		manyLines[i] = models.CartLine{MenuItemID: "item-waffle", Quantity: 1}
	}

	heavyLines := make([]models.CartLine, 6)
	for i := range heavyLines {
		heavyLines[i] = models.CartLine{MenuItemID: "item-waffle", Quantity: 100}
	}

	tests := []struct {
		name       string
		req        models.OrderRequest
		wantStatus int
		wantReason string
	}{
		{
			name:       "missing restaurant id",
			req:        models.OrderRequest{Items: []models.CartLine{{MenuItemID: "item-waffle", Quantity: 1}}},
			wantStatus: 400,
			wantReason: ReasonMissingRestaurant,
		},
		{
			name:       "empty items",
			req:        models.OrderRequest{RestaurantID: testRestaurant},
			wantStatus: 400,
			wantReason: ReasonEmptyItems,
		},
		{
			name:       "too many lines",
			req:        models.OrderRequest{RestaurantID: testRestaurant, Items: manyLines},
			wantStatus: 400,
			wantReason: ReasonTooManyLines,
		},
		{
			name:       "line without menu item id",
			req:        models.OrderRequest{RestaurantID: testRestaurant, Items: []models.CartLine{{Quantity: 1}}},
			wantStatus: 400,
			wantReason: ReasonMissingMenuItem,
		},
		{
			name:       "zero quantity",
			req:        singleLine(0),
			wantStatus: 400,
			wantReason: ReasonInvalidQuantity,
		},
		{
			name:       "negative quantity",
			req:        singleLine(-3),
			wantStatus: 400,
			wantReason: ReasonInvalidQuantity,
		},
		{
			name:       "quantity above line limit",
			req:        singleLine(MaxLineQuantity + 1),
			wantStatus: 400,
			wantReason: ReasonInvalidQuantity,
		},
		{
			name:       "total quantity above limit",
			req:        models.OrderRequest{RestaurantID: testRestaurant, Items: heavyLines},
			wantStatus: 400,
			wantReason: ReasonTotalQuantity,
		},
		{
			name: "table label too long",
			req: models.OrderRequest{
				RestaurantID: testRestaurant,
				Items:        []models.CartLine{{MenuItemID: "item-waffle", Quantity: 1}},
				TableLabel:   "this label is far too long",
			},
			wantStatus: 400,
			wantReason: ReasonTableLabelTooLong,
		},
		{
			name: "unknown restaurant",
			req: models.OrderRequest{
				RestaurantID: "rest-missing",
				Items:        []models.CartLine{{MenuItemID: "item-waffle", Quantity: 1}},
			},
			wantStatus: 404,
			wantReason: ReasonRestaurantNotFound,
		},
		{
			name: "restaurant not accepting orders",
			req: models.OrderRequest{
				RestaurantID: "rest-closed",
				Items:        []models.CartLine{{MenuItemID: "item-waffle", Quantity: 1}},
			},
			wantStatus: 400,
			wantReason: ReasonRestaurantClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			_, err := env.svc.PlaceOrder(context.Background(), tt.req, testIP)
			wantRejection(t, err, tt.wantStatus, tt.wantReason)

			if n := len(env.orders.Orders()); n != 0 {
				t.Errorf("expected no persisted orders, found %d", n)
			}
		})
	}
}

func TestOrderService_PlaceOrder_CatalogRejections(t *testing.T) {
	line := func(mutate func(*models.CartLine)) models.OrderRequest {
		l := models.CartLine{MenuItemID: "item-waffle", Quantity: 1}
		mutate(&l)
		return models.OrderRequest{RestaurantID: testRestaurant, Items: []models.CartLine{l}}
	}

	tests := []struct {
		name       string
		req        models.OrderRequest
		wantReason string
	}{
		{
			name:       "unknown menu item",
			req:        line(func(l *models.CartLine) { l.MenuItemID = "item-missing" }),
			wantReason: ReasonItemNotFound,
		},
		{
			name:       "inactive menu item",
			req:        line(func(l *models.CartLine) { l.MenuItemID = "item-off" }),
			wantReason: ReasonItemUnavailable,
		},
		{
			name:       "unknown variant",
			req:        line(func(l *models.CartLine) { l.VariantID = "var-missing" }),
			wantReason: ReasonInvalidVariant,
		},
		{
			name:       "variant of another item",
			req:        line(func(l *models.CartLine) { l.VariantID = "var-foreign" }),
			wantReason: ReasonInvalidVariant,
		},
		{
			name:       "inactive variant",
			req:        line(func(l *models.CartLine) { l.VariantID = "var-off" }),
			wantReason: ReasonInvalidVariant,
		},
		{
			name:       "unknown add-on",
			req:        line(func(l *models.CartLine) { l.AddOns = []models.AddOnRef{{ID: "add-missing"}} }),
			wantReason: ReasonInvalidAddOn,
		},
		{
			name:       "add-on of another item",
			req:        line(func(l *models.CartLine) { l.AddOns = []models.AddOnRef{{ID: "add-foreign"}} }),
			wantReason: ReasonInvalidAddOn,
		},
		{
			name:       "inactive add-on",
			req:        line(func(l *models.CartLine) { l.AddOns = []models.AddOnRef{{ID: "add-cheese"}, {ID: "add-off"}} }),
			wantReason: ReasonInvalidAddOn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			_, err := env.svc.PlaceOrder(context.Background(), tt.req, testIP)
			wantRejection(t, err, 400, tt.wantReason)

			if n := len(env.orders.Orders()); n != 0 {
				t.Errorf("expected no persisted orders, found %d", n)
			}
		})
	}
}

func TestOrderService_PlaceOrder_PricingComposition(t *testing.T) {
	env := newTestEnv()

	// Base 500 replaced by large variant 700, plus add-ons 100 and 150,
	// quantity 2, with a 10% coupon capped at 150.
	req := models.OrderRequest{
		RestaurantID: testRestaurant,
		Items: []models.CartLine{{
			MenuItemID: "item-waffle",
			Quantity:   2,
			VariantID:  "var-large",
			AddOns:     []models.AddOnRef{{ID: "add-cheese"}, {ID: "add-bacon"}},
			Notes:      "no syrup",
		}},
		TableLabel: "T12",
		CouponCode: "save10",
	}

	order, err := env.svc.PlaceOrder(context.Background(), req, testIP)
	if err != nil {
		t.Fatalf("PlaceOrder() unexpected error = %v", err)
	}

	if order.SubtotalCents != 1900 {
		t.Errorf("subtotal = %d, want 1900", order.SubtotalCents)
	}
	if order.DiscountCents != 150 {
		t.Errorf("discount = %d, want 150", order.DiscountCents)
	}
	if order.TotalCents != 1750 {
		t.Errorf("total = %d, want 1750", order.TotalCents)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("status = %q, want %q", order.Status, models.OrderStatusPending)
	}
	if order.CurrencyCode != "USD" {
		t.Errorf("currency = %q, want USD", order.CurrencyCode)
	}
	if order.TableLabel == nil || *order.TableLabel != "T12" {
		t.Errorf("table label = %v, want T12", order.TableLabel)
	}
	if order.CouponCode == nil || *order.CouponCode != "SAVE10" {
		t.Errorf("coupon code = %v, want SAVE10", order.CouponCode)
	}
	if order.OrderToken == "" || order.OrderToken == order.ID {
		t.Errorf("order token %q must be set and distinct from the id", order.OrderToken)
	}

	_, items, err := env.orders.GetByToken(context.Background(), order.OrderToken)
	if err != nil {
		t.Fatalf("GetByToken() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.UnitPriceCents != 950 {
		t.Errorf("unit price = %d, want 950", item.UnitPriceCents)
	}
	if item.LineTotalCents != 1900 {
		t.Errorf("line total = %d, want 1900", item.LineTotalCents)
	}
	if item.NameSnapshot != "Belgian Waffle" {
		t.Errorf("name snapshot = %q, want Belgian Waffle", item.NameSnapshot)
	}
	if item.Notes != "no syrup" {
		t.Errorf("notes = %q, want %q", item.Notes, "no syrup")
	}
	if len(item.AddOns) != 2 || item.AddOns[0].PriceCents != 100 || item.AddOns[1].PriceCents != 150 {
		t.Errorf("addon snapshots = %+v, want cheese 100 and bacon 150", item.AddOns)
	}

	// The coupon's usage counter was bumped.
	c, err := env.coupons.GetByCode(context.Background(), testRestaurant, "SAVE10")
	if err != nil {
		t.Fatalf("GetByCode() error = %v", err)
	}
	if c.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", c.UsageCount)
	}
}

func TestOrderService_PlaceOrder_VariantReplacesBasePrice(t *testing.T) {
	env := newTestEnv()

	req := models.OrderRequest{
		RestaurantID: testRestaurant,
		Items:        []models.CartLine{{MenuItemID: "item-waffle", Quantity: 1, VariantID: "var-large"}},
	}

	order, err := env.svc.PlaceOrder(context.Background(), req, testIP)
	if err != nil {
		t.Fatalf("PlaceOrder() unexpected error = %v", err)
	}

	// 700, not 500+700.
	if order.SubtotalCents != 700 {
		t.Errorf("subtotal = %d, want 700", order.SubtotalCents)
	}
}

func TestOrderService_PlaceOrder_FixedCouponNeverGoesNegative(t *testing.T) {
	env := newTestEnv()

	// 500-cent coupon on a 300-cent order clamps to the subtotal.
	req := models.OrderRequest{
		RestaurantID: testRestaurant,
		Items:        []models.CartLine{{MenuItemID: "item-cheap", Quantity: 1}},
		CouponCode:   "FIVER",
	}

	order, err := env.svc.PlaceOrder(context.Background(), req, testIP)
	if err != nil {
		t.Fatalf("PlaceOrder() unexpected error = %v", err)
	}

	if order.DiscountCents != 300 {
		t.Errorf("discount = %d, want 300", order.DiscountCents)
	}
	if order.TotalCents != 0 {
		t.Errorf("total = %d, want 0", order.TotalCents)
	}
}

func TestOrderService_PlaceOrder_IneligibleCouponStillCreatesOrder(t *testing.T) {
	codes := []string{"EXPIRED", "MAXED", "RETIRED", "BIGSPENDER", "NO-SUCH-CODE"}

	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			env := newTestEnv()

			req := singleLine(1)
			req.CouponCode = code

			order, err := env.svc.PlaceOrder(context.Background(), req, testIP)
			if err != nil {
				t.Fatalf("PlaceOrder() unexpected error = %v", err)
			}

			if order.DiscountCents != 0 {
				t.Errorf("discount = %d, want 0", order.DiscountCents)
			}
			if order.TotalCents != order.SubtotalCents {
				t.Errorf("total = %d, want subtotal %d", order.TotalCents, order.SubtotalCents)
			}
			if order.CouponID != nil {
				t.Errorf("coupon id = %v, want nil", order.CouponID)
			}
		})
	}
}

type failingCouponStore struct{}

func (failingCouponStore) GetByCode(ctx context.Context, restaurantID, code string) (*models.Coupon, error) {
	return nil, errors.New("coupon store down")
}

func (failingCouponStore) IncrementUsage(ctx context.Context, id string) error {
	return errors.New("coupon store down")
}

func TestOrderService_PlaceOrder_CouponLookupFailureIsSoft(t *testing.T) {
	env := newTestEnv()
	env.svc.coupons = failingCouponStore{}

	req := singleLine(1)
	req.CouponCode = "SAVE10"

	order, err := env.svc.PlaceOrder(context.Background(), req, testIP)
	if err != nil {
		t.Fatalf("PlaceOrder() unexpected error = %v", err)
	}
	if order.DiscountCents != 0 {
		t.Errorf("discount = %d, want 0", order.DiscountCents)
	}
}

type closedGuard struct{}

func (closedGuard) MightContain(code string) bool { return false }

func TestOrderService_PlaceOrder_GuardSkipsLookup(t *testing.T) {
	env := newTestEnv()
	env.svc.guard = closedGuard{}

	req := singleLine(1)
	req.CouponCode = "SAVE10"

	order, err := env.svc.PlaceOrder(context.Background(), req, testIP)
	if err != nil {
		t.Fatalf("PlaceOrder() unexpected error = %v", err)
	}
	if order.DiscountCents != 0 {
		t.Errorf("discount = %d, want 0 when the guard rules the code out", order.DiscountCents)
	}
}

func TestOrderService_PlaceOrder_OrderValueCeiling(t *testing.T) {
	env := newTestEnv()

	req := models.OrderRequest{
		RestaurantID: testRestaurant,
		Items:        []models.CartLine{{MenuItemID: "item-big", Quantity: 2}},
	}

	_, err := env.svc.PlaceOrder(context.Background(), req, testIP)
	wantRejection(t, err, 400, ReasonOrderValueExceeded)
}

func TestOrderService_PlaceOrder_LineTotalOverflow(t *testing.T) {
	env := newTestEnv()

	req := models.OrderRequest{
		RestaurantID: testRestaurant,
		Items:        []models.CartLine{{MenuItemID: "item-huge", Quantity: 3}},
	}

	_, err := env.svc.PlaceOrder(context.Background(), req, testIP)
	wantRejection(t, err, 400, ReasonLineTotalOverflow)
}

func TestOrderService_PlaceOrder_RateLimit(t *testing.T) {
	env := newTestEnv()

	for i := 0; i < OrderRateLimit; i++ {
		if _, err := env.svc.PlaceOrder(context.Background(), singleLine(1), testIP); err != nil {
			t.Fatalf("order %d unexpectedly failed: %v", i+1, err)
		}
	}

	// The 16th order inside the window is rejected.
	_, err := env.svc.PlaceOrder(context.Background(), singleLine(1), testIP)
	wantRejection(t, err, 429, ReasonRateLimited)

	// A different address is unaffected.
	if _, err := env.svc.PlaceOrder(context.Background(), singleLine(1), "198.51.100.9"); err != nil {
		t.Fatalf("order from other address failed: %v", err)
	}

	// Once the window passes, ordering resumes.
	env.advance(OrderRateWindow + time.Second)
	if _, err := env.svc.PlaceOrder(context.Background(), singleLine(1), testIP); err != nil {
		t.Fatalf("order after window failed: %v", err)
	}
}

func TestOrderService_PlaceOrder_MissingIPSharesBucket(t *testing.T) {
	env := newTestEnv()

	for i := 0; i < OrderRateLimit; i++ {
		if _, err := env.svc.PlaceOrder(context.Background(), singleLine(1), ""); err != nil {
			t.Fatalf("order %d unexpectedly failed: %v", i+1, err)
		}
	}

	_, err := env.svc.PlaceOrder(context.Background(), singleLine(1), "")
	wantRejection(t, err, 429, ReasonRateLimited)
}
