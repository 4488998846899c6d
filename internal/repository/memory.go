package repository

import (
	"context"
	"sync"
	"time"

	"github.com/dineqr/order-api/internal/models"
)

// In-memory implementations of the store interfaces, used by tests and local
// development. They mirror the postgres repositories' error behavior.

// InMemoryRestaurantRepository implements restaurant reads over a map.
type InMemoryRestaurantRepository struct {
	mu          sync.RWMutex
	restaurants map[string]models.Restaurant
}

// NewInMemoryRestaurantRepository creates an empty in-memory restaurant repository.
func NewInMemoryRestaurantRepository() *InMemoryRestaurantRepository {
	return &InMemoryRestaurantRepository{restaurants: make(map[string]models.Restaurant)}
}

// Add stores a restaurant.
func (r *InMemoryRestaurantRepository) Add(rest models.Restaurant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restaurants[rest.ID] = rest
}

// GetByID returns a restaurant by id.
func (r *InMemoryRestaurantRepository) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rest, ok := r.restaurants[id]
	if !ok {
		return nil, ErrRestaurantNotFound
	}
	return &rest, nil
}

// InMemoryCatalogRepository implements catalog reads over maps.
type InMemoryCatalogRepository struct {
	mu       sync.RWMutex
	items    map[string]models.MenuItem
	variants map[string]models.Variant
	addons   map[string]models.AddOn
}

// NewInMemoryCatalogRepository creates an empty in-memory catalog repository.
func NewInMemoryCatalogRepository() *InMemoryCatalogRepository {
	return &InMemoryCatalogRepository{
		items:    make(map[string]models.MenuItem),
		variants: make(map[string]models.Variant),
		addons:   make(map[string]models.AddOn),
	}
}

// AddItem stores a menu item.
func (r *InMemoryCatalogRepository) AddItem(item models.MenuItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

// AddVariant stores a variant.
func (r *InMemoryCatalogRepository) AddVariant(v models.Variant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[v.ID] = v
}

// AddAddOn stores an add-on.
func (r *InMemoryCatalogRepository) AddAddOn(a models.AddOn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addons[a.ID] = a
}

// GetItem returns a menu item by id, scoped to a restaurant.
func (r *InMemoryCatalogRepository) GetItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[itemID]
	if !ok || item.RestaurantID != restaurantID {
		return nil, ErrItemNotFound
	}
	return &item, nil
}

// GetVariant returns a variant by id.
func (r *InMemoryCatalogRepository) GetVariant(ctx context.Context, variantID string) (*models.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[variantID]
	if !ok {
		return nil, ErrVariantNotFound
	}
	return &v, nil
}

// ListAddOns returns the add-ons matching the given ids.
func (r *InMemoryCatalogRepository) ListAddOns(ctx context.Context, ids []string) ([]models.AddOn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var addons []models.AddOn
	for _, id := range ids {
		if a, ok := r.addons[id]; ok {
			addons = append(addons, a)
		}
	}
	return addons, nil
}

// InMemoryCouponRepository implements coupon reads and usage counting.
type InMemoryCouponRepository struct {
	mu      sync.RWMutex
	coupons map[string]*models.Coupon // by id
}

// NewInMemoryCouponRepository creates an empty in-memory coupon repository.
func NewInMemoryCouponRepository() *InMemoryCouponRepository {
	return &InMemoryCouponRepository{coupons: make(map[string]*models.Coupon)}
}

// Add stores a coupon.
func (r *InMemoryCouponRepository) Add(c models.Coupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coupons[c.ID] = &c
}

// GetByCode returns a coupon by code within a restaurant.
func (r *InMemoryCouponRepository) GetByCode(ctx context.Context, restaurantID, code string) (*models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.coupons {
		if c.RestaurantID == restaurantID && c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCouponNotFound
}

// IncrementUsage bumps a coupon's usage counter unless its limit is reached.
func (r *InMemoryCouponRepository) IncrementUsage(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[id]
	if !ok {
		return ErrCouponNotFound
	}
	if c.UsageLimit == nil || c.UsageCount < *c.UsageLimit {
		c.UsageCount++
	}
	return nil
}

// ListActiveCodes returns every active coupon code.
func (r *InMemoryCouponRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var codes []string
	for _, c := range r.coupons {
		if c.Active {
			codes = append(codes, c.Code)
		}
	}
	return codes, nil
}

// InMemoryOrderRepository stores orders and items in slices.
type InMemoryOrderRepository struct {
	mu     sync.RWMutex
	orders []models.Order
	items  map[string][]models.OrderItem // by order id
}

// NewInMemoryOrderRepository creates an empty in-memory order repository.
func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{items: make(map[string][]models.OrderItem)}
}

// Create stores an order with its items.
func (r *InMemoryOrderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range items {
		items[i].OrderID = order.ID
	}
	r.orders = append(r.orders, *order)
	r.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

// CountRecentByIP counts orders placed from a client IP since the given time.
func (r *InMemoryOrderRepository) CountRecentByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, o := range r.orders {
		if o.ClientIP == ip && !o.PlacedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// GetByToken returns an order and its items by the customer-facing token.
func (r *InMemoryOrderRepository) GetByToken(ctx context.Context, token string) (*models.Order, []models.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.OrderToken == token {
			order := o
			return &order, append([]models.OrderItem(nil), r.items[o.ID]...), nil
		}
	}
	return nil, nil, ErrOrderNotFound
}

// Orders returns a copy of all stored orders.
func (r *InMemoryOrderRepository) Orders() []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Order(nil), r.orders...)
}
