package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dineqr/order-api/internal/cache"
	"github.com/dineqr/order-api/internal/models"
	"github.com/redis/go-redis/v9"
)

// CachedCatalogRepository is a cache-aside decorator over the postgres
// catalog repository. The TTL is deliberately short: prices must still be
// resolved at order time, the cache only absorbs bursts of identical reads.
// Admin price edits call Invalidate through the platform's edit path.
type CachedCatalogRepository struct {
	repo  *PostgresCatalogRepository
	cache *cache.RedisCache
	log   *slog.Logger
}

// NewCachedCatalogRepository wraps a catalog repository with a redis cache.
func NewCachedCatalogRepository(repo *PostgresCatalogRepository, c *cache.RedisCache, log *slog.Logger) *CachedCatalogRepository {
	return &CachedCatalogRepository{repo: repo, cache: c, log: log}
}

func itemKey(restaurantID, itemID string) string {
	return fmt.Sprintf("catalog:item:%s:%s", restaurantID, itemID)
}

func variantKey(id string) string {
	return fmt.Sprintf("catalog:variant:%s", id)
}

// GetItem returns a menu item, trying the cache first.
func (r *CachedCatalogRepository) GetItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error) {
	key := itemKey(restaurantID, itemID)

	var item models.MenuItem
	err := r.cache.Get(ctx, key, &item)
	if err == nil {
		return &item, nil
	}
	if err != redis.Nil {
		r.log.Warn("catalog cache read failed", "key", key, "error", err)
	}

	fresh, err := r.repo.GetItem(ctx, restaurantID, itemID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, fresh); err != nil {
		r.log.Warn("catalog cache write failed", "key", key, "error", err)
	}

	return fresh, nil
}

// GetVariant returns a variant, trying the cache first.
func (r *CachedCatalogRepository) GetVariant(ctx context.Context, variantID string) (*models.Variant, error) {
	key := variantKey(variantID)

	var v models.Variant
	err := r.cache.Get(ctx, key, &v)
	if err == nil {
		return &v, nil
	}
	if err != redis.Nil {
		r.log.Warn("catalog cache read failed", "key", key, "error", err)
	}

	fresh, err := r.repo.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, fresh); err != nil {
		r.log.Warn("catalog cache write failed", "key", key, "error", err)
	}

	return fresh, nil
}

// ListAddOns is not cached: requested id sets vary per cart and hit rates
// were not worth the invalidation complexity.
func (r *CachedCatalogRepository) ListAddOns(ctx context.Context, ids []string) ([]models.AddOn, error) {
	return r.repo.ListAddOns(ctx, ids)
}

// InvalidateItem drops the cached entry for a menu item.
func (r *CachedCatalogRepository) InvalidateItem(ctx context.Context, restaurantID, itemID string) error {
	return r.cache.Delete(ctx, itemKey(restaurantID, itemID))
}

// InvalidateVariant drops the cached entry for a variant.
func (r *CachedCatalogRepository) InvalidateVariant(ctx context.Context, variantID string) error {
	return r.cache.Delete(ctx, variantKey(variantID))
}
