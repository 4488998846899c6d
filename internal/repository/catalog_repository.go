package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dineqr/order-api/internal/models"
	"github.com/lib/pq"
)

// PostgresCatalogRepository reads menu items, variants and add-ons. Rows are
// returned with their active flags intact; the caller decides how to reject
// inactive references so it can name the offending entity.
type PostgresCatalogRepository struct {
	db *sql.DB
}

// NewPostgresCatalogRepository creates a new catalog repository.
func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// GetItem returns a menu item by id, scoped to a restaurant.
func (r *PostgresCatalogRepository) GetItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error) {
	query := `
		SELECT id, restaurant_id, name, price_cents, active
		FROM menu_items
		WHERE id = $1 AND restaurant_id = $2
	`

	var item models.MenuItem
	err := r.db.QueryRowContext(ctx, query, itemID, restaurantID).
		Scan(&item.ID, &item.RestaurantID, &item.Name, &item.PriceCents, &item.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query menu item: %w", err)
	}

	return &item, nil
}

// GetVariant returns a variant by id.
func (r *PostgresCatalogRepository) GetVariant(ctx context.Context, variantID string) (*models.Variant, error) {
	query := `
		SELECT id, menu_item_id, name, price_cents, active
		FROM variants
		WHERE id = $1
	`

	var v models.Variant
	err := r.db.QueryRowContext(ctx, query, variantID).
		Scan(&v.ID, &v.MenuItemID, &v.Name, &v.PriceCents, &v.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}

	return &v, nil
}

// ListAddOns returns the add-ons matching the given ids. Missing ids are
// simply absent from the result.
func (r *PostgresCatalogRepository) ListAddOns(ctx context.Context, ids []string) ([]models.AddOn, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, menu_item_id, name, price_cents, active
		FROM addons
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query addons: %w", err)
	}
	defer rows.Close()

	var addons []models.AddOn
	for rows.Next() {
		var a models.AddOn
		if err := rows.Scan(&a.ID, &a.MenuItemID, &a.Name, &a.PriceCents, &a.Active); err != nil {
			return nil, fmt.Errorf("failed to scan addon: %w", err)
		}
		addons = append(addons, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate addons: %w", err)
	}

	return addons, nil
}
