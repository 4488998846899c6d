package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dineqr/order-api/internal/models"
)

// PostgresCouponRepository reads and updates coupon rows.
type PostgresCouponRepository struct {
	db *sql.DB
}

// NewPostgresCouponRepository creates a new coupon repository.
func NewPostgresCouponRepository(db *sql.DB) *PostgresCouponRepository {
	return &PostgresCouponRepository{db: db}
}

// GetByCode returns a coupon by its (already uppercased) code within a
// restaurant.
func (r *PostgresCouponRepository) GetByCode(ctx context.Context, restaurantID, code string) (*models.Coupon, error) {
	query := `
		SELECT id, restaurant_id, code, discount_type, discount_value,
		       min_order_cents, max_discount_cents, expires_at,
		       usage_limit, usage_count, active
		FROM coupons
		WHERE restaurant_id = $1 AND code = $2
	`

	var c models.Coupon
	err := r.db.QueryRowContext(ctx, query, restaurantID, code).Scan(
		&c.ID, &c.RestaurantID, &c.Code, &c.DiscountType, &c.DiscountValue,
		&c.MinOrderCents, &c.MaxDiscountCents, &c.ExpiresAt,
		&c.UsageLimit, &c.UsageCount, &c.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// IncrementUsage bumps a coupon's usage counter with a single conditional
// update, so concurrent checkouts cannot push it past its limit. A coupon
// already at its limit is left unchanged without error; the order it was
// applied to has already been committed.
func (r *PostgresCouponRepository) IncrementUsage(ctx context.Context, id string) error {
	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	return nil
}

// ListActiveCodes returns every active coupon code across all restaurants,
// used to seed the bloom guard.
func (r *PostgresCouponRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	query := `SELECT code FROM coupons WHERE active = true`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan coupon code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coupon codes: %w", err)
	}

	return codes, nil
}
