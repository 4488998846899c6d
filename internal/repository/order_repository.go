package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dineqr/order-api/internal/models"
)

// PostgresOrderRepository persists orders and their line items.
type PostgresOrderRepository struct {
	db *sql.DB
}

// NewPostgresOrderRepository creates a new order repository.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// Create inserts an order and all of its items inside one transaction, so no
// reader ever observes an order without its items.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (
			id, restaurant_id, status, subtotal_cents, discount_cents, total_cents,
			coupon_id, coupon_code, discount_type, currency_code, table_label,
			client_ip, order_token, placed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID, order.RestaurantID, order.Status,
		order.SubtotalCents, order.DiscountCents, order.TotalCents,
		order.CouponID, order.CouponCode, order.DiscountType,
		order.CurrencyCode, order.TableLabel,
		order.ClientIP, order.OrderToken, order.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (
			id, order_id, menu_item_id, variant_id, addons,
			quantity, unit_price_cents, line_total_cents, name_snapshot, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for i := range items {
		items[i].OrderID = order.ID

		addons, err := json.Marshal(items[i].AddOns)
		if err != nil {
			return fmt.Errorf("failed to marshal addon snapshots: %w", err)
		}

		_, err = tx.ExecContext(ctx, itemQuery,
			items[i].ID, items[i].OrderID, items[i].MenuItemID, items[i].VariantID, addons,
			items[i].Quantity, items[i].UnitPriceCents, items[i].LineTotalCents,
			items[i].NameSnapshot, items[i].Notes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CountRecentByIP counts orders placed from a client IP since the given time.
func (r *PostgresOrderRepository) CountRecentByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE client_ip = $1 AND placed_at >= $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, ip, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recent orders: %w", err)
	}
	return count, nil
}

// GetByToken returns an order and its items by the customer-facing token.
func (r *PostgresOrderRepository) GetByToken(ctx context.Context, token string) (*models.Order, []models.OrderItem, error) {
	orderQuery := `
		SELECT id, restaurant_id, status, subtotal_cents, discount_cents, total_cents,
		       coupon_id, coupon_code, discount_type, currency_code, table_label,
		       client_ip, order_token, placed_at
		FROM orders
		WHERE order_token = $1
	`

	var o models.Order
	err := r.db.QueryRowContext(ctx, orderQuery, token).Scan(
		&o.ID, &o.RestaurantID, &o.Status,
		&o.SubtotalCents, &o.DiscountCents, &o.TotalCents,
		&o.CouponID, &o.CouponCode, &o.DiscountType,
		&o.CurrencyCode, &o.TableLabel,
		&o.ClientIP, &o.OrderToken, &o.PlacedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemQuery := `
		SELECT id, order_id, menu_item_id, variant_id, addons,
		       quantity, unit_price_cents, line_total_cents, name_snapshot, notes
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.QueryContext(ctx, itemQuery, o.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		var addons []byte
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.VariantID, &addons,
			&item.Quantity, &item.UnitPriceCents, &item.LineTotalCents,
			&item.NameSnapshot, &item.Notes,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if len(addons) > 0 {
			if err := json.Unmarshal(addons, &item.AddOns); err != nil {
				return nil, nil, fmt.Errorf("failed to unmarshal addon snapshots: %w", err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return &o, items, nil
}
