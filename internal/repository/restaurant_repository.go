package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dineqr/order-api/internal/models"
)

// PostgresRestaurantRepository reads restaurant rows.
type PostgresRestaurantRepository struct {
	db *sql.DB
}

// NewPostgresRestaurantRepository creates a new restaurant repository.
func NewPostgresRestaurantRepository(db *sql.DB) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{db: db}
}

// GetByID returns a restaurant by id.
func (r *PostgresRestaurantRepository) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	query := `
		SELECT id, name, currency_code, accepting_orders
		FROM restaurants
		WHERE id = $1
	`

	var rest models.Restaurant
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&rest.ID, &rest.Name, &rest.CurrencyCode, &rest.AcceptingOrders)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurant: %w", err)
	}

	return &rest, nil
}
