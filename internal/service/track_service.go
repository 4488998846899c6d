package service

import (
	"context"
	"errors"

	"github.com/dineqr/order-api/internal/models"
	"github.com/dineqr/order-api/internal/repository"
)

// OrderReader resolves persisted orders for customer-facing tracking.
type OrderReader interface {
	GetByToken(ctx context.Context, token string) (*models.Order, []models.OrderItem, error)
}

// TrackedOrder is the customer-facing view of an order and its items.
type TrackedOrder struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// TrackService serves unauthenticated order lookups by opaque token.
type TrackService struct {
	orders OrderReader
}

// NewTrackService creates a new track service.
func NewTrackService(orders OrderReader) *TrackService {
	return &TrackService{orders: orders}
}

// Track returns the order identified by token.
func (s *TrackService) Track(ctx context.Context, token string) (*TrackedOrder, error) {
	if token == "" {
		return nil, notFound(ReasonOrderNotFound, "order not found")
	}

	order, items, err := s.orders.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, notFound(ReasonOrderNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}

	return &TrackedOrder{Order: order, Items: items}, nil
}
