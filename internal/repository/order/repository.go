package order

import (
	"context"

	"storefront/internal/domain"
)

// Repository records placed orders.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}
