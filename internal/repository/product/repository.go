package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByStoreID(ctx context.Context, storeID string) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
