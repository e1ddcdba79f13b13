package user

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists and fetches storefront accounts.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}
