package product

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

const maxListLimit = 100

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns catalog products matching f, newest first unless f.Sort says otherwise.
func (s *Service) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	f.Type = strings.TrimSpace(f.Type)
	f.Gender = strings.TrimSpace(f.Gender)
	f.Search = strings.TrimSpace(f.Search)
	f.Tag = strings.TrimSpace(f.Tag)
	switch f.Sort {
	case "", domain.SortNewest, domain.SortTopSelling, domain.SortPriceAsc:
	default:
		return nil, domain.Invalid("sort", "unsupported sort %q", f.Sort)
	}
	if f.Limit < 0 {
		return nil, domain.Invalid("limit", "must not be negative")
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	return s.repo.List(ctx, f)
}

// Get accepts either the catalog id or the storefront id used in product URLs.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return s.repo.GetByStoreID(ctx, id)
	}
	return p, err
}

// GetByID satisfies the cart's product lookup.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.Get(ctx, id)
}
