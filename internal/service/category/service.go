package category

import (
	"context"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.Key = strings.ToLower(strings.TrimSpace(c.Key))
	c.Name = strings.TrimSpace(c.Name)
	if c.Key == "" {
		return nil, domain.Invalid("key", "required")
	}
	if c.Name == "" {
		c.Name = c.Key
	}
	return s.repo.Upsert(ctx, c)
}
