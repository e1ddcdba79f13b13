package product

import (
	"context"
	"testing"

	"storefront/internal/domain"
)

type stubRepo struct {
	byID       map[string]domain.Product
	byStoreID  map[string]domain.Product
	lastFilter domain.ProductFilter
}

func (s *stubRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	s.lastFilter = f
	return []domain.Product{}, nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := s.byID[id]; ok {
		return &p, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetByStoreID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := s.byStoreID[id]; ok {
		return &p, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	return &p, nil
}

func TestListNormalisesFilter(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)
	if _, err := svc.List(context.Background(), domain.ProductFilter{Type: " hoodie ", Limit: 500}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.Type != "hoodie" || repo.lastFilter.Limit != maxListLimit {
		t.Fatalf("unexpected filter %+v", repo.lastFilter)
	}
	if _, err := svc.List(context.Background(), domain.ProductFilter{Sort: "random"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetFallsBackToStoreID(t *testing.T) {
	repo := &stubRepo{
		byID:      map[string]domain.Product{"uuid-1": {ID: "uuid-1"}},
		byStoreID: map[string]domain.Product{"7": {ID: "uuid-7", StoreID: "7"}},
	}
	svc := New(repo)
	if p, err := svc.Get(context.Background(), "uuid-1"); err != nil || p.ID != "uuid-1" {
		t.Fatalf("expected uuid-1, got %+v err=%v", p, err)
	}
	if p, err := svc.Get(context.Background(), "7"); err != nil || p.ID != "uuid-7" {
		t.Fatalf("expected store id lookup, got %+v err=%v", p, err)
	}
	if _, err := svc.Get(context.Background(), "nope"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
