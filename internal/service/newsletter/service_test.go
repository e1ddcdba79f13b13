package newsletter

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	newsletterrepo "storefront/internal/repository/newsletter"
)

type memoryRepo struct {
	subs map[string]newsletterrepo.Subscription
}

func (m *memoryRepo) GetByEmail(_ context.Context, email string) (*newsletterrepo.Subscription, error) {
	if s, ok := m.subs[email]; ok {
		return &s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memoryRepo) Create(_ context.Context, email string) (*newsletterrepo.Subscription, error) {
	s := newsletterrepo.Subscription{Email: email, CreatedAt: time.Now()}
	m.subs[email] = s
	return &s, nil
}

func TestSubscribe(t *testing.T) {
	svc := New(&memoryRepo{subs: map[string]newsletterrepo.Subscription{}}, nil)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, " Reader@Example.com ")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.Email != "reader@example.com" {
		t.Fatalf("expected normalised email, got %q", sub.Email)
	}
	if _, err := svc.Subscribe(ctx, "reader@example.com"); !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
	if _, err := svc.Subscribe(ctx, "nope"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
