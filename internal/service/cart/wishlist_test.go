package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/lineitem"
)

func TestWishlistAddRejectsDuplicates(t *testing.T) {
	agg, store, repo := newTestAggregator()
	w := NewWishlist(store, repo, agg)
	ctx := context.Background()

	if _, err := w.Add(ctx, "s", "tee", "M", "Black"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := w.Add(ctx, "s", "tee", "M", "Black"); !errors.Is(err, ErrAlreadyInWishlist) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := w.Add(ctx, "s", "tee", "", ""); !errors.Is(err, ErrVariantRequired) {
		t.Fatalf("expected variant required, got %v", err)
	}
	items, _ := w.Load(ctx, "s")
	if len(items) != 1 {
		t.Fatalf("expected one wishlist entry, got %+v", items)
	}
}

func TestWishlistMoveToCart(t *testing.T) {
	agg, store, repo := newTestAggregator()
	w := NewWishlist(store, repo, agg)
	ctx := context.Background()
	_, _ = w.Add(ctx, "s", "tee", "M", "Black")
	_, _ = w.Add(ctx, "s", "cap", "", "")

	left, err := w.MoveToCart(ctx, "s", MoveInput{ProductID: "tee", Size: "L", Color: "White"})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(left) != 1 || left[0].ProductID != "cap" {
		t.Fatalf("expected only cap left in wishlist, got %+v", left)
	}
	cart, _ := lineitem.Items(ctx, store, "s", lineitem.KeyCart)
	want := domain.LineItem{ProductID: "tee", Size: "L", Color: "White", Quantity: 1}
	if len(cart) != 1 || cart[0] != want {
		t.Fatalf("expected %+v in cart, got %+v", want, cart)
	}
}

func TestWishlistMoveToCartNeedsVariant(t *testing.T) {
	agg, store, repo := newTestAggregator()
	w := NewWishlist(store, repo, agg)
	ctx := context.Background()
	_, _ = w.Add(ctx, "s", "tee", "M", "Black")

	if _, err := w.MoveToCart(ctx, "s", MoveInput{ProductID: "tee"}); !errors.Is(err, ErrVariantRequired) {
		t.Fatalf("expected variant required, got %v", err)
	}
	if items, _ := w.Load(ctx, "s"); len(items) != 1 {
		t.Fatalf("failed move must keep the wishlist entry")
	}
	if _, err := w.MoveToCart(ctx, "s", MoveInput{ProductID: "cap"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for product outside wishlist, got %v", err)
	}
}

func TestWishlistRemove(t *testing.T) {
	agg, store, repo := newTestAggregator()
	w := NewWishlist(store, repo, agg)
	ctx := context.Background()
	_, _ = w.Add(ctx, "s", "tee", "M", "Black")
	_, _ = w.Add(ctx, "s", "tee", "L", "Black")

	left, err := w.Remove(ctx, "s", "tee")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected empty wishlist, got %+v", left)
	}
}

func TestWishlistAcceptsStorefrontIDs(t *testing.T) {
	agg, store, repo := newTestAggregator()
	repo.products["7"] = tee()
	w := NewWishlist(store, repo, agg)
	ctx := context.Background()

	if _, err := w.Add(ctx, "s", "7", "M", "Black"); err != nil {
		t.Fatalf("add: %v", err)
	}
	left, err := w.Remove(ctx, "s", "7")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("remove by storefront id left %+v", left)
	}

	_, _ = w.Add(ctx, "s", "7", "M", "Black")
	if _, err := w.MoveToCart(ctx, "s", MoveInput{ProductID: "7", Size: "M", Color: "Black"}); err != nil {
		t.Fatalf("move: %v", err)
	}
	cart, _ := lineitem.Items(ctx, store, "s", lineitem.KeyCart)
	if len(cart) != 1 || cart[0].ProductID != "tee" {
		t.Fatalf("expected tee in cart, got %+v", cart)
	}
	if items, _ := w.Load(ctx, "s"); len(items) != 0 {
		t.Fatalf("expected empty wishlist, got %+v", items)
	}
}

func TestWishlistRemoveDropsEntriesOfDeletedProducts(t *testing.T) {
	agg, store, repo := newTestAggregator()
	w := NewWishlist(store, repo, agg)
	ctx := context.Background()
	_, _ = w.Add(ctx, "s", "cap", "", "")
	delete(repo.products, "cap")

	left, err := w.Remove(ctx, "s", "cap")
	if err != nil || len(left) != 0 {
		t.Fatalf("expected stale entry removed, got %+v err=%v", left, err)
	}
}
