package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/lineitem"
	"storefront/internal/pricing"
)

var ErrAlreadyInWishlist = errors.New("this product is already in your wishlist")

// Wishlist keeps saved-for-later entries next to the cart in the same session.
type Wishlist struct {
	store    lineitem.Store
	products productRepo
	cart     *Aggregator
	logger   *zap.Logger
}

func NewWishlist(store lineitem.Store, products productRepo, cart *Aggregator) *Wishlist {
	return &Wishlist{store: store, products: products, cart: cart, logger: cart.logger}
}

// MoveInput picks the variant that goes into the cart.
type MoveInput struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (w *Wishlist) Load(ctx context.Context, session string) ([]domain.LineItem, error) {
	return lineitem.Items(ctx, w.store, session, lineitem.KeyWishlist)
}

// Add saves a product variant once; a second add of the same key fails.
func (w *Wishlist) Add(ctx context.Context, session, productID, size, color string) ([]domain.LineItem, error) {
	product, err := w.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkVariant(*product, size, color); err != nil {
		return nil, err
	}
	items, err := w.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	key := domain.LineKey{ProductID: product.ID, Size: size, Color: color}
	if find(items, key) >= 0 {
		return nil, ErrAlreadyInWishlist
	}
	items = append(items, domain.LineItem{ProductID: product.ID, Size: size, Color: color, Quantity: 1})
	return items, lineitem.SetItems(ctx, w.store, session, lineitem.KeyWishlist, items)
}

// Remove drops every entry of the product, whatever variant was saved.
// Storefront ids are accepted like in Add.
func (w *Wishlist) Remove(ctx context.Context, session, productID string) ([]domain.LineItem, error) {
	id, err := w.catalogID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return w.drop(ctx, session, id)
}

// MoveToCart adds one unit of the chosen variant to the cart and drops the
// product from the wishlist.
func (w *Wishlist) MoveToCart(ctx context.Context, session string, in MoveInput) ([]domain.LineItem, error) {
	product, err := w.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	items, err := w.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	found := false
	for _, it := range items {
		if it.ProductID == product.ID {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	if _, err := w.cart.AddOrIncrement(ctx, session, *product, in.Size, in.Color, 1); err != nil {
		return nil, err
	}
	w.logger.Debug("wishlist: moved to cart", zap.String("product_id", product.ID))
	return w.drop(ctx, session, product.ID)
}

func (w *Wishlist) drop(ctx context.Context, session, productID string) ([]domain.LineItem, error) {
	items, err := w.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	return kept, lineitem.SetItems(ctx, w.store, session, lineitem.KeyWishlist, kept)
}

// catalogID maps a storefront or catalog id to the id stored in lists. Ids
// missing from the catalog are returned as given so stale entries can go.
func (w *Wishlist) catalogID(ctx context.Context, productID string) (string, error) {
	product, err := w.products.GetByID(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return productID, nil
	}
	if err != nil {
		return "", err
	}
	return product.ID, nil
}

// Resolve joins wishlist entries with their catalog records for display.
func (w *Wishlist) Resolve(ctx context.Context, items []domain.LineItem) ([]pricing.Line, error) {
	return w.cart.Resolve(ctx, items)
}
