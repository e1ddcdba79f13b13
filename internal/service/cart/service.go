package cart

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/lineitem"
	"storefront/internal/logging"
	"storefront/internal/pricing"
)

var (
	ErrVariantRequired = errors.New("please select both size and color")
	ErrInvalidVariant  = errors.New("selected size or color is not offered for this product")
	ErrInvalidQuantity = errors.New("quantity must be a positive whole number")
)

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Aggregator owns the session cart list. Every mutation re-reads, merges and
// writes back the full list.
type Aggregator struct {
	store    lineitem.Store
	products productRepo
	logger   *zap.Logger
}

func New(store lineitem.Store, products productRepo, logger *zap.Logger) *Aggregator {
	return &Aggregator{store: store, products: products, logger: logging.OrNop(logger)}
}

// AddInput is the add-to-cart request of a product page.
type AddInput struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"qty"`
}

// Priced is a resolved cart together with its totals.
type Priced struct {
	Lines  []pricing.Line
	Totals pricing.Totals
}

// Load returns the merged cart. It does not write the merged list back.
func (a *Aggregator) Load(ctx context.Context, session string) ([]domain.LineItem, error) {
	raw, err := lineitem.Items(ctx, a.store, session, lineitem.KeyCart)
	if err != nil {
		return nil, err
	}
	return Merge(raw), nil
}

// Add looks the product up and adds it to the cart.
func (a *Aggregator) Add(ctx context.Context, session string, in AddInput) ([]domain.LineItem, error) {
	id := strings.TrimSpace(in.ProductID)
	if id == "" {
		return nil, domain.Invalid("productId", "required")
	}
	product, err := a.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.AddOrIncrement(ctx, session, *product, in.Size, in.Color, in.Quantity)
}

// AddOrIncrement bumps the matching line by qty or appends a new one.
func (a *Aggregator) AddOrIncrement(ctx context.Context, session string, product domain.Product, size, color string, qty int) ([]domain.LineItem, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	if err := checkVariant(product, size, color); err != nil {
		return nil, err
	}
	items, err := a.Load(ctx, session)
	if err != nil {
		return nil, err
	}

	key := domain.LineKey{ProductID: product.ID, Size: size, Color: color}
	if i := find(items, key); i >= 0 {
		items[i].Quantity += qty
	} else {
		items = append(items, domain.LineItem{ProductID: product.ID, Size: size, Color: color, Quantity: qty})
	}
	return items, a.persist(ctx, session, items)
}

// SetQuantity replaces the quantity of one line.
func (a *Aggregator) SetQuantity(ctx context.Context, session string, key domain.LineKey, qty int) ([]domain.LineItem, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	items, err := a.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	i := find(items, key)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	items[i].Quantity = qty
	return items, a.persist(ctx, session, items)
}

// Remove drops one line. Unknown keys are ignored.
func (a *Aggregator) Remove(ctx context.Context, session string, key domain.LineKey) ([]domain.LineItem, error) {
	items, err := a.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, it := range items {
		if it.Key() != key {
			kept = append(kept, it)
		}
	}
	return kept, a.persist(ctx, session, kept)
}

// Clear empties the cart along with the promo state; the wishlist is untouched.
func (a *Aggregator) Clear(ctx context.Context, session string) error {
	if err := lineitem.SetItems(ctx, a.store, session, lineitem.KeyCart, nil); err != nil {
		return err
	}
	return a.store.Delete(ctx, session, lineitem.KeyPromoCode, lineitem.KeyPromoDiscount)
}

// Resolve joins lines with their catalog records. Lines whose product no
// longer exists are skipped.
func (a *Aggregator) Resolve(ctx context.Context, items []domain.LineItem) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		p, err := a.products.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.logger.Debug("cart: skipping dangling line", zap.String("product_id", it.ProductID))
				continue
			}
			return nil, err
		}
		lines = append(lines, pricing.Line{Item: it, Product: *p})
	}
	return lines, nil
}

// Price loads, resolves and prices the cart with the stored promo code.
func (a *Aggregator) Price(ctx context.Context, session string, method pricing.PaymentMethod) (*Priced, error) {
	items, err := a.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	lines, err := a.Resolve(ctx, items)
	if err != nil {
		return nil, err
	}
	code, err := lineitem.GetString(ctx, a.store, session, lineitem.KeyPromoCode)
	if err != nil {
		return nil, err
	}
	return &Priced{Lines: lines, Totals: pricing.Compute(lines, code, method)}, nil
}

// ApplyPromo stores the code and the discount it yields on the current
// subtotal. Unknown codes store a zero discount.
func (a *Aggregator) ApplyPromo(ctx context.Context, session, code string) (*Priced, error) {
	code = strings.TrimSpace(code)
	items, err := a.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	lines, err := a.Resolve(ctx, items)
	if err != nil {
		return nil, err
	}
	discount := pricing.PromoDiscount(code, pricing.Subtotal(lines))
	if err := lineitem.SetString(ctx, a.store, session, lineitem.KeyPromoCode, code); err != nil {
		return nil, err
	}
	if err := lineitem.SetString(ctx, a.store, session, lineitem.KeyPromoDiscount, discount.String()); err != nil {
		return nil, err
	}
	return &Priced{Lines: lines, Totals: pricing.Compute(lines, code, pricing.CreditCard)}, nil
}

func (a *Aggregator) persist(ctx context.Context, session string, items []domain.LineItem) error {
	if err := lineitem.SetItems(ctx, a.store, session, lineitem.KeyCart, items); err != nil {
		a.logger.Error("cart: persist", zap.String("session", session), zap.Error(err))
		return err
	}
	return nil
}

func checkVariant(p domain.Product, size, color string) error {
	if (len(p.Sizes) > 0 && size == "") || (len(p.Colors) > 0 && color == "") {
		return ErrVariantRequired
	}
	if (size != "" && !p.HasSize(size)) || (color != "" && !p.HasColor(color)) {
		return ErrInvalidVariant
	}
	return nil
}
