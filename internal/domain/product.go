package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product is a sellable catalog item. Price fields are normalised from their
// text form when read from the catalog store.
type Product struct {
	ID              string           `json:"id"`
	StoreID         string           `json:"storeId"`
	Title           string           `json:"title"`
	Gender          string           `json:"gender,omitempty"`
	Type            string           `json:"type,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountPercent *decimal.Decimal `json:"discount,omitempty"`
	DiscountedPrice *decimal.Decimal `json:"discPrice,omitempty"`
	Quantity        int              `json:"qty"`
	Colors          []string         `json:"colors"`
	Sizes           []string         `json:"sizes"`
	Image           string           `json:"image,omitempty"`
	Images          []string         `json:"images,omitempty"`
	Details         string           `json:"details,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	Rating          string           `json:"rate,omitempty"`
	Reviews         int              `json:"reviews"`
	IsNew           bool             `json:"isNew"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// HasDiscount reports whether a discount is present on the record.
func (p Product) HasDiscount() bool {
	return p.DiscountPercent != nil && p.DiscountPercent.IsPositive()
}

// UnitDiscount is the absolute discount for one unit. The stored discounted
// price wins when it is consistent with the base price; otherwise the amount
// is derived from the percentage.
func (p Product) UnitDiscount() decimal.Decimal {
	if !p.HasDiscount() {
		return decimal.Zero
	}
	if dp := p.DiscountedPrice; dp != nil && !dp.IsNegative() && dp.LessThanOrEqual(p.Price) {
		return p.Price.Sub(*dp)
	}
	amount := p.Price.Mul(*p.DiscountPercent).Div(hundred)
	if amount.GreaterThan(p.Price) {
		return p.Price
	}
	return amount
}

// SalePrice is the per-unit price after the catalog discount.
func (p Product) SalePrice() decimal.Decimal {
	return p.Price.Sub(p.UnitDiscount())
}

// HasSize reports whether size is one of the product's size labels.
func (p Product) HasSize(size string) bool {
	return contains(p.Sizes, size)
}

// HasColor reports whether color is one of the product's color names.
func (p Product) HasColor(color string) bool {
	return contains(p.Colors, color)
}

// ImageURL joins a relative image reference onto host. Absolute URLs and an
// empty host leave ref unchanged.
func ImageURL(host, ref string) string {
	host = strings.TrimRight(host, "/")
	if ref == "" || host == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return host + "/" + strings.TrimLeft(ref, "/")
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Type    string
	Gender  string
	Search  string
	Tag     string
	NewOnly bool
	Sort    string
	Limit   int
}

// Product sort orders.
const (
	SortNewest     = "newest"
	SortTopSelling = "top"
	SortPriceAsc   = "price_asc"
)
