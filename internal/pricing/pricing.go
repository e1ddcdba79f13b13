// Package pricing derives order totals from resolved cart lines. Every function
// is pure; amounts stay unrounded until they are presented.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// PromoCode is the only recognised promotion.
const PromoCode = "DISCOUNT10"

var (
	promoRate      = decimal.RequireFromString("0.10")
	DeliveryFee    = decimal.NewFromInt(15)
	CODHandlingFee = decimal.NewFromInt(5)
)

// PaymentMethod is recorded with the order; it is never verified.
type PaymentMethod string

const (
	CreditCard PaymentMethod = "CreditCard"
	PayPal     PaymentMethod = "PayPal"
	COD        PaymentMethod = "COD"
)

// ParsePaymentMethod accepts the three supported methods. An empty value means
// the default card payment.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.TrimSpace(s)) {
	case "", CreditCard:
		return CreditCard, nil
	case PayPal:
		return PayPal, nil
	case COD:
		return COD, nil
	}
	return "", domain.Invalid("paymentMethod", "unsupported payment method %q", s)
}

// Line is a cart entry joined with its catalog record.
type Line struct {
	Item    domain.LineItem
	Product domain.Product
}

func (l Line) qty() decimal.Decimal {
	return decimal.NewFromInt(int64(l.Item.Quantity))
}

// Totals is the full breakdown shown at cart and checkout.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	PromoCode     string          `json:"promoCode,omitempty"`
	PromoDiscount decimal.Decimal `json:"promoDiscount"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	HandlingFee   decimal.Decimal `json:"handlingFee"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Total         decimal.Decimal `json:"total"`
}

// Subtotal sums base price times quantity; catalog discounts are reported separately.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Product.Price.Mul(l.qty()))
	}
	return sum
}

// DiscountTotal sums the absolute per-unit catalog discount times quantity.
func DiscountTotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Product.UnitDiscount().Mul(l.qty()))
	}
	return sum
}

// PromoDiscount is 10% of subtotal for the recognised code and zero otherwise.
// Matching is case-sensitive.
func PromoDiscount(code string, subtotal decimal.Decimal) decimal.Decimal {
	if code != PromoCode {
		return decimal.Zero
	}
	return subtotal.Mul(promoRate)
}

// HandlingFee is the cash-on-delivery surcharge.
func HandlingFee(method PaymentMethod) decimal.Decimal {
	if method == COD {
		return CODHandlingFee
	}
	return decimal.Zero
}

// Compute builds the totals for lines. An empty cart costs the delivery fee.
func Compute(lines []Line, promoCode string, method PaymentMethod) Totals {
	if method == "" {
		method = CreditCard
	}
	subtotal := Subtotal(lines)
	discount := DiscountTotal(lines)
	promo := PromoDiscount(promoCode, subtotal)
	handling := HandlingFee(method)

	t := Totals{
		Subtotal:      subtotal,
		Discount:      discount,
		PromoDiscount: promo,
		DeliveryFee:   DeliveryFee,
		HandlingFee:   handling,
		PaymentMethod: method,
		Total:         subtotal.Sub(discount).Sub(promo).Add(DeliveryFee).Add(handling),
	}
	if promoCode == PromoCode {
		t.PromoCode = promoCode
	}
	return t
}

// Money renders an amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (t Totals) String() string {
	return fmt.Sprintf("subtotal=%s discount=%s promo=%s delivery=%s handling=%s total=%s",
		Money(t.Subtotal), Money(t.Discount), Money(t.PromoDiscount),
		Money(t.DeliveryFee), Money(t.HandlingFee), Money(t.Total))
}
