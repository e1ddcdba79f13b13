package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// sampleLines is one product at 50.00 with 5.00 off per unit, qty 2.
func sampleLines() []Line {
	return []Line{{
		Item: domain.LineItem{ProductID: "p1", Size: "M", Color: "Black", Quantity: 2},
		Product: domain.Product{
			ID:              "p1",
			Price:           dec("50"),
			DiscountPercent: decPtr("10"),
			DiscountedPrice: decPtr("45"),
		},
	}}
}

func assertMoney(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if Money(got) != want {
		t.Fatalf("%s: expected %s, got %s", name, want, Money(got))
	}
}

func TestComputeWithoutPromo(t *testing.T) {
	got := Compute(sampleLines(), "", CreditCard)
	assertMoney(t, "subtotal", got.Subtotal, "100.00")
	assertMoney(t, "discount", got.Discount, "10.00")
	assertMoney(t, "promo", got.PromoDiscount, "0.00")
	assertMoney(t, "delivery", got.DeliveryFee, "15.00")
	assertMoney(t, "total", got.Total, "105.00")
}

func TestComputeWithPromo(t *testing.T) {
	got := Compute(sampleLines(), PromoCode, CreditCard)
	assertMoney(t, "promo", got.PromoDiscount, "10.00")
	assertMoney(t, "total", got.Total, "95.00")
	if got.PromoCode != PromoCode {
		t.Fatalf("expected promo code recorded, got %q", got.PromoCode)
	}
}

func TestComputeWithPromoAndCOD(t *testing.T) {
	got := Compute(sampleLines(), PromoCode, COD)
	assertMoney(t, "handling", got.HandlingFee, "5.00")
	assertMoney(t, "total", got.Total, "100.00")
}

func TestCODAddsOnlyHandlingFee(t *testing.T) {
	card := Compute(sampleLines(), PromoCode, CreditCard)
	cod := Compute(sampleLines(), PromoCode, COD)

	if !cod.Total.Sub(card.Total).Equal(dec("5")) {
		t.Fatalf("expected COD to add 5.00, got %s", cod.Total.Sub(card.Total))
	}
	if !cod.Subtotal.Equal(card.Subtotal) || !cod.Discount.Equal(card.Discount) ||
		!cod.PromoDiscount.Equal(card.PromoDiscount) || !cod.DeliveryFee.Equal(card.DeliveryFee) {
		t.Fatalf("expected only handling fee and total to differ: card=%s cod=%s", card, cod)
	}
}

func TestPromoDiscountGating(t *testing.T) {
	cases := []struct {
		code     string
		subtotal string
		want     string
	}{
		{"DISCOUNT10", "100.00", "10.00"},
		{"WRONG", "100.00", "0.00"},
		{"", "100.00", "0.00"},
		{"", "0", "0.00"},
		{"discount10", "100.00", "0.00"},
	}
	for _, tc := range cases {
		got := PromoDiscount(tc.code, dec(tc.subtotal))
		if Money(got) != tc.want {
			t.Fatalf("PromoDiscount(%q, %s): expected %s, got %s", tc.code, tc.subtotal, tc.want, Money(got))
		}
	}
}

func TestEmptyCartCostsDeliveryFee(t *testing.T) {
	got := Compute(nil, PromoCode, CreditCard)
	assertMoney(t, "subtotal", got.Subtotal, "0.00")
	assertMoney(t, "discount", got.Discount, "0.00")
	assertMoney(t, "total", got.Total, "15.00")
}

func TestComputeIsDeterministic(t *testing.T) {
	lines := sampleLines()
	a := Compute(lines, PromoCode, PayPal)
	b := Compute(lines, PromoCode, PayPal)
	if a.String() != b.String() || a.Total.String() != b.Total.String() {
		t.Fatalf("expected identical totals, got %s and %s", a, b)
	}
}

func TestRepeatedAdditionDoesNotDrift(t *testing.T) {
	lines := make([]Line, 0, 10)
	for i := 0; i < 10; i++ {
		lines = append(lines, Line{
			Item:    domain.LineItem{ProductID: "p", Quantity: 1},
			Product: domain.Product{Price: dec("0.10")},
		})
	}
	if !Subtotal(lines).Equal(dec("1")) {
		t.Fatalf("expected exact 1.00, got %s", Subtotal(lines))
	}
}

func TestDiscountFallsBackToPercentage(t *testing.T) {
	lines := []Line{{
		Item: domain.LineItem{ProductID: "p", Quantity: 3},
		Product: domain.Product{
			Price:           dec("80"),
			DiscountPercent: decPtr("25"),
			// inconsistent: above the base price
			DiscountedPrice: decPtr("120"),
		},
	}}
	assertMoney(t, "discount", DiscountTotal(lines), "60.00")
}

func TestNoDiscountWithoutPercentage(t *testing.T) {
	lines := []Line{{
		Item:    domain.LineItem{ProductID: "p", Quantity: 2},
		Product: domain.Product{Price: dec("40"), DiscountedPrice: decPtr("30")},
	}}
	assertMoney(t, "discount", DiscountTotal(lines), "0.00")
}

func TestParsePaymentMethod(t *testing.T) {
	for in, want := range map[string]PaymentMethod{"": CreditCard, "CreditCard": CreditCard, "PayPal": PayPal, " COD ": COD} {
		got, err := ParsePaymentMethod(in)
		if err != nil || got != want {
			t.Fatalf("ParsePaymentMethod(%q): expected %s, got %s err=%v", in, want, got, err)
		}
	}
	if _, err := ParsePaymentMethod("Bitcoin"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
