package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestUnitDiscount(t *testing.T) {
	cases := []struct {
		name string
		p    Product
		want string
	}{
		{"no discount", Product{Price: *dec("50")}, "0"},
		{"zero percent", Product{Price: *dec("50"), DiscountPercent: dec("0"), DiscountedPrice: dec("40")}, "0"},
		{"stored price", Product{Price: *dec("260"), DiscountPercent: dec("20"), DiscountedPrice: dec("208")}, "52"},
		{"derived from percent", Product{Price: *dec("50"), DiscountPercent: dec("10")}, "5"},
		{"inconsistent stored price", Product{Price: *dec("50"), DiscountPercent: dec("10"), DiscountedPrice: dec("70")}, "5"},
		{"capped at price", Product{Price: *dec("50"), DiscountPercent: dec("150")}, "50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.UnitDiscount(); !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("UnitDiscount() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestImageURL(t *testing.T) {
	cases := map[string]struct{ host, ref, want string }{
		"relative":      {"https://cdn.example.com/", "/images/a.png", "https://cdn.example.com/images/a.png"},
		"absolute":      {"https://cdn.example.com", "https://other/a.png", "https://other/a.png"},
		"empty host":    {"", "images/a.png", "images/a.png"},
		"empty ref":     {"https://cdn.example.com", "", ""},
		"no slash join": {"https://cdn.example.com", "a.png", "https://cdn.example.com/a.png"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ImageURL(tc.host, tc.ref); got != tc.want {
				t.Fatalf("ImageURL(%q, %q) = %q, want %q", tc.host, tc.ref, got, tc.want)
			}
		})
	}
}
