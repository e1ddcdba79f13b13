package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingInfo is the contact and delivery data captured at checkout.
type ShippingInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// Order records a placed order in the catalog store.
type Order struct {
	ID            string
	Number        string
	UserID        string
	PaymentMethod string
	PromoCode     string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	PromoDiscount decimal.Decimal
	DeliveryFee   decimal.Decimal
	HandlingFee   decimal.Decimal
	Total         decimal.Decimal
	Shipping      ShippingInfo
	Lines         []OrderLine
	CreatedAt     time.Time
}

// OrderLine is one purchased line of an order.
type OrderLine struct {
	ProductID string
	Title     string
	Size      string
	Color     string
	Quantity  int
	UnitPrice decimal.Decimal
}
