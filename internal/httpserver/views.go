package httpserver

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/service/checkout"
)

type productView struct {
	ID        string   `json:"id"`
	StoreID   string   `json:"storeId"`
	Title     string   `json:"title"`
	Gender    string   `json:"gender,omitempty"`
	Type      string   `json:"type,omitempty"`
	Price     string   `json:"price"`
	Discount  string   `json:"discount,omitempty"`
	SalePrice string   `json:"salePrice"`
	Qty       int      `json:"qty"`
	Colors    []string `json:"colors"`
	Sizes     []string `json:"sizes"`
	Image     string   `json:"image,omitempty"`
	Images    []string `json:"images"`
	Details   string   `json:"details,omitempty"`
	Tags      []string `json:"tags"`
	Rate      string   `json:"rate,omitempty"`
	Reviews   int      `json:"reviews"`
	IsNew     bool     `json:"isNew"`
}

type productListResponse struct {
	Count   int           `json:"count"`
	Results []productView `json:"results"`
}

func toProductView(p domain.Product, imageHost string) productView {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, domain.ImageURL(imageHost, img))
	}
	v := productView{
		ID:        p.ID,
		StoreID:   p.StoreID,
		Title:     p.Title,
		Gender:    p.Gender,
		Type:      p.Type,
		Price:     pricing.Money(p.Price),
		SalePrice: pricing.Money(p.SalePrice()),
		Qty:       p.Quantity,
		Colors:    nonNil(p.Colors),
		Sizes:     nonNil(p.Sizes),
		Image:     domain.ImageURL(imageHost, p.Image),
		Images:    images,
		Details:   p.Details,
		Tags:      nonNil(p.Tags),
		Rate:      p.Rating,
		Reviews:   p.Reviews,
		IsNew:     p.IsNew,
	}
	if p.HasDiscount() {
		v.Discount = p.DiscountPercent.String()
	}
	return v
}

type lineView struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Image     string `json:"image,omitempty"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unitPrice"`
	SalePrice string `json:"salePrice"`
	LineTotal string `json:"lineTotal"`
}

type totalsView struct {
	Subtotal      string `json:"subtotal"`
	Discount      string `json:"discount"`
	PromoCode     string `json:"promoCode,omitempty"`
	PromoDiscount string `json:"promoDiscount"`
	DeliveryFee   string `json:"deliveryFee"`
	HandlingFee   string `json:"handlingFee"`
	PaymentMethod string `json:"paymentMethod"`
	Total         string `json:"total"`
}

type cartView struct {
	Lines    []lineView `json:"lines"`
	ItemQty  int        `json:"itemQty"`
	Totals   totalsView `json:"totals"`
	Subtitle string     `json:"subtitle,omitempty"`
}

func toTotalsView(t pricing.Totals) totalsView {
	return totalsView{
		Subtotal:      pricing.Money(t.Subtotal),
		Discount:      pricing.Money(t.Discount),
		PromoCode:     t.PromoCode,
		PromoDiscount: pricing.Money(t.PromoDiscount),
		DeliveryFee:   pricing.Money(t.DeliveryFee),
		HandlingFee:   pricing.Money(t.HandlingFee),
		PaymentMethod: string(t.PaymentMethod),
		Total:         pricing.Money(t.Total),
	}
}

func toLineViews(lines []pricing.Line, imageHost string) []lineView {
	out := make([]lineView, 0, len(lines))
	for _, l := range lines {
		sale := l.Product.SalePrice()
		out = append(out, lineView{
			ProductID: l.Product.ID,
			Title:     l.Product.Title,
			Image:     domain.ImageURL(imageHost, l.Product.Image),
			Size:      l.Item.Size,
			Color:     l.Item.Color,
			Qty:       l.Item.Quantity,
			UnitPrice: pricing.Money(l.Product.Price),
			SalePrice: pricing.Money(sale),
			LineTotal: pricing.Money(sale.Mul(decimalQty(l.Item.Quantity))),
		})
	}
	return out
}

func toCartView(lines []pricing.Line, totals pricing.Totals, imageHost string) cartView {
	qty := 0
	for _, l := range lines {
		qty += l.Item.Quantity
	}
	v := cartView{
		Lines:   toLineViews(lines, imageHost),
		ItemQty: qty,
		Totals:  toTotalsView(totals),
	}
	if len(lines) == 0 {
		v.Subtitle = "Your cart is empty"
	}
	return v
}

type wishlistView struct {
	Lines []lineView `json:"lines"`
}

type checkoutLineView struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Image     string `json:"image,omitempty"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unitPrice"`
	SalePrice string `json:"salePrice"`
}

func toCheckoutLines(lines []checkout.Line) []checkoutLineView {
	out := make([]checkoutLineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, checkoutLineView{
			ProductID: l.ProductID,
			Title:     l.Title,
			Image:     l.Image,
			Size:      l.Size,
			Color:     l.Color,
			Qty:       l.Quantity,
			UnitPrice: pricing.Money(l.UnitPrice),
			SalePrice: pricing.Money(l.SalePrice),
		})
	}
	return out
}

type checkoutView struct {
	State  string             `json:"state"`
	Lines  []checkoutLineView `json:"lines"`
	Totals totalsView         `json:"totals"`
}

func toCheckoutView(s *checkout.Summary) checkoutView {
	return checkoutView{
		State:  string(s.State),
		Lines:  toCheckoutLines(s.Lines),
		Totals: toTotalsView(s.Totals),
	}
}

type orderView struct {
	Number   string              `json:"number"`
	Lines    []checkoutLineView  `json:"lines"`
	Totals   totalsView          `json:"totals"`
	Shipping domain.ShippingInfo `json:"shipping"`
	PlacedAt time.Time           `json:"placedAt"`
}

func toOrderView(s *checkout.Snapshot) orderView {
	return orderView{
		Number:   s.Number,
		Lines:    toCheckoutLines(s.Lines),
		Totals:   toTotalsView(s.Totals),
		Shipping: s.Shipping,
		PlacedAt: s.PlacedAt,
	}
}

type orderSummaryView struct {
	Number        string    `json:"number"`
	PaymentMethod string    `json:"paymentMethod"`
	Items         int       `json:"items"`
	Total         string    `json:"total"`
	PlacedAt      time.Time `json:"placedAt"`
}

func toOrderSummaries(orders []domain.Order) []orderSummaryView {
	out := make([]orderSummaryView, 0, len(orders))
	for _, o := range orders {
		items := 0
		for _, l := range o.Lines {
			items += l.Quantity
		}
		out = append(out, orderSummaryView{
			Number:        o.Number,
			PaymentMethod: o.PaymentMethod,
			Items:         items,
			Total:         pricing.Money(o.Total),
			PlacedAt:      o.CreatedAt,
		})
	}
	return out
}

type userView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	City      string     `json:"city,omitempty"`
	Postal    string     `json:"postal,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type userResponse struct {
	User userView `json:"user"`
}

func toUserView(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Address:   u.Address,
		City:      u.City,
		Postal:    u.Postal,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

func decimalQty(q int) decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
