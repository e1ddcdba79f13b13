package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/lineitem"
)

type staticFeed struct {
	changes []lineitem.Change
}

func (f staticFeed) Subscribe(context.Context, string) (<-chan lineitem.Change, error) {
	ch := make(chan lineitem.Change, len(f.changes))
	for _, c := range f.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func TestCartLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec, sid := env.do(t, http.MethodPost, "/api/cart/items", "", `{"productId":"p-tee","size":"M","color":"Black","qty":2}`)
	expectStatus(t, rec, http.StatusCreated)

	var view cartView
	decodeBody(t, rec, &view)
	if len(view.Lines) != 1 || view.ItemQty != 2 {
		t.Fatalf("unexpected cart %+v", view)
	}
	if view.Lines[0].Image != "https://cdn.example.com/images/tee.png" || view.Lines[0].LineTotal != "90.00" {
		t.Fatalf("unexpected line %+v", view.Lines[0])
	}
	if view.Totals.Subtotal != "100.00" || view.Totals.Discount != "10.00" || view.Totals.Total != "105.00" {
		t.Fatalf("unexpected totals %+v", view.Totals)
	}

	rec, _ = env.do(t, http.MethodPost, "/api/cart/promo", sid, `{"code":"DISCOUNT10"}`)
	expectStatus(t, rec, http.StatusOK)

	rec, _ = env.do(t, http.MethodGet, "/api/cart?paymentMethod=COD", sid, "")
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &view)
	if view.Totals.PromoCode != "DISCOUNT10" || view.Totals.HandlingFee != "5.00" || view.Totals.Total != "100.00" {
		t.Fatalf("unexpected COD totals %+v", view.Totals)
	}

	rec, _ = env.do(t, http.MethodPatch, "/api/cart/items", sid, `{"productId":"p-tee","size":"M","color":"Black","qty":3}`)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &view)
	if view.ItemQty != 3 {
		t.Fatalf("expected qty 3, got %+v", view)
	}

	rec, _ = env.do(t, http.MethodDelete, "/api/cart/items?productId=p-tee&size=M&color=Black", sid, "")
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &view)
	if len(view.Lines) != 0 || view.Totals.Total != "15.00" || view.Subtitle == "" {
		t.Fatalf("expected empty cart with delivery fee only, got %+v", view)
	}
}

func TestCartRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing variant", http.MethodPost, "/api/cart/items", `{"productId":"p-tee","qty":1}`, http.StatusBadRequest},
		{"unknown size", http.MethodPost, "/api/cart/items", `{"productId":"p-tee","size":"XS","color":"Black","qty":1}`, http.StatusBadRequest},
		{"zero qty", http.MethodPost, "/api/cart/items", `{"productId":"p-tee","size":"M","color":"Black","qty":0}`, http.StatusBadRequest},
		{"unknown product", http.MethodPost, "/api/cart/items", `{"productId":"nope","qty":1}`, http.StatusNotFound},
		{"malformed body", http.MethodPost, "/api/cart/items", `{`, http.StatusBadRequest},
		{"update missing line", http.MethodPatch, "/api/cart/items", `{"productId":"p-tee","size":"L","color":"Black","qty":2}`, http.StatusNotFound},
		{"delete without product", http.MethodDelete, "/api/cart/items", "", http.StatusBadRequest},
		{"bad payment method", http.MethodGet, "/api/cart?paymentMethod=Bitcoin", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := env.do(t, tc.method, tc.path, "", tc.body)
			expectStatus(t, rec, tc.status)
		})
	}
}

func TestUnknownPromoKeepsFullPrice(t *testing.T) {
	env := newTestEnv(t)
	_, sid := env.do(t, http.MethodPost, "/api/cart/items", "", `{"productId":"p-tee","size":"M","color":"Black","qty":1}`)

	rec, _ := env.do(t, http.MethodPost, "/api/cart/promo", sid, `{"code":"discount10"}`)
	expectStatus(t, rec, http.StatusOK)
	var view cartView
	decodeBody(t, rec, &view)
	if view.Totals.PromoDiscount != "0.00" || view.Totals.PromoCode != "" {
		t.Fatalf("codes are case-sensitive, got %+v", view.Totals)
	}
}

func TestWishlistHandlers(t *testing.T) {
	env := newTestEnv(t)

	rec, sid := env.do(t, http.MethodPost, "/api/wishlist/items", "", `{"productId":"p-tee","size":"L","color":"Black"}`)
	expectStatus(t, rec, http.StatusCreated)

	rec, _ = env.do(t, http.MethodPost, "/api/wishlist/items", sid, `{"productId":"p-tee","size":"L","color":"Black"}`)
	expectStatus(t, rec, http.StatusConflict)

	rec, _ = env.do(t, http.MethodPost, "/api/wishlist/items/move", sid, `{"productId":"p-tee","size":"M","color":"Black"}`)
	expectStatus(t, rec, http.StatusOK)
	var wish wishlistView
	decodeBody(t, rec, &wish)
	if len(wish.Lines) != 0 {
		t.Fatalf("expected wishlist emptied, got %+v", wish)
	}

	rec, _ = env.do(t, http.MethodGet, "/api/cart", sid, "")
	var view cartView
	decodeBody(t, rec, &view)
	if view.ItemQty != 1 || view.Lines[0].Size != "M" {
		t.Fatalf("expected moved item in cart, got %+v", view)
	}

	rec, _ = env.do(t, http.MethodDelete, "/api/wishlist/items", sid, "")
	expectStatus(t, rec, http.StatusBadRequest)
	rec, _ = env.do(t, http.MethodDelete, "/api/wishlist/items?productId=p-tee", sid, "")
	expectStatus(t, rec, http.StatusOK)
}

func TestCartEventsStreamsChanges(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Changes = staticFeed{changes: []lineitem.Change{{Key: lineitem.KeyCart}, {Key: lineitem.KeyPromoCode, Deleted: true}}}
	})

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart/events", nil))

	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if strings.Count(body, "event:change") != 2 || !strings.Contains(body, `"key":"cart"`) || !strings.Contains(body, `"deleted":true`) {
		t.Fatalf("unexpected stream %q", body)
	}
}

func TestCartEventsUnavailableWithoutFeed(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Changes = nil })
	rec, _ := env.do(t, http.MethodGet, "/api/cart/events", "", "")
	expectStatus(t, rec, http.StatusNotImplemented)
}
