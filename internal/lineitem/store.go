// Package lineitem holds the per-session key/value state of a shopper: the cart
// and wishlist lists, promo state, pending checkout data and the session flag.
package lineitem

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/domain"
)

// Key names one value in a session.
type Key string

const (
	KeyCart          Key = "cart"
	KeyWishlist      Key = "wishlist"
	KeyPromoCode     Key = "promoCode"
	KeyPromoDiscount Key = "promoDiscount"
	KeyCheckoutData  Key = "checkoutData"
	KeyCheckoutState Key = "checkoutState"
	KeyOrderDetails  Key = "orderDetails"
	KeyUserToken     Key = "userToken"
	KeyUserID        Key = "userID"
	KeyUsername      Key = "username"
)

// Change is published to subscribers after every write.
type Change struct {
	Key     Key  `json:"key"`
	Deleted bool `json:"deleted,omitempty"`
}

// Store persists raw session values. Writes replace the whole value.
type Store interface {
	Get(ctx context.Context, session string, key Key) ([]byte, bool, error)
	Set(ctx context.Context, session string, key Key, value []byte) error
	Delete(ctx context.Context, session string, keys ...Key) error
	// Subscribe streams changes for session until ctx is cancelled.
	Subscribe(ctx context.Context, session string) (<-chan Change, error)
}

// GetJSON decodes the value under key into v. It reports false when the key is unset.
func GetJSON(ctx context.Context, s Store, session string, key Key, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, session, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, session string, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, session, key, raw)
}

// GetString returns a plain string value, empty when unset.
func GetString(ctx context.Context, s Store, session string, key Key) (string, error) {
	raw, _, err := s.Get(ctx, session, key)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SetString stores a plain string value.
func SetString(ctx context.Context, s Store, session string, key Key, value string) error {
	return s.Set(ctx, session, key, []byte(value))
}

// Items reads a cart or wishlist list as persisted, duplicates included.
func Items(ctx context.Context, s Store, session string, key Key) ([]domain.LineItem, error) {
	var items []domain.LineItem
	if _, err := GetJSON(ctx, s, session, key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.LineItem{}
	}
	return items, nil
}

// SetItems persists a full cart or wishlist list.
func SetItems(ctx context.Context, s Store, session string, key Key, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}
	return SetJSON(ctx, s, session, key, items)
}
