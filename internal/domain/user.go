package domain

import "time"

// User is a storefront account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"fullName,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	City         string     `json:"city,omitempty"`
	Postal       string     `json:"postal,omitempty"`
	CartItems    []string   `json:"cartItems"`
	WishItems    []string   `json:"wishItems"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// UserPatch lists the mutable user fields; nil means unchanged.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	FullName     *string
	Phone        *string
	Address      *string
	City         *string
	Postal       *string
	CartItems    []string
	WishItems    []string
	LastLogin    *time.Time
}
