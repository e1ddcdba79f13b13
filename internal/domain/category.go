package domain

import "time"

// Category is a browsable product type, e.g. "t-shirt" or "hoodies".
type Category struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
