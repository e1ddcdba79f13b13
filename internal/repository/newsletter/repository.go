package newsletter

import (
	"context"
	"time"
)

// Subscription is one newsletter sign-up.
type Subscription struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Subscription, error)
	Create(ctx context.Context, email string) (*Subscription, error)
}
