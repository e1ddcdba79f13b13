// Package anonymous issues the opaque session ids that scope a shopper's cart,
// wishlist and sign-in flag before and after login.
package anonymous

import (
	"strings"

	"github.com/google/uuid"
)

// Service issues and checks session ids.
type Service struct {
	newID func() uuid.UUID
}

func New() *Service {
	return &Service{newID: uuid.New}
}

// Issue returns a fresh random session id.
func (s *Service) Issue() string {
	return s.newID().String()
}

// Valid reports whether id looks like an id this service issued. Anything
// else is replaced rather than trusted as a store key.
func (s *Service) Valid(id string) bool {
	id = strings.TrimSpace(id)
	if len(id) != 36 {
		return false
	}
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.Version() == 4
}
