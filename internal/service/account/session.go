package account

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/lineitem"
)

// ErrNotSignedIn is returned for sessions without a valid sign-in flag.
var ErrNotSignedIn = errors.New("not signed in")

const signedIn = "logged-in"

// SignIn sets the session flag and caches the account identity.
func (s *Service) SignIn(ctx context.Context, session string, u *domain.User) error {
	if err := lineitem.SetString(ctx, s.store, session, lineitem.KeyUserToken, signedIn); err != nil {
		return err
	}
	if err := lineitem.SetString(ctx, s.store, session, lineitem.KeyUserID, u.ID); err != nil {
		return err
	}
	return lineitem.SetString(ctx, s.store, session, lineitem.KeyUsername, u.Username)
}

// SignOut clears the flag. Cart and wishlist stay with the session.
func (s *Service) SignOut(ctx context.Context, session string) error {
	return s.store.Delete(ctx, session, lineitem.KeyUserToken, lineitem.KeyUserID, lineitem.KeyUsername)
}

// IsAuthenticated reports whether the session flag is present.
func (s *Service) IsAuthenticated(ctx context.Context, session string) (bool, error) {
	token, err := lineitem.GetString(ctx, s.store, session, lineitem.KeyUserToken)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// CurrentUser resolves the signed-in account. A flag pointing at a deleted
// account is cleared.
func (s *Service) CurrentUser(ctx context.Context, session string) (*domain.User, error) {
	ok, err := s.IsAuthenticated(ctx, session)
	if err != nil {
		return nil, err
	}
	id, err := lineitem.GetString(ctx, s.store, session, lineitem.KeyUserID)
	if err != nil {
		return nil, err
	}
	if !ok || id == "" {
		return nil, ErrNotSignedIn
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.SignOut(ctx, session)
			return nil, ErrNotSignedIn
		}
		return nil, err
	}
	return u, nil
}

// SyncShadow copies the session cart and wishlist product ids onto the account.
// The session lists stay authoritative; the account copy is never read back.
func (s *Service) SyncShadow(ctx context.Context, session, userID string) error {
	cart, err := lineitem.Items(ctx, s.store, session, lineitem.KeyCart)
	if err != nil {
		return err
	}
	wish, err := lineitem.Items(ctx, s.store, session, lineitem.KeyWishlist)
	if err != nil {
		return err
	}
	_, err = s.repo.Update(ctx, userID, domain.UserPatch{
		CartItems: productIDs(cart),
		WishItems: productIDs(wish),
	})
	return err
}

func productIDs(items []domain.LineItem) []string {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
