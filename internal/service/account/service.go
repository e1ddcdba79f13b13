package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/lineitem"
	"storefront/internal/logging"
	userrepo "storefront/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email is already registered")
)

// Service handles signup, login and profile updates.
type Service struct {
	repo        userrepo.Repository
	store       lineitem.Store
	logger      *zap.Logger
	passwordMin int
	hashCost    int
	now         func() time.Time

	dummyOnce sync.Once
	dummy     []byte
}

// New creates a Service with sane defaults.
func New(repo userrepo.Repository, store lineitem.Store, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		store:       store,
		logger:      logging.OrNop(logger),
		passwordMin: 8,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
	}
}

// RegisterInput captures the signup form.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName"`
}

// ProfilePatch carries dashboard edits; nil fields stay unchanged.
type ProfilePatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	Postal   *string `json:"postal"`
}

// Register creates an account after checking the form and uniqueness of
// username and email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email, err := normaliseEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password, s.passwordMin); err != nil {
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, domain.Invalid("confirmPassword", "passwords do not match")
	}
	if err := s.ensureUsernameFree(ctx, username, ""); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     strings.TrimSpace(in.FullName),
		CartItems:    []string{},
		WishItems:    []string{},
	})
	if err != nil {
		return nil, conflict(err)
	}
	s.logger.Info("account: registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Authenticate matches email and password. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if updated, err := s.repo.Update(ctx, u.ID, domain.UserPatch{LastLogin: &now}); err != nil {
		s.logger.Warn("account: stamp last login", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u = updated
	}
	return u, nil
}

// Login authenticates and marks the session as signed in.
func (s *Service) Login(ctx context.Context, session, email, password string) (*domain.User, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.SignIn(ctx, session, u); err != nil {
		return nil, err
	}
	if err := s.SyncShadow(ctx, session, u.ID); err != nil {
		s.logger.Warn("account: sync shadow lists", zap.String("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

// Get returns the account for the dashboard.
func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile applies a partial update and returns the merged record.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfilePatch) (*domain.User, error) {
	var patch domain.UserPatch
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		if err := s.ensureUsernameFree(ctx, username, userID); err != nil {
			return nil, err
		}
		patch.Username = &username
	}
	if in.Email != nil {
		email, err := normaliseEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		if err := s.ensureEmailFree(ctx, email, userID); err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password, s.passwordMin); err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.hashCost)
		if err != nil {
			return nil, err
		}
		h := string(hashed)
		patch.PasswordHash = &h
	}
	patch.FullName = trimmed(in.FullName)
	patch.Phone = trimmed(in.Phone)
	patch.Address = trimmed(in.Address)
	patch.City = trimmed(in.City)
	patch.Postal = trimmed(in.Postal)

	u, err := s.repo.Update(ctx, userID, patch)
	if err != nil {
		return nil, conflict(err)
	}
	return u, nil
}

func (s *Service) ensureUsernameFree(ctx context.Context, username, self string) error {
	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return ErrUsernameTaken
	}
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, self string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return ErrEmailTaken
	}
	return nil
}

// conflict maps a unique violation raised by a concurrent writer.
func conflict(err error) error {
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	if strings.Contains(err.Error(), "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

// dummyHash is compared against for unknown emails. It shares the cost of
// real hashes so both paths take the same time.
func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("storefront-placeholder"), s.hashCost)
	})
	return s.dummy
}

func validateUsername(u string) error {
	n := utf8.RuneCountInString(u)
	if n < 3 || n > 20 {
		return domain.Invalid("username", "must be between 3 and 20 characters")
	}
	if strings.ContainsAny(u, " \t\n") {
		return domain.Invalid("username", "must not contain spaces")
	}
	return nil
}

func normaliseEmail(e string) (string, error) {
	e = strings.ToLower(strings.TrimSpace(e))
	if e == "" {
		return "", domain.Invalid("email", "required")
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return "", domain.Invalid("email", "is not a valid address")
	}
	return e, nil
}

func validatePassword(p string, min int) error {
	if utf8.RuneCountInString(p) < min {
		return domain.Invalid("password", "must be at least %d characters", min)
	}
	if strings.TrimSpace(p) == "" {
		return domain.Invalid("password", "must not be blank")
	}
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
