package newsletter

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	newsletterrepo "storefront/internal/repository/newsletter"
)

var ErrAlreadySubscribed = errors.New("this email is already subscribed")

type Service struct {
	repo   newsletterrepo.Repository
	logger *zap.Logger
}

func New(repo newsletterrepo.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrNop(logger)}
}

func (s *Service) Subscribe(ctx context.Context, email string) (*newsletterrepo.Subscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, domain.Invalid("email", "is not a valid address")
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	sub, err := s.repo.Create(ctx, email)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, ErrAlreadySubscribed
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("newsletter: subscribed", zap.String("email", email))
	return sub, nil
}
