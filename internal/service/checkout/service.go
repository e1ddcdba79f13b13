package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/domain"
	"storefront/internal/lineitem"
	"storefront/internal/logging"
	"storefront/internal/pricing"
	"storefront/internal/service/account"
	"storefront/internal/service/cart"
)

var (
	ErrLoginRequired        = errors.New("please log in to place your order")
	ErrEmptyCart            = errors.New("your cart is empty")
	ErrSubmissionInProgress = errors.New("order submission already in progress")
	ErrTemporary            = errors.New("something went wrong, please try again")
)

type cartService interface {
	Price(ctx context.Context, session string, method pricing.PaymentMethod) (*cart.Priced, error)
	Clear(ctx context.Context, session string) error
}

type accountService interface {
	Login(ctx context.Context, session, email, password string) (*domain.User, error)
	IsAuthenticated(ctx context.Context, session string) (bool, error)
	CurrentUser(ctx context.Context, session string) (*domain.User, error)
	SyncShadow(ctx context.Context, session, userID string) error
}

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

// Line is a priced cart line as shown at checkout and on the confirmation page.
type Line struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"qty,string"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
}

// Summary is the pending checkout view.
type Summary struct {
	State  State          `json:"state"`
	Lines  []Line         `json:"lines"`
	Totals pricing.Totals `json:"totals"`
}

// Snapshot is the placed order handed to the confirmation page.
type Snapshot struct {
	Number   string              `json:"number"`
	Lines    []Line              `json:"lines"`
	Totals   pricing.Totals      `json:"totals"`
	Shipping domain.ShippingInfo `json:"shipping"`
	PlacedAt time.Time           `json:"placedAt"`
}

type Service struct {
	cart      cartService
	accounts  accountService
	orders    orderRepo
	store     lineitem.Store
	logger    *zap.Logger
	imageHost string
	group     singleflight.Group
	now       func() time.Time
	newNumber func() string
}

// New wires the checkout. orders may be nil, in which case placed orders are
// only kept in the session.
func New(c cartService, accounts accountService, orders orderRepo, store lineitem.Store, imageHost string, logger *zap.Logger) *Service {
	return &Service{
		cart:      c,
		accounts:  accounts,
		orders:    orders,
		store:     store,
		logger:    logging.OrNop(logger),
		imageHost: imageHost,
		now:       time.Now,
		newNumber: orderNumber,
	}
}

// Summary prices the cart for the chosen payment method and keeps a copy
// under the pending checkout key.
func (s *Service) Summary(ctx context.Context, session string, method pricing.PaymentMethod) (*Summary, error) {
	flow, err := s.loadFlow(ctx, session)
	if err != nil {
		return nil, err
	}
	priced, err := s.cart.Price(ctx, session, method)
	if err != nil {
		return nil, err
	}
	sum := &Summary{State: flow.State(), Lines: s.lines(priced.Lines), Totals: priced.Totals}
	if err := lineitem.SetJSON(ctx, s.store, session, lineitem.KeyCheckoutData, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// Login signs the session in from the checkout prompt. Bad credentials keep
// the prompt; store failures leave the state untouched.
func (s *Service) Login(ctx context.Context, session, email, password string) (State, error) {
	flow, err := s.loadFlow(ctx, session)
	if err != nil {
		return "", err
	}
	if _, err := s.accounts.Login(ctx, session, email, password); err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			if flow.State() == StateLoginPrompt {
				_ = flow.LoginFailed()
			}
			return flow.State(), err
		}
		s.logger.Error("checkout: login", zap.String("session", session), zap.Error(err))
		return flow.State(), fmt.Errorf("%w: %v", ErrTemporary, err)
	}
	if flow.State() == StateLoginPrompt {
		_ = flow.LoginSucceeded()
		if err := s.saveFlow(ctx, session, flow); err != nil {
			return "", err
		}
	}
	return flow.State(), nil
}

// PlaceOrder runs the flow from idle to cleared. Concurrent calls for one
// session share a single placement, which outlives the caller's cancellation.
func (s *Service) PlaceOrder(ctx context.Context, session string, shipping domain.ShippingInfo, method pricing.PaymentMethod) (*Snapshot, error) {
	if err := validateShipping(&shipping); err != nil {
		return nil, err
	}
	work := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(session, func() (any, error) {
		return s.place(work, session, shipping, method)
	})
	if shared {
		s.logger.Debug("checkout: collapsed duplicate submission", zap.String("session", session))
	}
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *Service) place(ctx context.Context, session string, shipping domain.ShippingInfo, method pricing.PaymentMethod) (snap *Snapshot, err error) {
	flow, err := s.loadFlow(ctx, session)
	if err != nil {
		return nil, err
	}
	authed, err := s.accounts.IsAuthenticated(ctx, session)
	if err != nil {
		return nil, err
	}
	switch flow.State() {
	case StateSubmitting:
		return nil, ErrSubmissionInProgress
	case StatePlaced:
		if snap, ok, err := s.resume(ctx, session, flow); ok || err != nil {
			return snap, err
		}
		flow = NewFlow()
	case StateCleared:
		flow = NewFlow()
	case StateLoginPrompt:
		if !authed {
			return nil, ErrLoginRequired
		}
		_ = flow.LoginSucceeded()
	}

	priced, err := s.cart.Price(ctx, session, method)
	if err != nil {
		return nil, err
	}
	if len(priced.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	if err := flow.Submit(authed); err != nil {
		return nil, err
	}
	if err := s.saveFlow(ctx, session, flow); err != nil {
		return nil, err
	}
	if flow.State() == StateLoginPrompt {
		return nil, ErrLoginRequired
	}

	var committed, wroteDetails bool
	defer func() {
		if err != nil && !committed {
			s.release(ctx, session, wroteDetails)
		}
	}()

	user, err := s.accounts.CurrentUser(ctx, session)
	if err != nil {
		if errors.Is(err, account.ErrNotSignedIn) {
			return nil, ErrLoginRequired
		}
		return nil, err
	}

	snap = &Snapshot{
		Number:   s.newNumber(),
		Lines:    s.lines(priced.Lines),
		Totals:   priced.Totals,
		Shipping: shipping,
		PlacedAt: s.now().UTC(),
	}
	// Payment is recorded, never authorised.
	if err := flow.Place(); err != nil {
		return nil, err
	}
	wroteDetails = true
	if err := lineitem.SetJSON(ctx, s.store, session, lineitem.KeyOrderDetails, snap); err != nil {
		return nil, err
	}
	if err := s.saveFlow(ctx, session, flow); err != nil {
		return nil, err
	}
	committed = true
	s.record(ctx, user.ID, snap)

	if err := s.finish(ctx, session, user.ID, flow); err != nil {
		return nil, err
	}
	s.logger.Info("checkout: order placed",
		zap.String("number", snap.Number),
		zap.String("user_id", user.ID),
		zap.String("payment_method", string(snap.Totals.PaymentMethod)),
		zap.String("total", pricing.Money(snap.Totals.Total)),
	)
	return snap, nil
}

// resume completes a placement whose order was recorded but whose cart was
// never cleared. It reports false when there is nothing to resume.
func (s *Service) resume(ctx context.Context, session string, flow *Flow) (*Snapshot, bool, error) {
	var snap Snapshot
	ok, err := lineitem.GetJSON(ctx, s.store, session, lineitem.KeyOrderDetails, &snap)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		s.logger.Warn("checkout: placed state without order details", zap.String("session", session))
		return nil, false, nil
	}
	user, err := s.accounts.CurrentUser(ctx, session)
	if err != nil {
		if errors.Is(err, account.ErrNotSignedIn) {
			return nil, false, ErrLoginRequired
		}
		return nil, false, err
	}
	if err := s.finish(ctx, session, user.ID, flow); err != nil {
		return nil, false, err
	}
	s.logger.Info("checkout: resumed placed order", zap.String("number", snap.Number), zap.String("user_id", user.ID))
	return &snap, true, nil
}

// finish clears the cart and promo state and moves a placed flow to cleared.
func (s *Service) finish(ctx context.Context, session, userID string, flow *Flow) error {
	if err := s.cart.Clear(ctx, session); err != nil {
		return err
	}
	if err := s.accounts.SyncShadow(ctx, session, userID); err != nil {
		s.logger.Warn("checkout: sync shadow lists", zap.String("user_id", userID), zap.Error(err))
	}
	if err := s.store.Delete(ctx, session, lineitem.KeyCheckoutData); err != nil {
		return err
	}
	if err := flow.Clear(); err != nil {
		return err
	}
	return s.saveFlow(ctx, session, flow)
}

// release puts an uncommitted submission back to idle so the shopper can retry.
func (s *Service) release(ctx context.Context, session string, dropDetails bool) {
	flow := RestoreFlow(StateSubmitting)
	_ = flow.Abort()
	if err := s.saveFlow(ctx, session, flow); err != nil {
		s.logger.Error("checkout: release submission", zap.String("session", session), zap.Error(err))
	}
	if !dropDetails {
		return
	}
	if err := s.store.Delete(ctx, session, lineitem.KeyOrderDetails); err != nil {
		s.logger.Warn("checkout: drop unplaced order details", zap.String("session", session), zap.Error(err))
	}
}

// record stores the order in the catalog store. Failures are logged only.
func (s *Service) record(ctx context.Context, userID string, snap *Snapshot) {
	if s.orders == nil {
		return
	}
	o := domain.Order{
		Number:        snap.Number,
		UserID:        userID,
		PaymentMethod: string(snap.Totals.PaymentMethod),
		PromoCode:     snap.Totals.PromoCode,
		Subtotal:      snap.Totals.Subtotal,
		Discount:      snap.Totals.Discount,
		PromoDiscount: snap.Totals.PromoDiscount,
		DeliveryFee:   snap.Totals.DeliveryFee,
		HandlingFee:   snap.Totals.HandlingFee,
		Total:         snap.Totals.Total,
		Shipping:      snap.Shipping,
	}
	for _, l := range snap.Lines {
		o.Lines = append(o.Lines, domain.OrderLine{
			ProductID: l.ProductID,
			Title:     l.Title,
			Size:      l.Size,
			Color:     l.Color,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	if _, err := s.orders.Create(ctx, o); err != nil {
		s.logger.Error("checkout: record order", zap.String("number", snap.Number), zap.Error(err))
	}
}

// Confirmation hands out the last placed order once.
func (s *Service) Confirmation(ctx context.Context, session string) (*Snapshot, error) {
	flow, err := s.loadFlow(ctx, session)
	if err != nil {
		return nil, err
	}
	if flow.State() == StatePlaced {
		return nil, domain.ErrNotFound
	}
	var snap Snapshot
	ok, err := lineitem.GetJSON(ctx, s.store, session, lineitem.KeyOrderDetails, &snap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := s.store.Delete(ctx, session, lineitem.KeyOrderDetails); err != nil {
		return nil, err
	}
	return &snap, nil
}

// History lists the orders recorded for the signed-in account, newest first.
func (s *Service) History(ctx context.Context, session string) ([]domain.Order, error) {
	u, err := s.accounts.CurrentUser(ctx, session)
	if err != nil {
		return nil, err
	}
	if s.orders == nil {
		return []domain.Order{}, nil
	}
	return s.orders.ListByUser(ctx, u.ID)
}

func (s *Service) loadFlow(ctx context.Context, session string) (*Flow, error) {
	raw, err := lineitem.GetString(ctx, s.store, session, lineitem.KeyCheckoutState)
	if err != nil {
		return nil, err
	}
	return RestoreFlow(State(raw)), nil
}

func (s *Service) saveFlow(ctx context.Context, session string, f *Flow) error {
	return lineitem.SetString(ctx, s.store, session, lineitem.KeyCheckoutState, string(f.State()))
}

func (s *Service) lines(in []pricing.Line) []Line {
	out := make([]Line, 0, len(in))
	for _, l := range in {
		out = append(out, Line{
			ProductID: l.Product.ID,
			Title:     l.Product.Title,
			Image:     domain.ImageURL(s.imageHost, l.Product.Image),
			Size:      l.Item.Size,
			Color:     l.Item.Color,
			Quantity:  l.Item.Quantity,
			UnitPrice: l.Product.Price,
			SalePrice: l.Product.SalePrice(),
		})
	}
	return out
}

func validateShipping(in *domain.ShippingInfo) error {
	fields := []struct {
		name string
		val  *string
	}{
		{"name", &in.Name},
		{"email", &in.Email},
		{"phone", &in.Phone},
		{"address", &in.Address},
		{"city", &in.City},
		{"postalCode", &in.PostalCode},
	}
	for _, f := range fields {
		*f.val = strings.TrimSpace(*f.val)
		if *f.val == "" {
			return domain.Invalid(f.name, "required")
		}
	}
	if !strings.Contains(in.Email, "@") {
		return domain.Invalid("email", "is not a valid address")
	}
	return nil
}

func orderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:12])
}
