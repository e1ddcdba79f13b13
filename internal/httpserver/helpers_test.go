package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/lineitem"
	newsletterrepo "storefront/internal/repository/newsletter"
	"storefront/internal/service/account"
	"storefront/internal/service/anonymous"
	"storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/service/newsletter"
)

type stubProductService struct {
	products []domain.Product
	err      error
	last     domain.ProductFilter
}

func (s *stubProductService) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	s.last = f
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id || p.StoreID == id {
			clone := p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.Get(ctx, id)
}

type stubCategoryService struct {
	categories []domain.Category
	err        error
}

func (s *stubCategoryService) List(_ context.Context) ([]domain.Category, error) {
	return s.categories, s.err
}

type stubNewsletterService struct {
	seen map[string]bool
}

func (s *stubNewsletterService) Subscribe(_ context.Context, email string) (*newsletterrepo.Subscription, error) {
	if !strings.Contains(email, "@") {
		return nil, domain.Invalid("email", "is not a valid address")
	}
	if s.seen[email] {
		return nil, newsletter.ErrAlreadySubscribed
	}
	s.seen[email] = true
	return &newsletterrepo.Subscription{Email: email}, nil
}

// stubAccountService keeps one registered account and tracks the sign-in
// flag in the session store like the real service does.
type stubAccountService struct {
	mu       sync.Mutex
	store    lineitem.Store
	user     *domain.User
	password string
	loginErr error
}

func (s *stubAccountService) Register(_ context.Context, in account.RegisterInput) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Password != in.ConfirmPassword {
		return nil, domain.Invalid("confirmPassword", "passwords do not match")
	}
	if s.user != nil && s.user.Email == in.Email {
		return nil, account.ErrEmailTaken
	}
	s.user = &domain.User{ID: "user-1", Username: in.Username, Email: in.Email, FullName: in.FullName}
	s.password = in.Password
	return s.user, nil
}

func (s *stubAccountService) Login(ctx context.Context, session, email, password string) (*domain.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	s.mu.Lock()
	u := s.user
	ok := u != nil && u.Email == email && s.password == password
	s.mu.Unlock()
	if !ok {
		return nil, account.ErrInvalidCredentials
	}
	return u, s.SignIn(ctx, session, u)
}

func (s *stubAccountService) SignIn(ctx context.Context, session string, u *domain.User) error {
	if err := lineitem.SetString(ctx, s.store, session, lineitem.KeyUserToken, "logged-in"); err != nil {
		return err
	}
	return lineitem.SetString(ctx, s.store, session, lineitem.KeyUsername, u.Username)
}

func (s *stubAccountService) SignOut(ctx context.Context, session string) error {
	return s.store.Delete(ctx, session, lineitem.KeyUserToken, lineitem.KeyUsername)
}

func (s *stubAccountService) IsAuthenticated(ctx context.Context, session string) (bool, error) {
	v, err := lineitem.GetString(ctx, s.store, session, lineitem.KeyUserToken)
	return v != "", err
}

func (s *stubAccountService) CurrentUser(ctx context.Context, session string) (*domain.User, error) {
	ok, err := s.IsAuthenticated(ctx, session)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || s.user == nil {
		return nil, account.ErrNotSignedIn
	}
	clone := *s.user
	return &clone, nil
}

func (s *stubAccountService) UpdateProfile(_ context.Context, userID string, in account.ProfilePatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != userID {
		return nil, domain.ErrNotFound
	}
	if in.Username != nil {
		s.user.Username = *in.Username
	}
	if in.City != nil {
		s.user.City = *in.City
	}
	clone := *s.user
	return &clone, nil
}

func (s *stubAccountService) SyncShadow(context.Context, string, string) error { return nil }

type stubOrderRepo struct {
	mu      sync.Mutex
	created []domain.Order
}

func (s *stubOrderRepo) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, o)
	return &o, nil
}

func (s *stubOrderRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for _, o := range s.created {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

type testEnv struct {
	router   *gin.Engine
	store    *lineitem.Memory
	products *stubProductService
	accounts *stubAccountService
	orders   *stubOrderRepo
	deps     Deps
}

func teeProduct() domain.Product {
	pct := decimal.NewFromInt(10)
	sale := decimal.NewFromInt(45)
	return domain.Product{
		ID: "p-tee", StoreID: "tee", Title: "Tee", Image: "images/tee.png",
		Price: decimal.NewFromInt(50), DiscountPercent: &pct, DiscountedPrice: &sale,
		Sizes: []string{"M", "L"}, Colors: []string{"Black"},
	}
}

func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := lineitem.NewMemory()
	products := &stubProductService{products: []domain.Product{teeProduct()}}
	accounts := &stubAccountService{store: store}
	orders := &stubOrderRepo{}
	agg := cart.New(store, products, nil)

	deps := Deps{
		ProductSvc:    products,
		CategorySvc:   &stubCategoryService{categories: []domain.Category{{ID: "c1", Key: "t-shirt", Name: "T-Shirts"}}},
		CartSvc:       agg,
		WishlistSvc:   cart.NewWishlist(store, products, agg),
		CheckoutSvc:   checkout.New(agg, accounts, orders, store, "https://cdn.example.com", nil),
		AccountSvc:    accounts,
		NewsletterSvc: &stubNewsletterService{seen: map[string]bool{}},
		Sessions:      anonymous.New(),
		Changes:       store,
		ImageHost:     "https://cdn.example.com",
	}
	for _, m := range mutate {
		m(&deps)
	}
	router, err := buildRouter(zap.NewNop(), stubPinger{}, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testEnv{router: router, store: store, products: products, accounts: accounts, orders: orders, deps: deps}
}

// do sends a request within session sid (issued when empty) and returns the
// recorder and the session id the server used.
func (e *testEnv) do(t *testing.T, method, path, sid, body string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sid})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec, rec.Header().Get(sessionHeader)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, rec.Code, rec.Body.String())
	}
}
