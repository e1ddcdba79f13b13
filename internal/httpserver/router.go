package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/lineitem"
	"storefront/internal/pricing"
	newsletterrepo "storefront/internal/repository/newsletter"
	"storefront/internal/service/account"
	"storefront/internal/service/cart"
	"storefront/internal/service/checkout"
)

type productService interface {
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type cartService interface {
	Price(ctx context.Context, session string, method pricing.PaymentMethod) (*cart.Priced, error)
	Add(ctx context.Context, session string, in cart.AddInput) ([]domain.LineItem, error)
	SetQuantity(ctx context.Context, session string, key domain.LineKey, qty int) ([]domain.LineItem, error)
	Remove(ctx context.Context, session string, key domain.LineKey) ([]domain.LineItem, error)
	ApplyPromo(ctx context.Context, session, code string) (*cart.Priced, error)
}

type wishlistService interface {
	Load(ctx context.Context, session string) ([]domain.LineItem, error)
	Add(ctx context.Context, session, productID, size, color string) ([]domain.LineItem, error)
	Remove(ctx context.Context, session, productID string) ([]domain.LineItem, error)
	MoveToCart(ctx context.Context, session string, in cart.MoveInput) ([]domain.LineItem, error)
	Resolve(ctx context.Context, items []domain.LineItem) ([]pricing.Line, error)
}

type checkoutService interface {
	Summary(ctx context.Context, session string, method pricing.PaymentMethod) (*checkout.Summary, error)
	Login(ctx context.Context, session, email, password string) (checkout.State, error)
	PlaceOrder(ctx context.Context, session string, shipping domain.ShippingInfo, method pricing.PaymentMethod) (*checkout.Snapshot, error)
	Confirmation(ctx context.Context, session string) (*checkout.Snapshot, error)
	History(ctx context.Context, session string) ([]domain.Order, error)
}

type accountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, session, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, session string, u *domain.User) error
	SignOut(ctx context.Context, session string) error
	CurrentUser(ctx context.Context, session string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in account.ProfilePatch) (*domain.User, error)
}

type newsletterService interface {
	Subscribe(ctx context.Context, email string) (*newsletterrepo.Subscription, error)
}

type sessionIssuer interface {
	Issue() string
	Valid(id string) bool
}

type changeFeed interface {
	Subscribe(ctx context.Context, session string) (<-chan lineitem.Change, error)
}

// Deps holds the services the router dispatches to.
type Deps struct {
	ProductSvc    productService
	CategorySvc   categoryService
	CartSvc       cartService
	WishlistSvc   wishlistService
	CheckoutSvc   checkoutService
	AccountSvc    accountService
	NewsletterSvc newsletterService
	Sessions      sessionIssuer
	Changes       changeFeed

	ImageHost     string
	CORSOrigins   []string
	SecureCookies bool
	SessionTTL    time.Duration
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service is required")
	case d.CategorySvc == nil:
		return errors.New("httpserver: category service is required")
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service is required")
	case d.WishlistSvc == nil:
		return errors.New("httpserver: wishlist service is required")
	case d.CheckoutSvc == nil:
		return errors.New("httpserver: checkout service is required")
	case d.AccountSvc == nil:
		return errors.New("httpserver: account service is required")
	case d.NewsletterSvc == nil:
		return errors.New("httpserver: newsletter service is required")
	case d.Sessions == nil:
		return errors.New("httpserver: session issuer is required")
	}
	return nil
}

type handler struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	h := &handler{deps: deps, logger: logger}

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api", sessionMiddleware(deps.Sessions, deps.SessionTTL, deps.SecureCookies))

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/categories", h.listCategories)

	api.GET("/cart", h.getCart)
	api.POST("/cart/items", h.addCartItem)
	api.PATCH("/cart/items", h.updateCartItem)
	api.DELETE("/cart/items", h.removeCartItem)
	api.POST("/cart/promo", h.applyPromo)
	api.GET("/cart/events", h.cartEvents)

	api.GET("/wishlist", h.getWishlist)
	api.POST("/wishlist/items", h.addWishlistItem)
	api.DELETE("/wishlist/items", h.removeWishlistItem)
	api.POST("/wishlist/items/move", h.moveWishlistItem)

	api.GET("/checkout", h.getCheckout)
	api.POST("/checkout/login", h.checkoutLogin)
	api.POST("/checkout/orders", h.placeOrder)
	api.GET("/orders/confirmation", h.orderConfirmation)

	api.POST("/auth/signup", h.signup)
	api.POST("/auth/login", h.login)
	api.POST("/auth/logout", h.logout)
	api.GET("/me", h.me)
	api.PATCH("/me", h.updateMe)
	api.GET("/me/orders", h.orderHistory)

	api.POST("/newsletter", h.subscribeNewsletter)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = append(cfg.AllowHeaders, sessionHeader)
	cfg.ExposeHeaders = []string{sessionHeader}
	return cfg
}
