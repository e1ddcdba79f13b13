package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/importer"
	"storefront/internal/logging"
)

type productSeed struct {
	StoreID  string
	Title    string
	Gender   string
	Type     string
	Price    string
	Discount string
	Colors   []string
	Sizes    []string
	Image    string
	Details  string
	Rate     string
	Reviews  int
	Qty      int
	IsNew    bool
}

var categories = []domain.Category{
	{Key: "t-shirt", Name: "T-Shirts"},
	{Key: "jeans", Name: "Jeans"},
	{Key: "hoodie", Name: "Hoodies"},
	{Key: "shorts", Name: "Shorts"},
}

var products = []productSeed{
	{
		StoreID: "1", Title: "T-shirt with Tape Details", Gender: "men", Type: "t-shirt",
		Price: "120", Colors: []string{"Black", "White"}, Sizes: []string{"S", "M", "L"},
		Image: "images/tape-tee.png", Details: "Soft cotton tee with tape details.",
		Rate: "4.5", Reviews: 451, Qty: 40, IsNew: true,
	},
	{
		StoreID: "2", Title: "Skinny Fit Jeans", Gender: "women", Type: "jeans",
		Price: "260", Discount: "20", Colors: []string{"Blue"}, Sizes: []string{"28", "30", "32"},
		Image: "images/skinny-jeans.png", Details: "Stretch denim in a skinny fit.",
		Rate: "3.5", Reviews: 208, Qty: 25, IsNew: true,
	},
	{
		StoreID: "3", Title: "Checkered Shirt", Gender: "men", Type: "t-shirt",
		Price: "180", Colors: []string{"Red", "Blue"}, Sizes: []string{"M", "L", "XL"},
		Image: "images/checkered-shirt.png", Details: "Brushed cotton checks.",
		Rate: "4.5", Reviews: 899, Qty: 60,
	},
	{
		StoreID: "4", Title: "Sleeve Striped Hoodie", Gender: "women", Type: "hoodie",
		Price: "160", Discount: "30", Colors: []string{"Grey"}, Sizes: []string{"S", "M"},
		Image: "images/striped-hoodie.png", Details: "Fleece-lined hoodie with striped sleeves.",
		Rate: "4.5", Reviews: 135, Qty: 15,
	},
	{
		StoreID: "5", Title: "Bermuda Shorts", Gender: "men", Type: "shorts",
		Price: "80", Colors: []string{"Khaki", "Olive"}, Sizes: []string{"M", "L"},
		Image: "images/bermuda-shorts.png", Details: "Relaxed linen blend shorts.",
		Rate: "3.0", Reviews: 97, Qty: 33,
	},
}

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// Apply inserts basic seed data for manual testing. It is idempotent because
// both writers upsert on their natural keys.
func Apply(ctx context.Context, productRepo ProductWriter, categoryRepo CategoryWriter, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	for _, c := range categories {
		if _, err := categoryRepo.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
	}
	for _, s := range products {
		p, err := s.product()
		if err != nil {
			return fmt.Errorf("build product %s: %w", s.StoreID, err)
		}
		if _, err := productRepo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", s.StoreID, err)
		}
	}
	logger.Info("seed: applied", zap.Int("categories", len(categories)), zap.Int("products", len(products)))
	return nil
}

func (s productSeed) product() (domain.Product, error) {
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		StoreID:  s.StoreID,
		Title:    s.Title,
		Gender:   s.Gender,
		Type:     s.Type,
		Price:    price,
		Quantity: s.Qty,
		Colors:   s.Colors,
		Sizes:    s.Sizes,
		Image:    s.Image,
		Images:   []string{s.Image},
		Details:  s.Details,
		Tags:     []string{s.Type, s.Gender},
		Rating:   s.Rate,
		Reviews:  s.Reviews,
		IsNew:    s.IsNew,
	}
	if s.Discount != "" {
		pct, err := decimal.NewFromString(s.Discount)
		if err != nil {
			return domain.Product{}, err
		}
		disc := importer.DiscountedPrice(price, pct)
		p.DiscountPercent = &pct
		p.DiscountedPrice = &disc
	}
	return p, nil
}
