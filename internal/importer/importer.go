package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

var hundred = decimal.NewFromInt(100)

// CSVImporter reads storefront catalog exports and inserts/updates products
// keyed by their storefront id.
type CSVImporter struct {
	reader       *csv.Reader
	productRepo  ProductWriter
	categoryRepo CategoryWriter
	logger       *zap.Logger
	seenTypes    map[string]bool
}

func NewCSVImporter(r io.Reader, repo ProductWriter, catRepo CategoryWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:       csvr,
		productRepo:  repo,
		categoryRepo: catRepo,
		logger:       logging.OrNop(logger),
		seenTypes:    make(map[string]bool),
	}
}

type csvRow struct {
	ID              string
	Title           string
	Details         string
	Price           string
	DiscountPercent string
	Type            string
	Gender          string
	Colors          []string
	Sizes           []string
	IsNew           bool
	Rate            string
	Reviews         int
	Qty             int
	ImageURLs       []string
}

// Run parses CSV rows and upserts products. Rows without an id only carry
// extra images for the product above them.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.ID != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Title == "" || row.Price == "" {
		return fmt.Errorf("invalid product row (missing required fields) for id %q", row.ID)
	}
	price, err := decimal.NewFromString(row.Price)
	if err != nil || price.IsNegative() {
		return fmt.Errorf("invalid price for id %q: %s", row.ID, row.Price)
	}

	p := domain.Product{
		StoreID:  row.ID,
		Title:    row.Title,
		Gender:   row.Gender,
		Type:     row.Type,
		Price:    price,
		Quantity: row.Qty,
		Colors:   row.Colors,
		Sizes:    row.Sizes,
		Images:   row.ImageURLs,
		Details:  row.Details,
		Tags:     tagsFromTitle(row.Title),
		Rating:   row.Rate,
		Reviews:  row.Reviews,
		IsNew:    row.IsNew,
	}
	if len(row.ImageURLs) > 0 {
		p.Image = row.ImageURLs[0]
	}
	if row.DiscountPercent != "" {
		pct, err := decimal.NewFromString(row.DiscountPercent)
		if err != nil || pct.IsNegative() || pct.GreaterThan(hundred) {
			return fmt.Errorf("invalid discount for id %q: %s", row.ID, row.DiscountPercent)
		}
		if pct.IsPositive() {
			disc := DiscountedPrice(price, pct)
			p.DiscountPercent = &pct
			p.DiscountedPrice = &disc
		}
	}

	if err := i.ensureCategory(ctx, row.Type); err != nil {
		return err
	}
	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.ID, err)
	}
	i.logger.Debug("importer: product saved", zap.String("store_id", row.ID))
	return nil
}

func (i *CSVImporter) ensureCategory(ctx context.Context, typ string) error {
	key := strings.ToLower(typ)
	if i.categoryRepo == nil || key == "" || i.seenTypes[key] {
		return nil
	}
	if _, err := i.categoryRepo.Upsert(ctx, domain.Category{Key: key, Name: typ}); err != nil {
		return fmt.Errorf("upsert category %q: %w", key, err)
	}
	i.seenTypes[key] = true
	return nil
}

// DiscountedPrice is price minus pct percent of it, rounded to cents.
func DiscountedPrice(price, pct decimal.Decimal) decimal.Decimal {
	return price.Sub(price.Mul(pct).Div(hundred)).Round(2)
}

// tagsFromTitle uses the first three words of the title.
func tagsFromTitle(title string) []string {
	words := strings.Fields(title)
	if len(words) > 3 {
		words = words[:3]
	}
	return words
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	id := pick(record, index, "id")
	imageURL := pick(record, index, "imageUrl")
	if id == "" && imageURL == "" {
		return nil, nil
	}

	row := &csvRow{
		ID:              id,
		Title:           pick(record, index, "name"),
		Details:         pick(record, index, "description"),
		Price:           pick(record, index, "price"),
		DiscountPercent: pick(record, index, "discountPercent"),
		Type:            pick(record, index, "category"),
		Gender:          pick(record, index, "gender"),
		Colors:          splitList(pick(record, index, "colors")),
		Sizes:           splitList(pick(record, index, "sizes")),
		Rate:            pick(record, index, "rate"),
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	if v := pick(record, index, "isNew"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid isNew for id %q: %s", id, v)
		}
		row.IsNew = b
	}
	for field, dst := range map[string]*int{"reviews": &row.Reviews, "qty": &row.Qty} {
		if v := pick(record, index, field); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s for id %q: %s", field, id, v)
			}
			*dst = n
		}
	}
	return row, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
