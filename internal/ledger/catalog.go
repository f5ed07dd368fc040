package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pharmapos/internal/domain"
	"pharmapos/internal/store"
)

// Catalog keeps products in insertion order with a barcode index.
type Catalog struct {
	products []domain.Product
	index    map[string]int
}

func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// LoadCatalog rebuilds a catalog from persisted products. A repeated barcode
// means the blob is corrupt.
func LoadCatalog(products []domain.Product) (*Catalog, error) {
	c := NewCatalog()
	for _, p := range products {
		if _, exists := c.index[p.Barcode]; exists {
			return nil, fmt.Errorf("%w: barcode %q appears twice", store.ErrDuplicateKey, p.Barcode)
		}
		if p.Quantity < 0 {
			return nil, fmt.Errorf("%w: barcode %q has quantity %d", store.ErrNegativeStock, p.Barcode, p.Quantity)
		}
		c.index[p.Barcode] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) Create(p domain.Product) (domain.Product, error) {
	p.Barcode = strings.TrimSpace(p.Barcode)
	p.Name = strings.TrimSpace(p.Name)
	p.Company = strings.TrimSpace(p.Company)

	if p.Barcode == "" || p.Name == "" || p.Company == "" {
		return domain.Product{}, fmt.Errorf("%w: barcode, name and company are required", store.ErrInvalidInput)
	}
	if p.Quantity < 0 {
		return domain.Product{}, fmt.Errorf("%w: quantity must not be negative", store.ErrInvalidInput)
	}
	if p.PurchasePrice.IsNegative() || p.SellingPrice.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: prices must not be negative", store.ErrInvalidInput)
	}
	if _, exists := c.index[p.Barcode]; exists {
		return domain.Product{}, fmt.Errorf("%w: barcode %q", store.ErrDuplicateKey, p.Barcode)
	}

	c.index[p.Barcode] = len(c.products)
	c.products = append(c.products, p)
	return p, nil
}

func (c *Catalog) FindByBarcode(barcode string) (domain.Product, error) {
	idx, ok := c.index[strings.TrimSpace(barcode)]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: barcode %q", store.ErrNotFound, barcode)
	}
	return c.products[idx], nil
}

// FindByName returns the first product whose name matches exactly. Names are
// not unique, so authoritative operations should go through the barcode.
func (c *Catalog) FindByName(name string) (domain.Product, error) {
	name = strings.TrimSpace(name)
	for _, p := range c.products {
		if p.Name == name {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%w: name %q", store.ErrNotFound, name)
}

type SearchField string

const (
	SearchAny     SearchField = ""
	SearchName    SearchField = "name"
	SearchBarcode SearchField = "barcode"
)

// Search returns candidates whose name, barcode or company contains term,
// ignoring case. An empty term returns the full list.
func (c *Catalog) Search(term string) []domain.Product {
	return c.SearchBy(SearchAny, term)
}

func (c *Catalog) SearchBy(field SearchField, term string) []domain.Product {
	needle := strings.ToLower(strings.TrimSpace(term))
	result := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if needle == "" || matches(p, field, needle) {
			result = append(result, p)
		}
	}
	return result
}

func matches(p domain.Product, field SearchField, needle string) bool {
	name := strings.Contains(strings.ToLower(p.Name), needle)
	barcode := strings.Contains(strings.ToLower(p.Barcode), needle)
	switch field {
	case SearchName:
		return name
	case SearchBarcode:
		return barcode
	default:
		return name || barcode || strings.Contains(strings.ToLower(p.Company), needle)
	}
}

func (c *Catalog) AdjustStock(barcode string, delta int) (domain.Product, error) {
	idx, ok := c.index[barcode]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: barcode %q", store.ErrNotFound, barcode)
	}
	next := c.products[idx].Quantity + delta
	if next < 0 {
		return domain.Product{}, fmt.Errorf("%w: barcode %q has %d, change %d", store.ErrNegativeStock, barcode, c.products[idx].Quantity, delta)
	}
	c.products[idx].Quantity = next
	return c.products[idx], nil
}

// RefreshPricing overwrites current prices. The latest procurement wins.
func (c *Catalog) RefreshPricing(barcode string, purchase decimal.Decimal, selling decimal.Decimal) (domain.Product, error) {
	idx, ok := c.index[barcode]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: barcode %q", store.ErrNotFound, barcode)
	}
	if purchase.IsNegative() || selling.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: prices must not be negative", store.ErrInvalidInput)
	}
	c.products[idx].PurchasePrice = purchase
	c.products[idx].SellingPrice = selling
	return c.products[idx], nil
}

// Remove deletes the product. Ledger records keep their own snapshots.
func (c *Catalog) Remove(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	idx, ok := c.index[barcode]
	if !ok {
		return fmt.Errorf("%w: barcode %q", store.ErrNotFound, barcode)
	}
	c.products = append(c.products[:idx], c.products[idx+1:]...)
	delete(c.index, barcode)
	for i := idx; i < len(c.products); i++ {
		c.index[c.products[i].Barcode] = i
	}
	return nil
}

func (c *Catalog) List() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func Classify(p domain.Product, threshold int) domain.StockStatus {
	switch {
	case p.Quantity <= 0:
		return domain.StockOut
	case p.Quantity <= threshold:
		return domain.StockLow
	default:
		return domain.StockIn
	}
}

// FilterByStatus keeps products in the given status. An empty status keeps all.
func FilterByStatus(products []domain.Product, status domain.StockStatus, threshold int) []domain.Product {
	if status == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if Classify(p, threshold) == status {
			out = append(out, p)
		}
	}
	return out
}

// ProfitPreview is the unit profit and margin shown while entering a new product.
func ProfitPreview(purchase decimal.Decimal, selling decimal.Decimal) domain.ProfitPreview {
	profit := selling.Sub(purchase)
	margin := decimal.Zero
	if selling.IsPositive() {
		margin = profit.Div(selling).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return domain.ProfitPreview{Profit: profit, MarginPercent: margin}
}
