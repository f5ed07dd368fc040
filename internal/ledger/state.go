package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/internal/domain"
	"pharmapos/internal/store"
)

// State is everything one shop instance owns. It is not safe for concurrent
// use; callers serialize access.
type State struct {
	Catalog            *Catalog
	Sales              []domain.Sale
	Procurements       []domain.Procurement
	Settings           domain.Settings
	CurrentSale        *Batch
	CurrentProcurement *Batch
}

func NewState() *State {
	return &State{
		Catalog:            NewCatalog(),
		Settings:           domain.DefaultSettings(),
		CurrentSale:        NewBatch(KindSale),
		CurrentProcurement: NewBatch(KindProcurement),
	}
}

// Reset wipes products, history and pending batches and restores default settings.
func (s *State) Reset() {
	s.Catalog = NewCatalog()
	s.Sales = nil
	s.Procurements = nil
	s.Settings = domain.DefaultSettings()
	s.CurrentSale.Clear()
	s.CurrentProcurement.Clear()
}

func (s *State) AddSaleLine(barcode string, qty int) error {
	product, err := s.Catalog.FindByBarcode(barcode)
	if err != nil {
		return err
	}
	return s.CurrentSale.AddSaleLine(product, qty)
}

func (s *State) AddProcurementLine(barcode string, qty int, purchase decimal.Decimal, selling decimal.Decimal) error {
	product, err := s.Catalog.FindByBarcode(barcode)
	if err != nil {
		return err
	}
	return s.CurrentProcurement.AddProcurementLine(product, qty, purchase, selling)
}

// CommitSale applies the pending sale. Every line is checked against current
// stock before any product is touched, so a failure changes nothing.
func (s *State) CommitSale(id int64, at time.Time) (domain.Sale, error) {
	batch := s.CurrentSale
	if batch.Len() == 0 {
		return domain.Sale{}, fmt.Errorf("%w: sale has no lines", store.ErrEmptyBatch)
	}

	lines := batch.Lines()
	needed := make(map[string]int, len(lines))
	for _, line := range lines {
		needed[line.Barcode] += line.Quantity
	}
	for barcode, qty := range needed {
		product, err := s.Catalog.FindByBarcode(barcode)
		if err != nil {
			return domain.Sale{}, err
		}
		if product.Quantity < qty {
			return domain.Sale{}, fmt.Errorf("%w: %s has %d in stock, sale needs %d", store.ErrNegativeStock, product.Name, product.Quantity, qty)
		}
	}

	for _, line := range lines {
		if _, err := s.Catalog.AdjustStock(line.Barcode, -line.Quantity); err != nil {
			// unreachable after the checks above
			return domain.Sale{}, err
		}
	}

	sale := domain.Sale{
		ID:        id,
		Timestamp: at,
		Items:     lines,
		Total:     batch.Total(),
	}
	s.Sales = append(s.Sales, sale)
	batch.Clear()
	return cloneSale(sale), nil
}

// CommitProcurement adds stock and moves catalog prices to the ones on each line.
func (s *State) CommitProcurement(id int64, at time.Time) (domain.Procurement, error) {
	batch := s.CurrentProcurement
	if batch.Len() == 0 {
		return domain.Procurement{}, fmt.Errorf("%w: procurement has no lines", store.ErrEmptyBatch)
	}

	lines := batch.Lines()
	for _, line := range lines {
		if _, err := s.Catalog.FindByBarcode(line.Barcode); err != nil {
			return domain.Procurement{}, err
		}
	}

	for _, line := range lines {
		if _, err := s.Catalog.AdjustStock(line.Barcode, line.Quantity); err != nil {
			return domain.Procurement{}, err
		}
		if _, err := s.Catalog.RefreshPricing(line.Barcode, line.PurchasePrice, line.SellingPrice); err != nil {
			return domain.Procurement{}, err
		}
	}

	procurement := domain.Procurement{
		ID:        id,
		Timestamp: at,
		Items:     lines,
		Total:     batch.Total(),
	}
	s.Procurements = append(s.Procurements, procurement)
	batch.Clear()
	return cloneProcurement(procurement), nil
}

func (s *State) SaleByID(id int64) (domain.Sale, error) {
	for _, sale := range s.Sales {
		if sale.ID == id {
			return cloneSale(sale), nil
		}
	}
	return domain.Sale{}, fmt.Errorf("%w: sale %d", store.ErrNotFound, id)
}

func (s *State) ProcurementByID(id int64) (domain.Procurement, error) {
	for _, p := range s.Procurements {
		if p.ID == id {
			return cloneProcurement(p), nil
		}
	}
	return domain.Procurement{}, fmt.Errorf("%w: procurement %d", store.ErrNotFound, id)
}

// ApplySettings merges the set fields of update over current. Nothing is
// changed when any field is invalid.
func ApplySettings(current domain.Settings, update domain.SettingsUpdate) (domain.Settings, error) {
	next := current
	if update.ShopName != nil {
		next.ShopName = strings.TrimSpace(*update.ShopName)
	}
	if update.ShopAddress != nil {
		next.ShopAddress = strings.TrimSpace(*update.ShopAddress)
	}
	if update.ShopPhone != nil {
		next.ShopPhone = strings.TrimSpace(*update.ShopPhone)
	}
	if update.LowStockThreshold != nil {
		if *update.LowStockThreshold < 0 {
			return current, fmt.Errorf("%w: low stock threshold must not be negative", store.ErrInvalidInput)
		}
		next.LowStockThreshold = *update.LowStockThreshold
	}
	if update.Currency != nil {
		currency := strings.TrimSpace(*update.Currency)
		if currency == "" {
			return current, fmt.Errorf("%w: currency symbol is required", store.ErrInvalidInput)
		}
		next.Currency = currency
	}
	if update.DarkMode != nil {
		switch *update.DarkMode {
		case domain.DarkModeLight, domain.DarkModeDark, domain.DarkModeAuto:
			next.DarkMode = *update.DarkMode
		default:
			return current, fmt.Errorf("%w: unknown theme %q", store.ErrInvalidInput, *update.DarkMode)
		}
	}
	return next, nil
}

func cloneSale(sale domain.Sale) domain.Sale {
	sale.Items = append([]domain.LineItem(nil), sale.Items...)
	return sale
}

func cloneProcurement(p domain.Procurement) domain.Procurement {
	p.Items = append([]domain.LineItem(nil), p.Items...)
	return p
}
