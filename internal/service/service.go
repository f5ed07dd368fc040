package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/internal/cache"
	"pharmapos/internal/domain"
	"pharmapos/internal/ledger"
	"pharmapos/internal/report"
	"pharmapos/internal/store"
	"pharmapos/internal/xid"
)

// ResetConfirmation must be typed verbatim to wipe the shop.
const ResetConfirmation = "CONFIRM"

type Options struct {
	Cache    cache.DashboardCache
	CacheTTL time.Duration
	Location *time.Location
	Logger   *zap.Logger
	IDs      *xid.Generator
	Now      func() time.Time
}

// Service serializes every operation on the shop state behind one mutex and
// writes the state through the gateway after each committed change.
type Service struct {
	mu       sync.Mutex
	state    *ledger.State
	gateway  store.Gateway
	cache    cache.DashboardCache
	cacheTTL time.Duration
	loc      *time.Location
	logger   *zap.Logger
	ids      *xid.Generator
	now      func() time.Time
	instance string
	revision uint64
	dirty    bool
}

// Open loads the shop from the gateway. Missing keys start empty. A blob
// that exists but cannot be decoded stops startup so it is never overwritten.
func Open(ctx context.Context, gateway store.Gateway, opts Options) (*Service, error) {
	if opts.Cache == nil {
		opts.Cache = cache.NoopDashboardCache{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IDs == nil {
		ids, err := xid.NewGenerator(1)
		if err != nil {
			return nil, err
		}
		opts.IDs = ids
	}

	s := &Service{
		gateway:  gateway,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		loc:      opts.Location,
		logger:   opts.Logger.Named("service"),
		ids:      opts.IDs,
		now:      opts.Now,
		instance: uuid.NewString(),
	}

	state, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.state = state
	s.logger.Info("shop state loaded",
		zap.Int("products", state.Catalog.Len()),
		zap.Int("sales", len(state.Sales)),
		zap.Int("procurements", len(state.Procurements)),
	)
	return s, nil
}

func (s *Service) load(ctx context.Context) (*ledger.State, error) {
	state := ledger.NewState()

	var products []domain.Product
	if _, err := s.decode(ctx, store.KeyProducts, &products); err != nil {
		return nil, err
	}
	catalog, err := ledger.LoadCatalog(products)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", store.KeyProducts, err)
	}
	state.Catalog = catalog

	if _, err := s.decode(ctx, store.KeySales, &state.Sales); err != nil {
		return nil, err
	}
	if _, err := s.decode(ctx, store.KeyProcurements, &state.Procurements); err != nil {
		return nil, err
	}
	// stored fields land on top of the defaults
	if _, err := s.decode(ctx, store.KeySettings, &state.Settings); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Service) decode(ctx context.Context, key string, dest any) (bool, error) {
	blob, ok, err := s.gateway.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: load %s: %v", store.ErrPersistence, key, err)
	}
	if !ok || len(blob) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(blob, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// persist writes all four blobs. On failure the in-memory state is kept and
// marked dirty for Flush to retry.
func (s *Service) persist(ctx context.Context) error {
	s.revision++

	blobs, err := s.encode()
	if err != nil {
		s.dirty = true
		return fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}

	if batch, ok := s.gateway.(store.BatchSaver); ok {
		err = batch.SaveBatch(ctx, blobs)
	} else {
		for _, key := range store.Keys {
			if err = s.gateway.Save(ctx, key, blobs[key]); err != nil {
				err = fmt.Errorf("save %s: %w", key, err)
				break
			}
		}
	}
	if err != nil {
		s.dirty = true
		s.logger.Warn("state not persisted, will retry", zap.Error(err))
		return fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}
	s.dirty = false
	return nil
}

func (s *Service) encode() (map[string][]byte, error) {
	values := map[string]any{
		store.KeyProducts:     nonNil(s.state.Catalog.List()),
		store.KeySales:        nonNil(s.state.Sales),
		store.KeyProcurements: nonNil(s.state.Procurements),
		store.KeySettings:     s.state.Settings,
	}
	blobs := make(map[string][]byte, len(values))
	for key, value := range values {
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		blobs[key] = payload
	}
	return blobs, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Flush retries a write that failed earlier. It does nothing when the
// gateway is already in sync.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.logger.Info("pending state flushed")
	return nil
}

func (s *Service) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) ListProducts(query string, status domain.StockStatus) []domain.ProductView {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := s.state.Settings.LowStockThreshold
	products := ledger.FilterByStatus(s.state.Catalog.Search(query), status, threshold)
	views := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, domain.ProductView{Product: p, Status: ledger.Classify(p, threshold)})
	}
	return views
}

// SuggestProducts backs the name or barcode box on the sale and procurement screens.
func (s *Service) SuggestProducts(field ledger.SearchField, term string) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(term) == "" {
		return []domain.Product{}
	}
	return s.state.Catalog.SearchBy(field, term)
}

func (s *Service) GetProduct(barcode string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Catalog.FindByBarcode(barcode)
}

func (s *Service) FindProductByName(name string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Catalog.FindByName(name)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.state.Catalog.Create(domain.Product{
		Barcode:       req.Barcode,
		Name:          req.Name,
		Company:       req.Company,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product created", zap.String("barcode", created.Barcode), zap.String("name", created.Name), zap.Int("quantity", created.Quantity))
	return created, s.persist(ctx)
}

func (s *Service) DeleteProduct(ctx context.Context, barcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Catalog.Remove(barcode); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("barcode", barcode))
	return s.persist(ctx)
}

func (s *Service) ProfitPreview(purchase decimal.Decimal, selling decimal.Decimal) (domain.ProfitPreview, error) {
	if purchase.IsNegative() || selling.IsNegative() {
		return domain.ProfitPreview{}, fmt.Errorf("%w: prices must not be negative", store.ErrInvalidInput)
	}
	return ledger.ProfitPreview(purchase, selling), nil
}

func (s *Service) CurrentSale() domain.BatchView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentSale.View()
}

func (s *Service) AddSaleLine(req domain.SaleLineRequest) (domain.BatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.AddSaleLine(req.Barcode, req.Quantity); err != nil {
		return s.state.CurrentSale.View(), err
	}
	return s.state.CurrentSale.View(), nil
}

func (s *Service) RemoveSaleLine(index int) (domain.BatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.state.CurrentSale.RemoveLine(index)
	return s.state.CurrentSale.View(), err
}

func (s *Service) ClearSale() domain.BatchView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentSale.Clear()
	return s.state.CurrentSale.View()
}

// CompleteSale commits the pending sale. When received is set it must cover
// the total and the change is returned alongside the sale. A returned
// ErrPersistence still carries a committed result.
func (s *Service) CompleteSale(ctx context.Context, req domain.SaleCompleteRequest) (domain.SaleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.state.CurrentSale.Total()
	var change *decimal.Decimal
	if req.Received != nil {
		if req.Received.LessThan(total) {
			return domain.SaleResult{}, fmt.Errorf("%w: received %s is less than total %s", store.ErrInvalidInput, req.Received.String(), total.String())
		}
		diff := req.Received.Sub(total)
		change = &diff
	}

	sale, err := s.state.CommitSale(s.ids.Next(), s.Now())
	if err != nil {
		return domain.SaleResult{}, err
	}
	s.logger.Info("sale committed",
		zap.Int64("id", sale.ID),
		zap.Int("lines", len(sale.Items)),
		zap.String("total", sale.Total.String()),
	)

	result := domain.SaleResult{Sale: sale, Change: change}
	if err := s.persist(ctx); err != nil {
		result.Warning = err.Error()
		return result, err
	}
	return result, nil
}

func (s *Service) CurrentProcurement() domain.BatchView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentProcurement.View()
}

func (s *Service) AddProcurementLine(req domain.ProcurementLineRequest) (domain.BatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.state.AddProcurementLine(req.Barcode, req.Quantity, req.PurchasePrice, req.SellingPrice)
	return s.state.CurrentProcurement.View(), err
}

func (s *Service) RemoveProcurementLine(index int) (domain.BatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.state.CurrentProcurement.RemoveLine(index)
	return s.state.CurrentProcurement.View(), err
}

func (s *Service) ClearProcurement() domain.BatchView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentProcurement.Clear()
	return s.state.CurrentProcurement.View()
}

func (s *Service) CompleteProcurement(ctx context.Context) (domain.ProcurementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	procurement, err := s.state.CommitProcurement(s.ids.Next(), s.Now())
	if err != nil {
		return domain.ProcurementResult{}, err
	}
	s.logger.Info("procurement committed",
		zap.Int64("id", procurement.ID),
		zap.Int("lines", len(procurement.Items)),
		zap.String("total", procurement.Total.String()),
	)

	result := domain.ProcurementResult{Procurement: procurement}
	if err := s.persist(ctx); err != nil {
		result.Warning = err.Error()
		return result, err
	}
	return result, nil
}

// Receipt rebuilds the receipt of a committed sale from its stored lines.
func (s *Service) Receipt(saleID int64) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.state.SaleByID(saleID)
	if err != nil {
		return domain.Receipt{}, err
	}
	return domain.Receipt{
		Shop:      s.state.Settings,
		SaleID:    sale.ID,
		Timestamp: sale.Timestamp.In(s.loc),
		Items:     sale.Items,
		Total:     sale.Total,
	}, nil
}

func (s *Service) Dashboard(ctx context.Context) domain.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	key := cache.DashboardKey(s.instance, s.revision, now.Format("2006-01-02"))
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}
	if ok && cached != nil {
		return *cached
	}

	dashboard := report.BuildDashboard(s.input(), now, s.loc)
	if err := s.cache.Set(ctx, key, &dashboard, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return dashboard
}

func (s *Service) Statement(kind domain.StatementKind, w report.Window) (domain.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case domain.StatementSales:
		return report.SalesStatement(s.input(), w, s.Now()), nil
	case domain.StatementProcurements:
		return report.ProcurementStatement(s.input(), w, s.Now()), nil
	default:
		return domain.Statement{}, fmt.Errorf("%w: unknown statement kind %q", store.ErrInvalidInput, kind)
	}
}

func (s *Service) input() report.Input {
	return report.Input{
		Products:     s.state.Catalog.List(),
		Sales:        s.state.Sales,
		Procurements: s.state.Procurements,
		Settings:     s.state.Settings,
	}
}

func (s *Service) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

func (s *Service) UpdateSettings(ctx context.Context, update domain.SettingsUpdate) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := ledger.ApplySettings(s.state.Settings, update)
	if err != nil {
		return s.state.Settings, err
	}
	s.state.Settings = next
	s.logger.Info("settings saved")
	return next, s.persist(ctx)
}

// ResetAll removes every product and record and restores default settings.
func (s *Service) ResetAll(ctx context.Context, confirmation string) error {
	if confirmation != ResetConfirmation {
		return fmt.Errorf("%w: type %s to reset all data", store.ErrInvalidInput, ResetConfirmation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Reset()
	s.logger.Warn("all shop data reset")
	return s.persist(ctx)
}
