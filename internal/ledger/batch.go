package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pharmapos/internal/domain"
	"pharmapos/internal/store"
)

type BatchKind string

const (
	KindSale        BatchKind = "sale"
	KindProcurement BatchKind = "procurement"
)

type BatchState string

const (
	BatchEmpty    BatchState = "empty"
	BatchBuilding BatchState = "building"
)

// Batch is a pending sale or procurement. It is never persisted.
type Batch struct {
	kind  BatchKind
	lines []domain.LineItem
}

func NewBatch(kind BatchKind) *Batch {
	return &Batch{kind: kind}
}

func (b *Batch) Kind() BatchKind {
	return b.kind
}

func (b *Batch) State() BatchState {
	if len(b.lines) == 0 {
		return BatchEmpty
	}
	return BatchBuilding
}

func (b *Batch) Len() int {
	return len(b.lines)
}

// Lines returns a copy of the staged lines.
func (b *Batch) Lines() []domain.LineItem {
	out := make([]domain.LineItem, len(b.lines))
	copy(out, b.lines)
	return out
}

// Total is derived from the lines on every call.
func (b *Batch) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range b.lines {
		total = total.Add(line.Total)
	}
	return total
}

// QuantityFor sums the staged quantity for a barcode.
func (b *Batch) QuantityFor(barcode string) int {
	qty := 0
	for _, line := range b.lines {
		if line.Barcode == barcode {
			qty += line.Quantity
		}
	}
	return qty
}

func (b *Batch) View() domain.BatchView {
	return domain.BatchView{
		Kind:  string(b.kind),
		State: string(b.State()),
		Lines: b.Lines(),
		Total: b.Total(),
	}
}

// AddSaleLine stages qty units of p at its current prices. The accumulated
// quantity for the barcode may not exceed p's stock.
func (b *Batch) AddSaleLine(p domain.Product, qty int) error {
	if b.kind != KindSale {
		return fmt.Errorf("%w: not a sale batch", store.ErrInvalidInput)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", store.ErrInvalidInput)
	}
	if want := b.QuantityFor(p.Barcode) + qty; want > p.Quantity {
		return fmt.Errorf("%w: %s has %d in stock, batch needs %d", store.ErrInsufficientStock, p.Name, p.Quantity, want)
	}

	if idx := b.find(p.Barcode); idx >= 0 {
		line := &b.lines[idx]
		line.Quantity += qty
		line.Total = line.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		return nil
	}

	b.lines = append(b.lines, domain.LineItem{
		Barcode:       p.Barcode,
		Name:          p.Name,
		Quantity:      qty,
		PurchasePrice: p.PurchasePrice,
		SellingPrice:  p.SellingPrice,
		Total:         p.SellingPrice.Mul(decimal.NewFromInt(int64(qty))),
	})
	return nil
}

// AddProcurementLine stages a restock. A repeated barcode keeps the prices of
// the line already staged and only grows its quantity.
func (b *Batch) AddProcurementLine(p domain.Product, qty int, purchase decimal.Decimal, selling decimal.Decimal) error {
	if b.kind != KindProcurement {
		return fmt.Errorf("%w: not a procurement batch", store.ErrInvalidInput)
	}
	if qty <= 0 || !purchase.IsPositive() || !selling.IsPositive() {
		return fmt.Errorf("%w: quantity and prices must be positive", store.ErrInvalidInput)
	}

	if idx := b.find(p.Barcode); idx >= 0 {
		line := &b.lines[idx]
		line.Quantity += qty
		line.Total = line.PurchasePrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		return nil
	}

	b.lines = append(b.lines, domain.LineItem{
		Barcode:       p.Barcode,
		Name:          p.Name,
		Quantity:      qty,
		PurchasePrice: purchase,
		SellingPrice:  selling,
		Total:         purchase.Mul(decimal.NewFromInt(int64(qty))),
	})
	return nil
}

func (b *Batch) RemoveLine(index int) error {
	if index < 0 || index >= len(b.lines) {
		return fmt.Errorf("%w: line %d out of range", store.ErrInvalidInput, index)
	}
	b.lines = append(b.lines[:index], b.lines[index+1:]...)
	return nil
}

func (b *Batch) Clear() {
	b.lines = nil
}

func (b *Batch) find(barcode string) int {
	for i, line := range b.lines {
		if line.Barcode == barcode {
			return i
		}
	}
	return -1
}
