package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/domain"
)

var dhaka = time.FixedZone("Asia/Dhaka", 6*3600)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sale(id int64, ts time.Time, qty int, purchase string, selling string) domain.Sale {
	line := domain.LineItem{
		Barcode:       "001",
		Name:          "Napa 500mg",
		Quantity:      qty,
		PurchasePrice: dec(purchase),
		SellingPrice:  dec(selling),
		Total:         dec(selling).Mul(decimal.NewFromInt(int64(qty))),
	}
	return domain.Sale{ID: id, Timestamp: ts, Items: []domain.LineItem{line}, Total: line.Total}
}

func TestRangeIncludesLastMillisecondOnly(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, dhaka)
	to := time.Date(2024, 3, 14, 0, 0, 0, 0, dhaka)
	w, err := Range(from, to, dhaka)
	require.NoError(t, err)

	lastMilli := time.Date(2024, 3, 14, 23, 59, 59, 999_000_000, dhaka)
	nextDay := time.Date(2024, 3, 15, 0, 0, 0, 0, dhaka)
	first := time.Date(2024, 3, 1, 0, 0, 0, 0, dhaka)

	assert.True(t, w.Contains(lastMilli))
	assert.False(t, w.Contains(nextDay))
	assert.True(t, w.Contains(first))
	assert.False(t, w.Contains(first.Add(-time.Millisecond)))
}

func TestRangeRejectsReversedDates(t *testing.T) {
	_, err := Range(time.Date(2024, 3, 2, 0, 0, 0, 0, dhaka), time.Date(2024, 3, 1, 0, 0, 0, 0, dhaka), dhaka)
	if err == nil {
		t.Fatalf("expected reversed range to be rejected")
	}
}

func TestDayWindowUsesShopLocation(t *testing.T) {
	// 19:00 UTC on the 13th is already the 14th in Dhaka.
	ts := time.Date(2024, 3, 13, 19, 0, 0, 0, time.UTC)
	w := Day(time.Date(2024, 3, 14, 12, 0, 0, 0, dhaka), dhaka)
	if !w.Contains(ts) {
		t.Fatalf("expected %s to fall on 2024-03-14 in Dhaka", ts)
	}
	if w.Label() != "2024-03-14" {
		t.Fatalf("unexpected label %s", w.Label())
	}
}

func TestMonthWindow(t *testing.T) {
	w := Month(time.Date(2024, 2, 10, 0, 0, 0, 0, dhaka), dhaka)
	assert.True(t, w.Contains(time.Date(2024, 2, 29, 23, 0, 0, 0, dhaka)))
	assert.False(t, w.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, dhaka)))
	assert.Equal(t, "2024-02", w.Label())
}

func TestReduceSalesUsesStoredPrices(t *testing.T) {
	records := []domain.Sale{
		sale(1, time.Date(2024, 3, 14, 9, 0, 0, 0, dhaka), 4, "3", "5"),
		sale(2, time.Date(2024, 3, 14, 11, 0, 0, 0, dhaka), 1, "4", "6"),
	}
	summary := ReduceSales(records)
	assert.True(t, summary.TotalRevenue.Equal(dec("26")))
	assert.True(t, summary.TotalProfit.Equal(dec("10")))
	assert.Equal(t, 2, summary.TransactionCount)
}

func TestReduceProcurements(t *testing.T) {
	line := domain.LineItem{Barcode: "001", Quantity: 5, PurchasePrice: dec("4"), SellingPrice: dec("6"), Total: dec("20")}
	records := []domain.Procurement{{ID: 1, Items: []domain.LineItem{line, line}, Total: dec("40")}}
	summary := ReduceProcurements(records)
	assert.True(t, summary.TotalCost.Equal(dec("40")))
	assert.Equal(t, 1, summary.TransactionCount)
}

func TestLowStockCountExcludesOutOfStock(t *testing.T) {
	products := []domain.Product{{Quantity: 0}, {Quantity: 3}, {Quantity: 10}, {Quantity: 50}}
	assert.Equal(t, 2, LowStockCount(products, 10))
}

func TestDashboardIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, dhaka)
	in := Input{
		Products: []domain.Product{{Barcode: "001", Quantity: 4}},
		Sales: []domain.Sale{
			sale(1, time.Date(2024, 3, 14, 9, 0, 0, 0, dhaka), 4, "3", "5"),
			sale(2, time.Date(2024, 3, 2, 9, 0, 0, 0, dhaka), 2, "3", "5"),
			sale(3, time.Date(2024, 2, 28, 9, 0, 0, 0, dhaka), 2, "3", "5"),
		},
		Settings: domain.DefaultSettings(),
	}

	first := BuildDashboard(in, now, dhaka)
	second := BuildDashboard(in, now, dhaka)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	assert.True(t, first.TodaySales.Equal(dec("20")))
	assert.True(t, first.TodayProfit.Equal(dec("8")))
	assert.Equal(t, 1, first.TodayTransactions)
	assert.True(t, first.MonthlySales.Equal(dec("30")))
	assert.Equal(t, 2, first.MonthlyTransactions)
	assert.Equal(t, 1, first.LowStockCount)
}

func TestSalesStatementRowsPerLine(t *testing.T) {
	s := sale(7, time.Date(2024, 3, 14, 9, 0, 0, 0, dhaka), 4, "3", "5")
	s.Items = append(s.Items, domain.LineItem{Name: "Seclo", Quantity: 1, PurchasePrice: dec("5"), SellingPrice: dec("7"), Total: dec("7")})
	in := Input{Sales: []domain.Sale{s}, Settings: domain.DefaultSettings()}

	st := SalesStatement(in, Day(s.Timestamp, dhaka), s.Timestamp)
	require.Len(t, st.Rows, 2)
	assert.False(t, st.Ranged)
	assert.Equal(t, int64(7), st.Rows[1].RecordID)
	assert.True(t, st.Rows[1].Profit.Equal(dec("2")))
	assert.True(t, st.Sales.TotalRevenue.Equal(dec("27")))
	assert.Nil(t, st.Procurements)
}
