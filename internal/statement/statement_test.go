package statement

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pharmapos/internal/domain"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func salesStatement(ranged bool, product string) domain.Statement {
	summary := domain.SalesSummary{TotalRevenue: dec("20"), TotalProfit: dec("8"), TransactionCount: 1}
	label := "2024-03-14"
	if ranged {
		label = "2024-03-01-to-2024-03-14"
	}
	return domain.Statement{
		Kind:        domain.StatementSales,
		Label:       label,
		Ranged:      ranged,
		GeneratedAt: time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC),
		Shop:        domain.DefaultSettings(),
		Rows: []domain.StatementRow{{
			Timestamp:     time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC),
			RecordID:      1,
			Product:       product,
			Quantity:      4,
			PurchasePrice: dec("3"),
			SellingPrice:  dec("5"),
			Profit:        dec("8"),
			LineTotal:     dec("20"),
		}},
		Sales: &summary,
	}
}

func TestDailySalesCSV(t *testing.T) {
	out, err := CSV(salesStatement(false, "Napa 500mg"))
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	want := "Time,Product,Quantity,Purchase Price,Selling Price,Profit,Line Total\n" +
		"09:00:00,Napa 500mg,4,3,5,8,20\n"
	if out != want {
		t.Fatalf("unexpected csv:\n%s", out)
	}
}

func TestRangeSalesCSVQuotesCommas(t *testing.T) {
	out, err := CSV(salesStatement(true, "Napa, 500mg"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Time,Product,Quantity,Purchase Price,Selling Price,Profit,Line Total", lines[0])
	assert.Equal(t, `2024-03-14,09:00:00,"Napa, 500mg",4,3,5,8,20`, lines[1])
}

func TestProcurementCSVHasNoProfitColumn(t *testing.T) {
	st := salesStatement(false, "Napa")
	st.Kind = domain.StatementProcurements
	st.Sales = nil
	out, err := CSV(st)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Time,Product,Quantity,Purchase Price,Selling Price,Line Total\n"))
	assert.Equal(t, "daily-procurement-2024-03-14.csv", FileName(st, "csv"))

	st.Ranged = true
	out, err = CSV(st)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Date,Time,Product,Quantity,Purchase Price,Selling Price,Line Total\n"))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "daily-sales-2024-03-14.csv", FileName(salesStatement(false, "x"), "csv"))
	assert.Equal(t, "sales-range-2024-03-01-to-2024-03-14.xlsx", FileName(salesStatement(true, "x"), "xlsx"))
}

func TestHTMLEscapesProductNames(t *testing.T) {
	out, err := HTML(salesStatement(false, "<script>alert(1)</script>"))
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "Sonar Bangla Pharmacy")
	assert.Contains(t, out, "Daily Sales Statement - 2024-03-14")
	assert.Contains(t, out, "Total Profit: ৳8.00")
}

func TestXLSXContainsTable(t *testing.T) {
	data, err := XLSX(salesStatement(false, "Napa 500mg"))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Statement", "A4")
	require.NoError(t, err)
	assert.Equal(t, "Time", header)
	product, err := f.GetCellValue("Statement", "B5")
	require.NoError(t, err)
	assert.Equal(t, "Napa 500mg", product)
}

func TestReceiptText(t *testing.T) {
	received := dec("50")
	change := dec("30")
	r := domain.Receipt{
		Shop:      domain.DefaultSettings(),
		SaleID:    42,
		Timestamp: time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC),
		Items:     []domain.LineItem{{Name: "Napa 500mg", Quantity: 4, Total: dec("20")}},
		Total:     dec("20"),
		Received:  &received,
		Change:    &change,
	}
	out := ReceiptText(r)
	assert.Contains(t, out, "Napa 500mg x4")
	assert.Contains(t, out, "৳20.00")
	assert.Contains(t, out, "৳30.00")
	assert.Contains(t, out, "Thank you for your purchase!")

	html, err := ReceiptHTML(r)
	require.NoError(t, err)
	assert.Contains(t, html, "Change: ৳30.00")
}
