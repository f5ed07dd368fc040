package report

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/internal/domain"
	"pharmapos/internal/ledger"
)

// Everything in this package is a pure function of its arguments.

func FilterSales(records []domain.Sale, w Window) []domain.Sale {
	out := make([]domain.Sale, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Timestamp) {
			out = append(out, r)
		}
	}
	return out
}

func FilterProcurements(records []domain.Procurement, w Window) []domain.Procurement {
	out := make([]domain.Procurement, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Timestamp) {
			out = append(out, r)
		}
	}
	return out
}

// ReduceSales totals revenue and profit from the prices stored on each line.
func ReduceSales(records []domain.Sale) domain.SalesSummary {
	summary := domain.SalesSummary{
		TotalRevenue:     decimal.Zero,
		TotalProfit:      decimal.Zero,
		TransactionCount: len(records),
	}
	for _, r := range records {
		for _, line := range r.Items {
			summary.TotalRevenue = summary.TotalRevenue.Add(line.Total)
			summary.TotalProfit = summary.TotalProfit.Add(line.Profit())
		}
	}
	return summary
}

func ReduceProcurements(records []domain.Procurement) domain.ProcurementSummary {
	summary := domain.ProcurementSummary{
		TotalCost:        decimal.Zero,
		TransactionCount: len(records),
	}
	for _, r := range records {
		for _, line := range r.Items {
			summary.TotalCost = summary.TotalCost.Add(line.Total)
		}
	}
	return summary
}

// LowStockCount counts low-stock products. Out-of-stock ones are not included.
func LowStockCount(products []domain.Product, threshold int) int {
	return countStatus(products, threshold, domain.StockLow)
}

func countStatus(products []domain.Product, threshold int, status domain.StockStatus) int {
	n := 0
	for _, p := range products {
		if ledger.Classify(p, threshold) == status {
			n++
		}
	}
	return n
}

type Input struct {
	Products     []domain.Product
	Sales        []domain.Sale
	Procurements []domain.Procurement
	Settings     domain.Settings
}

func BuildDashboard(in Input, now time.Time, loc *time.Location) domain.Dashboard {
	today := Day(now, loc)
	month := Month(now, loc)

	daily := ReduceSales(FilterSales(in.Sales, today))
	monthly := ReduceSales(FilterSales(in.Sales, month))
	purchases := ReduceProcurements(FilterProcurements(in.Procurements, month))

	return domain.Dashboard{
		Date:                today.Label(),
		TodaySales:          daily.TotalRevenue,
		TodayProfit:         daily.TotalProfit,
		TodayTransactions:   daily.TransactionCount,
		LowStockCount:       LowStockCount(in.Products, in.Settings.LowStockThreshold),
		MonthlySales:        monthly.TotalRevenue,
		MonthlyProfit:       monthly.TotalProfit,
		MonthlyPurchases:    purchases.TotalCost,
		MonthlyTransactions: monthly.TransactionCount,
		ProductCount:        len(in.Products),
		OutOfStockCount:     countStatus(in.Products, in.Settings.LowStockThreshold, domain.StockOut),
	}
}

// SalesStatement lists one row per line item of every sale in the window.
func SalesStatement(in Input, w Window, generatedAt time.Time) domain.Statement {
	records := FilterSales(in.Sales, w)
	rows := make([]domain.StatementRow, 0, len(records))
	for _, r := range records {
		for _, line := range r.Items {
			rows = append(rows, statementRow(r.ID, r.Timestamp, line, w.Start.Location()))
		}
	}
	summary := ReduceSales(records)
	return domain.Statement{
		Kind:        domain.StatementSales,
		Period:      string(w.Period),
		Label:       w.Label(),
		Ranged:      w.Period != PeriodDay,
		GeneratedAt: generatedAt,
		Shop:        in.Settings,
		Rows:        rows,
		Sales:       &summary,
	}
}

func ProcurementStatement(in Input, w Window, generatedAt time.Time) domain.Statement {
	records := FilterProcurements(in.Procurements, w)
	rows := make([]domain.StatementRow, 0, len(records))
	for _, r := range records {
		for _, line := range r.Items {
			rows = append(rows, statementRow(r.ID, r.Timestamp, line, w.Start.Location()))
		}
	}
	summary := ReduceProcurements(records)
	return domain.Statement{
		Kind:         domain.StatementProcurements,
		Period:       string(w.Period),
		Label:        w.Label(),
		Ranged:       w.Period != PeriodDay,
		GeneratedAt:  generatedAt,
		Shop:         in.Settings,
		Rows:         rows,
		Procurements: &summary,
	}
}

func statementRow(id int64, ts time.Time, line domain.LineItem, loc *time.Location) domain.StatementRow {
	return domain.StatementRow{
		Timestamp:     ts.In(loc),
		RecordID:      id,
		Product:       line.Name,
		Quantity:      line.Quantity,
		PurchasePrice: line.PurchasePrice,
		SellingPrice:  line.SellingPrice,
		Profit:        line.Profit(),
		LineTotal:     line.Total,
	}
}
