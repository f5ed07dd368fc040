package statement

import (
	"fmt"

	"github.com/gocarina/gocsv"

	"pharmapos/internal/domain"
)

// Column order and header text are what existing spreadsheets expect.

type dailySalesRow struct {
	Time          string `csv:"Time"`
	Product       string `csv:"Product"`
	Quantity      int    `csv:"Quantity"`
	PurchasePrice string `csv:"Purchase Price"`
	SellingPrice  string `csv:"Selling Price"`
	Profit        string `csv:"Profit"`
	LineTotal     string `csv:"Line Total"`
}

type rangeSalesRow struct {
	Date          string `csv:"Date"`
	Time          string `csv:"Time"`
	Product       string `csv:"Product"`
	Quantity      int    `csv:"Quantity"`
	PurchasePrice string `csv:"Purchase Price"`
	SellingPrice  string `csv:"Selling Price"`
	Profit        string `csv:"Profit"`
	LineTotal     string `csv:"Line Total"`
}

type dailyProcurementRow struct {
	Time          string `csv:"Time"`
	Product       string `csv:"Product"`
	Quantity      int    `csv:"Quantity"`
	PurchasePrice string `csv:"Purchase Price"`
	SellingPrice  string `csv:"Selling Price"`
	LineTotal     string `csv:"Line Total"`
}

type rangeProcurementRow struct {
	Date          string `csv:"Date"`
	Time          string `csv:"Time"`
	Product       string `csv:"Product"`
	Quantity      int    `csv:"Quantity"`
	PurchasePrice string `csv:"Purchase Price"`
	SellingPrice  string `csv:"Selling Price"`
	LineTotal     string `csv:"Line Total"`
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// CSV renders the statement table. Fields holding commas are quoted.
func CSV(st domain.Statement) (string, error) {
	switch {
	case st.Kind == domain.StatementSales && !st.Ranged:
		rows := make([]dailySalesRow, 0, len(st.Rows))
		for _, r := range st.Rows {
			rows = append(rows, dailySalesRow{
				Time:          r.Timestamp.Format(timeLayout),
				Product:       r.Product,
				Quantity:      r.Quantity,
				PurchasePrice: r.PurchasePrice.String(),
				SellingPrice:  r.SellingPrice.String(),
				Profit:        r.Profit.String(),
				LineTotal:     r.LineTotal.String(),
			})
		}
		return gocsv.MarshalString(&rows)
	case st.Kind == domain.StatementSales:
		rows := make([]rangeSalesRow, 0, len(st.Rows))
		for _, r := range st.Rows {
			rows = append(rows, rangeSalesRow{
				Date:          r.Timestamp.Format(dateLayout),
				Time:          r.Timestamp.Format(timeLayout),
				Product:       r.Product,
				Quantity:      r.Quantity,
				PurchasePrice: r.PurchasePrice.String(),
				SellingPrice:  r.SellingPrice.String(),
				Profit:        r.Profit.String(),
				LineTotal:     r.LineTotal.String(),
			})
		}
		return gocsv.MarshalString(&rows)
	case st.Kind == domain.StatementProcurements && !st.Ranged:
		rows := make([]dailyProcurementRow, 0, len(st.Rows))
		for _, r := range st.Rows {
			rows = append(rows, dailyProcurementRow{
				Time:          r.Timestamp.Format(timeLayout),
				Product:       r.Product,
				Quantity:      r.Quantity,
				PurchasePrice: r.PurchasePrice.String(),
				SellingPrice:  r.SellingPrice.String(),
				LineTotal:     r.LineTotal.String(),
			})
		}
		return gocsv.MarshalString(&rows)
	case st.Kind == domain.StatementProcurements:
		rows := make([]rangeProcurementRow, 0, len(st.Rows))
		for _, r := range st.Rows {
			rows = append(rows, rangeProcurementRow{
				Date:          r.Timestamp.Format(dateLayout),
				Time:          r.Timestamp.Format(timeLayout),
				Product:       r.Product,
				Quantity:      r.Quantity,
				PurchasePrice: r.PurchasePrice.String(),
				SellingPrice:  r.SellingPrice.String(),
				LineTotal:     r.LineTotal.String(),
			})
		}
		return gocsv.MarshalString(&rows)
	default:
		return "", fmt.Errorf("unknown statement kind %q", st.Kind)
	}
}

// FileName is the download name for an export, ext without the dot.
func FileName(st domain.Statement, ext string) string {
	prefix := "daily-sales"
	switch {
	case st.Kind == domain.StatementSales && st.Ranged:
		prefix = "sales-range"
	case st.Kind == domain.StatementProcurements && st.Ranged:
		prefix = "procurement-range"
	case st.Kind == domain.StatementProcurements:
		prefix = "daily-procurement"
	}
	return fmt.Sprintf("%s-%s.%s", prefix, st.Label, ext)
}
