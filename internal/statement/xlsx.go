package statement

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pharmapos/internal/domain"
)

// XLSX writes the statement table to a single-sheet workbook followed by the
// totals block.
func XLSX(st domain.Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Statement"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	sales := st.Kind == domain.StatementSales
	rowNum := 1
	put := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		rowNum++
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := put([]any{st.Shop.ShopName}); err != nil {
		return nil, err
	}
	if err := put([]any{Title(st)}); err != nil {
		return nil, err
	}
	rowNum++

	header := []any{}
	if st.Ranged {
		header = append(header, "Date")
	}
	header = append(header, "Time", "Product", "Quantity", "Purchase Price", "Selling Price")
	if sales {
		header = append(header, "Profit")
	}
	header = append(header, "Line Total")
	if err := put(header); err != nil {
		return nil, err
	}

	for _, r := range st.Rows {
		values := []any{}
		if st.Ranged {
			values = append(values, r.Timestamp.Format(dateLayout))
		}
		values = append(values,
			r.Timestamp.Format(timeLayout),
			r.Product,
			r.Quantity,
			r.PurchasePrice.InexactFloat64(),
			r.SellingPrice.InexactFloat64(),
		)
		if sales {
			values = append(values, r.Profit.InexactFloat64())
		}
		values = append(values, r.LineTotal.InexactFloat64())
		if err := put(values); err != nil {
			return nil, err
		}
	}
	rowNum++

	var totals [][]any
	if st.Sales != nil {
		totals = [][]any{
			{"Total Sales", st.Sales.TotalRevenue.InexactFloat64()},
			{"Total Profit", st.Sales.TotalProfit.InexactFloat64()},
			{"Transactions", st.Sales.TransactionCount},
		}
	}
	if st.Procurements != nil {
		totals = [][]any{
			{"Total Cost", st.Procurements.TotalCost.InexactFloat64()},
			{"Transactions", st.Procurements.TransactionCount},
		}
	}
	for _, values := range totals {
		if err := put(values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
