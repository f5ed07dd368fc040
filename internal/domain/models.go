package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product JSON names match the blob layout written by earlier browser builds
// so exported data can be loaded unchanged.
type Product struct {
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Company       string          `json:"company"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
}

type StockStatus string

const (
	StockIn  StockStatus = "in-stock"
	StockLow StockStatus = "low-stock"
	StockOut StockStatus = "out-of-stock"
)

type LineItem struct {
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	Total         decimal.Decimal `json:"total"`
}

// Profit uses the prices captured on the line, never the current catalog.
func (l LineItem) Profit() decimal.Decimal {
	return l.SellingPrice.Sub(l.PurchasePrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Sale struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

type Procurement struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

type DarkMode string

const (
	DarkModeLight DarkMode = "light"
	DarkModeDark  DarkMode = "dark"
	DarkModeAuto  DarkMode = "auto"
)

type Settings struct {
	ShopName          string   `json:"shopName"`
	ShopAddress       string   `json:"shopAddress"`
	ShopPhone         string   `json:"shopPhone"`
	LowStockThreshold int      `json:"lowStockThreshold"`
	Currency          string   `json:"currency"`
	DarkMode          DarkMode `json:"darkMode"`
}

func DefaultSettings() Settings {
	return Settings{
		ShopName:          "Sonar Bangla Pharmacy",
		ShopAddress:       "Idelpur, Sadullahpur, Gaibandha",
		ShopPhone:         "01707459702",
		LowStockThreshold: 10,
		Currency:          "৳",
		DarkMode:          DarkModeLight,
	}
}

// FormatMoney renders an amount the way printed documents show it.
func (s Settings) FormatMoney(amount decimal.Decimal) string {
	return s.Currency + amount.StringFixed(2)
}

type SettingsUpdate struct {
	ShopName          *string   `json:"shop_name,omitempty"`
	ShopAddress       *string   `json:"shop_address,omitempty"`
	ShopPhone         *string   `json:"shop_phone,omitempty"`
	LowStockThreshold *int      `json:"low_stock_threshold,omitempty"`
	Currency          *string   `json:"currency,omitempty"`
	DarkMode          *DarkMode `json:"dark_mode,omitempty"`
}

type ProductCreateRequest struct {
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Company       string          `json:"company"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
}

type ProductView struct {
	Product
	Status StockStatus `json:"status"`
}

type ProfitPreview struct {
	Profit        decimal.Decimal `json:"profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

type SaleLineRequest struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity"`
}

type ProcurementLineRequest struct {
	Barcode       string          `json:"barcode"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
}

type BatchView struct {
	Kind  string          `json:"kind"`
	State string          `json:"state"`
	Lines []LineItem      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type SaleCompleteRequest struct {
	Received *decimal.Decimal `json:"received,omitempty"`
}

type SaleResult struct {
	Sale    Sale             `json:"sale"`
	Change  *decimal.Decimal `json:"change,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

type ProcurementResult struct {
	Procurement Procurement `json:"procurement"`
	Warning     string      `json:"warning,omitempty"`
}

type SalesSummary struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	TransactionCount int             `json:"transaction_count"`
}

type ProcurementSummary struct {
	TotalCost        decimal.Decimal `json:"total_cost"`
	TransactionCount int             `json:"transaction_count"`
}

type Dashboard struct {
	Date                string          `json:"date"`
	TodaySales          decimal.Decimal `json:"today_sales"`
	TodayProfit         decimal.Decimal `json:"today_profit"`
	TodayTransactions   int             `json:"today_transactions"`
	LowStockCount       int             `json:"low_stock_count"`
	MonthlySales        decimal.Decimal `json:"monthly_sales"`
	MonthlyProfit       decimal.Decimal `json:"monthly_profit"`
	MonthlyPurchases    decimal.Decimal `json:"monthly_purchases"`
	MonthlyTransactions int             `json:"monthly_transactions"`
	ProductCount        int             `json:"product_count"`
	OutOfStockCount     int             `json:"out_of_stock_count"`
}

type StatementKind string

const (
	StatementSales        StatementKind = "sales"
	StatementProcurements StatementKind = "procurements"
)

type StatementRow struct {
	Timestamp     time.Time       `json:"timestamp"`
	RecordID      int64           `json:"record_id"`
	Product       string          `json:"product"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Profit        decimal.Decimal `json:"profit"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// Statement is the aggregated table every export format renders from.
// Sales is set for sales statements, Procurements for procurement ones.
type Statement struct {
	Kind         StatementKind       `json:"kind"`
	Period       string              `json:"period"`
	Label        string              `json:"label"`
	Ranged       bool                `json:"ranged"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Shop         Settings            `json:"shop"`
	Rows         []StatementRow      `json:"rows"`
	Sales        *SalesSummary       `json:"sales,omitempty"`
	Procurements *ProcurementSummary `json:"procurements,omitempty"`
}

type Receipt struct {
	Shop      Settings         `json:"shop"`
	SaleID    int64            `json:"sale_id"`
	Timestamp time.Time        `json:"timestamp"`
	Items     []LineItem       `json:"items"`
	Total     decimal.Decimal  `json:"total"`
	Received  *decimal.Decimal `json:"received,omitempty"`
	Change    *decimal.Decimal `json:"change,omitempty"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type ResetRequest struct {
	Confirm string `json:"confirm"`
}
