package statement

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"pharmapos/internal/domain"
)

var funcs = template.FuncMap{
	"date":  func(st domain.Statement) string { return st.GeneratedAt.Format("2006-01-02 15:04") },
	"money": func(s domain.Settings, v decimal.Decimal) string { return s.FormatMoney(v) },
	"deref": func(v *decimal.Decimal) decimal.Decimal {
		if v == nil {
			return decimal.Zero
		}
		return *v
	},
}

// statementHTMLTmpl is a self-contained printable page. html/template escapes
// every shop and product field.
var statementHTMLTmpl = template.Must(template.New("statement").Funcs(funcs).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 20px; color: #000; background: #fff; }
    .header { text-align: center; margin-bottom: 30px; border-bottom: 2px solid #000; padding-bottom: 20px; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 20px; font-size: 12px; }
    th, td { border: 1px solid #000; padding: 8px; text-align: left; }
    th { background-color: #f0f0f0; }
    .totals { margin-top: 20px; font-weight: bold; border-top: 2px solid #000; padding-top: 10px; }
    .footer { margin-top: 30px; text-align: center; font-size: 12px; color: #666; }
    @media print { body { margin: 0; } }
  </style>
</head>
<body>
  <div class="header">
    <h1>{{.S.Shop.ShopName}}</h1>
    <p>{{.S.Shop.ShopAddress}}</p>
    <p>Phone: {{.S.Shop.ShopPhone}}</p>
    <p><strong>{{.Title}}</strong></p>
    <p>Generated on: {{date .S}}</p>
  </div>
  <table>
    <thead><tr>{{if .S.Ranged}}<th>Date</th>{{end}}<th>Time</th><th>Product</th><th>Quantity</th><th>Purchase Price</th><th>Selling Price</th>{{if .IsSales}}<th>Profit</th>{{end}}<th>Line Total</th></tr></thead>
    <tbody>{{$shop := .S.Shop}}{{$ranged := .S.Ranged}}{{$sales := .IsSales}}{{range .S.Rows}}
      <tr>{{if $ranged}}<td>{{.Timestamp.Format "2006-01-02"}}</td>{{end}}<td>{{.Timestamp.Format "15:04:05"}}</td><td>{{.Product}}</td><td>{{.Quantity}}</td><td>{{money $shop .PurchasePrice}}</td><td>{{money $shop .SellingPrice}}</td>{{if $sales}}<td>{{money $shop .Profit}}</td>{{end}}<td>{{money $shop .LineTotal}}</td></tr>{{else}}
      <tr><td colspan="8">No records in this period.</td></tr>{{end}}
    </tbody>
  </table>
  <div class="totals">{{with .S.Sales}}
    <p>Total Sales: {{money $shop .TotalRevenue}}</p>
    <p>Total Profit: {{money $shop .TotalProfit}}</p>
    <p>Transactions: {{.TransactionCount}}</p>{{end}}{{with .S.Procurements}}
    <p>Total Cost: {{money $shop .TotalCost}}</p>
    <p>Transactions: {{.TransactionCount}}</p>{{end}}
  </div>
  <div class="footer"><p>This is a computer-generated report from {{.S.Shop.ShopName}}</p></div>
</body>
</html>
`))

func Title(st domain.Statement) string {
	kind := "Sales"
	if st.Kind == domain.StatementProcurements {
		kind = "Procurement"
	}
	if !st.Ranged {
		return "Daily " + kind + " Statement - " + st.Label
	}
	return kind + " Statement - " + strings.Replace(st.Label, "-to-", " to ", 1)
}

func HTML(st domain.Statement) (string, error) {
	var buf bytes.Buffer
	err := statementHTMLTmpl.Execute(&buf, struct {
		S       domain.Statement
		Title   string
		IsSales bool
	}{S: st, Title: Title(st), IsSales: st.Kind == domain.StatementSales})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
