package statement

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"pharmapos/internal/domain"
)

const receiptWidth = 40

// ReceiptText lays the receipt out for a narrow thermal printer.
func ReceiptText(r domain.Receipt) string {
	var b strings.Builder
	center := func(s string) {
		pad := (receiptWidth - len([]rune(s))) / 2
		if pad < 0 {
			pad = 0
		}
		b.WriteString(strings.Repeat(" ", pad) + s + "\n")
	}
	pair := func(left string, right string) {
		gap := receiptWidth - len([]rune(left)) - len([]rune(right))
		if gap < 1 {
			gap = 1
		}
		b.WriteString(left + strings.Repeat(" ", gap) + right + "\n")
	}
	rule := strings.Repeat("-", receiptWidth) + "\n"

	center(r.Shop.ShopName)
	center(r.Shop.ShopAddress)
	center("Phone: " + r.Shop.ShopPhone)
	b.WriteString(rule)
	pair("Receipt #"+fmt.Sprint(r.SaleID), r.Timestamp.Format("2006-01-02 15:04"))
	b.WriteString(rule)
	for _, item := range r.Items {
		pair(fmt.Sprintf("%s x%d", item.Name, item.Quantity), r.Shop.FormatMoney(item.Total))
	}
	b.WriteString(rule)
	pair("Total", r.Shop.FormatMoney(r.Total))
	if r.Received != nil {
		pair("Received", r.Shop.FormatMoney(*r.Received))
	}
	if r.Change != nil {
		pair("Change", r.Shop.FormatMoney(*r.Change))
	}
	b.WriteString(rule)
	center("Thank you for your purchase!")
	center("Please visit again")
	return b.String()
}

var receiptHTMLTmpl = template.Must(template.New("receipt").Funcs(funcs).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Receipt {{.SaleID}}</title>
  <style>
    body { font-family: monospace; width: 300px; margin: 0 auto; }
    .receipt-header, .receipt-footer { text-align: center; }
    .receipt-item { display: flex; justify-content: space-between; }
    .receipt-total { border-top: 1px dashed #000; margin-top: 8px; padding-top: 8px; text-align: right; }
  </style>
</head>
<body>
  <div class="receipt-header">
    <h2>{{.Shop.ShopName}}</h2>
    <p>{{.Shop.ShopAddress}}</p>
    <p>Phone: {{.Shop.ShopPhone}}</p>
    <p>Date: {{.Timestamp.Format "2006-01-02 15:04:05"}}</p>
  </div>
  <div class="receipt-items">{{$shop := .Shop}}{{range .Items}}
    <div class="receipt-item"><span>{{.Name}} x{{.Quantity}}</span><span>{{money $shop .Total}}</span></div>{{end}}
  </div>
  <div class="receipt-total">
    <strong>Total: {{money .Shop .Total}}</strong>{{if .Received}}
    <p>Received: {{money .Shop (deref .Received)}}</p>{{end}}{{if .Change}}
    <p>Change: {{money .Shop (deref .Change)}}</p>{{end}}
  </div>
  <div class="receipt-footer">
    <p>Thank you for your purchase!</p>
    <p>Please visit again</p>
  </div>
</body>
</html>
`))

func ReceiptHTML(r domain.Receipt) (string, error) {
	var buf bytes.Buffer
	if err := receiptHTMLTmpl.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}
