// Package notify fans order events out to email, WhatsApp and Kafka.
package notify

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/phenrril/floodbar/internal/domain"
)

var funcs = template.FuncMap{
	"rp": formatRupiah,
	"kg": func(v float64) string { return decimal.NewFromFloat(v).Round(2).String() },
}

var orderTmpl = template.Must(template.New("order").Funcs(funcs).Parse(
	`{{.Title}}
Pesanan: {{.Order.ID}}
Nama: {{.Order.CustomerName}}
Email: {{.Order.CustomerEmail}}
Telp: {{.Order.CustomerPhone}}
{{if .Order.SelfPickup}}Ambil sendiri di workshop
{{else}}Kirim ke: {{.Order.CustomerAddress}}, {{.Order.CustomerCity}} {{.Order.PostalCode}}
Ekspedisi: {{.Order.ShippingOrigin}} -> {{.Order.ShippingDest}} ({{.Order.ShippingService}}) {{kg .Order.ShippingWeight}} kg
{{end}}Ukuran: {{.Order.Width}} x {{.Order.Height}} cm x {{.Order.Quantity}}
{{- with .Quote}}
Harga/unit: {{rp .Pricing.BasePrice}} ({{rp .Pricing.PricePerCm}}/cm)
{{- range .Costs}}
{{.Description}}: {{rp .Amount}}
{{- end}}
{{- end}}
Subtotal: {{rp .Order.Subtotal}}
Ongkir: {{rp .Order.ShippingCost}}
Biaya admin: {{rp .Order.AdminFee}}
Total: {{rp .Order.GrandTotal}}
Status: {{.Order.Status}} / {{.Order.PaymentStatus}}
{{- if .Order.TrackingNumber}}
Resi: {{.Order.TrackingNumber}}
{{- end}}
{{- if .Order.GatewayInvoiceURL}}
Bayar: {{.Order.GatewayInvoiceURL}}
{{- end}}
`))

func title(k domain.OrderEventKind) string {
	switch k {
	case domain.OrderEventCreated:
		return "PESANAN BARU"
	case domain.OrderEventPaid:
		return "PEMBAYARAN DITERIMA"
	case domain.OrderEventUpdated:
		return "PESANAN DIPERBARUI"
	}
	return strings.ToUpper(string(k))
}

// Subject is the one-line summary used for email subjects.
func Subject(e domain.OrderEvent) string {
	return "FloodBar " + strings.ToLower(title(e.Kind)) + " #" + shortID(e.Order)
}

func shortID(o domain.Order) string {
	s := o.ID.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Render is the plain-text body shared by every channel.
func Render(e domain.OrderEvent) (string, error) {
	var buf bytes.Buffer
	err := orderTmpl.Execute(&buf, struct {
		Title string
		Order domain.Order
		Quote *domain.PriceQuote
	}{title(e.Kind), e.Order, e.Quote})
	return buf.String(), err
}

// formatRupiah renders 1234567.4 as "Rp 1.234.567".
func formatRupiah(v float64) string {
	s := decimal.NewFromFloat(v).Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
