package receipt

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/trade"
)

//go:embed templates/*.html
var templateFS embed.FS

// RendererConfig holds the shop details printed on every receipt
type RendererConfig struct {
	StoreName string
	Footer    string
	// Location receipts are dated in. Default time.Local.
	Location *time.Location
}

// HTMLRenderer renders orders with the embedded receipt template
type HTMLRenderer struct {
	tmpl   *template.Template
	config RendererConfig
}

// NewHTMLRenderer parses the receipt template
func NewHTMLRenderer(cfg RendererConfig) (*HTMLRenderer, error) {
	if cfg.StoreName == "" {
		cfg.StoreName = "Store"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	funcs := template.FuncMap{
		"formatMoney":    formatMoney,
		"formatDateTime": func(t time.Time) string { return t.In(cfg.Location).Format("2006-01-02 15:04") },
	}
	tmpl, err := template.New("receipt.html").Funcs(funcs).ParseFS(templateFS, "templates/receipt.html")
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl, config: cfg}, nil
}

type receiptData struct {
	StoreName string
	Footer    string
	Order     *trade.PosOrder
}

// RenderHTML renders one order's receipt
func (r *HTMLRenderer) RenderHTML(order *trade.PosOrder) ([]byte, error) {
	if order == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "order is nil", nil)
	}
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, receiptData{
		StoreName: r.config.StoreName,
		Footer:    r.config.Footer,
		Order:     order,
	})
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "execute receipt template", err)
	}
	return buf.Bytes(), nil
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
