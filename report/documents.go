package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/carrierdesk/carrierdesk/internal/bilty"
	"github.com/carrierdesk/carrierdesk/internal/challan"
	"github.com/carrierdesk/carrierdesk/internal/shared"
	"github.com/carrierdesk/carrierdesk/web"
)

// HTMLRenderer converts an HTML page into PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// DocumentRenderer prints bilties and challans.
type DocumentRenderer struct {
	pdf     HTMLRenderer
	company string
	tmpl    *template.Template
}

type printView[T any] struct {
	Company         string
	Ref             string
	Date            string
	PaymentMode     string
	HasInvoiceValue bool
	Doc             T
}

// NewDocumentRenderer parses the embedded print templates.
func NewDocumentRenderer(pdf HTMLRenderer, company string) (*DocumentRenderer, error) {
	tmpl, err := template.New("print").Funcs(template.FuncMap{
		"money": shared.FormatRupees,
	}).ParseFS(web.Templates, "templates/print/*.html")
	if err != nil {
		return nil, fmt.Errorf("report: parse print templates: %w", err)
	}
	return &DocumentRenderer{pdf: pdf, company: company, tmpl: tmpl}, nil
}

// BiltyHTML renders the printable HTML for a bilty.
func (r *DocumentRenderer) BiltyHTML(b bilty.Bilty) (string, error) {
	return r.execute("bilty.html", printView[bilty.Bilty]{
		Company:         r.company,
		Ref:             DocumentRef(b.Number, b.Scope),
		Date:            formatDate(b.Date),
		PaymentMode:     paymentLabel(b.PaymentMode),
		HasInvoiceValue: b.InvoiceValue.IsPositive(),
		Doc:             b,
	})
}

// ChallanHTML renders the printable HTML for a challan.
func (r *DocumentRenderer) ChallanHTML(c challan.Challan) (string, error) {
	return r.execute("challan.html", printView[challan.Challan]{
		Company: r.company,
		Ref:     DocumentRef(c.Number, c.Scope),
		Date:    formatDate(c.Date),
		Doc:     c,
	})
}

// RenderBilty prints a bilty to PDF.
func (r *DocumentRenderer) RenderBilty(ctx context.Context, b bilty.Bilty) ([]byte, error) {
	html, err := r.BiltyHTML(b)
	if err != nil {
		return nil, err
	}
	return r.pdf.RenderHTML(ctx, html)
}

// RenderChallan prints a challan to PDF.
func (r *DocumentRenderer) RenderChallan(ctx context.Context, c challan.Challan) ([]byte, error) {
	html, err := r.ChallanHTML(c)
	if err != nil {
		return nil, err
	}
	return r.pdf.RenderHTML(ctx, html)
}

func (r *DocumentRenderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("report: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// DocumentRef is the printed document number, e.g. "42/2024-25". Global scope prints the bare number.
func DocumentRef(number int64, scope string) string {
	if scope == "" {
		return fmt.Sprintf("%d", number)
	}
	return fmt.Sprintf("%d/%s", number, scope)
}

func formatDate(t time.Time) string {
	return t.Format("02-01-2006")
}

func paymentLabel(mode bilty.PaymentMode) string {
	return strings.ToUpper(strings.ReplaceAll(string(mode), "_", " "))
}
