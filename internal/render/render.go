// Package render produces printable and shareable representations of estimates and
// invoices. Every amount it prints is recomputed from the document's items and
// checked against the persisted total.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"estimate-desk/internal/core"
	"estimate-desk/internal/format"
	"estimate-desk/web"
)

// ErrTotalMismatch means the stored total differs from a fresh recomputation.
var ErrTotalMismatch = errors.New("persisted total does not match recomputed total")

// View is the display model of one document.
type View struct {
	Kind           core.DocumentKind
	Title          string
	Number         string
	Company        Party
	Client         Party
	Logo           string
	IssueDate      string
	ValidUntil     string
	DueDate        string
	PaymentStatus  string
	SourceEstimate string
	Items          []ItemRow
	HasTaxable     bool
	Subtotal       string
	TaxableBase    string
	TaxRate        string
	Tax            string
	Total          string
	Notes          string
}

// Party is a name plus its non-empty contact lines.
type Party struct {
	Name  string
	Lines []string
}

type ItemRow struct {
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Amount      string
	Taxable     bool
}

// NewEstimateView builds the view of an estimate addressed to client.
func NewEstimateView(e core.Estimate, client core.Client, settings core.Settings) (*View, error) {
	v, err := newView(core.KindEstimate, e.DocumentCore, e.Total, client, settings)
	if err != nil {
		return nil, fmt.Errorf("estimate %s: %w", e.EstimateNumber, err)
	}
	v.Title = "Estimate"
	v.Number = e.EstimateNumber
	v.ValidUntil = format.Date(e.ValidUntil)
	return v, nil
}

// NewInvoiceView builds the view of an invoice addressed to client.
func NewInvoiceView(inv core.Invoice, client core.Client, settings core.Settings) (*View, error) {
	v, err := newView(core.KindInvoice, inv.DocumentCore, inv.Total, client, settings)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, err)
	}
	v.Title = "Invoice"
	v.Number = inv.InvoiceNumber
	v.DueDate = format.Date(inv.DueDate)
	v.PaymentStatus = "Unpaid"
	if inv.Paid {
		v.PaymentStatus = "Paid"
	}
	if inv.EstimateNumber != nil {
		v.SourceEstimate = *inv.EstimateNumber
	}
	return v, nil
}

func newView(kind core.DocumentKind, doc core.DocumentCore, stored decimal.Decimal, client core.Client, settings core.Settings) (*View, error) {
	totals := doc.Totals()
	if !totals.Total.Equal(stored) {
		return nil, fmt.Errorf("%w: stored %s, recomputed %s", ErrTotalMismatch, stored, totals.Total)
	}

	cur := settings.DefaultCurrency
	v := &View{
		Kind:        kind,
		Company:     Party{Name: settings.CompanyName, Lines: nonEmpty(settings.Address, settings.Phone, settings.Email)},
		Client:      Party{Name: client.Name, Lines: nonEmpty(client.Company, client.Address, client.Email, client.Phone)},
		IssueDate:   format.Date(doc.IssueDate),
		Subtotal:    format.Currency(totals.Subtotal, cur),
		TaxableBase: format.Currency(totals.TaxableBase, cur),
		TaxRate:     format.Percent(doc.TaxRate),
		Tax:         format.Currency(totals.Tax, cur),
		Total:       format.Currency(totals.Total, cur),
		Notes:       strings.TrimSpace(doc.Notes),
	}
	if settings.LogoURI != nil {
		v.Logo = *settings.LogoURI
	}
	for _, item := range doc.Items {
		v.Items = append(v.Items, ItemRow{
			Description: item.Description,
			Quantity:    format.Quantity(item.Quantity),
			Unit:        string(item.Unit),
			UnitPrice:   format.Currency(item.UnitPrice, cur),
			Amount:      format.Currency(core.ExtendedAmount(item), cur),
			Taxable:     item.Taxable,
		})
		v.HasTaxable = v.HasTaxable || item.Taxable
	}
	return v, nil
}

func nonEmpty(fields ...*string) []string {
	var out []string
	for _, f := range fields {
		if f != nil && strings.TrimSpace(*f) != "" {
			out = append(out, strings.TrimSpace(*f))
		}
	}
	return out
}

// ── Output formats ──────────────────────────────────────────────────────────

var funcs = template.FuncMap{
	"join": strings.Join,
	// cell keeps table rows intact.
	"cell": func(s string) string {
		s = strings.ReplaceAll(s, "|", `\|`)
		return strings.Join(strings.Fields(s), " ")
	},
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders the document as a markdown page.
func Markdown(v *View) (string, error) {
	return renderTemplate("document.md.tmpl", v)
}

// HTML renders the document as a standalone printable HTML page.
func HTML(v *View) (string, error) {
	md, err := Markdown(v)
	if err != nil {
		return "", err
	}
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return renderTemplate("document.html.tmpl", struct {
		*View
		Body string
	}{v, body.String()})
}

// ShareText renders the short plain-text message used when sharing a document.
func ShareText(v *View) (string, error) {
	s, err := renderTemplate("share.txt.tmpl", v)
	return strings.TrimSpace(s), err
}

func renderTemplate(file string, data any) (string, error) {
	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return "", fmt.Errorf("open templates: %w", err)
	}
	content, err := fs.ReadFile(templates, file)
	if err != nil {
		return "", fmt.Errorf("read template %q: %w", file, err)
	}
	tmpl, err := template.New(file).Funcs(funcs).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", file, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", file, err)
	}
	return b.String(), nil
}
