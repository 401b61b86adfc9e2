package render_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"estimate-desk/internal/core"
	"estimate-desk/internal/render"
)

func fixture() (core.Estimate, core.Invoice, core.Client, core.Settings) {
	items := []core.LineItem{
		{ID: "a", Description: "Design | layout", Quantity: decimal.NewFromInt(2), Unit: core.UnitHours, UnitPrice: decimal.NewFromInt(50), Taxable: true},
		{ID: "b", Description: "Build", Quantity: decimal.NewFromInt(1), Unit: core.UnitDays, UnitPrice: decimal.NewFromInt(200)},
	}
	doc := core.DocumentCore{ClientID: "c1", IssueDate: "2024-03-15", Items: items, TaxRate: decimal.NewFromInt(8), Notes: "Net 30"}
	est := core.Estimate{ID: "e1", EstimateNumber: "EST-0001", DocumentCore: doc, ValidUntil: "2024-04-14", Total: doc.Totals().Total}
	number := "EST-0001"
	inv := core.Invoice{ID: "i1", InvoiceNumber: "INV-0001", DocumentCore: doc, DueDate: "2024-04-14", Total: doc.Totals().Total, EstimateNumber: &number}

	company := "Acme Corp"
	client := core.Client{ID: "c1", Name: "Jane Doe", Company: &company}
	settings := core.DefaultSettings()
	settings.CompanyName = "Studio Nine"
	return est, inv, client, settings
}

func TestMarkdown_Estimate(t *testing.T) {
	est, _, client, settings := fixture()
	v, err := render.NewEstimateView(est, client, settings)
	if err != nil {
		t.Fatalf("NewEstimateView: %v", err)
	}
	md, err := render.Markdown(v)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{
		"# Studio Nine",
		"## Estimate EST-0001",
		"| Issue date | 03/15/2024 |",
		"| Valid until | 04/14/2024 |",
		"**Jane Doe**",
		"Acme Corp",
		`Design \| layout`,
		"| 2 | hours | $50.00 | $100.00 |",
		"| Subtotal | $300.00 |",
		"| Tax 8% | $8.00 |",
		"**$308.00**",
		"Net 30",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in markdown:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Due date") {
		t.Errorf("estimate should not print a due date")
	}
}

func TestHTML_Invoice(t *testing.T) {
	_, inv, client, settings := fixture()
	v, err := render.NewInvoiceView(inv, client, settings)
	if err != nil {
		t.Fatalf("NewInvoiceView: %v", err)
	}
	html, err := render.HTML(v)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	for _, want := range []string{"<title>Invoice INV-0001</title>", "<table>", "Due date", "Unpaid", "$308.00", "EST-0001"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in html", want)
		}
	}
}

func TestShareText(t *testing.T) {
	est, _, client, settings := fixture()
	v, err := render.NewEstimateView(est, client, settings)
	if err != nil {
		t.Fatalf("NewEstimateView: %v", err)
	}
	text, err := render.ShareText(v)
	if err != nil {
		t.Fatalf("ShareText: %v", err)
	}
	if !strings.HasPrefix(text, "Estimate: EST-0001\nClient: Jane Doe") {
		t.Errorf("unexpected share text:\n%s", text)
	}
	if !strings.Contains(text, "- Build: 1 days × $200.00 = $200.00") {
		t.Errorf("expected item line in:\n%s", text)
	}
	if !strings.HasSuffix(text, "Notes: Net 30") {
		t.Errorf("expected notes at the end:\n%s", text)
	}
}

func TestNewView_RejectsStaleTotal(t *testing.T) {
	est, inv, client, settings := fixture()
	est.Total = decimal.NewFromInt(300)
	if _, err := render.NewEstimateView(est, client, settings); !errors.Is(err, render.ErrTotalMismatch) {
		t.Errorf("expected ErrTotalMismatch, got %v", err)
	}
	inv.Total = decimal.NewFromInt(1)
	if _, err := render.NewInvoiceView(inv, client, settings); !errors.Is(err, render.ErrTotalMismatch) {
		t.Errorf("expected ErrTotalMismatch, got %v", err)
	}
}
