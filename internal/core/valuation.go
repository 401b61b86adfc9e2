package core

import "github.com/shopspring/decimal"

// ExtendedAmount returns quantity × unit price. No rounding is applied; amounts are
// rounded only when formatted for display.
func ExtendedAmount(item LineItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

// TaxableAmount returns the item's contribution to the taxable base.
func TaxableAmount(item LineItem) decimal.Decimal {
	if !item.Taxable {
		return decimal.Zero
	}
	return ExtendedAmount(item)
}

// Totals are the derived amounts of a document.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxableBase decimal.Decimal `json:"taxableBase"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeTotals aggregates items into subtotal, taxable base, tax and grand total.
// taxRatePercent is a percentage (8 means 8%). The function is pure.
func ComputeTotals(items []LineItem, taxRatePercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	taxableBase := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(ExtendedAmount(item))
		taxableBase = taxableBase.Add(TaxableAmount(item))
	}
	// Shift(-2) is an exact division by 100.
	tax := taxableBase.Mul(taxRatePercent).Shift(-2)
	return Totals{
		Subtotal:    subtotal,
		TaxableBase: taxableBase,
		Tax:         tax,
		Total:       subtotal.Add(tax),
	}
}

// ComputeTotal returns the grand total of items at taxRatePercent.
func ComputeTotal(items []LineItem, taxRatePercent decimal.Decimal) decimal.Decimal {
	return ComputeTotals(items, taxRatePercent).Total
}
