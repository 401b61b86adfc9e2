package app

import "estimate-desk/internal/core"

// ClientListResult is returned by ListClients.
type ClientListResult struct {
	Clients []core.Client `json:"clients"`
}

// ClientResult is returned by client operations.
type ClientResult struct {
	Summary core.ClientSummary `json:"summary"`
}

// EstimateResult is returned by estimate operations. Client is nil for a draft that
// has no client yet.
type EstimateResult struct {
	Estimate *core.Estimate `json:"estimate"`
	Client   *core.Client   `json:"client,omitempty"`
	Totals   core.Totals    `json:"totals"`
}

// EstimateRow is one line of an estimate list.
type EstimateRow struct {
	Estimate   core.Estimate `json:"estimate"`
	ClientName string        `json:"clientName"`
}

// EstimateListResult is returned by ListEstimates.
type EstimateListResult struct {
	Estimates []EstimateRow `json:"estimates"`
}

// InvoiceResult is returned by invoice operations.
type InvoiceResult struct {
	Invoice *core.Invoice `json:"invoice"`
	Client  *core.Client  `json:"client,omitempty"`
	Totals  core.Totals   `json:"totals"`
	Overdue bool          `json:"overdue"`
}

// InvoiceRow is one line of an invoice list.
type InvoiceRow struct {
	Invoice    core.Invoice `json:"invoice"`
	ClientName string       `json:"clientName"`
	Overdue    bool         `json:"overdue"`
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Invoices []InvoiceRow `json:"invoices"`
}

// ConversionResult is returned by ConvertEstimate.
type ConversionResult struct {
	Estimate *core.Estimate `json:"estimate"`
	Invoice  *core.Invoice  `json:"invoice"`
}

// RenderResult is returned by RenderDocument.
type RenderResult struct {
	Kind        core.DocumentKind `json:"kind"`
	Number      string            `json:"number"`
	Format      DocumentFormat    `json:"format"`
	ContentType string            `json:"contentType"`
	Body        string            `json:"body"`
}

// DraftResult is returned by DraftLineItems. Items passed validation; Rejected lists
// the proposals that did not.
type DraftResult struct {
	Items      []core.LineItem  `json:"items"`
	Rejected   []DraftRejection `json:"rejected,omitempty"`
	Reasoning  string           `json:"reasoning"`
	Confidence float64          `json:"confidence"`
}

// DraftRejection explains why a proposed line item was dropped.
type DraftRejection struct {
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// ConsistencyResult is returned by CheckConsistency.
type ConsistencyResult struct {
	Issues []core.Issue `json:"issues"`
	Severe int          `json:"severe"`
}
