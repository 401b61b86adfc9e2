package app

import (
	"estimate-desk/internal/core"

	"github.com/shopspring/decimal"
)

// ClientRequest is the input for creating or updating a client.
// Blank optional fields are stored as absent.
type ClientRequest struct {
	Name    string
	Phone   *string
	Email   *string
	Address *string
	Company *string
}

// LineItemInput is a single line within a DocumentRequest. An empty ID means a new item.
type LineItemInput struct {
	ID          string
	Description string
	Quantity    decimal.Decimal
	Unit        core.Unit
	UnitPrice   decimal.Decimal
	Taxable     bool
}

// DocumentRequest is the input for creating or updating an estimate or invoice.
//
// On create, empty or nil fields fall back to Settings and today's date.
// On update, they keep the stored value; nil Items keeps the stored items while an
// empty non-nil slice clears them.
type DocumentRequest struct {
	ClientID   string
	IssueDate  string // YYYY-MM-DD
	ValidUntil string // estimates only
	DueDate    string // invoices only
	TaxRate    *decimal.Decimal
	Notes      *string
	Items      []LineItemInput
}

// SettingsRequest updates the installation settings. Nil fields are left unchanged;
// a pointer to an empty string clears an optional field.
type SettingsRequest struct {
	CompanyName       *string
	Phone             *string
	Email             *string
	Address           *string
	LogoURI           *string
	DefaultTaxRate    *decimal.Decimal
	DefaultCurrency   *string
	DefaultNote       *string
	EnableItemTaxable *bool
}

// EstimateFilter narrows ListEstimates. Query matches the estimate number or notes.
type EstimateFilter struct {
	Query    string
	Status   string // "", "draft", "sent" or "converted"
	ClientID string
}

// Invoice payment filters.
const (
	InvoiceStatusAll     = ""
	InvoiceStatusPaid    = "paid"
	InvoiceStatusUnpaid  = "unpaid"
	InvoiceStatusOverdue = "overdue"
)

// InvoiceFilter narrows ListInvoices. Query matches the invoice number, the notes or
// the client's name.
type InvoiceFilter struct {
	Query    string
	Status   string
	ClientID string
}

// DocumentFormat selects the output of RenderDocument.
type DocumentFormat string

const (
	FormatMarkdown DocumentFormat = "markdown"
	FormatHTML     DocumentFormat = "html"
	FormatShare    DocumentFormat = "share"
)

// RefKind selects the collection ResolveRef searches.
type RefKind string

const (
	RefClient   RefKind = "client"
	RefEstimate RefKind = "estimate"
	RefInvoice  RefKind = "invoice"
)
