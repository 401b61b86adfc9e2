package core

import "github.com/shopspring/decimal"

// Client is a customer that estimates and invoices are addressed to.
// Optional fields are nil when absent. Saves trim them and store a blank value as nil.
type Client struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Company *string `json:"company,omitempty"`
}

// Settings is the installation-wide configuration used to seed new documents and
// to print the company header. DefaultTaxRate is a percentage.
type Settings struct {
	CompanyName       string          `json:"companyName"`
	Phone             *string         `json:"phone,omitempty"`
	Email             *string         `json:"email,omitempty"`
	Address           *string         `json:"address,omitempty"`
	LogoURI           *string         `json:"logoUri,omitempty"`
	DefaultTaxRate    decimal.Decimal `json:"defaultTaxRate"`
	DefaultCurrency   string          `json:"defaultCurrency"`
	DefaultNote       *string         `json:"defaultNote,omitempty"`
	EnableItemTaxable bool            `json:"enableItemTaxable"`
}

// DefaultSettings returns the settings used before the user saved any.
func DefaultSettings() Settings {
	return Settings{
		CompanyName:       "",
		DefaultTaxRate:    decimal.NewFromInt(8),
		DefaultCurrency:   "USD",
		EnableItemTaxable: true,
	}
}

// Counters holds the next sequence number to issue for each document kind.
// Counters only ever grow; a number is never issued twice.
type Counters struct {
	EstimateCounter int64 `json:"estimateCounter"`
	InvoiceCounter  int64 `json:"invoiceCounter"`
}

// DefaultCounters returns the counters of a fresh installation.
func DefaultCounters() Counters {
	return Counters{EstimateCounter: 1, InvoiceCounter: 1}
}

// ClientSummary aggregates a client's documents for display.
type ClientSummary struct {
	Client             Client          `json:"client"`
	EstimateCount      int             `json:"estimateCount"`
	EstimateTotalValue decimal.Decimal `json:"estimateTotalValue"`
	InvoiceCount       int             `json:"invoiceCount"`
	InvoiceTotalValue  decimal.Decimal `json:"invoiceTotalValue"`
	PaidInvoiceCount   int             `json:"paidInvoiceCount"`
}
