package core

import "context"

// Repository owns the canonical collections. Every method is a single atomic unit
// against the underlying store.
//
// Get methods return a *NotFoundError when the id matches nothing. Delete methods treat
// an absent id as a no-op.
type Repository interface {
	ListEstimates(ctx context.Context) ([]Estimate, error)
	GetEstimate(ctx context.Context, id string) (*Estimate, error)
	// SaveEstimate upserts e. It fails with ErrEstimateConverted when the stored record
	// is converted and e carries a different state.
	SaveEstimate(ctx context.Context, e Estimate) error
	// UpdateEstimate applies fn to the stored estimate and writes the result in the same
	// transaction. An error from fn aborts the write. fn must not call the repository.
	UpdateEstimate(ctx context.Context, id string, fn func(e *Estimate) error) (*Estimate, error)
	DeleteEstimate(ctx context.Context, id string) error

	ListInvoices(ctx context.Context) ([]Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	SaveInvoice(ctx context.Context, inv Invoice) error
	// UpdateInvoice is UpdateEstimate for invoices.
	UpdateInvoice(ctx context.Context, id string, fn func(inv *Invoice) error) (*Invoice, error)
	// DeleteInvoice removes the invoice and reverts any estimate converted into it back
	// to Sent, estimate first.
	DeleteInvoice(ctx context.Context, id string) error

	ListClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id string) (*Client, error)
	SaveClient(ctx context.Context, c Client) error
	// DeleteClient removes the client with every estimate and invoice whose ClientID matches.
	DeleteClient(ctx context.Context, id string) error

	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error

	GetCounters(ctx context.Context) (Counters, error)
	// NextCounter atomically returns the next number to issue for kind and advances
	// the stored counter past it.
	NextCounter(ctx context.Context, kind DocumentKind) (int64, error)

	// SaveConversion persists a conversion: the invoice is written before the estimate
	// that points to it.
	SaveConversion(ctx context.Context, inv Invoice, est Estimate) error

	// Snapshot reads every collection in one consistent view.
	Snapshot(ctx context.Context) (Snapshot, error)

	// ClearAllData wipes every collection and resets Settings and Counters to defaults.
	ClearAllData(ctx context.Context) error
}

// Snapshot is the full persisted state of an installation.
type Snapshot struct {
	Estimates []Estimate `json:"estimates"`
	Invoices  []Invoice  `json:"invoices"`
	Clients   []Client   `json:"clients"`
	Settings  Settings   `json:"settings"`
	Counters  Counters   `json:"counters"`
}
