package app

import (
	"context"

	"estimate-desk/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ── Clients ──────────────────────────────────────────────────────────────

	// ListClients returns clients whose name, company or email contains query
	// (case-insensitive). An empty query returns every client.
	ListClients(ctx context.Context, query string) (*ClientListResult, error)

	// GetClient returns a client together with its document counts and totals.
	GetClient(ctx context.Context, id string) (*ClientResult, error)

	CreateClient(ctx context.Context, req ClientRequest) (*ClientResult, error)
	UpdateClient(ctx context.Context, id string, req ClientRequest) (*ClientResult, error)

	// DeleteClient removes the client and every estimate and invoice addressed to it.
	DeleteClient(ctx context.Context, id string) error

	// ── Estimates ────────────────────────────────────────────────────────────

	ListEstimates(ctx context.Context, filter EstimateFilter) (*EstimateListResult, error)
	GetEstimate(ctx context.Context, id string) (*EstimateResult, error)

	// NewEstimate returns an unsaved draft seeded from Settings. It consumes an
	// estimate number even if the draft is never saved.
	NewEstimate(ctx context.Context, clientID string) (*EstimateResult, error)

	CreateEstimate(ctx context.Context, req DocumentRequest) (*EstimateResult, error)

	// UpdateEstimate applies the non-nil parts of req. A converted estimate only
	// accepts notes and date changes.
	UpdateEstimate(ctx context.Context, id string, req DocumentRequest) (*EstimateResult, error)

	// SetEstimateStatus moves an estimate between "draft" and "sent".
	SetEstimateStatus(ctx context.Context, id, status string) (*EstimateResult, error)

	DeleteEstimate(ctx context.Context, id string) error

	// ConvertEstimate creates an invoice from the estimate and marks it converted.
	ConvertEstimate(ctx context.Context, id string) (*ConversionResult, error)

	// ── Invoices ─────────────────────────────────────────────────────────────

	ListInvoices(ctx context.Context, filter InvoiceFilter) (*InvoiceListResult, error)
	GetInvoice(ctx context.Context, id string) (*InvoiceResult, error)
	NewInvoice(ctx context.Context, clientID string) (*InvoiceResult, error)
	CreateInvoice(ctx context.Context, req DocumentRequest) (*InvoiceResult, error)
	UpdateInvoice(ctx context.Context, id string, req DocumentRequest) (*InvoiceResult, error)
	SetInvoicePaid(ctx context.Context, id string, paid bool) (*InvoiceResult, error)
	ToggleInvoicePaid(ctx context.Context, id string) (*InvoiceResult, error)

	// DeleteInvoice removes the invoice. An estimate converted into it reverts to sent.
	DeleteInvoice(ctx context.Context, id string) error

	// ── Settings ─────────────────────────────────────────────────────────────

	GetSettings(ctx context.Context) (*core.Settings, error)
	UpdateSettings(ctx context.Context, req SettingsRequest) (*core.Settings, error)

	// ── Output ───────────────────────────────────────────────────────────────

	// RenderDocument renders an estimate or invoice as markdown, HTML or share text.
	// Amounts are recomputed and checked against the persisted total.
	RenderDocument(ctx context.Context, kind core.DocumentKind, id string, format DocumentFormat) (*RenderResult, error)

	// DraftLineItems asks the drafting assistant for line items describing the given
	// work. Proposed items are validated but never saved.
	DraftLineItems(ctx context.Context, description string) (*DraftResult, error)

	// ResolveRef maps a user-typed reference to an id. Documents match by number or id,
	// clients by id or exact name (case-insensitive); a unique id prefix of at least
	// four characters also matches.
	ResolveRef(ctx context.Context, kind RefKind, ref string) (string, error)

	// ── Maintenance ──────────────────────────────────────────────────────────

	// ResetAllData wipes every collection and restores default settings and counters.
	ResetAllData(ctx context.Context) error

	// CheckConsistency reports residue of interrupted writes and stale cached totals.
	CheckConsistency(ctx context.Context) (*ConsistencyResult, error)
}
