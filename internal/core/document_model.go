package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Unit is the unit of measure of a line item quantity.
type Unit string

const (
	UnitHours Unit = "hours"
	UnitDays  Unit = "days"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == UnitHours || u == UnitDays
}

// LineItem is one billable unit within a document. Line items have no lifecycle of their
// own: they are owned by the Estimate or Invoice that contains them.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        Unit            `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Taxable     bool            `json:"taxable"`
}

// DocumentCore holds the fields shared by estimates and invoices.
// TaxRate is a percentage: 8 means 8%.
type DocumentCore struct {
	ClientID  string          `json:"clientId"`
	IssueDate string          `json:"issueDate"` // YYYY-MM-DD
	Items     []LineItem      `json:"items"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	Notes     string          `json:"notes"`
}

// Totals computes the document totals from its items and tax rate.
func (d DocumentCore) Totals() Totals {
	return ComputeTotals(d.Items, d.TaxRate)
}

// EstimateStatus is the persisted name of an estimate state.
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusSent      EstimateStatus = "sent"
	EstimateStatusConverted EstimateStatus = "converted"
)

// EstimateState is the lifecycle state of an estimate:
//
//	Draft → Sent → Converted{invoiceID}
//	Draft → Converted{invoiceID}
//
// The zero value is Draft. A Converted state always carries the linked invoice id, and
// only a Converted state does; there is no way to construct any other combination.
type EstimateState struct {
	converted bool
	sent      bool
	invoiceID string
}

// Draft returns the initial estimate state.
func Draft() EstimateState { return EstimateState{} }

// Sent returns the state of an estimate that was delivered to the client.
func Sent() EstimateState { return EstimateState{sent: true} }

// Converted returns the terminal state of an estimate linked to invoiceID.
func Converted(invoiceID string) EstimateState {
	return EstimateState{converted: true, invoiceID: invoiceID}
}

// Status returns the persisted status name.
func (s EstimateState) Status() EstimateStatus {
	switch {
	case s.converted:
		return EstimateStatusConverted
	case s.sent:
		return EstimateStatusSent
	default:
		return EstimateStatusDraft
	}
}

// IsConverted reports whether the state is terminal.
func (s EstimateState) IsConverted() bool { return s.converted }

// InvoiceID returns the linked invoice id for a Converted state.
func (s EstimateState) InvoiceID() (string, bool) {
	return s.invoiceID, s.converted
}

// String implements fmt.Stringer.
func (s EstimateState) String() string {
	if s.converted {
		return fmt.Sprintf("%s(%s)", EstimateStatusConverted, s.invoiceID)
	}
	return string(s.Status())
}

// stateFromFields rebuilds a state from its flat persisted representation.
func stateFromFields(status EstimateStatus, invoiceID *string) (EstimateState, error) {
	switch status {
	case EstimateStatusDraft, "":
		if invoiceID != nil {
			return EstimateState{}, fmt.Errorf("%w: %s estimate references invoice %s", ErrInvalidState, EstimateStatusDraft, *invoiceID)
		}
		return Draft(), nil
	case EstimateStatusSent:
		if invoiceID != nil {
			return EstimateState{}, fmt.Errorf("%w: %s estimate references invoice %s", ErrInvalidState, EstimateStatusSent, *invoiceID)
		}
		return Sent(), nil
	case EstimateStatusConverted:
		if invoiceID == nil || *invoiceID == "" {
			return EstimateState{}, fmt.Errorf("%w: converted estimate has no invoice id", ErrInvalidState)
		}
		return Converted(*invoiceID), nil
	default:
		return EstimateState{}, fmt.Errorf("%w: unknown status %q", ErrInvalidState, status)
	}
}

// Estimate is a quotation to a client, convertible into an Invoice.
// Total is the cached result of ComputeTotal over Items and TaxRate at the last save.
type Estimate struct {
	ID             string
	EstimateNumber string
	DocumentCore
	ValidUntil string // YYYY-MM-DD
	State      EstimateState
	Total      decimal.Decimal
}

// estimateJSON is the persisted layout of an Estimate.
type estimateJSON struct {
	ID                 string          `json:"id"`
	ClientID           string          `json:"clientId"`
	EstimateNumber     string          `json:"estimateNumber"`
	IssueDate          string          `json:"issueDate"`
	ValidUntil         string          `json:"validUntil"`
	Items              []LineItem      `json:"items"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	Notes              string          `json:"notes"`
	Status             EstimateStatus  `json:"status"`
	Total              decimal.Decimal `json:"total"`
	ConvertedInvoiceID *string         `json:"convertedInvoiceId,omitempty"`
}

// MarshalJSON flattens the state into status and convertedInvoiceId.
func (e Estimate) MarshalJSON() ([]byte, error) {
	v := estimateJSON{
		ID:             e.ID,
		ClientID:       e.ClientID,
		EstimateNumber: e.EstimateNumber,
		IssueDate:      e.IssueDate,
		ValidUntil:     e.ValidUntil,
		Items:          e.Items,
		TaxRate:        e.TaxRate,
		Notes:          e.Notes,
		Status:         e.State.Status(),
		Total:          e.Total,
	}
	if v.Items == nil {
		v.Items = []LineItem{}
	}
	if id, ok := e.State.InvoiceID(); ok {
		v.ConvertedInvoiceID = &id
	}
	return json.Marshal(v)
}

// UnmarshalJSON rejects records whose status and convertedInvoiceId disagree.
func (e *Estimate) UnmarshalJSON(data []byte) error {
	var v estimateJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	state, err := stateFromFields(v.Status, v.ConvertedInvoiceID)
	if err != nil {
		return fmt.Errorf("estimate %s: %w", v.ID, err)
	}
	*e = Estimate{
		ID:             v.ID,
		EstimateNumber: v.EstimateNumber,
		DocumentCore: DocumentCore{
			ClientID:  v.ClientID,
			IssueDate: v.IssueDate,
			Items:     v.Items,
			TaxRate:   v.TaxRate,
			Notes:     v.Notes,
		},
		ValidUntil: v.ValidUntil,
		State:      state,
		Total:      v.Total,
	}
	return nil
}

// Invoice is a billable document, either converted from an Estimate or created directly.
// SourceEstimateID, EstimateNumber and ValidUntil are only set by conversion and are
// informational; InvoiceNumber is the display identifier.
type Invoice struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoiceNumber"`
	DocumentCore
	DueDate          string          `json:"dueDate"` // YYYY-MM-DD
	Paid             bool            `json:"paid"`
	Total            decimal.Decimal `json:"total"`
	SourceEstimateID *string         `json:"sourceEstimateId,omitempty"`
	EstimateNumber   *string         `json:"estimateNumber,omitempty"`
	ValidUntil       *string         `json:"validUntil,omitempty"`
}

// DocumentKind distinguishes estimates from invoices for rendering and numbering.
type DocumentKind string

const (
	KindEstimate DocumentKind = "estimate"
	KindInvoice  DocumentKind = "invoice"
)
