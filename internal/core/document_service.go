package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"estimate-desk/internal/format"
)

// PaymentTermDays is the gap between an invoice's issue date and its due date, and
// between an estimate's issue date and its validity end.
const PaymentTermDays = 30

// DocumentService manages the estimate and invoice lifecycle:
//
//	Draft ⇄ Sent → Converted{invoice}
//	Draft → Converted{invoice}
//
// Every write recomputes the cached total before persisting it.
type DocumentService interface {
	// NewEstimate returns an unsaved draft seeded from Settings with a freshly issued number.
	NewEstimate(ctx context.Context, clientID string) (*Estimate, error)
	CreateEstimate(ctx context.Context, e Estimate) (*Estimate, error)
	// SaveEstimate updates an existing estimate. A converted estimate only accepts
	// changes to its notes and dates.
	SaveEstimate(ctx context.Context, e Estimate) (*Estimate, error)
	// SetEstimateStatus moves an estimate between draft and sent. Converted is only
	// reachable through ConvertToInvoice.
	SetEstimateStatus(ctx context.Context, id string, status EstimateStatus) (*Estimate, error)
	DeleteEstimate(ctx context.Context, id string) error
	ConvertToInvoice(ctx context.Context, estimateID string) (*Estimate, *Invoice, error)

	NewInvoice(ctx context.Context, clientID string) (*Invoice, error)
	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	SaveInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	SetInvoicePaid(ctx context.Context, id string, paid bool) (*Invoice, error)
	TogglePaid(ctx context.Context, id string) (*Invoice, error)
	// DeleteInvoice removes an invoice. An estimate converted into it reverts to Sent.
	DeleteInvoice(ctx context.Context, id string) error
}

type documentService struct {
	repo      Repository
	numbering NumberingService
	now       func() time.Time
}

// NewDocumentService builds the lifecycle service. A nil clock defaults to time.Now.
func NewDocumentService(repo Repository, numbering NumberingService, clock func() time.Time) DocumentService {
	if clock == nil {
		clock = time.Now
	}
	return &documentService{repo: repo, numbering: numbering, now: clock}
}

func (s *documentService) today() string {
	return format.ISODate(s.now())
}

// ── Estimates ───────────────────────────────────────────────────────────────

func (s *documentService) NewEstimate(ctx context.Context, clientID string) (*Estimate, error) {
	core, err := s.newCore(ctx, clientID)
	if err != nil {
		return nil, err
	}
	number, err := s.numbering.NextEstimateNumber(ctx)
	if err != nil {
		return nil, err
	}
	return &Estimate{
		ID:             uuid.NewString(),
		EstimateNumber: number,
		DocumentCore:   core,
		ValidUntil:     addDays(core.IssueDate, PaymentTermDays),
		State:          Draft(),
		Total:          core.Totals().Total,
	}, nil
}

func (s *documentService) CreateEstimate(ctx context.Context, e Estimate) (*Estimate, error) {
	if e.State.IsConverted() {
		return nil, fmt.Errorf("%w: a new estimate cannot start converted", ErrInvalidStatusTransition)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EstimateNumber == "" {
		number, err := s.numbering.NextEstimateNumber(ctx)
		if err != nil {
			return nil, err
		}
		e.EstimateNumber = number
	}
	if e.IssueDate == "" {
		e.IssueDate = s.today()
	}
	if e.ValidUntil == "" {
		e.ValidUntil = addDays(e.IssueDate, PaymentTermDays)
	}
	e.Items = assignItemIDs(e.Items)
	if err := s.checkEstimate(ctx, e); err != nil {
		return nil, err
	}
	e.Total = e.Totals().Total
	if err := s.repo.SaveEstimate(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save estimate: %w", err)
	}
	return &e, nil
}

func (s *documentService) SaveEstimate(ctx context.Context, e Estimate) (*Estimate, error) {
	existing, err := s.repo.GetEstimate(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Items = assignItemIDs(e.Items)
	if err := checkEstimateEdit(*existing, e); err != nil {
		return nil, err
	}
	if err := s.checkEstimate(ctx, e); err != nil {
		return nil, err
	}
	// The stored record may have changed since the read above; check again under the write.
	return s.repo.UpdateEstimate(ctx, e.ID, func(stored *Estimate) error {
		if err := checkEstimateEdit(*stored, e); err != nil {
			return err
		}
		e.EstimateNumber = stored.EstimateNumber
		e.Total = e.Totals().Total
		*stored = e
		return nil
	})
}

// SetEstimateStatus checks and writes the new state in one repository transaction, so a
// conversion committed concurrently is never overwritten.
func (s *documentService) SetEstimateStatus(ctx context.Context, id string, status EstimateStatus) (*Estimate, error) {
	return s.repo.UpdateEstimate(ctx, id, func(e *Estimate) error {
		if e.State.IsConverted() {
			return fmt.Errorf("%w: %s", ErrEstimateConverted, e.EstimateNumber)
		}
		switch status {
		case EstimateStatusDraft:
			e.State = Draft()
		case EstimateStatusSent:
			e.State = Sent()
		default:
			return fmt.Errorf("%w: cannot set status %q directly", ErrInvalidStatusTransition, status)
		}
		e.Total = e.Totals().Total
		return nil
	})
}

func (s *documentService) DeleteEstimate(ctx context.Context, id string) error {
	if _, err := s.repo.GetEstimate(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteEstimate(ctx, id); err != nil {
		return fmt.Errorf("failed to delete estimate: %w", err)
	}
	return nil
}

// ConvertToInvoice issues an invoice number, builds the invoice from the estimate and
// persists the pair. The invoice is due PaymentTermDays after today.
func (s *documentService) ConvertToInvoice(ctx context.Context, estimateID string) (*Estimate, *Invoice, error) {
	est, err := s.repo.GetEstimate(ctx, estimateID)
	if err != nil {
		return nil, nil, err
	}
	if invoiceID, ok := est.State.InvoiceID(); ok {
		return nil, nil, fmt.Errorf("%w: %s already points to invoice %s", ErrAlreadyConverted, est.EstimateNumber, invoiceID)
	}
	if _, err := s.repo.GetClient(ctx, est.ClientID); err != nil {
		return nil, nil, err
	}
	if err := validateDocument(est.DocumentCore); err != nil {
		return nil, nil, err
	}

	number, err := s.numbering.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, nil, err
	}
	today := s.today()
	sourceID, estimateNumber, validUntil := est.ID, est.EstimateNumber, est.ValidUntil
	inv := Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: number,
		DocumentCore: DocumentCore{
			ClientID:  est.ClientID,
			IssueDate: today,
			Items:     append([]LineItem(nil), est.Items...),
			TaxRate:   est.TaxRate,
			Notes:     est.Notes,
		},
		DueDate:          addDays(today, PaymentTermDays),
		Paid:             false,
		SourceEstimateID: &sourceID,
		EstimateNumber:   &estimateNumber,
		ValidUntil:       &validUntil,
	}
	inv.Total = inv.Totals().Total

	est.State = Converted(inv.ID)
	est.Total = est.Totals().Total

	if err := s.repo.SaveConversion(ctx, inv, *est); err != nil {
		return nil, nil, fmt.Errorf("failed to convert estimate %s: %w", est.EstimateNumber, err)
	}
	return est, &inv, nil
}

// ── Invoices ────────────────────────────────────────────────────────────────

func (s *documentService) NewInvoice(ctx context.Context, clientID string) (*Invoice, error) {
	core, err := s.newCore(ctx, clientID)
	if err != nil {
		return nil, err
	}
	number, err := s.numbering.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}
	return &Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: number,
		DocumentCore:  core,
		DueDate:       addDays(core.IssueDate, PaymentTermDays),
		Total:         core.Totals().Total,
	}, nil
}

func (s *documentService) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.InvoiceNumber == "" {
		number, err := s.numbering.NextInvoiceNumber(ctx)
		if err != nil {
			return nil, err
		}
		inv.InvoiceNumber = number
	}
	if inv.IssueDate == "" {
		inv.IssueDate = s.today()
	}
	if inv.DueDate == "" {
		inv.DueDate = addDays(inv.IssueDate, PaymentTermDays)
	}
	// Conversion is the only way to link an invoice to an estimate.
	inv.SourceEstimateID, inv.EstimateNumber, inv.ValidUntil = nil, nil, nil
	inv.Items = assignItemIDs(inv.Items)
	if err := s.checkInvoice(ctx, inv); err != nil {
		return nil, err
	}
	inv.Total = inv.Totals().Total
	if err := s.repo.SaveInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	return &inv, nil
}

func (s *documentService) SaveInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	if _, err := s.repo.GetInvoice(ctx, inv.ID); err != nil {
		return nil, err
	}
	inv.Items = assignItemIDs(inv.Items)
	if err := s.checkInvoice(ctx, inv); err != nil {
		return nil, err
	}
	// Fails with a NotFoundError if the invoice was deleted after the check above.
	return s.repo.UpdateInvoice(ctx, inv.ID, func(stored *Invoice) error {
		inv.InvoiceNumber = stored.InvoiceNumber
		inv.SourceEstimateID = stored.SourceEstimateID
		inv.EstimateNumber = stored.EstimateNumber
		inv.ValidUntil = stored.ValidUntil
		inv.Total = inv.Totals().Total
		*stored = inv
		return nil
	})
}

func (s *documentService) SetInvoicePaid(ctx context.Context, id string, paid bool) (*Invoice, error) {
	return s.repo.UpdateInvoice(ctx, id, func(inv *Invoice) error {
		inv.Paid = paid
		inv.Total = inv.Totals().Total
		return nil
	})
}

func (s *documentService) TogglePaid(ctx context.Context, id string) (*Invoice, error) {
	return s.repo.UpdateInvoice(ctx, id, func(inv *Invoice) error {
		inv.Paid = !inv.Paid
		inv.Total = inv.Totals().Total
		return nil
	})
}

func (s *documentService) DeleteInvoice(ctx context.Context, id string) error {
	if _, err := s.repo.GetInvoice(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// IsOverdue reports whether an unpaid invoice is past its due date on today (YYYY-MM-DD).
// ISO dates compare correctly as strings.
func IsOverdue(inv Invoice, today string) bool {
	return !inv.Paid && inv.DueDate < today
}

// ── Helpers ─────────────────────────────────────────────────────────────────

func (s *documentService) newCore(ctx context.Context, clientID string) (DocumentCore, error) {
	if clientID != "" {
		if _, err := s.repo.GetClient(ctx, clientID); err != nil {
			return DocumentCore{}, err
		}
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return DocumentCore{}, fmt.Errorf("failed to load settings: %w", err)
	}
	core := DocumentCore{
		ClientID:  clientID,
		IssueDate: s.today(),
		Items:     []LineItem{},
		TaxRate:   settings.DefaultTaxRate,
	}
	if settings.DefaultNote != nil {
		core.Notes = *settings.DefaultNote
	}
	return core, nil
}

func (s *documentService) checkEstimate(ctx context.Context, e Estimate) error {
	if err := validateDocument(e.DocumentCore); err != nil {
		return err
	}
	if err := ValidateDate("validUntil", e.ValidUntil); err != nil {
		return err
	}
	_, err := s.repo.GetClient(ctx, e.ClientID)
	return err
}

func (s *documentService) checkInvoice(ctx context.Context, inv Invoice) error {
	if err := validateDocument(inv.DocumentCore); err != nil {
		return err
	}
	if err := ValidateDate("dueDate", inv.DueDate); err != nil {
		return err
	}
	_, err := s.repo.GetClient(ctx, inv.ClientID)
	return err
}

// checkEstimateEdit rejects edits that would change a converted estimate's state,
// client, tax rate or items, and any edit that marks an estimate converted.
func checkEstimateEdit(stored, e Estimate) error {
	if stored.State.IsConverted() {
		if e.State != stored.State {
			return fmt.Errorf("%w: state of %s is fixed", ErrEstimateConverted, stored.EstimateNumber)
		}
		if e.ClientID != stored.ClientID || !e.TaxRate.Equal(stored.TaxRate) || !itemsEqual(e.Items, stored.Items) {
			return fmt.Errorf("%w: items, tax rate and client of %s are fixed", ErrEstimateConverted, stored.EstimateNumber)
		}
	} else if e.State.IsConverted() {
		return fmt.Errorf("%w: use conversion to mark %s converted", ErrInvalidStatusTransition, stored.EstimateNumber)
	}
	return nil
}

func assignItemIDs(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		out[i] = item
	}
	return out
}

func itemsEqual(a, b []LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Description != y.Description || x.Unit != y.Unit || x.Taxable != y.Taxable ||
			!x.Quantity.Equal(y.Quantity) || !x.UnitPrice.Equal(y.UnitPrice) {
			return false
		}
	}
	return true
}

// addDays shifts an ISO date by n calendar days. Invalid input is returned unchanged
// so that date validation reports it.
func addDays(iso string, n int) string {
	shifted, err := format.AddDays(iso, n)
	if err != nil {
		return iso
	}
	return shifted
}
