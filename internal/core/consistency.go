package core

import "fmt"

// IssueKind classifies a residual inconsistency found in persisted data.
type IssueKind string

const (
	IssueDanglingConversion IssueKind = "DANGLING_CONVERSION" // estimate converted to a missing invoice
	IssueOrphanInvoice      IssueKind = "ORPHAN_INVOICE"      // invoice whose source estimate does not point back
	IssueUnknownClient      IssueKind = "UNKNOWN_CLIENT"
	IssueTotalMismatch      IssueKind = "TOTAL_MISMATCH"
	IssueCounterBehind      IssueKind = "COUNTER_BEHIND"
	IssueDuplicateNumber    IssueKind = "DUPLICATE_NUMBER"
)

// Issue is one finding of CheckConsistency.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Entity  string    `json:"entity"`
	ID      string    `json:"id"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s %s: %s", i.Kind, i.Entity, i.ID, i.Message)
}

// Severe reports whether the issue breaks an invariant the lifecycle relies on.
// An orphan invoice is the tolerated residue of an interrupted conversion.
func (i Issue) Severe() bool {
	return i.Kind != IssueOrphanInvoice
}

// CheckConsistency inspects a snapshot for the states an interrupted multi-record
// write can leave behind, along with cached totals that no longer match their items.
func CheckConsistency(snap Snapshot) []Issue {
	var issues []Issue

	clients := make(map[string]bool, len(snap.Clients))
	for _, c := range snap.Clients {
		clients[c.ID] = true
	}
	invoices := make(map[string]Invoice, len(snap.Invoices))
	for _, inv := range snap.Invoices {
		invoices[inv.ID] = inv
	}
	estimates := make(map[string]Estimate, len(snap.Estimates))
	for _, e := range snap.Estimates {
		estimates[e.ID] = e
	}

	var maxEstimate, maxInvoice int64
	seenNumbers := make(map[string]bool)

	for _, e := range snap.Estimates {
		if !clients[e.ClientID] {
			issues = append(issues, Issue{IssueUnknownClient, "estimate", e.ID, fmt.Sprintf("client %s does not exist", e.ClientID)})
		}
		if invoiceID, ok := e.State.InvoiceID(); ok {
			if _, exists := invoices[invoiceID]; !exists {
				issues = append(issues, Issue{IssueDanglingConversion, "estimate", e.ID, fmt.Sprintf("converted to missing invoice %s", invoiceID)})
			}
		}
		if want := e.Totals().Total; !want.Equal(e.Total) {
			issues = append(issues, Issue{IssueTotalMismatch, "estimate", e.ID, fmt.Sprintf("stored total %s, recomputed %s", e.Total, want)})
		}
		if seenNumbers[e.EstimateNumber] {
			issues = append(issues, Issue{IssueDuplicateNumber, "estimate", e.ID, fmt.Sprintf("number %s is used twice", e.EstimateNumber)})
		}
		seenNumbers[e.EstimateNumber] = true
		if n, ok := ParseNumber(EstimateNumberPrefix, e.EstimateNumber); ok && n > maxEstimate {
			maxEstimate = n
		}
	}

	for _, inv := range snap.Invoices {
		if !clients[inv.ClientID] {
			issues = append(issues, Issue{IssueUnknownClient, "invoice", inv.ID, fmt.Sprintf("client %s does not exist", inv.ClientID)})
		}
		if inv.SourceEstimateID != nil {
			src, ok := estimates[*inv.SourceEstimateID]
			// A deleted source estimate is fine; one that points elsewhere is not.
			if ok {
				if linked, converted := src.State.InvoiceID(); !converted || linked != inv.ID {
					issues = append(issues, Issue{IssueOrphanInvoice, "invoice", inv.ID, fmt.Sprintf("source estimate %s does not reference it", src.ID)})
				}
			}
		}
		if want := inv.Totals().Total; !want.Equal(inv.Total) {
			issues = append(issues, Issue{IssueTotalMismatch, "invoice", inv.ID, fmt.Sprintf("stored total %s, recomputed %s", inv.Total, want)})
		}
		if seenNumbers[inv.InvoiceNumber] {
			issues = append(issues, Issue{IssueDuplicateNumber, "invoice", inv.ID, fmt.Sprintf("number %s is used twice", inv.InvoiceNumber)})
		}
		seenNumbers[inv.InvoiceNumber] = true
		if n, ok := ParseNumber(InvoiceNumberPrefix, inv.InvoiceNumber); ok && n > maxInvoice {
			maxInvoice = n
		}
	}

	if snap.Counters.EstimateCounter <= maxEstimate {
		issues = append(issues, Issue{IssueCounterBehind, "counters", "estimateCounter", fmt.Sprintf("next number %d but %s already issued", snap.Counters.EstimateCounter, FormatNumber(EstimateNumberPrefix, maxEstimate))})
	}
	if snap.Counters.InvoiceCounter <= maxInvoice {
		issues = append(issues, Issue{IssueCounterBehind, "counters", "invoiceCounter", fmt.Sprintf("next number %d but %s already issued", snap.Counters.InvoiceCounter, FormatNumber(InvoiceNumberPrefix, maxInvoice))})
	}
	return issues
}
