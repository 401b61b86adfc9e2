package core_test

import (
	"context"
	"testing"

	"estimate-desk/internal/core"
)

func issueKinds(issues []core.Issue) map[core.IssueKind]int {
	kinds := make(map[core.IssueKind]int)
	for _, i := range issues {
		kinds[i.Kind]++
	}
	return kinds
}

func TestCheckConsistency_CleanData(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	c := mustCreateClient(t, svc, "Acme")
	e := mustCreateEstimate(t, svc, c.ID, sampleItems())
	if _, _, err := svc.docs.ConvertToInvoice(ctx, e.ID); err != nil {
		t.Fatalf("ConvertToInvoice: %v", err)
	}

	snap, err := svc.repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if issues := core.CheckConsistency(snap); len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestCheckConsistency_DetectsResidue(t *testing.T) {
	snap := core.Snapshot{
		Clients: []core.Client{{ID: "c1", Name: "Acme"}},
		Estimates: []core.Estimate{
			{ID: "e1", EstimateNumber: "EST-0001", DocumentCore: core.DocumentCore{ClientID: "c1"}, State: core.Converted("gone")},
			{ID: "e2", EstimateNumber: "EST-0002", DocumentCore: core.DocumentCore{ClientID: "c1", Items: sampleItems(), TaxRate: dec("8")}, Total: dec("300")},
		},
		Invoices: []core.Invoice{
			{ID: "i1", InvoiceNumber: "INV-0003", DocumentCore: core.DocumentCore{ClientID: "c9"}, SourceEstimateID: strPtr("e2")},
		},
		Counters: core.Counters{EstimateCounter: 3, InvoiceCounter: 2},
	}

	kinds := issueKinds(core.CheckConsistency(snap))
	want := map[core.IssueKind]int{
		core.IssueDanglingConversion: 1,
		core.IssueTotalMismatch:      1,
		core.IssueUnknownClient:      1,
		core.IssueOrphanInvoice:      1,
		core.IssueCounterBehind:      1,
	}
	for kind, n := range want {
		if kinds[kind] != n {
			t.Errorf("expected %d %s issues, got %d", n, kind, kinds[kind])
		}
	}
}
