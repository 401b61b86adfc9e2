package core_test

import (
	"context"
	"errors"
	"testing"

	"estimate-desk/internal/core"
)

func TestNewEstimate_SeededFromSettings(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")

	settings := core.DefaultSettings()
	settings.DefaultTaxRate = dec("12.5")
	settings.DefaultNote = strPtr("Thanks for your business")
	if err := svc.repo.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	e, err := svc.docs.NewEstimate(ctx, client.ID)
	if err != nil {
		t.Fatalf("NewEstimate: %v", err)
	}
	if e.IssueDate != "2024-03-15" || e.ValidUntil != "2024-04-14" {
		t.Errorf("unexpected dates %s / %s", e.IssueDate, e.ValidUntil)
	}
	if !e.TaxRate.Equal(dec("12.5")) || e.Notes != "Thanks for your business" {
		t.Errorf("expected settings defaults, got rate %s notes %q", e.TaxRate, e.Notes)
	}
	if e.EstimateNumber != "EST-0001" || e.State != core.Draft() {
		t.Errorf("unexpected number/state %s %s", e.EstimateNumber, e.State)
	}

	list, _ := svc.repo.ListEstimates(ctx)
	if len(list) != 0 {
		t.Errorf("expected NewEstimate not to persist, found %d", len(list))
	}
}

func TestCreateEstimate_ComputesTotal(t *testing.T) {
	svc := setupServices(t)
	client := mustCreateClient(t, svc, "Acme")

	e := mustCreateEstimate(t, svc, client.ID, sampleItems())
	if !e.Total.Equal(dec("308")) {
		t.Errorf("expected total 308, got %s", e.Total)
	}
	stored, err := svc.repo.GetEstimate(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("GetEstimate: %v", err)
	}
	assertTotalConsistent(t, "created", stored.Total, stored.DocumentCore)
}

func TestCreateEstimate_Rejections(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")

	bad := sampleItems()
	bad[0].Quantity = dec("0")
	_, err := svc.docs.CreateEstimate(ctx, core.Estimate{DocumentCore: core.DocumentCore{ClientID: client.ID, Items: bad, TaxRate: dec("8")}})
	if !errors.Is(err, core.ErrInvalidLineItem) {
		t.Errorf("expected ErrInvalidLineItem, got %v", err)
	}

	_, err = svc.docs.CreateEstimate(ctx, core.Estimate{DocumentCore: core.DocumentCore{ClientID: "missing", Items: sampleItems(), TaxRate: dec("8")}})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown client, got %v", err)
	}

	_, err = svc.docs.CreateEstimate(ctx, core.Estimate{
		DocumentCore: core.DocumentCore{ClientID: client.ID, TaxRate: dec("8")},
		State:        core.Converted("x"),
	})
	if !errors.Is(err, core.ErrInvalidStatusTransition) {
		t.Errorf("expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestSaveEstimate_RecomputesTotalAfterEveryMutation(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")
	e := mustCreateEstimate(t, svc, client.ID, sampleItems())

	mutations := []func(*core.Estimate){
		func(e *core.Estimate) { e.Items[0].Quantity = dec("3") },
		func(e *core.Estimate) { e.TaxRate = dec("0") },
		func(e *core.Estimate) { e.Items = append(e.Items, core.LineItem{Description: "Extra", Quantity: dec("1"), Unit: core.UnitDays, UnitPrice: dec("99.99"), Taxable: true}) },
		func(e *core.Estimate) { e.Items[1].Taxable = true; e.TaxRate = dec("20") },
		func(e *core.Estimate) { e.Items = nil },
	}
	for i, mutate := range mutations {
		current, err := svc.repo.GetEstimate(ctx, e.ID)
		if err != nil {
			t.Fatalf("GetEstimate: %v", err)
		}
		mutate(current)
		current.Total = dec("-1") // stale value must be replaced
		saved, err := svc.docs.SaveEstimate(ctx, *current)
		if err != nil {
			t.Fatalf("mutation %d: SaveEstimate: %v", i, err)
		}
		stored, _ := svc.repo.GetEstimate(ctx, e.ID)
		assertTotalConsistent(t, "saved", saved.Total, saved.DocumentCore)
		assertTotalConsistent(t, "stored", stored.Total, stored.DocumentCore)
		if stored.EstimateNumber != e.EstimateNumber {
			t.Errorf("estimate number changed to %s", stored.EstimateNumber)
		}
	}
}

func TestSetEstimateStatus(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")
	e := mustCreateEstimate(t, svc, client.ID, sampleItems())

	sent, err := svc.docs.SetEstimateStatus(ctx, e.ID, core.EstimateStatusSent)
	if err != nil {
		t.Fatalf("SetEstimateStatus(sent): %v", err)
	}
	if sent.State != core.Sent() {
		t.Errorf("expected sent, got %s", sent.State)
	}
	if _, err := svc.docs.SetEstimateStatus(ctx, e.ID, core.EstimateStatusConverted); !errors.Is(err, core.ErrInvalidStatusTransition) {
		t.Errorf("expected converted to be unreachable directly, got %v", err)
	}
	if _, err := svc.docs.SetEstimateStatus(ctx, "missing", core.EstimateStatusSent); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConvertToInvoice(t *testing.T) {
	for _, start := range []core.EstimateStatus{core.EstimateStatusDraft, core.EstimateStatusSent} {
		t.Run(string(start), func(t *testing.T) {
			svc := setupServices(t)
			ctx := context.Background()
			client := mustCreateClient(t, svc, "Acme")
			e := mustCreateEstimate(t, svc, client.ID, sampleItems())
			if _, err := svc.docs.SetEstimateStatus(ctx, e.ID, start); err != nil {
				t.Fatalf("SetEstimateStatus: %v", err)
			}

			est, inv, err := svc.docs.ConvertToInvoice(ctx, e.ID)
			if err != nil {
				t.Fatalf("ConvertToInvoice: %v", err)
			}
			if !inv.Total.Equal(core.ComputeTotal(e.Items, e.TaxRate)) || !inv.Total.Equal(e.Total) {
				t.Errorf("expected invoice total %s, got %s", e.Total, inv.Total)
			}
			if id, ok := est.State.InvoiceID(); !ok || id != inv.ID {
				t.Errorf("expected estimate converted to %s, got %s", inv.ID, est.State)
			}
			if inv.InvoiceNumber != "INV-0001" || inv.Paid {
				t.Errorf("unexpected invoice %s paid=%v", inv.InvoiceNumber, inv.Paid)
			}
			if inv.IssueDate != "2024-03-15" || inv.DueDate != "2024-04-14" {
				t.Errorf("unexpected invoice dates %s / %s", inv.IssueDate, inv.DueDate)
			}
			if inv.SourceEstimateID == nil || *inv.SourceEstimateID != e.ID || *inv.EstimateNumber != e.EstimateNumber {
				t.Errorf("expected invoice to carry its source estimate")
			}

			storedEst, err := svc.repo.GetEstimate(ctx, e.ID)
			if err != nil {
				t.Fatalf("GetEstimate: %v", err)
			}
			if storedEst.State.Status() != core.EstimateStatusConverted {
				t.Errorf("expected stored estimate converted, got %s", storedEst.State)
			}
			if _, err := svc.repo.GetInvoice(ctx, inv.ID); err != nil {
				t.Errorf("expected invoice persisted: %v", err)
			}
		})
	}
}

func TestConvertToInvoice_Failures(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")
	e := mustCreateEstimate(t, svc, client.ID, sampleItems())

	if _, _, err := svc.docs.ConvertToInvoice(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := svc.docs.ConvertToInvoice(ctx, e.ID); err != nil {
		t.Fatalf("first conversion: %v", err)
	}
	if _, _, err := svc.docs.ConvertToInvoice(ctx, e.ID); !errors.Is(err, core.ErrAlreadyConverted) {
		t.Errorf("expected ErrAlreadyConverted, got %v", err)
	}
	invoices, _ := svc.repo.ListInvoices(ctx)
	if len(invoices) != 1 {
		t.Errorf("expected exactly one invoice, got %d", len(invoices))
	}
}

func TestConvertedEstimate_IsFrozen(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")
	e := mustCreateEstimate(t, svc, client.ID, sampleItems())
	est, inv, err := svc.docs.ConvertToInvoice(ctx, e.ID)
	if err != nil {
		t.Fatalf("ConvertToInvoice: %v", err)
	}

	changed := *est
	changed.Items = append([]core.LineItem(nil), est.Items...)
	changed.Items[0].UnitPrice = dec("75")
	if _, err := svc.docs.SaveEstimate(ctx, changed); !errors.Is(err, core.ErrEstimateConverted) {
		t.Errorf("expected item edit to be rejected, got %v", err)
	}

	reverted := *est
	reverted.State = core.Sent()
	if _, err := svc.docs.SaveEstimate(ctx, reverted); !errors.Is(err, core.ErrEstimateConverted) {
		t.Errorf("expected state change to be rejected, got %v", err)
	}
	if _, err := svc.docs.SetEstimateStatus(ctx, est.ID, core.EstimateStatusDraft); !errors.Is(err, core.ErrEstimateConverted) {
		t.Errorf("expected status change to be rejected, got %v", err)
	}

	noted := *est
	noted.Notes = "Signed copy received"
	saved, err := svc.docs.SaveEstimate(ctx, noted)
	if err != nil {
		t.Fatalf("expected notes edit to succeed: %v", err)
	}
	if id, ok := saved.State.InvoiceID(); !ok || id != inv.ID {
		t.Errorf("expected link to %s to survive, got %s", inv.ID, saved.State)
	}
}

func TestInvoice_StandaloneAndPayment(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")

	inv, err := svc.docs.CreateInvoice(ctx, core.Invoice{
		DocumentCore:     core.DocumentCore{ClientID: client.ID, Items: sampleItems(), TaxRate: dec("8")},
		SourceEstimateID: strPtr("forged"),
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.SourceEstimateID != nil {
		t.Errorf("expected standalone invoice to have no source estimate")
	}
	if inv.DueDate != "2024-04-14" || !inv.Total.Equal(dec("308")) {
		t.Errorf("unexpected due date %s or total %s", inv.DueDate, inv.Total)
	}

	toggled, err := svc.docs.TogglePaid(ctx, inv.ID)
	if err != nil || !toggled.Paid {
		t.Fatalf("expected paid after toggle, got %v %v", toggled, err)
	}
	toggled, err = svc.docs.TogglePaid(ctx, inv.ID)
	if err != nil || toggled.Paid {
		t.Fatalf("expected unpaid after second toggle, got %v %v", toggled, err)
	}
	if _, err := svc.docs.SetInvoicePaid(ctx, "missing", true); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteInvoice_RevertsSourceEstimate(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")
	e := mustCreateEstimate(t, svc, client.ID, sampleItems())
	_, inv, err := svc.docs.ConvertToInvoice(ctx, e.ID)
	if err != nil {
		t.Fatalf("ConvertToInvoice: %v", err)
	}

	if err := svc.docs.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	stored, err := svc.repo.GetEstimate(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEstimate: %v", err)
	}
	if stored.State != core.Sent() {
		t.Errorf("expected estimate to revert to sent, got %s", stored.State)
	}
	if err := svc.docs.DeleteInvoice(ctx, inv.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	if _, _, err := svc.docs.ConvertToInvoice(ctx, e.ID); err != nil {
		t.Errorf("expected reverted estimate to convert again: %v", err)
	}
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name string
		due  string
		paid bool
		want bool
	}{
		{"past and unpaid", "2024-03-14", false, true},
		{"past and paid", "2024-03-14", true, false},
		{"due today", "2024-03-15", false, false},
		{"future", "2024-04-01", false, false},
	}
	for _, tt := range tests {
		inv := core.Invoice{DueDate: tt.due, Paid: tt.paid}
		if got := core.IsOverdue(inv, "2024-03-15"); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
