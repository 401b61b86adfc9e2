package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"estimate-desk/internal/core"
	"estimate-desk/internal/store"
)

// interleavedRepo runs hook once, as soon as the service under test first touches an
// estimate or invoice, to stand in for a write committed by another request.
type interleavedRepo struct {
	*store.Store
	hook func()
}

func (r *interleavedRepo) fire() {
	if h := r.hook; h != nil {
		r.hook = nil
		h()
	}
}

func (r *interleavedRepo) GetEstimate(ctx context.Context, id string) (*core.Estimate, error) {
	e, err := r.Store.GetEstimate(ctx, id)
	r.fire()
	return e, err
}

func (r *interleavedRepo) UpdateEstimate(ctx context.Context, id string, fn func(e *core.Estimate) error) (*core.Estimate, error) {
	r.fire()
	return r.Store.UpdateEstimate(ctx, id, fn)
}

func (r *interleavedRepo) GetInvoice(ctx context.Context, id string) (*core.Invoice, error) {
	inv, err := r.Store.GetInvoice(ctx, id)
	r.fire()
	return inv, err
}

func (r *interleavedRepo) UpdateInvoice(ctx context.Context, id string, fn func(inv *core.Invoice) error) (*core.Invoice, error) {
	r.fire()
	return r.Store.UpdateInvoice(ctx, id, fn)
}

func interleaved(svc services, hook func()) core.DocumentService {
	repo := &interleavedRepo{Store: svc.repo, hook: hook}
	return core.NewDocumentService(repo, svc.numbering, func() time.Time { return fixedNow })
}

func TestEstimateEdit_KeepsConcurrentConversion(t *testing.T) {
	ctx := context.Background()
	edits := map[string]func(docs core.DocumentService, e core.Estimate) error{
		"status": func(docs core.DocumentService, e core.Estimate) error {
			_, err := docs.SetEstimateStatus(ctx, e.ID, core.EstimateStatusSent)
			return err
		},
		"save": func(docs core.DocumentService, e core.Estimate) error {
			e.Notes = "late edit"
			_, err := docs.SaveEstimate(ctx, e)
			return err
		},
	}
	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			svc := setupServices(t)
			client := mustCreateClient(t, svc, "Ada")
			est := mustCreateEstimate(t, svc, client.ID, sampleItems())

			var inv *core.Invoice
			docs := interleaved(svc, func() {
				var err error
				if _, inv, err = svc.docs.ConvertToInvoice(ctx, est.ID); err != nil {
					t.Errorf("ConvertToInvoice: %v", err)
				}
			})
			if err := edit(docs, *est); !errors.Is(err, core.ErrEstimateConverted) {
				t.Fatalf("expected ErrEstimateConverted, got %v", err)
			}
			if inv == nil {
				t.Fatal("conversion did not run")
			}

			stored, err := svc.repo.GetEstimate(ctx, est.ID)
			if err != nil {
				t.Fatalf("GetEstimate: %v", err)
			}
			if id, ok := stored.State.InvoiceID(); !ok || id != inv.ID {
				t.Errorf("expected estimate converted into %s, got %s", inv.ID, stored.State)
			}
			snap, err := svc.repo.Snapshot(ctx)
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if issues := core.CheckConsistency(snap); len(issues) != 0 {
				t.Errorf("unexpected issues: %v", issues)
			}
		})
	}
}

func TestSaveInvoice_DoesNotRestoreDeletedInvoice(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Ada")
	inv, err := svc.docs.CreateInvoice(ctx, core.Invoice{DocumentCore: core.DocumentCore{ClientID: client.ID, Items: sampleItems()}})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	docs := interleaved(svc, func() {
		if err := svc.docs.DeleteInvoice(ctx, inv.ID); err != nil {
			t.Errorf("DeleteInvoice: %v", err)
		}
	})
	edited := *inv
	edited.Notes = "late edit"
	if _, err := docs.SaveInvoice(ctx, edited); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, _ := svc.repo.ListInvoices(ctx)
	if len(list) != 0 {
		t.Errorf("expected deleted invoice to stay deleted, found %d", len(list))
	}
}

func TestTogglePaid_ReadsInsideTransaction(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Ada")
	inv, err := svc.docs.CreateInvoice(ctx, core.Invoice{DocumentCore: core.DocumentCore{ClientID: client.ID, Items: sampleItems()}})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	docs := interleaved(svc, func() {
		if _, err := svc.docs.SetInvoicePaid(ctx, inv.ID, true); err != nil {
			t.Errorf("SetInvoicePaid: %v", err)
		}
	})
	toggled, err := docs.TogglePaid(ctx, inv.ID)
	if err != nil {
		t.Fatalf("TogglePaid: %v", err)
	}
	if toggled.Paid {
		t.Error("expected toggle to flip the concurrently paid invoice back to unpaid")
	}
	stored, _ := svc.repo.GetInvoice(ctx, inv.ID)
	if stored.Paid {
		t.Error("expected stored invoice unpaid")
	}
}
