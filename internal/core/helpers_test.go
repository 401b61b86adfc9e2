package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"estimate-desk/internal/core"
	"estimate-desk/internal/store"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type services struct {
	repo      *store.Store
	numbering core.NumberingService
	docs      core.DocumentService
	clients   core.ClientService
}

// setupServices wires the services over an in-memory store with a fixed clock.
func setupServices(t *testing.T) services {
	t.Helper()
	repo := store.New(store.NewMemoryBackend())
	numbering := core.NewNumberingService(repo)
	return services{
		repo:      repo,
		numbering: numbering,
		docs:      core.NewDocumentService(repo, numbering, func() time.Time { return fixedNow }),
		clients:   core.NewClientService(repo),
	}
}

func mustCreateClient(t *testing.T, svc services, name string) *core.Client {
	t.Helper()
	c, err := svc.clients.CreateClient(context.Background(), core.Client{Name: name})
	if err != nil {
		t.Fatalf("failed to create client %s: %v", name, err)
	}
	return c
}

func mustCreateEstimate(t *testing.T, svc services, clientID string, items []core.LineItem) *core.Estimate {
	t.Helper()
	e, err := svc.docs.CreateEstimate(context.Background(), core.Estimate{
		DocumentCore: core.DocumentCore{ClientID: clientID, Items: items, TaxRate: dec("8")},
	})
	if err != nil {
		t.Fatalf("failed to create estimate: %v", err)
	}
	return e
}

// sampleItems is 2h at 50 (taxable) plus 1 day at 200 (not taxable).
func sampleItems() []core.LineItem {
	return []core.LineItem{
		{ID: "a", Description: "Design", Quantity: dec("2"), Unit: core.UnitHours, UnitPrice: dec("50"), Taxable: true},
		{ID: "b", Description: "Build", Quantity: dec("1"), Unit: core.UnitDays, UnitPrice: dec("200"), Taxable: false},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

// assertTotalConsistent checks the cached total against a fresh recomputation.
func assertTotalConsistent(t *testing.T, label string, stored decimal.Decimal, d core.DocumentCore) {
	t.Helper()
	if want := core.ComputeTotal(d.Items, d.TaxRate); !stored.Equal(want) {
		t.Errorf("%s: stored total %s, recomputed %s", label, stored, want)
	}
}
