// Package store implements core.Repository as JSON documents under fixed keys of a
// transactional key/value backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"estimate-desk/internal/core"
)

// Storage keys. The names are part of the persisted layout and must not change.
const (
	KeyEstimates = "estimates"
	KeyInvoices  = "invoices"
	KeyClients   = "clients"
	KeySettings  = "settings"
	KeyCounters  = "counters"
)

// AllKeys lists every key the store writes.
var AllKeys = []string{KeyEstimates, KeyInvoices, KeyClients, KeySettings, KeyCounters}

// Store is the repository used by every service. Writes are serialized by a single
// process-wide mutex and each operation runs in one backend transaction.
type Store struct {
	mu      sync.Mutex
	backend Backend
}

var _ core.Repository = (*Store)(nil)

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) view(ctx context.Context, fn func(tx Tx) error) error {
	return s.backend.View(ctx, fn)
}

func (s *Store) update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Update(ctx, fn)
}

// ── Estimates ───────────────────────────────────────────────────────────────

func (s *Store) ListEstimates(ctx context.Context) ([]core.Estimate, error) {
	var out []core.Estimate
	err := s.view(ctx, func(tx Tx) error {
		var err error
		out, err = loadList[core.Estimate](ctx, tx, KeyEstimates)
		return err
	})
	return out, err
}

func (s *Store) GetEstimate(ctx context.Context, id string) (*core.Estimate, error) {
	list, err := s.ListEstimates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, &core.NotFoundError{Entity: "estimate", ID: id}
}

func (s *Store) SaveEstimate(ctx context.Context, e core.Estimate) error {
	return s.update(ctx, func(tx Tx) error {
		list, err := loadList[core.Estimate](ctx, tx, KeyEstimates)
		if err != nil {
			return err
		}
		if i := slices.IndexFunc(list, func(x core.Estimate) bool { return x.ID == e.ID }); i >= 0 {
			if stored := list[i]; stored.State.IsConverted() && stored.State != e.State {
				return fmt.Errorf("%w: state of %s is fixed", core.ErrEstimateConverted, stored.EstimateNumber)
			}
		}
		return writeJSON(ctx, tx, KeyEstimates, upsert(list, e, estimateID))
	})
}

func (s *Store) UpdateEstimate(ctx context.Context, id string, fn func(e *core.Estimate) error) (*core.Estimate, error) {
	var updated core.Estimate
	err := s.update(ctx, func(tx Tx) error {
		list, err := loadList[core.Estimate](ctx, tx, KeyEstimates)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(list, func(e core.Estimate) bool { return e.ID == id })
		if i < 0 {
			return &core.NotFoundError{Entity: "estimate", ID: id}
		}
		updated = list[i]
		if err := fn(&updated); err != nil {
			return err
		}
		updated.ID = id
		list[i] = updated
		return writeJSON(ctx, tx, KeyEstimates, list)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) DeleteEstimate(ctx context.Context, id string) error {
	return s.update(ctx, func(tx Tx) error {
		list, err := loadList[core.Estimate](ctx, tx, KeyEstimates)
		if err != nil {
			return err
		}
		kept, removed := removeWhere(list, func(e core.Estimate) bool { return e.ID == id })
		if removed == 0 {
			return nil
		}
		return writeJSON(ctx, tx, KeyEstimates, kept)
	})
}

// ── Invoices ────────────────────────────────────────────────────────────────

func (s *Store) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	var out []core.Invoice
	err := s.view(ctx, func(tx Tx) error {
		var err error
		out, err = loadList[core.Invoice](ctx, tx, KeyInvoices)
		return err
	})
	return out, err
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*core.Invoice, error) {
	list, err := s.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, &core.NotFoundError{Entity: "invoice", ID: id}
}

func (s *Store) SaveInvoice(ctx context.Context, inv core.Invoice) error {
	return s.update(ctx, func(tx Tx) error {
		list, err := loadList[core.Invoice](ctx, tx, KeyInvoices)
		if err != nil {
			return err
		}
		return writeJSON(ctx, tx, KeyInvoices, upsert(list, inv, invoiceID))
	})
}

func (s *Store) UpdateInvoice(ctx context.Context, id string, fn func(inv *core.Invoice) error) (*core.Invoice, error) {
	var updated core.Invoice
	err := s.update(ctx, func(tx Tx) error {
		list, err := loadList[core.Invoice](ctx, tx, KeyInvoices)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(list, func(inv core.Invoice) bool { return inv.ID == id })
		if i < 0 {
			return &core.NotFoundError{Entity: "invoice", ID: id}
		}
		updated = list[i]
		if err := fn(&updated); err != nil {
			return err
		}
		updated.ID = id
		list[i] = updated
		return writeJSON(ctx, tx, KeyInvoices, list)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return s.update(ctx, func(tx Tx) error {
		invoices, err := loadList[core.Invoice](ctx, tx, KeyInvoices)
		if err != nil {
			return err
		}
		kept, removed := removeWhere(invoices, func(inv core.Invoice) bool { return inv.ID == id })
		if removed == 0 {
			return nil
		}
		if err := unlinkEstimates(ctx, tx, map[string]bool{id: true}, ""); err != nil {
			return err
		}
		return writeJSON(ctx, tx, KeyInvoices, kept)
	})
}

// ── Clients ─────────────────────────────────────────────────────────────────

func (s *Store) ListClients(ctx context.Context) ([]core.Client, error) {
	var out []core.Client
	err := s.view(ctx, func(tx Tx) error {
		var err error
		out, err = loadList[core.Client](ctx, tx, KeyClients)
		return err
	})
	return out, err
}

func (s *Store) GetClient(ctx context.Context, id string) (*core.Client, error) {
	list, err := s.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, &core.NotFoundError{Entity: "client", ID: id}
}

func (s *Store) SaveClient(ctx context.Context, c core.Client) error {
	return s.update(ctx, func(tx Tx) error {
		list, err := loadList[core.Client](ctx, tx, KeyClients)
		if err != nil {
			return err
		}
		return writeJSON(ctx, tx, KeyClients, upsert(list, c, clientID))
	})
}

// DeleteClient removes the client's estimates, then its invoices, then the client.
// Estimates of other clients that were converted into a removed invoice revert to Sent.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.update(ctx, func(tx Tx) error {
		clients, err := loadList[core.Client](ctx, tx, KeyClients)
		if err != nil {
			return err
		}
		invoices, err := loadList[core.Invoice](ctx, tx, KeyInvoices)
		if err != nil {
			return err
		}

		removedInvoices := make(map[string]bool)
		keptInvoices, _ := removeWhere(invoices, func(inv core.Invoice) bool {
			if inv.ClientID == id {
				removedInvoices[inv.ID] = true
				return true
			}
			return false
		})

		if err := unlinkEstimates(ctx, tx, removedInvoices, id); err != nil {
			return err
		}
		if err := writeJSON(ctx, tx, KeyInvoices, keptInvoices); err != nil {
			return err
		}
		keptClients, removed := removeWhere(clients, func(c core.Client) bool { return c.ID == id })
		if removed == 0 {
			return nil
		}
		return writeJSON(ctx, tx, KeyClients, keptClients)
	})
}

// unlinkEstimates drops the estimates of dropClientID (when non-empty) and reverts any
// remaining estimate converted into one of invoiceIDs back to Sent.
func unlinkEstimates(ctx context.Context, tx Tx, invoiceIDs map[string]bool, dropClientID string) error {
	estimates, err := loadList[core.Estimate](ctx, tx, KeyEstimates)
	if err != nil {
		return err
	}
	changed := false
	kept := estimates[:0]
	for _, e := range estimates {
		if dropClientID != "" && e.ClientID == dropClientID {
			changed = true
			continue
		}
		if linked, ok := e.State.InvoiceID(); ok && invoiceIDs[linked] {
			e.State = core.Sent()
			changed = true
		}
		kept = append(kept, e)
	}
	if !changed {
		return nil
	}
	return writeJSON(ctx, tx, KeyEstimates, kept)
}

// ── Settings & counters ─────────────────────────────────────────────────────

func (s *Store) GetSettings(ctx context.Context) (core.Settings, error) {
	settings := core.DefaultSettings()
	err := s.view(ctx, func(tx Tx) error {
		_, err := readJSON(ctx, tx, KeySettings, &settings)
		return err
	})
	return settings, err
}

func (s *Store) SaveSettings(ctx context.Context, settings core.Settings) error {
	return s.update(ctx, func(tx Tx) error {
		return writeJSON(ctx, tx, KeySettings, settings)
	})
}

func (s *Store) GetCounters(ctx context.Context) (core.Counters, error) {
	counters := core.DefaultCounters()
	err := s.view(ctx, func(tx Tx) error {
		_, err := readJSON(ctx, tx, KeyCounters, &counters)
		return err
	})
	return counters, err
}

func (s *Store) NextCounter(ctx context.Context, kind core.DocumentKind) (int64, error) {
	var issued int64
	err := s.update(ctx, func(tx Tx) error {
		counters := core.DefaultCounters()
		if _, err := readJSON(ctx, tx, KeyCounters, &counters); err != nil {
			return err
		}
		switch kind {
		case core.KindEstimate:
			issued = counters.EstimateCounter
			counters.EstimateCounter++
		case core.KindInvoice:
			issued = counters.InvoiceCounter
			counters.InvoiceCounter++
		default:
			return fmt.Errorf("unknown document kind %q", kind)
		}
		return writeJSON(ctx, tx, KeyCounters, counters)
	})
	if err != nil {
		return 0, err
	}
	return issued, nil
}

// ── Multi-record operations ─────────────────────────────────────────────────

// SaveConversion writes the invoice, then the estimate pointing to it. It fails with
// core.ErrAlreadyConverted if the stored estimate was converted in the meantime.
func (s *Store) SaveConversion(ctx context.Context, inv core.Invoice, est core.Estimate) error {
	return s.update(ctx, func(tx Tx) error {
		estimates, err := loadList[core.Estimate](ctx, tx, KeyEstimates)
		if err != nil {
			return err
		}
		found := false
		for _, e := range estimates {
			if e.ID != est.ID {
				continue
			}
			found = true
			if e.State.IsConverted() {
				return fmt.Errorf("%w: %s", core.ErrAlreadyConverted, e.EstimateNumber)
			}
		}
		if !found {
			return &core.NotFoundError{Entity: "estimate", ID: est.ID}
		}

		invoices, err := loadList[core.Invoice](ctx, tx, KeyInvoices)
		if err != nil {
			return err
		}
		if err := writeJSON(ctx, tx, KeyInvoices, upsert(invoices, inv, invoiceID)); err != nil {
			return err
		}
		return writeJSON(ctx, tx, KeyEstimates, upsert(estimates, est, estimateID))
	})
}

func (s *Store) Snapshot(ctx context.Context) (core.Snapshot, error) {
	snap := core.Snapshot{Settings: core.DefaultSettings(), Counters: core.DefaultCounters()}
	err := s.view(ctx, func(tx Tx) error {
		var err error
		if snap.Estimates, err = loadList[core.Estimate](ctx, tx, KeyEstimates); err != nil {
			return err
		}
		if snap.Invoices, err = loadList[core.Invoice](ctx, tx, KeyInvoices); err != nil {
			return err
		}
		if snap.Clients, err = loadList[core.Client](ctx, tx, KeyClients); err != nil {
			return err
		}
		if _, err = readJSON(ctx, tx, KeySettings, &snap.Settings); err != nil {
			return err
		}
		_, err = readJSON(ctx, tx, KeyCounters, &snap.Counters)
		return err
	})
	return snap, err
}

func (s *Store) ClearAllData(ctx context.Context) error {
	return s.update(ctx, func(tx Tx) error {
		for _, key := range AllKeys {
			if err := tx.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

// ── Encoding helpers ────────────────────────────────────────────────────────

func readJSON(ctx context.Context, tx Tx, key string, dst any) (bool, error) {
	raw, ok, err := tx.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func writeJSON(ctx context.Context, tx Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return tx.Put(ctx, key, raw)
}

func loadList[T any](ctx context.Context, tx Tx, key string) ([]T, error) {
	var list []T
	if _, err := readJSON(ctx, tx, key, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func upsert[T any](list []T, item T, id func(T) string) []T {
	for i := range list {
		if id(list[i]) == id(item) {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

func removeWhere[T any](list []T, drop func(T) bool) ([]T, int) {
	kept := make([]T, 0, len(list))
	for _, item := range list {
		if !drop(item) {
			kept = append(kept, item)
		}
	}
	return kept, len(list) - len(kept)
}

func estimateID(e core.Estimate) string { return e.ID }
func invoiceID(inv core.Invoice) string { return inv.ID }
func clientID(c core.Client) string { return c.ID }
