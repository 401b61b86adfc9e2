package app

import (
	"context"
	"fmt"
	"strings"

	"estimate-desk/internal/core"
)

// minRefPrefix is the shortest id prefix ResolveRef accepts.
const minRefPrefix = 4

type candidate struct {
	id   string
	keys []string // exact, case-insensitive matches
}

func (s *appService) ResolveRef(ctx context.Context, kind RefKind, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &core.ValidationError{Err: errInvalidRequest, Field: string(kind), Details: "a reference is required"}
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load data: %w", err)
	}

	var all []candidate
	switch kind {
	case RefClient:
		for _, c := range snap.Clients {
			all = append(all, candidate{c.ID, []string{c.ID, c.Name}})
		}
	case RefEstimate:
		for _, e := range snap.Estimates {
			all = append(all, candidate{e.ID, []string{e.ID, e.EstimateNumber}})
		}
	case RefInvoice:
		for _, inv := range snap.Invoices {
			all = append(all, candidate{inv.ID, []string{inv.ID, inv.InvoiceNumber}})
		}
	default:
		return "", &core.ValidationError{Err: errInvalidRequest, Field: "kind", Details: fmt.Sprintf("unknown reference kind %q", kind)}
	}

	if id, ok, err := pickOne(kind, ref, all, func(c candidate) bool {
		for _, k := range c.keys {
			if strings.EqualFold(k, ref) {
				return true
			}
		}
		return false
	}); ok || err != nil {
		return id, err
	}
	if len(ref) >= minRefPrefix {
		if id, ok, err := pickOne(kind, ref, all, func(c candidate) bool {
			return strings.HasPrefix(c.id, strings.ToLower(ref))
		}); ok || err != nil {
			return id, err
		}
	}
	return "", &core.NotFoundError{Entity: string(kind), ID: ref}
}

// pickOne returns the single candidate matching fn. Several matches are an error.
func pickOne(kind RefKind, ref string, all []candidate, fn func(candidate) bool) (string, bool, error) {
	var found []string
	for _, c := range all {
		if fn(c) {
			found = append(found, c.id)
		}
	}
	switch len(found) {
	case 0:
		return "", false, nil
	case 1:
		return found[0], true, nil
	default:
		return "", false, &core.ValidationError{Err: errInvalidRequest, Field: string(kind), Details: fmt.Sprintf("%q matches %d records", ref, len(found))}
	}
}
