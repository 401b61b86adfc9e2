package core_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"estimate-desk/internal/core"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		prefix string
		n      int64
		want   string
	}{
		{"EST", 1, "EST-0001"},
		{"INV", 42, "INV-0042"},
		{"EST", 9999, "EST-9999"},
		{"INV", 12345, "INV-12345"},
	}
	for _, tt := range tests {
		if got := core.FormatNumber(tt.prefix, tt.n); got != tt.want {
			t.Errorf("FormatNumber(%s, %d) = %s, want %s", tt.prefix, tt.n, got, tt.want)
		}
		if n, ok := core.ParseNumber(tt.prefix, tt.want); !ok || n != tt.n {
			t.Errorf("ParseNumber(%s) = %d, %v", tt.want, n, ok)
		}
	}
	if _, ok := core.ParseNumber("EST", "INV-0001"); ok {
		t.Errorf("expected prefix mismatch to fail")
	}
}

func TestNumbering_SequentialAndIndependent(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	var estimates []string
	for i := 0; i < 5; i++ {
		n, err := svc.numbering.NextEstimateNumber(ctx)
		if err != nil {
			t.Fatalf("NextEstimateNumber: %v", err)
		}
		estimates = append(estimates, n)
	}
	want := []string{"EST-0001", "EST-0002", "EST-0003", "EST-0004", "EST-0005"}
	if strings.Join(estimates, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, estimates)
	}

	inv, err := svc.numbering.NextInvoiceNumber(ctx)
	if err != nil {
		t.Fatalf("NextInvoiceNumber: %v", err)
	}
	if inv != "INV-0001" {
		t.Errorf("expected invoice sequence to start at INV-0001, got %s", inv)
	}

	counters, err := svc.repo.GetCounters(ctx)
	if err != nil {
		t.Fatalf("GetCounters: %v", err)
	}
	if counters.EstimateCounter != 6 || counters.InvoiceCounter != 2 {
		t.Errorf("unexpected counters %+v", counters)
	}
}

func TestNumbering_NotReusedAfterDelete(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	client := mustCreateClient(t, svc, "Acme")

	first := mustCreateEstimate(t, svc, client.ID, sampleItems())
	if err := svc.docs.DeleteEstimate(ctx, first.ID); err != nil {
		t.Fatalf("DeleteEstimate: %v", err)
	}
	second := mustCreateEstimate(t, svc, client.ID, sampleItems())
	if second.EstimateNumber == first.EstimateNumber {
		t.Errorf("number %s was reused", first.EstimateNumber)
	}
	if second.EstimateNumber != "EST-0002" {
		t.Errorf("expected EST-0002, got %s", second.EstimateNumber)
	}
}

func TestNumbering_ConcurrentCallsAreUnique(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	results := make(chan string, n)
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.numbering.NextInvoiceNumber(ctx)
			if err != nil {
				errCh <- err
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent numbering error: %v", err)
	}
	seen := make(map[string]bool)
	for num := range results {
		if seen[num] {
			t.Errorf("number %s issued twice", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct numbers, got %d", n, len(seen))
	}
}
