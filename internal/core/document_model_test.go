package core_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"estimate-desk/internal/core"
)

func TestEstimateState_JSONRoundTrip(t *testing.T) {
	states := []core.EstimateState{core.Draft(), core.Sent(), core.Converted("inv-1")}
	for _, state := range states {
		e := core.Estimate{
			ID:             "est-1",
			EstimateNumber: "EST-0001",
			DocumentCore:   core.DocumentCore{ClientID: "c1", IssueDate: "2024-03-15", Items: sampleItems(), TaxRate: dec("8")},
			ValidUntil:     "2024-04-14",
			State:          state,
			Total:          dec("308"),
		}
		raw, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("%s: marshal: %v", state, err)
		}
		var back core.Estimate
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("%s: unmarshal: %v", state, err)
		}
		if back.State != state {
			t.Errorf("expected state %s, got %s", state, back.State)
		}
		if !back.Total.Equal(e.Total) || len(back.Items) != 2 || back.ClientID != "c1" {
			t.Errorf("%s: fields did not round-trip: %+v", state, back)
		}
	}
}

func TestEstimate_PersistedLayout(t *testing.T) {
	raw, err := json.Marshal(core.Estimate{ID: "e", State: core.Converted("inv-9")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"status":"converted"`, `"convertedInvoiceId":"inv-9"`, `"items":[]`, `"clientId":""`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}

	raw, _ = json.Marshal(core.Estimate{ID: "e", State: core.Sent()})
	if strings.Contains(string(raw), "convertedInvoiceId") {
		t.Errorf("expected no convertedInvoiceId on a sent estimate: %s", raw)
	}
}

func TestEstimate_RejectsInconsistentState(t *testing.T) {
	cases := map[string]string{
		"converted without id": `{"id":"e","status":"converted"}`,
		"draft with id":        `{"id":"e","status":"draft","convertedInvoiceId":"inv"}`,
		"sent with id":         `{"id":"e","status":"sent","convertedInvoiceId":"inv"}`,
		"unknown status":       `{"id":"e","status":"archived"}`,
	}
	for name, doc := range cases {
		var e core.Estimate
		if err := json.Unmarshal([]byte(doc), &e); !errors.Is(err, core.ErrInvalidState) {
			t.Errorf("%s: expected ErrInvalidState, got %v", name, err)
		}
	}
}

func TestClient_OptionalFieldsRoundTrip(t *testing.T) {
	in := core.Client{ID: "c", Name: "Acme", Email: strPtr("")}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out core.Client
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Email == nil || *out.Email != "" {
		t.Errorf("expected empty email to survive, got %v", out.Email)
	}
	if out.Phone != nil {
		t.Errorf("expected absent phone to stay absent, got %q", *out.Phone)
	}
}
