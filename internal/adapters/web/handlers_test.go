package web_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"estimate-desk/internal/adapters/web"
	"estimate-desk/internal/app"
	"estimate-desk/internal/core"
	"estimate-desk/internal/store"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	repo := store.New(store.NewMemoryBackend())
	clock := func() time.Time { return time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC) }
	svc := app.NewAppService(
		repo,
		core.NewDocumentService(repo, core.NewNumberingService(repo), clock),
		core.NewClientService(repo),
		nil,
		clock,
	)
	return web.NewHandler(svc, []string{"http://localhost:3000"})
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newHandler(t))
	t.Cleanup(srv.Close)
	return srv
}

// do sends a JSON request and decodes a JSON response into out when out is non-nil.
func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	var body struct {
		Status string `json:"status"`
	}
	resp := do(t, srv, http.MethodGet, "/api/health", "", &body)
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		t.Errorf("health = %d %q", resp.StatusCode, body.Status)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestEstimateLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)

	var client struct {
		Client core.Client `json:"client"`
	}
	if resp := do(t, srv, http.MethodPost, "/api/clients", `{"name":"Ada","email":"ada@example.com"}`, &client); resp.StatusCode != http.StatusOK {
		t.Fatalf("create client: status %d", resp.StatusCode)
	}

	var created struct {
		Estimate core.Estimate `json:"estimate"`
		Totals   core.Totals   `json:"totals"`
	}
	body := `{"clientId":"` + client.Client.ID + `","items":[` +
		`{"description":"Design","quantity":"2","unit":"hours","unitPrice":"50","taxable":true},` +
		`{"description":"Build","quantity":1,"unit":"days","unitPrice":200}]}`
	if resp := do(t, srv, http.MethodPost, "/api/estimates", body, &created); resp.StatusCode != http.StatusOK {
		t.Fatalf("create estimate: status %d", resp.StatusCode)
	}
	// 300 + 8% of the taxable 100
	if !created.Estimate.Total.Equal(decimal.NewFromInt(308)) || created.Estimate.EstimateNumber != "EST-0001" {
		t.Errorf("estimate = %s total %s", created.Estimate.EstimateNumber, created.Estimate.Total)
	}

	var conv struct {
		Estimate core.Estimate `json:"estimate"`
		Invoice  core.Invoice  `json:"invoice"`
	}
	if resp := do(t, srv, http.MethodPost, "/api/estimates/"+created.Estimate.ID+"/convert", "", &conv); resp.StatusCode != http.StatusOK {
		t.Fatalf("convert: status %d", resp.StatusCode)
	}
	if conv.Estimate.State.Status() != core.EstimateStatusConverted || conv.Invoice.InvoiceNumber != "INV-0001" {
		t.Errorf("conversion = %s / %s", conv.Estimate.State, conv.Invoice.InvoiceNumber)
	}

	var conflict errorBody
	resp := do(t, srv, http.MethodPost, "/api/estimates/"+created.Estimate.ID+"/convert", "", &conflict)
	if resp.StatusCode != http.StatusConflict || conflict.Code != "CONFLICT" {
		t.Errorf("second convert = %d %s, want 409 CONFLICT", resp.StatusCode, conflict.Code)
	}
	if conflict.RequestID == "" {
		t.Error("error body has no request_id")
	}

	resp = do(t, srv, http.MethodGet, "/api/invoices/"+conv.Invoice.ID+"/document", "", nil)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("document = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	if resp := do(t, srv, http.MethodDelete, "/api/invoices/"+conv.Invoice.ID, "", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete invoice: status %d", resp.StatusCode)
	}
	var reverted struct {
		Estimate core.Estimate `json:"estimate"`
	}
	do(t, srv, http.MethodGet, "/api/estimates/"+created.Estimate.ID, "", &reverted)
	if reverted.Estimate.State.Status() != core.EstimateStatusSent {
		t.Errorf("estimate after invoice deletion = %s, want sent", reverted.Estimate.State)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"missing client", http.MethodGet, "/api/clients/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"blank client name", http.MethodPost, "/api/clients", `{"name":"  "}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed json", http.MethodPost, "/api/clients", `{"name":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown field", http.MethodPost, "/api/clients", `{"nom":"Ada"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown invoice filter", http.MethodGet, "/api/invoices?status=late", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"drafting not configured", http.MethodPost, "/api/draft", `{"description":"paint a fence"}`, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"reset without confirm", http.MethodPost, "/api/reset", `{}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"negative default tax", http.MethodPut, "/api/settings", `{"defaultTaxRate":-1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			resp := do(t, srv, tt.method, tt.path, tt.body, &body)
			if resp.StatusCode != tt.status || body.Code != tt.code {
				t.Errorf("got %d %s (%s), want %d %s", resp.StatusCode, body.Code, body.Error, tt.status, tt.code)
			}
		})
	}
}

func TestRequestBodyLimit(t *testing.T) {
	h := newHandler(t)
	big := `{"name":"` + strings.Repeat("a", 2<<20) + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clients", strings.NewReader(big)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	srv := newServer(t)
	for origin, want := range map[string]string{
		"http://localhost:3000": "http://localhost:3000",
		"http://evil.example":   "",
	} {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/clients", nil)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("preflight from %s: status %d", origin, resp.StatusCode)
		}
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("Allow-Origin for %s = %q, want %q", origin, got, want)
		}
	}
}
