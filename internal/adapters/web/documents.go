package web

import (
	"net/http"
	"strings"

	"estimate-desk/internal/app"
	"estimate-desk/internal/core"

	"github.com/shopspring/decimal"
)

// Amounts are accepted as JSON numbers or strings; decimal keeps either exact.
type lineItemBody struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Taxable     bool            `json:"taxable"`
}

// documentBody is the create/update payload shared by estimates and invoices.
// An absent "items" keeps the stored items on update; [] clears them.
type documentBody struct {
	ClientID   string           `json:"clientId"`
	IssueDate  string           `json:"issueDate"`
	ValidUntil string           `json:"validUntil"`
	DueDate    string           `json:"dueDate"`
	TaxRate    *decimal.Decimal `json:"taxRate"`
	Notes      *string          `json:"notes"`
	Items      []lineItemBody   `json:"items"`
}

func (b documentBody) request() app.DocumentRequest {
	req := app.DocumentRequest{
		ClientID:   b.ClientID,
		IssueDate:  b.IssueDate,
		ValidUntil: b.ValidUntil,
		DueDate:    b.DueDate,
		TaxRate:    b.TaxRate,
		Notes:      b.Notes,
	}
	if b.Items != nil {
		req.Items = make([]app.LineItemInput, 0, len(b.Items))
		for _, it := range b.Items {
			req.Items = append(req.Items, app.LineItemInput{
				ID:          it.ID,
				Description: it.Description,
				Quantity:    it.Quantity,
				Unit:        core.Unit(strings.ToLower(strings.TrimSpace(it.Unit))),
				UnitPrice:   it.UnitPrice,
				Taxable:     it.Taxable,
			})
		}
	}
	return req
}

// ── Estimates ─────────────────────────────────────────────────────────────────

// GET /api/estimates?q=&status=&clientId=
func (h *Handler) listEstimates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.ListEstimates(r.Context(), app.EstimateFilter{
		Query:    q.Get("q"),
		Status:   q.Get("status"),
		ClientID: q.Get("clientId"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Estimates)
}

func (h *Handler) getEstimate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetEstimate(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/estimates/new?clientId= returns an unsaved draft and consumes a number.
func (h *Handler) newEstimate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.NewEstimate(r.Context(), r.URL.Query().Get("clientId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) createEstimate(w http.ResponseWriter, r *http.Request) {
	var body documentBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateEstimate(r.Context(), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) updateEstimate(w http.ResponseWriter, r *http.Request) {
	var body documentBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.UpdateEstimate(r.Context(), idParam(r), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) deleteEstimate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEstimate(r.Context(), idParam(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/estimates/{id}/status {"status": "draft"|"sent"}
func (h *Handler) setEstimateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.SetEstimateStatus(r.Context(), idParam(r), body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) convertEstimate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ConvertEstimate(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) estimateDocument(w http.ResponseWriter, r *http.Request) {
	h.document(w, r, core.KindEstimate)
}

// ── Invoices ──────────────────────────────────────────────────────────────────

// GET /api/invoices?q=&status=paid|unpaid|overdue&clientId=
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.ListInvoices(r.Context(), app.InvoiceFilter{
		Query:    q.Get("q"),
		Status:   q.Get("status"),
		ClientID: q.Get("clientId"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoices)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetInvoice(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) newInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.NewInvoice(r.Context(), r.URL.Query().Get("clientId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var body documentBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateInvoice(r.Context(), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var body documentBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.UpdateInvoice(r.Context(), idParam(r), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// DELETE /api/invoices/{id} reverts a converted source estimate to sent.
func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteInvoice(r.Context(), idParam(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/invoices/{id}/paid {"paid": true}
func (h *Handler) setInvoicePaid(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Paid *bool `json:"paid"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Paid == nil {
		writeError(w, r, "paid is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.SetInvoicePaid(r.Context(), idParam(r), *body.Paid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) toggleInvoicePaid(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ToggleInvoicePaid(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) invoiceDocument(w http.ResponseWriter, r *http.Request) {
	h.document(w, r, core.KindInvoice)
}

// document serves a rendered document. ?format= selects html (default), markdown or share.
func (h *Handler) document(w http.ResponseWriter, r *http.Request, kind core.DocumentKind) {
	f := app.DocumentFormat(r.URL.Query().Get("format"))
	if f == "" {
		f = app.FormatHTML
	}
	result, err := h.svc.RenderDocument(r.Context(), kind, idParam(r), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", result.ContentType)
	_, _ = w.Write([]byte(result.Body))
}
