package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"estimate-desk/internal/app"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins []string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(maxBodyBytes))

	r.Get("/api/health", h.health)

	// ── Clients ───────────────────────────────────────────────────────────────
	r.Get("/api/clients", h.listClients)
	r.Post("/api/clients", h.createClient)
	r.Get("/api/clients/{id}", h.getClient)
	r.Put("/api/clients/{id}", h.updateClient)
	r.Delete("/api/clients/{id}", h.deleteClient)

	// ── Estimates ─────────────────────────────────────────────────────────────
	r.Get("/api/estimates", h.listEstimates)
	r.Post("/api/estimates", h.createEstimate)
	r.Post("/api/estimates/new", h.newEstimate)
	r.Get("/api/estimates/{id}", h.getEstimate)
	r.Put("/api/estimates/{id}", h.updateEstimate)
	r.Delete("/api/estimates/{id}", h.deleteEstimate)
	r.Post("/api/estimates/{id}/status", h.setEstimateStatus)
	r.Post("/api/estimates/{id}/convert", h.convertEstimate)
	r.Get("/api/estimates/{id}/document", h.estimateDocument)

	// ── Invoices ──────────────────────────────────────────────────────────────
	r.Get("/api/invoices", h.listInvoices)
	r.Post("/api/invoices", h.createInvoice)
	r.Post("/api/invoices/new", h.newInvoice)
	r.Get("/api/invoices/{id}", h.getInvoice)
	r.Put("/api/invoices/{id}", h.updateInvoice)
	r.Delete("/api/invoices/{id}", h.deleteInvoice)
	r.Post("/api/invoices/{id}/paid", h.setInvoicePaid)
	r.Post("/api/invoices/{id}/toggle-paid", h.toggleInvoicePaid)
	r.Get("/api/invoices/{id}/document", h.invoiceDocument)

	// ── Settings and maintenance ──────────────────────────────────────────────
	r.Get("/api/settings", h.getSettings)
	r.Put("/api/settings", h.updateSettings)
	r.Post("/api/draft", h.draftLineItems)
	r.Post("/api/reset", h.resetAllData)
	r.Get("/api/consistency", h.checkConsistency)

	h.router = r
	return r
}

// health reports that the server is up.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
		Time   string `json:"time"`
	}
	writeJSON(w, response{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)})
}

// idParam extracts the {id} URL parameter.
func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
