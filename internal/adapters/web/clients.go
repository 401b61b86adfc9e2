package web

import (
	"net/http"

	"estimate-desk/internal/app"
)

type clientBody struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Company *string `json:"company"`
}

func (b clientBody) request() app.ClientRequest {
	return app.ClientRequest{
		Name:    b.Name,
		Phone:   b.Phone,
		Email:   b.Email,
		Address: b.Address,
		Company: b.Company,
	}
}

// GET /api/clients?q=
func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListClients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Clients)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetClient(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Summary)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var body clientBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateClient(r.Context(), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Summary)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var body clientBody
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.UpdateClient(r.Context(), idParam(r), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Summary)
}

// DELETE /api/clients/{id} also deletes the client's estimates and invoices.
func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteClient(r.Context(), idParam(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
