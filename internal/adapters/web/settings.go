package web

import (
	"net/http"
	"strings"

	"estimate-desk/internal/app"

	"github.com/shopspring/decimal"
)

type settingsBody struct {
	CompanyName       *string          `json:"companyName"`
	Phone             *string          `json:"phone"`
	Email             *string          `json:"email"`
	Address           *string          `json:"address"`
	LogoURI           *string          `json:"logoUri"`
	DefaultTaxRate    *decimal.Decimal `json:"defaultTaxRate"`
	DefaultCurrency   *string          `json:"defaultCurrency"`
	DefaultNote       *string          `json:"defaultNote"`
	EnableItemTaxable *bool            `json:"enableItemTaxable"`
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, settings)
}

// PUT /api/settings updates only the fields present in the body.
func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsBody
	if !decodeJSON(w, r, &body) {
		return
	}
	settings, err := h.svc.UpdateSettings(r.Context(), app.SettingsRequest{
		CompanyName:       body.CompanyName,
		Phone:             body.Phone,
		Email:             body.Email,
		Address:           body.Address,
		LogoURI:           body.LogoURI,
		DefaultTaxRate:    body.DefaultTaxRate,
		DefaultCurrency:   body.DefaultCurrency,
		DefaultNote:       body.DefaultNote,
		EnableItemTaxable: body.EnableItemTaxable,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, settings)
}

// POST /api/draft {"description": "..."} proposes line items without saving them.
func (h *Handler) draftLineItems(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Description) == "" {
		writeError(w, r, "description is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.DraftLineItems(r.Context(), body.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/reset {"confirm": true} wipes every collection.
func (h *Handler) resetAllData(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if !body.Confirm {
		writeError(w, r, `reset requires {"confirm": true}`, "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.ResetAllData(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkConsistency(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CheckConsistency(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
