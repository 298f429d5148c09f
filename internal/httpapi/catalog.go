package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"petrolhub/backend/internal/domain"
)

// listHandler serves a read-only reference collection under key.
func listHandler[T any](a *API, key string, list func(context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			a.writeMethodNotAllowed(w)
			return
		}
		items, err := list(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{key: items})
	}
}

func (a *API) handleStation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	station, err := a.service.Station(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"station": station})
}

func (a *API) handlePumps(w http.ResponseWriter, r *http.Request) {
	listHandler(a, "pumps", a.service.ListPumps)(w, r)
}

func (a *API) handleTanks(w http.ResponseWriter, r *http.Request) {
	listHandler(a, "tanks", a.service.ListFuelTanks)(w, r)
}

func (a *API) handleLubricants(w http.ResponseWriter, r *http.Request) {
	listHandler(a, "lubricants", a.service.ListLubricants)(w, r)
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	listHandler(a, "customers", a.service.ListCustomers)(w, r)
}

func (a *API) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	listHandler(a, "suppliers", a.service.ListSuppliers)(w, r)
}

func (a *API) handleBankAccounts(w http.ResponseWriter, r *http.Request) {
	listHandler(a, "bank_accounts", a.service.ListBankAccounts)(w, r)
}

// handlePumpActions serves POST /api/v1/pumps/{id}/reset-index.
func (a *API) handlePumpActions(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/pumps/"), "/")
	pumpID, action, _ := strings.Cut(tail, "/")
	if pumpID == "" || action != "reset-index" {
		a.writeError(w, http.StatusNotFound, errors.New("unknown pump action"))
		return
	}
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}
	if !a.pinLimiter.Allow(clientKey(r)) {
		a.writeError(w, http.StatusTooManyRequests, errors.New("too many manager PIN attempts"))
		return
	}

	var req domain.PumpIndexResetRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !a.auth.ValidateManagerPIN(req.ManagerPIN) {
		a.writeError(w, http.StatusForbidden, errors.New("invalid manager PIN"))
		return
	}

	pump, err := a.service.ResetPumpIndex(r.Context(), pumpID, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pump": pump})
}
