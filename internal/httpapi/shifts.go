package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/printout"
)

func (a *API) handleShiftSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var req domain.ShiftSessionStartRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	view, err := a.service.StartSession(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleShiftSessionActions serves /api/v1/shifts/sessions/{id} and
// /api/v1/shifts/sessions/{id}/confirm.
func (a *API) handleShiftSessionActions(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/shifts/sessions/"), "/")
	id, action, _ := strings.Cut(tail, "/")
	if id == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("session id required"))
		return
	}

	switch action {
	case "":
	case "confirm":
		if r.Method != http.MethodPost {
			a.writeMethodNotAllowed(w)
			return
		}
		resp, err := a.service.ConfirmSession(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	default:
		a.writeError(w, http.StatusNotFound, errors.New("unknown session action"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := a.service.GetSession(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodPatch:
		var req domain.ShiftSessionUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
		view, err := a.service.UpdateSession(r.Context(), id, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		if err := a.service.AbandonSession(r.Context(), id); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		a.writeMethodNotAllowed(w)
	}
}

func (a *API) handleShiftPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w)
		return
	}

	var session domain.ShiftSession
	if err := decodeJSON(r, &session); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	totals, err := a.service.PreviewShift(r.Context(), session)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"totals": totals})
}

func (a *API) handleShiftClosings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 50, 200)
	closings, err := a.service.ListClosings(r.Context(), r.URL.Query().Get("date"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"closings": closings})
}

func (a *API) handleShiftClosing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/shifts/closings/"), "/")
	if id == "" {
		a.writeError(w, http.StatusBadRequest, errors.New("closing id required"))
		return
	}

	closing, err := a.service.GetClosing(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	if strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) != "pdf" {
		writeJSON(w, http.StatusOK, map[string]any{"closing": closing})
		return
	}

	station, err := a.service.Station(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := printout.ShiftClosingPDF(&buf, station, closing, a.service.Location()); err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "shift-closing-"+closing.ID+".pdf"))
	_, _ = w.Write(buf.Bytes())
}
