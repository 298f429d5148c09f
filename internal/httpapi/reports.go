package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/printout"
	"petrolhub/backend/internal/store"
)

func parseAdjustments(q url.Values) (domain.ReportAdjustments, error) {
	adj := domain.ReportAdjustments{}
	fields := []struct {
		key  string
		dest *decimal.Decimal
	}{
		{"operating_margin", &adj.OperatingMargin},
		{"cash_deposited", &adj.CashDeposited},
		{"bank_fees", &adj.BankFees},
		{"supplier_refund", &adj.SupplierRefund},
	}

	for _, f := range fields {
		raw := strings.TrimSpace(q.Get(f.key))
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.ReportAdjustments{}, fmt.Errorf("%w: %s must be a number", store.ErrInvalidEntry, f.key)
		}
		if value.IsNegative() {
			return domain.ReportAdjustments{}, fmt.Errorf("%w: %s must not be negative", store.ErrInvalidEntry, f.key)
		}
		*f.dest = value
	}
	return adj, nil
}

func (a *API) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	adj, err := parseAdjustments(q)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	report, err := a.service.DailyReport(r.Context(), q.Get("date"), adj)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	switch strings.ToLower(strings.TrimSpace(q.Get("format"))) {
	case "csv":
		if err := printout.DailyReportCSV(&buf, report); err != nil {
			a.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"daily-report-%s.csv\"", report.Date))
	case "pdf":
		if err := printout.DailyReportPDF(&buf, report); err != nil {
			a.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"daily-report-%s.pdf\"", report.Date))
	default:
		writeJSON(w, http.StatusOK, report)
		return
	}
	_, _ = w.Write(buf.Bytes())
}

func (a *API) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	resp, err := a.service.Insights(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handlePeriodReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	report, err := a.service.PeriodReport(r.Context(), q.Get("period"), q.Get("from"), q.Get("to"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleCustomerActions serves /api/v1/customers/{id}/statement.
func (a *API) handleCustomerActions(w http.ResponseWriter, r *http.Request) {
	a.servePartnerStatement(w, r, "/api/v1/customers/", a.service.CustomerStatement)
}

func (a *API) handleSupplierActions(w http.ResponseWriter, r *http.Request) {
	a.servePartnerStatement(w, r, "/api/v1/suppliers/", a.service.SupplierStatement)
}

func (a *API) servePartnerStatement(
	w http.ResponseWriter,
	r *http.Request,
	prefix string,
	load func(ctx context.Context, id string) (domain.PartnerStatement, error),
) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	id, action, _ := strings.Cut(tail, "/")
	if id == "" || action != "statement" {
		a.writeError(w, http.StatusNotFound, errors.New("unknown partner action"))
		return
	}
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w)
		return
	}

	statement, err := load(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}
