package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionJSON = `{
  "id": "sess-cli",
  "pumps": [
    {"pump_id": "P1", "last_index": "1000", "new_index": "1100", "unit_price": "10"},
    {"pump_id": "P2", "last_index": "500", "new_index": "480", "unit_price": "12"}
  ],
  "lubricants": [{"product_id": "l1", "name": "Quartz", "quantity": "2", "unit_price": "50"}],
  "wash": {"basic_qty": "1", "basic_price": "40", "complete_qty": "0", "complete_price": "80"},
  "credits": [{"customer": {"kind": "customer", "id": "c1", "name": "SOTRA"}, "amount": "200"}],
  "expenses": [{"description": "Coffee", "amount": "15"}],
  "tenders": {"cash": "800", "card": "125", "fleet_card": "0"}
}`

const ledgerJSON = `{
  "invoices": [],
  "expenses": [
    {"id": "e1", "date": "2025-03-14T09:00:00Z", "category": "Divers", "amount": "35", "payment_method": "CASH"},
    {"id": "e2", "date": "2025-03-15T09:00:00Z", "category": "Divers", "amount": "99", "payment_method": "CASH"}
  ],
  "payments": []
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestShiftCloseFromStdin(t *testing.T) {
	out, err := execute(t, sessionJSON, "shift", "close", "--input", "-")
	require.NoError(t, err)

	var totals struct {
		FuelRevenue     decimal.Decimal `json:"fuel_revenue"`
		TheoreticalCash decimal.Decimal `json:"theoretical_cash"`
		Variance        decimal.Decimal `json:"variance"`
		Status          string          `json:"status"`
		RolledBack      []string        `json:"rolled_back_pumps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &totals))

	// 100 L at 10 on P1, P2 rolled back; shop 100, wash 40.
	assert.True(t, totals.FuelRevenue.Equal(decimal.NewFromInt(1000)), totals.FuelRevenue.String())
	// 1140 - 200 credits - 15 expenses - 125 card.
	assert.True(t, totals.TheoreticalCash.Equal(decimal.NewFromInt(800)), totals.TheoreticalCash.String())
	assert.True(t, totals.Variance.IsZero())
	assert.Equal(t, "OK", totals.Status)
	assert.Equal(t, []string{"P2"}, totals.RolledBack)
}

func TestShiftCloseFailOnReview(t *testing.T) {
	short := strings.Replace(sessionJSON, `"cash": "800"`, `"cash": "750"`, 1)
	out, err := execute(t, short, "shift", "close", "--input", "-", "--fail-on-review")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-50.00")
	assert.Contains(t, out, `"status": "REVIEW"`)
}

func TestShiftCloseRequiresInput(t *testing.T) {
	_, err := execute(t, "", "shift", "close")
	require.Error(t, err)
}

func TestDailyReportFiltersByDateAndAppliesAdjustments(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "ledger.json")
	require.NoError(t, os.WriteFile(ledgerPath, []byte(ledgerJSON), 0o600))
	pdfPath := filepath.Join(dir, "report.pdf")

	out, err := execute(t, "", "report", "daily",
		"--ledger", ledgerPath,
		"--date", "2025-03-14",
		"--tz", "UTC",
		"--station", "Station Test",
		"--cash-deposited", "100",
		"--pdf", pdfPath,
	)
	require.NoError(t, err)

	var report struct {
		Date            string          `json:"date"`
		ExpenseCount    int             `json:"expense_count"`
		NetCashResidual decimal.Decimal `json:"net_cash_residual"`
		CashPosition    string          `json:"cash_position"`
		BankInflow      decimal.Decimal `json:"bank_inflow"`
		Station         struct {
			Name string `json:"name"`
		} `json:"station"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "2025-03-14", report.Date)
	assert.Equal(t, 1, report.ExpenseCount)
	assert.True(t, report.NetCashResidual.Equal(decimal.NewFromInt(-135)), report.NetCashResidual.String())
	assert.Equal(t, "SHORTFALL", report.CashPosition)
	assert.True(t, report.BankInflow.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Station Test", report.Station.Name)

	pdf, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestDailyReportCSVFromStdin(t *testing.T) {
	out, err := execute(t, ledgerJSON, "report", "daily", "--ledger", "-", "--date", "2025-03-15", "--tz", "UTC", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-15")
}

func TestDailyReportRejectsBadInput(t *testing.T) {
	cases := [][]string{
		{"report", "daily", "--ledger", "-", "--date", "14/03/2025"},
		{"report", "daily", "--ledger", "-", "--date", "2025-03-14", "--tz", "Mars/Olympus"},
		{"report", "daily", "--ledger", "-", "--date", "2025-03-14", "--bank-fees", "-5"},
		{"report", "daily", "--ledger", "-", "--date", "2025-03-14", "--format", "xml"},
	}
	for _, args := range cases {
		_, err := execute(t, ledgerJSON, args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := execute(t, "", "migrate", "version", "--database-url", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestDailyReportDefaultsFollowServerConfig(t *testing.T) {
	t.Setenv("STATION_TIMEZONE", "")
	t.Setenv("STATION_CURRENCY", "")

	daily, _, err := newRootCmd().Find([]string{"report", "daily"})
	require.NoError(t, err)
	assert.Equal(t, "Africa/Casablanca", daily.Flags().Lookup("tz").DefValue)
	assert.Equal(t, "MAD", daily.Flags().Lookup("currency").DefValue)

	t.Setenv("STATION_TIMEZONE", "Europe/Paris")
	daily, _, err = newRootCmd().Find([]string{"report", "daily"})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", daily.Flags().Lookup("tz").DefValue)
}

func TestDailyReportBucketsByStationDayByDefault(t *testing.T) {
	t.Setenv("STATION_TIMEZONE", "Africa/Casablanca")
	late := `{"expenses": [{"id": "e1", "date": "2025-06-14T23:30:00Z", "category": "Divers", "amount": "10", "payment_method": "CASH"}]}`

	out, err := execute(t, late, "report", "daily", "--ledger", "-", "--date", "2025-06-15")
	require.NoError(t, err)
	assert.Contains(t, out, `"expense_count": 1`)
}
