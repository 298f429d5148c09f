package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"petrolhub/backend/internal/config"
	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/logger"
	"petrolhub/backend/internal/printout"
	"petrolhub/backend/internal/reconciliation"
)

func newReportCmd() *cobra.Command {
	report := &cobra.Command{
		Use:   "report",
		Short: "Financial reports",
	}

	daily := &cobra.Command{
		Use:   "daily",
		Short: "Build the daily financial report from a ledger export",
		Long: `Reads a ledger export ({"invoices": [...], "expenses": [...], "payments": [...]})
and prints the daily report for one calendar date in the station time zone.
Entries dated on other days are ignored.`,
		Example: `  stationctl report daily --ledger ledger.json --date 2025-03-14
  stationctl report daily --ledger ledger.json --date 2025-03-14 --tz Africa/Casablanca --format csv
  stationctl report daily --ledger ledger.json --date 2025-03-14 --cash-deposited 1200 --pdf report.pdf`,
		RunE: runDailyReport,
	}
	cfg := config.Load()
	flags := daily.Flags()
	flags.String("ledger", "", "Ledger JSON file, or - for stdin")
	flags.String("date", "", "Report date (format: YYYY-MM-DD)")
	flags.String("tz", cfg.TimeZone, "Station time zone (defaults to STATION_TIMEZONE)")
	flags.String("station", "", "Station name printed on the report")
	flags.String("currency", cfg.Currency, "Currency code printed on the report (defaults to STATION_CURRENCY)")
	flags.String("format", "json", "Output format: json or csv")
	flags.String("pdf", "", "Also write an A4 PDF to this path")
	flags.String("operating-margin", "0", "Operating margin adjustment")
	flags.String("cash-deposited", "0", "Cash deposited to the bank")
	flags.String("bank-fees", "0", "Bank fees")
	flags.String("supplier-refund", "0", "Supplier refund received")
	_ = daily.MarkFlagRequired("ledger")
	_ = daily.MarkFlagRequired("date")

	report.AddCommand(daily)
	return report
}

func runDailyReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("stationctl")
	flags := cmd.Flags()

	ledgerPath, _ := flags.GetString("ledger")
	rawDate, _ := flags.GetString("date")
	tz, _ := flags.GetString("tz")
	station, _ := flags.GetString("station")
	currency, _ := flags.GetString("currency")
	format, _ := flags.GetString("format")
	pdfPath, _ := flags.GetString("pdf")

	day, err := reconciliation.ParseDay(rawDate)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", tz, err)
	}
	adj, err := adjustmentsFromFlags(cmd)
	if err != nil {
		return err
	}

	var ledger domain.Ledger
	if err := readJSON(cmd.InOrStdin(), ledgerPath, &ledger); err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	report := reconciliation.BuildDailyReport(ledger, day, loc, adj)
	report.Station = domain.StationConfig{Name: station, Currency: currency, TimeZone: loc.String()}

	log.Info().
		Str("date", report.Date).
		Int("invoices", report.InvoiceCount).
		Str("net_cash", report.NetCashResidual.StringFixed(2)).
		Msg("daily report built")

	switch strings.ToLower(format) {
	case "json":
		err = writeJSON(cmd.OutOrStdout(), report)
	case "csv":
		err = printout.DailyReportCSV(cmd.OutOrStdout(), report)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return err
	}

	if pdfPath == "" {
		return nil
	}
	file, err := os.Create(pdfPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := printout.DailyReportPDF(file, report); err != nil {
		_ = file.Close()
		return fmt.Errorf("render pdf: %w", err)
	}
	return file.Close()
}

func adjustmentsFromFlags(cmd *cobra.Command) (domain.ReportAdjustments, error) {
	read := func(name string) (decimal.Decimal, error) {
		raw, _ := cmd.Flags().GetString(name)
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
		}
		if value.IsNegative() {
			return decimal.Zero, fmt.Errorf("--%s must not be negative", name)
		}
		return value, nil
	}

	var adj domain.ReportAdjustments
	var err error
	if adj.OperatingMargin, err = read("operating-margin"); err != nil {
		return adj, err
	}
	if adj.CashDeposited, err = read("cash-deposited"); err != nil {
		return adj, err
	}
	if adj.BankFees, err = read("bank-fees"); err != nil {
		return adj, err
	}
	if adj.SupplierRefund, err = read("supplier-refund"); err != nil {
		return adj, err
	}
	return adj, nil
}
