package printout

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"petrolhub/backend/internal/domain"
)

var categoryLabels = map[domain.ItemCategory]string{
	domain.CategoryFuel:      "Fuel",
	domain.CategoryLubricant: "Lubricants",
	domain.CategoryWash:      "Car wash",
	domain.CategoryOther:     "Other",
}

func categoryLabel(c domain.ItemCategory) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// DailyReportPDF writes the A4 daily financial report.
func DailyReportPDF(w io.Writer, report domain.DailyReport) error {
	currency := nonEmpty(report.Station.Currency, "MAD")
	doc := newDocument("Daily report " + report.Date)
	doc.header(report.Station, "Daily financial report", fmt.Sprintf("Day %s (%s)", report.Date, nonEmpty(report.TimeZone, "UTC")))

	doc.section("Sales (TTC, " + currency + ")")
	doc.row("Fuel", money(report.Sales.Fuel))
	doc.row("Lubricants", money(report.Sales.Lubricant))
	doc.row("Car wash", money(report.Sales.Wash))
	doc.row("Other", money(report.Sales.Other))
	doc.boldRow("Total sales", money(report.Sales.Total))

	doc.section("Tax breakdown")
	rows := make([][]string, 0, len(report.Categories)+1)
	for _, line := range report.Categories {
		rows = append(rows, []string{
			categoryLabel(line.Category),
			money(line.Split.HT),
			money(line.Split.VAT),
			money(line.Split.TTC),
			line.SharePercent.StringFixed(2) + " %",
		})
	}
	rows = append(rows, []string{"Total", money(report.SalesTax.HT), money(report.SalesTax.VAT), money(report.SalesTax.TTC), ""})
	doc.table([]float64{50, 38, 34, 38, 30}, []string{"Category", "HT", "VAT", "TTC", "Share"}, rows)

	doc.section("Payment channels")
	doc.row("Cash", money(report.Channels.Cash))
	doc.row("Card", money(report.Channels.Card))
	doc.row("Fleet card", money(report.Channels.FleetCard))
	doc.row("Cheque", money(report.Channels.Cheque))
	doc.row("Transfers in", money(report.Channels.TransferIn))
	doc.row("Transfers out", money(report.Channels.TransferOut))
	doc.row("Customer credit", money(report.Channels.Credit))

	doc.section("Cash position")
	doc.row("Cash takings", money(report.Channels.Cash))
	doc.row("Cash expenses", money(report.TotalCashExpenses))
	doc.row("Cash deposited", money(report.Adjustments.CashDeposited))
	doc.boldRow("Net cash residual ("+string(report.CashPosition)+")", money(report.NetCashResidual))

	doc.section("Bank position")
	doc.row("Inflow", money(report.BankInflow))
	doc.row("Outflow", money(report.BankOutflow))
	doc.row("Bank fees", money(report.Adjustments.BankFees))
	doc.boldRow("Net bank movement ("+string(report.BankPosition)+")", money(report.NetBankMovement))

	doc.section("Other")
	doc.row("Total expenses", money(report.TotalExpenses))
	doc.row("Operating margin", money(report.Adjustments.OperatingMargin))
	doc.row("Supplier refund", money(report.Adjustments.SupplierRefund))
	doc.row("Invoices / expenses / payments", fmt.Sprintf("%d / %d / %d", report.InvoiceCount, report.ExpenseCount, report.PaymentCount))

	return doc.output(w)
}

// DailyReportCSV writes the report as metric,value rows.
func DailyReportCSV(w io.Writer, report domain.DailyReport) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"metric", "value"},
		{"date", report.Date},
		{"time_zone", report.TimeZone},
		{"sales_fuel", money(report.Sales.Fuel)},
		{"sales_lubricant", money(report.Sales.Lubricant)},
		{"sales_wash", money(report.Sales.Wash)},
		{"sales_other", money(report.Sales.Other)},
		{"sales_total", money(report.Sales.Total)},
		{"sales_ht", money(report.SalesTax.HT)},
		{"sales_vat", money(report.SalesTax.VAT)},
	}
	for _, line := range report.Categories {
		prefix := "category_" + string(line.Category)
		records = append(records,
			[]string{prefix + "_ht", money(line.Split.HT)},
			[]string{prefix + "_vat", money(line.Split.VAT)},
			[]string{prefix + "_ttc", money(line.Split.TTC)},
			[]string{prefix + "_share_percent", line.SharePercent.StringFixed(2)},
		)
	}
	records = append(records,
		[]string{"channel_cash", money(report.Channels.Cash)},
		[]string{"channel_card", money(report.Channels.Card)},
		[]string{"channel_fleet_card", money(report.Channels.FleetCard)},
		[]string{"channel_cheque", money(report.Channels.Cheque)},
		[]string{"channel_transfer_in", money(report.Channels.TransferIn)},
		[]string{"channel_transfer_out", money(report.Channels.TransferOut)},
		[]string{"channel_credit", money(report.Channels.Credit)},
		[]string{"total_expenses", money(report.TotalExpenses)},
		[]string{"total_cash_expenses", money(report.TotalCashExpenses)},
		[]string{"cash_deposited", money(report.Adjustments.CashDeposited)},
		[]string{"net_cash_residual", money(report.NetCashResidual)},
		[]string{"cash_position", string(report.CashPosition)},
		[]string{"bank_inflow", money(report.BankInflow)},
		[]string{"bank_outflow", money(report.BankOutflow)},
		[]string{"bank_fees", money(report.Adjustments.BankFees)},
		[]string{"net_bank_movement", money(report.NetBankMovement)},
		[]string{"bank_position", string(report.BankPosition)},
		[]string{"operating_margin", money(report.Adjustments.OperatingMargin)},
		[]string{"supplier_refund", money(report.Adjustments.SupplierRefund)},
		[]string{"invoice_count", strconv.Itoa(report.InvoiceCount)},
		[]string{"expense_count", strconv.Itoa(report.ExpenseCount)},
		[]string{"payment_count", strconv.Itoa(report.PaymentCount)},
	)

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
