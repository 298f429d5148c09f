package reconciliation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
)

const dayLayout = "2006-01-02"

// Day is a calendar date without a time zone.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDay reads a YYYY-MM-DD date.
func ParseDay(raw string) (Day, error) {
	parsed, err := time.Parse(dayLayout, raw)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return DayOf(parsed, time.UTC), nil
}

// DayOf returns the local calendar date of ts in loc.
func DayOf(ts time.Time, loc *time.Location) Day {
	y, m, d := ts.In(locationOrUTC(loc)).Date()
	return Day{Year: y, Month: m, Day: d}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Bounds returns local midnight of d and of the following day, as instants.
func (d Day) Bounds(loc *time.Location) (time.Time, time.Time) {
	loc = locationOrUTC(loc)
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	end := time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, loc)
	return start, end
}

// Contains reports whether ts falls on d in loc by local-date equality.
func (d Day) Contains(ts time.Time, loc *time.Location) bool {
	return DayOf(ts, loc) == d
}

// FilterLedger keeps only the entries dated on day in loc.
func FilterLedger(ledger domain.Ledger, day Day, loc *time.Location) domain.Ledger {
	filtered := domain.Ledger{
		Invoices: []domain.Invoice{},
		Expenses: []domain.Expense{},
		Payments: []domain.Payment{},
	}
	for _, inv := range ledger.Invoices {
		if day.Contains(inv.Date, loc) {
			filtered.Invoices = append(filtered.Invoices, inv)
		}
	}
	for _, expense := range ledger.Expenses {
		if day.Contains(expense.Date, loc) {
			filtered.Expenses = append(filtered.Expenses, expense)
		}
	}
	for _, payment := range ledger.Payments {
		if day.Contains(payment.Date, loc) {
			filtered.Payments = append(filtered.Payments, payment)
		}
	}
	return filtered
}

// BuildDailyReport reconciles one calendar day of the ledger. Station
// identity is left for the caller to fill in.
func BuildDailyReport(ledger domain.Ledger, day Day, loc *time.Location, adj domain.ReportAdjustments) domain.DailyReport {
	loc = locationOrUTC(loc)
	dayLedger := FilterLedger(ledger, day, loc)

	categories := BreakdownByCategory(dayLedger.Invoices)
	salesTax := domain.TaxSplit{}
	for _, line := range categories {
		salesTax = salesTax.Add(line.Split)
	}

	channels := ClassifyChannels(dayLedger.Invoices, dayLedger.Payments)

	totalExpenses := decimal.Zero
	totalCashExpenses := decimal.Zero
	for _, expense := range dayLedger.Expenses {
		totalExpenses = totalExpenses.Add(expense.Amount)
		if expense.PaymentMethod == domain.MethodCash {
			totalCashExpenses = totalCashExpenses.Add(expense.Amount)
		}
	}

	netCash := channels.Cash.Sub(totalCashExpenses.Add(adj.OperatingMargin).Add(adj.CashDeposited))
	bankIn := adj.CashDeposited.Add(channels.TransferIn).Add(adj.SupplierRefund)
	bankOut := channels.TransferOut.Add(adj.BankFees)
	netBank := bankIn.Sub(bankOut)

	return domain.DailyReport{
		Date:              day.String(),
		TimeZone:          loc.String(),
		Sales:             AggregateSales(dayLedger.Invoices),
		Categories:        categories,
		SalesTax:          salesTax,
		Channels:          channels,
		Adjustments:       adj,
		TotalExpenses:     totalExpenses,
		TotalCashExpenses: totalCashExpenses,
		NetCashResidual:   netCash,
		CashPosition:      PositionOf(netCash),
		BankInflow:        bankIn,
		BankOutflow:       bankOut,
		NetBankMovement:   netBank,
		BankPosition:      PositionOf(netBank),
		InvoiceCount:      len(dayLedger.Invoices),
		ExpenseCount:      len(dayLedger.Expenses),
		PaymentCount:      len(dayLedger.Payments),
	}
}

// PositionOf classifies a net figure by sign; zero is solvent.
func PositionOf(amount decimal.Decimal) domain.Position {
	if amount.IsNegative() {
		return domain.PositionShortfall
	}
	return domain.PositionSolvent
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
