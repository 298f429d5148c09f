package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
)

// Period presets accepted by ResolvePeriod.
const (
	PeriodWeek   = "week"
	PeriodMonth  = "month"
	PeriodYear   = "year"
	PeriodCustom = "custom"
)

// Before reports whether d is an earlier calendar date than o.
func (d Day) Before(o Day) bool {
	return d.date().Before(o.date())
}

// AddDays shifts d by n calendar days.
func (d Day) AddDays(n int) Day {
	return DayOf(d.date().AddDate(0, 0, n), time.UTC)
}

func (d Day) date() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// ResolvePeriod turns a preset into an inclusive day range ending today: week
// is the last seven days before today plus today, month and year start on
// the first of the current month or year. custom reads from and to.
func ResolvePeriod(preset string, today Day, from string, to string) (Day, Day, error) {
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case PeriodWeek:
		return today.AddDays(-7), today, nil
	case "", PeriodMonth:
		return Day{Year: today.Year, Month: today.Month, Day: 1}, today, nil
	case PeriodYear:
		return Day{Year: today.Year, Month: time.January, Day: 1}, today, nil
	case PeriodCustom:
		start, err := ParseDay(strings.TrimSpace(from))
		if err != nil {
			return Day{}, Day{}, err
		}
		end, err := ParseDay(strings.TrimSpace(to))
		if err != nil {
			return Day{}, Day{}, err
		}
		if end.Before(start) {
			return Day{}, Day{}, fmt.Errorf("period ends (%s) before it starts (%s)", end, start)
		}
		return start, end, nil
	default:
		return Day{}, Day{}, fmt.Errorf("unknown period %q", preset)
	}
}

func inRange(ts time.Time, from Day, to Day, loc *time.Location) bool {
	day := DayOf(ts, loc)
	return !day.Before(from) && !to.Before(day)
}

// BuildPeriodReport totals sales, purchases and expenses over the station
// days from..to inclusive. Net is sales minus purchases minus expenses.
func BuildPeriodReport(ledger domain.Ledger, from Day, to Day, loc *time.Location) domain.PeriodReport {
	loc = locationOrUTC(loc)

	var invoices []domain.Invoice
	purchases := decimal.Zero
	for _, inv := range ledger.Invoices {
		if !inRange(inv.Date, from, to, loc) {
			continue
		}
		invoices = append(invoices, inv)
		if inv.Type == domain.InvoicePurchase {
			purchases = purchases.Add(inv.TotalTTC)
		}
	}

	expenses := decimal.Zero
	expenseCount := 0
	for _, expense := range ledger.Expenses {
		if inRange(expense.Date, from, to, loc) {
			expenses = expenses.Add(expense.Amount)
			expenseCount++
		}
	}

	paymentCount := 0
	for _, payment := range ledger.Payments {
		if inRange(payment.Date, from, to, loc) {
			paymentCount++
		}
	}

	categories := BreakdownByCategory(invoices)
	salesTax := domain.TaxSplit{}
	for _, line := range categories {
		salesTax = salesTax.Add(line.Split)
	}

	sales := AggregateSales(invoices)
	net := sales.Total.Sub(purchases).Sub(expenses)

	return domain.PeriodReport{
		From:           from.String(),
		To:             to.String(),
		TimeZone:       loc.String(),
		Sales:          sales,
		Categories:     categories,
		SalesTax:       salesTax,
		TotalPurchases: purchases,
		TotalExpenses:  expenses,
		Net:            net,
		NetPosition:    PositionOf(net),
		InvoiceCount:   len(invoices),
		ExpenseCount:   expenseCount,
		PaymentCount:   paymentCount,
	}
}
