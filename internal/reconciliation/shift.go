package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
)

// VarianceTolerance is the largest absolute variance, exclusive, that still
// reconciles as OK.
var VarianceTolerance = decimal.New(1, -1)

// MeteredVolume returns the litres dispensed since the last index. A reading
// below the last index is a rollback and yields zero.
func MeteredVolume(reading domain.PumpReading) (decimal.Decimal, bool) {
	delta := reading.NewIndex.Sub(reading.LastIndex)
	if delta.IsNegative() {
		return decimal.Zero, true
	}
	return delta, false
}

// CloseShift computes the revenue and reconciliation figures of a session.
func CloseShift(session domain.ShiftSession) domain.ShiftTotals {
	totals := domain.ShiftTotals{
		PerPump: make([]domain.PumpVolume, 0, len(session.Pumps)),
	}

	for _, reading := range session.Pumps {
		volume, rolledBack := MeteredVolume(reading)
		revenue := volume.Mul(reading.UnitPrice)
		totals.FuelRevenue = totals.FuelRevenue.Add(revenue)
		totals.PerPump = append(totals.PerPump, domain.PumpVolume{
			PumpID:     reading.PumpID,
			Volume:     volume,
			Revenue:    revenue,
			RolledBack: rolledBack,
		})
		if rolledBack {
			totals.RolledBackPumps = append(totals.RolledBackPumps, reading.PumpID)
		}
	}

	for _, line := range session.Lubricants {
		totals.ShopRevenue = totals.ShopRevenue.Add(line.Quantity.Mul(line.UnitPrice))
	}

	totals.WashRevenue = WashRevenue(session.Wash)
	totals.TheoreticalTotal = totals.FuelRevenue.Add(totals.ShopRevenue).Add(totals.WashRevenue)

	for _, credit := range session.Credits {
		totals.TotalCredits = totals.TotalCredits.Add(credit.Amount)
	}
	for _, expense := range session.Expenses {
		totals.TotalCashExpenses = totals.TotalCashExpenses.Add(expense.Amount)
	}

	totals.TheoreticalCash = totals.TheoreticalTotal.
		Sub(totals.TotalCredits).
		Sub(totals.TotalCashExpenses).
		Sub(session.Tenders.Card).
		Sub(session.Tenders.FleetCard)
	totals.CashCounted = session.Tenders.Cash
	totals.Variance = totals.CashCounted.Sub(totals.TheoreticalCash)
	totals.Status = VarianceStatus(totals.Variance)

	return totals
}

// WashRevenue prices the basic and complete washes of a shift.
func WashRevenue(wash domain.WashSales) decimal.Decimal {
	return wash.BasicQty.Mul(wash.BasicPrice).Add(wash.CompleteQty.Mul(wash.CompletePrice))
}

// VarianceStatus is OK only when |variance| is strictly below the tolerance.
func VarianceStatus(variance decimal.Decimal) domain.ReconciliationStatus {
	if variance.Abs().LessThan(VarianceTolerance) {
		return domain.ReconciliationOK
	}
	return domain.ReconciliationReview
}

// CompleteShift promotes each reading's new index to the pump's last index and
// returns the updated pumps with the session totals. current supplies the
// stored pump records so fields the session does not carry survive; readings
// without a stored record are converted as-is. A rolled back reading is
// promoted too, so a replaced meter counts from its new position; the pump
// stays listed in the totals' RolledBackPumps.
func CompleteShift(session domain.ShiftSession, current []domain.Pump, now time.Time) domain.ShiftCompletion {
	byID := make(map[string]domain.Pump, len(current))
	for _, pump := range current {
		byID[pump.ID] = pump
	}

	pumps := make([]domain.Pump, 0, len(session.Pumps))
	for _, reading := range session.Pumps {
		pump, ok := byID[reading.PumpID]
		if !ok {
			pump = domain.Pump{
				ID:        reading.PumpID,
				Name:      reading.Name,
				FuelType:  reading.FuelType,
				LastIndex: reading.LastIndex,
			}
		}
		pump.LastIndex = reading.NewIndex
		pump.UnitPrice = reading.UnitPrice
		pump.UpdatedAt = now
		pumps = append(pumps, pump)
	}

	return domain.ShiftCompletion{
		Pumps:  pumps,
		Totals: CloseShift(session),
	}
}
