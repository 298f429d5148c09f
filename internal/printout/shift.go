package printout

import (
	"io"
	"time"

	"petrolhub/backend/internal/domain"
)

// ShiftClosingPDF writes the close-out slip handed to the station manager.
func ShiftClosingPDF(w io.Writer, station domain.StationConfig, settlement domain.ShiftSettlement, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	totals := settlement.Totals
	doc := newDocument("Shift closing " + settlement.ID)
	doc.header(station, "Shift closing", "Closed "+settlement.ClosedAt.In(loc).Format("2006-01-02 15:04")+" by "+nonEmpty(settlement.ClosedBy, "-"))

	doc.section("Pump meters")
	volumes := make(map[string]domain.PumpVolume, len(totals.PerPump))
	for _, v := range totals.PerPump {
		volumes[v.PumpID] = v
	}
	rows := make([][]string, 0, len(settlement.Pumps))
	for _, p := range settlement.Pumps {
		v := volumes[p.PumpID]
		name := nonEmpty(p.Name, p.PumpID)
		if v.RolledBack {
			name += " (rollback)"
		}
		rows = append(rows, []string{
			name,
			p.LastIndex.String(),
			p.NewIndex.String(),
			v.Volume.String(),
			money(p.UnitPrice),
			money(v.Revenue),
		})
	}
	doc.table([]float64{50, 28, 28, 26, 26, 32}, []string{"Pump", "Last", "New", "Litres", "Price", "Amount"}, rows)

	doc.section("Revenue")
	doc.row("Fuel", money(totals.FuelRevenue))
	doc.row("Shop", money(totals.ShopRevenue))
	doc.row("Car wash", money(totals.WashRevenue))
	doc.boldRow("Theoretical total", money(totals.TheoreticalTotal))

	if len(settlement.Credits) > 0 {
		doc.section("Customer credits")
		for _, c := range settlement.Credits {
			doc.row(nonEmpty(c.Customer.Name, c.Customer.ID), money(c.Amount))
		}
	}
	if len(settlement.Expenses) > 0 {
		doc.section("Cash expenses")
		for _, e := range settlement.Expenses {
			doc.row(nonEmpty(e.Description, "-"), money(e.Amount))
		}
	}

	doc.section("Tenders")
	doc.row("Card", money(settlement.Tenders.Card))
	doc.row("Fleet card", money(settlement.Tenders.FleetCard))
	doc.row("Theoretical cash", money(totals.TheoreticalCash))
	doc.row("Cash counted", money(totals.CashCounted))
	doc.boldRow("Variance ("+string(totals.Status)+")", money(totals.Variance))

	return doc.output(w)
}
