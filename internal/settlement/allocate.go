package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/reconciliation"
)

func soldLines(s domain.ShiftSettlement, rates vatRates) []soldLine {
	lines := make([]soldLine, 0, len(s.Pumps)+len(s.Lubricants)+2)
	for _, reading := range s.Pumps {
		volume, _ := reconciliation.MeteredVolume(reading)
		lines = append(lines, soldLine{
			name:      fuelLineName(reading),
			category:  domain.CategoryFuel,
			price:     reading.UnitPrice,
			vatRate:   rates.pump(reading.PumpID),
			remaining: volume.Mul(reading.UnitPrice),
		})
	}
	for _, item := range s.Lubricants {
		lines = append(lines, soldLine{
			productID: item.ProductID,
			name:      item.Name,
			category:  domain.CategoryLubricant,
			price:     item.UnitPrice,
			vatRate:   rates.lubricant(item.ProductID),
			remaining: item.Quantity.Mul(item.UnitPrice),
		})
	}
	lines = append(lines,
		soldLine{name: "Basic wash", category: domain.CategoryWash, price: s.Wash.BasicPrice, vatRate: rates.station, remaining: s.Wash.BasicQty.Mul(s.Wash.BasicPrice)},
		soldLine{name: "Complete wash", category: domain.CategoryWash, price: s.Wash.CompletePrice, vatRate: rates.station, remaining: s.Wash.CompleteQty.Mul(s.Wash.CompletePrice)},
	)

	kept := lines[:0]
	for _, l := range lines {
		if l.remaining.IsPositive() {
			kept = append(kept, l)
		}
	}
	return kept
}

func fuelLineName(r domain.PumpReading) string {
	switch {
	case r.FuelType != "" && r.Name != "":
		return fmt.Sprintf("%s - %s", r.FuelType, r.Name)
	case r.FuelType != "":
		return r.FuelType
	case r.Name != "":
		return r.Name
	default:
		return r.PumpID
	}
}

func channels(s domain.ShiftSettlement) []channel {
	out := make([]channel, 0, len(s.Credits)+3)
	for _, c := range s.Credits {
		out = append(out, channel{method: domain.MethodCredit, status: domain.InvoicePending, partner: c.Customer, amount: c.Amount})
	}
	out = append(out,
		channel{method: domain.MethodCard, status: domain.InvoicePaid, partner: domain.UnlinkedPartner("Card sales"), amount: s.Tenders.Card},
		channel{method: domain.MethodFleetCard, status: domain.InvoicePaid, partner: domain.UnlinkedPartner("Fleet card sales"), amount: s.Tenders.FleetCard},
	)
	return out
}

// allocate splits the shift's sold lines across its settlement channels in
// order: each customer credit, card, fleet card, then whatever is left as
// cash. Lines are split where a channel boundary falls inside them, so both
// the per-category and the per-channel sums of the result match the shift.
// The second return value is the part of the declared channels that found no
// sales left to cover it.
func allocate(s domain.ShiftSettlement, lines []soldLine) ([]domain.Invoice, decimal.Decimal) {
	queue := append([]soldLine(nil), lines...)
	invoices := make([]domain.Invoice, 0, len(s.Credits)+3)
	unallocated := decimal.Zero

	take := func(amount decimal.Decimal) []domain.InvoiceItem {
		items := make([]domain.InvoiceItem, 0, 2)
		for amount.IsPositive() && len(queue) > 0 {
			head := &queue[0]
			portion := decimal.Min(amount, head.remaining)
			items = append(items, lineItems(*head, portion)...)
			head.remaining = head.remaining.Sub(portion)
			amount = amount.Sub(portion)
			if !head.remaining.IsPositive() {
				queue = queue[1:]
			}
		}
		if amount.IsPositive() {
			unallocated = unallocated.Add(amount)
		}
		return items
	}

	seq := 0
	emit := func(ch channel, items []domain.InvoiceItem) {
		if len(items) == 0 {
			return
		}
		seq++
		inv := domain.Invoice{
			ID:            fmt.Sprintf("%s-inv-%d", s.ID, seq),
			Type:          domain.InvoiceSale,
			Date:          s.ClosedAt,
			Partner:       ch.partner,
			Items:         items,
			PaymentMethod: ch.method,
			Status:        ch.status,
			CreatedBy:     s.ClosedBy,
			SettlementID:  s.ID,
		}
		for i := range inv.Items {
			inv.Items[i].ID = fmt.Sprintf("%s-%d", inv.ID, i+1)
		}
		inv.Totalize()
		invoices = append(invoices, inv)
	}

	for _, ch := range channels(s) {
		if !ch.amount.IsPositive() {
			continue
		}
		emit(ch, take(ch.amount))
	}

	rest := decimal.Zero
	for _, l := range queue {
		rest = rest.Add(l.remaining)
	}
	emit(channel{method: domain.MethodCash, status: domain.InvoicePaid, partner: domain.UnlinkedPartner("Cash sales")}, take(rest))

	return invoices, unallocated
}

// quantityPlaces is the precision of a split line's quantity (litres to the
// millilitre, shop units to the thousandth).
const quantityPlaces = 3

// lineItems books amount of l. The quantity is rounded down so that
// Quantity x UnitPrice equals Total on every item; whatever the rounding
// leaves over is booked as a one-unit rounding item of the same category.
func lineItems(l soldLine, amount decimal.Decimal) []domain.InvoiceItem {
	items := make([]domain.InvoiceItem, 0, 2)
	qty := amount.Div(l.price).RoundDown(quantityPlaces)
	booked := qty.Mul(l.price)
	if qty.IsPositive() {
		items = append(items, domain.InvoiceItem{
			ProductID:   l.productID,
			ProductName: l.name,
			Category:    l.category,
			Quantity:    qty,
			UnitPrice:   l.price,
			VATRate:     l.vatRate,
			Total:       booked,
		})
	}
	if gap := amount.Sub(booked); gap.IsPositive() {
		items = append(items, domain.InvoiceItem{
			ProductID:   l.productID,
			ProductName: l.name + " (rounding)",
			Category:    l.category,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   gap,
			VATRate:     l.vatRate,
			Total:       gap,
		})
	}
	return items
}
