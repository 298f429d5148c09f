// Package reconciliation holds the pure calculators behind shift closing and
// the daily financial report. Nothing here performs I/O or keeps state.
package reconciliation

import (
	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)

	categoryOrder = []domain.ItemCategory{
		domain.CategoryFuel,
		domain.CategoryLubricant,
		domain.CategoryWash,
		domain.CategoryOther,
	}
)

// AggregateSales sums the tax-inclusive line totals of SALE invoices into
// their category bucket. Unknown category tags land in Other.
func AggregateSales(invoices []domain.Invoice) domain.SalesTotals {
	totals := domain.SalesTotals{}
	for _, inv := range invoices {
		if inv.Type != domain.InvoiceSale {
			continue
		}
		for _, item := range inv.Items {
			switch normalizeCategory(item.Category) {
			case domain.CategoryFuel:
				totals.Fuel = totals.Fuel.Add(item.Total)
			case domain.CategoryLubricant:
				totals.Lubricant = totals.Lubricant.Add(item.Total)
			case domain.CategoryWash:
				totals.Wash = totals.Wash.Add(item.Total)
			default:
				totals.Other = totals.Other.Add(item.Total)
			}
		}
	}
	totals.Total = totals.Fuel.Add(totals.Lubricant).Add(totals.Wash).Add(totals.Other)
	return totals
}

// BreakdownByCategory returns one line per category, always in the order
// fuel, lubricant, wash, other. Each line carries its tax split computed per
// item with the item's own rate, and its share of the grand total in percent.
func BreakdownByCategory(invoices []domain.Invoice) []domain.CategoryLine {
	splits := make(map[domain.ItemCategory]domain.TaxSplit, len(categoryOrder))
	grand := decimal.Zero
	for _, inv := range invoices {
		if inv.Type != domain.InvoiceSale {
			continue
		}
		for _, item := range inv.Items {
			category := normalizeCategory(item.Category)
			splits[category] = splits[category].Add(SplitLine(item))
			grand = grand.Add(item.Total)
		}
	}

	lines := make([]domain.CategoryLine, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		split := splits[category]
		lines = append(lines, domain.CategoryLine{
			Category:     category,
			Split:        split,
			SharePercent: SharePercent(split.TTC, grand),
		})
	}
	return lines
}

// SplitLine separates a tax-inclusive line total into base and tax.
func SplitLine(item domain.InvoiceItem) domain.TaxSplit {
	ht := item.AmountHT()
	return domain.TaxSplit{HT: ht, VAT: item.Total.Sub(ht), TTC: item.Total}
}

// SharePercent returns part/whole as a percentage rounded to two places, or
// zero when whole is zero.
func SharePercent(part decimal.Decimal, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

func normalizeCategory(category domain.ItemCategory) domain.ItemCategory {
	switch category {
	case domain.CategoryFuel, domain.CategoryLubricant, domain.CategoryWash:
		return category
	}
	return domain.CategoryOther
}
