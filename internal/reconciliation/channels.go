package reconciliation

import (
	"petrolhub/backend/internal/domain"
)

// ClassifyChannels buckets sale invoices and standalone payments by settlement
// method. Each entry lands in at most one bucket; combinations without a
// bucket (a cheque sale invoice, a cash disbursement) contribute nothing.
// Fleet card money only ever comes from invoices.
func ClassifyChannels(invoices []domain.Invoice, payments []domain.Payment) domain.ChannelTotals {
	channels := domain.ChannelTotals{}

	for _, inv := range invoices {
		if inv.Type != domain.InvoiceSale {
			continue
		}
		switch inv.PaymentMethod {
		case domain.MethodCash:
			channels.Cash = channels.Cash.Add(inv.TotalTTC)
		case domain.MethodCard:
			channels.Card = channels.Card.Add(inv.TotalTTC)
		case domain.MethodFleetCard:
			channels.FleetCard = channels.FleetCard.Add(inv.TotalTTC)
		case domain.MethodCredit:
			channels.Credit = channels.Credit.Add(inv.TotalTTC)
		}
	}

	for _, payment := range payments {
		switch payment.Direction {
		case domain.DirectionReceipt:
			switch payment.Method {
			case domain.MethodCash:
				channels.Cash = channels.Cash.Add(payment.Amount)
			case domain.MethodCard:
				channels.Card = channels.Card.Add(payment.Amount)
			case domain.MethodCheque:
				channels.Cheque = channels.Cheque.Add(payment.Amount)
			case domain.MethodTransfer:
				channels.TransferIn = channels.TransferIn.Add(payment.Amount)
			}
		case domain.DirectionDisbursement:
			if payment.Method == domain.MethodTransfer {
				channels.TransferOut = channels.TransferOut.Add(payment.Amount)
			}
		}
	}

	return channels
}
