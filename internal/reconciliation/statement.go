package reconciliation

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
)

func samePartner(a domain.PartnerRef, b domain.PartnerRef) bool {
	return a.IsLinked() && a.Kind == b.Kind && a.ID == b.ID
}

// BuildPartnerStatement merges the invoices and payments linked to partner
// into one account history. Sales and disbursements are debits, purchases and
// receipts are credits. Unlinked counterparties never match.
func BuildPartnerStatement(partner domain.PartnerRef, invoices []domain.Invoice, payments []domain.Payment) domain.PartnerStatement {
	statement := domain.PartnerStatement{
		Partner: partner,
		Lines:   []domain.StatementLine{},
	}
	if !partner.IsLinked() {
		return statement
	}

	for _, inv := range invoices {
		if !samePartner(inv.Partner, partner) {
			continue
		}
		direction := domain.StatementDebit
		if inv.Type == domain.InvoicePurchase {
			direction = domain.StatementCredit
		}
		statement.Lines = append(statement.Lines, domain.StatementLine{
			Date:        inv.Date,
			Source:      "invoice",
			SourceID:    inv.ID,
			Description: fmt.Sprintf("Invoice %s", inv.ID),
			Amount:      inv.TotalTTC,
			Direction:   direction,
			Method:      inv.PaymentMethod,
		})
	}
	for _, payment := range payments {
		if !samePartner(payment.Partner, partner) {
			continue
		}
		direction := domain.StatementCredit
		if payment.Direction == domain.DirectionDisbursement {
			direction = domain.StatementDebit
		}
		description := fmt.Sprintf("Payment - %s", payment.Method)
		if payment.Reference != "" {
			description += " " + payment.Reference
		}
		statement.Lines = append(statement.Lines, domain.StatementLine{
			Date:        payment.Date,
			Source:      "payment",
			SourceID:    payment.ID,
			Description: description,
			Amount:      payment.Amount,
			Direction:   direction,
			Method:      payment.Method,
		})
	}

	slices.SortStableFunc(statement.Lines, func(a, b domain.StatementLine) int {
		return b.Date.Compare(a.Date)
	})

	statement.TotalDebit = decimal.Zero
	statement.TotalCredit = decimal.Zero
	for _, line := range statement.Lines {
		if line.Direction == domain.StatementDebit {
			statement.TotalDebit = statement.TotalDebit.Add(line.Amount)
		} else {
			statement.TotalCredit = statement.TotalCredit.Add(line.Amount)
		}
	}
	statement.Balance = statement.TotalDebit.Sub(statement.TotalCredit)
	return statement
}
