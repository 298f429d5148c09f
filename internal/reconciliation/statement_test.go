package reconciliation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petrolhub/backend/internal/domain"
)

func TestBuildPartnerStatement(t *testing.T) {
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	customer := domain.PartnerRef{Kind: domain.PartnerCustomer, ID: "c1", Name: "SOTRA TRANS MAROC"}
	supplier := domain.PartnerRef{Kind: domain.PartnerSupplier, ID: "s1", Name: "AFRIQUIA"}

	withPartner := func(inv domain.Invoice, p domain.PartnerRef) domain.Invoice {
		inv.Partner = p
		return inv
	}

	invoices := []domain.Invoice{
		withPartner(saleInvoice(t, "inv-1", day, domain.MethodCredit, item(t, domain.CategoryFuel, "10", "10", "10")), customer),
		withPartner(saleInvoice(t, "inv-2", day, domain.MethodCredit, item(t, domain.CategoryFuel, "5", "10", "10")),
			domain.PartnerRef{Kind: domain.PartnerCustomer, ID: "c2", Name: "OTHER"}),
		saleInvoice(t, "inv-3", day, domain.MethodCash, item(t, domain.CategoryFuel, "1", "10", "10")),
		withPartner(saleInvoice(t, "inv-4", day.Add(24*time.Hour), domain.MethodCredit, item(t, domain.CategoryWash, "1", "40", "20")), customer),
		withPartner(purchaseInvoice(t, "pur-1", day, item(t, domain.CategoryFuel, "30", "10", "10")), supplier),
		// same id, different kind
		withPartner(purchaseInvoice(t, "pur-2", day, item(t, domain.CategoryOther, "1", "999", "20")),
			domain.PartnerRef{Kind: domain.PartnerSupplier, ID: "c1"}),
	}
	payments := []domain.Payment{
		{ID: "pay-1", Date: day.Add(48 * time.Hour), Partner: customer, Amount: dec(t, "60"), Method: domain.MethodCash, Direction: domain.DirectionReceipt, Reference: "REC-7"},
		{ID: "pay-2", Date: day.Add(24 * time.Hour), Partner: supplier, Amount: dec(t, "200"), Method: domain.MethodTransfer, Direction: domain.DirectionDisbursement},
	}

	cases := []struct {
		name    string
		partner domain.PartnerRef
		ids     []string
		debit   string
		credit  string
		balance string
	}{
		{"customer", customer, []string{"pay-1", "inv-4", "inv-1"}, "140", "60", "80"},
		{"supplier", supplier, []string{"pay-2", "pur-1"}, "200", "300", "-100"},
		{"unlinked", domain.UnlinkedPartner("Client comptoir"), []string{}, "0", "0", "0"},
		{"no activity", domain.PartnerRef{Kind: domain.PartnerCustomer, ID: "c9"}, []string{}, "0", "0", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			statement := BuildPartnerStatement(tc.partner, invoices, payments)

			ids := make([]string, 0, len(statement.Lines))
			for _, line := range statement.Lines {
				ids = append(ids, line.SourceID)
			}
			assert.Equal(t, tc.ids, ids)
			assertDecimal(t, tc.debit, statement.TotalDebit)
			assertDecimal(t, tc.credit, statement.TotalCredit)
			assertDecimal(t, tc.balance, statement.Balance)
		})
	}
}

func TestBuildPartnerStatementLineDetails(t *testing.T) {
	customer := domain.PartnerRef{Kind: domain.PartnerCustomer, ID: "c1"}
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	statement := BuildPartnerStatement(customer, nil, []domain.Payment{
		{ID: "pay-1", Date: at, Partner: customer, Amount: dec(t, "60"), Method: domain.MethodCheque, Direction: domain.DirectionReceipt, Reference: "CHQ-118"},
	})
	require.Len(t, statement.Lines, 1)
	line := statement.Lines[0]
	assert.Equal(t, "payment", line.Source)
	assert.Equal(t, domain.StatementCredit, line.Direction)
	assert.Equal(t, domain.MethodCheque, line.Method)
	assert.Equal(t, "Payment - CHEQUE CHQ-118", line.Description)
	assert.Equal(t, at, line.Date)
}
