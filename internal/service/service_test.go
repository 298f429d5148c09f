package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/insights"
	"petrolhub/backend/internal/reconciliation"
	mock_service "petrolhub/backend/internal/service/mocks"
	"petrolhub/backend/internal/settlement"
	"petrolhub/backend/internal/store"
	"petrolhub/backend/internal/store/memory"
)

var fixedNow = time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

func dec(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func decPtr(raw string) *decimal.Decimal {
	d := dec(raw)
	return &d
}

func newTestService(t *testing.T, opts Options) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.NewSeeded()
	opts.Logger = zerolog.Nop()
	svc := New(repo, opts)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func clerkCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "clerk", Role: domain.RoleClerk})
}

// fillSession enters a balanced shift: 2935 sold, 500 on credit, 35 of
// expenses, 1000 by card and 1400 counted in the drawer.
func fillSession(t *testing.T, svc *Service, ctx context.Context, id string) domain.ShiftSessionView {
	t.Helper()
	view, err := svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{
		Pumps: []domain.PumpReadingInput{
			{PumpID: "P1", NewIndex: dec("12550.5")},
			{PumpID: "P2", NewIndex: dec("89100.2")},
			{PumpID: "P3", NewIndex: dec("5420.0")},
			{PumpID: "P4", NewIndex: dec("32150.8")},
		},
		Lubricants: []domain.ShopLine{{ProductID: "l1", Quantity: dec("2")}},
		Wash:       &domain.WashSales{BasicQty: dec("1"), BasicPrice: dec("40"), CompletePrice: dec("80")},
		Credits: []domain.CreditLine{
			{Customer: domain.PartnerRef{Kind: domain.PartnerCustomer, ID: "c1"}, Amount: dec("500")},
		},
		Expenses: []domain.ExpenseLine{{Description: "Sacs poubelle", Amount: dec("35")}},
		Tenders:  &domain.Tenders{Cash: dec("1400"), Card: dec("1000")},
	})
	require.NoError(t, err)
	return view
}

func walkToReview(t *testing.T, svc *Service, ctx context.Context, id string) {
	t.Helper()
	for i := 0; i < 5; i++ {
		_, err := svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{Action: "next"})
		require.NoError(t, err)
	}
	view, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StepReview, view.Session.State.Step)
}

func TestCreateInvoiceDerivesTotalsAndStatus(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()

	inv, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		Type:          domain.InvoiceSale,
		Partner:       domain.PartnerInput{Kind: domain.PartnerCustomer, ID: "c2"},
		PaymentMethod: domain.MethodCredit,
		Items: []domain.InvoiceItemInput{
			{ProductName: "Gasoil", Category: domain.CategoryFuel, Quantity: dec("40"), UnitPrice: dec("11.95"), VATRate: dec("20")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePending, inv.Status)
	assert.Equal(t, "LIVRAISON EXPRESS", inv.Partner.Name)
	assert.True(t, inv.TotalTTC.Equal(dec("478")))
	assert.True(t, inv.Balanced())
	assert.Equal(t, "clerk", inv.CreatedBy)
}

func TestCreateInvoiceRejectsInconsistentPartners(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()
	items := []domain.InvoiceItemInput{
		{ProductName: "Lavage", Category: domain.CategoryWash, Quantity: dec("1"), UnitPrice: dec("40"), VATRate: dec("20")},
	}

	cases := []struct {
		name string
		req  domain.InvoiceCreateRequest
		want error
	}{
		{
			name: "sale to supplier",
			req:  domain.InvoiceCreateRequest{Type: domain.InvoiceSale, Partner: domain.PartnerInput{Kind: domain.PartnerSupplier, ID: "s1"}, PaymentMethod: domain.MethodCash, Items: items},
			want: store.ErrInvalidEntry,
		},
		{
			name: "purchase from customer",
			req:  domain.InvoiceCreateRequest{Type: domain.InvoicePurchase, Partner: domain.PartnerInput{Kind: domain.PartnerCustomer, ID: "c1"}, PaymentMethod: domain.MethodTransfer, Items: items},
			want: store.ErrInvalidEntry,
		},
		{
			name: "credit sale without account",
			req:  domain.InvoiceCreateRequest{Type: domain.InvoiceSale, Partner: domain.PartnerInput{Name: "Passage"}, PaymentMethod: domain.MethodCredit, Items: items},
			want: store.ErrInvalidEntry,
		},
		{
			name: "unknown customer",
			req:  domain.InvoiceCreateRequest{Type: domain.InvoiceSale, Partner: domain.PartnerInput{Kind: domain.PartnerCustomer, ID: "c404"}, PaymentMethod: domain.MethodCredit, Items: items},
			want: store.ErrNotFound,
		},
		{
			name: "no items",
			req:  domain.InvoiceCreateRequest{Type: domain.InvoiceSale, PaymentMethod: domain.MethodCash},
			want: store.ErrInvalidEntry,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateInvoice(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateExpenseAndPayment(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()

	_, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Divers", Amount: dec("0"), PaymentMethod: domain.MethodCash})
	assert.ErrorIs(t, err, store.ErrInvalidEntry)

	exp, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: " Entretien ", Amount: dec("120"), PaymentMethod: domain.MethodCash})
	require.NoError(t, err)
	assert.Equal(t, "Entretien", exp.Category)

	_, err = svc.CreatePayment(ctx, domain.PaymentCreateRequest{
		Amount: dec("100"), Method: domain.MethodTransfer, Direction: domain.DirectionReceipt, BankAccountID: "b9",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	pay, err := svc.CreatePayment(ctx, domain.PaymentCreateRequest{
		Partner: domain.PartnerInput{Kind: domain.PartnerCustomer, ID: "c1"},
		Amount:  dec("5000"), Method: domain.MethodTransfer, Direction: domain.DirectionReceipt, BankAccountID: "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, "SOTRA TRANS MAROC", pay.Partner.Name)

	ledger, err := svc.Ledger(ctx, "2025-03-14")
	require.NoError(t, err)
	assert.Len(t, ledger.Expenses, 1)
	assert.Len(t, ledger.Payments, 1)

	logs, err := svc.ListAuditLogs(ctx, "2025-03-14", 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestStartSessionPrefillsPumpsAndWashPrices(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	view, err := svc.StartSession(clerkCtx(), domain.ShiftSessionStartRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.StepMeters, view.Session.State.Step)
	require.Len(t, view.Session.Pumps, 4)
	for _, p := range view.Session.Pumps {
		assert.True(t, p.NewIndex.Equal(p.LastIndex), p.PumpID)
	}
	assert.True(t, view.Session.Wash.BasicPrice.Equal(dec("40")))
	assert.True(t, view.Session.Wash.CompletePrice.Equal(dec("80")))
	assert.True(t, view.Totals.TheoreticalTotal.IsZero())
	assert.Equal(t, "clerk", view.Session.OpenedBy)
	assert.Equal(t, fixedNow, view.Session.OpenedAt)
}

func TestUpdateSessionComputesTotals(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()
	started, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)

	view := fillSession(t, svc, ctx, started.Session.ID)
	totals := view.Totals
	assert.True(t, totals.FuelRevenue.Equal(dec("2645")), totals.FuelRevenue.String())
	assert.True(t, totals.ShopRevenue.Equal(dec("250")))
	assert.True(t, totals.WashRevenue.Equal(dec("40")))
	assert.True(t, totals.TheoreticalTotal.Equal(dec("2935")))
	assert.True(t, totals.TheoreticalCash.Equal(dec("1400")))
	assert.True(t, totals.Variance.IsZero())
	assert.Equal(t, domain.ReconciliationOK, totals.Status)

	assert.Equal(t, "Quartz 9000 5W40", view.Session.Lubricants[0].Name)
	assert.Equal(t, "SOTRA TRANS MAROC", view.Session.Credits[0].Customer.Name)
}

func TestUpdateSessionRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()
	started, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)
	id := started.Session.ID

	_, err = svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{
		Pumps: []domain.PumpReadingInput{{PumpID: "P9", NewIndex: dec("1")}},
	})
	assert.ErrorIs(t, err, store.ErrInvalidEntry)

	_, err = svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{
		Pumps: []domain.PumpReadingInput{{PumpID: "P1", NewIndex: dec("1"), UnitPrice: decPtr("-2")}},
	})
	assert.ErrorIs(t, err, store.ErrInvalidEntry)

	_, err = svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{
		Tenders: &domain.Tenders{Cash: dec("-1")},
		Credits: []domain.CreditLine{{Amount: dec("-5")}},
	})
	assert.ErrorIs(t, err, store.ErrInvalidEntry)

	_, err = svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{Action: "goto:review"})
	assert.ErrorIs(t, err, store.ErrInvalidEntry)
	assert.ErrorIs(t, err, reconciliation.ErrInvalidTransition)

	_, err = svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{Action: "confirm"})
	assert.ErrorIs(t, err, store.ErrInvalidEntry)

	_, err = svc.UpdateSession(ctx, "sess-missing", domain.ShiftSessionUpdateRequest{})
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A rejected update leaves the session as it was.
	view, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, view.Session.Pumps[0].NewIndex.Equal(dec("12450.5")))
	assert.Equal(t, domain.StepMeters, view.Session.State.Step)
}

func TestConfirmSessionCommitsAndSettles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mock_service.NewMockSettlementSink(ctrl)
	svc, repo := newTestService(t, Options{Sink: sink})
	ctx := clerkCtx()

	started, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)
	id := started.Session.ID
	fillSession(t, svc, ctx, id)

	_, err = svc.ConfirmSession(ctx, id)
	assert.ErrorIs(t, err, store.ErrInvalidEntry, "confirm is only valid from review")

	walkToReview(t, svc, ctx, id)

	sink.EXPECT().
		Settle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s domain.ShiftSettlement) error {
			assert.Equal(t, id, s.SessionID)
			assert.Equal(t, "clerk", s.ClosedBy)
			assert.True(t, s.Totals.TheoreticalTotal.Equal(dec("2935")))
			return nil
		}).
		Times(1)

	resp, err := svc.ConfirmSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconciliationOK, resp.Completion.Totals.Status)
	assert.NotEmpty(t, resp.Settlement.ID)

	pump, err := repo.GetPump(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, pump.LastIndex.Equal(dec("12550.5")))
	assert.Equal(t, "t1", pump.TankID)

	closing, err := svc.GetClosing(ctx, resp.Settlement.ID)
	require.NoError(t, err)
	assert.True(t, closing.Totals.Variance.IsZero())

	view, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StepCompleted, view.Session.State.Step)

	_, err = svc.ConfirmSession(ctx, id)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.ErrorIs(t, err, reconciliation.ErrWizardCompleted)

	_, err = svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{Action: "back"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestConfirmSessionKeepsCommitWhenSinkFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mock_service.NewMockSettlementSink(ctrl)
	sink.EXPECT().Settle(gomock.Any(), gomock.Any()).Return(errors.New("ledger offline"))

	svc, _ := newTestService(t, Options{Sink: sink})
	ctx := clerkCtx()
	started, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)
	fillSession(t, svc, ctx, started.Session.ID)
	walkToReview(t, svc, ctx, started.Session.ID)

	resp, err := svc.ConfirmSession(ctx, started.Session.ID)
	require.NoError(t, err)
	assert.False(t, resp.Settlement.LedgerPosted)

	closings, err := svc.ListClosings(ctx, "2025-03-14", 0)
	require.NoError(t, err)
	assert.Len(t, closings, 1)
}

func TestConfirmSessionPromotesRolledBackIndex(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	ctx := clerkCtx()
	started, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)
	id := started.Session.ID

	view, err := svc.UpdateSession(ctx, id, domain.ShiftSessionUpdateRequest{
		Pumps: []domain.PumpReadingInput{{PumpID: "P1", NewIndex: dec("12000")}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, view.Totals.RolledBackPumps)
	assert.True(t, view.Totals.FuelRevenue.IsZero())

	walkToReview(t, svc, ctx, id)
	_, err = svc.ConfirmSession(ctx, id)
	require.NoError(t, err)

	pump, err := repo.GetPump(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, pump.LastIndex.Equal(dec("12000")), pump.LastIndex.String())
}

func TestConfirmSessionRejectsStaleStartingIndex(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	ctx := clerkCtx()

	first, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)
	second, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)

	fillSession(t, svc, ctx, first.Session.ID)
	walkToReview(t, svc, ctx, first.Session.ID)
	_, err = svc.ConfirmSession(ctx, first.Session.ID)
	require.NoError(t, err)

	_, err = svc.UpdateSession(ctx, second.Session.ID, domain.ShiftSessionUpdateRequest{
		Pumps: []domain.PumpReadingInput{{PumpID: "P1", NewIndex: dec("12500.5")}},
	})
	require.NoError(t, err)
	walkToReview(t, svc, ctx, second.Session.ID)

	_, err = svc.ConfirmSession(ctx, second.Session.ID)
	assert.ErrorIs(t, err, store.ErrConflict)

	pump, err := repo.GetPump(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, pump.LastIndex.Equal(dec("12550.5")), pump.LastIndex.String())

	closings, err := svc.ListClosings(ctx, "2025-03-14", 0)
	require.NoError(t, err)
	assert.Len(t, closings, 1)

	view, err := svc.GetSession(ctx, second.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepReview, view.Session.State.Step)
}

func TestDefaultUnitPrice(t *testing.T) {
	cases := []struct {
		pump domain.Pump
		want string
	}{
		{domain.Pump{FuelType: "Gasoil"}, "11.95"},
		{domain.Pump{FuelType: "Gasoil 50ppm"}, "11.95"},
		{domain.Pump{FuelType: "GASOIL"}, "11.95"},
		{domain.Pump{FuelType: "Sans Plomb"}, "14.50"},
		{domain.Pump{FuelType: ""}, "14.50"},
		{domain.Pump{FuelType: "Gasoil", UnitPrice: dec("12.40")}, "12.40"},
	}
	for _, tc := range cases {
		got := defaultUnitPrice(tc.pump)
		assert.True(t, got.Equal(dec(tc.want)), "%q: got %s, want %s", tc.pump.FuelType, got, tc.want)
	}
}

func TestConfirmedShiftFlowsIntoDailyReport(t *testing.T) {
	repo := memory.NewSeeded()
	svc := New(repo, Options{Sink: settlement.NewLedgerPoster(repo, zerolog.Nop()), Logger: zerolog.Nop()})
	svc.now = func() time.Time { return fixedNow }
	ctx := clerkCtx()

	started, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)
	fillSession(t, svc, ctx, started.Session.ID)
	walkToReview(t, svc, ctx, started.Session.ID)

	resp, err := svc.ConfirmSession(ctx, started.Session.ID)
	require.NoError(t, err)
	assert.True(t, resp.Settlement.LedgerPosted)

	report, err := svc.DailyReport(ctx, "2025-03-14", domain.ReportAdjustments{})
	require.NoError(t, err)
	assert.True(t, report.Sales.Total.Equal(dec("2935")), report.Sales.Total.String())
	assert.True(t, report.Sales.Fuel.Equal(dec("2645")))
	assert.True(t, report.Channels.Credit.Equal(dec("500")))
	assert.True(t, report.Channels.Card.Equal(dec("1000")))
	assert.True(t, report.Channels.Cash.Equal(dec("1435")))
	assert.True(t, report.TotalCashExpenses.Equal(dec("35")))
	assert.True(t, report.NetCashResidual.Equal(dec("1400")))
	assert.Equal(t, domain.PositionSolvent, report.CashPosition)
	assert.Equal(t, "PETROLHUB MAROC SARL", report.Station.Name)
}

func TestAbandonSession(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()
	started, err := svc.StartSession(ctx, domain.ShiftSessionStartRequest{})
	require.NoError(t, err)

	require.NoError(t, svc.AbandonSession(ctx, started.Session.ID))
	_, err = svc.GetSession(ctx, started.Session.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.AbandonSession(ctx, started.Session.ID), store.ErrNotFound)
}

func TestPreviewShiftIsPure(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	totals, err := svc.PreviewShift(context.Background(), domain.ShiftSession{
		Pumps: []domain.PumpReading{
			{PumpID: "P1", LastIndex: dec("1000"), NewIndex: dec("1100"), UnitPrice: dec("14.50")},
		},
		Tenders: domain.Tenders{Cash: dec("1450.05")},
	})
	require.NoError(t, err)
	assert.True(t, totals.TheoreticalTotal.Equal(dec("1450")))
	assert.Equal(t, domain.ReconciliationOK, totals.Status)

	_, err = svc.PreviewShift(context.Background(), domain.ShiftSession{
		Pumps: []domain.PumpReading{{PumpID: "P1", LastIndex: dec("-1"), NewIndex: dec("1")}},
	})
	assert.ErrorIs(t, err, store.ErrInvalidEntry)
}

func TestDailyReportRejectsBadDate(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.DailyReport(context.Background(), "14/03/2025", domain.ReportAdjustments{})
	assert.ErrorIs(t, err, store.ErrInvalidEntry)
}

func TestDailyReportAppliesAdjustments(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()

	_, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		Type:          domain.InvoiceSale,
		PaymentMethod: domain.MethodCash,
		Items: []domain.InvoiceItemInput{
			{ProductName: "Sans Plomb", Category: domain.CategoryFuel, Quantity: dec("100"), UnitPrice: dec("14.50"), VATRate: dec("20")},
		},
	})
	require.NoError(t, err)

	report, err := svc.DailyReport(ctx, "", domain.ReportAdjustments{
		OperatingMargin: dec("50"),
		CashDeposited:   dec("1500"),
		BankFees:        dec("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", report.Date)
	assert.True(t, report.NetCashResidual.Equal(dec("-100")))
	assert.Equal(t, domain.PositionShortfall, report.CashPosition)
	assert.True(t, report.NetBankMovement.Equal(dec("1490")))
	assert.Equal(t, domain.PositionSolvent, report.BankPosition)
}

func marchAt(day int, hour int) *time.Time {
	ts := time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
	return &ts
}

func TestPeriodReport(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()

	_, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		Type:          domain.InvoiceSale,
		Date:          marchAt(2, 9),
		PaymentMethod: domain.MethodCash,
		Items: []domain.InvoiceItemInput{
			{ProductName: "Sans Plomb", Category: domain.CategoryFuel, Quantity: dec("100"), UnitPrice: dec("14.50"), VATRate: dec("20")},
		},
	})
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		Type:          domain.InvoicePurchase,
		Date:          marchAt(10, 9),
		Partner:       domain.PartnerInput{Kind: domain.PartnerSupplier, ID: "s1"},
		PaymentMethod: domain.MethodTransfer,
		Items: []domain.InvoiceItemInput{
			{ProductName: "Gasoil", Category: domain.CategoryFuel, Quantity: dec("40"), UnitPrice: dec("11.95"), VATRate: dec("20")},
		},
	})
	require.NoError(t, err)
	feb := time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)
	_, err = svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Date: &feb, Category: "Entretien", Amount: dec("120"), PaymentMethod: domain.MethodCash})
	require.NoError(t, err)

	cases := []struct {
		name      string
		preset    string
		from, to  string
		wantFrom  string
		wantSales string
		wantBuys  string
		wantCosts string
		wantNet   string
	}{
		{name: "default is month to date", wantFrom: "2025-03-01", wantSales: "1450", wantBuys: "478", wantCosts: "0", wantNet: "972"},
		{name: "week", preset: "week", wantFrom: "2025-03-07", wantSales: "0", wantBuys: "478", wantCosts: "0", wantNet: "-478"},
		{name: "year", preset: "YEAR", wantFrom: "2025-01-01", wantSales: "1450", wantBuys: "478", wantCosts: "120", wantNet: "852"},
		{name: "custom", preset: "custom", from: "2025-02-01", to: "2025-03-05", wantFrom: "2025-02-01", wantSales: "1450", wantBuys: "0", wantCosts: "120", wantNet: "1330"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := svc.PeriodReport(ctx, tc.preset, tc.from, tc.to)
			require.NoError(t, err)
			assert.Equal(t, tc.wantFrom, report.From)
			assert.True(t, report.Sales.Total.Equal(dec(tc.wantSales)), "sales %s", report.Sales.Total)
			assert.True(t, report.TotalPurchases.Equal(dec(tc.wantBuys)), "purchases %s", report.TotalPurchases)
			assert.True(t, report.TotalExpenses.Equal(dec(tc.wantCosts)), "expenses %s", report.TotalExpenses)
			assert.True(t, report.Net.Equal(dec(tc.wantNet)), "net %s", report.Net)
			assert.Equal(t, "UTC", report.Station.TimeZone)
		})
	}
}

func TestPeriodReportRejectsBadRanges(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()

	for _, tc := range []struct{ preset, from, to string }{
		{preset: "quarter"},
		{preset: "custom", from: "2025-03-10", to: "2025-03-01"},
		{preset: "custom", from: "10/03/2025", to: "2025-03-11"},
	} {
		_, err := svc.PeriodReport(ctx, tc.preset, tc.from, tc.to)
		assert.ErrorIs(t, err, store.ErrInvalidEntry, "%+v", tc)
	}
}

func TestCustomerStatement(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()

	inv, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		Type:          domain.InvoiceSale,
		Date:          marchAt(10, 9),
		Partner:       domain.PartnerInput{Kind: domain.PartnerCustomer, ID: "c1"},
		PaymentMethod: domain.MethodCredit,
		Items: []domain.InvoiceItemInput{
			{ProductName: "Gasoil", Category: domain.CategoryFuel, Quantity: dec("40"), UnitPrice: dec("11.95"), VATRate: dec("20")},
		},
	})
	require.NoError(t, err)
	pay, err := svc.CreatePayment(ctx, domain.PaymentCreateRequest{
		Partner: domain.PartnerInput{Kind: domain.PartnerCustomer, ID: "c1"},
		Amount:  dec("200"), Method: domain.MethodCheque, Direction: domain.DirectionReceipt, Reference: "CHQ-7",
	})
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		Type:          domain.InvoiceSale,
		Partner:       domain.PartnerInput{Kind: domain.PartnerCustomer, ID: "c2"},
		PaymentMethod: domain.MethodCredit,
		Items: []domain.InvoiceItemInput{
			{ProductName: "Lavage", Category: domain.CategoryWash, Quantity: dec("1"), UnitPrice: dec("40"), VATRate: dec("20")},
		},
	})
	require.NoError(t, err)

	statement, err := svc.CustomerStatement(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "SOTRA TRANS MAROC", statement.Partner.Name)
	assert.Equal(t, "001567890123456", statement.Partner.TaxID)
	require.Len(t, statement.Lines, 2)
	assert.Equal(t, pay.ID, statement.Lines[0].SourceID)
	assert.Equal(t, domain.StatementCredit, statement.Lines[0].Direction)
	assert.Equal(t, inv.ID, statement.Lines[1].SourceID)
	assert.Equal(t, domain.StatementDebit, statement.Lines[1].Direction)
	assert.True(t, statement.Balance.Equal(dec("278")), "balance %s", statement.Balance)

	_, err = svc.CustomerStatement(ctx, "c404")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSupplierStatement(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := clerkCtx()

	_, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		Type:          domain.InvoicePurchase,
		Date:          marchAt(10, 9),
		Partner:       domain.PartnerInput{Kind: domain.PartnerSupplier, ID: "s1"},
		PaymentMethod: domain.MethodCredit,
		Items: []domain.InvoiceItemInput{
			{ProductName: "Gasoil", Category: domain.CategoryFuel, Quantity: dec("1000"), UnitPrice: dec("10"), VATRate: dec("20")},
		},
	})
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, domain.PaymentCreateRequest{
		Partner: domain.PartnerInput{Kind: domain.PartnerSupplier, ID: "s1"},
		Amount:  dec("4000"), Method: domain.MethodTransfer, Direction: domain.DirectionDisbursement, BankAccountID: "b1",
	})
	require.NoError(t, err)

	statement, err := svc.SupplierStatement(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, statement.Lines, 2)
	assert.True(t, statement.TotalCredit.Equal(dec("10000")))
	assert.True(t, statement.TotalDebit.Equal(dec("4000")))
	assert.True(t, statement.Balance.Equal(dec("-6000")))

	_, err = svc.SupplierStatement(ctx, "c1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsightsHandsFiguresToAdvisor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	advisor := mock_service.NewMockInsightAdvisor(ctrl)
	advisor.EXPECT().
		Advise(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f insights.Figures) domain.InsightResponse {
			assert.Equal(t, "2025-03-14", f.Report.Date)
			assert.Len(t, f.Tanks, 3)
			assert.Len(t, f.Lubricants, 3)
			return domain.InsightResponse{Date: f.Report.Date, Insights: []string{"Reorder Helix Ultra 5W30."}}
		})

	svc, _ := newTestService(t, Options{Advisor: advisor})
	resp, err := svc.Insights(context.Background(), "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, []string{"Reorder Helix Ultra 5W30."}, resp.Insights)
}

func TestInsightsFallsBackWithoutClient(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	resp, err := svc.Insights(context.Background(), "2025-03-14")
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.Equal(t, []string{insights.FallbackMessage}, resp.Insights)
}

func TestResetPumpIndexRequiresManager(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	req := domain.PumpIndexResetRequest{NewIndex: dec("0"), Reason: "meter replaced"}

	_, err := svc.ResetPumpIndex(clerkCtx(), "P1", req)
	assert.ErrorIs(t, err, ErrForbidden)

	managerCtx := WithActor(context.Background(), domain.Actor{Username: "manager", Role: domain.RoleManager})
	_, err = svc.ResetPumpIndex(managerCtx, "P1", domain.PumpIndexResetRequest{NewIndex: dec("0")})
	assert.ErrorIs(t, err, store.ErrInvalidEntry, "reason is required")

	pump, err := svc.ResetPumpIndex(managerCtx, "P1", req)
	require.NoError(t, err)
	assert.True(t, pump.LastIndex.IsZero())

	stored, err := repo.GetPump(managerCtx, "P1")
	require.NoError(t, err)
	assert.True(t, stored.LastIndex.IsZero())
}
