package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type WizardStep string

const (
	StepMeters    WizardStep = "meters"
	StepShopWash  WizardStep = "shop_wash"
	StepCredits   WizardStep = "credits"
	StepExpenses  WizardStep = "expenses"
	StepTenders   WizardStep = "tenders"
	StepReview    WizardStep = "review"
	StepCompleted WizardStep = "completed"
)

// WizardState is the navigation state of a shift close-out. Furthest is the
// last step reached so far; steps up to it may be revisited.
type WizardState struct {
	Step     WizardStep `json:"step"`
	Furthest WizardStep `json:"furthest"`
}

type PumpReading struct {
	PumpID    string          `json:"pump_id"`
	Name      string          `json:"name"`
	FuelType  string          `json:"fuel_type"`
	LastIndex decimal.Decimal `json:"last_index"`
	NewIndex  decimal.Decimal `json:"new_index"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type ShopLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gte=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type WashSales struct {
	BasicQty      decimal.Decimal `json:"basic_qty" validate:"gte=0"`
	BasicPrice    decimal.Decimal `json:"basic_price" validate:"gte=0"`
	CompleteQty   decimal.Decimal `json:"complete_qty" validate:"gte=0"`
	CompletePrice decimal.Decimal `json:"complete_price" validate:"gte=0"`
}

type CreditLine struct {
	Customer PartnerRef      `json:"customer"`
	Amount   decimal.Decimal `json:"amount" validate:"gte=0"`
}

type ExpenseLine struct {
	Description string          `json:"description" validate:"max=240"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
}

type Tenders struct {
	Cash      decimal.Decimal `json:"cash" validate:"gte=0"`
	Card      decimal.Decimal `json:"card" validate:"gte=0"`
	FleetCard decimal.Decimal `json:"fleet_card" validate:"gte=0"`
}

// ShiftSession is the transient working set of a single close-out.
type ShiftSession struct {
	ID         string        `json:"id"`
	State      WizardState   `json:"state"`
	Pumps      []PumpReading `json:"pumps"`
	Lubricants []ShopLine    `json:"lubricants"`
	Wash       WashSales     `json:"wash"`
	Credits    []CreditLine  `json:"credits"`
	Expenses   []ExpenseLine `json:"expenses"`
	Tenders    Tenders       `json:"tenders"`
	OpenedBy   string        `json:"opened_by"`
	OpenedAt   time.Time     `json:"opened_at"`
}

type ReconciliationStatus string

const (
	ReconciliationOK     ReconciliationStatus = "OK"
	ReconciliationReview ReconciliationStatus = "REVIEW"
)

type PumpVolume struct {
	PumpID     string          `json:"pump_id"`
	Volume     decimal.Decimal `json:"volume"`
	Revenue    decimal.Decimal `json:"revenue"`
	RolledBack bool            `json:"rolled_back,omitempty"`
}

type ShiftTotals struct {
	FuelRevenue       decimal.Decimal      `json:"fuel_revenue"`
	ShopRevenue       decimal.Decimal      `json:"shop_revenue"`
	WashRevenue       decimal.Decimal      `json:"wash_revenue"`
	TheoreticalTotal  decimal.Decimal      `json:"theoretical_total"`
	TotalCredits      decimal.Decimal      `json:"total_credits"`
	TotalCashExpenses decimal.Decimal      `json:"total_cash_expenses"`
	TheoreticalCash   decimal.Decimal      `json:"theoretical_cash"`
	CashCounted       decimal.Decimal      `json:"cash_counted"`
	Variance          decimal.Decimal      `json:"variance"`
	Status            ReconciliationStatus `json:"status"`
	PerPump           []PumpVolume         `json:"per_pump"`
	RolledBackPumps   []string             `json:"rolled_back_pumps,omitempty"`
}

// ShiftCompletion is handed back to the caller when a session is confirmed.
type ShiftCompletion struct {
	Pumps  []Pump      `json:"pumps"`
	Totals ShiftTotals `json:"totals"`
}

// ShiftSettlement is the structured record emitted on shift commit.
type ShiftSettlement struct {
	ID           string        `json:"id"`
	StationID    string        `json:"station_id"`
	SessionID    string        `json:"session_id"`
	ClosedBy     string        `json:"closed_by"`
	OpenedAt     time.Time     `json:"opened_at"`
	ClosedAt     time.Time     `json:"closed_at"`
	Pumps        []PumpReading `json:"pumps"`
	Lubricants   []ShopLine    `json:"lubricants"`
	Wash         WashSales     `json:"wash"`
	Credits      []CreditLine  `json:"credits"`
	Expenses     []ExpenseLine `json:"expenses"`
	Tenders      Tenders       `json:"tenders"`
	Totals       ShiftTotals   `json:"totals"`
	LedgerPosted bool          `json:"ledger_posted"`
}

type ShiftSessionStartRequest struct {
	OpenedAt *time.Time `json:"opened_at,omitempty"`
}

type PumpReadingInput struct {
	PumpID    string           `json:"pump_id" validate:"required"`
	NewIndex  decimal.Decimal  `json:"new_index" validate:"gte=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// ShiftSessionUpdateRequest edits the working set and optionally navigates.
// Nil slices leave the corresponding section untouched.
type ShiftSessionUpdateRequest struct {
	Pumps      []PumpReadingInput `json:"pumps,omitempty" validate:"omitempty,dive"`
	Lubricants []ShopLine         `json:"lubricants,omitempty" validate:"omitempty,dive"`
	Wash       *WashSales         `json:"wash,omitempty"`
	Credits    []CreditLine       `json:"credits,omitempty" validate:"omitempty,dive"`
	Expenses   []ExpenseLine      `json:"expenses,omitempty" validate:"omitempty,dive"`
	Tenders    *Tenders           `json:"tenders,omitempty"`
	Action     string             `json:"action,omitempty"`
}

type ShiftSessionView struct {
	Session ShiftSession `json:"session"`
	Totals  ShiftTotals  `json:"totals"`
}

type ShiftConfirmResponse struct {
	Completion ShiftCompletion `json:"completion"`
	Settlement ShiftSettlement `json:"settlement"`
}

type TaxSplit struct {
	HT  decimal.Decimal `json:"ht"`
	VAT decimal.Decimal `json:"vat"`
	TTC decimal.Decimal `json:"ttc"`
}

func (t TaxSplit) Add(o TaxSplit) TaxSplit {
	return TaxSplit{HT: t.HT.Add(o.HT), VAT: t.VAT.Add(o.VAT), TTC: t.TTC.Add(o.TTC)}
}

type SalesTotals struct {
	Fuel      decimal.Decimal `json:"fuel"`
	Lubricant decimal.Decimal `json:"lubricant"`
	Wash      decimal.Decimal `json:"wash"`
	Other     decimal.Decimal `json:"other"`
	Total     decimal.Decimal `json:"total"`
}

type CategoryLine struct {
	Category     ItemCategory    `json:"category"`
	Split        TaxSplit        `json:"split"`
	SharePercent decimal.Decimal `json:"share_percent"`
}

type ChannelTotals struct {
	Cash        decimal.Decimal `json:"cash"`
	Card        decimal.Decimal `json:"card"`
	FleetCard   decimal.Decimal `json:"fleet_card"`
	Cheque      decimal.Decimal `json:"cheque"`
	TransferIn  decimal.Decimal `json:"transfer_in"`
	TransferOut decimal.Decimal `json:"transfer_out"`
	Credit      decimal.Decimal `json:"credit"`
}

type ReportAdjustments struct {
	OperatingMargin decimal.Decimal `json:"operating_margin"`
	CashDeposited   decimal.Decimal `json:"cash_deposited"`
	BankFees        decimal.Decimal `json:"bank_fees"`
	SupplierRefund  decimal.Decimal `json:"supplier_refund"`
}

type Position string

const (
	PositionSolvent   Position = "SOLVENT"
	PositionShortfall Position = "SHORTFALL"
)

type DailyReport struct {
	Date              string            `json:"date"`
	TimeZone          string            `json:"time_zone"`
	Station           StationConfig     `json:"station"`
	Sales             SalesTotals       `json:"sales"`
	Categories        []CategoryLine    `json:"categories"`
	SalesTax          TaxSplit          `json:"sales_tax"`
	Channels          ChannelTotals     `json:"channels"`
	Adjustments       ReportAdjustments `json:"adjustments"`
	TotalExpenses     decimal.Decimal   `json:"total_expenses"`
	TotalCashExpenses decimal.Decimal   `json:"total_cash_expenses"`
	NetCashResidual   decimal.Decimal   `json:"net_cash_residual"`
	CashPosition      Position          `json:"cash_position"`
	BankInflow        decimal.Decimal   `json:"bank_inflow"`
	BankOutflow       decimal.Decimal   `json:"bank_outflow"`
	NetBankMovement   decimal.Decimal   `json:"net_bank_movement"`
	BankPosition      Position          `json:"bank_position"`
	InvoiceCount      int               `json:"invoice_count"`
	ExpenseCount      int               `json:"expense_count"`
	PaymentCount      int               `json:"payment_count"`
}

type InsightResponse struct {
	Date        string   `json:"date"`
	Insights    []string `json:"insights"`
	Fallback    bool     `json:"fallback"`
	GeneratedAt string   `json:"generated_at"`
}

// PeriodReport summarises an inclusive range of station-local days.
type PeriodReport struct {
	From           string          `json:"from"`
	To             string          `json:"to"`
	TimeZone       string          `json:"time_zone"`
	Station        StationConfig   `json:"station"`
	Sales          SalesTotals     `json:"sales"`
	Categories     []CategoryLine  `json:"categories"`
	SalesTax       TaxSplit        `json:"sales_tax"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	Net            decimal.Decimal `json:"net"`
	NetPosition    Position        `json:"net_position"`
	InvoiceCount   int             `json:"invoice_count"`
	ExpenseCount   int             `json:"expense_count"`
	PaymentCount   int             `json:"payment_count"`
}

type StatementDirection string

const (
	StatementDebit  StatementDirection = "DEBIT"
	StatementCredit StatementDirection = "CREDIT"
)

type StatementLine struct {
	Date        time.Time          `json:"date"`
	Source      string             `json:"source"`
	SourceID    string             `json:"source_id"`
	Description string             `json:"description"`
	Amount      decimal.Decimal    `json:"amount"`
	Direction   StatementDirection `json:"direction"`
	Method      PaymentMethod      `json:"method"`
}

// PartnerStatement lists a partner's invoices and payments, newest first.
// Balance is debits minus credits: what a customer owes the station, or the
// negative of what the station owes a supplier.
type PartnerStatement struct {
	Partner     PartnerRef      `json:"partner"`
	Lines       []StatementLine `json:"lines"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balance     decimal.Decimal `json:"balance"`
}
