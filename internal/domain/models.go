package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash      PaymentMethod = "CASH"
	MethodCard      PaymentMethod = "CARD"
	MethodFleetCard PaymentMethod = "FLEET_CARD"
	MethodCheque    PaymentMethod = "CHEQUE"
	MethodTransfer  PaymentMethod = "TRANSFER"
	MethodCredit    PaymentMethod = "CREDIT"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodFleetCard, MethodCheque, MethodTransfer, MethodCredit:
		return true
	}
	return false
}

// IsExpenseMethod reports whether an expense may be settled with m.
func (m PaymentMethod) IsExpenseMethod() bool {
	switch m {
	case MethodCash, MethodCheque, MethodTransfer, MethodCard:
		return true
	}
	return false
}

type InvoiceType string

const (
	InvoiceSale     InvoiceType = "SALE"
	InvoicePurchase InvoiceType = "PURCHASE"
)

type InvoiceStatus string

const (
	InvoicePaid    InvoiceStatus = "PAID"
	InvoicePending InvoiceStatus = "PENDING"
)

type ItemCategory string

const (
	CategoryFuel      ItemCategory = "FUEL"
	CategoryLubricant ItemCategory = "LUBRICANT"
	CategoryWash      ItemCategory = "WASH"
	CategoryOther     ItemCategory = "OTHER"
)

type PaymentDirection string

const (
	DirectionReceipt      PaymentDirection = "RECEIPT"
	DirectionDisbursement PaymentDirection = "DISBURSEMENT"
)

type PartnerKind string

const (
	PartnerCustomer PartnerKind = "customer"
	PartnerSupplier PartnerKind = "supplier"
	PartnerUnlinked PartnerKind = "unlinked"
)

// PartnerRef points at a customer or supplier by id. Free-text counterparties
// use the unlinked kind and carry only a name.
type PartnerRef struct {
	Kind  PartnerKind `json:"kind"`
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name"`
	TaxID string      `json:"tax_id,omitempty"`
}

func UnlinkedPartner(name string) PartnerRef {
	return PartnerRef{Kind: PartnerUnlinked, Name: strings.TrimSpace(name)}
}

func (p PartnerRef) IsLinked() bool {
	return (p.Kind == PartnerCustomer || p.Kind == PartnerSupplier) && p.ID != ""
}

var hundred = decimal.NewFromInt(100)

// ExcludingTax converts a tax-inclusive amount to its tax-exclusive base.
func ExcludingTax(amount decimal.Decimal, ratePercent decimal.Decimal) decimal.Decimal {
	if !ratePercent.IsPositive() {
		return amount
	}
	return amount.Div(decimal.NewFromInt(1).Add(ratePercent.Div(hundred)))
}

type InvoiceItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Category    ItemCategory    `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Total       decimal.Decimal `json:"total"`
}

func (it InvoiceItem) AmountHT() decimal.Decimal {
	return ExcludingTax(it.Total, it.VATRate)
}

type Invoice struct {
	ID            string          `json:"id"`
	Type          InvoiceType     `json:"type"`
	Date          time.Time       `json:"date"`
	Partner       PartnerRef      `json:"partner"`
	Items         []InvoiceItem   `json:"items"`
	TotalHT       decimal.Decimal `json:"total_ht"`
	TotalVAT      decimal.Decimal `json:"total_vat"`
	TotalTTC      decimal.Decimal `json:"total_ttc"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        InvoiceStatus   `json:"status"`
	CreatedBy     string          `json:"created_by,omitempty"`
	SettlementID  string          `json:"settlement_id,omitempty"`
}

// Recalculate derives every line total from quantity and unit price, then the
// invoice totals from the lines.
func (inv *Invoice) Recalculate() {
	for i := range inv.Items {
		inv.Items[i].Total = inv.Items[i].Quantity.Mul(inv.Items[i].UnitPrice)
	}
	inv.Totalize()
}

// Totalize derives invoice totals from the existing line totals.
func (inv *Invoice) Totalize() {
	ttc := decimal.Zero
	ht := decimal.Zero
	for _, item := range inv.Items {
		ttc = ttc.Add(item.Total)
		ht = ht.Add(item.AmountHT())
	}
	inv.TotalTTC = ttc
	inv.TotalHT = ht
	inv.TotalVAT = ttc.Sub(ht)
}

// Balanced reports whether TotalTTC equals the sum of the line totals.
func (inv Invoice) Balanced() bool {
	sum := decimal.Zero
	for _, item := range inv.Items {
		sum = sum.Add(item.Total)
	}
	return sum.Equal(inv.TotalTTC)
}

type Expense struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	RecordedBy    string          `json:"recorded_by"`
	SettlementID  string          `json:"settlement_id,omitempty"`
}

type Payment struct {
	ID            string           `json:"id"`
	Date          time.Time        `json:"date"`
	Partner       PartnerRef       `json:"partner"`
	Amount        decimal.Decimal  `json:"amount"`
	Method        PaymentMethod    `json:"method"`
	Direction     PaymentDirection `json:"direction"`
	Reference     string           `json:"reference,omitempty"`
	BankAccountID string           `json:"bank_account_id,omitempty"`
	RecordedBy    string           `json:"recorded_by,omitempty"`
}

// Ledger is a read-only snapshot of the three append-only collections.
type Ledger struct {
	Invoices []Invoice `json:"invoices"`
	Expenses []Expense `json:"expenses"`
	Payments []Payment `json:"payments"`
}

type FuelTank struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	FuelType     string          `json:"fuel_type"`
	Capacity     decimal.Decimal `json:"capacity"`
	CurrentLevel decimal.Decimal `json:"current_level"`
	Unit         string          `json:"unit"`
	VATRate      decimal.Decimal `json:"vat_rate"`
}

type Pump struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	FuelType  string          `json:"fuel_type"`
	LastIndex decimal.Decimal `json:"last_index"`
	TankID    string          `json:"tank_id,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type LubricantStock struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Quantity     int             `json:"quantity"`
	MinThreshold int             `json:"min_threshold"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	VATRate      decimal.Decimal `json:"vat_rate"`
}

type AccountCustomer struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Contact string          `json:"contact"`
	Balance decimal.Decimal `json:"balance"`
	Limit   decimal.Decimal `json:"limit"`
	ICE     string          `json:"ice,omitempty"`
}

type SupplierCategory string

const (
	SupplierPetroleum  SupplierCategory = "PETROLIER"
	SupplierLubricants SupplierCategory = "LUBRIFIANT"
	SupplierServices   SupplierCategory = "SERVICES"
	SupplierOther      SupplierCategory = "AUTRE"
)

type Supplier struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Contact  string           `json:"contact"`
	Balance  decimal.Decimal  `json:"balance"`
	ICE      string           `json:"ice,omitempty"`
	Category SupplierCategory `json:"category"`
}

type BankAccount struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	RIB     string          `json:"rib"`
	Balance decimal.Decimal `json:"balance"`
}

type StationConfig struct {
	Name              string          `json:"name"`
	Address           string          `json:"address"`
	City              string          `json:"city"`
	Currency          string          `json:"currency"`
	ICE               string          `json:"ice"`
	IFNumber          string          `json:"if_number"`
	RC                string          `json:"rc"`
	TP                string          `json:"tp"`
	CNSS              string          `json:"cnss"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	WashBasicPrice    decimal.Decimal `json:"wash_basic_price"`
	WashCompletePrice decimal.Decimal `json:"wash_complete_price"`
	TimeZone          string          `json:"time_zone"`
}

type InvoiceItemInput struct {
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name" validate:"required,max=120"`
	Category    ItemCategory    `json:"category" validate:"required,oneof=FUEL LUBRICANT WASH OTHER"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	VATRate     decimal.Decimal `json:"vat_rate" validate:"gte=0,lte=100"`
}

type PartnerInput struct {
	Kind  PartnerKind `json:"kind" validate:"omitempty,oneof=customer supplier unlinked"`
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name,omitempty" validate:"max=160"`
	TaxID string      `json:"tax_id,omitempty" validate:"max=32"`
}

type InvoiceCreateRequest struct {
	Type          InvoiceType        `json:"type" validate:"required,oneof=SALE PURCHASE"`
	Date          *time.Time         `json:"date,omitempty"`
	Partner       PartnerInput       `json:"partner"`
	Items         []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod PaymentMethod      `json:"payment_method" validate:"required,oneof=CASH CARD FLEET_CARD CHEQUE TRANSFER CREDIT"`
	Status        InvoiceStatus      `json:"status,omitempty" validate:"omitempty,oneof=PAID PENDING"`
}

type ExpenseCreateRequest struct {
	Date          *time.Time      `json:"date,omitempty"`
	Category      string          `json:"category" validate:"required,max=80"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Description   string          `json:"description" validate:"max=240"`
	PaymentMethod PaymentMethod   `json:"payment_method" validate:"required,oneof=CASH CHEQUE TRANSFER CARD"`
}

type PaymentCreateRequest struct {
	Date          *time.Time       `json:"date,omitempty"`
	Partner       PartnerInput     `json:"partner"`
	Amount        decimal.Decimal  `json:"amount" validate:"gt=0"`
	Method        PaymentMethod    `json:"method" validate:"required,oneof=CASH CARD FLEET_CARD CHEQUE TRANSFER CREDIT"`
	Direction     PaymentDirection `json:"direction" validate:"required,oneof=RECEIPT DISBURSEMENT"`
	Reference     string           `json:"reference,omitempty" validate:"max=80"`
	BankAccountID string           `json:"bank_account_id,omitempty"`
}

type PumpIndexResetRequest struct {
	NewIndex   decimal.Decimal `json:"new_index" validate:"gte=0"`
	Reason     string          `json:"reason" validate:"required,max=240"`
	ManagerPIN string          `json:"manager_pin"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleClerk      = "clerk"
	RoleAccountant = "accountant"
)

func IsKnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleClerk, RoleAccountant:
		return true
	}
	return false
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserView struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	StationID     string    `json:"station_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
