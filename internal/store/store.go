package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidEntry = errors.New("invalid entry")
	ErrConflict     = errors.New("conflict")
)

// Repository owns the station's reference data and the append-only ledger.
// Ledger entries are never updated or deleted once created.
type Repository interface {
	GetStationConfig(ctx context.Context) (domain.StationConfig, error)
	ListFuelTanks(ctx context.Context) ([]domain.FuelTank, error)
	ListPumps(ctx context.Context) ([]domain.Pump, error)
	GetPump(ctx context.Context, id string) (*domain.Pump, error)
	ResetPumpIndex(ctx context.Context, id string, newIndex decimal.Decimal, at time.Time) (*domain.Pump, error)
	ListLubricants(ctx context.Context) ([]domain.LubricantStock, error)
	ListCustomers(ctx context.Context) ([]domain.AccountCustomer, error)
	GetCustomer(ctx context.Context, id string) (*domain.AccountCustomer, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error)
	GetBankAccount(ctx context.Context, id string) (*domain.BankAccount, error)

	CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, from time.Time, to time.Time) ([]domain.Invoice, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, from time.Time, to time.Time) ([]domain.Expense, error)
	CreatePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error)
	ListPayments(ctx context.Context, from time.Time, to time.Time) ([]domain.Payment, error)

	// CommitShiftClosing stores the settlement and applies the pump updates
	// as one unit: either both land or neither does.
	CommitShiftClosing(ctx context.Context, settlement domain.ShiftSettlement, pumps []domain.Pump) (*domain.ShiftSettlement, error)
	MarkShiftClosingPosted(ctx context.Context, id string) error
	GetShiftClosing(ctx context.Context, id string) (*domain.ShiftSettlement, error)
	ListShiftClosings(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.ShiftSettlement, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
