package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/logger"
	"petrolhub/backend/internal/store"
	"petrolhub/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	station         domain.StationConfig
	tanks           []domain.FuelTank
	pumpsByID       map[string]domain.Pump
	lubricants      []domain.LubricantStock
	customersByID   map[string]domain.AccountCustomer
	suppliersByID   map[string]domain.Supplier
	banksByID       map[string]domain.BankAccount
	invoices        []domain.Invoice
	invoiceIDs      map[string]struct{}
	expenses        []domain.Expense
	payments        []domain.Payment
	closingsByID    map[string]domain.ShiftSettlement
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// New returns an empty store with the given station identity. Tests use it to
// start from a blank ledger.
func New(station domain.StationConfig) *Store {
	return &Store{
		station:         station,
		tanks:           []domain.FuelTank{},
		pumpsByID:       make(map[string]domain.Pump),
		lubricants:      []domain.LubricantStock{},
		customersByID:   make(map[string]domain.AccountCustomer),
		suppliersByID:   make(map[string]domain.Supplier),
		banksByID:       make(map[string]domain.BankAccount),
		invoices:        make([]domain.Invoice, 0, 64),
		invoiceIDs:      make(map[string]struct{}),
		expenses:        make([]domain.Expense, 0, 32),
		payments:        make([]domain.Payment, 0, 32),
		closingsByID:    make(map[string]domain.ShiftSettlement),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the dev/demo accounts. Passwords come from SEED_*_PASSWORD
// and fall back to well-known defaults with a warning. The postgres store is
// used whenever DATABASE_URL is set, so these never reach production.
func seedUsers() map[string]domain.UserAccount {
	log := logger.WithComponent("memory-store")
	defaults := []struct {
		username string
		envKey   string
		fallback string
		role     string
	}{
		{"admin", "SEED_ADMIN_PASSWORD", "admin123", domain.RoleAdmin},
		{"manager", "SEED_MANAGER_PASSWORD", "manager123", domain.RoleManager},
		{"clerk", "SEED_CLERK_PASSWORD", "clerk123", domain.RoleClerk},
		{"accountant", "SEED_ACCOUNTANT_PASSWORD", "accountant123", domain.RoleAccountant},
	}

	now := time.Now().UTC()
	users := make(map[string]domain.UserAccount, len(defaults))
	usedFallback := false
	for _, u := range defaults {
		password := os.Getenv(u.envKey)
		if password == "" {
			password = u.fallback
			usedFallback = true
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Str("username", u.username).Msg("failed to hash seed password")
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	if usedFallback {
		log.Warn().Msg("using default dev credentials; set SEED_*_PASSWORD to override")
	}
	return users
}

func num(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

// NewSeeded returns a store pre-filled with a demo station.
func NewSeeded() *Store {
	s := New(domain.StationConfig{
		Name:              "PETROLHUB MAROC SARL",
		Address:           "124 Boulevard Zerktouni",
		City:              "Casablanca",
		Currency:          "MAD",
		ICE:               "001234567890123",
		IFNumber:          "12345678",
		RC:                "45678 CASABLANCA",
		TP:                "34567890",
		CNSS:              "9876543",
		VATRate:           num("20"),
		WashBasicPrice:    num("40"),
		WashCompletePrice: num("80"),
		TimeZone:          "Africa/Casablanca",
	})

	s.tanks = []domain.FuelTank{
		{ID: "t1", Code: "CUVE-SP-01", FuelType: "Sans Plomb", Capacity: num("20000"), CurrentLevel: num("12500"), Unit: "L", VATRate: num("20")},
		{ID: "t2", Code: "CUVE-GO-02", FuelType: "Gasoil", Capacity: num("30000"), CurrentLevel: num("28000"), Unit: "L", VATRate: num("20")},
		{ID: "t3", Code: "CUVE-SUP-03", FuelType: "Super", Capacity: num("15000"), CurrentLevel: num("4200"), Unit: "L", VATRate: num("20")},
	}

	now := time.Now().UTC()
	for _, p := range []domain.Pump{
		{ID: "P1", Name: "Pompe 1", FuelType: "Sans Plomb", LastIndex: num("12450.5"), TankID: "t1", UnitPrice: num("14.50")},
		{ID: "P2", Name: "Pompe 2", FuelType: "Gasoil", LastIndex: num("89000.2"), TankID: "t2", UnitPrice: num("11.95")},
		{ID: "P3", Name: "Pompe 3", FuelType: "Super", LastIndex: num("5420.0"), TankID: "t3", UnitPrice: num("14.50")},
		{ID: "P4", Name: "Pompe 4", FuelType: "Gasoil", LastIndex: num("32150.8"), TankID: "t2", UnitPrice: num("11.95")},
	} {
		p.UpdatedAt = now
		s.pumpsByID[p.ID] = p
	}

	s.lubricants = []domain.LubricantStock{
		{ID: "l1", Code: "TOT-9000-540", Name: "Quartz 9000 5W40", Brand: "Total", Quantity: 45, MinThreshold: 10, PricePerUnit: num("125"), VATRate: num("20")},
		{ID: "l2", Code: "SHL-HLX-530", Name: "Helix Ultra 5W30", Brand: "Shell", Quantity: 8, MinThreshold: 15, PricePerUnit: num("140"), VATRate: num("20")},
		{ID: "l3", Code: "CST-MAG-1040", Name: "Magnatec 10W40", Brand: "Castrol", Quantity: 120, MinThreshold: 20, PricePerUnit: num("95"), VATRate: num("20")},
	}

	for _, c := range []domain.AccountCustomer{
		{ID: "c1", Name: "SOTRA TRANS MAROC", Contact: "+212 5 22 00 11 22", Balance: num("450000"), Limit: num("1000000"), ICE: "001567890123456"},
		{ID: "c2", Name: "LIVRAISON EXPRESS", Contact: "+212 6 61 22 33 44", Balance: num("125000"), Limit: num("500000"), ICE: "002345678901234"},
		{ID: "c3", Name: "AGENCE TRANSPORT SUD", Contact: "+212 5 28 33 44 55", Balance: num("920000"), Limit: num("1000000"), ICE: "003456789012345"},
	} {
		s.customersByID[c.ID] = c
	}

	for _, sup := range []domain.Supplier{
		{ID: "s1", Name: "AFRIQUIA SMDC", Contact: "0522 10 20 30", Balance: num("1200000"), ICE: "000012345678901", Category: domain.SupplierPetroleum},
		{ID: "s2", Name: "SHELL LUBRICANTS", Contact: "0522 40 50 60", Balance: num("45000"), ICE: "000098765432100", Category: domain.SupplierLubricants},
	} {
		s.suppliersByID[sup.ID] = sup
	}

	for _, b := range []domain.BankAccount{
		{ID: "b1", Name: "ATTIJARIWAFA BANK", RIB: "007 780 0012345678901234 56", Balance: num("450000")},
		{ID: "b2", Name: "BANQUE POPULAIRE", RIB: "101 220 0098765432109876 12", Balance: num("125000")},
	} {
		s.banksByID[b.ID] = b
	}

	s.usersByUsername = seedUsers()
	return s
}

func (s *Store) GetStationConfig(_ context.Context) (domain.StationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.station, nil
}

func (s *Store) ListFuelTanks(_ context.Context) ([]domain.FuelTank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tanks), nil
}

func (s *Store) ListPumps(_ context.Context) ([]domain.Pump, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pumps := make([]domain.Pump, 0, len(s.pumpsByID))
	for _, p := range s.pumpsByID {
		pumps = append(pumps, p)
	}
	slices.SortFunc(pumps, func(a, b domain.Pump) int {
		return cmpString(a.ID, b.ID)
	})
	return pumps, nil
}

func (s *Store) GetPump(_ context.Context, id string) (*domain.Pump, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pump, exists := s.pumpsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &pump, nil
}

func (s *Store) ResetPumpIndex(_ context.Context, id string, newIndex decimal.Decimal, at time.Time) (*domain.Pump, error) {
	if newIndex.IsNegative() {
		return nil, store.ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pump, exists := s.pumpsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	pump.LastIndex = newIndex
	pump.UpdatedAt = at.UTC()
	s.pumpsByID[id] = pump
	return &pump, nil
}

func (s *Store) ListLubricants(_ context.Context) ([]domain.LubricantStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lubricants), nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.AccountCustomer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.AccountCustomer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.AccountCustomer) int {
		return cmpString(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.AccountCustomer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliersByID))
	for _, sup := range s.suppliersByID {
		suppliers = append(suppliers, sup)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return cmpString(a.Name, b.Name)
	})
	return suppliers, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) ListBankAccounts(_ context.Context) ([]domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	banks := make([]domain.BankAccount, 0, len(s.banksByID))
	for _, b := range s.banksByID {
		banks = append(banks, b)
	}
	slices.SortFunc(banks, func(a, b domain.BankAccount) int {
		return cmpString(a.Name, b.Name)
	})
	return banks, nil
}

func (s *Store) GetBankAccount(_ context.Context, id string) (*domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bank, exists := s.banksByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &bank, nil
}

func (s *Store) CreateInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if len(invoice.Items) == 0 || !invoice.Balanced() {
		return nil, store.ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if invoice.ID == "" {
		invoice.ID = xid.New("inv")
	}
	if _, exists := s.invoiceIDs[invoice.ID]; exists {
		return nil, store.ErrConflict
	}
	if invoice.Date.IsZero() {
		invoice.Date = time.Now().UTC()
	}
	invoice = cloneInvoice(invoice)
	for i := range invoice.Items {
		if invoice.Items[i].ID == "" {
			invoice.Items[i].ID = xid.New("item")
		}
	}

	s.invoices = append(s.invoices, invoice)
	s.invoiceIDs[invoice.ID] = struct{}{}
	created := cloneInvoice(invoice)
	return &created, nil
}

func (s *Store) ListInvoices(_ context.Context, from time.Time, to time.Time) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		if !inRange(inv.Date, from, to) {
			continue
		}
		result = append(result, cloneInvoice(inv))
	}
	slices.SortStableFunc(result, func(a, b domain.Invoice) int {
		return a.Date.Compare(b.Date)
	})
	return result, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if !expense.Amount.IsPositive() || !expense.PaymentMethod.IsExpenseMethod() {
		return nil, store.ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	for _, existing := range s.expenses {
		if existing.ID == expense.ID {
			return nil, store.ErrConflict
		}
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}
	s.expenses = append(s.expenses, expense)
	return &expense, nil
}

func (s *Store) ListExpenses(_ context.Context, from time.Time, to time.Time) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Expense, 0, len(s.expenses))
	for _, expense := range s.expenses {
		if inRange(expense.Date, from, to) {
			result = append(result, expense)
		}
	}
	slices.SortStableFunc(result, func(a, b domain.Expense) int {
		return a.Date.Compare(b.Date)
	})
	return result, nil
}

func (s *Store) CreatePayment(_ context.Context, payment domain.Payment) (*domain.Payment, error) {
	if !payment.Amount.IsPositive() || !payment.Method.IsValid() {
		return nil, store.ErrInvalidEntry
	}
	if payment.Direction != domain.DirectionReceipt && payment.Direction != domain.DirectionDisbursement {
		return nil, store.ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.BankAccountID != "" {
		if _, exists := s.banksByID[payment.BankAccountID]; !exists {
			return nil, store.ErrNotFound
		}
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	for _, existing := range s.payments {
		if existing.ID == payment.ID {
			return nil, store.ErrConflict
		}
	}
	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC()
	}
	s.payments = append(s.payments, payment)
	return &payment, nil
}

func (s *Store) ListPayments(_ context.Context, from time.Time, to time.Time) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Payment, 0, len(s.payments))
	for _, payment := range s.payments {
		if inRange(payment.Date, from, to) {
			result = append(result, payment)
		}
	}
	slices.SortStableFunc(result, func(a, b domain.Payment) int {
		return a.Date.Compare(b.Date)
	})
	return result, nil
}

func (s *Store) CommitShiftClosing(_ context.Context, settlement domain.ShiftSettlement, pumps []domain.Pump) (*domain.ShiftSettlement, error) {
	if strings.TrimSpace(settlement.ID) == "" {
		return nil, store.ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.closingsByID[settlement.ID]; exists {
		return nil, store.ErrConflict
	}
	for _, pump := range pumps {
		if _, exists := s.pumpsByID[pump.ID]; !exists {
			return nil, store.ErrNotFound
		}
	}

	for _, pump := range pumps {
		stored := s.pumpsByID[pump.ID]
		stored.LastIndex = pump.LastIndex
		stored.UnitPrice = pump.UnitPrice
		stored.UpdatedAt = pump.UpdatedAt
		s.pumpsByID[pump.ID] = stored
	}
	if settlement.ClosedAt.IsZero() {
		settlement.ClosedAt = time.Now().UTC()
	}
	s.closingsByID[settlement.ID] = cloneSettlement(settlement)

	created := cloneSettlement(settlement)
	return &created, nil
}

func (s *Store) MarkShiftClosingPosted(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	closing, exists := s.closingsByID[id]
	if !exists {
		return store.ErrNotFound
	}
	closing.LedgerPosted = true
	s.closingsByID[id] = closing
	return nil
}

func (s *Store) GetShiftClosing(_ context.Context, id string) (*domain.ShiftSettlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	closing, exists := s.closingsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	dup := cloneSettlement(closing)
	return &dup, nil
}

func (s *Store) ListShiftClosings(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.ShiftSettlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ShiftSettlement, 0, len(s.closingsByID))
	for _, closing := range s.closingsByID {
		if inRange(closing.ClosedAt, from, to) {
			result = append(result, cloneSettlement(closing))
		}
	}
	slices.SortFunc(result, func(a, b domain.ShiftSettlement) int {
		if a.ClosedAt.Equal(b.ClosedAt) {
			return cmpString(b.ID, a.ID)
		}
		return b.ClosedAt.Compare(a.ClosedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if stationID != "" && entry.StationID != stationID {
			continue
		}
		if !inRange(entry.CreatedAt, from, to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidEntry
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleClerk
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidEntry
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// inRange treats a zero bound as open.
func inRange(at time.Time, from time.Time, to time.Time) bool {
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if !to.IsZero() && !at.Before(to) {
		return false
	}
	return true
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneInvoice(src domain.Invoice) domain.Invoice {
	dup := src
	dup.Items = slices.Clone(src.Items)
	return dup
}

func cloneSettlement(src domain.ShiftSettlement) domain.ShiftSettlement {
	dup := src
	dup.Pumps = slices.Clone(src.Pumps)
	dup.Lubricants = slices.Clone(src.Lubricants)
	dup.Credits = slices.Clone(src.Credits)
	dup.Expenses = slices.Clone(src.Expenses)
	dup.Totals.PerPump = slices.Clone(src.Totals.PerPump)
	dup.Totals.RolledBackPumps = slices.Clone(src.Totals.RolledBackPumps)
	return dup
}
