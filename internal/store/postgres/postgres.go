package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/store"
	"petrolhub/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetStationConfig(ctx context.Context) (domain.StationConfig, error) {
	var cfg domain.StationConfig
	err := s.db.QueryRowContext(ctx, `
		SELECT name, address, city, currency, ice, if_number, rc, tp, cnss,
			vat_rate, wash_basic_price, wash_complete_price, time_zone
		FROM station_config
		WHERE id = 1
	`).Scan(
		&cfg.Name,
		&cfg.Address,
		&cfg.City,
		&cfg.Currency,
		&cfg.ICE,
		&cfg.IFNumber,
		&cfg.RC,
		&cfg.TP,
		&cfg.CNSS,
		&cfg.VATRate,
		&cfg.WashBasicPrice,
		&cfg.WashCompletePrice,
		&cfg.TimeZone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StationConfig{}, store.ErrNotFound
		}
		return domain.StationConfig{}, err
	}
	return cfg, nil
}

func (s *Store) ListFuelTanks(ctx context.Context) ([]domain.FuelTank, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, fuel_type, capacity, current_level, unit, vat_rate
		FROM fuel_tanks
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tanks := make([]domain.FuelTank, 0, 8)
	for rows.Next() {
		var t domain.FuelTank
		if err := rows.Scan(&t.ID, &t.Code, &t.FuelType, &t.Capacity, &t.CurrentLevel, &t.Unit, &t.VATRate); err != nil {
			return nil, err
		}
		tanks = append(tanks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tanks, nil
}

const pumpColumns = `id, name, fuel_type, last_index, COALESCE(tank_id, ''), unit_price, updated_at`

func scanPump(row interface{ Scan(dest ...any) error }) (domain.Pump, error) {
	var p domain.Pump
	err := row.Scan(&p.ID, &p.Name, &p.FuelType, &p.LastIndex, &p.TankID, &p.UnitPrice, &p.UpdatedAt)
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}

func (s *Store) ListPumps(ctx context.Context) ([]domain.Pump, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pumpColumns+` FROM pumps ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pumps := make([]domain.Pump, 0, 8)
	for rows.Next() {
		p, err := scanPump(rows)
		if err != nil {
			return nil, err
		}
		pumps = append(pumps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pumps, nil
}

func (s *Store) GetPump(ctx context.Context, id string) (*domain.Pump, error) {
	p, err := scanPump(s.db.QueryRowContext(ctx, `SELECT `+pumpColumns+` FROM pumps WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ResetPumpIndex(ctx context.Context, id string, newIndex decimal.Decimal, at time.Time) (*domain.Pump, error) {
	if newIndex.IsNegative() {
		return nil, store.ErrInvalidEntry
	}

	p, err := scanPump(s.db.QueryRowContext(ctx, `
		UPDATE pumps
		SET last_index = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+pumpColumns, id, newIndex, at.UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListLubricants(ctx context.Context) ([]domain.LubricantStock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, brand, quantity, min_threshold, price_per_unit, vat_rate
		FROM lubricants
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.LubricantStock, 0, 16)
	for rows.Next() {
		var l domain.LubricantStock
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Brand, &l.Quantity, &l.MinThreshold, &l.PricePerUnit, &l.VATRate); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const customerColumns = `id, name, contact, balance, credit_limit, COALESCE(ice, '')`

func (s *Store) ListCustomers(ctx context.Context) ([]domain.AccountCustomer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.AccountCustomer, 0, 16)
	for rows.Next() {
		var c domain.AccountCustomer
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact, &c.Balance, &c.Limit, &c.ICE); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.AccountCustomer, error) {
	var c domain.AccountCustomer
	err := s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Contact, &c.Balance, &c.Limit, &c.ICE)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

const supplierColumns = `id, name, contact, balance, COALESCE(ice, ''), category`

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		var sup domain.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Contact, &sup.Balance, &sup.ICE, &sup.Category); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var sup domain.Supplier
	err := s.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id).
		Scan(&sup.ID, &sup.Name, &sup.Contact, &sup.Balance, &sup.ICE, &sup.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sup, nil
}

func (s *Store) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, rib, balance FROM bank_accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banks := make([]domain.BankAccount, 0, 4)
	for rows.Next() {
		var b domain.BankAccount
		if err := rows.Scan(&b.ID, &b.Name, &b.RIB, &b.Balance); err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return banks, nil
}

func (s *Store) GetBankAccount(ctx context.Context, id string) (*domain.BankAccount, error) {
	var b domain.BankAccount
	err := s.db.QueryRowContext(ctx, `SELECT id, name, rib, balance FROM bank_accounts WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.RIB, &b.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if len(invoice.Items) == 0 || !invoice.Balanced() {
		return nil, store.ErrInvalidEntry
	}
	if invoice.ID == "" {
		invoice.ID = xid.New("inv")
	}
	if invoice.Date.IsZero() {
		invoice.Date = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (
			id, type, issued_at, partner_kind, partner_id, partner_name, partner_tax_id,
			total_ht, total_vat, total_ttc, payment_method, status, created_by, settlement_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		invoice.ID,
		string(invoice.Type),
		invoice.Date,
		partnerKind(invoice.Partner),
		nullIfEmpty(invoice.Partner.ID),
		invoice.Partner.Name,
		nullIfEmpty(invoice.Partner.TaxID),
		invoice.TotalHT,
		invoice.TotalVAT,
		invoice.TotalTTC,
		string(invoice.PaymentMethod),
		string(invoice.Status),
		nullIfEmpty(invoice.CreatedBy),
		nullIfEmpty(invoice.SettlementID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	items := make([]domain.InvoiceItem, 0, len(invoice.Items))
	for i, item := range invoice.Items {
		if item.ID == "" {
			item.ID = xid.New("item")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_items (
				id, invoice_id, position, product_id, product_name, category,
				quantity, unit_price, vat_rate, total
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, item.ID, invoice.ID, i, nullIfEmpty(item.ProductID), item.ProductName, string(item.Category),
			item.Quantity, item.UnitPrice, item.VATRate, item.Total)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrConflict
			}
			return nil, err
		}
		items = append(items, item)
	}
	invoice.Items = items

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	saved := invoice
	return &saved, nil
}

func (s *Store) ListInvoices(ctx context.Context, from time.Time, to time.Time) ([]domain.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			i.id, i.type, i.issued_at, i.partner_kind, COALESCE(i.partner_id, ''), i.partner_name,
			COALESCE(i.partner_tax_id, ''), i.total_ht, i.total_vat, i.total_ttc,
			i.payment_method, i.status, COALESCE(i.created_by, ''), COALESCE(i.settlement_id, ''),
			it.id, COALESCE(it.product_id, ''), it.product_name, it.category,
			it.quantity, it.unit_price, it.vat_rate, it.total
		FROM invoices i
		JOIN invoice_items it ON it.invoice_id = i.id
		WHERE ($1::timestamptz IS NULL OR i.issued_at >= $1)
			AND ($2::timestamptz IS NULL OR i.issued_at < $2)
		ORDER BY i.issued_at ASC, i.id ASC, it.position ASC
	`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, 64)
	for rows.Next() {
		var inv domain.Invoice
		var item domain.InvoiceItem
		if err := rows.Scan(
			&inv.ID,
			&inv.Type,
			&inv.Date,
			&inv.Partner.Kind,
			&inv.Partner.ID,
			&inv.Partner.Name,
			&inv.Partner.TaxID,
			&inv.TotalHT,
			&inv.TotalVAT,
			&inv.TotalTTC,
			&inv.PaymentMethod,
			&inv.Status,
			&inv.CreatedBy,
			&inv.SettlementID,
			&item.ID,
			&item.ProductID,
			&item.ProductName,
			&item.Category,
			&item.Quantity,
			&item.UnitPrice,
			&item.VATRate,
			&item.Total,
		); err != nil {
			return nil, err
		}

		last := len(invoices) - 1
		if last < 0 || invoices[last].ID != inv.ID {
			inv.Date = inv.Date.UTC()
			invoices = append(invoices, inv)
			last++
		}
		invoices[last].Items = append(invoices[last].Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if !expense.Amount.IsPositive() || !expense.PaymentMethod.IsExpenseMethod() {
		return nil, store.ErrInvalidEntry
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, spent_at, category, amount, description, payment_method, recorded_by, settlement_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, expense.ID, expense.Date, expense.Category, expense.Amount, expense.Description,
		string(expense.PaymentMethod), expense.RecordedBy, nullIfEmpty(expense.SettlementID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &expense, nil
}

func (s *Store) ListExpenses(ctx context.Context, from time.Time, to time.Time) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, spent_at, category, amount, description, payment_method, recorded_by, COALESCE(settlement_id, '')
		FROM expenses
		WHERE ($1::timestamptz IS NULL OR spent_at >= $1)
			AND ($2::timestamptz IS NULL OR spent_at < $2)
		ORDER BY spent_at ASC, id ASC
	`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Category, &e.Amount, &e.Description, &e.PaymentMethod, &e.RecordedBy, &e.SettlementID); err != nil {
			return nil, err
		}
		e.Date = e.Date.UTC()
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) CreatePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	if !payment.Amount.IsPositive() || !payment.Method.IsValid() {
		return nil, store.ErrInvalidEntry
	}
	if payment.Direction != domain.DirectionReceipt && payment.Direction != domain.DirectionDisbursement {
		return nil, store.ErrInvalidEntry
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (
			id, paid_at, partner_kind, partner_id, partner_name, amount, method, direction,
			reference, bank_account_id, recorded_by
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, payment.ID, payment.Date, partnerKind(payment.Partner), nullIfEmpty(payment.Partner.ID),
		payment.Partner.Name, payment.Amount, string(payment.Method), string(payment.Direction),
		nullIfEmpty(payment.Reference), nullIfEmpty(payment.BankAccountID), nullIfEmpty(payment.RecordedBy))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (s *Store) ListPayments(ctx context.Context, from time.Time, to time.Time) ([]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, paid_at, partner_kind, COALESCE(partner_id, ''), partner_name, amount, method, direction,
			COALESCE(reference, ''), COALESCE(bank_account_id, ''), COALESCE(recorded_by, '')
		FROM payments
		WHERE ($1::timestamptz IS NULL OR paid_at >= $1)
			AND ($2::timestamptz IS NULL OR paid_at < $2)
		ORDER BY paid_at ASC, id ASC
	`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0, 32)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID,
			&p.Date,
			&p.Partner.Kind,
			&p.Partner.ID,
			&p.Partner.Name,
			&p.Amount,
			&p.Method,
			&p.Direction,
			&p.Reference,
			&p.BankAccountID,
			&p.RecordedBy,
		); err != nil {
			return nil, err
		}
		p.Date = p.Date.UTC()
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) CommitShiftClosing(ctx context.Context, settlement domain.ShiftSettlement, pumps []domain.Pump) (*domain.ShiftSettlement, error) {
	if strings.TrimSpace(settlement.ID) == "" {
		return nil, store.ErrInvalidEntry
	}
	if settlement.ClosedAt.IsZero() {
		settlement.ClosedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(settlement)
	if err != nil {
		return nil, fmt.Errorf("encode settlement: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shift_closings (id, station_id, session_id, closed_by, opened_at, closed_at, ledger_posted, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, settlement.ID, settlement.StationID, settlement.SessionID, settlement.ClosedBy,
		settlement.OpenedAt, settlement.ClosedAt, settlement.LedgerPosted, payload)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	for _, pump := range pumps {
		res, err := tx.ExecContext(ctx, `
			UPDATE pumps
			SET last_index = $2, unit_price = $3, updated_at = $4
			WHERE id = $1
		`, pump.ID, pump.LastIndex, pump.UnitPrice, pump.UpdatedAt)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	saved := settlement
	return &saved, nil
}

func (s *Store) MarkShiftClosingPosted(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE shift_closings SET ledger_posted = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanClosing(row interface{ Scan(dest ...any) error }) (domain.ShiftSettlement, error) {
	var settlement domain.ShiftSettlement
	var payload []byte
	var posted bool
	if err := row.Scan(&payload, &posted); err != nil {
		return settlement, err
	}
	if err := json.Unmarshal(payload, &settlement); err != nil {
		return settlement, fmt.Errorf("decode settlement: %w", err)
	}
	settlement.LedgerPosted = posted
	return settlement, nil
}

func (s *Store) GetShiftClosing(ctx context.Context, id string) (*domain.ShiftSettlement, error) {
	settlement, err := scanClosing(s.db.QueryRowContext(ctx, `
		SELECT payload, ledger_posted FROM shift_closings WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &settlement, nil
}

func (s *Store) ListShiftClosings(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.ShiftSettlement, error) {
	if limit < 1 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload, ledger_posted
		FROM shift_closings
		WHERE ($1::timestamptz IS NULL OR closed_at >= $1)
			AND ($2::timestamptz IS NULL OR closed_at < $2)
		ORDER BY closed_at DESC, id DESC
		LIMIT $3
	`, nullTime(from), nullTime(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	closings := make([]domain.ShiftSettlement, 0, 16)
	for rows.Next() {
		settlement, err := scanClosing(rows)
		if err != nil {
			return nil, err
		}
		closings = append(closings, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return closings, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, station_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.StationID, entry.ActorUsername, entry.ActorRole, entry.Action,
		entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($1 = '' OR station_id = $1)
			AND created_at >= $2
			AND created_at < $3
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, stationID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, 64)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.StationID,
			&entry.ActorUsername,
			&entry.ActorRole,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidEntry
	}
	if user.Role == "" {
		user.Role = domain.RoleClerk
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidEntry
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func partnerKind(p domain.PartnerRef) string {
	if p.Kind == "" {
		return string(domain.PartnerUnlinked)
	}
	return string(p.Kind)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

// nullTime maps a zero bound to NULL so range filters treat it as open.
func nullTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val.UTC()
}
