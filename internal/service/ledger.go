package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/reconciliation"
)

// resolvePartner turns a partner reference from a request into a stored one.
// Linked kinds must point at an existing record; anything else is kept as a
// free-text counterparty.
func (s *Service) resolvePartner(ctx context.Context, in domain.PartnerInput) (domain.PartnerRef, error) {
	id := strings.TrimSpace(in.ID)
	switch in.Kind {
	case domain.PartnerCustomer:
		if id == "" {
			return domain.PartnerRef{}, invalid("partner.id is required for customers")
		}
		customer, err := s.repo.GetCustomer(ctx, id)
		if err != nil {
			return domain.PartnerRef{}, fmt.Errorf("customer %s: %w", id, err)
		}
		return domain.PartnerRef{Kind: domain.PartnerCustomer, ID: customer.ID, Name: customer.Name, TaxID: customer.ICE}, nil
	case domain.PartnerSupplier:
		if id == "" {
			return domain.PartnerRef{}, invalid("partner.id is required for suppliers")
		}
		supplier, err := s.repo.GetSupplier(ctx, id)
		if err != nil {
			return domain.PartnerRef{}, fmt.Errorf("supplier %s: %w", id, err)
		}
		return domain.PartnerRef{Kind: domain.PartnerSupplier, ID: supplier.ID, Name: supplier.Name, TaxID: supplier.ICE}, nil
	default:
		ref := domain.UnlinkedPartner(in.Name)
		ref.TaxID = strings.TrimSpace(in.TaxID)
		return ref, nil
	}
}

func (s *Service) CreateInvoice(ctx context.Context, req domain.InvoiceCreateRequest) (domain.Invoice, error) {
	if err := s.check(req); err != nil {
		return domain.Invoice{}, err
	}

	partner, err := s.resolvePartner(ctx, req.Partner)
	if err != nil {
		return domain.Invoice{}, err
	}
	switch {
	case req.Type == domain.InvoiceSale && partner.Kind == domain.PartnerSupplier:
		return domain.Invoice{}, invalid("sale invoices cannot name a supplier")
	case req.Type == domain.InvoicePurchase && partner.Kind == domain.PartnerCustomer:
		return domain.Invoice{}, invalid("purchase invoices cannot name a customer")
	case req.Type == domain.InvoiceSale && req.PaymentMethod == domain.MethodCredit && partner.Kind != domain.PartnerCustomer:
		return domain.Invoice{}, invalid("credit sales require a customer account")
	}

	status := req.Status
	if status == "" {
		status = domain.InvoicePaid
		if req.PaymentMethod == domain.MethodCredit {
			status = domain.InvoicePending
		}
	}

	date := s.now().UTC()
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}

	invoice := domain.Invoice{
		Type:          req.Type,
		Date:          date,
		Partner:       partner,
		Items:         make([]domain.InvoiceItem, 0, len(req.Items)),
		PaymentMethod: req.PaymentMethod,
		Status:        status,
		CreatedBy:     actorName(ctx),
	}
	for _, item := range req.Items {
		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			ProductID:   strings.TrimSpace(item.ProductID),
			ProductName: strings.TrimSpace(item.ProductName),
			Category:    item.Category,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
		})
	}
	invoice.Recalculate()

	created, err := s.repo.CreateInvoice(ctx, invoice)
	if err != nil {
		return domain.Invoice{}, err
	}

	s.logAudit(ctx, "invoice_create", "invoice", created.ID,
		fmt.Sprintf("type=%s,method=%s,total=%s", created.Type, created.PaymentMethod, created.TotalTTC))
	return *created, nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	if err := s.check(req); err != nil {
		return domain.Expense{}, err
	}

	date := s.now().UTC()
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}

	created, err := s.repo.CreateExpense(ctx, domain.Expense{
		Date:          date,
		Category:      strings.TrimSpace(req.Category),
		Amount:        req.Amount,
		Description:   strings.TrimSpace(req.Description),
		PaymentMethod: req.PaymentMethod,
		RecordedBy:    actorName(ctx),
	})
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, "expense_create", "expense", created.ID,
		fmt.Sprintf("category=%s,method=%s,amount=%s", created.Category, created.PaymentMethod, created.Amount))
	return *created, nil
}

func (s *Service) CreatePayment(ctx context.Context, req domain.PaymentCreateRequest) (domain.Payment, error) {
	if err := s.check(req); err != nil {
		return domain.Payment{}, err
	}

	partner, err := s.resolvePartner(ctx, req.Partner)
	if err != nil {
		return domain.Payment{}, err
	}

	bankID := strings.TrimSpace(req.BankAccountID)
	if bankID != "" {
		if _, err := s.repo.GetBankAccount(ctx, bankID); err != nil {
			return domain.Payment{}, fmt.Errorf("bank account %s: %w", bankID, err)
		}
	}

	date := s.now().UTC()
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}

	created, err := s.repo.CreatePayment(ctx, domain.Payment{
		Date:          date,
		Partner:       partner,
		Amount:        req.Amount,
		Method:        req.Method,
		Direction:     req.Direction,
		Reference:     strings.TrimSpace(req.Reference),
		BankAccountID: bankID,
		RecordedBy:    actorName(ctx),
	})
	if err != nil {
		return domain.Payment{}, err
	}

	s.logAudit(ctx, "payment_create", "payment", created.ID,
		fmt.Sprintf("direction=%s,method=%s,amount=%s", created.Direction, created.Method, created.Amount))
	return *created, nil
}

// Ledger returns the entries dated on date in the station time zone, or the
// whole ledger when date is empty.
func (s *Service) Ledger(ctx context.Context, date string) (domain.Ledger, error) {
	if strings.TrimSpace(date) == "" {
		return s.loadLedger(ctx, time.Time{}, time.Time{})
	}
	day, from, to, err := s.dayRange(date)
	if err != nil {
		return domain.Ledger{}, err
	}
	ledger, err := s.loadLedger(ctx, from, to)
	if err != nil {
		return domain.Ledger{}, err
	}
	return reconciliation.FilterLedger(ledger, day, s.loc), nil
}

func (s *Service) ListInvoices(ctx context.Context, date string) ([]domain.Invoice, error) {
	ledger, err := s.Ledger(ctx, date)
	return ledger.Invoices, err
}

func (s *Service) ListExpenses(ctx context.Context, date string) ([]domain.Expense, error) {
	ledger, err := s.Ledger(ctx, date)
	return ledger.Expenses, err
}

func (s *Service) ListPayments(ctx context.Context, date string) ([]domain.Payment, error) {
	ledger, err := s.Ledger(ctx, date)
	return ledger.Payments, err
}

func (s *Service) loadLedger(ctx context.Context, from time.Time, to time.Time) (domain.Ledger, error) {
	invoices, err := s.repo.ListInvoices(ctx, from, to)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("list invoices: %w", err)
	}
	expenses, err := s.repo.ListExpenses(ctx, from, to)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("list expenses: %w", err)
	}
	payments, err := s.repo.ListPayments(ctx, from, to)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("list payments: %w", err)
	}
	return domain.Ledger{Invoices: invoices, Expenses: expenses, Payments: payments}, nil
}
