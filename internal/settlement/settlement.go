// Package settlement turns a committed shift closing into ledger entries.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/store"
)

// NoopSink leaves the ledger untouched; the closing record is the only trace.
type NoopSink struct{}

func (NoopSink) Settle(_ context.Context, _ domain.ShiftSettlement) error {
	return nil
}

const expenseCategory = "Shift expense"

// LedgerPoster appends one SALE invoice per settlement channel and one CASH
// expense per expense line, then marks the closing as posted.
type LedgerPoster struct {
	repo        store.Repository
	log         zerolog.Logger
	defaultRate decimal.Decimal
}

func NewLedgerPoster(repo store.Repository, log zerolog.Logger) *LedgerPoster {
	return &LedgerPoster{repo: repo, log: log}
}

// WithDefaultVATRate sets the rate used when the station config carries none.
func (p *LedgerPoster) WithDefaultVATRate(rate decimal.Decimal) *LedgerPoster {
	p.defaultRate = rate
	return p
}

// channel is one slice of the shift's takings and the partner it belongs to.
type channel struct {
	method  domain.PaymentMethod
	status  domain.InvoiceStatus
	partner domain.PartnerRef
	amount  decimal.Decimal
}

// soldLine is a sold quantity still waiting to be assigned to a channel.
type soldLine struct {
	productID string
	name      string
	category  domain.ItemCategory
	price     decimal.Decimal
	vatRate   decimal.Decimal
	remaining decimal.Decimal
}

func (p *LedgerPoster) Settle(ctx context.Context, s domain.ShiftSettlement) error {
	rates, err := p.loadRates(ctx)
	if err != nil {
		return fmt.Errorf("load vat rates: %w", err)
	}

	lines := soldLines(s, rates)
	invoices, unallocated := allocate(s, lines)
	if unallocated.IsPositive() {
		p.log.Warn().
			Str("closing_id", s.ID).
			Str("unallocated", unallocated.String()).
			Msg("declared credits and card tenders exceed theoretical sales")
	}

	for _, inv := range invoices {
		if _, err := p.repo.CreateInvoice(ctx, inv); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return fmt.Errorf("post %s invoice: %w", inv.PaymentMethod, err)
		}
	}

	for i, line := range s.Expenses {
		if !line.Amount.IsPositive() {
			continue
		}
		_, err := p.repo.CreateExpense(ctx, domain.Expense{
			ID:            fmt.Sprintf("%s-exp-%d", s.ID, i+1),
			Date:          s.ClosedAt,
			Category:      expenseCategory,
			Amount:        line.Amount,
			Description:   line.Description,
			PaymentMethod: domain.MethodCash,
			RecordedBy:    s.ClosedBy,
			SettlementID:  s.ID,
		})
		if err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("post expense: %w", err)
		}
	}

	if err := p.repo.MarkShiftClosingPosted(ctx, s.ID); err != nil {
		return fmt.Errorf("mark closing posted: %w", err)
	}

	p.log.Info().
		Str("closing_id", s.ID).
		Int("invoices", len(invoices)).
		Int("expenses", len(s.Expenses)).
		Msg("shift closing posted to ledger")
	return nil
}

type vatRates struct {
	byPump      map[string]decimal.Decimal
	byLubricant map[string]decimal.Decimal
	station     decimal.Decimal
}

func (p *LedgerPoster) loadRates(ctx context.Context) (vatRates, error) {
	cfg, err := p.repo.GetStationConfig(ctx)
	if err != nil {
		return vatRates{}, err
	}
	tanks, err := p.repo.ListFuelTanks(ctx)
	if err != nil {
		return vatRates{}, err
	}
	pumps, err := p.repo.ListPumps(ctx)
	if err != nil {
		return vatRates{}, err
	}
	lubricants, err := p.repo.ListLubricants(ctx)
	if err != nil {
		return vatRates{}, err
	}

	byTank := make(map[string]decimal.Decimal, len(tanks))
	for _, t := range tanks {
		byTank[t.ID] = t.VATRate
	}
	rates := vatRates{
		byPump:      make(map[string]decimal.Decimal, len(pumps)),
		byLubricant: make(map[string]decimal.Decimal, len(lubricants)),
		station:     cfg.VATRate,
	}
	if !rates.station.IsPositive() {
		rates.station = p.defaultRate
	}
	for _, pump := range pumps {
		if rate, ok := byTank[pump.TankID]; ok {
			rates.byPump[pump.ID] = rate
		}
	}
	for _, l := range lubricants {
		rates.byLubricant[l.ID] = l.VATRate
	}
	return rates, nil
}

func (r vatRates) pump(id string) decimal.Decimal {
	if rate, ok := r.byPump[id]; ok {
		return rate
	}
	return r.station
}

func (r vatRates) lubricant(id string) decimal.Decimal {
	if rate, ok := r.byLubricant[id]; ok {
		return rate
	}
	return r.station
}
