package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/insights"
	"petrolhub/backend/internal/reconciliation"
)

// DailyReport reconciles the ledger for one station-local calendar day.
func (s *Service) DailyReport(ctx context.Context, date string, adj domain.ReportAdjustments) (domain.DailyReport, error) {
	day, from, to, err := s.dayRange(date)
	if err != nil {
		return domain.DailyReport{}, err
	}
	ledger, err := s.loadLedger(ctx, from, to)
	if err != nil {
		return domain.DailyReport{}, err
	}
	station, err := s.repo.GetStationConfig(ctx)
	if err != nil {
		return domain.DailyReport{}, fmt.Errorf("load station config: %w", err)
	}
	station.TimeZone = defaultString(station.TimeZone, s.loc.String())
	station.Currency = defaultString(station.Currency, s.currency)

	report := reconciliation.BuildDailyReport(ledger, day, s.loc, adj)
	report.Station = station
	return report, nil
}

func (s *Service) Insights(ctx context.Context, date string) (domain.InsightResponse, error) {
	report, err := s.DailyReport(ctx, date, domain.ReportAdjustments{})
	if err != nil {
		return domain.InsightResponse{}, err
	}
	tanks, err := s.repo.ListFuelTanks(ctx)
	if err != nil {
		return domain.InsightResponse{}, fmt.Errorf("list fuel tanks: %w", err)
	}
	lubricants, err := s.repo.ListLubricants(ctx)
	if err != nil {
		return domain.InsightResponse{}, fmt.Errorf("list lubricants: %w", err)
	}

	return s.advisor.Advise(ctx, insights.Figures{
		Report:     report,
		Tanks:      tanks,
		Lubricants: lubricants,
	}), nil
}

// PeriodReport totals sales, purchases and expenses over a preset period
// (week, month, year) ending today, or a custom from..to range.
func (s *Service) PeriodReport(ctx context.Context, preset string, from string, to string) (domain.PeriodReport, error) {
	today := reconciliation.DayOf(s.now(), s.loc)
	first, last, err := reconciliation.ResolvePeriod(preset, today, from, to)
	if err != nil {
		return domain.PeriodReport{}, invalid("%v", err)
	}
	start, _ := first.Bounds(s.loc)
	_, end := last.Bounds(s.loc)

	ledger, err := s.loadLedger(ctx, start, end)
	if err != nil {
		return domain.PeriodReport{}, err
	}
	station, err := s.repo.GetStationConfig(ctx)
	if err != nil {
		return domain.PeriodReport{}, fmt.Errorf("load station config: %w", err)
	}
	station.TimeZone = defaultString(station.TimeZone, s.loc.String())
	station.Currency = defaultString(station.Currency, s.currency)

	report := reconciliation.BuildPeriodReport(ledger, first, last, s.loc)
	report.Station = station
	return report, nil
}

// CustomerStatement is the full account history of a credit customer.
func (s *Service) CustomerStatement(ctx context.Context, id string) (domain.PartnerStatement, error) {
	customer, err := s.repo.GetCustomer(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.PartnerStatement{}, fmt.Errorf("customer %s: %w", id, err)
	}
	return s.partnerStatement(ctx, domain.PartnerRef{
		Kind:  domain.PartnerCustomer,
		ID:    customer.ID,
		Name:  customer.Name,
		TaxID: customer.ICE,
	})
}

// SupplierStatement is the full account history of a supplier.
func (s *Service) SupplierStatement(ctx context.Context, id string) (domain.PartnerStatement, error) {
	supplier, err := s.repo.GetSupplier(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.PartnerStatement{}, fmt.Errorf("supplier %s: %w", id, err)
	}
	return s.partnerStatement(ctx, domain.PartnerRef{
		Kind:  domain.PartnerSupplier,
		ID:    supplier.ID,
		Name:  supplier.Name,
		TaxID: supplier.ICE,
	})
}

func (s *Service) partnerStatement(ctx context.Context, partner domain.PartnerRef) (domain.PartnerStatement, error) {
	invoices, err := s.repo.ListInvoices(ctx, time.Time{}, time.Time{})
	if err != nil {
		return domain.PartnerStatement{}, fmt.Errorf("list invoices: %w", err)
	}
	payments, err := s.repo.ListPayments(ctx, time.Time{}, time.Time{})
	if err != nil {
		return domain.PartnerStatement{}, fmt.Errorf("list payments: %w", err)
	}
	return reconciliation.BuildPartnerStatement(partner, invoices, payments), nil
}
