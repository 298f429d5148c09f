package service

import (
	"context"
	"fmt"

	"petrolhub/backend/internal/domain"
)

func (s *Service) Station(ctx context.Context) (domain.StationConfig, error) {
	return s.repo.GetStationConfig(ctx)
}

func (s *Service) ListPumps(ctx context.Context) ([]domain.Pump, error) {
	return s.repo.ListPumps(ctx)
}

func (s *Service) ListFuelTanks(ctx context.Context) ([]domain.FuelTank, error) {
	return s.repo.ListFuelTanks(ctx)
}

func (s *Service) ListLubricants(ctx context.Context) ([]domain.LubricantStock, error) {
	return s.repo.ListLubricants(ctx)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.AccountCustomer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	return s.repo.ListBankAccounts(ctx)
}

// ResetPumpIndex is the only way to move a pump's index backwards, used when
// a meter is replaced. The manager PIN is checked by the caller.
func (s *Service) ResetPumpIndex(ctx context.Context, pumpID string, req domain.PumpIndexResetRequest) (domain.Pump, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || (actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager) {
		return domain.Pump{}, fmt.Errorf("%w: manager role required", ErrForbidden)
	}
	if err := s.check(req); err != nil {
		return domain.Pump{}, err
	}

	before, err := s.repo.GetPump(ctx, pumpID)
	if err != nil {
		return domain.Pump{}, err
	}
	updated, err := s.repo.ResetPumpIndex(ctx, pumpID, req.NewIndex, s.now().UTC())
	if err != nil {
		return domain.Pump{}, err
	}

	s.logAudit(ctx, "pump_index_reset", "pump", updated.ID,
		fmt.Sprintf("from=%s,to=%s,reason=%s", before.LastIndex, updated.LastIndex, req.Reason))
	return *updated, nil
}
