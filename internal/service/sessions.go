package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/reconciliation"
	"petrolhub/backend/internal/store"
	"petrolhub/backend/internal/xid"
)

var (
	defaultGasoilPrice = decimal.RequireFromString("11.95")
	defaultFuelPrice   = decimal.RequireFromString("14.50")
)

// completedSessionTTL is how long a confirmed session stays readable.
const completedSessionTTL = time.Hour

type sessionEntry struct {
	mu          sync.Mutex
	session     domain.ShiftSession
	completedAt time.Time
}

func defaultUnitPrice(pump domain.Pump) decimal.Decimal {
	if pump.UnitPrice.IsPositive() {
		return pump.UnitPrice
	}
	if strings.Contains(strings.ToLower(pump.FuelType), "gasoil") {
		return defaultGasoilPrice
	}
	return defaultFuelPrice
}

func cloneSession(in domain.ShiftSession) domain.ShiftSession {
	out := in
	out.Pumps = slices.Clone(in.Pumps)
	out.Lubricants = slices.Clone(in.Lubricants)
	out.Credits = slices.Clone(in.Credits)
	out.Expenses = slices.Clone(in.Expenses)
	return out
}

func sessionView(session domain.ShiftSession) domain.ShiftSessionView {
	return domain.ShiftSessionView{
		Session: cloneSession(session),
		Totals:  reconciliation.CloseShift(session),
	}
}

// StartSession opens a close-out pre-filled with every pump at its last index
// and the station's wash prices.
func (s *Service) StartSession(ctx context.Context, req domain.ShiftSessionStartRequest) (domain.ShiftSessionView, error) {
	pumps, err := s.repo.ListPumps(ctx)
	if err != nil {
		return domain.ShiftSessionView{}, fmt.Errorf("list pumps: %w", err)
	}
	station, err := s.repo.GetStationConfig(ctx)
	if err != nil {
		return domain.ShiftSessionView{}, fmt.Errorf("load station config: %w", err)
	}

	openedAt := s.now().UTC()
	if req.OpenedAt != nil && !req.OpenedAt.IsZero() {
		openedAt = req.OpenedAt.UTC()
	}

	session := domain.ShiftSession{
		ID:         xid.New("sess"),
		State:      reconciliation.NewWizard(),
		Pumps:      make([]domain.PumpReading, 0, len(pumps)),
		Lubricants: []domain.ShopLine{},
		Wash: domain.WashSales{
			BasicPrice:    station.WashBasicPrice,
			CompletePrice: station.WashCompletePrice,
		},
		Credits:  []domain.CreditLine{},
		Expenses: []domain.ExpenseLine{},
		OpenedBy: actorName(ctx),
		OpenedAt: openedAt,
	}
	for _, pump := range pumps {
		session.Pumps = append(session.Pumps, domain.PumpReading{
			PumpID:    pump.ID,
			Name:      pump.Name,
			FuelType:  pump.FuelType,
			LastIndex: pump.LastIndex,
			NewIndex:  pump.LastIndex,
			UnitPrice: defaultUnitPrice(pump),
		})
	}

	s.mu.Lock()
	s.pruneLocked()
	s.sessions[session.ID] = &sessionEntry{session: session}
	s.mu.Unlock()

	s.log.Info().Str("session_id", session.ID).Int("pumps", len(session.Pumps)).Msg("shift session started")
	s.logAudit(ctx, "shift_session_start", "shift_session", session.ID, fmt.Sprintf("pumps=%d", len(session.Pumps)))
	return sessionView(session), nil
}

func (s *Service) pruneLocked() {
	cutoff := s.now().Add(-completedSessionTTL)
	for id, entry := range s.sessions {
		if !entry.completedAt.IsZero() && entry.completedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func (s *Service) lookupSession(id string) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("shift session %s: %w", id, store.ErrNotFound)
	}
	return entry, nil
}

func (s *Service) GetSession(_ context.Context, id string) (domain.ShiftSessionView, error) {
	entry, err := s.lookupSession(id)
	if err != nil {
		return domain.ShiftSessionView{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return sessionView(entry.session), nil
}

// UpdateSession replaces the sections present in req, then applies the
// navigation action if one is given. Confirmation has its own entry point.
func (s *Service) UpdateSession(ctx context.Context, id string, req domain.ShiftSessionUpdateRequest) (domain.ShiftSessionView, error) {
	if err := s.check(req); err != nil {
		return domain.ShiftSessionView{}, err
	}

	var event reconciliation.Event
	if strings.TrimSpace(req.Action) != "" {
		parsed, err := reconciliation.ParseEvent(req.Action)
		if err != nil {
			return domain.ShiftSessionView{}, wizardError(err)
		}
		if parsed == reconciliation.EventConfirm {
			return domain.ShiftSessionView{}, invalid("use the confirm endpoint to complete a shift")
		}
		event = parsed
	}

	entry, err := s.lookupSession(id)
	if err != nil {
		return domain.ShiftSessionView{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.session.State.Step == domain.StepCompleted {
		return domain.ShiftSessionView{}, wizardError(reconciliation.ErrWizardCompleted)
	}

	next := cloneSession(entry.session)
	if err := s.applyUpdate(ctx, &next, req); err != nil {
		return domain.ShiftSessionView{}, err
	}
	if event != "" {
		state, err := reconciliation.Transition(next.State, event)
		if err != nil {
			return domain.ShiftSessionView{}, wizardError(err)
		}
		next.State = state
	}

	entry.session = next
	return sessionView(next), nil
}

func (s *Service) applyUpdate(ctx context.Context, session *domain.ShiftSession, req domain.ShiftSessionUpdateRequest) error {
	if req.Pumps != nil {
		for _, in := range req.Pumps {
			idx := slices.IndexFunc(session.Pumps, func(r domain.PumpReading) bool { return r.PumpID == in.PumpID })
			if idx < 0 {
				return invalid("pump %s is not part of this session", in.PumpID)
			}
			session.Pumps[idx].NewIndex = in.NewIndex
			if in.UnitPrice != nil {
				if in.UnitPrice.IsNegative() {
					return invalid("pumps.unit_price must not be negative")
				}
				session.Pumps[idx].UnitPrice = *in.UnitPrice
			}
		}
	}

	if req.Lubricants != nil {
		lines, err := s.resolveShopLines(ctx, req.Lubricants)
		if err != nil {
			return err
		}
		session.Lubricants = lines
	}
	if req.Wash != nil {
		session.Wash = *req.Wash
	}
	if req.Credits != nil {
		credits := make([]domain.CreditLine, 0, len(req.Credits))
		for _, line := range req.Credits {
			partner, err := s.resolvePartner(ctx, domain.PartnerInput{
				Kind: line.Customer.Kind,
				ID:   line.Customer.ID,
				Name: line.Customer.Name,
			})
			if err != nil {
				return err
			}
			if partner.Kind == domain.PartnerSupplier {
				return invalid("credits must name a customer")
			}
			credits = append(credits, domain.CreditLine{Customer: partner, Amount: line.Amount})
		}
		session.Credits = credits
	}
	if req.Expenses != nil {
		session.Expenses = slices.Clone(req.Expenses)
	}
	if req.Tenders != nil {
		session.Tenders = *req.Tenders
	}
	return nil
}

func (s *Service) resolveShopLines(ctx context.Context, in []domain.ShopLine) ([]domain.ShopLine, error) {
	var catalog []domain.LubricantStock
	out := make([]domain.ShopLine, 0, len(in))
	for _, line := range in {
		line.ProductID = strings.TrimSpace(line.ProductID)
		line.Name = strings.TrimSpace(line.Name)
		if line.ProductID != "" {
			if catalog == nil {
				var err error
				catalog, err = s.repo.ListLubricants(ctx)
				if err != nil {
					return nil, fmt.Errorf("list lubricants: %w", err)
				}
			}
			idx := slices.IndexFunc(catalog, func(l domain.LubricantStock) bool { return l.ID == line.ProductID })
			if idx < 0 {
				return nil, invalid("unknown lubricant %s", line.ProductID)
			}
			if line.Name == "" {
				line.Name = catalog[idx].Name
			}
			if line.UnitPrice.IsZero() {
				line.UnitPrice = catalog[idx].PricePerUnit
			}
		}
		if line.Name == "" {
			return nil, invalid("lubricants.name is required")
		}
		out = append(out, line)
	}
	return out, nil
}

// ConfirmSession commits the close-out: the closing record and the pump
// index updates land together, then the settlement is handed to the sink.
func (s *Service) ConfirmSession(ctx context.Context, id string) (domain.ShiftConfirmResponse, error) {
	entry, err := s.lookupSession(id)
	if err != nil {
		return domain.ShiftConfirmResponse{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	state, err := reconciliation.Transition(entry.session.State, reconciliation.EventConfirm)
	if err != nil {
		return domain.ShiftConfirmResponse{}, wizardError(err)
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	current, err := s.repo.ListPumps(ctx)
	if err != nil {
		return domain.ShiftConfirmResponse{}, fmt.Errorf("list pumps: %w", err)
	}

	session := cloneSession(entry.session)
	if err := checkStartingIndices(session, current); err != nil {
		return domain.ShiftConfirmResponse{}, err
	}
	now := s.now().UTC()
	completion := reconciliation.CompleteShift(session, current, now)

	settlement := domain.ShiftSettlement{
		ID:         xid.New("close"),
		StationID:  s.stationID,
		SessionID:  session.ID,
		ClosedBy:   actorName(ctx),
		OpenedAt:   session.OpenedAt,
		ClosedAt:   now,
		Pumps:      session.Pumps,
		Lubricants: session.Lubricants,
		Wash:       session.Wash,
		Credits:    session.Credits,
		Expenses:   session.Expenses,
		Tenders:    session.Tenders,
		Totals:     completion.Totals,
	}

	saved, err := s.repo.CommitShiftClosing(ctx, settlement, completion.Pumps)
	if err != nil {
		return domain.ShiftConfirmResponse{}, fmt.Errorf("commit shift closing: %w", err)
	}

	entry.session.State = state
	entry.completedAt = now

	totals := completion.Totals
	s.log.Info().
		Str("closing_id", saved.ID).
		Str("theoretical_total", totals.TheoreticalTotal.String()).
		Str("variance", totals.Variance.String()).
		Str("status", string(totals.Status)).
		Strs("rolled_back_pumps", totals.RolledBackPumps).
		Msg("shift closed")
	s.logAudit(ctx, "shift_close", "shift_closing", saved.ID,
		fmt.Sprintf("session=%s,total=%s,variance=%s,status=%s", session.ID, totals.TheoreticalTotal, totals.Variance, totals.Status))

	if err := s.sink.Settle(ctx, *saved); err != nil {
		s.log.Warn().Err(err).Str("closing_id", saved.ID).Msg("settlement sink failed")
	} else if posted, err := s.repo.GetShiftClosing(ctx, saved.ID); err == nil {
		saved = posted
	}

	return domain.ShiftConfirmResponse{Completion: completion, Settlement: *saved}, nil
}

// checkStartingIndices rejects a session whose readings no longer start where
// the stored pumps stand, e.g. because another session was confirmed first.
func checkStartingIndices(session domain.ShiftSession, current []domain.Pump) error {
	stored := make(map[string]decimal.Decimal, len(current))
	for _, pump := range current {
		stored[pump.ID] = pump.LastIndex
	}
	for _, reading := range session.Pumps {
		last, ok := stored[reading.PumpID]
		if !ok || last.Equal(reading.LastIndex) {
			continue
		}
		return fmt.Errorf("pump %s moved from %s to %s since the session started: %w",
			reading.PumpID, reading.LastIndex, last, store.ErrConflict)
	}
	return nil
}

// AbandonSession discards a session without committing anything.
func (s *Service) AbandonSession(ctx context.Context, id string) error {
	s.mu.Lock()
	entry, ok := s.sessions[strings.TrimSpace(id)]
	if ok {
		delete(s.sessions, strings.TrimSpace(id))
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("shift session %s: %w", id, store.ErrNotFound)
	}

	entry.mu.Lock()
	step := entry.session.State.Step
	entry.mu.Unlock()
	if step != domain.StepCompleted {
		s.logAudit(ctx, "shift_session_abandon", "shift_session", id, "step="+string(step))
	}
	return nil
}

// PreviewShift computes totals for a caller-supplied working set without
// touching any state.
func (s *Service) PreviewShift(_ context.Context, session domain.ShiftSession) (domain.ShiftTotals, error) {
	if err := s.check(session); err != nil {
		return domain.ShiftTotals{}, err
	}
	for _, reading := range session.Pumps {
		if reading.LastIndex.IsNegative() || reading.NewIndex.IsNegative() || reading.UnitPrice.IsNegative() {
			return domain.ShiftTotals{}, invalid("pump %s has a negative index or price", reading.PumpID)
		}
	}
	return reconciliation.CloseShift(session), nil
}

func (s *Service) ListClosings(ctx context.Context, date string, limit int) ([]domain.ShiftSettlement, error) {
	if limit < 1 {
		limit = 50
	}
	if strings.TrimSpace(date) == "" {
		return s.repo.ListShiftClosings(ctx, time.Time{}, time.Time{}, limit)
	}
	_, from, to, err := s.dayRange(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListShiftClosings(ctx, from, to, limit)
}

func (s *Service) GetClosing(ctx context.Context, id string) (domain.ShiftSettlement, error) {
	closing, err := s.repo.GetShiftClosing(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.ShiftSettlement{}, err
	}
	return *closing, nil
}

// wizardError maps navigation failures onto the store sentinels so callers
// can tell a bad request from a finished session.
func wizardError(err error) error {
	switch {
	case errors.Is(err, reconciliation.ErrWizardCompleted):
		return fmt.Errorf("%w: %w", store.ErrConflict, err)
	case errors.Is(err, reconciliation.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", store.ErrInvalidEntry, err)
	default:
		return err
	}
}
