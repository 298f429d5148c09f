package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/insights"
	"petrolhub/backend/internal/reconciliation"
	"petrolhub/backend/internal/store"
	"petrolhub/backend/internal/xid"
)

// ErrForbidden is returned when the actor's role does not allow an operation.
var ErrForbidden = errors.New("forbidden")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Options configures a Service. Currency fills in the station currency when
// the stored config has none.
type Options struct {
	StationID string
	Location  *time.Location
	Currency  string
	Sink      SettlementSink
	Advisor   InsightAdvisor
	Logger    zerolog.Logger
}

type Service struct {
	repo      store.Repository
	stationID string
	currency  string
	loc       *time.Location
	sink      SettlementSink
	advisor   InsightAdvisor
	validate  *validator.Validate
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	// commitMu serialises confirms so the stale-index check and the commit
	// see the same pump state.
	commitMu sync.Mutex
}

func New(repo store.Repository, opts Options) *Service {
	if opts.StationID == "" {
		opts.StationID = "main-station"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Sink == nil {
		opts.Sink = noopSink{}
	}
	if opts.Advisor == nil {
		opts.Advisor = insights.NewAdvisor(nil, nil, insights.Options{}, opts.Logger)
	}

	return &Service{
		repo:      repo,
		stationID: opts.StationID,
		currency:  opts.Currency,
		loc:       opts.Location,
		sink:      opts.Sink,
		advisor:   opts.Advisor,
		validate:  newValidator(),
		log:       opts.Logger,
		now:       time.Now,
		sessions:  make(map[string]*sessionEntry),
	}
}

// Location is the station time zone used for calendar days.
func (s *Service) Location() *time.Location {
	return s.loc
}

type noopSink struct{}

func (noopSink) Settle(context.Context, domain.ShiftSettlement) error { return nil }

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// check validates a request DTO and reports every failing field.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("%v", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return invalid("%s", strings.Join(parts, "; "))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidEntry, fmt.Sprintf(format, args...))
}

// dayRange resolves a YYYY-MM-DD string in the station time zone. An empty
// string means today.
func (s *Service) dayRange(date string) (reconciliation.Day, time.Time, time.Time, error) {
	var day reconciliation.Day
	if strings.TrimSpace(date) == "" {
		day = reconciliation.DayOf(s.now(), s.loc)
	} else {
		parsed, err := reconciliation.ParseDay(strings.TrimSpace(date))
		if err != nil {
			return reconciliation.Day{}, time.Time{}, time.Time{}, invalid("%v", err)
		}
		day = parsed
	}
	from, to := day.Bounds(s.loc)
	return day, from, to, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	_, from, to, err := s.dayRange(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAuditLogs(ctx, s.stationID, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		StationID:     s.stationID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now().UTC(),
	}); err != nil {
		s.log.Warn().Err(err).
			Str("action", action).
			Str("entity", entityType+"/"+entityID).
			Msg("failed to write audit log")
	}
}

func actorName(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.Username != "" {
		return actor.Username
	}
	return "system"
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
