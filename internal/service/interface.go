package service

import (
	"context"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/insights"
)

// SettlementSink receives every committed shift closing. Its failure is
// logged by the service and never undoes the commit.
//
//go:generate mockgen -destination=mocks/mock_service.go -source=interface.go SettlementSink,InsightAdvisor
type SettlementSink interface {
	Settle(ctx context.Context, settlement domain.ShiftSettlement) error
}

// InsightAdvisor produces advisory text for a day's figures. It must not fail.
type InsightAdvisor interface {
	Advise(ctx context.Context, figures insights.Figures) domain.InsightResponse
}
