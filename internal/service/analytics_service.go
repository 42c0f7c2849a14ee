package service

import (
	"context"

	"go.uber.org/zap"

	"taskhub/internal/apperr"
	"taskhub/internal/model"
)

// AnalyticsService serves the dashboard aggregates, scoped to tasks the
// actor created or is assigned to.
type AnalyticsService struct {
	store  AnalyticsStore
	logger *zap.Logger
}

func NewAnalyticsService(store AnalyticsStore, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, logger: logger}
}

func (s *AnalyticsService) Stats(ctx context.Context, actorID string) (*model.TaskStats, error) {
	stats, err := s.store.StatsForUser(ctx, actorID)
	if err != nil {
		return nil, apperr.Storage("compute stats", err)
	}
	return stats, nil
}

func (s *AnalyticsService) ChartData(ctx context.Context, actorID string) (*model.ChartData, error) {
	data, err := s.store.ChartDataForUser(ctx, actorID)
	if err != nil {
		return nil, apperr.Storage("compute chart data", err)
	}
	return data, nil
}
