package service

import (
	"context"

	"go.uber.org/zap"

	"taskhub/internal/apperr"
	"taskhub/internal/model"
)

const activityFeedLimit = 20

// ActivityService serves the recent-activity feed the worker builds from
// mirrored task events. The feed is global, not scoped per user.
type ActivityService struct {
	store  ActivityStore
	logger *zap.Logger
}

func NewActivityService(store ActivityStore, logger *zap.Logger) *ActivityService {
	return &ActivityService{store: store, logger: logger}
}

func (s *ActivityService) Recent(ctx context.Context) ([]model.ActivityEntry, error) {
	entries, err := s.store.ListRecent(ctx, activityFeedLimit)
	if err != nil {
		return nil, apperr.Storage("list activity", err)
	}
	return entries, nil
}
