package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskhub/internal/apperr"
	"taskhub/internal/model"
)

const (
	notificationListLimit = 50

	// The cached unread count may lag a freshly created notification by
	// up to this long; the live client bumps its own counter from the
	// notification:new event, so the window is cosmetic.
	unreadCacheTTL = 30 * time.Second
)

type NotificationService struct {
	store  NotificationStore
	rdb    *redis.Client // optional; nil disables caching
	logger *zap.Logger
}

func NewNotificationService(store NotificationStore, rdb *redis.Client, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		rdb:    rdb,
		logger: logger,
	}
}

func unreadKey(userID string) string {
	return "notif:unread:" + userID
}

// List returns the actor's newest notifications.
func (s *NotificationService) List(ctx context.Context, actorID string) ([]model.Notification, error) {
	notifications, err := s.store.ListForUser(ctx, actorID, notificationListLimit)
	if err != nil {
		return nil, apperr.Storage("list notifications", err)
	}
	return notifications, nil
}

// UnreadCount returns the actor's unread total, served from redis when
// warm. Redis being down degrades to a database count.
func (s *NotificationService) UnreadCount(ctx context.Context, actorID string) (int, error) {
	if s.rdb != nil {
		if count, err := s.rdb.Get(ctx, unreadKey(actorID)).Int(); err == nil {
			return count, nil
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Unread cache read failed", zap.Error(err))
		}
	}

	count, err := s.store.UnreadCount(ctx, actorID)
	if err != nil {
		return 0, apperr.Storage("count notifications", err)
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, unreadKey(actorID), count, unreadCacheTTL).Err(); err != nil {
			s.logger.Warn("Unread cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

// MarkRead flips one notification; only its owner may do so.
func (s *NotificationService) MarkRead(ctx context.Context, id, actorID string) (*model.Notification, error) {
	n, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("notification", id)
		}
		return nil, apperr.Storage("load notification", err)
	}

	if n.UserID != actorID {
		return nil, apperr.Forbidden("not authorized")
	}

	if err := s.store.MarkRead(ctx, id); err != nil {
		return nil, apperr.Storage("mark notification read", err)
	}
	n.IsRead = true

	s.invalidateUnread(ctx, actorID)
	return n, nil
}

// MarkAllRead flips every unread notification the actor owns.
func (s *NotificationService) MarkAllRead(ctx context.Context, actorID string) error {
	if err := s.store.MarkAllRead(ctx, actorID); err != nil {
		return apperr.Storage("mark notifications read", err)
	}
	s.invalidateUnread(ctx, actorID)
	return nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context, userID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, unreadKey(userID)).Err(); err != nil {
		s.logger.Warn("Unread cache invalidation failed", zap.Error(err))
	}
}
