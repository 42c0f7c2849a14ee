package service

import (
	"context"

	"taskhub/internal/model"
)

// The storage collaborators are consumed through narrow interfaces so
// the services can be exercised against in-memory fakes. The pgx
// repositories in internal/repository are the production implementations;
// all of them signal a missing row with pgx.ErrNoRows.

type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	ListForUser(ctx context.Context, userID string) ([]model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id string) error
}

type NotificationStore interface {
	Insert(ctx context.Context, n *model.Notification) error
	FindByID(ctx context.Context, id string) (*model.Notification, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type AnalyticsStore interface {
	StatsForUser(ctx context.Context, userID string) (*model.TaskStats, error)
	ChartDataForUser(ctx context.Context, userID string) (*model.ChartData, error)
}

type ActivityStore interface {
	ListRecent(ctx context.Context, limit int) ([]model.ActivityEntry, error)
}
