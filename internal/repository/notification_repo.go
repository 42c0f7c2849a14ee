package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhub/internal/model"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO notifications (id, user_id, task_id, message, is_read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.UserID,
		n.TaskID,
		n.Message,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert notification",
			zap.Error(err),
			zap.String("user_id", n.UserID),
			zap.String("task_id", n.TaskID),
		)
		return err
	}
	r.logger.Info("Notification inserted",
		zap.String("notification_id", n.ID),
		zap.String("user_id", n.UserID),
	)
	return nil
}

// FindByID returns pgx.ErrNoRows when the notification does not exist.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	query := `
        SELECT id, user_id, task_id, message, is_read, created_at
        FROM notifications
        WHERE id = $1
    `
	var n model.Notification
	err := r.db.QueryRow(ctx, query, id).Scan(
		&n.ID,
		&n.UserID,
		&n.TaskID,
		&n.Message,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForUser returns the user's newest notifications with the task
// summary the client renders, capped at limit.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	query := `
        SELECT n.id, n.user_id, n.task_id, n.message, n.is_read, n.created_at,
               t.title, t.priority, t.due_date,
               c.id, c.name
        FROM notifications n
        JOIN tasks t ON t.id = n.task_id
        JOIN users c ON c.id = t.creator_id
        WHERE n.user_id = $1
        ORDER BY n.created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		r.logger.Error("Failed to query notifications",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, err
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var (
			n       model.Notification
			summary model.TaskSummary
			creator model.UserRef
		)
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.TaskID,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
			&summary.Title,
			&summary.Priority,
			&summary.DueDate,
			&creator.ID,
			&creator.Name,
		); err != nil {
			r.logger.Error("Failed to scan notification row", zap.Error(err))
			return nil, err
		}
		summary.ID = n.TaskID
		summary.Creator = &creator
		n.Task = &summary
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count unread notifications",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		r.logger.Error("Failed to mark notification read",
			zap.Error(err),
			zap.String("notification_id", id),
		)
		return err
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	)
	if err != nil {
		r.logger.Error("Failed to mark all notifications read",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return err
	}
	r.logger.Info("Notifications marked read",
		zap.String("user_id", userID),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}
