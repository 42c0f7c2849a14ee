package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhub/internal/model"
)

// ActivityRepository stores the activity log rows the worker derives from
// mirrored task events.
type ActivityRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewActivityRepository(db *pgxpool.Pool, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

func (r *ActivityRepository) Insert(ctx context.Context, e *model.ActivityEntry) error {
	e.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO activity_log (event, task_id, payload, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query,
		e.Event,
		e.TaskID,
		e.Payload,
		e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		r.logger.Error("Failed to insert activity entry",
			zap.Error(err),
			zap.String("event", e.Event),
			zap.String("task_id", e.TaskID),
		)
		return err
	}
	return nil
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	query := `
        SELECT id, event, task_id, payload, created_at
        FROM activity_log
        ORDER BY created_at DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to query activity log", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	entries := []model.ActivityEntry{}
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.ID, &e.Event, &e.TaskID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
