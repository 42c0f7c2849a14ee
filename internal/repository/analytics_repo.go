package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhub/internal/model"
)

// AnalyticsRepository runs the aggregate queries behind the dashboard
// stats and charts. All queries are scoped to tasks the user created or
// is assigned to.
type AnalyticsRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAnalyticsRepository(db *pgxpool.Pool, logger *zap.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, logger: logger}
}

func (r *AnalyticsRepository) StatsForUser(ctx context.Context, userID string) (*model.TaskStats, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status IN ('TODO', 'IN_PROGRESS', 'REVIEW')),
            COUNT(*) FILTER (WHERE status = 'COMPLETED'),
            COUNT(*) FILTER (WHERE due_date < NOW() AND status <> 'COMPLETED')
        FROM tasks
        WHERE creator_id = $1 OR assigned_to_id = $1
    `
	var stats model.TaskStats
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Completed,
		&stats.Overdue,
	)
	if err != nil {
		r.logger.Error("Failed to compute task stats",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, err
	}
	return &stats, nil
}

func (r *AnalyticsRepository) ChartDataForUser(ctx context.Context, userID string) (*model.ChartData, error) {
	priorityQuery := `
        SELECT priority, COUNT(*)
        FROM tasks
        WHERE creator_id = $1 OR assigned_to_id = $1
        GROUP BY priority
    `
	rows, err := r.db.Query(ctx, priorityQuery, userID)
	if err != nil {
		r.logger.Error("Failed to query priority breakdown",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, err
	}
	defer rows.Close()

	data := &model.ChartData{
		PriorityData: []model.ChartSlice{},
		StatusData:   []model.ChartSlice{},
	}
	for rows.Next() {
		var slice model.ChartSlice
		if err := rows.Scan(&slice.Name, &slice.Value); err != nil {
			return nil, err
		}
		data.PriorityData = append(data.PriorityData, slice)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statusQuery := `
        SELECT
            COUNT(*) FILTER (WHERE status = 'COMPLETED'),
            COUNT(*) FILTER (WHERE status IN ('TODO', 'IN_PROGRESS', 'REVIEW')),
            COUNT(*) FILTER (WHERE due_date < NOW() AND status <> 'COMPLETED')
        FROM tasks
        WHERE creator_id = $1 OR assigned_to_id = $1
    `
	var completed, pending, overdue int
	if err := r.db.QueryRow(ctx, statusQuery, userID).Scan(&completed, &pending, &overdue); err != nil {
		r.logger.Error("Failed to query status breakdown",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, err
	}
	data.StatusData = []model.ChartSlice{
		{Name: "Completed", Value: completed},
		{Name: "Pending", Value: pending},
		{Name: "Overdue", Value: overdue},
	}
	return data, nil
}
