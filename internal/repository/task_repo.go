package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhub/internal/model"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `
	t.id, t.title, t.description, t.status, t.priority, t.due_date,
	t.creator_id, t.assigned_to_id, t.created_at, t.updated_at,
	c.name, c.email,
	a.id, a.name, a.email
`

const taskJoins = `
	FROM tasks t
	JOIN users c ON c.id = t.creator_id
	LEFT JOIN users a ON a.id = t.assigned_to_id
`

func scanTask(row interface{ Scan(...any) error }) (*model.Task, error) {
	var (
		t             model.Task
		creatorName   string
		creatorEmail  string
		assigneeID    *string
		assigneeName  *string
		assigneeEmail *string
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.CreatorID,
		&t.AssignedToID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&creatorName,
		&creatorEmail,
		&assigneeID,
		&assigneeName,
		&assigneeEmail,
	)
	if err != nil {
		return nil, err
	}
	t.Creator = &model.UserRef{ID: t.CreatorID, Name: creatorName, Email: creatorEmail}
	if assigneeID != nil {
		t.Assignee = &model.UserRef{ID: *assigneeID, Name: *assigneeName, Email: *assigneeEmail}
	}
	return &t, nil
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	query := `
        INSERT INTO tasks (id, title, description, status, priority, due_date, creator_id, assigned_to_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.DueDate,
		t.CreatorID,
		t.AssignedToID,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.String("creator_id", t.CreatorID),
		)
		return err
	}
	r.logger.Info("Task inserted",
		zap.String("task_id", t.ID),
		zap.String("creator_id", t.CreatorID),
	)
	return nil
}

// FindByID loads a task with creator and assignee resolved. Returns
// pgx.ErrNoRows when the task does not exist.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + ` WHERE t.id = $1`
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListForUser returns tasks the user created or is assigned to, newest
// first.
func (r *TaskRepository) ListForUser(ctx context.Context, userID string) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + `
		WHERE t.creator_id = $1 OR t.assigned_to_id = $1
		ORDER BY t.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	t.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE tasks
        SET title = $2, description = $3, status = $4, priority = $5,
            due_date = $6, assigned_to_id = $7, updated_at = $8
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.DueDate,
		t.AssignedToID,
		t.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update task",
			zap.Error(err),
			zap.String("task_id", t.ID),
		)
		return err
	}
	r.logger.Info("Task updated", zap.String("task_id", t.ID))
	return nil
}

// Delete removes a task and its notifications in one transaction, so the
// notification list never holds references to a task that is gone.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM notifications WHERE task_id = $1`, id); err != nil {
		r.logger.Error("Failed to delete task notifications",
			zap.Error(err),
			zap.String("task_id", id),
		)
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.String("task_id", id),
		)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("Task deleted", zap.String("task_id", id))
	return nil
}
