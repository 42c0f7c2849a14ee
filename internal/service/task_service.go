package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskhub/internal/apperr"
	"taskhub/internal/events"
	"taskhub/internal/model"
	"taskhub/pkg/metrics"
)

// TaskService performs the task-write-then-notify protocol: persist the
// mutation, derive and persist any owed notification, then publish the
// global task event and the targeted notification event. The storage
// write always commits before anything is published, so a subscriber
// that refetches on an event observes the committed state. Publish
// failures are logged and never fail the mutation.
type TaskService struct {
	tasks         TaskStore
	notifications NotificationStore
	users         UserStore
	publisher     events.Publisher
	logger        *zap.Logger
}

func NewTaskService(
	tasks TaskStore,
	notifications NotificationStore,
	users UserStore,
	publisher events.Publisher,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		tasks:         tasks,
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		logger:        logger,
	}
}

// Create validates input, persists a task owned by the actor, notifies
// the assignee when one was named, and broadcasts task:created.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput, actorID string) (*model.Task, error) {
	var fields []apperr.FieldError

	if fe := validateTitle(input.Title); fe != nil {
		fields = append(fields, *fe)
	}
	if input.Description == "" {
		fields = append(fields, apperr.FieldError{Field: "description", Message: "Description is required"})
	}

	priority := model.PriorityMedium
	if input.Priority != "" {
		p, ok := model.ParsePriority(input.Priority)
		if !ok {
			fields = append(fields, apperr.FieldError{Field: "priority", Message: "invalid priority"})
		} else {
			priority = p
		}
	}

	status := model.StatusTodo
	if input.Status != "" {
		st, ok := model.ParseStatus(input.Status)
		if !ok {
			fields = append(fields, apperr.FieldError{Field: "status", Message: "invalid status"})
		} else {
			status = st
		}
	}

	duePtr, fe := resolveDueDate(input.DueDate)
	if fe != nil {
		fields = append(fields, *fe)
	}

	var assignee *model.User
	if input.AssignedToID != "" {
		u, err := s.users.FindByID(ctx, input.AssignedToID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				fields = append(fields, apperr.FieldError{Field: "assignedToId", Message: "assignee not found"})
			} else {
				return nil, apperr.Storage("load assignee", err)
			}
		} else {
			assignee = u
		}
	}

	if len(fields) > 0 {
		return nil, apperr.Validation(fields...)
	}

	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, apperr.Storage("load actor", err)
	}

	task := &model.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     duePtr,
		CreatorID:   actor.ID,
	}
	if assignee != nil {
		id := assignee.ID
		task.AssignedToID = &id
	}

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, apperr.Storage("insert task", err)
	}
	task.Creator = actor.Ref()
	task.Assignee = assignee.Ref()

	if assignee != nil && assignee.ID != actor.ID {
		if err := s.notifyAssignment(ctx, task, actor, assignee); err != nil {
			return nil, err
		}
	}

	s.publish(events.TaskCreated, task)
	return task, nil
}

// Update applies a partial patch. Only the creator or current assignee
// may update; a patch that hands the task to a new assignee other than
// the actor owes that assignee a notification.
func (s *TaskService) Update(ctx context.Context, id string, patch UpdateTaskInput, actorID string) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("task", id)
		}
		return nil, apperr.Storage("load task", err)
	}

	if task.CreatorID != actorID && !task.IsAssignedTo(actorID) {
		return nil, apperr.Forbidden("not authorized to update this task")
	}

	var fields []apperr.FieldError

	if patch.Title != nil {
		if fe := validateTitle(*patch.Title); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if patch.Description != nil && *patch.Description == "" {
		fields = append(fields, apperr.FieldError{Field: "description", Message: "Description is required"})
	}

	var status model.Status
	if patch.Status != nil {
		st, ok := model.ParseStatus(*patch.Status)
		if !ok {
			fields = append(fields, apperr.FieldError{Field: "status", Message: "invalid status"})
		} else {
			status = st
		}
	}

	var priority model.Priority
	if patch.Priority != nil {
		p, ok := model.ParsePriority(*patch.Priority)
		if !ok {
			fields = append(fields, apperr.FieldError{Field: "priority", Message: "invalid priority"})
		} else {
			priority = p
		}
	}

	parsedDue, dueErr := resolveDueDate(patch.DueDate)
	if dueErr != nil {
		fields = append(fields, *dueErr)
	}

	var newAssignee *model.User
	if patch.AssignedToID != nil {
		u, err := s.users.FindByID(ctx, *patch.AssignedToID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				fields = append(fields, apperr.FieldError{Field: "assignedToId", Message: "assignee not found"})
			} else {
				return nil, apperr.Storage("load assignee", err)
			}
		} else {
			newAssignee = u
		}
	}

	if len(fields) > 0 {
		return nil, apperr.Validation(fields...)
	}

	priorAssigneeID := ""
	if task.AssignedToID != nil {
		priorAssigneeID = *task.AssignedToID
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = status
	}
	if patch.Priority != nil {
		task.Priority = priority
	}
	if patch.DueDate.Set {
		task.DueDate = parsedDue
	}
	if newAssignee != nil {
		id := newAssignee.ID
		task.AssignedToID = &id
		task.Assignee = newAssignee.Ref()
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, apperr.Storage("update task", err)
	}

	if newAssignee != nil && newAssignee.ID != priorAssigneeID && newAssignee.ID != actorID {
		actor, err := s.users.FindByID(ctx, actorID)
		if err != nil {
			return nil, apperr.Storage("load actor", err)
		}
		if err := s.notifyAssignment(ctx, task, actor, newAssignee); err != nil {
			return nil, err
		}
	}

	s.publish(events.TaskUpdated, task)
	return task, nil
}

// Delete removes a task and its notifications. Creator only. Nobody is
// notified; subscribers see the task:deleted broadcast.
func (s *TaskService) Delete(ctx context.Context, id string, actorID string) error {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("task", id)
		}
		return apperr.Storage("load task", err)
	}

	if task.CreatorID != actorID {
		return apperr.Forbidden("only the creator can delete this task")
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return apperr.Storage("delete task", err)
	}

	s.publish(events.TaskDeleted, map[string]string{"id": id})
	return nil
}

// List returns the tasks the actor created or is assigned to.
func (s *TaskService) List(ctx context.Context, actorID string) ([]model.Task, error) {
	tasks, err := s.tasks.ListForUser(ctx, actorID)
	if err != nil {
		return nil, apperr.Storage("list tasks", err)
	}
	return tasks, nil
}

// Get loads a single task with names resolved.
func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("task", id)
		}
		return nil, apperr.Storage("load task", err)
	}
	return task, nil
}

// notifyAssignment persists the assignment notification and publishes
// notification:new into the assignee's room. The storage write is the
// part that can fail the mutation; the publish is best-effort.
func (s *TaskService) notifyAssignment(ctx context.Context, task *model.Task, actor, assignee *model.User) error {
	n := &model.Notification{
		UserID:  assignee.ID,
		TaskID:  task.ID,
		Message: fmt.Sprintf("%s assigned you a task: \"%s\"", actor.Name, task.Title),
	}
	if err := s.notifications.Insert(ctx, n); err != nil {
		return apperr.Storage("insert notification", err)
	}
	metrics.NotificationsCreated.Inc()

	n.Task = &model.TaskSummary{
		ID:       task.ID,
		Title:    task.Title,
		Priority: task.Priority,
		DueDate:  task.DueDate,
		Creator:  &model.UserRef{ID: actor.ID, Name: actor.Name},
	}
	s.publishToUser(assignee.ID, events.NotificationNew, n)
	return nil
}

func (s *TaskService) publish(event string, payload any) {
	if s.publisher == nil {
		s.logger.Error("Event publish skipped",
			zap.String("event", event),
			zap.Error(events.ErrNotInitialized),
		)
		return
	}
	if err := s.publisher.Publish(event, payload); err != nil {
		s.logger.Error("Event publish failed",
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (s *TaskService) publishToUser(userID, event string, payload any) {
	if s.publisher == nil {
		s.logger.Error("Event publish skipped",
			zap.String("event", event),
			zap.String("user_id", userID),
			zap.Error(events.ErrNotInitialized),
		)
		return
	}
	if err := s.publisher.PublishToUser(userID, event, payload); err != nil {
		s.logger.Error("Event publish failed",
			zap.String("event", event),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
