package model

import "time"

// Status is the task lifecycle state. DONE is accepted on input as a
// legacy alias and normalized to COMPLETED before persistence.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusReview     Status = "REVIEW"
)

// ParseStatus validates a status value from a request body.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusReview:
		return Status(s), true
	}
	if s == "DONE" {
		return StatusCompleted, true
	}
	return "", false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ParsePriority validates a priority value from a request body.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(s), true
	}
	return "", false
}

// UserRef is the resolved user shape embedded in task and notification
// payloads.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	DueDate      *time.Time `json:"dueDate"`
	CreatorID    string     `json:"creatorId"`
	AssignedToID *string    `json:"assignedToId"`
	Creator      *UserRef   `json:"creator,omitempty"`
	Assignee     *UserRef   `json:"assignee,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsAssignedTo reports whether the task is currently assigned to userID.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

// TaskStats is the per-user aggregate returned by the analytics endpoints.
type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

// ChartSlice is one named bucket in a chart breakdown.
type ChartSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type ChartData struct {
	PriorityData []ChartSlice `json:"priorityData"`
	StatusData   []ChartSlice `json:"statusData"`
}
