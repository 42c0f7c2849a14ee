package model

import "time"

// TaskSummary is the trimmed task shape nested inside notification
// payloads, enough for the client to render the notification line.
type TaskSummary struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Priority Priority   `json:"priority"`
	DueDate  *time.Time `json:"dueDate"`
	Creator  *UserRef   `json:"creator,omitempty"`
}

type Notification struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	TaskID    string       `json:"taskId"`
	Message   string       `json:"message"`
	IsRead    bool         `json:"isRead"`
	CreatedAt time.Time    `json:"createdAt"`
	Task      *TaskSummary `json:"task,omitempty"`
}
