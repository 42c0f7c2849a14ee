package model

import "time"

// ActivityEntry is one row of the activity log fed by the event bridge.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	Event     string    `json:"event"`
	TaskID    string    `json:"taskId"`
	Payload   []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
