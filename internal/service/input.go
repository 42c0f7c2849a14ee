package service

import (
	"encoding/json"
	"time"
	"unicode/utf8"

	"taskhub/internal/apperr"
)

const maxTitleLength = 100

// NullableDate distinguishes the three shapes a JSON date field can
// take in a patch: absent, explicit null (clear the date), and a value.
type NullableDate struct {
	Set  bool
	Null bool
	Raw  string
}

func (d *NullableDate) UnmarshalJSON(b []byte) error {
	d.Set = true
	if string(b) == "null" {
		d.Null = true
		return nil
	}
	return json.Unmarshal(b, &d.Raw)
}

// resolveDueDate turns a NullableDate into the due date to store.
// Absent and explicit null both yield nil; values must be RFC 3339
// timestamps or bare dates.
func resolveDueDate(d NullableDate) (*time.Time, *apperr.FieldError) {
	if !d.Set || d.Null {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, d.Raw); err == nil {
			return &t, nil
		}
	}
	return nil, &apperr.FieldError{Field: "dueDate", Message: "must be an ISO date"}
}

func validateTitle(title string) *apperr.FieldError {
	if title == "" {
		return &apperr.FieldError{Field: "title", Message: "Title is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return &apperr.FieldError{Field: "title", Message: "Title too long"}
	}
	return nil
}

// CreateTaskInput is the POST /api/tasks body.
type CreateTaskInput struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	DueDate      NullableDate `json:"dueDate"`
	Priority     string       `json:"priority"`
	Status       string       `json:"status"`
	AssignedToID string       `json:"assignedToId"`
}

// UpdateTaskInput is the PUT /api/tasks/:id body. Pointer fields are
// applied only when present; absent fields keep their prior values.
type UpdateTaskInput struct {
	Title        *string      `json:"title"`
	Description  *string      `json:"description"`
	DueDate      NullableDate `json:"dueDate"`
	Priority     *string      `json:"priority"`
	Status       *string      `json:"status"`
	AssignedToID *string      `json:"assignedToId"`
}
