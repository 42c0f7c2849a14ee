package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/apperr"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "authorization",
			err:     apperr.Forbidden("not authorized to update this task"),
			status:  403,
			message: "not authorized to update this task",
		},
		{
			name:    "not found is capitalized",
			err:     apperr.NotFound("task", "t1"),
			status:  404,
			message: "Task not found",
		},
		{
			name:    "wrapped not found still maps",
			err:     fmt.Errorf("loading: %w", apperr.NotFound("notification", "n1")),
			status:  404,
			message: "Notification not found",
		},
		{
			name:    "storage stays generic",
			err:     apperr.Storage("insert task", errors.New("connection refused")),
			status:  500,
			message: "Server error",
		},
		{
			name:    "unclassified stays generic",
			err:     errors.New("surprise"),
			status:  500,
			message: "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest("GET", "/api/tasks", nil)

			respondError(c, zap.NewNop(), tt.err)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body %q: %v", rec.Body.String(), err)
			}
			if body["message"] != tt.message {
				t.Errorf("message = %v, want %q", body["message"], tt.message)
			}
		})
	}
}

func TestRespondErrorValidationShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("POST", "/api/tasks", nil)

	respondError(c, zap.NewNop(), apperr.Validation(
		apperr.FieldError{Field: "title", Message: "Title is required"},
		apperr.FieldError{Field: "description", Message: "Description is required"},
	))

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Errors []apperr.FieldError `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	if len(body.Errors) != 2 || body.Errors[0].Field != "title" || body.Errors[1].Field != "description" {
		t.Fatalf("errors = %+v", body.Errors)
	}
}
