package model

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"TODO", StatusTodo, true},
		{"IN_PROGRESS", StatusInProgress, true},
		{"COMPLETED", StatusCompleted, true},
		{"REVIEW", StatusReview, true},
		{"DONE", StatusCompleted, true}, // legacy alias
		{"todo", "", false},
		{"", "", false},
		{"CANCELLED", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
		ok   bool
	}{
		{"LOW", PriorityLow, true},
		{"MEDIUM", PriorityMedium, true},
		{"HIGH", PriorityHigh, true},
		{"URGENT", PriorityUrgent, true},
		{"medium", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParsePriority(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParsePriority(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTaskIsAssignedTo(t *testing.T) {
	bob := "bob"
	task := Task{AssignedToID: &bob}
	if !task.IsAssignedTo("bob") {
		t.Error("expected task to be assigned to bob")
	}
	if task.IsAssignedTo("alice") {
		t.Error("did not expect task to be assigned to alice")
	}
	if (&Task{}).IsAssignedTo("bob") {
		t.Error("unassigned task should not match anyone")
	}
}
