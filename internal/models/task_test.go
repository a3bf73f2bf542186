package models

import (
	"testing"
	"time"
)

func TestIsValidPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Priority
		valid bool
	}{
		{"high", PriorityHigh, true},
		{"medium", PriorityMedium, true},
		{"low", PriorityLow, true},
		{"mid is internal only", Priority("mid"), false},
		{"empty", Priority(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidPriority(tt.value); got != tt.valid {
				t.Errorf("IsValidPriority(%q) = %v, want %v", tt.value, got, tt.valid)
			}
		})
	}
}

func TestTask_SetCompleted(t *testing.T) {
	t.Parallel()

	task := &Task{}
	task.SetCompleted(true)
	if task.IsCompleted != 1 || !task.Completed() {
		t.Errorf("Expected is_completed 1, got %d", task.IsCompleted)
	}
	task.SetCompleted(false)
	if task.IsCompleted != 0 || task.Completed() {
		t.Errorf("Expected is_completed 0, got %d", task.IsCompleted)
	}
}

func TestParseWireTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		expectNil bool
		expectErr bool
		want      string
	}{
		{name: "empty", input: "", expectNil: true},
		{name: "wire layout", input: "2024-03-01T09:00:00", want: "2024-03-01T09:00:00"},
		{name: "rfc3339", input: "2024-03-01T09:00:00Z", want: "2024-03-01T09:00:00"},
		{name: "minutes only", input: "2024-03-01T09:30", want: "2024-03-01T09:30:00"},
		{name: "garbage", input: "tomorrow", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseWireTime(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.expectNil {
				if got != nil {
					t.Errorf("Expected nil, got %v", got)
				}
				return
			}
			if s := FormatWireTime(*got); s != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, s)
			}
		})
	}
}

func TestFormatWireTime_Zero(t *testing.T) {
	t.Parallel()
	if s := FormatWireTime(time.Time{}); s != "" {
		t.Errorf("Expected empty string for zero time, got %q", s)
	}
}

func TestTags(t *testing.T) {
	t.Parallel()

	if got := SplitTags(" a, ,b,,c "); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("SplitTags dropped or reordered tags: %v", got)
	}
	if got := SplitTags(""); got == nil || len(got) != 0 {
		t.Errorf("SplitTags(\"\") should be an empty non-nil slice, got %#v", got)
	}
	if got := NormalizeTags("x,y, x ,,z"); got != "x,y,x,z" {
		t.Errorf("NormalizeTags = %q, want x,y,x,z", got)
	}
}
