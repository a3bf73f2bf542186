package models

import (
	"fmt"
	"time"
)

// Priority is the wire priority of a task
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// WireTimeLayout is the timestamp layout used for start_time, end_time and create_time.
// Timestamps carry no zone; they are read back exactly as written.
const WireTimeLayout = "2006-01-02T15:04:05"

// Task is a task as stored by the server and exchanged over the REST API
type Task struct {
	ID          int64    `json:"id,omitempty"`
	Scope       string   `json:"-"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	StartTime   string   `json:"start_time,omitempty"`
	EndTime     string   `json:"end_time,omitempty"`
	Priority    Priority `json:"priority"`
	Tags        string   `json:"tags"`
	IsCompleted int      `json:"is_completed"`
	FocusTime   int      `json:"focus_time,omitempty"`
	CreateTime  string   `json:"create_time,omitempty"`
	UpdateTime  string   `json:"update_time,omitempty"`
}

// Completed reports whether the task is marked done
func (t *Task) Completed() bool {
	return t.IsCompleted != 0
}

// SetCompleted sets is_completed to 1 or 0
func (t *Task) SetCompleted(done bool) {
	if done {
		t.IsCompleted = 1
		return
	}
	t.IsCompleted = 0
}

// IsValidPriority reports whether p is one of the wire priorities
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// FormatWireTime formats t using WireTimeLayout. The zero time formats as "".
func FormatWireTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(WireTimeLayout)
}

// ParseWireTime parses a wire timestamp. RFC 3339 input is accepted as well.
// An empty string returns nil.
func ParseWireTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{WireTimeLayout, time.RFC3339Nano, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid timestamp %q (expected %s)", s, WireTimeLayout)
}
