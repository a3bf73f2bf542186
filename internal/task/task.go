// Package task defines the task shape the client keeps in its local cache.
package task

import "strings"

// Priority is the client-side priority of a task
type Priority string

const (
	PriorityHigh Priority = "HIGH"
	PriorityMid  Priority = "MID"
	PriorityLow  Priority = "LOW"
)

// Category groups tasks for display
type Category string

const (
	CategoryWork     Category = "WORK"
	CategoryPersonal Category = "PERSONAL"
)

// Status is the completion state of a task
type Status string

const (
	StatusUnfinished Status = "UNFINISHED"
	StatusFinished   Status = "FINISHED"
)

// Task is a user-visible unit of work as held by the client.
// Recycle bin entries use the same shape.
type Task struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	SubTitle   string   `json:"subTitle" yaml:"subTitle"`
	Priority   Priority `json:"priority" yaml:"priority"`
	Category   Category `json:"category" yaml:"category"`
	StartDate  string   `json:"startDate" yaml:"startDate"`
	StartTime  string   `json:"startTime" yaml:"startTime"`
	EndTime    string   `json:"endTime" yaml:"endTime"`
	Deadline   string   `json:"deadline" yaml:"deadline"`
	Tags       []string `json:"tags" yaml:"tags"`
	Status     Status   `json:"status" yaml:"status"`
	CreateTime string   `json:"createTime" yaml:"createTime"`
	FocusTime  int      `json:"focusTime,omitempty" yaml:"focusTime,omitempty"`
}

// Toggled returns the opposite status
func (s Status) Toggled() Status {
	if s == StatusFinished {
		return StatusUnfinished
	}
	return StatusFinished
}

// ParsePriority maps user input to a Priority, accepting either case
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMid, "MEDIUM":
		return PriorityMid, true
	case PriorityLow:
		return PriorityLow, true
	default:
		return "", false
	}
}

// ParseCategory maps user input to a Category, accepting either case
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryWork:
		return CategoryWork, true
	case CategoryPersonal:
		return CategoryPersonal, true
	default:
		return "", false
	}
}

// IndexOf returns the position of the task with id, or -1
func IndexOf(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Without returns tasks minus every entry with id
func Without(tasks []Task, id string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
