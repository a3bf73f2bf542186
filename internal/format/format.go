// Package format converts tasks between the REST wire shape and the client shape.
package format

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/taskcloud/internal/models"
	"github.com/benvon/taskcloud/internal/task"
)

// DisplayLayout is the layout of deadline and createTime on the client
const DisplayLayout = "2006-01-02 15:04:05"

var wireTimestamp = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})T(\d{2}):(\d{2}):(\d{2})`)

var toInternalPriority = map[models.Priority]task.Priority{
	models.PriorityHigh:   task.PriorityHigh,
	models.PriorityMedium: task.PriorityMid,
	models.PriorityLow:    task.PriorityLow,
}

var toWirePriority = map[task.Priority]models.Priority{
	task.PriorityHigh: models.PriorityHigh,
	task.PriorityMid:  models.PriorityMedium,
	task.PriorityLow:  models.PriorityLow,
}

// DateTime rewrites a wire timestamp as "YYYY-MM-DD HH:MM:SS".
// Only the leading date and time are read; zone suffixes are ignored, never converted.
// Input of any other shape yields "".
func DateTime(wire string) string {
	m := wireTimestamp.FindStringSubmatch(wire)
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2] + ":" + m[3] + ":" + m[4]
}

// splitDateTime splits a display datetime into its date and HH:MM parts
func splitDateTime(display string) (string, string) {
	date, clock, ok := strings.Cut(display, " ")
	if !ok || len(clock) < 5 {
		return "", ""
	}
	return date, clock[:5]
}

// ToInternal converts a wire task into the client shape
func ToInternal(w models.Task) task.Task {
	start := DateTime(w.StartTime)
	end := DateTime(w.EndTime)
	startDate, startTime := splitDateTime(start)
	_, endTime := splitDateTime(end)

	priority, ok := toInternalPriority[w.Priority]
	if !ok {
		priority = task.PriorityMid
	}

	status := task.StatusUnfinished
	if w.Completed() {
		status = task.StatusFinished
	}

	createTime := DateTime(w.CreateTime)
	if w.CreateTime == "" {
		createTime = time.Now().Format(DisplayLayout)
	}

	t := task.Task{
		ID:         strconv.FormatInt(w.ID, 10),
		Title:      w.Title,
		SubTitle:   w.Content,
		Priority:   priority,
		Category:   task.CategoryPersonal,
		StartDate:  startDate,
		StartTime:  startTime,
		EndTime:    endTime,
		Deadline:   end,
		Tags:       models.SplitTags(w.Tags),
		Status:     status,
		CreateTime: createTime,
	}
	if w.FocusTime > 0 {
		t.FocusTime = w.FocusTime
	}
	return t
}

// ToInternalAll converts a list of wire tasks, preserving order
func ToInternalAll(ws []models.Task) []task.Task {
	out := make([]task.Task, 0, len(ws))
	for _, w := range ws {
		out = append(out, ToInternal(w))
	}
	return out
}

// ToWire converts a client task into the wire shape. The wire id is set only
// when the client id is numeric.
func ToWire(t task.Task) models.Task {
	w := models.Task{
		Title:    t.Title,
		Content:  t.SubTitle,
		Priority: toWirePriority[t.Priority],
		Tags:     models.JoinTags(t.Tags),
	}
	if w.Priority == "" {
		w.Priority = models.PriorityMedium
	}
	if id, ok := WireID(t.ID); ok {
		w.ID = id
	}

	if t.StartDate != "" && t.StartTime != "" {
		w.StartTime = t.StartDate + "T" + t.StartTime + ":00"
	}
	endDate := t.StartDate
	if t.Deadline != "" {
		endDate, _, _ = strings.Cut(t.Deadline, " ")
	}
	if endDate != "" && t.EndTime != "" {
		w.EndTime = endDate + "T" + t.EndTime + ":00"
	}

	w.SetCompleted(t.Status == task.StatusFinished)
	if t.FocusTime > 0 {
		w.FocusTime = t.FocusTime
	}
	return w
}

// WireID reports whether a client id is a server-assigned numeric id.
// Ids generated locally are base-36 and never parse.
func WireID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
