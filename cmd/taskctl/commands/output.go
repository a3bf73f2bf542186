package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/benvon/taskcloud/internal/task"
	"gopkg.in/yaml.v3"
)

// printer renders command results in the selected output format
type printer struct {
	w      io.Writer
	format string
}

func (p printer) value(v any) error {
	switch p.format {
	case OutputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintf(p.w, "%v\n", v)
		return err
	}
}

func (p printer) tasks(tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	if p.format != OutputTable {
		return p.value(tasks)
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(p.w, "No tasks")
		return err
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tCATEGORY\tTITLE\tWHEN\tTAGS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			statusMark(t.Status),
			t.Priority,
			t.Category,
			truncate(t.Title, 40),
			when(t),
			strings.Join(t.Tags, ","),
		)
	}
	return tw.Flush()
}

// pairs prints label/value rows in table mode and a map otherwise
func (p printer) pairs(rows [][2]string) error {
	if p.format != OutputTable {
		m := make(map[string]string, len(rows))
		for _, r := range rows {
			m[r[0]] = r[1]
		}
		return p.value(m)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

func statusMark(s task.Status) string {
	if s == task.StatusFinished {
		return "done"
	}
	return "open"
}

func when(t task.Task) string {
	switch {
	case t.StartDate == "":
		return ""
	case t.StartTime == "" && t.EndTime == "":
		return t.StartDate
	case t.EndTime == "":
		return t.StartDate + " " + t.StartTime
	default:
		return t.StartDate + " " + t.StartTime + "-" + t.EndTime
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
