package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/taskcloud/internal/format"
	"github.com/benvon/taskcloud/internal/syncer"
	"github.com/benvon/taskcloud/internal/task"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// taskFlags are the editable task fields shared by add and edit
type taskFlags struct {
	subtitle string
	priority string
	category string
	date     string
	start    string
	end      string
	deadline string
	tags     []string
}

func (f *taskFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.subtitle, "subtitle", "", "details")
	fs.StringVar(&f.priority, "priority", "", "HIGH, MID or LOW")
	fs.StringVar(&f.category, "category", "", "WORK or PERSONAL")
	fs.StringVar(&f.date, "date", "", "start date, YYYY-MM-DD")
	fs.StringVar(&f.start, "start", "", "start time, HH:MM")
	fs.StringVar(&f.end, "end", "", "end time, HH:MM")
	fs.StringVar(&f.deadline, "deadline", "", "deadline, YYYY-MM-DD or YYYY-MM-DD HH:MM")
	fs.StringSliceVar(&f.tags, "tags", nil, "comma separated tags")
}

// apply copies every flag set on the command line onto t
func (f *taskFlags) apply(fs *pflag.FlagSet, t *task.Task) error {
	if fs.Changed("subtitle") {
		t.SubTitle = f.subtitle
	}
	if fs.Changed("priority") {
		p, ok := task.ParsePriority(f.priority)
		if !ok {
			return fmt.Errorf("invalid priority %q (must be HIGH, MID or LOW)", f.priority)
		}
		t.Priority = p
	}
	if fs.Changed("category") {
		c, ok := task.ParseCategory(f.category)
		if !ok {
			return fmt.Errorf("invalid category %q (must be WORK or PERSONAL)", f.category)
		}
		t.Category = c
	}
	if fs.Changed("date") {
		if f.date != "" {
			if _, err := time.Parse(time.DateOnly, f.date); err != nil {
				return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", f.date)
			}
		}
		t.StartDate = f.date
	}
	for _, c := range []struct {
		name string
		val  string
		dst  *string
	}{
		{"start", f.start, &t.StartTime},
		{"end", f.end, &t.EndTime},
	} {
		if !fs.Changed(c.name) {
			continue
		}
		if c.val != "" {
			if _, err := time.Parse("15:04", c.val); err != nil {
				return fmt.Errorf("invalid %s time %q (want HH:MM)", c.name, c.val)
			}
		}
		*c.dst = c.val
	}
	if fs.Changed("deadline") {
		d, err := parseDeadline(f.deadline)
		if err != nil {
			return err
		}
		t.Deadline = d
	}
	if fs.Changed("tags") {
		t.Tags = cleanTags(f.tags)
	}
	return nil
}

func parseDeadline(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	for _, layout := range []string{format.DisplayLayout, "2006-01-02 15:04", time.DateOnly} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(format.DisplayLayout), nil
		}
	}
	return "", fmt.Errorf("invalid deadline %q (want YYYY-MM-DD or YYYY-MM-DD HH:MM)", s)
}

func cleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func filterTasks(tasks []task.Task, status, priority string) ([]task.Task, error) {
	var wantStatus task.Status
	switch strings.ToLower(status) {
	case "":
	case "open", "unfinished":
		wantStatus = task.StatusUnfinished
	case "done", "finished":
		wantStatus = task.StatusFinished
	default:
		return nil, fmt.Errorf("invalid status %q (must be open or done)", status)
	}
	var wantPriority task.Priority
	if priority != "" {
		p, ok := task.ParsePriority(priority)
		if !ok {
			return nil, fmt.Errorf("invalid priority %q (must be HIGH, MID or LOW)", priority)
		}
		wantPriority = p
	}

	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if wantStatus != "" && t.Status != wantStatus {
			continue
		}
		if wantPriority != "" && t.Priority != wantPriority {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func newListCmd(a *app) *cobra.Command {
	var status, priority string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, refreshing the cache from the server when reachable",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, outcome := a.sync.GetTasks(cmd.Context())
			if err := a.settle(outcome); err != nil {
				return err
			}
			tasks, err := filterTasks(tasks, status, priority)
			if err != nil {
				return err
			}
			return a.printer().tasks(tasks)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only open or done tasks")
	cmd.Flags().StringVar(&priority, "priority", "", "only tasks with this priority")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := task.Task{Title: strings.TrimSpace(strings.Join(args, " "))}
			if err := f.apply(cmd.Flags(), &t); err != nil {
				return err
			}
			created, outcome := a.sync.AddTask(cmd.Context(), t)
			if err := a.settle(outcome); err != nil {
				return err
			}
			return a.printer().tasks([]task.Task{created})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

// cachedTask looks id up in the freshest list available
func cachedTask(cmd *cobra.Command, a *app, id string) (task.Task, error) {
	tasks, outcome := a.sync.GetTasks(cmd.Context())
	if outcome.Kind == syncer.Failed {
		return task.Task{}, fmt.Errorf("%s", outcome.Reason)
	}
	i := task.IndexOf(tasks, id)
	if i == -1 {
		return task.Task{}, fmt.Errorf("%w: %s", syncer.ErrTaskNotFound, id)
	}
	return tasks[i], nil
}

func newEditCmd(a *app) *cobra.Command {
	var f taskFlags
	var title string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := cachedTask(cmd, a, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				if strings.TrimSpace(title) == "" {
					return syncer.ErrEmptyTitle
				}
				t.Title = strings.TrimSpace(title)
			}
			if err := f.apply(cmd.Flags(), &t); err != nil {
				return err
			}
			if err := a.settle(a.sync.UpdateTask(cmd.Context(), t)); err != nil {
				return err
			}
			return a.printer().tasks([]task.Task{t})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	f.register(cmd.Flags())
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between open and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, outcome := a.sync.ToggleTaskStatus(cmd.Context(), args[0])
			if err := a.settle(outcome); err != nil {
				return err
			}
			return a.printer().pairs([][2]string{{"id", args[0]}, {"status", string(next)}})
		},
	}
}

func newFocusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "focus <id> <seconds>",
		Short: "Record accumulated focus time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid seconds %q", args[1])
			}
			return a.settle(a.sync.SetFocusTime(cmd.Context(), args[0], seconds))
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Move a task to the recycle bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.settle(a.sync.DeleteTask(cmd.Context(), args[0]))
		},
	}
}

func newPurgeCmd(a *app) *cobra.Command {
	var serverOnly bool
	cmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Delete a task without keeping it in the recycle bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverOnly {
				return a.settle(a.sync.PermanentDelete(cmd.Context(), args[0]))
			}
			return a.settle(a.sync.PermanentDeleteTask(cmd.Context(), args[0]))
		},
	}
	cmd.Flags().BoolVar(&serverOnly, "server-only", false, "delete on the server and leave the cache alone")
	return cmd
}

func newClearCompletedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Move every done task to the recycle bin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, outcome := a.sync.ClearCompleted(cmd.Context())
			if err := a.settle(outcome); err != nil {
				return err
			}
			return a.printer().pairs([][2]string{{"moved", strconv.Itoa(n)}})
		},
	}
}
