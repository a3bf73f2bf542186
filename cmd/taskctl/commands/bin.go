package commands

import (
	"fmt"
	"net/http"
	"strconv"
	"text/tabwriter"

	"github.com/benvon/taskcloud/internal/apiclient"
	"github.com/benvon/taskcloud/internal/format"
	"github.com/benvon/taskcloud/internal/task"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newBinCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bin",
		Aliases: []string{"recycle-bin"},
		Short:   "Inspect and manage the recycle bin",
	}
	cmd.AddCommand(
		newBinListCmd(a),
		newBinRestoreCmd(a),
		newBinRmCmd(a),
		newBinClearCmd(a),
	)
	return cmd
}

func newBinListCmd(a *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deleted tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				return listRemoteBin(cmd, a)
			}
			bin, outcome := a.sync.GetRecycleBin(cmd.Context())
			if err := a.settle(outcome); err != nil {
				return err
			}
			return a.printer().tasks(bin)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list the server's recycle bin instead of the local one")
	return cmd
}

// remoteErr wraps a failed server call, hinting at login when the token was rejected
func remoteErr(action string, err error) error {
	if apiclient.IsStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("%s: %w (sign in again with taskctl login)", action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// listRemoteBin shows the server's entries, which carry their own ids
func listRemoteBin(cmd *cobra.Command, a *app) error {
	entries, err := a.client.RecycleBin(cmd.Context())
	if err != nil {
		return remoteErr("failed to list server recycle bin", err)
	}
	p := a.printer()
	if p.format != OutputTable {
		return p.value(entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(p.w, "Recycle bin is empty")
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tTASK\tTITLE\tDELETED")
	for _, e := range entries {
		t := format.ToInternal(e.TaskData)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.ID, t.ID, truncate(t.Title, 40), e.DeletedAt.Local().Format(format.DisplayLayout))
	}
	return tw.Flush()
}

func newBinRestoreCmd(a *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Move a deleted task back to the task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid entry id %q", args[0])
				}
				restored, err := a.client.RestoreRecycled(cmd.Context(), id)
				if err != nil {
					return remoteErr("failed to restore on server", err)
				}
				return a.printer().tasks([]task.Task{format.ToInternal(*restored)})
			}
			restored, outcome := a.sync.RestoreFromRecycleBin(cmd.Context(), args[0])
			if err := a.settle(outcome); err != nil {
				return err
			}
			return a.printer().tasks([]task.Task{*restored})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "restore a server recycle bin entry by its entry id")
	return cmd
}

func newBinRmCmd(a *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Permanently delete one recycle bin entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid entry id %q", args[0])
				}
				if err := a.client.PurgeRecycled(cmd.Context(), id); err != nil {
					return remoteErr("failed to delete on server", err)
				}
				return nil
			}
			return a.settle(a.sync.PermanentDeleteFromRecycleBin(cmd.Context(), args[0]))
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "delete a server recycle bin entry by its entry id")
	return cmd
}

func newBinClearCmd(a *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the recycle bin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				if err := a.client.ClearRecycleBin(cmd.Context()); err != nil {
					return remoteErr("failed to clear server recycle bin", err)
				}
				return nil
			}
			bin, _ := a.sync.GetRecycleBin(cmd.Context())
			if err := a.settle(a.sync.ClearRecycleBin(cmd.Context())); err != nil {
				return err
			}
			return a.printer().pairs([][2]string{{"deleted", strconv.Itoa(len(bin))}})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "clear the server's recycle bin")
	return cmd
}
