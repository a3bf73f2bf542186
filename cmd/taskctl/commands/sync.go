package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "sync [pull|push]",
		Short:     "Refresh the cache from the server (pull) or report pending changes (push)",
		Long:      "Without an argument sync pulls and then pushes.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"pull", "push"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := ""
			if len(args) == 1 {
				direction = args[0]
			}

			if direction == "" || direction == "pull" {
				tasks, outcome := a.sync.SyncFromCloud(cmd.Context())
				if err := a.settle(outcome); err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "%d tasks in cache\n", len(tasks))
			}
			if direction == "" || direction == "push" {
				if err := a.settle(a.sync.SyncToCloud(cmd.Context())); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.client.Health(cmd.Context())
			rows := [][2]string{
				{"server", a.client.BaseURL()},
				{"reachable", strconv.FormatBool(err == nil)},
			}
			if err != nil {
				rows = append(rows, [2]string{"error", err.Error()})
			}
			if perr := a.printer().pairs(rows); perr != nil {
				return perr
			}
			if err != nil {
				return fmt.Errorf("server unreachable")
			}
			return nil
		},
	}
}
