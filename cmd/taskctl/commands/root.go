// Package commands implements the taskctl command tree.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/benvon/taskcloud/internal/apiclient"
	"github.com/benvon/taskcloud/internal/localcache"
	"github.com/benvon/taskcloud/internal/logger"
	"github.com/benvon/taskcloud/internal/syncer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what a command needs once settings are resolved. A field set
// before the command runs is kept as is.
type app struct {
	settings Settings
	logger   *zap.Logger
	store    localcache.Store
	client   *apiclient.Client
	sync     *syncer.Syncer

	out    io.Writer
	errOut io.Writer
}

// Execute runs taskctl with args and releases the cache afterwards
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return execute(ctx, &app{}, args, stdout, stderr)
}

func execute(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer a.close()
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Local-first task manager",
		Long: `taskctl keeps your tasks in a local cache and mirrors every change to a
taskcloud server when one is reachable. Without a server, or signed out, it
keeps working against the cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	addPersistentFlags(root)

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newToggleCmd(a),
		newFocusCmd(a),
		newRmCmd(a),
		newPurgeCmd(a),
		newClearCompletedCmd(a),
		newBinCmd(a),
		newSyncCmd(a),
		newHealthCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	a.settings = s
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	if a.logger == nil {
		a.logger = logger.NewFileLogger(s.LogFile, s.Debug, logger.DefaultFileLoggerOptions)
	}
	a.logger.Debug("command_started",
		zap.String("command", cmd.CommandPath()),
		zap.String("server", s.Server),
		zap.String("cache", s.Cache),
	)

	if a.store == nil {
		store, err := localcache.Open(cmd.Context(), localcache.Options{
			Backend:  localcache.Backend(s.Cache),
			Path:     s.CachePath,
			RedisURL: s.RedisURL,
		})
		if err != nil {
			return fmt.Errorf("failed to open local cache: %w", err)
		}
		a.store = store
	}

	var opts []apiclient.Option
	if s.SharedUser != "" {
		opts = append(opts, apiclient.WithSharedUser(s.SharedUser))
	}
	tokens := &apiclient.CacheTokenSource{Store: a.store, Timeout: s.Timeout}
	a.client = apiclient.New(s.Server, tokens, s.Timeout, opts...)
	a.sync = syncer.New(a.store, a.client, a.logger, syncer.WithStatusFunc(a.reportStatus))
	return nil
}

// reportStatus writes settled sync states to stderr so stdout stays parseable
func (a *app) reportStatus(status syncer.Status, message string) {
	if status == syncer.StatusSyncing {
		return
	}
	fmt.Fprintf(a.errOut, "[%s] %s\n", status, message)
}

func (a *app) printer() printer {
	return printer{w: a.out, format: a.settings.Output}
}

// settle turns an outcome into the command result. LocalOnly is reported
// but is not an error.
func (a *app) settle(o syncer.Outcome) error {
	switch o.Kind {
	case syncer.Failed:
		return fmt.Errorf("%s", o.Reason)
	case syncer.LocalOnly:
		if o.Reason != "" {
			fmt.Fprintf(a.errOut, "not synced: %s\n", o.Reason)
		}
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("failed_to_close_cache", zap.Error(err))
		}
	}
	_ = logger.Sync(a.logger)
}
