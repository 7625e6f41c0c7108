package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/betclient/internal/client/client"
	"github.com/dmitrijs2005/betclient/internal/client/config"
	"github.com/spf13/cobra"
)

// Exit codes returned by Execute.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitSessionExpired = 2
)

type runner struct {
	streams Streams
	app     *App
}

// Execute runs one betclient command and returns the process exit code.
func Execute(ctx context.Context, version string, args []string, s Streams) int {
	r := &runner{streams: s}
	root := r.rootCommand(version)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if r.app != nil {
		if cerr := r.app.Close(); cerr != nil {
			r.app.log.Warn(ctx, "close app", "error", cerr)
		}
	}
	return r.report(err)
}

// report is the single place where command errors reach the user.
func (r *runner) report(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, client.ErrSessionExpired):
		fmt.Fprintln(r.streams.Err, "session expired, please log in again")
		return ExitSessionExpired
	default:
		fmt.Fprintln(r.streams.Err, "error:", err)
		return ExitError
	}
}

func (r *runner) rootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "betclient",
		Short: "betclient - command-line client for the betting service",
		Long: `betclient talks to the betting backend on behalf of a logged-in user.

The session survives between invocations: the token and the credentials used
to renew it are kept in a local database, and an expired token is renewed
transparently before or during a call.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.setup(cmd)
		},
	}
	root.SetIn(r.streams.In)
	root.SetOut(r.streams.Out)
	root.SetErr(r.streams.Err)
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		r.newLoginCommand(),
		r.newLogoutCommand(),
		r.newStatusCommand(),
		r.newWhoamiCommand(),
		r.newMatchesCommand(),
		r.newBetConfigCommand(),
		r.newBetCommand(),
		r.newAutoExecuteCommand(),
	)
	return root
}

// setup loads configuration, builds the App and restores the session left by
// a previous invocation.
func (r *runner) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), cfg, r.streams)
	if err != nil {
		return err
	}
	r.app = app

	app.authService.Restore(cmd.Context())
	return nil
}
