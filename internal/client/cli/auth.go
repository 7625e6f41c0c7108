package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (r *runner) newLoginCommand() *cobra.Command {
	var login string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app
			if login == "" {
				var err error
				if login, err = getSimpleText(a.reader, "Enter login", a.out); err != nil {
					return err
				}
			}

			password, err := getPassword(a.reader, a.out)
			if err != nil {
				return err
			}

			rec, err := a.authService.Login(cmd.Context(), login, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", rec.UserLogin)
			return nil
		},
	}
	cmd.Flags().StringVarP(&login, "user", "u", "", "login name (prompted when empty)")
	return cmd
}

func (r *runner) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r.app.authService.Logout(cmd.Context())
			fmt.Fprintln(r.app.out, "Logged out")
			return nil
		},
	}
}

func (r *runner) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session state without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := r.app.authService.Status()
			if st.Record == nil {
				fmt.Fprintf(r.app.out, "state: %s\n", st.State)
				return nil
			}
			fmt.Fprintf(r.app.out, "state: %s\nuser: %s\nexpires: %s\nlast refresh: %s\n",
				st.State, st.Record.UserLogin,
				st.Record.ExpiresAt.Local().Format(time.RFC3339),
				st.Record.LastRefresh.Local().Format(time.RFC3339))
			return nil
		},
	}
}
