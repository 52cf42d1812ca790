package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()

			username := a.config.Username
			if username == "" {
				var err error
				if username, err = getSimpleText(a.reader, "Username", a.out); err != nil {
					return err
				}
			}
			password, err := getPassword(a.out)
			if err != nil {
				return err
			}

			sess, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Logged in as %s (%s), session valid until %s\n",
				sess.User.Username, sess.User.Role, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newLogoutCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			u, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s (%s)\n", u.Username, u.Role)
			fmt.Fprintf(a.out, "Nama:     %s\n", u.Nama)
			if u.NIP != nil {
				fmt.Fprintf(a.out, "NIP:      %s\n", *u.NIP)
			}
			if u.Jabatan != nil {
				fmt.Fprintf(a.out, "Jabatan:  %s\n", *u.Jabatan)
			}
			return nil
		},
	}
}
