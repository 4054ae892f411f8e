package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/acadeval/internal/route"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		student   bool
		username  string
		password  string
		number    string
		lastName  string
		firstName string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a username and password, or as a student",
		Long: "Log in with a username and password (professors and administrators),\n" +
			"or with --student using a student number and name.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			ctx := cmd.Context()
			var err error
			if student {
				if number == "" {
					number = p.ask("Student number")
				}
				if lastName == "" {
					lastName = p.ask("Last name")
				}
				if firstName == "" {
					firstName = p.ask("First name")
				}
				err = a.session.StudentLogin(ctx, number, lastName, firstName)
			} else {
				if username == "" {
					username = p.ask("Username")
				}
				if password == "" {
					password, err = readPassword(cmd, p)
					if err != nil {
						return err
					}
				}
				err = a.session.Login(ctx, username, password)
			}
			if err != nil {
				if msg := a.session.Snapshot().LastError; msg != "" {
					return errors.New(msg)
				}
				return err
			}

			state := a.session.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", state.Identity.DisplayName(), state.Role())
			fmt.Fprintf(cmd.OutOrStdout(), "Home: %s\n", a.history.Resume(a.table, state))
			return nil
		},
	}

	cmd.Flags().BoolVar(&student, "student", false, "Log in as a student (number and name)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted if omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if omitted)")
	cmd.Flags().StringVar(&number, "number", "", "Student number")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Student last name")
	cmd.Flags().StringVar(&firstName, "first-name", "", "Student first name")
	return at(route.LoginPath, cmd)
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, p *prompter) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return p.ask("Password"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and forget it locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.session.Snapshot().Authenticated() {
				if err := a.client.Auth().Logout(cmd.Context()); err != nil {
					a.logger.Warn("server logout failed", "error", err)
				}
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := a.session.Snapshot()
			if !state.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			u := state.Identity
			if remote {
				me, err := a.client.Auth().Me(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetch identity: %w", err)
				}
				u = me
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "User:     %s\n", u.Username)
			fmt.Fprintf(w, "Name:     %s\n", u.DisplayName())
			fmt.Fprintf(w, "Role:     %s\n", u.Role)
			if u.StudentNumber != "" {
				fmt.Fprintf(w, "Number:   %s\n", u.StudentNumber)
			}
			fmt.Fprintf(w, "Home:     %s\n", route.DefaultRoute(state))
			if exp := a.session.ExpiresAt(); !exp.IsZero() {
				fmt.Fprintf(w, "Expires:  %s (%s)\n", humanize.Time(exp), exp.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch the identity from the server")
	return cmd
}
