package cli

import (
	"errors"
	"fmt"

	"github.com/me/acadeval/internal/route"
	"github.com/me/acadeval/pkg/model"
	"github.com/spf13/cobra"
)

const usersRoute = route.AdminPath + "/users"

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admin)",
	}
	cmd.AddCommand(
		at(usersRoute, newUsersListCmd(a)),
		at(usersRoute, newUsersShowCmd(a)),
		at(usersRoute, newUsersUpdateCmd(a)),
		at(usersRoute, newUsersDeactivateCmd(a)),
	)
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var (
		role string
		f    listFilter
		opts = model.DefaultListOptions()
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r model.Role
			if role != "" {
				var ok bool
				if r, ok = model.ParseRole(role); !ok {
					return fmt.Errorf("unknown role %q", role)
				}
			}
			list, err := a.client.Users().List(cmd.Context(), r, opts)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			list = filterSlice(list, func(u model.Account) bool {
				status := "inactive"
				if u.IsActive {
					status = "active"
				}
				return f.match(status, "", u.Username, u.FullName, u.Email)
			})

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No users found.")
				return nil
			}
			fmt.Fprintf(w, "%-20s  %-28s  %-30s  %-9s  %-6s  %s\n", "USERNAME", "NAME", "EMAIL", "ROLE", "ACTIVE", "CREATED")
			fmt.Fprintf(w, "%-20s  %-28s  %-30s  %-9s  %-6s  %s\n", "--------", "----", "-----", "----", "------", "-------")
			for _, u := range list {
				active := "no"
				if u.IsActive {
					active = "yes"
				}
				fmt.Fprintf(w, "%-20s  %-28s  %-30s  %-9s  %-6s  %s\n",
					u.Username, truncate(u.FullName, 28), truncate(u.Email, 30), u.Role, active, when(u.CreatedAt))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Only list this role (student, professor, admin)")
	f.register(cmd, false)
	cmd.Flags().IntVar(&opts.Skip, "skip", opts.Skip, "Entries to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", opts.Limit, "Maximum entries (max 100)")
	return cmd
}

func newUsersShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.Users().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get user: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "User:     %s\n", u.Username)
			fmt.Fprintf(w, "Name:     %s\n", u.FullName)
			fmt.Fprintf(w, "Email:    %s\n", u.Email)
			fmt.Fprintf(w, "Role:     %s\n", u.Role)
			fmt.Fprintf(w, "Active:   %t\n", u.IsActive)
			fmt.Fprintf(w, "Created:  %s\n", when(u.CreatedAt))
			return nil
		},
	}
}

func newUsersUpdateCmd(a *app) *cobra.Command {
	var (
		upd    model.AccountUpdate
		active bool
	)
	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Change an account's name, email or active flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("active") {
				upd.IsActive = &active
			}
			if upd.FullName == "" && upd.Email == "" && upd.IsActive == nil {
				return errors.New("nothing to update: pass --name, --email or --active")
			}
			msg, err := a.client.Users().Update(cmd.Context(), args[0], upd)
			if err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			a.ack(msg, "user updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&upd.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&upd.Email, "email", "", "Email address")
	cmd.Flags().BoolVar(&active, "active", true, "Whether the account may log in")
	return cmd
}

func newUsersDeactivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <username>",
		Short: "Disable an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if u := a.session.Snapshot().Identity; u != nil && u.Username == args[0] {
				return errors.New("refusing to deactivate the current account")
			}
			msg, err := a.client.Users().Deactivate(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("deactivate user: %w", err)
			}
			a.ack(msg, "user deactivated")
			return nil
		},
	}
}
