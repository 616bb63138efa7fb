package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/session"
	"github.com/Mr-Dark-debug/odonto/pkg/jsonutil"
)

// ErrAccountDisabled is returned when a deactivated user signs in.
var ErrAccountDisabled = errors.New("account is deactivated")

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage staff accounts (administrators only)",
		Long: `Registered users sign in with the role and name stored here, and a
deactivated user cannot sign in. Emails without an account keep the
role derived at login.`,
	}
	cmd.AddCommand(a.usersListCmd())
	cmd.AddCommand(a.usersAddCmd())
	cmd.AddCommand(a.usersSetActiveCmd("activate", true))
	cmd.AddCommand(a.usersSetActiveCmd("deactivate", false))
	return cmd
}

func (a *app) usersListCmd() *cobra.Command {
	var all, asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireAdmin(); err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			users, err := store.ListUsers(all)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return jsonutil.Write(out, users)
			}
			if len(users) == 0 {
				fmt.Fprintln(out, "No users registered")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tACTIVE")
			for _, u := range users {
				active := "yes"
				if !u.Active {
					active = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Name, u.Email, session.Role(u.Role).Label(), active)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include deactivated users")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func (a *app) usersAddCmd() *cobra.Command {
	var u database.User
	var role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.requireAdmin()
			if err != nil {
				return err
			}
			r, err := session.ParseRole(role)
			if err != nil {
				return err
			}
			u.Role = string(r)
			u.Active = true

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InsertUser(&u); err != nil {
				return err
			}
			a.logger.Info("user added", zap.String("email", u.Email), zap.String("role", u.Role),
				zap.String("by", admin.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s <%s> as %s\n", u.Name, u.Email, r.Label())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&u.Name, "name", "", "Full name (required)")
	f.StringVar(&u.Email, "email", "", "Email address (required)")
	f.StringVar(&role, "role", "", "admin, dentist, auxiliary or reception (required)")
	f.StringVar(&u.CPF, "cpf", "", "CPF number")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) usersSetActiveCmd(use string, active bool) *cobra.Command {
	short := "Allow a user to sign in again"
	if !active {
		short = "Stop a user from signing in"
	}
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.requireAdmin()
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetUserActive(args[0], active); err != nil {
				return err
			}
			a.logger.Info("user "+use+"d", zap.String("email", args[0]), zap.String("by", admin.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "User %s %sd\n", args[0], use)
			return nil
		},
	}
}

// applyAccount overwrites a fresh session with the registered account
// for its email, if there is one.
func applyAccount(store database.Store, sess *session.Session) error {
	u, err := store.GetUserByEmail(sess.Email)
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case !u.Active:
		return fmt.Errorf("%s: %w", u.Email, ErrAccountDisabled)
	}
	role, err := session.ParseRole(u.Role)
	if err != nil {
		return fmt.Errorf("account %s: %w", u.Email, err)
	}
	sess.Name = u.Name
	sess.Role = role
	return nil
}
