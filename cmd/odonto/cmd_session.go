package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/session"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Signs in with an email and password. Any non-empty credentials are
accepted; the role is derived from the email:

  contains "admin"    administrator
  contains "dentist"  dentist
  contains "aux"      auxiliary
  otherwise           reception

A user registered with ` + "`odonto users add`" + ` signs in with the stored name
and role instead, and a deactivated user is refused.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Login(email, password)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			err = applyAccount(store, sess)
			store.Close()
			if err != nil {
				return err
			}
			if err := a.sessions().Save(sess); err != nil {
				return err
			}
			a.logger.Info("signed in", zap.String("email", sess.Email), zap.String("role", string(sess.Role)))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signed in as %s (%s)\n", sess.Email, sess.Role.Label())
			printMenu(out, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions().Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and their menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.sessions().Load()
			if errors.Is(err, session.ErrNoSession) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", sess.Email, sess.Role.Label())
			fmt.Fprintf(out, "Session %s since %s\n", sess.ID, sess.CreatedAt.Format("2006-01-02 15:04"))
			printMenu(out, sess.Role)
			return nil
		},
	}
}

func printMenu(out io.Writer, role session.Role) {
	fmt.Fprint(out, "Menu:")
	for _, item := range session.Menu(role) {
		fmt.Fprintf(out, " %s", item.Label)
	}
	fmt.Fprintln(out)
}
