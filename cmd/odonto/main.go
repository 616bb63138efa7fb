// Odonto CLI: patients, odontograms and reports from the command line.
//
// Usage:
//
//	odonto <command> [flags]
//
// Commands:
//
//	login / logout / whoami   Manage the signed-in session
//	dashboard                 Patient count and today's schedule
//	patients list / add       Browse and register patients
//	appointments              Schedule visits and track their status
//	documents                 Record clinic documents and patient attachments
//	users                     Manage staff accounts (administrators)
//	config show / init        Inspect or write the configuration file
//	chart show / set / notes  Inspect and edit a patient's odontogram
//	chart export / import     Move a chart in and out as JSON
//	chart history             List saved revisions and what changed
//	report                    Summarize a chart as markdown
//	seed                      Load the demo patient
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/config"
	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/logging"
	"github.com/Mr-Dark-debug/odonto/internal/session"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app carries what every command needs. It is built once per root
// command, so nothing is shared between invocations.
type app struct {
	verbose    bool
	configPath string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "odonto",
		Short: "Odonto - dental charting for the clinic",
		Long: `Odonto keeps patients and their odontograms in a local SQLite database.

Use odonto-tui for the interactive chart editor; this CLI covers sessions,
patients, scripted chart edits, exports and reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := logging.New(cfg.LogLevel, a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ~/.odonto/config.yaml)")

	root.AddCommand(a.loginCmd())
	root.AddCommand(a.logoutCmd())
	root.AddCommand(a.whoamiCmd())
	root.AddCommand(a.dashboardCmd())
	root.AddCommand(a.patientsCmd())
	root.AddCommand(a.appointmentsCmd())
	root.AddCommand(a.documentsCmd())
	root.AddCommand(a.usersCmd())
	root.AddCommand(a.configCmd())
	root.AddCommand(a.chartCmd())
	root.AddCommand(a.reportCmd())
	root.AddCommand(a.seedCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Odonto v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		},
	})
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ErrNotAdmin is returned when a command needs the administrator role.
var ErrNotAdmin = errors.New("administrator role required")

// openStore opens the configured database, creating its directory on
// first use.
func (a *app) openStore() (*database.DBService, error) {
	if a.cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}
	store, err := database.NewDBService(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", a.cfg.DBPath, err)
	}
	a.logger.Debug("database opened", zap.String("path", a.cfg.DBPath))
	return store, nil
}

func (a *app) sessions() *session.FileStore {
	return session.NewFileStore(a.cfg.SessionPath)
}

// requireSession loads the signed-in user for commands that edit data.
func (a *app) requireSession() (*session.Session, error) {
	sess, err := a.sessions().Load()
	if err != nil {
		if err == session.ErrNoSession {
			return nil, fmt.Errorf("%w: run `odonto login` first", err)
		}
		return nil, err
	}
	return sess, nil
}

// requireAdmin loads the signed-in user and checks the administrator role.
func (a *app) requireAdmin() (*session.Session, error) {
	sess, err := a.requireSession()
	if err != nil {
		return nil, err
	}
	if !sess.IsAdmin() {
		return nil, fmt.Errorf("%w: signed in as %s", ErrNotAdmin, sess.Role.Label())
	}
	return sess, nil
}
