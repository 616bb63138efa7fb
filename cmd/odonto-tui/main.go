// Odonto TUI: the interactive odontogram editor.
//
// Usage:
//
//	odonto-tui [flags]
//
// Flags:
//
//	--config   Config file (default: ~/.odonto/config.yaml)
//	--db       Path to SQLite database file (overrides the config)
//	--patient  Open this patient's chart directly
//	--child    Start in the child dentition
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/config"
	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/logging"
	"github.com/Mr-Dark-debug/odonto/internal/saver"
	"github.com/Mr-Dark-debug/odonto/internal/session"
	"github.com/Mr-Dark-debug/odonto/internal/tui"
)

func main() {
	var configPath, dbPath, patientID string
	var child bool

	cmd := &cobra.Command{
		Use:          "odonto-tui",
		Short:        "Interactive odontogram editor",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			dentition := chart.ParseDentition(cfg.Dentition)
			if child {
				dentition = chart.Child
			}
			return run(cfg, dentition, patientID)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: ~/.odonto/config.yaml)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database file")
	cmd.Flags().StringVar(&patientID, "patient", "", "Open this patient's chart directly")
	cmd.Flags().BoolVar(&child, "child", false, "Start in the child dentition")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, dentition chart.Dentition, patientID string) error {
	// The alternate screen owns stdout, so logs go to a file.
	logger, err := logging.NewFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := database.NewDBService(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database at %s: %w\n"+
			"Create it and load a demo patient with: odonto seed", cfg.DBPath, err)
	}
	defer store.Close()

	sess, err := session.NewFileStore(cfg.SessionPath).Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
		logger.Info("no session, opening read-only")
	case err != nil:
		return err
	default:
		logger.Info("session loaded", zap.String("email", sess.Email), zap.String("role", string(sess.Role)))
	}

	s := saver.New(cfg.Saver, store, logger)
	s.Start(context.Background())
	defer func() {
		s.Stop()
		m := s.Metrics()
		logger.Info("saver stopped",
			zap.Int64("saved", m.Saved), zap.Int64("stale", m.Stale),
			zap.Int64("failed", m.Failed), zap.Int64("dropped", m.Dropped))
	}()

	model := tui.NewModel(tui.Config{
		Store:     store,
		Saver:     s,
		Session:   sess,
		Logger:    logger,
		Dentition: dentition,
		PatientID: patientID,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
