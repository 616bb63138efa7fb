package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/saver"
	"github.com/Mr-Dark-debug/odonto/pkg/jsonutil"
	"github.com/Mr-Dark-debug/odonto/pkg/timeutil"
)

// ErrStaleChart is returned when someone saved a newer revision while a
// command was editing.
var ErrStaleChart = errors.New("chart was changed elsewhere; reload and retry")

func (a *app) chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Inspect and edit a patient's odontogram",
	}
	cmd.AddCommand(a.chartShowCmd())
	cmd.AddCommand(a.chartSetCmd())
	cmd.AddCommand(a.chartNotesCmd())
	cmd.AddCommand(a.chartExportCmd())
	cmd.AddCommand(a.chartImportCmd())
	cmd.AddCommand(a.chartHistoryCmd())
	return cmd
}

func (a *app) chartShowCmd() *cobra.Command {
	var asJSON, all, child bool

	cmd := &cobra.Command{
		Use:   "show <patient-id>",
		Short: "Print a patient's chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			patient, err := store.GetPatient(args[0])
			if err != nil {
				return err
			}
			rec, err := store.LoadChart(patient.PatientID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return jsonutil.Write(out, rec)
			}

			fmt.Fprintf(out, "%s (%s)\n", patient.Name, patient.PatientID)
			fmt.Fprintf(out, "Revision %d, saved %s", rec.Revision, timeutil.FormatStamp(rec.SavedAt))
			if rec.SavedBy != "" {
				fmt.Fprintf(out, " by %s", rec.SavedBy)
			}
			fmt.Fprintln(out)
			if all {
				d := chart.ParseDentition(a.cfg.Dentition)
				if child {
					d = chart.Child
				}
				return printRegions(out, rec.State, d)
			}
			return printState(out, rec.State)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the stored record as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "List every region of the dentition, healthy ones included")
	cmd.Flags().BoolVar(&child, "child", false, "With --all, list the child dentition")
	return cmd
}

func (a *app) chartSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <patient-id> <tooth> <surface> <code|none>",
		Short: "Record a condition on one tooth surface",
		Long: `Records a condition code on a tooth surface, or clears it with "none".

Surfaces: top, bottom, left, right, center.
Codes: caries, extraction, restoration, crown, root-canal.
Extraction, crown and root-canal apply to the whole tooth.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			tooth, surface, err := parseRegion(args[1], args[2])
			if err != nil {
				return err
			}
			// Codes are stored exactly as typed; only "none" ignores case.
			code := chart.Condition(args[3])
			if strings.EqualFold(args[3], "none") {
				code = chart.None
			}
			if code != chart.None && !code.Known() {
				a.logger.Warn("recording unrecognized condition code", zap.String("code", string(code)))
			}

			var changed bool
			st, err := a.applyEdit(args[0], func(c *chart.Container) {
				current := c.View().Condition(tooth, surface)
				if current == code {
					return
				}
				c.Click(tooth, surface)
				if code == chart.None {
					changed = c.ClearCondition()
				} else {
					changed = c.SelectCondition(code)
				}
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !changed {
				fmt.Fprintf(out, "Tooth %s %s unchanged\n", tooth, surface)
				return nil
			}
			fmt.Fprintf(out, "Tooth %s %s: %s\n", tooth, surface, st.EffectiveCondition(tooth, surface).Label())
			return nil
		},
	}
	return cmd
}

func (a *app) chartNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <patient-id> <tooth> <text...>",
		Short: "Replace the notes of a tooth",
		Long:  `Replaces the notes of a tooth. An empty text ("") clears them.`,
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tooth, _, err := parseRegion(args[1], string(chart.Center))
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")

			_, err = a.applyEdit(args[0], func(c *chart.Container) {
				c.Click(tooth, chart.Center)
				c.Editor().ShowNotes()
				c.Editor().SetDraft(text)
				c.SaveNotes()
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notes of tooth %s saved\n", tooth)
			return nil
		},
	}
}

func (a *app) chartExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <patient-id>",
		Short: "Write a chart as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.GetPatient(args[0]); err != nil {
				return err
			}
			rec, err := store.LoadChart(args[0])
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return jsonutil.Write(cmd.OutOrStdout(), rec.State)
			}
			if err := jsonutil.WriteFile(output, rec.State); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported revision %d to %s\n", rec.Revision, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func (a *app) chartImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <patient-id> <file>",
		Short: "Replace a chart with one exported as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var imported chart.State
			if err := jsonutil.ReadFile(args[1], &imported); err != nil {
				return err
			}
			imported.Prune()

			sess, err := a.requireSession()
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.GetPatient(args[0]); err != nil {
				return err
			}
			rec, err := store.LoadChart(args[0])
			if err != nil {
				return err
			}
			applied, err := store.SaveChart(database.ChartSave{
				PatientID: args[0],
				Revision:  rec.Revision + 1,
				State:     imported,
				SavedBy:   sess.Email,
			})
			if err != nil {
				return err
			}
			if !applied {
				return ErrStaleChart
			}
			a.logger.Info("chart imported", zap.String("patient_id", args[0]), zap.Int64("revision", rec.Revision+1))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d teeth as revision %d\n", len(imported), rec.Revision+1)
			return nil
		},
	}
}

func (a *app) chartHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <patient-id>",
		Short: "List saved revisions and what changed in each",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.HistoryLimit
				if limit == 0 {
					limit = 20
				}
			}
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.GetPatient(args[0]); err != nil {
				return err
			}
			// One extra record gives the first listed revision a baseline.
			records, err := store.ChartHistory(args[0], limit+1)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No saved revisions")
				return nil
			}

			var prev chart.State
			start := 0
			if len(records) > limit {
				prev, start = records[0].State, 1
			}
			for _, rec := range records[start:] {
				by := rec.SavedBy
				if by == "" {
					by = "unknown"
				}
				fmt.Fprintf(out, "rev %d  %s  %s\n", rec.Revision, timeutil.FormatStamp(rec.SavedAt), by)
				for _, ch := range chart.Diff(prev, rec.State) {
					fmt.Fprintf(out, "  %s\n", describeChange(ch))
				}
				prev = rec.State
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of revisions (default from config)")
	return cmd
}

// applyEdit loads a chart into a container, runs edit against it and
// waits until every snapshot the container emitted has been written.
func (a *app) applyEdit(patientID string, edit func(c *chart.Container)) (chart.State, error) {
	sess, err := a.requireSession()
	if err != nil {
		return nil, err
	}
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if _, err := store.GetPatient(patientID); err != nil {
		return nil, err
	}
	rec, err := store.LoadChart(patientID)
	if err != nil {
		return nil, err
	}

	s := saver.New(a.cfg.Saver, store, a.logger)
	s.Start(context.Background())

	revision := rec.Revision
	c := chart.NewContainer(rec.State, func(st chart.State) {
		revision++
		// Submit failures also arrive on Results.
		_ = s.Submit(saver.Request{
			PatientID: patientID,
			Revision:  revision,
			State:     st,
			SavedBy:   sess.Email,
		})
	})
	c.SetDentition(chart.ParseDentition(a.cfg.Dentition))
	edit(c)
	s.Stop()

	var errs []error
	for res := range s.Results() {
		switch {
		case res.Err != nil:
			errs = append(errs, res.Err)
		case res.Stale:
			errs = append(errs, fmt.Errorf("revision %d: %w", res.Revision, ErrStaleChart))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c.State(), nil
}

// parseRegion validates a tooth number against both dentitions and a
// surface name against the five surfaces.
func parseRegion(tooth, surface string) (chart.ToothID, chart.Surface, error) {
	id := chart.ToothID(tooth)
	if !chart.Adult.Contains(id) && !chart.Child.Contains(id) {
		return "", "", fmt.Errorf("unknown tooth %q: use FDI numbering (11-48 adult, 51-85 child)", tooth)
	}
	s := chart.Surface(strings.ToLower(surface))
	for _, known := range chart.Surfaces() {
		if s == known {
			return id, s, nil
		}
	}
	return "", "", fmt.Errorf("unknown surface %q: use top, bottom, left, right or center", surface)
}

func printState(out io.Writer, st chart.State) error {
	if len(st) == 0 {
		fmt.Fprintln(out, "No conditions recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOTH\tSURFACE\tCONDITION\tEFFECTIVE")
	for _, id := range st.Teeth() {
		for _, s := range chart.Surfaces() {
			stored := st.Condition(id, s)
			if stored == chart.None {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, s.Label(), stored.Label(), st.EffectiveCondition(id, s).Label())
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, id := range st.Teeth() {
		if notes := st.Notes(id); notes != "" {
			fmt.Fprintf(out, "Notes %s: %s\n", id, notes)
		}
	}
	return nil
}

// printRegions lists every region of d in display order with its
// effective condition.
func printRegions(out io.Writer, st chart.State, d chart.Dentition) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOTH\tSURFACE\tEFFECTIVE")
	for _, r := range chart.Regions(d) {
		label := "-"
		if code := st.EffectiveCondition(r.Tooth, r.Surface); code != chart.None {
			label = code.Label()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Tooth, r.Surface.Label(), label)
	}
	return w.Flush()
}

func describeChange(ch chart.Change) string {
	field := "notes"
	if ch.Surface != "" {
		field = string(ch.Surface)
	}
	switch ch.Kind {
	case chart.ChangeAdd:
		return fmt.Sprintf("+ %s %s: %s", ch.Tooth, field, ch.New)
	case chart.ChangeDelete:
		return fmt.Sprintf("- %s %s: %s", ch.Tooth, field, ch.Old)
	default:
		return fmt.Sprintf("~ %s %s: %s -> %s", ch.Tooth, field, ch.Old, ch.New)
	}
}
