package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/report"
	"github.com/Mr-Dark-debug/odonto/pkg/jsonutil"
)

func (a *app) reportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report <patient-id>",
		Short: "Summarize a patient's chart",
		Long: `Prints condition counts, whole-tooth findings, notes and warnings for
a patient's current chart as markdown, or as JSON with --json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := report.NewAnalyzer(store).FullAnalysis(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return jsonutil.Write(cmd.OutOrStdout(), r)
			}
			fmt.Fprint(cmd.OutOrStdout(), report.FormatReport(r))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// demoPatient is the patient created by `odonto seed`.
func demoPatient() *database.Patient {
	return &database.Patient{
		Name:      "Ana Silva",
		BirthDate: "1988-04-12",
		Gender:    "female",
		CPF:       "123.456.789-09",
		Phone:     "(11) 98765-4321",
		Email:     "ana.silva@example.com",
		Address: &database.Address{
			Street:       "Rua das Flores",
			Number:       "120",
			Neighborhood: "Centro",
			City:         "São Paulo",
			State:        "SP",
			ZipCode:      "01001-000",
		},
		Observations: "Allergic to penicillin",
	}
}

// demoChart is the chart saved for the demo patient.
func demoChart() chart.State {
	st := chart.State{}
	st.SetCondition("18", chart.Top, chart.Caries)
	st.SetCondition("18", chart.Right, chart.Extraction)
	st.SetNotes("18", "Extraction recommended")
	st.SetCondition("26", chart.Center, chart.Restoration)
	st.SetCondition("36", chart.Top, chart.RootCanal)
	st.SetCondition("47", chart.Center, chart.Crown)
	return st
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo patient with a sample chart and a visit today",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p := demoPatient()
			if err := store.InsertPatient(p); err != nil {
				return err
			}
			if _, err := store.SaveChart(database.ChartSave{
				PatientID: p.PatientID,
				Revision:  1,
				State:     demoChart(),
				SavedBy:   "seed",
			}); err != nil {
				return err
			}
			if err := store.InsertAppointment(&database.Appointment{
				PatientID: p.PatientID,
				Date:      time.Now().Format("2006-01-02"),
				Time:      "14:00",
				Duration:  60,
				Type:      database.TypeTreatment,
				Notes:     "Extraction of 18",
			}); err != nil {
				return err
			}
			a.logger.Info("demo patient created", zap.String("patient_id", p.PatientID))

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", p.Name, p.PatientID)
			fmt.Fprintf(cmd.OutOrStdout(), "Open it with: odonto-tui --patient %s\n", p.PatientID)
			return nil
		},
	}
}
