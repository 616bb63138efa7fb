package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/pkg/timeutil"
)

func (a *app) patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patients",
		Aliases: []string{"patient", "p"},
		Short:   "Browse and register patients",
	}
	cmd.AddCommand(a.patientsListCmd())
	cmd.AddCommand(a.patientsAddCmd())
	return cmd
}

func (a *app) patientsListCmd() *cobra.Command {
	var name string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patients by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			filter := database.PatientFilter{Limit: limit}
			if name != "" {
				filter.Name = &name
			}
			patients, err := store.ListPatients(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(patients) == 0 {
				fmt.Fprintln(out, "No patients found. Add one with `odonto patients add` or load the demo with `odonto seed`.")
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tAGE\tPHONE\tCREATED")
			for _, p := range patients {
				age := "-"
				if n := timeutil.Age(p.BirthDate, now); n >= 0 {
					age = fmt.Sprintf("%d", n)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.PatientID, p.Name, age, orDash(p.Phone), timeutil.FormatStamp(p.CreatedAt))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Filter by name (case-insensitive substring)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of patients")
	return cmd
}

func (a *app) patientsAddCmd() *cobra.Command {
	var p database.Patient
	var addr database.Address

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(p.Name) == "" {
				return errors.New("--name is required")
			}
			if p.BirthDate != "" {
				if _, err := time.Parse("2006-01-02", p.BirthDate); err != nil {
					return fmt.Errorf("--birth must be YYYY-MM-DD: %w", err)
				}
			}
			if addr != (database.Address{}) {
				address := addr
				p.Address = &address
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InsertPatient(&p); err != nil {
				return err
			}
			a.logger.Info("patient added", zap.String("patient_id", p.PatientID))
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", p.Name, p.PatientID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "Full name (required)")
	f.StringVar(&p.BirthDate, "birth", "", "Birth date, YYYY-MM-DD")
	f.StringVar(&p.Gender, "gender", "", "Gender: male, female or other")
	f.StringVar(&p.CPF, "cpf", "", "CPF number")
	f.StringVar(&p.Phone, "phone", "", "Phone number")
	f.StringVar(&p.Email, "email", "", "Email address")
	f.StringVar(&p.Observations, "obs", "", "Observations")
	f.StringVar(&addr.Street, "street", "", "Street")
	f.StringVar(&addr.Number, "number", "", "Street number")
	f.StringVar(&addr.Neighborhood, "neighborhood", "", "Neighborhood")
	f.StringVar(&addr.City, "city", "", "City")
	f.StringVar(&addr.State, "state", "", "State")
	f.StringVar(&addr.ZipCode, "zip", "", "Zip code")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
