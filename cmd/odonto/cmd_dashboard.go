package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/session"
)

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the patient count and today's schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			sess, err := a.sessions().Load()
			switch {
			case errors.Is(err, session.ErrNoSession):
				fmt.Fprintln(out, "Not signed in")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Signed in as %s (%s)\n", sess.Name, sess.Role.Label())
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			patients, err := store.CountPatients()
			if err != nil {
				return err
			}
			today := time.Now().Format("2006-01-02")
			appts, err := store.ListAppointments(database.AppointmentFilter{From: today, To: today})
			if err != nil {
				return err
			}
			open := 0
			for _, appt := range appts {
				if appt.Status == database.StatusScheduled || appt.Status == database.StatusConfirmed {
					open++
				}
			}

			fmt.Fprintf(out, "Patients: %d\n", patients)
			fmt.Fprintf(out, "Appointments today (%s): %d, %d still open\n\n", today, len(appts), open)
			return printAppointments(out, appts)
		},
	}
}
