package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/session"
	"github.com/Mr-Dark-debug/odonto/pkg/jsonutil"
)

func (a *app) appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appointment", "appt"},
		Short:   "Schedule visits and track their status",
	}
	cmd.AddCommand(a.appointmentsListCmd())
	cmd.AddCommand(a.appointmentsAddCmd())
	cmd.AddCommand(a.appointmentsStatusCmd())
	return cmd
}

func (a *app) appointmentsListCmd() *cobra.Command {
	var filter database.AppointmentFilter
	var date, status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments by date and time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				day, err := parseDay(date)
				if err != nil {
					return err
				}
				filter.From, filter.To = day, day
			}
			if status != "" {
				filter.Status = database.AppointmentStatus(status)
				if !filter.Status.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			appts, err := store.ListAppointments(filter)
			if err != nil {
				return err
			}
			if asJSON {
				return jsonutil.Write(cmd.OutOrStdout(), appts)
			}
			return printAppointments(cmd.OutOrStdout(), appts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.PatientID, "patient", "", "Only this patient's appointments")
	f.StringVar(&date, "date", "", `One day, YYYY-MM-DD or "today"`)
	f.StringVar(&filter.From, "from", "", "First day, YYYY-MM-DD")
	f.StringVar(&filter.To, "to", "", "Last day, YYYY-MM-DD")
	f.StringVar(&status, "status", "", "scheduled, confirmed, completed or cancelled")
	f.IntVar(&filter.Limit, "limit", 100, "Maximum number of appointments")
	f.BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func (a *app) appointmentsAddCmd() *cobra.Command {
	var appt database.Appointment
	var date, typ string

	cmd := &cobra.Command{
		Use:   "add <patient-id>",
		Short: "Schedule an appointment",
		Long: `Schedules an appointment for a patient.

Types: consultation, cleaning, treatment, surgery, emergency.
The dentist defaults to the signed-in user when they are a dentist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.requireSession()
			if err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}

			appt.PatientID = args[0]
			appt.Date = day
			appt.Type = database.AppointmentType(typ)
			if appt.DentistName == "" && sess.Role == session.RoleDentist {
				appt.DentistName = sess.Name
				appt.DentistEmail = sess.Email
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.InsertAppointment(&appt); err != nil {
				return err
			}
			a.logger.Info("appointment scheduled",
				zap.String("appointment_id", appt.AppointmentID), zap.String("patient_id", appt.PatientID),
				zap.String("by", sess.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s %s %s (%s)\n", appt.Type, appt.Date, appt.Time, appt.AppointmentID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&date, "date", "", `Day, YYYY-MM-DD or "today" (required)`)
	f.StringVar(&appt.Time, "time", "", "Start time, HH:MM (required)")
	f.IntVar(&appt.Duration, "duration", 30, "Length in minutes")
	f.StringVar(&typ, "type", string(database.TypeConsultation), "Visit type")
	f.StringVar(&appt.DentistName, "dentist", "", "Dentist name")
	f.StringVar(&appt.Notes, "notes", "", "Notes")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func (a *app) appointmentsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <appointment-id> <scheduled|confirmed|completed|cancelled>",
		Short: "Change an appointment's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.requireSession()
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			status := database.AppointmentStatus(args[1])
			if err := store.UpdateAppointmentStatus(args[0], status); err != nil {
				return err
			}
			a.logger.Info("appointment status changed",
				zap.String("appointment_id", args[0]), zap.String("status", args[1]), zap.String("by", sess.Email))
			fmt.Fprintf(cmd.OutOrStdout(), "Appointment %s is now %s\n", args[0], status)
			return nil
		},
	}
}

func printAppointments(out io.Writer, appts []*database.Appointment) error {
	if len(appts) == 0 {
		fmt.Fprintln(out, "No appointments found")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tMIN\tPATIENT\tTYPE\tSTATUS\tDENTIST\tID")
	for _, appt := range appts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			appt.Date, appt.Time, appt.Duration, appt.PatientName, appt.Type, appt.Status,
			orDash(appt.DentistName), appt.AppointmentID)
	}
	return w.Flush()
}

// parseDay accepts YYYY-MM-DD or "today".
func parseDay(s string) (string, error) {
	if s == "today" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("date %q must be YYYY-MM-DD or today", s)
	}
	return s, nil
}
