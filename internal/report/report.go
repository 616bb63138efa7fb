// Package report summarizes an odontogram.
//
// A report counts conditions by code, lists teeth whose whole-tooth
// condition overrides their surfaces, flags teeth that carry more than
// one whole-tooth code, and collects the clinical notes. Reports built
// from the store also list the patient's attachments and upcoming
// appointments. FormatReport renders it as markdown for `odonto report`.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/pkg/timeutil"
)

// Analyzer builds reports from stored charts.
type Analyzer struct {
	store database.Store
}

// NewAnalyzer creates an analyzer backed by the given store.
func NewAnalyzer(store database.Store) *Analyzer {
	return &Analyzer{store: store}
}

// ConditionCount is the number of surfaces carrying one code.
type ConditionCount struct {
	Condition chart.Condition `json:"condition"`
	Label     string          `json:"label"`
	Surfaces  int             `json:"surfaces"`
	Teeth     int             `json:"teeth"`
}

// WholeToothFinding is a tooth whose whole-tooth code governs every surface.
type WholeToothFinding struct {
	Tooth     chart.ToothID   `json:"tooth"`
	Condition chart.Condition `json:"condition"`
	Surface   chart.Surface   `json:"surface"` // where the governing code is stored
}

// Conflict is a tooth carrying more than one distinct whole-tooth code.
// Effective is the one the chart displays.
type Conflict struct {
	Tooth     chart.ToothID     `json:"tooth"`
	Codes     []chart.Condition `json:"codes"`
	Effective chart.Condition   `json:"effective"`
}

// ToothNote is a tooth's clinical note.
type ToothNote struct {
	Tooth chart.ToothID `json:"tooth"`
	Notes string        `json:"notes"`
}

// Report is the output of `odonto report`.
type Report struct {
	PatientID   string              `json:"patient_id"`
	PatientName string              `json:"patient_name"`
	Revision    int64               `json:"revision"`
	SavedAt     int64               `json:"saved_at"`
	GeneratedAt string              `json:"generated_at"`
	Teeth       int                 `json:"teeth"` // teeth with any data
	Counts      []ConditionCount    `json:"counts"`
	Unknown     []string            `json:"unknown,omitempty"` // unrecognized codes, verbatim
	WholeTooth  []WholeToothFinding `json:"whole_tooth"`
	Conflicts   []Conflict          `json:"conflicts"`
	Notes       []ToothNote         `json:"notes"`
	Warnings    []string            `json:"warnings"`

	Attachments  []*database.Document    `json:"attachments,omitempty"`
	Appointments []*database.Appointment `json:"appointments,omitempty"` // upcoming, soonest first
}

// FullAnalysis loads a patient's chart and summarizes it.
func (a *Analyzer) FullAnalysis(patientID string) (*Report, error) {
	patient, err := a.store.GetPatient(patientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}
	rec, err := a.store.LoadChart(patientID)
	if err != nil {
		return nil, fmt.Errorf("loading chart: %w", err)
	}

	docs, err := a.store.ListDocuments(database.DocumentFilter{PatientID: patientID})
	if err != nil {
		return nil, fmt.Errorf("loading attachments: %w", err)
	}
	now := time.Now()
	var upcoming []*database.Appointment
	appts, err := a.store.ListAppointments(database.AppointmentFilter{
		PatientID: patientID,
		From:      now.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("loading appointments: %w", err)
	}
	for _, appt := range appts {
		if appt.Status == database.StatusScheduled || appt.Status == database.StatusConfirmed {
			upcoming = append(upcoming, appt)
		}
	}

	r := Summarize(rec.State)
	r.PatientID = patient.PatientID
	r.PatientName = patient.Name
	r.Revision = rec.Revision
	r.SavedAt = rec.SavedAt
	r.GeneratedAt = now.Format(time.RFC3339)
	r.Attachments = docs
	r.Appointments = upcoming
	return r, nil
}

// Summarize computes the chart-only parts of a report.
func Summarize(st chart.State) *Report {
	r := &Report{}

	surfaces := make(map[chart.Condition]int)
	teeth := make(map[chart.Condition]map[chart.ToothID]bool)
	unknown := make(map[string]bool)

	for _, id := range st.Teeth() {
		rec := st[id]
		if rec.IsEmpty() {
			continue
		}
		r.Teeth++

		for _, code := range rec.Surfaces {
			if code == chart.None {
				continue
			}
			if !code.Known() {
				unknown[string(code)] = true
				continue
			}
			surfaces[code]++
			if teeth[code] == nil {
				teeth[code] = make(map[chart.ToothID]bool)
			}
			teeth[code][id] = true
		}

		if code := rec.WholeTooth(); code != chart.None {
			r.WholeTooth = append(r.WholeTooth, WholeToothFinding{
				Tooth:     id,
				Condition: code,
				Surface:   governingSurface(rec, code),
			})
		}
		if codes := wholeToothCodes(rec); len(codes) > 1 {
			r.Conflicts = append(r.Conflicts, Conflict{
				Tooth:     id,
				Codes:     codes,
				Effective: rec.WholeTooth(),
			})
		}
		if rec.Notes != "" {
			r.Notes = append(r.Notes, ToothNote{Tooth: id, Notes: rec.Notes})
		}
	}

	for _, code := range chart.Conditions() {
		if surfaces[code] == 0 {
			continue
		}
		r.Counts = append(r.Counts, ConditionCount{
			Condition: code,
			Label:     code.Label(),
			Surfaces:  surfaces[code],
			Teeth:     len(teeth[code]),
		})
	}

	for code := range unknown {
		r.Unknown = append(r.Unknown, code)
	}
	sort.Strings(r.Unknown)

	for _, c := range r.Conflicts {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("Tooth %s has conflicting whole-tooth conditions %s; %s is shown.",
				c.Tooth, joinCodes(c.Codes), c.Effective.Label()))
	}
	if len(r.Unknown) > 0 {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("Unrecognized condition codes kept as-is: %s.", strings.Join(r.Unknown, ", ")))
	}
	return r
}

// governingSurface returns the surface the effective whole-tooth code
// comes from.
func governingSurface(rec chart.ToothRecord, code chart.Condition) chart.Surface {
	for _, s := range chart.Surfaces() {
		if rec.Surfaces[s] == code {
			return s
		}
	}
	return ""
}

// wholeToothCodes returns the distinct whole-tooth codes of a tooth in
// canonical surface order.
func wholeToothCodes(rec chart.ToothRecord) []chart.Condition {
	seen := make(map[chart.Condition]bool)
	var codes []chart.Condition
	for _, s := range chart.Surfaces() {
		code := rec.Surfaces[s]
		if code.Scope() != chart.ScopeWholeTooth || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

func joinCodes(codes []chart.Condition) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// FormatReport renders a report as markdown.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("# Odontogram Report\n\n")
	if r.PatientName != "" {
		b.WriteString(fmt.Sprintf("**Patient:** %s (`%s`)\n", r.PatientName, r.PatientID))
	}
	b.WriteString(fmt.Sprintf("**Revision:** %d, saved %s\n", r.Revision, timeutil.FormatStamp(r.SavedAt)))
	if r.GeneratedAt != "" {
		b.WriteString(fmt.Sprintf("**Generated:** %s\n", r.GeneratedAt))
	}
	b.WriteString("\n")

	b.WriteString("## Conditions\n\n")
	if len(r.Counts) == 0 {
		b.WriteString("No conditions recorded.\n\n")
	} else {
		b.WriteString("| Condition | Surfaces | Teeth |\n")
		b.WriteString("|-----------|----------|-------|\n")
		for _, c := range r.Counts {
			b.WriteString(fmt.Sprintf("| %s | %d | %d |\n", c.Label, c.Surfaces, c.Teeth))
		}
		b.WriteString("\n")
	}

	if len(r.WholeTooth) > 0 {
		b.WriteString("## Whole-tooth Findings\n\n")
		for _, f := range r.WholeTooth {
			b.WriteString(fmt.Sprintf("- Tooth %s: %s (recorded on %s)\n", f.Tooth, f.Condition.Label(), f.Surface.Label()))
		}
		b.WriteString("\n")
	}

	if len(r.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range r.Notes {
			b.WriteString(fmt.Sprintf("- **%s:** %s\n", n.Tooth, n.Notes))
		}
		b.WriteString("\n")
	}

	if len(r.Appointments) > 0 {
		b.WriteString("## Upcoming Appointments\n\n")
		for _, appt := range r.Appointments {
			b.WriteString(fmt.Sprintf("- %s %s: %s, %d min (%s)\n",
				appt.Date, appt.Time, appt.Type, appt.Duration, appt.Status))
		}
		b.WriteString("\n")
	}

	if len(r.Attachments) > 0 {
		b.WriteString("## Attachments\n\n")
		for _, d := range r.Attachments {
			line := fmt.Sprintf("- %s (%s, %s)", d.Title, d.FileName, humanize.Bytes(uint64(d.FileSize)))
			if d.Tooth != "" {
				line += fmt.Sprintf(", tooth %s", d.Tooth)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			b.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return b.String()
}
