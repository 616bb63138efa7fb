package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/odonto/pkg/timeutil"
)

// renderPatientList renders the patient selection screen.
func renderPatientList(m *Model) string {
	if len(m.patients) == 0 {
		msg := "No patients found.\n\n" +
			"Add one with `odonto patients add` or load the demo\n" +
			"patient with `odonto seed`."
		if m.searchQuery != "" {
			msg = fmt.Sprintf("No patients match %q.", m.searchQuery)
		}
		return lipgloss.Place(
			m.width,
			m.height-3, // minus header + footer
			lipgloss.Center,
			lipgloss.Center,
			emptyStateStyle.Render(msg),
		)
	}

	title := panelTitleStyle.Render("Patients")
	count := dimStyle.Render(fmt.Sprintf("  %d total", len(m.patients)))
	if m.searchQuery != "" {
		count += dimStyle.Render(fmt.Sprintf("  matching %q", m.searchQuery))
	}

	var lines []string
	lines = append(lines, title+count)
	lines = append(lines, "")

	// Visible range for scrolling
	maxVisible := maxInt(m.height-6, 5)

	startIdx := 0
	if m.selectedPatient >= maxVisible {
		startIdx = m.selectedPatient - maxVisible + 1
	}
	endIdx := startIdx + maxVisible
	if endIdx > len(m.patients) {
		endIdx = len(m.patients)
	}

	now := time.Now()
	nameWidth := maxInt(m.width/3, 16)
	for i := startIdx; i < endIdx; i++ {
		p := m.patients[i]

		age := "   "
		if a := timeutil.Age(p.BirthDate, now); a >= 0 {
			age = fmt.Sprintf("%2dy", a)
		}
		name := fmt.Sprintf("%-*s", nameWidth, truncate(p.Name, nameWidth))
		meta := dimStyle.Render(fmt.Sprintf("%s  %-14s  %s",
			shortID(p.PatientID, 8), p.Phone, timeutil.FormatStamp(p.CreatedAt)))

		content := fmt.Sprintf("%s  %s  %s", name, age, meta)

		if i == m.selectedPatient {
			lines = append(lines, itemSelectedStyle.Width(m.width-4).Render(content))
		} else {
			lines = append(lines, itemStyle.Width(m.width-4).Render(content))
		}
	}

	return strings.Join(lines, "\n")
}
