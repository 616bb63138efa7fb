package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
)

// renderHeader produces the top bar:
//
//	ODONTO  |  Ana Silva  |  rev 3  |  dentist@clinic.com (Dentist)
func renderHeader(m *Model) string {
	brand := headerBrandStyle.Render("ODONTO")
	sep := headerSepStyle.Render(" │ ")

	var parts []string
	parts = append(parts, brand)

	if m.screen == ScreenChart && m.chart != nil {
		cv := m.chart
		parts = append(parts, sep)
		parts = append(parts, headerMetaStyle.Render(cv.patient.Name))
		parts = append(parts, sep)
		parts = append(parts, headerMetaStyle.Render(fmt.Sprintf("rev %d", cv.revision)))
	} else {
		parts = append(parts, sep)
		parts = append(parts, headerMetaStyle.Render("Patients"))
	}

	parts = append(parts, sep)
	if m.session != nil {
		parts = append(parts, headerMetaStyle.Render(
			fmt.Sprintf("%s (%s)", m.session.Email, m.session.Role.Label())))
	} else {
		parts = append(parts, headerMetaStyle.Render("not signed in"))
	}

	content := strings.Join(parts, "")

	return headerBarStyle.Width(m.width).Render(content)
}

// renderFooter produces the bottom status bar with keyboard hints.
func renderFooter(m *Model) string {
	var left, right string

	switch {
	case m.searchMode:
		cursor := searchCursorStyle.Render(" ")
		left = searchBarStyle.Render(fmt.Sprintf("/ %s%s", m.searchQuery, cursor))
		right = renderHints([]hint{
			{"enter", "done"},
			{"esc", "clear"},
		})

	case m.screen == ScreenPatients || m.chart == nil:
		left = renderStatus(m)
		right = renderHints([]hint{
			{"↑↓", "navigate"},
			{"enter", "open chart"},
			{"/", "search"},
			{"q", "quit"},
		})

	default:
		left = renderStatus(m)
		switch m.chart.container.Editor().State() {
		case chart.EditorActions:
			right = renderHints([]hint{
				{"↑↓", "choose"},
				{"enter", "apply"},
				{"1-5", "quick"},
				{"0", "none"},
				{"tab", "notes"},
				{"esc", "close"},
			})
		case chart.EditorNotes:
			right = renderHints([]hint{
				{"ctrl+s", "save notes"},
				{"tab", "actions"},
				{"esc", "discard"},
			})
		default:
			hints := []hint{
				{"←↑→↓", "tooth"},
				{"wasdc", "surface"},
				{"enter", "edit"},
				{"m", "dentition"},
			}
			switch {
			case m.chart.stale:
				hints = append(hints, hint{"R", "reload"})
			case m.chart.saveErr != nil:
				hints = append(hints, hint{"r", "retry save"})
			}
			hints = append(hints, hint{"esc", "patients"}, hint{"q", "quit"})
			right = renderHints(hints)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().
		Background(colorBgSurface).
		Width(m.width).
		Render(bar)
}

// renderStatus shows the status message. A failed save stays visible
// until it is retried or a later save succeeds.
func renderStatus(m *Model) string {
	if cv := m.chart; cv != nil && m.screen == ScreenChart {
		switch {
		case cv.stale:
			return statusErrorStyle.Render("Chart changed elsewhere, press R to reload")
		case cv.saveErr != nil:
			return statusErrorStyle.Render(truncate(fmt.Sprintf("Save failed: %v (r to retry)", cv.saveErr), maxInt(m.width/2, 20)))
		case cv.pending > 0:
			return statusPendingStyle.Render(fmt.Sprintf("Saving... %s", m.statusMsg))
		case !cv.lastSaved.IsZero() && m.statusMsg == "":
			return statusOkStyle.Render("All changes saved")
		}
	}
	if m.err != nil {
		return statusErrorStyle.Render(m.statusMsg)
	}
	if m.statusMsg == "" {
		return ""
	}
	return statusStyle.Render(m.statusMsg)
}

type hint struct {
	key  string
	desc string
}

func renderHints(hints []hint) string {
	var parts []string
	for _, h := range hints {
		parts = append(parts,
			hintKeyStyle.Render(h.key)+" "+hintDescStyle.Render(h.desc))
	}
	return strings.Join(parts, hintDescStyle.Render("  "))
}
