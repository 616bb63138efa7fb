package tui

import (
	"fmt"
	"strings"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
)

// renderEditor renders the surface editor: a tab bar, then either the
// condition choices or the notes textarea.
func renderEditor(m *Model, width, height int) string {
	editor := m.chart.container.Editor()

	if !editor.IsOpen() {
		title := panelTitleDimStyle.Render("Surface Editor")
		return title + "\n\n" +
			dimStyle.Render("Move with the arrow keys, pick a surface with w/a/s/d/c\n"+
				"and press enter, or click a surface with the mouse.")
	}

	tooth, surface := editor.Target()
	var lines []string

	lines = append(lines, renderTabs(editor.State()))
	lines = append(lines, "")
	lines = append(lines, detailRow("Tooth", string(tooth)))
	lines = append(lines, detailRow("Surface", fmt.Sprintf("%s (%s)", surface.Label(), surface)))

	if editor.State() == chart.EditorNotes {
		lines = append(lines, "")
		lines = append(lines, m.notes.View())
		if editor.Draft() != m.chart.container.View().Notes(tooth) {
			lines = append(lines, dimStyle.Render("unsaved draft"))
		}
	} else {
		current := m.chart.container.View().Condition(tooth, surface)
		lines = append(lines, detailRow("Current", current.Label()))
		lines = append(lines, "")

		for i, opt := range actionOptions() {
			lines = append(lines, renderOption(i, opt, current, i == m.selectedAction, width))
		}
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func renderTabs(state chart.EditorState) string {
	actions, notes := tabInactiveStyle, tabInactiveStyle
	if state == chart.EditorNotes {
		notes = tabActiveStyle
	} else {
		actions = tabActiveStyle
	}
	return actions.Render("Actions") + " " + notes.Render("Notes")
}

// renderOption renders one condition choice. Choosing the current code
// again clears it, so that row says so.
func renderOption(i int, opt, current chart.Condition, selected bool, width int) string {
	key := fmt.Sprintf("%d", i+1)
	if opt == chart.None {
		key = "0"
	}

	swatch := "  "
	if opt != chart.None {
		swatch = conditionStyle(opt).Render("██")
	}

	label := opt.Label()
	switch {
	case opt == chart.None:
		label = "None (clear)"
	case opt == current:
		label += " (current, select to clear)"
	case opt.Scope() == chart.ScopeWholeTooth:
		label += " (whole tooth)"
	}
	label = truncate(label, maxInt(width-8, 10))

	if selected {
		return swatch + " " + optionSelectedStyle.Render(fmt.Sprintf(" %s %s ", key, label))
	}
	return swatch + " " + optionStyle.Render(fmt.Sprintf(" %s %s ", key, label))
}

// renderEditorPanel wraps the editor in a styled panel.
func renderEditorPanel(m *Model, width, height int) string {
	content := renderEditor(m, width-4, height-2)

	style := panelStyle
	if m.chart.container.Editor().IsOpen() {
		style = panelActiveStyle
	}
	return style.Width(width).Height(height).Render(content)
}

// renderToothDetail shows every surface of the tooth under the cursor,
// its stored and effective condition, and its notes.
func renderToothDetail(m *Model, width, height int) string {
	cursor := m.cursorRegion()
	st := m.chart.container.View()
	rec := st[cursor.Tooth]

	var lines []string
	lines = append(lines, panelTitleDimStyle.Render(fmt.Sprintf("Tooth %s", cursor.Tooth)))
	lines = append(lines, "")

	if wt := rec.WholeTooth(); wt != chart.None {
		lines = append(lines, detailRow("Whole tooth", wt.Label()))
	}

	for _, s := range chart.Surfaces() {
		stored := st.Condition(cursor.Tooth, s)
		effective := st.EffectiveCondition(cursor.Tooth, s)

		value := effective.Label()
		if stored != effective && stored != chart.None {
			value += dimStyle.Render(fmt.Sprintf(" (stored: %s)", stored.Label()))
		}
		mark := "  "
		if s == cursor.Surface {
			mark = "› "
		}
		lines = append(lines, mark+conditionStyle(effective).Render("██")+" "+
			detailLabelStyle.Render(fmt.Sprintf("%-9s", s.Label()))+" "+detailValueStyle.Render(value))
	}

	lines = append(lines, "")
	lines = append(lines, detailSectionStyle.Render("Notes"))
	if rec.Notes == "" {
		lines = append(lines, dimStyle.Render("none"))
	} else {
		for _, l := range strings.Split(rec.Notes, "\n") {
			lines = append(lines, detailValueStyle.Render(truncate(l, width)))
		}
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// renderToothPanel wraps the tooth detail in a styled panel.
func renderToothPanel(m *Model, width, height int) string {
	content := renderToothDetail(m, width-4, height-2)
	return panelStyle.Width(width).Height(height).Render(content)
}

// ── helpers ──

func detailRow(label, value string) string {
	return detailLabelStyle.Render(label) + "  " + detailValueStyle.Render(value)
}
