package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
)

// ────────────────────────────────────────────────────────────
// Chart geometry
// ────────────────────────────────────────────────────────────
//
// Each tooth is a 5x3 cell split into five regions:
//
//	 ▄▄▄      top
//	▐███▌     left, center, right
//	 ▀▀▀      bottom
//
// Rows, relative to the chart origin:
//
//	0     upper labels
//	1-3   upper arch
//	4     midline
//	5-7   lower arch
//	8     lower labels
//
// The renderer and hitTest share these constants, so a mouse click
// lands on the region that was drawn under it.

const (
	toothWidth  = 5
	toothGap    = 1
	quadrantGap = 3 // " │ "

	rowUpperLabel = 0
	rowUpperTop   = 1
	rowMidline    = 4
	rowLowerTop   = 5
	rowLowerLabel = 8
	chartHeight   = 9
)

// toothX returns the column where tooth i of an arch of perRow teeth
// starts.
func toothX(i, perRow int) int {
	x := i * (toothWidth + toothGap)
	if i >= perRow/2 {
		x += quadrantGap - toothGap
	}
	return x
}

// chartWidth returns the rendered width of an arch of perRow teeth.
func chartWidth(perRow int) int {
	return toothX(perRow-1, perRow) + toothWidth
}

// hitTest maps a position relative to the chart origin to a region.
func hitTest(d chart.Dentition, x, y int) (chart.Region, bool) {
	q := chart.Layout(d)

	var arch []chart.ToothID
	var row int
	switch {
	case y >= rowUpperTop && y < rowUpperTop+3:
		arch, row = q.Upper(), y-rowUpperTop
	case y >= rowLowerTop && y < rowLowerTop+3:
		arch, row = q.Lower(), y-rowLowerTop
	default:
		return chart.Region{}, false
	}

	for i, tooth := range arch {
		dx := x - toothX(i, len(arch))
		if dx < 0 || dx >= toothWidth {
			continue
		}
		if s, ok := surfaceAt(row, dx); ok {
			return chart.Region{Tooth: tooth, Surface: s}, true
		}
		return chart.Region{}, false
	}
	return chart.Region{}, false
}

// surfaceAt maps a row and column inside a tooth cell to a surface.
// Cell corners belong to no surface.
func surfaceAt(row, dx int) (chart.Surface, bool) {
	inner := dx >= 1 && dx <= 3
	switch {
	case row == 0 && inner:
		return chart.Top, true
	case row == 2 && inner:
		return chart.Bottom, true
	case row == 1 && dx == 0:
		return chart.Left, true
	case row == 1 && inner:
		return chart.Center, true
	case row == 1 && dx == 4:
		return chart.Right, true
	}
	return "", false
}

// regionPoint returns a position inside r, relative to the chart
// origin. ok is false when the tooth is not part of d.
func regionPoint(d chart.Dentition, r chart.Region) (x, y int, ok bool) {
	q := chart.Layout(d)
	for archIdx, arch := range [][]chart.ToothID{q.Upper(), q.Lower()} {
		for i, tooth := range arch {
			if tooth != r.Tooth {
				continue
			}
			top := rowUpperTop
			if archIdx == 1 {
				top = rowLowerTop
			}
			x = toothX(i, len(arch))
			switch r.Surface {
			case chart.Top:
				return x + 2, top, true
			case chart.Bottom:
				return x + 2, top + 2, true
			case chart.Left:
				return x, top + 1, true
			case chart.Right:
				return x + 4, top + 1, true
			default:
				return x + 2, top + 1, true
			}
		}
	}
	return 0, 0, false
}

// ────────────────────────────────────────────────────────────
// Rendering
// ────────────────────────────────────────────────────────────

// renderOdontogram draws both arches of the dentition d. cursor is the
// highlighted region; its tooth label is emphasized.
func renderOdontogram(st chart.State, d chart.Dentition, cursor chart.Region) string {
	q := chart.Layout(d)
	upper, lower := q.Upper(), q.Lower()

	var lines []string
	lines = append(lines, renderLabels(upper, cursor.Tooth))
	lines = append(lines, renderArch(st, upper, cursor)...)
	lines = append(lines, quadrantSepStyle.Render(renderMidline(len(upper))))
	lines = append(lines, renderArch(st, lower, cursor)...)
	lines = append(lines, renderLabels(lower, cursor.Tooth))
	return strings.Join(lines, "\n")
}

func renderMidline(perRow int) string {
	half := toothX(perRow/2, perRow) - quadrantGap + 1
	return strings.Repeat("─", half) + "┼" + strings.Repeat("─", chartWidth(perRow)-half-1)
}

func renderLabels(arch []chart.ToothID, active chart.ToothID) string {
	var b strings.Builder
	for i, tooth := range arch {
		b.WriteString(separator(i, len(arch), "   "))
		label := lipgloss.PlaceHorizontal(toothWidth, lipgloss.Center, string(tooth))
		if tooth == active {
			b.WriteString(toothLabelActiveStyle.Render(label))
		} else {
			b.WriteString(toothLabelStyle.Render(label))
		}
	}
	return b.String()
}

// renderArch returns the three body rows of one arch.
func renderArch(st chart.State, arch []chart.ToothID, cursor chart.Region) []string {
	var rows [3]strings.Builder
	for i, tooth := range arch {
		sep := separator(i, len(arch), quadrantSepStyle.Render(" │ "))
		for r := range rows {
			rows[r].WriteString(sep)
		}

		region := func(s chart.Surface, glyph string) string {
			style := conditionStyle(st.EffectiveCondition(tooth, s))
			if cursor.Tooth == tooth && cursor.Surface == s {
				style = style.Background(colorHighlight)
			}
			return style.Render(glyph)
		}

		rows[0].WriteString(" " + region(chart.Top, "▄▄▄") + " ")
		rows[1].WriteString(region(chart.Left, "▐") + region(chart.Center, "███") + region(chart.Right, "▌"))
		rows[2].WriteString(" " + region(chart.Bottom, "▀▀▀") + " ")
	}
	return []string{rows[0].String(), rows[1].String(), rows[2].String()}
}

// separator returns what goes before tooth i: nothing for the first,
// the quadrant divider at the midpoint, a single space otherwise.
func separator(i, perRow int, divider string) string {
	switch {
	case i == 0:
		return ""
	case i == perRow/2:
		return divider
	default:
		return " "
	}
}

// renderLegend lists every known condition with its swatch. Whole-tooth
// codes are marked with an asterisk.
func renderLegend() string {
	var parts []string
	for _, e := range chart.Legend() {
		label := e.Label
		if e.Condition.Scope() == chart.ScopeWholeTooth {
			label += "*"
		}
		parts = append(parts, conditionStyle(e.Condition).Render("██")+" "+detailValueStyle.Render(label))
	}
	return strings.Join(parts, "  ") + "   " + dimStyle.Render("* whole tooth")
}

// renderChartPanel wraps the odontogram and legend in a panel.
func renderChartPanel(m *Model, width, height int) string {
	cv := m.chart
	title := panelTitleStyle.Render("Odontogram") +
		dimStyle.Render(fmt.Sprintf("  %s dentition", cv.container.Dentition()))

	cursor := m.cursorRegion()
	content := title + "\n\n" +
		renderOdontogram(cv.container.View(), cv.container.Dentition(), cursor) + "\n\n" +
		renderLegend()

	style := panelStyle
	if !cv.container.Editor().IsOpen() {
		style = panelActiveStyle
	}
	return style.Width(width).Height(height).Render(content)
}
