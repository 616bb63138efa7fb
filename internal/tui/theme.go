package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
)

// ────────────────────────────────────────────────────────────
// Color Palette
// ────────────────────────────────────────────────────────────
//
// All UI colors are defined here. Condition colors are not: they come
// from chart.Legend() so the chart and its legend always agree.

var (
	// Base
	colorBg        = lipgloss.Color("#0d1117")
	colorBgSurface = lipgloss.Color("#1c2128")

	// Text
	colorText      = lipgloss.Color("#e6edf3")
	colorTextDim   = lipgloss.Color("#8b949e")
	colorTextMuted = lipgloss.Color("#484f58")

	// Accents
	colorBlue   = lipgloss.Color("#58a6ff")
	colorGreen  = lipgloss.Color("#3fb950")
	colorRed    = lipgloss.Color("#f85149")
	colorYellow = lipgloss.Color("#d29922")

	// Structural
	colorDivider   = lipgloss.Color("#30363d")
	colorHighlight = lipgloss.Color("#1f6feb")

	// Tooth surface with no recognized condition
	colorSurfaceEmpty = lipgloss.Color("#c9d1d9")
)

// ────────────────────────────────────────────────────────────
// Component Styles
// ────────────────────────────────────────────────────────────

// Header bar
var (
	headerBarStyle = lipgloss.NewStyle().
			Background(colorBgSurface).
			Foreground(colorText).
			Padding(0, 1)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBlue)

	headerSepStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)
)

// Panel chrome
var (
	panelStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(colorDivider)

	panelActiveStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.NormalBorder(), true, false, false, false).
				BorderForeground(colorBlue)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	panelTitleDimStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted).
				Bold(true)
)

// Chart
var (
	toothLabelStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	toothLabelActiveStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true)

	surfaceEmptyStyle = lipgloss.NewStyle().
				Foreground(colorSurfaceEmpty)

	quadrantSepStyle = lipgloss.NewStyle().
				Foreground(colorDivider)

	// conditionStyles is filled from the chart legend.
	conditionStyles = buildConditionStyles()
)

func buildConditionStyles() map[chart.Condition]lipgloss.Style {
	styles := make(map[chart.Condition]lipgloss.Style)
	for _, e := range chart.Legend() {
		styles[e.Condition] = lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color))
	}
	return styles
}

// conditionStyle returns the surface style for code. None and
// unrecognized codes get the plain surface style.
func conditionStyle(code chart.Condition) lipgloss.Style {
	if s, ok := conditionStyles[code]; ok {
		return s
	}
	return surfaceEmptyStyle
}

// Editor + detail
var (
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorBlue)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(colorText)

	detailSectionStyle = lipgloss.NewStyle().
				Foreground(colorDivider)

	tabActiveStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorHighlight).
			Bold(true).
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(colorTextDim).
				Padding(0, 1)

	optionStyle = lipgloss.NewStyle().
			Foreground(colorText)

	optionSelectedStyle = lipgloss.NewStyle().
				Background(colorHighlight).
				Foreground(colorText).
				Bold(true)
)

// Footer / status bar
var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Background(colorBgSurface).
				Bold(true).
				Padding(0, 1)

	statusOkStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Background(colorBgSurface).
			Padding(0, 1)

	statusPendingStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Background(colorBgSurface).
				Padding(0, 1)

	hintKeyStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	hintDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)

// Patient list
var (
	itemStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(0, 1)

	itemSelectedStyle = lipgloss.NewStyle().
				Background(colorHighlight).
				Foreground(colorText).
				Bold(true).
				Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	emptyStateStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Padding(2, 4)
)

// Search bar
var (
	searchBarStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorBgSurface).
			Padding(0, 1)

	searchCursorStyle = lipgloss.NewStyle().
				Background(colorBlue).
				Foreground(colorBg)
)
