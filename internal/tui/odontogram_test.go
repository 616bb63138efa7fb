package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
)

// TestHitTestMatchesLayout verifies that every drawn region maps back to
// itself, for both dentitions.
func TestHitTestMatchesLayout(t *testing.T) {
	for _, d := range []chart.Dentition{chart.Adult, chart.Child} {
		regions := chart.Regions(d)
		for _, r := range regions {
			x, y, ok := regionPoint(d, r)
			require.True(t, ok, "%s %s", r.Tooth, r.Surface)

			got, ok := hitTest(d, x, y)
			require.True(t, ok, "%s %s at (%d,%d)", r.Tooth, r.Surface, x, y)
			assert.Equal(t, r, got)
		}
	}
}

func TestHitTestMisses(t *testing.T) {
	tests := []struct {
		name string
		x, y int
	}{
		{"label row", 2, rowUpperLabel},
		{"midline", 2, rowMidline},
		{"cell corner", 0, rowUpperTop},
		{"gap between teeth", toothWidth, rowUpperTop + 1},
		{"quadrant divider", toothX(8, 16) - 2, rowUpperTop + 1},
		{"past the last tooth", chartWidth(16) + 1, rowLowerTop + 1},
		{"below the chart", 2, chartHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := hitTest(chart.Adult, tt.x, tt.y)
			assert.False(t, ok)
		})
	}

	_, _, ok := regionPoint(chart.Child, chart.Region{Tooth: "18", Surface: chart.Top})
	assert.False(t, ok, "adult tooth is not drawn in child mode")
}

func TestRenderOdontogramGeometry(t *testing.T) {
	for _, d := range []chart.Dentition{chart.Adult, chart.Child} {
		out := renderOdontogram(chart.State{}, d, chart.Region{})
		lines := strings.Split(out, "\n")
		require.Len(t, lines, chartHeight)

		perRow := len(chart.Layout(d).Upper())
		for i, line := range lines {
			if i == rowUpperLabel || i == rowLowerLabel {
				continue
			}
			assert.Equal(t, chartWidth(perRow), lipgloss.Width(line), "%s row %d", d, i)
		}
	}
}

func TestRenderOdontogramLabels(t *testing.T) {
	out := renderOdontogram(chart.State{}, chart.Adult, chart.Region{Tooth: "18", Surface: chart.Top})
	lines := strings.Split(out, "\n")

	upper := strings.Fields(lines[rowUpperLabel])
	lower := strings.Fields(lines[rowLowerLabel])
	assert.Equal(t, []string{"18", "17", "16", "15", "14", "13", "12", "11", "21", "22", "23", "24", "25", "26", "27", "28"}, upper)
	assert.Equal(t, []string{"48", "47", "46", "45", "44", "43", "42", "41", "31", "32", "33", "34", "35", "36", "37", "38"}, lower)

	child := renderOdontogram(chart.State{}, chart.Child, chart.Region{})
	assert.Contains(t, child, "55")
	assert.NotContains(t, child, "18")
}

// TestDentitionToggleKeepsHiddenData verifies that data for teeth outside
// the shown dentition is kept while not drawn.
func TestDentitionToggleKeepsHiddenData(t *testing.T) {
	st := chart.State{}
	st.SetCondition("18", chart.Top, chart.Caries)
	before := st.Clone()

	_ = renderOdontogram(st, chart.Child, chart.Region{})
	assert.Equal(t, before, st)
}

func TestRenderLegend(t *testing.T) {
	legend := renderLegend()
	for _, e := range chart.Legend() {
		assert.Contains(t, legend, e.Label)
	}
	assert.Contains(t, legend, "Crown*")
	assert.NotContains(t, legend, "Caries*")
}

func TestConditionStyleFollowsLegend(t *testing.T) {
	for _, e := range chart.Legend() {
		assert.Equal(t, lipgloss.Color(e.Color), conditionStyle(e.Condition).GetForeground())
	}
	assert.Equal(t, surfaceEmptyStyle.GetForeground(), conditionStyle("sealant").GetForeground())
	assert.Equal(t, surfaceEmptyStyle.GetForeground(), conditionStyle(chart.None).GetForeground())
}
