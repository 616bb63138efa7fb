package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/saver"
	"github.com/Mr-Dark-debug/odonto/internal/session"
)

type harness struct {
	store     *database.DBService
	saver     *saver.Saver
	patientID string
}

func newHarness(t *testing.T, signedIn bool) (Model, *harness) {
	t.Helper()

	store, err := database.NewDBService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p := &database.Patient{Name: "Ana Silva", BirthDate: "1985-05-15"}
	require.NoError(t, store.InsertPatient(p))

	sv := saver.New(saver.DefaultConfig(), store, nil)
	sv.Start(context.Background())
	t.Cleanup(sv.Stop)

	var sess *session.Session
	if signedIn {
		sess, err = session.Login("dentist@clinic.com", "pw")
		require.NoError(t, err)
	}

	m := NewModel(Config{Store: store, Saver: sv, Session: sess, Dentition: chart.Adult})
	m = update(m, tea.WindowSizeMsg{Width: 160, Height: 40})
	m = update(m, m.loadChart(p.PatientID)())
	require.Equal(t, ScreenChart, m.screen)

	return m, &harness{store: store, saver: sv, patientID: p.PatientID}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = update(m, msg)
	}
	return m
}

func (h *harness) next(t *testing.T) saver.Result {
	t.Helper()
	select {
	case res := <-h.saver.Results():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for save result")
		return saver.Result{}
	}
}

// moveTo walks the cursor to tooth along the upper or lower arch.
func moveTo(t *testing.T, m Model, tooth chart.ToothID) Model {
	t.Helper()
	teeth := chart.Layout(m.chart.container.Dentition()).Teeth()
	for i, id := range teeth {
		if id == tooth {
			m.cursorTooth = i
			return m
		}
	}
	t.Fatalf("tooth %s not in layout", tooth)
	return m
}

// TestChartScenario walks the caries toggle and whole-tooth crown
// scenario through the keyboard.
func TestChartScenario(t *testing.T) {
	m, h := newHarness(t, true)

	// Cursor starts on 18; pick the top surface and open the editor.
	m = press(m, "w", "enter")
	require.Equal(t, chart.EditorActions, m.chart.container.Editor().State())
	tooth, surface := m.chart.container.Editor().Target()
	assert.Equal(t, chart.ToothID("18"), tooth)
	assert.Equal(t, chart.Top, surface)

	m = press(m, "1")
	assert.False(t, m.chart.container.Editor().IsOpen(), "selecting a condition closes the editor")
	assert.Equal(t, chart.Caries, m.chart.container.View().Condition("18", chart.Top))
	res := h.next(t)
	require.NoError(t, res.Err)
	m = update(m, saveResultMsg(res))
	assert.Contains(t, m.statusMsg, "Saved revision 1")

	m = press(m, "enter", "1")
	_, present := m.chart.container.View()["18"].Surfaces[chart.Top]
	assert.False(t, present, "selecting the same code again clears it")
	m = update(m, saveResultMsg(h.next(t)))

	m = moveTo(t, m, "26")
	m = press(m, "c", "enter", "4")
	for _, s := range chart.Surfaces() {
		assert.Equal(t, chart.Crown, m.chart.container.View().EffectiveCondition("26", s))
	}
	m = update(m, saveResultMsg(h.next(t)))

	rec, err := h.store.LoadChart(h.patientID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Revision)
	assert.Equal(t, chart.Crown, rec.State.Condition("26", chart.Center))
	assert.Equal(t, "dentist@clinic.com", rec.SavedBy)
	assert.Nil(t, m.chart.saveErr)
}

func TestActionListNavigation(t *testing.T) {
	m, h := newHarness(t, true)

	m = press(m, "d", "enter", "j", "j", "enter")
	assert.Equal(t, chart.Restoration, m.chart.container.View().Condition("18", chart.Right))
	h.next(t)

	// Reopening preselects the current code; "0" clears regardless.
	m = press(m, "enter")
	assert.Equal(t, 2, m.selectedAction)
	m = press(m, "0")
	assert.Equal(t, chart.None, m.chart.container.View().Condition("18", chart.Right))
	h.next(t)
}

func TestNotesDraftDiscardedOnClose(t *testing.T) {
	m, h := newHarness(t, true)

	m = press(m, "enter", "tab")
	require.Equal(t, chart.EditorNotes, m.chart.container.Editor().State())
	m = press(m, "d", "r", "a", "f", "t")
	assert.Equal(t, "draft", m.chart.container.Editor().Draft())

	// Tab switches keep the draft.
	m = press(m, "tab")
	assert.Equal(t, chart.EditorActions, m.chart.container.Editor().State())
	assert.Equal(t, "draft", m.chart.container.Editor().Draft())

	m = press(m, "esc")
	assert.False(t, m.chart.container.Editor().IsOpen())
	assert.Empty(t, m.chart.container.View().Notes("18"))

	m = press(m, "enter", "tab")
	assert.Empty(t, m.chart.container.Editor().Draft(), "reopening must not show the discarded draft")
	assert.Empty(t, m.notes.Value())

	m = press(m, "o", "k", "ctrl+s")
	assert.False(t, m.chart.container.Editor().IsOpen())
	assert.Equal(t, "ok", m.chart.container.View().Notes("18"))

	res := h.next(t)
	require.NoError(t, res.Err)
	rec, err := h.store.LoadChart(h.patientID)
	require.NoError(t, err)
	assert.Equal(t, "ok", rec.State.Notes("18"))
}

func TestDentitionToggle(t *testing.T) {
	m, h := newHarness(t, true)

	m = press(m, "enter", "2")
	h.next(t)
	before := m.chart.container.State()

	m = moveTo(t, m, "38")
	m = press(m, "m")
	assert.Equal(t, chart.Child, m.chart.container.Dentition())
	assert.Equal(t, before, m.chart.container.State())
	assert.Equal(t, chart.ToothID("75"), m.cursorRegion().Tooth, "cursor is clamped to the child layout")

	m = press(m, "m")
	assert.Equal(t, chart.Adult, m.chart.container.Dentition())
	assert.Equal(t, chart.Extraction, m.chart.container.View().EffectiveCondition("18", chart.Bottom))
}

func TestCursorMovement(t *testing.T) {
	m, _ := newHarness(t, true)

	m = press(m, "h")
	assert.Equal(t, chart.ToothID("18"), m.cursorRegion().Tooth, "left edge")
	m = press(m, "l", "l")
	assert.Equal(t, chart.ToothID("16"), m.cursorRegion().Tooth)
	m = press(m, "j")
	assert.Equal(t, chart.ToothID("46"), m.cursorRegion().Tooth)
	m = press(m, "j")
	assert.Equal(t, chart.ToothID("46"), m.cursorRegion().Tooth, "bottom edge")
	m = press(m, "k")
	assert.Equal(t, chart.ToothID("16"), m.cursorRegion().Tooth)
}

func TestMouseClickOpensEditor(t *testing.T) {
	m, _ := newHarness(t, true)

	x, y, ok := regionPoint(chart.Adult, chart.Region{Tooth: "26", Surface: chart.Right})
	require.True(t, ok)
	ox, oy := chartOrigin()

	m = update(m, tea.MouseMsg{X: ox + x, Y: oy + y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.True(t, m.chart.container.Editor().IsOpen())
	tooth, surface := m.chart.container.Editor().Target()
	assert.Equal(t, chart.ToothID("26"), tooth)
	assert.Equal(t, chart.Right, surface)

	// Releases and clicks outside the chart are ignored.
	m = press(m, "esc")
	m = update(m, tea.MouseMsg{X: ox + x, Y: oy + y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.False(t, m.chart.container.Editor().IsOpen())
	m = update(m, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.False(t, m.chart.container.Editor().IsOpen())
}

func TestReadOnlyWithoutSession(t *testing.T) {
	m, _ := newHarness(t, false)

	m = press(m, "enter")
	assert.False(t, m.chart.container.Editor().IsOpen())
	assert.Contains(t, m.statusMsg, "Read-only")
	assert.Contains(t, m.View(), "not signed in")
}

// TestSaveFailureIsVisibleAndRetryable verifies that a failed save stays
// on screen and that r saves the latest chart again.
func TestSaveFailureIsVisibleAndRetryable(t *testing.T) {
	m, h := newHarness(t, true)

	m = press(m, "enter", "1")
	h.next(t)

	m = update(m, saveResultMsg{PatientID: h.patientID, Revision: 1, Err: errors.New("disk full")})
	require.Error(t, m.chart.saveErr)
	assert.Contains(t, m.View(), "Save failed")
	assert.Contains(t, m.View(), "retry save")

	m = press(m, "r")
	assert.Nil(t, m.chart.saveErr)
	assert.Equal(t, int64(2), m.chart.revision)

	res := h.next(t)
	require.NoError(t, res.Err)
	m = update(m, saveResultMsg(res))
	assert.NotContains(t, m.View(), "Save failed")

	rec, err := h.store.LoadChart(h.patientID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Revision)
	assert.Equal(t, chart.Caries, rec.State.Condition("18", chart.Center))
}

func TestStaleResultOffersReload(t *testing.T) {
	m, h := newHarness(t, true)

	// Another writer stores revision 5 behind the editor's back.
	other := chart.State{}
	other.SetCondition("26", chart.Center, chart.Crown)
	applied, err := h.store.SaveChart(database.ChartSave{PatientID: h.patientID, Revision: 5, State: other})
	require.NoError(t, err)
	require.True(t, applied)

	m = press(m, "w", "enter")
	require.Equal(t, chart.EditorActions, m.chart.container.Editor().State())

	m = update(m, saveResultMsg{PatientID: h.patientID, Revision: 1, Stale: true})
	assert.True(t, m.chart.stale)
	assert.Nil(t, m.chart.saveErr)
	assert.Equal(t, chart.EditorClosed, m.chart.container.Editor().State())
	assert.Contains(t, m.View(), "Chart changed elsewhere, press R to reload")

	// Edits wait for the reload.
	m = press(m, "enter")
	assert.Equal(t, chart.EditorClosed, m.chart.container.Editor().State())
	assert.Equal(t, "Chart changed elsewhere, press R to reload", m.statusMsg)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("R")})
	m = next.(Model)
	require.NotNil(t, cmd)
	m = update(m, cmd())

	assert.False(t, m.chart.stale)
	assert.Equal(t, int64(5), m.chart.revision)
	assert.Equal(t, chart.Crown, m.chart.container.View().Condition("26", chart.Center))
	assert.NotContains(t, m.View(), "press R to reload")

	m = press(m, "enter")
	assert.Equal(t, chart.EditorActions, m.chart.container.Editor().State())
}

func TestResultForOtherPatientIgnored(t *testing.T) {
	m, _ := newHarness(t, true)

	m = update(m, saveResultMsg{PatientID: "someone-else", Revision: 1, Err: errors.New("boom")})
	assert.Nil(t, m.chart.saveErr, "results for other patients do not touch this chart")
	m = update(m, saveResultMsg{PatientID: "someone-else", Revision: 1, Stale: true})
	assert.False(t, m.chart.stale)
}

func TestTabTogglesEditorTabs(t *testing.T) {
	m, _ := newHarness(t, true)

	m = press(m, "w", "enter")
	require.Equal(t, chart.EditorActions, m.chart.container.Editor().State())

	m = press(m, "tab")
	assert.Equal(t, chart.EditorNotes, m.chart.container.Editor().State())
	assert.True(t, m.notes.Focused())

	m = press(m, "tab")
	assert.Equal(t, chart.EditorActions, m.chart.container.Editor().State())
	assert.False(t, m.notes.Focused())
}

func TestPatientListAndSearch(t *testing.T) {
	m, h := newHarness(t, true)
	require.NoError(t, h.store.InsertPatient(&database.Patient{Name: "Bruno Costa"}))

	m = press(m, "esc")
	assert.Equal(t, ScreenPatients, m.screen)
	assert.Nil(t, m.chart)

	m = update(m, m.loadPatients("")())
	require.Len(t, m.patients, 2)
	view := m.View()
	assert.Contains(t, view, "Ana Silva")
	assert.Contains(t, view, "Bruno Costa")

	m = press(m, "/")
	require.True(t, m.searchMode)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bru")})
	m = next.(Model)
	require.NotNil(t, cmd)
	m = update(m, cmd())
	require.Len(t, m.patients, 1)
	assert.Equal(t, "Bruno Costa", m.patients[0].Name)

	m = press(m, "enter")
	assert.False(t, m.searchMode)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	m = update(m, cmd())
	assert.Equal(t, ScreenChart, m.screen)
	assert.Equal(t, "Bruno Costa", m.chart.patient.Name)
}

func TestViewRendersChart(t *testing.T) {
	m, h := newHarness(t, true)

	m = press(m, "w", "enter", "2")
	h.next(t)
	m = press(m, "enter")

	view := m.View()
	assert.Contains(t, view, "ODONTO")
	assert.Contains(t, view, "Ana Silva")
	assert.Contains(t, view, "Odontogram")
	assert.Contains(t, view, "Actions")
	assert.Contains(t, view, "Extraction (current, select to clear)")
	assert.Contains(t, view, "Whole tooth")

	assert.Equal(t, "Initializing...", NewModel(Config{}).View())
}
