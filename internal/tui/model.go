package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/saver"
	"github.com/Mr-Dark-debug/odonto/internal/session"
	"github.com/Mr-Dark-debug/odonto/pkg/timeutil"
)

// ────────────────────────────────────────────────────────────
// Screens
// ────────────────────────────────────────────────────────────

// Screen is the top-level view being shown.
type Screen int

const (
	ScreenPatients Screen = iota
	ScreenChart
)

// Config wires the model to its collaborators.
type Config struct {
	Store   database.Store
	Saver   *saver.Saver
	Session *session.Session // nil means read-only
	Logger  *zap.Logger

	// Dentition is the layout charts open in.
	Dentition chart.Dentition
	// PatientID, when set, opens that chart directly.
	PatientID string
}

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// chartView is the open chart. It is shared by pointer with the
// container's save callback, which bumps the revision on every save.
type chartView struct {
	patient   *database.Patient
	container *chart.Container
	revision  int64 // last revision handed to the saver
	pending   int
	saveErr   error // last failed save, cleared by a later success
	stale     bool  // a newer revision was saved elsewhere; editing waits for a reload
	lastSaved time.Time
}

// Model is the root BubbleTea model for the Odonto TUI.
// State is organized by concern; rendering is delegated
// to component functions in separate files.
type Model struct {
	store   database.Store
	saver   *saver.Saver
	session *session.Session
	log     *zap.Logger

	// Data
	patients []*database.Patient
	chart    *chartView

	// UI state
	screen          Screen
	dentition       chart.Dentition
	openPatientID   string
	selectedPatient int
	cursorTooth     int // index into the layout's Teeth()
	cursorSurface   chart.Surface
	selectedAction  int // index into actionOptions()
	notes           textarea.Model
	width           int
	height          int
	searchMode      bool
	searchQuery     string

	// Status
	statusMsg string
	err       error
}

// NewModel creates a new TUI model.
func NewModel(cfg Config) Model {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Clinical notes for this tooth..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(5)

	return Model{
		store:         cfg.Store,
		saver:         cfg.Saver,
		session:       cfg.Session,
		log:           log,
		dentition:     cfg.Dentition,
		openPatientID: cfg.PatientID,
		cursorSurface: chart.Center,
		notes:         ta,
		statusMsg:     "Loading patients...",
	}
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

type patientsLoadedMsg []*database.Patient
type chartLoadedMsg struct {
	patient *database.Patient
	record  *database.ChartRecord
}
type saveResultMsg saver.Result
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadPatients(""), m.waitForSave()}
	if m.openPatientID != "" {
		cmds = append(cmds, m.loadChart(m.openPatientID))
	}
	return tea.Batch(cmds...)
}

func (m Model) loadPatients(query string) tea.Cmd {
	return func() tea.Msg {
		filter := database.PatientFilter{Limit: 500}
		if query != "" {
			filter.Name = &query
		}
		patients, err := m.store.ListPatients(filter)
		if err != nil {
			return errMsg{err}
		}
		return patientsLoadedMsg(patients)
	}
}

func (m Model) loadChart(patientID string) tea.Cmd {
	return func() tea.Msg {
		p, err := m.store.GetPatient(patientID)
		if err != nil {
			return errMsg{err}
		}
		rec, err := m.store.LoadChart(patientID)
		if err != nil {
			return errMsg{err}
		}
		return chartLoadedMsg{patient: p, record: rec}
	}
}

// waitForSave delivers the next saver result. It is re-armed after every
// result and returns nil once the saver has stopped.
func (m Model) waitForSave() tea.Cmd {
	if m.saver == nil {
		return nil
	}
	results := m.saver.Results()
	return func() tea.Msg {
		res, ok := <-results
		if !ok {
			return nil
		}
		return saveResultMsg(res)
	}
}

// openChart builds the chart view for a loaded chart. The save callback
// runs synchronously inside Update and hands the snapshot to the saver
// without waiting.
func (m Model) openChart(p *database.Patient, rec *database.ChartRecord) *chartView {
	cv := &chartView{patient: p, revision: rec.Revision}

	savedBy := ""
	if m.session != nil {
		savedBy = m.session.Email
	}
	sv, log := m.saver, m.log

	cv.container = chart.NewContainer(rec.State, func(st chart.State) {
		cv.revision++
		if sv == nil {
			return
		}
		err := sv.Submit(saver.Request{
			PatientID: p.PatientID,
			Revision:  cv.revision,
			State:     st,
			SavedBy:   savedBy,
		})
		if err != nil {
			// A full queue also arrives as a failed result; a stopped saver
			// never will.
			if errors.Is(err, saver.ErrStopped) {
				cv.saveErr = err
			}
			log.Warn("chart snapshot not queued", zap.Error(err))
			return
		}
		cv.pending++
	})
	cv.container.SetDentition(m.dentition)
	return cv
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.notes.SetWidth(maxInt(msg.Width/2-6, 20))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case patientsLoadedMsg:
		m.patients = []*database.Patient(msg)
		m.selectedPatient = clamp(m.selectedPatient, 0, maxInt(len(m.patients)-1, 0))
		if m.screen == ScreenPatients {
			if len(m.patients) > 0 {
				m.statusMsg = fmt.Sprintf("%d patients", len(m.patients))
			} else {
				m.statusMsg = "No patients"
			}
		}
		return m, nil

	case chartLoadedMsg:
		m.chart = m.openChart(msg.patient, msg.record)
		m.screen = ScreenChart
		m.cursorTooth = 0
		m.cursorSurface = chart.Center
		m.err = nil
		m.statusMsg = fmt.Sprintf("Chart of %s, revision %d", msg.patient.Name, msg.record.Revision)
		if m.session == nil {
			m.statusMsg += " (read-only: sign in with `odonto login`)"
		}
		m.log.Info("chart opened",
			zap.String("patient", msg.patient.PatientID), zap.Int64("revision", msg.record.Revision))
		return m, nil

	case saveResultMsg:
		m.applySaveResult(saver.Result(msg))
		return m, m.waitForSave()

	case errMsg:
		m.err = msg.err
		m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		m.log.Error("tui error", zap.Error(msg.err))
		return m, nil
	}

	return m, nil
}

// applySaveResult updates the save status of the open chart. Results
// for other patients only get logged.
func (m *Model) applySaveResult(res saver.Result) {
	cv := m.chart
	if cv == nil || res.PatientID != cv.patient.PatientID {
		return
	}
	if cv.pending > 0 {
		cv.pending--
	}

	switch {
	case res.Err != nil:
		cv.saveErr = res.Err
		m.statusMsg = fmt.Sprintf("Save failed: %v (r to retry)", res.Err)
	case res.Stale:
		cv.stale = true
		cv.container.Close()
		m.notes.Blur()
		m.statusMsg = "Chart changed elsewhere, press R to reload"
		m.log.Warn("chart changed elsewhere",
			zap.String("patient", res.PatientID), zap.Int64("revision", res.Revision))
	default:
		if res.Revision >= cv.revision {
			cv.saveErr = nil
		}
		cv.lastSaved = time.Now()
		m.statusMsg = fmt.Sprintf("Saved revision %d in %s", res.Revision, timeutil.FormatLatency(res.Duration))
	}
}

// handleKey routes keyboard input based on current mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// ── Search mode ──

	if m.searchMode {
		switch key {
		case "enter":
			m.searchMode = false
			return m, nil
		case "esc":
			m.searchMode = false
			m.searchQuery = ""
			return m, m.loadPatients("")
		case "backspace":
			if len(m.searchQuery) > 0 {
				r := []rune(m.searchQuery)
				m.searchQuery = string(r[:len(r)-1])
			}
			return m, m.loadPatients(m.searchQuery)
		default:
			if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
				m.searchQuery += string(msg.Runes)
				return m, m.loadPatients(m.searchQuery)
			}
			return m, nil
		}
	}

	if m.screen == ScreenPatients {
		return m.handlePatientKey(key)
	}
	if m.chart == nil {
		return m, nil
	}

	switch m.chart.container.Editor().State() {
	case chart.EditorNotes:
		return m.handleNotesKey(msg)
	case chart.EditorActions:
		return m.handleActionKey(key)
	default:
		return m.handleChartKey(key)
	}
}

// ── Patient list ──

func (m Model) handlePatientKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "/":
		m.searchMode = true
		m.searchQuery = ""
	case "j", "down":
		if m.selectedPatient < len(m.patients)-1 {
			m.selectedPatient++
		}
	case "k", "up":
		if m.selectedPatient > 0 {
			m.selectedPatient--
		}
	case "enter":
		if m.selectedPatient < len(m.patients) {
			return m, m.loadChart(m.patients[m.selectedPatient].PatientID)
		}
	}
	return m, nil
}

// ── Chart, editor closed ──

func (m Model) handleChartKey(key string) (tea.Model, tea.Cmd) {
	cv := m.chart
	teeth := chart.Layout(cv.container.Dentition()).Teeth()
	perRow := len(teeth) / 2

	switch key {
	case "q":
		return m, tea.Quit
	case "esc":
		m.screen = ScreenPatients
		m.chart = nil
		m.statusMsg = fmt.Sprintf("%d patients", len(m.patients))
		return m, m.loadPatients(m.searchQuery)
	case "left", "h":
		if m.cursorTooth%perRow > 0 {
			m.cursorTooth--
		}
	case "right", "l":
		if m.cursorTooth%perRow < perRow-1 {
			m.cursorTooth++
		}
	case "up", "k":
		if m.cursorTooth >= perRow {
			m.cursorTooth -= perRow
		}
	case "down", "j":
		if m.cursorTooth < perRow {
			m.cursorTooth += perRow
		}
	case "w":
		m.cursorSurface = chart.Top
	case "s":
		m.cursorSurface = chart.Bottom
	case "a":
		m.cursorSurface = chart.Left
	case "d":
		m.cursorSurface = chart.Right
	case "c":
		m.cursorSurface = chart.Center
	case "enter", " ":
		r := m.cursorRegion()
		m.click(r.Tooth, r.Surface)
	case "m":
		cv.container.ToggleDentition()
		n := len(chart.Layout(cv.container.Dentition()).Teeth())
		m.cursorTooth = clamp(m.cursorTooth, 0, n-1)
		m.statusMsg = fmt.Sprintf("%s dentition", cv.container.Dentition())
	case "R":
		m.statusMsg = "Reloading chart..."
		return m, m.loadChart(cv.patient.PatientID)
	case "r":
		if cv.saveErr != nil && m.session != nil && !cv.stale {
			cv.saveErr = nil
			cv.container.Resave()
			m.statusMsg = fmt.Sprintf("Retrying save (revision %d)...", cv.revision)
		}
	}
	return m, nil
}

// click opens the editor on a region, the way a mouse click does.
func (m *Model) click(tooth chart.ToothID, surface chart.Surface) {
	if m.session == nil {
		m.statusMsg = "Read-only: sign in with `odonto login` to edit"
		return
	}
	cv := m.chart
	if cv.stale {
		m.statusMsg = "Chart changed elsewhere, press R to reload"
		return
	}
	cv.container.Click(tooth, surface)
	m.selectedAction = 0
	if cur := cv.container.View().Condition(tooth, surface); cur != chart.None {
		for i, opt := range actionOptions() {
			if opt == cur {
				m.selectedAction = i
			}
		}
	}
	m.notes.SetValue(cv.container.Editor().Draft())
	m.notes.Blur()
	m.statusMsg = fmt.Sprintf("Tooth %s, %s", tooth, surface.Label())
}

// ── Chart, editor on the actions tab ──

func (m Model) handleActionKey(key string) (tea.Model, tea.Cmd) {
	cv := m.chart
	opts := actionOptions()

	switch key {
	case "esc":
		cv.container.Close()
		m.statusMsg = "Closed"
	case "tab", "shift+tab":
		cv.container.Editor().ToggleTab()
		return m, m.notes.Focus()
	case "n":
		cv.container.Editor().ShowNotes()
		return m, m.notes.Focus()
	case "up", "k":
		if m.selectedAction > 0 {
			m.selectedAction--
		}
	case "down", "j":
		if m.selectedAction < len(opts)-1 {
			m.selectedAction++
		}
	case "enter", " ":
		m.selectCondition(opts[m.selectedAction])
	case "0", "x", "backspace", "delete":
		m.selectCondition(chart.None)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(opts)-1 {
				m.selectCondition(opts[i])
			}
		}
	}
	return m, nil
}

func (m *Model) selectCondition(code chart.Condition) {
	cv := m.chart
	tooth, surface := cv.container.Editor().Target()
	if code == chart.None {
		cv.container.ClearCondition()
	} else {
		cv.container.SelectCondition(code)
	}
	m.statusMsg = fmt.Sprintf("Tooth %s %s: %s",
		tooth, surface.Label(), cv.container.View().Condition(tooth, surface).Label())
}

// ── Chart, editor on the notes tab ──

func (m Model) handleNotesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cv := m.chart
	editor := cv.container.Editor()

	switch msg.String() {
	case "esc":
		cv.container.Close()
		m.notes.Blur()
		m.notes.Reset()
		m.statusMsg = "Notes discarded"
		return m, nil
	case "tab", "shift+tab":
		editor.ToggleTab()
		m.notes.Blur()
		return m, nil
	case "ctrl+s":
		tooth, _ := editor.Target()
		cv.container.SaveNotes()
		m.notes.Blur()
		m.notes.Reset()
		m.statusMsg = fmt.Sprintf("Notes saved for tooth %s", tooth)
		return m, nil
	}

	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	editor.SetDraft(m.notes.Value())
	return m, cmd
}

// handleMouse turns a left click on the odontogram into a region click.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.screen != ScreenChart || m.chart == nil {
		return m, nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	ox, oy := chartOrigin()
	d := m.chart.container.Dentition()
	r, ok := hitTest(d, msg.X-ox, msg.Y-oy)
	if !ok {
		return m, nil
	}
	for i, id := range chart.Layout(d).Teeth() {
		if id == r.Tooth {
			m.cursorTooth = i
		}
	}
	m.cursorSurface = r.Surface
	m.click(r.Tooth, r.Surface)
	return m, nil
}

// cursorRegion returns the region under the keyboard cursor.
func (m Model) cursorRegion() chart.Region {
	if m.chart == nil {
		return chart.Region{}
	}
	if tooth, surface, ok := m.chart.container.Selection(); ok {
		return chart.Region{Tooth: tooth, Surface: surface}
	}
	teeth := chart.Layout(m.chart.container.Dentition()).Teeth()
	return chart.Region{Tooth: teeth[clamp(m.cursorTooth, 0, len(teeth)-1)], Surface: m.cursorSurface}
}

// actionOptions lists the choices of the actions tab: every known
// condition, then "none".
func actionOptions() []chart.Condition {
	return append(chart.Conditions(), chart.None)
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

const headerHeight = 1

// chartOrigin is the screen position of the odontogram's top-left cell:
// below the header, the panel border and the title lines.
func chartOrigin() (x, y int) {
	x = panelActiveStyle.GetPaddingLeft() + panelActiveStyle.GetBorderLeftSize()
	y = headerHeight + panelActiveStyle.GetBorderTopSize() + panelActiveStyle.GetPaddingTop() + 2
	return x, y
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := renderHeader(&m)
	footer := renderFooter(&m)

	bodyHeight := m.height - 2 // header + footer

	var body string
	if m.screen == ScreenChart && m.chart != nil {
		body = m.renderChartLayout(bodyHeight)
	} else {
		body = renderPatientList(&m)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderChartLayout stacks the odontogram above the editor and the tooth
// detail panels.
func (m Model) renderChartLayout(totalHeight int) string {
	topHeight := chartHeight + 5 // border, title, blank, legend gap
	bottomHeight := maxInt(totalHeight-topHeight, 3)

	top := renderChartPanel(&m, m.width, topHeight)

	if m.width < 80 {
		return lipgloss.JoinVertical(lipgloss.Left, top, renderEditorPanel(&m, m.width, bottomHeight))
	}

	leftWidth := m.width / 2
	editor := renderEditorPanel(&m, leftWidth, bottomHeight)
	detail := renderToothPanel(&m, m.width-leftWidth, bottomHeight)
	return lipgloss.JoinVertical(lipgloss.Left, top, lipgloss.JoinHorizontal(lipgloss.Top, editor, detail))
}
