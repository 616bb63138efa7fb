package chart

// EditorState is the state of the surface editor modal.
type EditorState int

const (
	EditorClosed EditorState = iota
	EditorActions
	EditorNotes
)

func (s EditorState) String() string {
	switch s {
	case EditorActions:
		return "actions"
	case EditorNotes:
		return "notes"
	default:
		return "closed"
	}
}

// Editor is the surface editor state machine.
//
//	closed --Open--> actions <--ShowNotes/ShowActions--> notes
//	actions --Close--> closed      notes --Close/Commit--> closed
//
// The notes draft lives only inside one open session: it survives tab
// switches and is dropped when the editor closes.
type Editor struct {
	state   EditorState
	tooth   ToothID
	surface Surface
	draft   string
}

// State returns the current editor state.
func (e *Editor) State() EditorState { return e.state }

// IsOpen reports whether the editor shows a tooth.
func (e *Editor) IsOpen() bool { return e.state != EditorClosed }

// Target returns the tooth and surface being edited.
func (e *Editor) Target() (ToothID, Surface) { return e.tooth, e.surface }

// Draft returns the uncommitted notes text.
func (e *Editor) Draft() string { return e.draft }

// Open starts a session on the actions tab. notes is the committed notes
// text of the tooth and seeds the draft. Opening while already open
// starts a fresh session for the new target.
func (e *Editor) Open(tooth ToothID, surface Surface, notes string) {
	e.state = EditorActions
	e.tooth = tooth
	e.surface = surface
	e.draft = notes
}

// ShowNotes switches to the notes tab. No-op when closed.
func (e *Editor) ShowNotes() {
	if e.state != EditorClosed {
		e.state = EditorNotes
	}
}

// ShowActions switches to the actions tab. No-op when closed.
func (e *Editor) ShowActions() {
	if e.state != EditorClosed {
		e.state = EditorActions
	}
}

// ToggleTab flips between the actions and notes tabs.
func (e *Editor) ToggleTab() {
	switch e.state {
	case EditorActions:
		e.state = EditorNotes
	case EditorNotes:
		e.state = EditorActions
	}
}

// SetDraft replaces the notes draft. Ignored when closed.
func (e *Editor) SetDraft(s string) {
	if e.state != EditorClosed {
		e.draft = s
	}
}

// Commit ends the session and returns the draft to be stored. ok is
// false when the editor was not open.
func (e *Editor) Commit() (tooth ToothID, notes string, ok bool) {
	if e.state == EditorClosed {
		return "", "", false
	}
	tooth, notes = e.tooth, e.draft
	e.Close()
	return tooth, notes, true
}

// Close ends the session and discards the draft.
func (e *Editor) Close() {
	*e = Editor{}
}
