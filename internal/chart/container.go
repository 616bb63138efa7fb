package chart

// SaveFunc receives the full chart after every committed mutation. The
// snapshot is a private copy. The container does not wait for or observe
// the outcome; reporting failures is the receiver's job.
type SaveFunc func(State)

// Container owns one patient's chart, the current selection, the
// dentition mode and the surface editor. It is single-threaded: callers
// drive it from one event loop.
type Container struct {
	state     State
	dentition Dentition
	editor    Editor
	onSave    SaveFunc
}

// NewContainer wraps initial (which may be nil). The container keeps its
// own pruned copy, so the caller's map is never mutated.
func NewContainer(initial State, onSave SaveFunc) *Container {
	st := initial.Clone()
	if st == nil {
		st = State{}
	}
	st.Prune()
	return &Container{state: st, onSave: onSave}
}

// State returns a copy of the current chart.
func (c *Container) State() State { return c.state.Clone() }

// View returns the live chart for read-only rendering. Callers must not
// modify it.
func (c *Container) View() State { return c.state }

// Editor exposes the editor for read access and draft/tab updates.
func (c *Container) Editor() *Editor { return &c.editor }

// Selection returns the selected tooth and surface. ok is false when
// nothing is selected.
func (c *Container) Selection() (tooth ToothID, surface Surface, ok bool) {
	if !c.editor.IsOpen() {
		return "", "", false
	}
	tooth, surface = c.editor.Target()
	return tooth, surface, true
}

// Dentition returns the layout currently shown.
func (c *Container) Dentition() Dentition { return c.dentition }

// SetDentition switches the layout. Chart data is never touched.
func (c *Container) SetDentition(d Dentition) { c.dentition = d }

// ToggleDentition flips between adult and child layouts.
func (c *Container) ToggleDentition() {
	if c.dentition == Adult {
		c.dentition = Child
	} else {
		c.dentition = Adult
	}
}

// Click handles a surface click from the renderer by opening the editor
// on that tooth and surface.
func (c *Container) Click(tooth ToothID, surface Surface) {
	c.editor.Open(tooth, surface, c.state.Notes(tooth))
}

// SelectCondition applies code to the selected surface with toggle
// semantics, saves, and closes the editor. It reports whether a mutation
// was committed.
func (c *Container) SelectCondition(code Condition) bool {
	tooth, surface, ok := c.Selection()
	if !ok {
		return false
	}
	c.state.SetCondition(tooth, surface, code)
	c.editor.Close()
	c.save()
	return true
}

// ClearCondition removes any condition from the selected surface, saves,
// and closes the editor.
func (c *Container) ClearCondition() bool {
	tooth, surface, ok := c.Selection()
	if !ok {
		return false
	}
	c.state.ClearCondition(tooth, surface)
	c.editor.Close()
	c.save()
	return true
}

// SaveNotes commits the editor draft to the selected tooth, saves, and
// closes the editor.
func (c *Container) SaveNotes() bool {
	tooth, notes, ok := c.editor.Commit()
	if !ok {
		return false
	}
	c.state.SetNotes(tooth, notes)
	c.save()
	return true
}

// Close dismisses the editor without committing anything.
func (c *Container) Close() { c.editor.Close() }

// Resave hands the current chart to the save callback again without
// changing it, e.g. to retry after a failed save.
func (c *Container) Resave() { c.save() }

func (c *Container) save() {
	if c.onSave != nil {
		c.onSave(c.state.Clone())
	}
}
