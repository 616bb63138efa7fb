// Package chart implements the odontogram annotation model.
//
// A chart maps tooth identifiers to per-surface condition codes and
// free-text notes. The package is permissive: any tooth
// identifier, surface or condition string is accepted, and none of the
// operations return errors. Validation, when wanted, belongs to callers.
//
// Component layout:
//
//	model.go       ToothID, Surface, Condition, ToothRecord, State + operations
//	layout.go      adult/child dentition tables and clickable regions
//	legend.go      condition color/label table shared by renderer and legend
//	editor.go      surface editor state machine
//	container.go   owns state + selection, routes edits, invokes OnSave
//	diff.go        change list between two snapshots
package chart

import "sort"

// ToothID is a two-digit FDI tooth number ("18", "26", "55") kept as a
// string key. Range is not validated.
type ToothID string

// Surface is one of the five clickable regions of a tooth.
type Surface string

const (
	Top    Surface = "top"    // occlusal
	Bottom Surface = "bottom" // cervical
	Left   Surface = "left"   // mesial
	Right  Surface = "right"  // distal
	Center Surface = "center" // central
)

// Surfaces lists the five surfaces in canonical order. The order also
// decides which whole-tooth code wins when a tooth carries several.
func Surfaces() []Surface {
	return []Surface{Top, Bottom, Left, Right, Center}
}

// Label returns the anatomical name for a surface.
func (s Surface) Label() string {
	switch s {
	case Top:
		return "Occlusal"
	case Bottom:
		return "Cervical"
	case Left:
		return "Mesial"
	case Right:
		return "Distal"
	case Center:
		return "Central"
	default:
		return string(s)
	}
}

// ToothRecord holds the annotations for one tooth. Surfaces only carries
// keys for surfaces with a non-empty condition.
type ToothRecord struct {
	Surfaces map[Surface]Condition `json:"surfaces" yaml:"surfaces"`
	Notes    string                `json:"notes" yaml:"notes"`
}

// IsEmpty reports whether the record carries no condition and no notes.
func (r ToothRecord) IsEmpty() bool {
	return len(r.Surfaces) == 0 && r.Notes == ""
}

// Clone returns a deep copy of the record.
func (r ToothRecord) Clone() ToothRecord {
	out := ToothRecord{Notes: r.Notes, Surfaces: make(map[Surface]Condition, len(r.Surfaces))}
	for s, c := range r.Surfaces {
		out.Surfaces[s] = c
	}
	return out
}

// WholeTooth returns the whole-tooth condition that applies to every
// surface of this tooth, or None. With several different whole-tooth
// codes present, the code on the first surface in Surfaces() order wins.
// Off-list surface keys are checked last, in sorted order.
func (r ToothRecord) WholeTooth() Condition {
	for _, s := range surfaceOrder(r.Surfaces) {
		if c := r.Surfaces[s]; c.Scope() == ScopeWholeTooth {
			return c
		}
	}
	return None
}

// surfaceOrder returns the keys of m with canonical surfaces first.
func surfaceOrder(m map[Surface]Condition) []Surface {
	order := make([]Surface, 0, len(m))
	seen := make(map[Surface]bool, len(m))
	for _, s := range Surfaces() {
		if _, ok := m[s]; ok {
			order = append(order, s)
			seen[s] = true
		}
	}
	var extra []Surface
	for s := range m {
		if !seen[s] {
			extra = append(extra, s)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(order, extra...)
}

// State is the complete chart of one patient.
type State map[ToothID]ToothRecord

// Clone returns a deep copy of the state. Snapshots handed to save
// callbacks are clones, so later edits never alias them.
func (st State) Clone() State {
	out := make(State, len(st))
	for id, rec := range st {
		out[id] = rec.Clone()
	}
	return out
}

// Teeth returns the tooth identifiers present in the state, sorted.
func (st State) Teeth() []ToothID {
	ids := make([]ToothID, 0, len(st))
	for id := range st {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Condition returns the stored condition at a surface, or None.
func (st State) Condition(tooth ToothID, surface Surface) Condition {
	return st[tooth].Surfaces[surface]
}

// Notes returns the notes of a tooth, or "".
func (st State) Notes(tooth ToothID) string {
	return st[tooth].Notes
}

// SetCondition toggles a condition on a surface. If code equals the
// current condition at that surface (or is None), the surface entry is
// removed; otherwise it is set. The tooth record is replaced as a whole,
// never updated partially. The record is created when absent.
func (st State) SetCondition(tooth ToothID, surface Surface, code Condition) {
	rec := st[tooth].Clone()
	if code == None || rec.Surfaces[surface] == code {
		delete(rec.Surfaces, surface)
	} else {
		rec.Surfaces[surface] = code
	}
	st[tooth] = rec
}

// ClearCondition removes any condition from a surface regardless of its
// current value. The tooth record is created when absent.
func (st State) ClearCondition(tooth ToothID, surface Surface) {
	rec := st[tooth].Clone()
	delete(rec.Surfaces, surface)
	st[tooth] = rec
}

// SetNotes overwrites the notes of a tooth, creating the record if absent.
func (st State) SetNotes(tooth ToothID, notes string) {
	rec := st[tooth].Clone()
	rec.Notes = notes
	st[tooth] = rec
}

// EffectiveCondition returns the condition used to display a surface.
// A whole-tooth code anywhere on the tooth covers all five surfaces;
// otherwise the surface's own code is returned.
func (st State) EffectiveCondition(tooth ToothID, surface Surface) Condition {
	rec, ok := st[tooth]
	if !ok {
		return None
	}
	if whole := rec.WholeTooth(); whole != None {
		return whole
	}
	return rec.Surfaces[surface]
}

// Prune restores the storage invariants on loaded data: surface keys
// holding an empty code are removed, then records that carry neither
// conditions nor notes are dropped.
func (st State) Prune() {
	for id, rec := range st {
		for s, code := range rec.Surfaces {
			if code == None {
				delete(rec.Surfaces, s)
			}
		}
		if rec.IsEmpty() {
			delete(st, id)
		}
	}
}
