package chart

import "sort"

// ChangeKind describes how a field moved between two snapshots.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Change is one difference between two charts. Surface is empty for
// notes changes.
type Change struct {
	Tooth   ToothID    `json:"tooth"`
	Surface Surface    `json:"surface,omitempty"`
	Kind    ChangeKind `json:"kind"`
	Old     string     `json:"old,omitempty"`
	New     string     `json:"new,omitempty"`
}

// Diff lists the changes from before to after, sorted by tooth then surface,
// with notes changes after the surface changes of the same tooth.
func Diff(before, after State) []Change {
	teeth := make(map[ToothID]bool)
	for id := range before {
		teeth[id] = true
	}
	for id := range after {
		teeth[id] = true
	}
	ids := make([]ToothID, 0, len(teeth))
	for id := range teeth {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var changes []Change
	for _, id := range ids {
		o, n := before[id], after[id]

		surfaces := make(map[Surface]Condition)
		for s := range o.Surfaces {
			surfaces[s] = None
		}
		for s := range n.Surfaces {
			surfaces[s] = None
		}
		for _, s := range surfaceOrder(surfaces) {
			if ch, ok := compare(string(o.Surfaces[s]), string(n.Surfaces[s])); ok {
				ch.Tooth, ch.Surface = id, s
				changes = append(changes, ch)
			}
		}
		if ch, ok := compare(o.Notes, n.Notes); ok {
			ch.Tooth = id
			changes = append(changes, ch)
		}
	}
	return changes
}

func compare(oldVal, newVal string) (Change, bool) {
	switch {
	case oldVal == newVal:
		return Change{}, false
	case oldVal == "":
		return Change{Kind: ChangeAdd, New: newVal}, true
	case newVal == "":
		return Change{Kind: ChangeDelete, Old: oldVal}, true
	default:
		return Change{Kind: ChangeUpdate, Old: oldVal, New: newVal}, true
	}
}
