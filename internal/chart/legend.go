package chart

// Condition is a condition code recorded on a tooth surface. The known
// codes are listed below; any other value is kept as-is and displayed
// without a special style.
type Condition string

const (
	None        Condition = ""
	Caries      Condition = "caries"
	Extraction  Condition = "extraction"
	Restoration Condition = "restoration"
	Crown       Condition = "crown"
	RootCanal   Condition = "root-canal"
)

// Scope says whether a condition affects one surface or the whole tooth.
type Scope int

const (
	ScopeUnknown Scope = iota
	ScopeSurface
	ScopeWholeTooth
)

// Scope classifies the condition. None and unrecognized codes are
// ScopeUnknown.
func (c Condition) Scope() Scope {
	switch c {
	case Caries, Restoration:
		return ScopeSurface
	case Extraction, Crown, RootCanal:
		return ScopeWholeTooth
	default:
		return ScopeUnknown
	}
}

// Known reports whether c is one of the listed condition codes.
func (c Condition) Known() bool {
	return c.Scope() != ScopeUnknown
}

// Conditions returns the known codes in legend order.
func Conditions() []Condition {
	return []Condition{Caries, Extraction, Restoration, Crown, RootCanal}
}

// LegendEntry pairs a condition with its display label and swatch color.
type LegendEntry struct {
	Condition Condition `json:"condition"`
	Label     string    `json:"label"`
	Color     string    `json:"color"` // hex, e.g. "#fbbf24"
}

// legend is the single source of truth for condition styling.
var legend = map[Condition]LegendEntry{
	Caries:      {Caries, "Caries", "#fbbf24"},
	Extraction:  {Extraction, "Extraction", "#ef4444"},
	Restoration: {Restoration, "Restoration", "#3b82f6"},
	Crown:       {Crown, "Crown", "#a855f7"},
	RootCanal:   {RootCanal, "Root canal", "#22c55e"},
}

// Legend returns one entry per known condition, in Conditions() order.
func Legend() []LegendEntry {
	out := make([]LegendEntry, 0, len(legend))
	for _, c := range Conditions() {
		out = append(out, legend[c])
	}
	return out
}

// Style returns the legend entry for c. ok is false for None and
// unrecognized codes.
func Style(c Condition) (LegendEntry, bool) {
	e, ok := legend[c]
	return e, ok
}

// Label returns the display label, falling back to the raw code.
func (c Condition) Label() string {
	if e, ok := legend[c]; ok {
		return e.Label
	}
	if c == None {
		return "No condition"
	}
	return string(c)
}
