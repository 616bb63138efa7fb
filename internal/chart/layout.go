package chart

import "strconv"

// Dentition selects the adult (32 teeth) or child (20 teeth) layout.
type Dentition int

const (
	Adult Dentition = iota
	Child
)

func (d Dentition) String() string {
	if d == Child {
		return "child"
	}
	return "adult"
}

// ParseDentition maps "child" to Child and anything else to Adult.
func ParseDentition(s string) Dentition {
	if s == "child" {
		return Child
	}
	return Adult
}

// Quadrants holds the tooth sequences of one dentition in display order:
// upper-right, upper-left, lower-right, lower-left.
type Quadrants struct {
	UpperRight []ToothID
	UpperLeft  []ToothID
	LowerRight []ToothID
	LowerLeft  []ToothID
}

var (
	adultQuadrants = Quadrants{
		UpperRight: ids(18, 17, 16, 15, 14, 13, 12, 11),
		UpperLeft:  ids(21, 22, 23, 24, 25, 26, 27, 28),
		LowerRight: ids(48, 47, 46, 45, 44, 43, 42, 41),
		LowerLeft:  ids(31, 32, 33, 34, 35, 36, 37, 38),
	}
	childQuadrants = Quadrants{
		UpperRight: ids(55, 54, 53, 52, 51),
		UpperLeft:  ids(61, 62, 63, 64, 65),
		LowerRight: ids(85, 84, 83, 82, 81),
		LowerLeft:  ids(71, 72, 73, 74, 75),
	}
)

func ids(nums ...int) []ToothID {
	out := make([]ToothID, len(nums))
	for i, n := range nums {
		out[i] = ToothID(strconv.Itoa(n))
	}
	return out
}

// Layout returns a copy of the fixed quadrant tables for d.
func Layout(d Dentition) Quadrants {
	q := adultQuadrants
	if d == Child {
		q = childQuadrants
	}
	return Quadrants{
		UpperRight: append([]ToothID(nil), q.UpperRight...),
		UpperLeft:  append([]ToothID(nil), q.UpperLeft...),
		LowerRight: append([]ToothID(nil), q.LowerRight...),
		LowerLeft:  append([]ToothID(nil), q.LowerLeft...),
	}
}

// Upper returns the upper arch left-to-right as drawn.
func (q Quadrants) Upper() []ToothID {
	return append(append([]ToothID(nil), q.UpperRight...), q.UpperLeft...)
}

// Lower returns the lower arch left-to-right as drawn.
func (q Quadrants) Lower() []ToothID {
	return append(append([]ToothID(nil), q.LowerRight...), q.LowerLeft...)
}

// Teeth returns every tooth of the layout, upper arch first.
func (q Quadrants) Teeth() []ToothID {
	return append(q.Upper(), q.Lower()...)
}

// Contains reports whether tooth belongs to the dentition d.
func (d Dentition) Contains(tooth ToothID) bool {
	for _, id := range Layout(d).Teeth() {
		if id == tooth {
			return true
		}
	}
	return false
}

// Region is one clickable area of the rendered chart.
type Region struct {
	Tooth   ToothID
	Surface Surface
}

// Regions lists the five regions of every tooth in d, in display order.
func Regions(d Dentition) []Region {
	teeth := Layout(d).Teeth()
	out := make([]Region, 0, len(teeth)*5)
	for _, t := range teeth {
		for _, s := range Surfaces() {
			out = append(out, Region{Tooth: t, Surface: s})
		}
	}
	return out
}
