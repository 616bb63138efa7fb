package chart

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genTooth() gopter.Gen {
	return gen.IntRange(11, 85).Map(func(n int) ToothID {
		return ToothID(strconv.Itoa(n))
	})
}

func genSurface() gopter.Gen {
	return gen.OneConstOf(Top, Bottom, Left, Right, Center)
}

func genCondition() gopter.Gen {
	return gen.OneConstOf(Caries, Extraction, Restoration, Crown, RootCanal)
}

func genSurfaceCondition() gopter.Gen {
	return gen.OneConstOf(Caries, Restoration)
}

func genWholeCondition() gopter.Gen {
	return gen.OneConstOf(Extraction, Crown, RootCanal)
}

// edit is one generated mutation used to build arbitrary baselines.
type edit struct {
	Tooth     ToothID
	Surface   Surface
	Condition Condition
}

func genEdits() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(genTooth(), genSurface(), genCondition()).
		Map(func(v []interface{}) edit {
			return edit{v[0].(ToothID), v[1].(Surface), v[2].(Condition)}
		}))
}

func apply(edits []edit) State {
	st := State{}
	for _, e := range edits {
		st.SetCondition(e.Tooth, e.Surface, e.Condition)
	}
	return st
}

func TestPropertyToggleTwiceRestoresBaseline(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("set then set again leaves the surface empty", prop.ForAll(
		func(edits []edit, tooth ToothID, surface Surface, code Condition) bool {
			st := apply(edits)
			st.ClearCondition(tooth, surface)
			baseline := st.Clone()

			st.SetCondition(tooth, surface, code)
			st.SetCondition(tooth, surface, code)

			_, present := st[tooth].Surfaces[surface]
			return !present && cmp.Equal(baseline, st)
		},
		genEdits(), genTooth(), genSurface(), genCondition(),
	))

	properties.TestingRun(t)
}

func TestPropertyWholeToothCoversAllSurfaces(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("whole-tooth code wins on every surface", prop.ForAll(
		func(edits []edit, tooth ToothID, surface Surface, code Condition) bool {
			st := apply(edits)
			// Remove other whole-tooth codes so the expected winner is unambiguous.
			for _, s := range Surfaces() {
				if st.Condition(tooth, s).Scope() == ScopeWholeTooth {
					st.ClearCondition(tooth, s)
				}
			}
			st.ClearCondition(tooth, surface)
			st.SetCondition(tooth, surface, code)

			for _, s := range Surfaces() {
				if st.EffectiveCondition(tooth, s) != code {
					return false
				}
			}
			return true
		},
		genEdits(), genTooth(), genSurface(), genWholeCondition(),
	))

	properties.TestingRun(t)
}

func TestPropertySurfaceConditionIsLocal(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("caries/restoration only affect their own surface", prop.ForAll(
		func(edits []edit, tooth ToothID, surface Surface, code Condition) bool {
			st := apply(edits)
			for _, s := range Surfaces() {
				if st.Condition(tooth, s).Scope() == ScopeWholeTooth {
					st.ClearCondition(tooth, s)
				}
			}
			st.ClearCondition(tooth, surface)
			before := make(map[Surface]Condition)
			for _, s := range Surfaces() {
				before[s] = st.EffectiveCondition(tooth, s)
			}

			st.SetCondition(tooth, surface, code)

			for _, s := range Surfaces() {
				want := before[s]
				if s == surface {
					want = code
				}
				if st.EffectiveCondition(tooth, s) != want {
					return false
				}
			}
			return true
		},
		genEdits(), genTooth(), genSurface(), genSurfaceCondition(),
	))

	properties.TestingRun(t)
}

func TestPropertyDentitionToggleKeepsState(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("switching dentition never mutates the chart", prop.ForAll(
		func(edits []edit, toggles int) bool {
			c := NewContainer(apply(edits), nil)
			before := c.State()
			for i := 0; i < toggles; i++ {
				c.ToggleDentition()
			}
			return cmp.Equal(before, c.State())
		},
		genEdits(), gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}
