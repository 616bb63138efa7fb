package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
)

func newTestStore(t *testing.T) *DBService {
	t.Helper()
	svc, err := NewDBService(":memory:")
	require.NoError(t, err, "NewDBService(:memory:)")
	t.Cleanup(func() { svc.Close() })
	return svc
}

func insertTestPatient(t *testing.T, svc *DBService, name string) *Patient {
	t.Helper()
	p := &Patient{Name: name, Gender: "female"}
	require.NoError(t, svc.InsertPatient(p))
	return p
}

// TestNewDBService verifies that the database initializes with the
// embedded schema.
func TestNewDBService(t *testing.T) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService(:memory:) failed: %v", err)
	}
	defer svc.Close()
}

func TestInsertAndGetPatient(t *testing.T) {
	svc := newTestStore(t)

	p := &Patient{
		Name:      "Ana Silva",
		BirthDate: "1985-05-15",
		Gender:    "female",
		CPF:       "12345678900",
		Email:     "ana@example.com",
		Address: &Address{
			Street: "Rua das Flores", Number: "123", City: "São Paulo", State: "SP",
		},
		Observations: "Allergic to penicillin",
	}
	require.NoError(t, svc.InsertPatient(p))
	assert.NotEmpty(t, p.PatientID, "ID must be generated")
	assert.NotZero(t, p.CreatedAt)

	got, err := svc.GetPatient(p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestInsertPatientUpdatesExisting(t *testing.T) {
	svc := newTestStore(t)
	p := insertTestPatient(t, svc, "Ana")

	p.Phone = "11987654321"
	require.NoError(t, svc.InsertPatient(p))

	got, err := svc.GetPatient(p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, "11987654321", got.Phone)
}

func TestGetPatientNotFound(t *testing.T) {
	svc := newTestStore(t)

	_, err := svc.GetPatient("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPatientNotFound))
}

func TestListPatientsFilter(t *testing.T) {
	svc := newTestStore(t)
	for _, name := range []string{"Carlos Souza", "ana silva", "Bruno 100%"} {
		insertTestPatient(t, svc, name)
	}

	all, err := svc.ListPatients(PatientFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ana silva", all[0].Name, "ordered by name, case-insensitive")

	q := "SILVA"
	got, err := svc.ListPatients(PatientFilter{Name: &q})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ana silva", got[0].Name)

	pct := "0%"
	got, err = svc.ListPatients(PatientFilter{Name: &pct})
	require.NoError(t, err)
	require.Len(t, got, 1, "LIKE wildcards in the query must be literal")

	got, err = svc.ListPatients(PatientFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bruno 100%", got[0].Name)
}

func TestLoadChartEmpty(t *testing.T) {
	svc := newTestStore(t)
	p := insertTestPatient(t, svc, "Ana")

	rec, err := svc.LoadChart(p.PatientID)
	require.NoError(t, err)
	assert.Zero(t, rec.Revision)
	assert.NotNil(t, rec.State)
	assert.Empty(t, rec.State)
}

func TestSaveAndLoadChart(t *testing.T) {
	svc := newTestStore(t)
	p := insertTestPatient(t, svc, "Ana")

	st := chart.State{}
	st.SetCondition("18", chart.Top, chart.Caries)
	st.SetCondition("18", chart.Right, chart.Extraction)
	st.SetNotes("18", "extraction recommended")
	st.SetCondition("99", "buccal", "sealant")

	applied, err := svc.SaveChart(ChartSave{PatientID: p.PatientID, Revision: 1, State: st, SavedBy: "dentist@example.com"})
	require.NoError(t, err)
	require.True(t, applied)

	rec, err := svc.LoadChart(p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Revision)
	assert.Equal(t, st, rec.State)
	assert.Equal(t, "dentist@example.com", rec.SavedBy)
}

// TestSaveChartDropsEmptySurfaceKeys verifies that empty surface codes
// are neither written nor read back.
func TestSaveChartDropsEmptySurfaceKeys(t *testing.T) {
	svc := newTestStore(t)
	p := insertTestPatient(t, svc, "Ana")

	st := chart.State{
		"18": {Surfaces: map[chart.Surface]chart.Condition{chart.Top: chart.None, chart.Left: chart.Caries}},
		"26": {Surfaces: map[chart.Surface]chart.Condition{chart.Center: chart.None}},
	}
	applied, err := svc.SaveChart(ChartSave{PatientID: p.PatientID, Revision: 1, State: st})
	require.NoError(t, err)
	require.True(t, applied)
	assert.Contains(t, st["18"].Surfaces, chart.Top, "caller's state is untouched")

	rec, err := svc.LoadChart(p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, []chart.ToothID{"18"}, rec.State.Teeth())
	assert.Equal(t, map[chart.Surface]chart.Condition{chart.Left: chart.Caries}, rec.State["18"].Surfaces)

	// Rows written before pruning existed are cleaned on read.
	_, err = svc.db.Exec(`UPDATE charts SET data = ? WHERE patient_id = ?`,
		`{"36":{"surfaces":{"top":""},"notes":""}}`, p.PatientID)
	require.NoError(t, err)
	rec, err = svc.LoadChart(p.PatientID)
	require.NoError(t, err)
	assert.Empty(t, rec.State)
}

// TestSaveChartRejectsStale verifies that an older snapshot arriving
// after a newer one does not overwrite it.
func TestSaveChartRejectsStale(t *testing.T) {
	svc := newTestStore(t)
	p := insertTestPatient(t, svc, "Ana")

	newer := chart.State{}
	newer.SetCondition("26", chart.Center, chart.Crown)
	older := chart.State{}
	older.SetCondition("26", chart.Center, chart.Restoration)

	applied, err := svc.SaveChart(ChartSave{PatientID: p.PatientID, Revision: 5, State: newer})
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = svc.SaveChart(ChartSave{PatientID: p.PatientID, Revision: 4, State: older})
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = svc.SaveChart(ChartSave{PatientID: p.PatientID, Revision: 5, State: older})
	require.NoError(t, err)
	assert.False(t, applied, "equal revision is stale too")

	rec, err := svc.LoadChart(p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Revision)
	assert.Equal(t, chart.Crown, rec.State.Condition("26", chart.Center))

	history, err := svc.ChartHistory(p.PatientID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1, "stale saves must not reach the history")
}

func TestSaveChartUnknownPatient(t *testing.T) {
	svc := newTestStore(t)

	_, err := svc.SaveChart(ChartSave{PatientID: "ghost", Revision: 1, State: chart.State{}})
	assert.Error(t, err, "foreign key must reject charts of unknown patients")
}

func TestChartHistory(t *testing.T) {
	svc := newTestStore(t)
	p := insertTestPatient(t, svc, "Ana")

	st := chart.State{}
	for rev := int64(1); rev <= 5; rev++ {
		st.SetNotes("11", fmt.Sprintf("visit %d", rev))
		_, err := svc.SaveChart(ChartSave{PatientID: p.PatientID, Revision: rev, State: st.Clone()})
		require.NoError(t, err)
	}

	history, err := svc.ChartHistory(p.PatientID, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, want := range []int64{3, 4, 5} {
		assert.Equal(t, want, history[i].Revision)
		assert.Equal(t, fmt.Sprintf("visit %d", want), history[i].State.Notes("11"))
	}

	history, err = svc.ChartHistory(p.PatientID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

// BenchmarkSaveChart measures full-snapshot save throughput.
func BenchmarkSaveChart(b *testing.B) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		b.Fatalf("NewDBService failed: %v", err)
	}
	defer svc.Close()

	p := &Patient{Name: "bench"}
	if err := svc.InsertPatient(p); err != nil {
		b.Fatalf("InsertPatient failed: %v", err)
	}

	st := chart.State{}
	for _, id := range chart.Layout(chart.Adult).Teeth() {
		st.SetCondition(id, chart.Top, chart.Caries)
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := svc.SaveChart(ChartSave{PatientID: p.PatientID, Revision: int64(n + 1), State: st}); err != nil {
			b.Fatalf("SaveChart failed: %v", err)
		}
	}
}
