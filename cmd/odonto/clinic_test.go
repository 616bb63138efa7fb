package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/odonto/internal/database"
	"github.com/Mr-Dark-debug/odonto/internal/session"
)

func (e *testEnv) login(email string) string {
	e.t.Helper()
	return e.mustRun("login", "--email", email, "--password", "pw")
}

// TestMenuEntriesHaveCommands checks that every menu entry, admin-only
// ones included, opens a command.
func TestMenuEntriesHaveCommands(t *testing.T) {
	root := newRootCmd()
	for _, item := range session.Menu(session.RoleAdmin) {
		cmd, _, err := root.Find([]string{item.Key})
		require.NoError(t, err, item.Key)
		assert.NotEqual(t, root, cmd, item.Key)
		assert.True(t, cmd.Runnable() || cmd.HasSubCommands(), item.Key)
	}
}

func TestAppointmentsCommands(t *testing.T) {
	e := newTestEnv(t)
	id := e.seed()

	_, err := e.run("appointments", "add", id, "--date", "2026-03-02", "--time", "09:30")
	assert.ErrorIs(t, err, session.ErrNoSession)

	e.login("dentist@clinic.com")
	out := e.mustRun("appointments", "add", id, "--date", "2026-03-02", "--time", "09:30", "--type", "cleaning")
	assert.Contains(t, out, "Scheduled cleaning 2026-03-02 09:30")

	out = e.mustRun("appointments", "list", "--date", "2026-03-02")
	assert.Contains(t, out, "Ana Silva")
	assert.Contains(t, out, "cleaning")
	assert.Contains(t, out, "dentist", "the signed-in dentist is recorded")
	assert.NotContains(t, out, "treatment", "the seeded visit is on another day")

	var appts []*database.Appointment
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("appointments", "list", "--patient", id, "--json")), &appts))
	require.Len(t, appts, 2)

	out = e.mustRun("appointments", "status", appts[0].AppointmentID, "completed")
	assert.Contains(t, out, "is now completed")
	out = e.mustRun("appointments", "list", "--status", "completed")
	assert.Contains(t, out, appts[0].AppointmentID)
	assert.NotContains(t, out, appts[1].AppointmentID)

	_, err = e.run("appointments", "status", appts[0].AppointmentID, "lost")
	assert.ErrorContains(t, err, "unknown status")
	_, err = e.run("appointments", "add", id, "--date", "tomorrow", "--time", "10:00")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
	_, err = e.run("appointments", "add", "missing", "--date", "today", "--time", "10:00")
	assert.ErrorIs(t, err, database.ErrPatientNotFound)
}

func TestDocumentsCommands(t *testing.T) {
	e := newTestEnv(t)
	id := e.seed()

	file := filepath.Join(e.dir, "xray-36.png")
	require.NoError(t, os.WriteFile(file, make([]byte, 2000), 0o644))

	_, err := e.run("documents", "add", file, "--patient", id)
	assert.ErrorIs(t, err, session.ErrNoSession)

	e.login("aux@clinic.com")
	out := e.mustRun("documents", "add", file, "--patient", id, "--tooth", "36", "--title", "Periapical 36")
	assert.Contains(t, out, "Recorded Periapical 36 (image/png, 2.0 kB)")

	out = e.mustRun("documents", "list", "--patient", id)
	assert.Contains(t, out, "Periapical 36")
	assert.Contains(t, out, "attachment")
	assert.Contains(t, out, "xray-36.png")
	assert.Contains(t, e.mustRun("documents", "list", "--clinic"), "No documents found")

	var docs []*database.Document
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("documents", "list", "--json")), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, file, docs[0].Path)
	assert.Equal(t, "aux@clinic.com", docs[0].CreatedBy)

	assert.Contains(t, e.mustRun("report", id), "- Periapical 36 (xray-36.png, 2.0 kB), tooth 36")

	_, err = e.run("documents", "add", filepath.Join(e.dir, "missing.pdf"))
	assert.Error(t, err)
	_, err = e.run("documents", "add", e.dir)
	assert.ErrorContains(t, err, "not a regular file")
}

func TestUsersCommands(t *testing.T) {
	e := newTestEnv(t)

	e.login("dentist@clinic.com")
	_, err := e.run("users", "list")
	assert.ErrorIs(t, err, ErrNotAdmin)

	e.login("admin@clinic.com")
	assert.Contains(t, e.mustRun("users", "list"), "No users registered")
	out := e.mustRun("users", "add", "--name", "Carla Mendes", "--email", "carla@clinic.com", "--role", "dentist")
	assert.Contains(t, out, "Added Carla Mendes <carla@clinic.com> as Dentist")
	e.mustRun("users", "add", "--name", "Front Desk", "--email", "admin.front@clinic.com", "--role", "reception")

	_, err = e.run("users", "add", "--name", "Dup", "--email", "CARLA@clinic.com", "--role", "auxiliary")
	assert.ErrorIs(t, err, database.ErrUserExists)
	_, err = e.run("users", "add", "--name", "X", "--email", "x@clinic.com", "--role", "owner")
	assert.ErrorContains(t, err, "unknown role")

	out = e.mustRun("users", "list")
	assert.Contains(t, out, "Carla Mendes")
	assert.Contains(t, out, "Front Desk")

	// Registered accounts override the role derived from the email.
	assert.Contains(t, e.login("admin.front@clinic.com"), "(Reception)")
	_, err = e.run("users", "list")
	assert.ErrorIs(t, err, ErrNotAdmin)

	assert.Contains(t, e.login("carla@clinic.com"), "(Dentist)")
	assert.Contains(t, e.mustRun("dashboard"), "Signed in as Carla Mendes (Dentist)")

	e.login("admin@clinic.com")
	assert.Contains(t, e.mustRun("users", "deactivate", "carla@clinic.com"), "User carla@clinic.com deactivated")
	_, err = e.run("login", "--email", "carla@clinic.com", "--password", "pw")
	assert.ErrorIs(t, err, ErrAccountDisabled)

	out = e.mustRun("users", "list")
	assert.NotContains(t, out, "Carla Mendes")
	out = e.mustRun("users", "list", "--all")
	assert.Contains(t, out, "Carla Mendes")

	e.mustRun("users", "activate", "carla@clinic.com")
	assert.Contains(t, e.login("carla@clinic.com"), "(Dentist)")
}

func TestDashboard(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun("dashboard")
	assert.Contains(t, out, "Not signed in")
	assert.Contains(t, out, "Patients: 0")
	assert.Contains(t, out, "No appointments found")

	e.seed()
	out = e.mustRun("dashboard")
	assert.Contains(t, out, "Patients: 1")
	assert.Contains(t, out, ": 1, 1 still open")
	assert.Contains(t, out, "Ana Silva")
	assert.Contains(t, out, "treatment")
}

func TestConfigInitAndShow(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun("config", "init")
	assert.Contains(t, out, "Wrote "+e.configPath)
	_, err := os.Stat(e.configPath)
	require.NoError(t, err)

	_, err = e.run("config", "init")
	assert.ErrorContains(t, err, "already exists")
	e.mustRun("config", "init", "--force")

	out = e.mustRun("settings", "show")
	assert.Contains(t, out, "# "+e.configPath)
	assert.Contains(t, out, "history_limit: 20")
	assert.Contains(t, out, "db_path: "+e.dbPath, "environment overrides are shown")
}

func TestChartShowAllRegions(t *testing.T) {
	e := newTestEnv(t)
	id := e.seed()

	out := e.mustRun("chart", "show", id, "--all")
	// Two title lines, the header, then five regions for each of 32 teeth.
	assert.Equal(t, 3+32*5, strings.Count(out, "\n"))
	assert.Equal(t, 5, strings.Count(out, "Crown"), "tooth 47's crown governs every surface")
	assert.Equal(t, 5, strings.Count(out, "Extraction"), "extraction on 18 hides its caries")
	assert.Equal(t, 1, strings.Count(out, "Restoration"))

	out = e.mustRun("chart", "show", id, "--all", "--child")
	assert.Equal(t, 3+20*5, strings.Count(out, "\n"))
	assert.NotContains(t, out, "Crown")
}
