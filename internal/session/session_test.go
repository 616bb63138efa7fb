package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleForEmail(t *testing.T) {
	tests := []struct {
		email string
		want  Role
	}{
		{"admin@clinic.com", RoleAdmin},
		{"Dr.Dentist@clinic.com", RoleDentist},
		{"aux.maria@clinic.com", RoleAuxiliary},
		{"front@clinic.com", RoleReception},
		{"", RoleReception},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleForEmail(tt.email))
		})
	}
}

func TestLogin(t *testing.T) {
	s, err := Login(" dentist@clinic.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "dentist@clinic.com", s.Email)
	assert.Equal(t, "dentist", s.Name)
	assert.Equal(t, RoleDentist, s.Role)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.IsAdmin())

	_, err = Login("", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = Login("a@b.c", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMenu(t *testing.T) {
	keys := func(items []MenuItem) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.Key)
		}
		return out
	}

	assert.Equal(t,
		[]string{"dashboard", "users", "patients", "appointments", "documents", "settings"},
		keys(Menu(RoleAdmin)))
	assert.Equal(t,
		[]string{"dashboard", "patients", "appointments", "documents"},
		keys(Menu(RoleReception)))
	assert.Equal(t, keys(Menu(RoleReception)), keys(Menu(RoleDentist)))
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.yaml"))

	_, err := fs.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	s, err := Login("admin@clinic.com", "pw")
	require.NoError(t, err)
	require.NoError(t, fs.Save(s))

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Email, got.Email)
	assert.Equal(t, RoleAdmin, got.Role)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, got.IsAdmin())

	require.NoError(t, fs.Clear())
	_, err = fs.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, fs.Clear(), "clearing twice is fine")
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email: [unterminated"), 0o600))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	got, err := ParseRole(" Dentist ")
	require.NoError(t, err)
	assert.Equal(t, RoleDentist, got)

	_, err = ParseRole("owner")
	assert.ErrorContains(t, err, `unknown role "owner"`)
}

func TestIsAdmin(t *testing.T) {
	var none *Session
	assert.False(t, none.IsAdmin())
	assert.True(t, (&Session{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&Session{Role: RoleDentist}).IsAdmin())
}
