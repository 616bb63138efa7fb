// Package session holds the signed-in user.
//
// There is no ambient global: commands load a Session from a FileStore
// and pass it down explicitly. Logout clears the file.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrNoSession is returned when nobody is signed in.
var ErrNoSession = errors.New("not signed in")

// ErrInvalidCredentials is returned for an empty email or password.
var ErrInvalidCredentials = errors.New("email and password are required")

// Role is a user role.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDentist   Role = "dentist"
	RoleAuxiliary Role = "auxiliary"
	RoleReception Role = "reception"
)

// Label returns the role name for display.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleDentist:
		return "Dentist"
	case RoleAuxiliary:
		return "Auxiliary"
	case RoleReception:
		return "Reception"
	}
	return string(r)
}

// Roles lists every role, most privileged first.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDentist, RoleAuxiliary, RoleReception}
}

// ParseRole returns the role named s, ignoring case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles() {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q: use admin, dentist, auxiliary or reception", s)
}

// RoleForEmail derives a role from an email address.
func RoleForEmail(email string) Role {
	e := strings.ToLower(email)
	switch {
	case strings.Contains(e, "admin"):
		return RoleAdmin
	case strings.Contains(e, "dentist"):
		return RoleDentist
	case strings.Contains(e, "aux"):
		return RoleAuxiliary
	default:
		return RoleReception
	}
}

// Session is a signed-in user.
type Session struct {
	ID        string    `yaml:"id"`
	Email     string    `yaml:"email"`
	Name      string    `yaml:"name"`
	Role      Role      `yaml:"role"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Login authenticates a user. Any non-empty credentials are accepted;
// the role comes from the email. Callers holding a registered account
// overwrite Name and Role from it.
func Login(email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	return &Session{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      RoleForEmail(email),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}, nil
}

// IsAdmin reports whether the session has the admin role.
func (s *Session) IsAdmin() bool { return s != nil && s.Role == RoleAdmin }

// ────────────────────────────────────────────────────────────
// Menu
// ────────────────────────────────────────────────────────────

// MenuItem is one navigation entry.
type MenuItem struct {
	Key       string
	Label     string
	AdminOnly bool
}

var menu = []MenuItem{
	{Key: "dashboard", Label: "Dashboard"},
	{Key: "users", Label: "Users", AdminOnly: true},
	{Key: "patients", Label: "Patients"},
	{Key: "appointments", Label: "Appointments"},
	{Key: "documents", Label: "Documents"},
	{Key: "settings", Label: "Settings", AdminOnly: true},
}

// Menu returns the navigation items visible to a role.
func Menu(role Role) []MenuItem {
	out := make([]MenuItem, 0, len(menu))
	for _, item := range menu {
		if item.AdminOnly && role != RoleAdmin {
			continue
		}
		out = append(out, item)
	}
	return out
}

// ────────────────────────────────────────────────────────────
// FileStore
// ────────────────────────────────────────────────────────────

// FileStore persists a session as a YAML file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the stored session. It returns ErrNoSession when the file
// does not exist.
func (f *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", f.Path, err)
	}
	if s.Email == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes the session, creating the parent directory if needed.
func (f *FileStore) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is not
// an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
