package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrUserNotFound is returned when no user has the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = errors.New("user already exists")
)

// User is a clinic staff account. Role holds a session role name.
type User struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CPF       string `json:"cpf,omitempty"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"created_at"` // Unix nanoseconds
}

// InsertUser registers a user. Emails are unique ignoring case.
func (s *DBService) InsertUser(u *User) error {
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" || u.Name == "" || u.Role == "" {
		return errors.New("invalid user: name, email and role are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().UnixNano()
	}

	_, err := s.db.Exec(`
		INSERT INTO users (user_id, name, email, cpf, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.UserID, u.Name, u.Email, u.CPF, u.Role, u.Active, u.CreatedAt)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w", u.Email, ErrUserExists)
	}
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", u.Email, err)
	}
	return nil
}

// GetUserByEmail returns a user or ErrUserNotFound.
func (s *DBService) GetUserByEmail(email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := &User{}
	err := s.db.QueryRow(`
		SELECT user_id, name, email, cpf, role, active, created_at
		FROM users WHERE email = ? COLLATE NOCASE
	`, strings.TrimSpace(email)).Scan(&u.UserID, &u.Name, &u.Email, &u.CPF, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", email, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", email, err)
	}
	return u, nil
}

// ListUsers returns users ordered by name. Inactive users are included
// only when asked for.
func (s *DBService) ListUsers(includeInactive bool) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT user_id, name, email, cpf, role, active, created_at FROM users`
	if !includeInactive {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u := &User{}
		if err := rows.Scan(&u.UserID, &u.Name, &u.Email, &u.CPF, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetUserActive enables or disables a user's sign-in.
func (s *DBService) SetUserActive(email string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE users SET active = ? WHERE email = ? COLLATE NOCASE`,
		active, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("updating user %s: %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking user update %s: %w", email, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", email, ErrUserNotFound)
	}
	return nil
}
