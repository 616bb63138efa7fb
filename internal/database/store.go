// Package database provides the storage layer for Odonto.
//
// It implements the Store interface using SQLite in WAL mode. Patients
// and their current odontogram live in separate tables; every applied
// chart save is also appended to a history table. Appointments, document
// metadata and staff accounts have tables of their own. Chart saves carry a
// revision and are only applied when they are newer than what is
// stored, so saves that complete out of order cannot roll a chart back.
package database

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrPatientNotFound is returned when a patient ID does not exist.
var ErrPatientNotFound = errors.New("patient not found")

// Store defines the interface for patient and chart persistence.
type Store interface {
	// InsertPatient persists a patient. An empty ID is filled with a new UUID.
	InsertPatient(p *Patient) error
	// GetPatient returns one patient or ErrPatientNotFound.
	GetPatient(patientID string) (*Patient, error)
	// ListPatients returns patients matching the filter, ordered by name.
	ListPatients(filter PatientFilter) ([]*Patient, error)
	// CountPatients returns the number of registered patients.
	CountPatients() (int, error)

	// LoadChart returns the current chart of a patient. A patient without a
	// saved chart yields an empty chart at revision 0.
	LoadChart(patientID string) (*ChartRecord, error)
	// SaveChart stores a chart snapshot if its revision is newer than the
	// stored one. applied is false for stale snapshots.
	SaveChart(save ChartSave) (applied bool, err error)
	// ChartHistory returns up to limit most recent saves, oldest first.
	ChartHistory(patientID string, limit int) ([]*ChartRecord, error)

	// InsertAppointment validates and stores an appointment.
	InsertAppointment(a *Appointment) error
	// ListAppointments returns appointments ordered by date and time.
	ListAppointments(filter AppointmentFilter) ([]*Appointment, error)
	// UpdateAppointmentStatus moves an appointment to a new status.
	UpdateAppointmentStatus(appointmentID string, status AppointmentStatus) error

	// InsertDocument stores document or attachment metadata.
	InsertDocument(d *Document) error
	// ListDocuments returns document metadata, newest first.
	ListDocuments(filter DocumentFilter) ([]*Document, error)

	// InsertUser registers a staff account.
	InsertUser(u *User) error
	// GetUserByEmail returns a user or ErrUserNotFound.
	GetUserByEmail(email string) (*User, error)
	// ListUsers returns staff accounts ordered by name.
	ListUsers(includeInactive bool) ([]*User, error)
	// SetUserActive enables or disables a user's sign-in.
	SetUserActive(email string, active bool) error

	// Close gracefully shuts down the database connection.
	Close() error
}

// ============================================================
// Domain Models
// ============================================================

// Address is a patient's postal address.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

// Patient is a clinic patient.
type Patient struct {
	PatientID    string   `json:"patient_id"`
	Name         string   `json:"name"`
	BirthDate    string   `json:"birth_date"` // YYYY-MM-DD
	Gender       string   `json:"gender"`     // male, female, other
	CPF          string   `json:"cpf"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Address      *Address `json:"address,omitempty"`
	Observations string   `json:"observations"`
	CreatedAt    int64    `json:"created_at"` // Unix nanoseconds
}

// PatientFilter defines query parameters for patient listing.
type PatientFilter struct {
	Name   *string `json:"name,omitempty"` // case-insensitive substring
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ChartSave is one snapshot handed to SaveChart.
type ChartSave struct {
	PatientID string      `json:"patient_id"`
	Revision  int64       `json:"revision"`
	State     chart.State `json:"state"`
	SavedBy   string      `json:"saved_by,omitempty"`
}

// ChartRecord is a stored chart snapshot.
type ChartRecord struct {
	PatientID string      `json:"patient_id"`
	Revision  int64       `json:"revision"`
	State     chart.State `json:"state"`
	SavedBy   string      `json:"saved_by,omitempty"`
	SavedAt   int64       `json:"saved_at"` // Unix nanoseconds
}

// ============================================================
// DBService Implementation
// ============================================================

// DBService implements the Store interface using SQLite.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	stmtInsertPatient *sql.Stmt
	stmtUpsertChart   *sql.Stmt
	stmtInsertHistory *sql.Stmt
}

// NewDBService opens (or creates) the database at path, applies the
// schema and prepares statements. Use ":memory:" in tests.
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{
		db:   db,
		path: path,
	}

	if err := svc.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	return svc, nil
}

func (s *DBService) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading embedded schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtInsertPatient, err = s.db.Prepare(`
		INSERT INTO patients (patient_id, name, birth_date, gender, cpf, phone, email,
			address, observations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			name = excluded.name,
			birth_date = excluded.birth_date,
			gender = excluded.gender,
			cpf = excluded.cpf,
			phone = excluded.phone,
			email = excluded.email,
			address = excluded.address,
			observations = excluded.observations
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertPatient: %w", err)
	}

	s.stmtUpsertChart, err = s.db.Prepare(`
		INSERT INTO charts (patient_id, revision, data, saved_by, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			revision = excluded.revision,
			data = excluded.data,
			saved_by = excluded.saved_by,
			updated_at = excluded.updated_at
		WHERE excluded.revision > charts.revision
	`)
	if err != nil {
		return fmt.Errorf("preparing UpsertChart: %w", err)
	}

	s.stmtInsertHistory, err = s.db.Prepare(`
		INSERT INTO chart_history (patient_id, revision, data, saved_by, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertHistory: %w", err)
	}

	return nil
}

// InsertPatient persists a patient, updating it if the ID already exists.
func (s *DBService) InsertPatient(p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.PatientID == "" {
		p.PatientID = uuid.NewString()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixNano()
	}
	if p.Gender == "" {
		p.Gender = "other"
	}

	var addressJSON *string
	if p.Address != nil {
		b, err := json.Marshal(p.Address)
		if err != nil {
			return fmt.Errorf("marshaling address of patient %s: %w", p.PatientID, err)
		}
		str := string(b)
		addressJSON = &str
	}

	_, err := s.stmtInsertPatient.Exec(
		p.PatientID, p.Name, p.BirthDate, p.Gender, p.CPF, p.Phone, p.Email,
		addressJSON, p.Observations, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting patient %s: %w", p.PatientID, err)
	}
	return nil
}

// GetPatient returns a single patient by ID.
func (s *DBService) GetPatient(patientID string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT patient_id, name, birth_date, gender, cpf, phone, email,
			address, observations, created_at
		FROM patients WHERE patient_id = ?
	`, patientID)

	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("patient %s: %w", patientID, ErrPatientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying patient %s: %w", patientID, err)
	}
	return p, nil
}

// ListPatients returns patients matching the filter ordered by name.
func (s *DBService) ListPatients(filter PatientFilter) ([]*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT patient_id, name, birth_date, gender, cpf, phone, email,
		address, observations, created_at FROM patients WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.Name != nil && *filter.Name != "" {
		query += ` AND name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(*filter.Name)+"%")
	}

	query += ` ORDER BY name COLLATE NOCASE ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else {
		query += ` LIMIT 100`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning patient row: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// CountPatients returns the number of registered patients.
func (s *DBService) CountPatients() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting patients: %w", err)
	}
	return n, nil
}

// LoadChart returns the current chart for a patient.
func (s *DBService) LoadChart(patientID string) (*ChartRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := &ChartRecord{PatientID: patientID}
	var data string
	err := s.db.QueryRow(`
		SELECT revision, data, saved_by, updated_at FROM charts WHERE patient_id = ?
	`, patientID).Scan(&rec.Revision, &data, &rec.SavedBy, &rec.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		rec.State = chart.State{}
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading chart of patient %s: %w", patientID, err)
	}

	if rec.State, err = decodeState(data); err != nil {
		return nil, fmt.Errorf("decoding chart of patient %s: %w", patientID, err)
	}
	return rec, nil
}

// SaveChart applies a snapshot if it is newer than the stored chart and
// appends it to the history, in one transaction.
func (s *DBService) SaveChart(save ChartSave) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := save.State.Clone()
	st.Prune()
	data, err := json.Marshal(st)
	if err != nil {
		return false, fmt.Errorf("marshaling chart of patient %s: %w", save.PatientID, err)
	}
	now := time.Now().UnixNano()

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning chart save transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.Stmt(s.stmtUpsertChart).Exec(
		save.PatientID, save.Revision, string(data), save.SavedBy, now,
	)
	if err != nil {
		return false, fmt.Errorf("saving chart of patient %s rev %d: %w", save.PatientID, save.Revision, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking chart save of patient %s: %w", save.PatientID, err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.Stmt(s.stmtInsertHistory).Exec(
		save.PatientID, save.Revision, string(data), save.SavedBy, now,
	); err != nil {
		return false, fmt.Errorf("recording chart history of patient %s: %w", save.PatientID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing chart save of patient %s: %w", save.PatientID, err)
	}
	return true, nil
}

// ChartHistory returns the most recent applied saves, oldest first.
func (s *DBService) ChartHistory(patientID string, limit int) ([]*ChartRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT revision, data, saved_by, saved_at FROM (
			SELECT revision, data, saved_by, saved_at, history_id
			FROM chart_history
			WHERE patient_id = ?
			ORDER BY history_id DESC
			LIMIT ?
		) ORDER BY history_id ASC
	`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chart history of patient %s: %w", patientID, err)
	}
	defer rows.Close()

	var records []*ChartRecord
	for rows.Next() {
		rec := &ChartRecord{PatientID: patientID}
		var data string
		if err := rows.Scan(&rec.Revision, &data, &rec.SavedBy, &rec.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning chart history row: %w", err)
		}
		if rec.State, err = decodeState(data); err != nil {
			return nil, fmt.Errorf("decoding chart history rev %d: %w", rec.Revision, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes prepared statements and the connection pool.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []*sql.Stmt{s.stmtInsertPatient, s.stmtUpsertChart, s.stmtInsertHistory}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}

	return s.db.Close()
}

// ============================================================
// Scan Helpers
// ============================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	p := &Patient{}
	var addressStr *string
	if err := row.Scan(
		&p.PatientID, &p.Name, &p.BirthDate, &p.Gender, &p.CPF, &p.Phone, &p.Email,
		&addressStr, &p.Observations, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if addressStr != nil {
		var addr Address
		if err := json.Unmarshal([]byte(*addressStr), &addr); err == nil {
			p.Address = &addr
		}
	}
	return p, nil
}

func decodeState(data string) (chart.State, error) {
	st := chart.State{}
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, err
	}
	st.Prune()
	return st, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
