package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrAppointmentNotFound is returned when an appointment ID does not exist.
var ErrAppointmentNotFound = errors.New("appointment not found")

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentStatuses lists the valid statuses in lifecycle order.
func AppointmentStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled}
}

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	for _, known := range AppointmentStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// AppointmentType is the kind of visit.
type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeCleaning     AppointmentType = "cleaning"
	TypeTreatment    AppointmentType = "treatment"
	TypeSurgery      AppointmentType = "surgery"
	TypeEmergency    AppointmentType = "emergency"
)

// AppointmentTypes lists the valid visit types.
func AppointmentTypes() []AppointmentType {
	return []AppointmentType{TypeConsultation, TypeCleaning, TypeTreatment, TypeSurgery, TypeEmergency}
}

// Valid reports whether t is a known visit type.
func (t AppointmentType) Valid() bool {
	for _, known := range AppointmentTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Appointment is a scheduled visit.
type Appointment struct {
	AppointmentID string            `json:"appointment_id"`
	PatientID     string            `json:"patient_id"`
	PatientName   string            `json:"patient_name"` // filled on read
	DentistEmail  string            `json:"dentist_email"`
	DentistName   string            `json:"dentist_name"`
	Date          string            `json:"date"`     // YYYY-MM-DD
	Time          string            `json:"time"`     // HH:MM
	Duration      int               `json:"duration"` // minutes
	Status        AppointmentStatus `json:"status"`
	Type          AppointmentType   `json:"type"`
	Notes         string            `json:"notes"`
	CreatedAt     int64             `json:"created_at"` // Unix nanoseconds
}

// AppointmentFilter defines query parameters for appointment listing.
// Empty fields do not filter.
type AppointmentFilter struct {
	PatientID string            `json:"patient_id,omitempty"`
	From      string            `json:"from,omitempty"` // inclusive, YYYY-MM-DD
	To        string            `json:"to,omitempty"`   // inclusive, YYYY-MM-DD
	Status    AppointmentStatus `json:"status,omitempty"`
	Limit     int               `json:"limit"`
}

// Validate fills defaults and checks an appointment before it is stored.
func (a *Appointment) Validate() error {
	var errs []error
	if a.PatientID == "" {
		errs = append(errs, errors.New("patient is required"))
	}
	if _, err := time.Parse("2006-01-02", a.Date); err != nil {
		errs = append(errs, fmt.Errorf("date %q is not YYYY-MM-DD", a.Date))
	}
	if _, err := time.Parse("15:04", a.Time); err != nil {
		errs = append(errs, fmt.Errorf("time %q is not HH:MM", a.Time))
	}
	if a.Duration == 0 {
		a.Duration = 30
	}
	if a.Duration < 0 {
		errs = append(errs, errors.New("duration must be positive"))
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !a.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown status %q", a.Status))
	}
	if a.Type == "" {
		a.Type = TypeConsultation
	}
	if !a.Type.Valid() {
		errs = append(errs, fmt.Errorf("unknown type %q", a.Type))
	}
	return errors.Join(errs...)
}

// InsertAppointment validates and stores an appointment. An empty ID is
// filled with a new UUID.
func (s *DBService) InsertAppointment(a *Appointment) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid appointment: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a.AppointmentID == "" {
		a.AppointmentID = uuid.NewString()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().UnixNano()
	}

	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM patients WHERE patient_id = ?`, a.PatientID).Scan(&exists); err != nil {
		return fmt.Errorf("checking patient %s: %w", a.PatientID, err)
	}
	if exists == 0 {
		return fmt.Errorf("patient %s: %w", a.PatientID, ErrPatientNotFound)
	}

	_, err := s.db.Exec(`
		INSERT INTO appointments (appointment_id, patient_id, dentist_email, dentist_name,
			date, time, duration, status, type, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.AppointmentID, a.PatientID, a.DentistEmail, a.DentistName,
		a.Date, a.Time, a.Duration, string(a.Status), string(a.Type), a.Notes, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting appointment %s: %w", a.AppointmentID, err)
	}
	return nil
}

// ListAppointments returns appointments matching the filter ordered by
// date and time.
func (s *DBService) ListAppointments(filter AppointmentFilter) ([]*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT a.appointment_id, a.patient_id, COALESCE(p.name, ''), a.dentist_email,
		a.dentist_name, a.date, a.time, a.duration, a.status, a.type, a.notes, a.created_at
		FROM appointments a LEFT JOIN patients p ON p.patient_id = a.patient_id
		WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.PatientID != "" {
		query += ` AND a.patient_id = ?`
		args = append(args, filter.PatientID)
	}
	if filter.From != "" {
		query += ` AND a.date >= ?`
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += ` AND a.date <= ?`
		args = append(args, filter.To)
	}
	if filter.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, string(filter.Status))
	}

	query += ` ORDER BY a.date ASC, a.time ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else {
		query += ` LIMIT 100`
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a := &Appointment{}
		var status, typ string
		if err := rows.Scan(&a.AppointmentID, &a.PatientID, &a.PatientName, &a.DentistEmail,
			&a.DentistName, &a.Date, &a.Time, &a.Duration, &status, &typ, &a.Notes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning appointment row: %w", err)
		}
		a.Status = AppointmentStatus(status)
		a.Type = AppointmentType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAppointmentStatus moves an appointment to a new status.
func (s *DBService) UpdateAppointmentStatus(appointmentID string, status AppointmentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE appointments SET status = ? WHERE appointment_id = ?`,
		string(status), appointmentID)
	if err != nil {
		return fmt.Errorf("updating appointment %s: %w", appointmentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking appointment update %s: %w", appointmentID, err)
	}
	if n == 0 {
		return fmt.Errorf("appointment %s: %w", appointmentID, ErrAppointmentNotFound)
	}
	return nil
}
