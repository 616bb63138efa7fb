package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
)

// DocumentCategory groups clinic documents and patient attachments.
type DocumentCategory string

const (
	CategoryProtocol   DocumentCategory = "protocol"
	CategoryForm       DocumentCategory = "form"
	CategoryContract   DocumentCategory = "contract"
	CategoryManual     DocumentCategory = "manual"
	CategoryAttachment DocumentCategory = "attachment"
	CategoryOther      DocumentCategory = "other"
)

// DocumentCategories lists the valid categories.
func DocumentCategories() []DocumentCategory {
	return []DocumentCategory{
		CategoryProtocol, CategoryForm, CategoryContract, CategoryManual, CategoryAttachment, CategoryOther,
	}
}

// Valid reports whether c is a known category.
func (c DocumentCategory) Valid() bool {
	for _, known := range DocumentCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Document is file metadata. Documents with a PatientID are attachments
// of that patient, optionally tied to one tooth; the rest belong to the
// clinic. The file itself stays where Path points.
type Document struct {
	DocumentID  string           `json:"document_id"`
	PatientID   string           `json:"patient_id,omitempty"`
	Tooth       chart.ToothID    `json:"tooth,omitempty"`
	Category    DocumentCategory `json:"category"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	FileName    string           `json:"file_name"`
	FileType    string           `json:"file_type"`
	FileSize    int64            `json:"file_size"`
	Path        string           `json:"path"`
	CreatedBy   string           `json:"created_by"`
	UploadedAt  int64            `json:"uploaded_at"` // Unix nanoseconds
}

// DocumentFilter defines query parameters for document listing.
type DocumentFilter struct {
	PatientID  string           `json:"patient_id,omitempty"`
	ClinicOnly bool             `json:"clinic_only,omitempty"` // documents without a patient
	Category   DocumentCategory `json:"category,omitempty"`
	Limit      int              `json:"limit"`
}

// InsertDocument stores document metadata. An empty ID is filled with a
// new UUID, an empty category becomes "attachment" for patient files and
// "other" for clinic files.
func (s *DBService) InsertDocument(d *Document) error {
	if d.Title == "" {
		d.Title = d.FileName
	}
	if d.Category == "" {
		d.Category = CategoryOther
		if d.PatientID != "" {
			d.Category = CategoryAttachment
		}
	}
	var errs []error
	if d.Title == "" {
		errs = append(errs, errors.New("title or file name is required"))
	}
	if !d.Category.Valid() {
		errs = append(errs, fmt.Errorf("unknown category %q", d.Category))
	}
	if d.Tooth != "" {
		if d.PatientID == "" {
			errs = append(errs, errors.New("a tooth needs a patient"))
		} else if !chart.Adult.Contains(d.Tooth) && !chart.Child.Contains(d.Tooth) {
			errs = append(errs, fmt.Errorf("unknown tooth %q", d.Tooth))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d.DocumentID == "" {
		d.DocumentID = uuid.NewString()
	}
	if d.UploadedAt == 0 {
		d.UploadedAt = time.Now().UnixNano()
	}

	var patientID *string
	if d.PatientID != "" {
		var exists int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM patients WHERE patient_id = ?`, d.PatientID).Scan(&exists); err != nil {
			return fmt.Errorf("checking patient %s: %w", d.PatientID, err)
		}
		if exists == 0 {
			return fmt.Errorf("patient %s: %w", d.PatientID, ErrPatientNotFound)
		}
		patientID = &d.PatientID
	}

	_, err := s.db.Exec(`
		INSERT INTO documents (document_id, patient_id, tooth, category, title, description,
			file_name, file_type, file_size, path, created_by, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.DocumentID, patientID, string(d.Tooth), string(d.Category), d.Title, d.Description,
		d.FileName, d.FileType, d.FileSize, d.Path, d.CreatedBy, d.UploadedAt)
	if err != nil {
		return fmt.Errorf("inserting document %s: %w", d.DocumentID, err)
	}
	return nil
}

// ListDocuments returns documents matching the filter, newest first.
func (s *DBService) ListDocuments(filter DocumentFilter) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT document_id, patient_id, tooth, category, title, description,
		file_name, file_type, file_size, path, created_by, uploaded_at
		FROM documents WHERE 1=1`
	args := make([]interface{}, 0)

	switch {
	case filter.PatientID != "":
		query += ` AND patient_id = ?`
		args = append(args, filter.PatientID)
	case filter.ClinicOnly:
		query += ` AND patient_id IS NULL`
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}

	query += ` ORDER BY uploaded_at DESC, title ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else {
		query += ` LIMIT 100`
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d := &Document{}
		var patientID sql.NullString
		var tooth, category string
		if err := rows.Scan(&d.DocumentID, &patientID, &tooth, &category, &d.Title, &d.Description,
			&d.FileName, &d.FileType, &d.FileSize, &d.Path, &d.CreatedBy, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		d.PatientID = patientID.String
		d.Tooth = chart.ToothID(tooth)
		d.Category = DocumentCategory(category)
		out = append(out, d)
	}
	return out, rows.Err()
}
