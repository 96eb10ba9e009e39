package repository

import (
	"context"
	"time"

	"github.com/Dmambo/edutrack/internal/model"
)

// AttendanceFilter narrows an attendance read. Empty fields are skipped; the
// role predicate is applied on top regardless.
type AttendanceFilter struct {
	ClassID   string
	StudentID string
	Date      string
}

func (s *Store) CreateAttendance(ctx context.Context, record model.Attendance) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance (id, student_id, class_id, attendance_date, status, notes, marked_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, record.ID, record.StudentID, record.ClassID, record.AttendanceDate, record.Status, record.Notes, record.MarkedBy, record.CreatedAt, record.UpdatedAt)
	return err
}

func (s *Store) ListAttendance(ctx context.Context, caller model.User, filter AttendanceFilter) ([]model.AttendanceRow, error) {
	sc := &scope{}
	if err := scopeAttendance(caller, sc); err != nil {
		return nil, err
	}
	if filter.ClassID != "" {
		sc.where("a.class_id = $%d", filter.ClassID)
	}
	if filter.StudentID != "" {
		sc.where("a.student_id = $%d", filter.StudentID)
	}
	if filter.Date != "" {
		sc.where("a.attendance_date = $%d", filter.Date)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.student_id, a.class_id, a.attendance_date::text, a.status, a.notes, a.marked_by, a.created_at, a.updated_at,
		       u.first_name, u.last_name, c.name
		FROM attendance a
		INNER JOIN users u ON a.student_id = u.id
		INNER JOIN classes c ON a.class_id = c.id
		WHERE 1=1`+sc.clause()+`
		ORDER BY a.attendance_date DESC, c.name
	`, sc.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.AttendanceRow, 0)
	for rows.Next() {
		var record model.AttendanceRow
		if err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.ClassID,
			&record.AttendanceDate,
			&record.Status,
			&record.Notes,
			&record.MarkedBy,
			&record.CreatedAt,
			&record.UpdatedAt,
			&record.FirstName,
			&record.LastName,
			&record.ClassName,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// AttendanceExistsForStudent reports whether the record exists and belongs
// to the given student.
func (s *Store) AttendanceExistsForStudent(ctx context.Context, recordID, studentID string) (bool, error) {
	var found bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM attendance WHERE id = $1 AND student_id = $2)
	`, recordID, studentID).Scan(&found)
	return found, err
}

type PerformanceFilter struct {
	ClassID   string
	StudentID string
}

func (s *Store) CreatePerformance(ctx context.Context, record model.Performance) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO performance (id, student_id, class_id, assessment_type, assessment_name, total_marks, obtained_marks,
		                         assessment_date, grade, remarks, entered_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, record.ID, record.StudentID, record.ClassID, record.AssessmentType, record.AssessmentName, record.TotalMarks,
		record.ObtainedMarks, record.AssessmentDate, record.Grade, record.Remarks, record.EnteredBy, record.CreatedAt, record.UpdatedAt)
	return err
}

func (s *Store) ListPerformance(ctx context.Context, caller model.User, filter PerformanceFilter) ([]model.PerformanceRow, error) {
	sc := &scope{}
	if err := scopePerformance(caller, sc); err != nil {
		return nil, err
	}
	if filter.ClassID != "" {
		sc.where("p.class_id = $%d", filter.ClassID)
	}
	if filter.StudentID != "" {
		sc.where("p.student_id = $%d", filter.StudentID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.student_id, p.class_id, p.assessment_type, p.assessment_name, p.total_marks, p.obtained_marks,
		       p.assessment_date::text, p.grade, p.remarks, p.entered_by, p.created_at, p.updated_at,
		       u.first_name, u.last_name, c.name
		FROM performance p
		INNER JOIN users u ON p.student_id = u.id
		INNER JOIN classes c ON p.class_id = c.id
		WHERE 1=1`+sc.clause()+`
		ORDER BY p.assessment_date DESC NULLS LAST, c.name
	`, sc.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.PerformanceRow, 0)
	for rows.Next() {
		var record model.PerformanceRow
		if err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.ClassID,
			&record.AssessmentType,
			&record.AssessmentName,
			&record.TotalMarks,
			&record.ObtainedMarks,
			&record.AssessmentDate,
			&record.Grade,
			&record.Remarks,
			&record.EnteredBy,
			&record.CreatedAt,
			&record.UpdatedAt,
			&record.FirstName,
			&record.LastName,
			&record.ClassName,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) PerformanceExistsForStudent(ctx context.Context, recordID, studentID string) (bool, error) {
	var found bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM performance WHERE id = $1 AND student_id = $2)
	`, recordID, studentID).Scan(&found)
	return found, err
}

const correctionColumns = `r.id, r.student_id, r.request_type, r.reference_id, r.reason, r.status, r.admin_notes, r.reviewed_by, r.reviewed_at, r.created_at, r.updated_at`

func scanCorrection(row interface{ Scan(...any) error }) (model.CorrectionRequest, error) {
	var request model.CorrectionRequest
	err := row.Scan(
		&request.ID,
		&request.StudentID,
		&request.RequestType,
		&request.ReferenceID,
		&request.Reason,
		&request.Status,
		&request.AdminNotes,
		&request.ReviewedBy,
		&request.ReviewedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	return request, err
}

func (s *Store) CreateCorrection(ctx context.Context, request model.CorrectionRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO correction_requests (id, student_id, request_type, reference_id, reason, status, admin_notes, reviewed_by, reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, request.ID, request.StudentID, request.RequestType, request.ReferenceID, request.Reason, request.Status,
		request.AdminNotes, request.ReviewedBy, request.ReviewedAt, request.CreatedAt, request.UpdatedAt)
	return err
}

func (s *Store) GetCorrection(ctx context.Context, requestID string) (model.CorrectionRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+correctionColumns+`
		FROM correction_requests r
		WHERE r.id = $1
	`, requestID)
	return scanCorrection(row)
}

func (s *Store) ListCorrections(ctx context.Context, caller model.User, status string) ([]model.CorrectionRequest, error) {
	sc := &scope{}
	if err := scopeCorrections(caller, sc); err != nil {
		return nil, err
	}
	if status != "" {
		sc.where("r.status = $%d", status)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+correctionColumns+`
		FROM correction_requests r
		WHERE 1=1`+sc.clause()+`
		ORDER BY r.created_at DESC
	`, sc.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]model.CorrectionRequest, 0)
	for rows.Next() {
		request, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// ReviewCorrection stamps the reviewer and decision. Returns false when no
// such request exists.
func (s *Store) ReviewCorrection(ctx context.Context, requestID, status string, adminNotes *string, reviewerID string, reviewedAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE correction_requests
		SET status = $1, admin_notes = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4
		WHERE id = $5
	`, status, adminNotes, reviewerID, reviewedAt, requestID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
