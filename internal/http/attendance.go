package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dmambo/edutrack/internal/model"
	"github.com/Dmambo/edutrack/internal/repository"
)

func normalizeStatus(raw string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "present":
		return "present", nil
	case "absent":
		return "absent", nil
	case "late":
		return "late", nil
	case "excused":
		return "excused", nil
	default:
		return "", errors.New("invalid attendance status")
	}
}

type markAttendanceRequest struct {
	StudentID      string  `json:"student_id"`
	ClassID        string  `json:"class_id"`
	AttendanceDate string  `json:"attendance_date"`
	Status         string  `json:"status"`
	Notes          *string `json:"notes,omitempty"`
}

func (s *Server) handleCreateAttendance(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req markAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.ClassID = strings.TrimSpace(req.ClassID)
	req.AttendanceDate = strings.TrimSpace(req.AttendanceDate)
	if req.StudentID == "" || req.ClassID == "" || req.AttendanceDate == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if !validDate(req.AttendanceDate) {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	status, err := normalizeStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	found, err := s.store.ActiveUserExists(r.Context(), req.StudentID, model.RoleStudent)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "student_not_found")
		return
	}
	found, err = s.store.ActiveClassExists(r.Context(), req.ClassID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "class_not_found")
		return
	}

	now := time.Now().UTC()
	record := model.Attendance{
		ID:             uuid.NewString(),
		StudentID:      req.StudentID,
		ClassID:        req.ClassID,
		AttendanceDate: req.AttendanceDate,
		Status:         status,
		Notes:          trimmed(req.Notes),
		MarkedBy:       caller.user.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateAttendance(r.Context(), record); err != nil {
		writeError(w, http.StatusBadRequest, "attendance_create_failed")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	filter := repository.AttendanceFilter{
		ClassID:   strings.TrimSpace(r.URL.Query().Get("class_id")),
		StudentID: strings.TrimSpace(r.URL.Query().Get("student_id")),
		Date:      strings.TrimSpace(r.URL.Query().Get("date")),
	}
	if filter.Date != "" && !validDate(filter.Date) {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}

	records, err := s.store.ListAttendance(r.Context(), caller.user, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}
