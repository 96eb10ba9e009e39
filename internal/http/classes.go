package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dmambo/edutrack/internal/model"
)

type createClassRequest struct {
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	Description  *string `json:"description,omitempty"`
	TeacherID    *string `json:"teacher_id,omitempty"`
	AcademicYear string  `json:"academic_year"`
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	req.AcademicYear = strings.TrimSpace(req.AcademicYear)
	if req.Name == "" || req.Code == "" || req.AcademicYear == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	teacherID := trimmed(req.TeacherID)
	if teacherID != nil {
		found, err := s.store.ActiveUserExists(r.Context(), *teacherID, model.RoleTeacher)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
	}

	now := time.Now().UTC()
	class := model.Class{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Code:         req.Code,
		Description:  trimmed(req.Description),
		TeacherID:    teacherID,
		AcademicYear: req.AcademicYear,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateClass(r.Context(), class); err != nil {
		writeError(w, http.StatusBadRequest, "class_create_failed")
		return
	}

	writeJSON(w, http.StatusCreated, class)
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	classes, err := s.store.ListClasses(r.Context(), caller.user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

type createEnrollmentRequest struct {
	StudentID    string  `json:"student_id"`
	ClassID      string  `json:"class_id"`
	EnrolledDate *string `json:"enrolled_date,omitempty"`
}

func (s *Server) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req createEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.ClassID = strings.TrimSpace(req.ClassID)
	if req.StudentID == "" || req.ClassID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	enrolledDate := trimmed(req.EnrolledDate)
	if enrolledDate != nil && !validDate(*enrolledDate) {
		writeError(w, http.StatusBadRequest, "invalid_date")
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

	enrolled, err := s.store.ActiveEnrollmentExists(r.Context(), req.StudentID, req.ClassID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if enrolled {
		writeError(w, http.StatusConflict, "already_enrolled")
		return
	}

	now := time.Now().UTC()
	enrollment := model.Enrollment{
		ID:           uuid.NewString(),
		StudentID:    req.StudentID,
		ClassID:      req.ClassID,
		EnrolledDate: enrolledDate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateEnrollment(r.Context(), enrollment); err != nil {
		writeError(w, http.StatusBadRequest, "enrollment_create_failed")
		return
	}

	writeJSON(w, http.StatusCreated, enrollment)
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	classID := strings.TrimSpace(r.URL.Query().Get("class_id"))
	enrollments, err := s.store.ListEnrollments(r.Context(), caller.user, classID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, enrollments)
}
