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

func normalizeAssessmentType(raw string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "exam":
		return "exam", nil
	case "assignment":
		return "assignment", nil
	case "quiz":
		return "quiz", nil
	case "project":
		return "project", nil
	case "homework":
		return "homework", nil
	default:
		return "", errors.New("invalid assessment type")
	}
}

// deriveGrade maps a score to a letter grade. The thresholds are fixed for
// compatibility with records graded before the server computed this.
func deriveGrade(obtained, total float64) string {
	percentage := obtained / total * 100
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C+"
	case percentage >= 40:
		return "C"
	default:
		return "F"
	}
}

type addPerformanceRequest struct {
	StudentID      string  `json:"student_id"`
	ClassID        string  `json:"class_id"`
	AssessmentType string  `json:"assessment_type"`
	AssessmentName string  `json:"assessment_name"`
	TotalMarks     float64 `json:"total_marks"`
	ObtainedMarks  float64 `json:"obtained_marks"`
	AssessmentDate *string `json:"assessment_date,omitempty"`
	Grade          *string `json:"grade,omitempty"`
	Remarks        *string `json:"remarks,omitempty"`
}

func (s *Server) handleCreatePerformance(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req addPerformanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.ClassID = strings.TrimSpace(req.ClassID)
	req.AssessmentName = strings.TrimSpace(req.AssessmentName)
	if req.StudentID == "" || req.ClassID == "" || req.AssessmentType == "" || req.AssessmentName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	kind, err := normalizeAssessmentType(req.AssessmentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_assessment_type")
		return
	}
	if req.TotalMarks <= 0 || req.ObtainedMarks < 0 {
		writeError(w, http.StatusBadRequest, "invalid_marks")
		return
	}
	assessmentDate := trimmed(req.AssessmentDate)
	if assessmentDate != nil && !validDate(*assessmentDate) {
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

	now := time.Now().UTC()
	record := model.Performance{
		ID:             uuid.NewString(),
		StudentID:      req.StudentID,
		ClassID:        req.ClassID,
		AssessmentType: kind,
		AssessmentName: req.AssessmentName,
		TotalMarks:     req.TotalMarks,
		ObtainedMarks:  req.ObtainedMarks,
		AssessmentDate: assessmentDate,
		Grade:          trimmed(req.Grade),
		Remarks:        trimmed(req.Remarks),
		EnteredBy:      caller.user.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreatePerformance(r.Context(), record); err != nil {
		writeError(w, http.StatusBadRequest, "performance_create_failed")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListPerformance(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	filter := repository.PerformanceFilter{
		ClassID:   strings.TrimSpace(r.URL.Query().Get("class_id")),
		StudentID: strings.TrimSpace(r.URL.Query().Get("student_id")),
	}
	records, err := s.store.ListPerformance(r.Context(), caller.user, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Fill in the derived grade where none was recorded.
	for i := range records {
		if records[i].Grade == nil && records[i].TotalMarks > 0 {
			grade := deriveGrade(records[i].ObtainedMarks, records[i].TotalMarks)
			records[i].Grade = &grade
		}
	}
	writeJSON(w, http.StatusOK, records)
}
