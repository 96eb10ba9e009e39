package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Dmambo/edutrack/internal/model"
)

type createCorrectionRequest struct {
	RequestType string `json:"request_type"`
	ReferenceID string `json:"reference_id"`
	Reason      string `json:"reason"`
}

// handleCreateCorrection lets a student dispute one of their own attendance
// or performance records.
func (s *Server) handleCreateCorrection(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if caller.user.Role != model.RoleStudent {
		writeError(w, http.StatusForbidden, "student_only")
		return
	}

	var req createCorrectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.RequestType = strings.TrimSpace(strings.ToLower(req.RequestType))
	req.ReferenceID = strings.TrimSpace(req.ReferenceID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.RequestType == "" || req.ReferenceID == "" || req.Reason == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	var (
		found bool
		err   error
	)
	switch req.RequestType {
	case "attendance":
		found, err = s.store.AttendanceExistsForStudent(r.Context(), req.ReferenceID, caller.user.ID)
	case "performance":
		found, err = s.store.PerformanceExistsForStudent(r.Context(), req.ReferenceID, caller.user.ID)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request_type")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "reference_not_found")
		return
	}

	now := time.Now().UTC()
	request := model.CorrectionRequest{
		ID:          uuid.NewString(),
		StudentID:   caller.user.ID,
		RequestType: req.RequestType,
		ReferenceID: req.ReferenceID,
		Reason:      req.Reason,
		Status:      "pending",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCorrection(r.Context(), request); err != nil {
		writeError(w, http.StatusBadRequest, "correction_create_failed")
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

func (s *Server) handleListCorrections(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	status := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("status")))
	switch status {
	case "", "pending", "approved", "rejected":
	default:
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	requests, err := s.store.ListCorrections(r.Context(), caller.user, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

type reviewCorrectionRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

func (s *Server) handleReviewCorrection(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	requestID := chi.URLParam(r, "requestID")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "missing_request_id")
		return
	}

	var req reviewCorrectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Status = strings.TrimSpace(strings.ToLower(req.Status))
	if req.Status != "approved" && req.Status != "rejected" {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	reviewed, err := s.store.ReviewCorrection(r.Context(), requestID, req.Status, trimmed(req.AdminNotes), caller.user.ID, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !reviewed {
		writeError(w, http.StatusNotFound, "request_not_found")
		return
	}

	request, err := s.store.GetCorrection(r.Context(), requestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, request)
}
