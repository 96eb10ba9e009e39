package http

import (
	"math"
	"net/http"

	"github.com/Dmambo/edutrack/internal/model"
)

func attendancePercentage(presentDays, totalDays int) int {
	if totalDays == 0 {
		return 0
	}
	return int(math.Round(float64(presentDays) / float64(totalDays) * 100))
}

// handleDashboardStats returns a stats object shaped by the caller's role.
func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	switch caller.user.Role {
	case model.RoleAdmin:
		stats, err := s.store.AdminStats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	case model.RoleTeacher:
		stats, err := s.store.TeacherStats(r.Context(), caller.user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	case model.RoleStudent:
		totals, err := s.store.StudentTotals(r.Context(), caller.user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, model.StudentStats{
			AttendancePercentage: attendancePercentage(totals.PresentDays, totals.TotalDays),
			AverageGrade:         int(math.Round(totals.AveragePercentage)),
			EnrolledClasses:      totals.EnrolledClasses,
		})
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
