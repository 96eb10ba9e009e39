package repository

import (
	"context"

	"github.com/Dmambo/edutrack/internal/model"
)

func (s *Store) AdminStats(ctx context.Context) (model.AdminStats, error) {
	var stats model.AdminStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'student' AND is_active = TRUE),
			(SELECT COUNT(*) FROM users WHERE role = 'teacher' AND is_active = TRUE),
			(SELECT COUNT(*) FROM classes WHERE is_active = TRUE),
			(SELECT COUNT(*) FROM attendance WHERE attendance_date = CURRENT_DATE)
	`).Scan(&stats.TotalStudents, &stats.TotalTeachers, &stats.TotalClasses, &stats.TodayAttendance)
	return stats, err
}

func (s *Store) TeacherStats(ctx context.Context, teacherID string) (model.TeacherStats, error) {
	var stats model.TeacherStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM classes WHERE teacher_id = $1 AND is_active = TRUE),
			(SELECT COUNT(DISTINCT e.student_id)
			 FROM enrollments e
			 INNER JOIN classes c ON e.class_id = c.id
			 WHERE c.teacher_id = $1 AND e.is_active = TRUE),
			(SELECT COUNT(*)
			 FROM attendance a
			 INNER JOIN classes c ON a.class_id = c.id
			 WHERE c.teacher_id = $1 AND a.attendance_date = CURRENT_DATE)
	`, teacherID).Scan(&stats.MyClasses, &stats.TotalStudents, &stats.TodayAttendanceMarked)
	return stats, err
}

// StudentTotals are the raw counts behind a student dashboard; the handler
// derives the rounded percentages.
type StudentTotals struct {
	TotalDays         int
	PresentDays       int
	AveragePercentage float64
	EnrolledClasses   int
}

func (s *Store) StudentTotals(ctx context.Context, studentID string) (StudentTotals, error) {
	var totals StudentTotals
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM attendance WHERE student_id = $1),
			(SELECT COALESCE(SUM(CASE WHEN status = 'present' THEN 1 ELSE 0 END), 0) FROM attendance WHERE student_id = $1),
			(SELECT COALESCE(AVG(obtained_marks * 100.0 / total_marks), 0) FROM performance WHERE student_id = $1 AND total_marks > 0),
			(SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND is_active = TRUE)
	`, studentID).Scan(&totals.TotalDays, &totals.PresentDays, &totals.AveragePercentage, &totals.EnrolledClasses)
	return totals, err
}
