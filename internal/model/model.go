package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    *string   `json:"first_name"`
	LastName     *string   `json:"last_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Class struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	Description  *string   `json:"description"`
	TeacherID    *string   `json:"teacher_id"`
	AcademicYear string    `json:"academic_year"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Enrollment struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	ClassID      string    `json:"class_id"`
	EnrolledDate *string   `json:"enrolled_date"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Attendance dates travel as "2006-01-02" strings end to end; the store casts
// the date column to text on reads.
type Attendance struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	ClassID        string    `json:"class_id"`
	AttendanceDate string    `json:"attendance_date"`
	Status         string    `json:"status"`
	Notes          *string   `json:"notes"`
	MarkedBy       string    `json:"marked_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AttendanceRow is an attendance record joined with the student's name and
// the class name, the shape list endpoints return.
type AttendanceRow struct {
	Attendance
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	ClassName string  `json:"class_name"`
}

type Performance struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	ClassID        string    `json:"class_id"`
	AssessmentType string    `json:"assessment_type"`
	AssessmentName string    `json:"assessment_name"`
	TotalMarks     float64   `json:"total_marks"`
	ObtainedMarks  float64   `json:"obtained_marks"`
	AssessmentDate *string   `json:"assessment_date"`
	Grade          *string   `json:"grade"`
	Remarks        *string   `json:"remarks"`
	EnteredBy      string    `json:"entered_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type PerformanceRow struct {
	Performance
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	ClassName string  `json:"class_name"`
}

type CorrectionRequest struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	RequestType string     `json:"request_type"`
	ReferenceID string     `json:"reference_id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	AdminNotes  *string    `json:"admin_notes"`
	ReviewedBy  *string    `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type AdminStats struct {
	TotalStudents   int `json:"totalStudents"`
	TotalTeachers   int `json:"totalTeachers"`
	TotalClasses    int `json:"totalClasses"`
	TodayAttendance int `json:"todayAttendance"`
}

type TeacherStats struct {
	MyClasses             int `json:"myClasses"`
	TotalStudents         int `json:"totalStudents"`
	TodayAttendanceMarked int `json:"todayAttendanceMarked"`
}

type StudentStats struct {
	AttendancePercentage int `json:"attendancePercentage"`
	AverageGrade         int `json:"averageGrade"`
	EnrolledClasses      int `json:"enrolledClasses"`
}
