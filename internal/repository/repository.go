package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dmambo/edutrack/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (s *Store) GetActiveUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1 AND is_active = TRUE
	`, email)
	return scanUser(row)
}

func (s *Store) GetActiveUserByID(ctx context.Context, userID string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1 AND is_active = TRUE
	`, userID)
	return scanUser(row)
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&taken)
	return taken, err
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt)
	return err
}

func (s *Store) ListActiveUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_active = TRUE
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ActiveUserExists reports whether an active user with the given role exists.
func (s *Store) ActiveUserExists(ctx context.Context, userID string, role model.Role) (bool, error) {
	var found bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = $2 AND is_active = TRUE)
	`, userID, role).Scan(&found)
	return found, err
}

const classColumns = `id, name, code, description, teacher_id, academic_year, is_active, created_at, updated_at`

func scanClass(row interface{ Scan(...any) error }) (model.Class, error) {
	var class model.Class
	err := row.Scan(
		&class.ID,
		&class.Name,
		&class.Code,
		&class.Description,
		&class.TeacherID,
		&class.AcademicYear,
		&class.IsActive,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	return class, err
}

func (s *Store) CreateClass(ctx context.Context, class model.Class) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO classes (id, name, code, description, teacher_id, academic_year, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, class.ID, class.Name, class.Code, class.Description, class.TeacherID, class.AcademicYear, class.IsActive, class.CreatedAt, class.UpdatedAt)
	return err
}

func (s *Store) ActiveClassExists(ctx context.Context, classID string) (bool, error) {
	var found bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1 AND is_active = TRUE)
	`, classID).Scan(&found)
	return found, err
}

// ListClasses returns the classes the caller may see: admins all active
// classes, teachers the ones they own, students the ones they are actively
// enrolled in.
func (s *Store) ListClasses(ctx context.Context, caller model.User) ([]model.Class, error) {
	var (
		query string
		args  []any
	)
	switch caller.Role {
	case model.RoleAdmin:
		query = `
			SELECT ` + classColumns + `
			FROM classes
			WHERE is_active = TRUE
			ORDER BY name
		`
	case model.RoleTeacher:
		query = `
			SELECT ` + classColumns + `
			FROM classes
			WHERE is_active = TRUE AND teacher_id = $1
			ORDER BY name
		`
		args = append(args, caller.ID)
	case model.RoleStudent:
		query = `
			SELECT c.id, c.name, c.code, c.description, c.teacher_id, c.academic_year, c.is_active, c.created_at, c.updated_at
			FROM classes c
			INNER JOIN enrollments e ON c.id = e.class_id
			WHERE c.is_active = TRUE AND e.is_active = TRUE AND e.student_id = $1
			ORDER BY c.name
		`
		args = append(args, caller.ID)
	default:
		return nil, errUnknownRole(caller.Role)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]model.Class, 0)
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

func (s *Store) CreateEnrollment(ctx context.Context, enrollment model.Enrollment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrollments (id, student_id, class_id, enrolled_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, enrollment.ID, enrollment.StudentID, enrollment.ClassID, enrollment.EnrolledDate, enrollment.IsActive, enrollment.CreatedAt, enrollment.UpdatedAt)
	return err
}

func (s *Store) ActiveEnrollmentExists(ctx context.Context, studentID, classID string) (bool, error) {
	var found bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND is_active = TRUE)
	`, studentID, classID).Scan(&found)
	return found, err
}

func (s *Store) ListEnrollments(ctx context.Context, caller model.User, classID string) ([]model.Enrollment, error) {
	sc := &scope{}
	if err := scopeEnrollments(caller, sc); err != nil {
		return nil, err
	}
	if classID != "" {
		sc.where("e.class_id = $%d", classID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT e.id, e.student_id, e.class_id, e.enrolled_date::text, e.is_active, e.created_at, e.updated_at
		FROM enrollments e
		INNER JOIN classes c ON e.class_id = c.id
		WHERE e.is_active = TRUE`+sc.clause()+`
		ORDER BY e.created_at DESC
	`, sc.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := make([]model.Enrollment, 0)
	for rows.Next() {
		var enrollment model.Enrollment
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.StudentID,
			&enrollment.ClassID,
			&enrollment.EnrolledDate,
			&enrollment.IsActive,
			&enrollment.CreatedAt,
			&enrollment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	return enrollments, rows.Err()
}
