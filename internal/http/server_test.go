package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Dmambo/edutrack/internal/config"
	"github.com/Dmambo/edutrack/internal/db"
	"github.com/Dmambo/edutrack/internal/model"
	"github.com/Dmambo/edutrack/internal/repository"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	url := os.Getenv("EDUTRACK_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("EDUTRACK_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("migrate error: %v", err)
	}

	cfg := config.Config{
		HTTPAddr:       ":0",
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		AccessTokenTTL: 15 * time.Minute,
	}
	server := NewServer(cfg, repository.NewStore(pool), nil)
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)
	return app
}

func doReq(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
}

type account struct {
	ID    string
	Email string
	Token string
}

func registerAccount(t *testing.T, baseURL, role string) account {
	t.Helper()
	email := role + "." + uuid.NewString()[:8] + "@example.local"
	resp := doReq(t, http.MethodPost, baseURL+"/api/auth/register", "", map[string]interface{}{
		"email":     email,
		"password":  "dev-password",
		"firstName": "Test",
		"lastName":  "User",
		"role":      role,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: expected 200, got %d", role, resp.StatusCode)
	}
	var body authResponse
	decodeBody(t, resp, &body)
	if !body.Success || body.Token == "" {
		t.Fatalf("register %s: missing token", role)
	}
	return account{ID: body.User.ID, Email: email, Token: body.Token}
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	student := registerAccount(t, app.URL, "student")

	wrongPassword := doReq(t, http.MethodPost, app.URL+"/api/auth/login", "", map[string]string{
		"email":    student.Email,
		"password": "not-the-password",
	})
	unknownEmail := doReq(t, http.MethodPost, app.URL+"/api/auth/login", "", map[string]string{
		"email":    "nobody." + uuid.NewString()[:8] + "@example.local",
		"password": "dev-password",
	})

	if wrongPassword.StatusCode != http.StatusUnauthorized || unknownEmail.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrongPassword.StatusCode, unknownEmail.StatusCode)
	}
	var bodyA, bodyB map[string]string
	decodeBody(t, wrongPassword, &bodyA)
	decodeBody(t, unknownEmail, &bodyB)
	if bodyA["error"] != bodyB["error"] || bodyA["error"] != "invalid_credentials" {
		t.Fatalf("expected identical invalid_credentials bodies, got %v and %v", bodyA, bodyB)
	}

	// The right password still works.
	ok := doReq(t, http.MethodPost, app.URL+"/api/auth/login", "", map[string]string{
		"email":    student.Email,
		"password": "dev-password",
	})
	if ok.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", ok.StatusCode)
	}
	ok.Body.Close()
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	student := registerAccount(t, app.URL, "student")
	resp := doReq(t, http.MethodPost, app.URL+"/api/auth/register", "", map[string]interface{}{
		"email":     student.Email,
		"password":  "dev-password",
		"firstName": "Test",
		"lastName":  "User",
		"role":      "student",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminOnlyWrites(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	teacher := registerAccount(t, app.URL, "teacher")
	student := registerAccount(t, app.URL, "student")

	classBody := map[string]interface{}{
		"name":          "Biology",
		"code":          "BIO-101",
		"academic_year": "2026-2027",
	}
	for _, tok := range []string{teacher.Token, student.Token} {
		resp := doReq(t, http.MethodPost, app.URL+"/api/classes", tok, classBody)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403 for non-admin class create, got %d", resp.StatusCode)
		}
		resp.Body.Close()

		resp = doReq(t, http.MethodPost, app.URL+"/api/users", tok, map[string]interface{}{
			"email":    "x." + uuid.NewString()[:8] + "@example.local",
			"password": "dev-password",
			"role":     "student",
		})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403 for non-admin user create, got %d", resp.StatusCode)
		}
		resp.Body.Close()

		resp = doReq(t, http.MethodGet, app.URL+"/api/users", tok, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403 for non-admin user list, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func createClass(t *testing.T, baseURL string, admin account, teacherID, name, code string) model.Class {
	t.Helper()
	resp := doReq(t, http.MethodPost, baseURL+"/api/classes", admin.Token, map[string]interface{}{
		"name":          name,
		"code":          code,
		"teacher_id":    teacherID,
		"academic_year": "2026-2027",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("class create: expected 201, got %d", resp.StatusCode)
	}
	var class model.Class
	decodeBody(t, resp, &class)
	return class
}

func enroll(t *testing.T, baseURL string, admin account, studentID, classID string) {
	t.Helper()
	resp := doReq(t, http.MethodPost, baseURL+"/api/enrollments", admin.Token, map[string]string{
		"student_id": studentID,
		"class_id":   classID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enrollment: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestClassListIsRoleScoped(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	admin := registerAccount(t, app.URL, "admin")
	teacher := registerAccount(t, app.URL, "teacher")
	otherTeacher := registerAccount(t, app.URL, "teacher")
	student := registerAccount(t, app.URL, "student")

	class := createClass(t, app.URL, admin, teacher.ID, "Chemistry", "CHE-"+uuid.NewString()[:8])
	enroll(t, app.URL, admin, student.ID, class.ID)

	listClasses := func(token string) []model.Class {
		resp := doReq(t, http.MethodGet, app.URL+"/api/classes", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("class list: expected 200, got %d", resp.StatusCode)
		}
		var classes []model.Class
		decodeBody(t, resp, &classes)
		return classes
	}
	containsClass := func(classes []model.Class, id string) bool {
		for _, c := range classes {
			if c.ID == id {
				return true
			}
		}
		return false
	}

	if !containsClass(listClasses(admin.Token), class.ID) {
		t.Fatalf("admin must see every active class")
	}
	if !containsClass(listClasses(teacher.Token), class.ID) {
		t.Fatalf("owning teacher must see the class")
	}
	if containsClass(listClasses(otherTeacher.Token), class.ID) {
		t.Fatalf("non-owning teacher must not see the class")
	}
	if !containsClass(listClasses(student.Token), class.ID) {
		t.Fatalf("enrolled student must see the class")
	}

	otherStudent := registerAccount(t, app.URL, "student")
	if containsClass(listClasses(otherStudent.Token), class.ID) {
		t.Fatalf("unenrolled student must not see the class")
	}
}

func TestAttendanceRoundTripAndScoping(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	admin := registerAccount(t, app.URL, "admin")
	teacher := registerAccount(t, app.URL, "teacher")
	otherTeacher := registerAccount(t, app.URL, "teacher")
	student := registerAccount(t, app.URL, "student")
	otherStudent := registerAccount(t, app.URL, "student")

	class := createClass(t, app.URL, admin, teacher.ID, "Physics", "PHY-"+uuid.NewString()[:8])
	enroll(t, app.URL, admin, student.ID, class.ID)

	// Students cannot mark attendance.
	resp := doReq(t, http.MethodPost, app.URL+"/api/attendance", student.Token, map[string]interface{}{
		"student_id":      student.ID,
		"class_id":        class.ID,
		"attendance_date": "2026-03-02",
		"status":          "present",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student attendance write, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doReq(t, http.MethodPost, app.URL+"/api/attendance", teacher.Token, map[string]interface{}{
		"student_id":      student.ID,
		"class_id":        class.ID,
		"attendance_date": "2026-03-02",
		"status":          "present",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("attendance create: expected 201, got %d", resp.StatusCode)
	}
	var created model.Attendance
	decodeBody(t, resp, &created)
	if created.MarkedBy != teacher.ID {
		t.Fatalf("expected marked_by %s, got %s", teacher.ID, created.MarkedBy)
	}

	// Round trip with matching filters returns exactly that record.
	resp = doReq(t, http.MethodGet, app.URL+"/api/attendance?class_id="+class.ID+"&date=2026-03-02", teacher.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attendance list: expected 200, got %d", resp.StatusCode)
	}
	var rows []model.AttendanceRow
	decodeBody(t, resp, &rows)
	if len(rows) != 1 || rows[0].ID != created.ID || rows[0].MarkedBy != teacher.ID {
		t.Fatalf("expected the created record back, got %+v", rows)
	}
	if rows[0].AttendanceDate != "2026-03-02" || rows[0].ClassName != class.Name {
		t.Fatalf("unexpected row payload: %+v", rows[0])
	}

	// A teacher without classes sees nothing here.
	resp = doReq(t, http.MethodGet, app.URL+"/api/attendance?class_id="+class.ID, otherTeacher.Token, nil)
	var otherRows []model.AttendanceRow
	decodeBody(t, resp, &otherRows)
	if len(otherRows) != 0 {
		t.Fatalf("non-owning teacher must not see class attendance, got %d rows", len(otherRows))
	}

	// Students only ever see their own rows, whatever they filter by.
	resp = doReq(t, http.MethodGet, app.URL+"/api/attendance", student.Token, nil)
	decodeBody(t, resp, &rows)
	for _, row := range rows {
		if row.StudentID != student.ID {
			t.Fatalf("student received a foreign row: %+v", row)
		}
	}
	resp = doReq(t, http.MethodGet, app.URL+"/api/attendance?student_id="+student.ID, otherStudent.Token, nil)
	decodeBody(t, resp, &rows)
	if len(rows) != 0 {
		t.Fatalf("filter must not widen a student's scope, got %d rows", len(rows))
	}
}

func TestPerformanceGradeDerivation(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	admin := registerAccount(t, app.URL, "admin")
	teacher := registerAccount(t, app.URL, "teacher")
	student := registerAccount(t, app.URL, "student")

	class := createClass(t, app.URL, admin, teacher.ID, "History", "HIS-"+uuid.NewString()[:8])
	enroll(t, app.URL, admin, student.ID, class.ID)

	resp := doReq(t, http.MethodPost, app.URL+"/api/performance", teacher.Token, map[string]interface{}{
		"student_id":      student.ID,
		"class_id":        class.ID,
		"assessment_type": "exam",
		"assessment_name": "Midterm",
		"total_marks":     100,
		"obtained_marks":  85,
		"assessment_date": "2026-03-10",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("performance create: expected 201, got %d", resp.StatusCode)
	}
	var created model.Performance
	decodeBody(t, resp, &created)
	if created.EnteredBy != teacher.ID {
		t.Fatalf("expected entered_by %s, got %s", teacher.ID, created.EnteredBy)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/api/performance?class_id="+class.ID, student.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("performance list: expected 200, got %d", resp.StatusCode)
	}
	var rows []model.PerformanceRow
	decodeBody(t, resp, &rows)
	if len(rows) != 1 {
		t.Fatalf("expected one record, got %d", len(rows))
	}
	if rows[0].Grade == nil || *rows[0].Grade != "A" {
		t.Fatalf("expected derived grade A, got %v", rows[0].Grade)
	}
}

func TestPerformanceListPutsUndatedRowsLast(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	admin := registerAccount(t, app.URL, "admin")
	teacher := registerAccount(t, app.URL, "teacher")
	student := registerAccount(t, app.URL, "student")

	class := createClass(t, app.URL, admin, teacher.ID, "Music", "MUS-"+uuid.NewString()[:8])
	enroll(t, app.URL, admin, student.ID, class.ID)

	// The undated record goes in first so insertion order cannot mask the sort.
	bodies := []map[string]interface{}{
		{
			"student_id":      student.ID,
			"class_id":        class.ID,
			"assessment_type": "quiz",
			"assessment_name": "Undated quiz",
			"total_marks":     20,
			"obtained_marks":  10,
		},
		{
			"student_id":      student.ID,
			"class_id":        class.ID,
			"assessment_type": "exam",
			"assessment_name": "Dated exam",
			"total_marks":     100,
			"obtained_marks":  70,
			"assessment_date": "2026-06-01",
		},
	}
	for _, body := range bodies {
		resp := doReq(t, http.MethodPost, app.URL+"/api/performance", teacher.Token, body)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("performance create: expected 201, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doReq(t, http.MethodGet, app.URL+"/api/performance?class_id="+class.ID, student.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("performance list: expected 200, got %d", resp.StatusCode)
	}
	var rows []model.PerformanceRow
	decodeBody(t, resp, &rows)
	if len(rows) != 2 {
		t.Fatalf("expected two records, got %d", len(rows))
	}
	if rows[0].AssessmentName != "Dated exam" || rows[1].AssessmentName != "Undated quiz" {
		t.Fatalf("expected dated record before undated, got %q then %q", rows[0].AssessmentName, rows[1].AssessmentName)
	}
}

func TestStudentDashboardStats(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	admin := registerAccount(t, app.URL, "admin")
	teacher := registerAccount(t, app.URL, "teacher")
	student := registerAccount(t, app.URL, "student")

	class := createClass(t, app.URL, admin, teacher.ID, "Geography", "GEO-"+uuid.NewString()[:8])
	enroll(t, app.URL, admin, student.ID, class.ID)

	for i, status := range []string{"present", "absent"} {
		resp := doReq(t, http.MethodPost, app.URL+"/api/attendance", teacher.Token, map[string]interface{}{
			"student_id":      student.ID,
			"class_id":        class.ID,
			"attendance_date": time.Date(2026, 4, 1+i, 0, 0, 0, 0, time.UTC).Format(dateLayout),
			"status":          status,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("attendance create: expected 201, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}
	resp := doReq(t, http.MethodPost, app.URL+"/api/performance", teacher.Token, map[string]interface{}{
		"student_id":      student.ID,
		"class_id":        class.ID,
		"assessment_type": "quiz",
		"assessment_name": "Quiz 1",
		"total_marks":     100,
		"obtained_marks":  85,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("performance create: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doReq(t, http.MethodGet, app.URL+"/api/dashboard/stats", student.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", resp.StatusCode)
	}
	var stats model.StudentStats
	decodeBody(t, resp, &stats)
	if stats.AttendancePercentage != 50 {
		t.Fatalf("expected attendancePercentage 50, got %d", stats.AttendancePercentage)
	}
	if stats.AverageGrade != 85 {
		t.Fatalf("expected averageGrade 85, got %d", stats.AverageGrade)
	}
	if stats.EnrolledClasses != 1 {
		t.Fatalf("expected 1 enrolled class, got %d", stats.EnrolledClasses)
	}
}

func TestCorrectionRequestLifecycle(t *testing.T) {
	app := newTestServer(t)
	if app == nil {
		return
	}

	admin := registerAccount(t, app.URL, "admin")
	teacher := registerAccount(t, app.URL, "teacher")
	student := registerAccount(t, app.URL, "student")

	class := createClass(t, app.URL, admin, teacher.ID, "Latin", "LAT-"+uuid.NewString()[:8])
	enroll(t, app.URL, admin, student.ID, class.ID)

	resp := doReq(t, http.MethodPost, app.URL+"/api/attendance", teacher.Token, map[string]interface{}{
		"student_id":      student.ID,
		"class_id":        class.ID,
		"attendance_date": "2026-05-04",
		"status":          "absent",
	})
	var record model.Attendance
	decodeBody(t, resp, &record)

	// Only students may open correction requests.
	resp = doReq(t, http.MethodPost, app.URL+"/api/corrections", teacher.Token, map[string]string{
		"request_type": "attendance",
		"reference_id": record.ID,
		"reason":       "wrong day",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for teacher correction, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Referencing a record that is not yours 404s.
	resp = doReq(t, http.MethodPost, app.URL+"/api/corrections", student.Token, map[string]string{
		"request_type": "attendance",
		"reference_id": uuid.NewString(),
		"reason":       "wrong day",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown reference, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doReq(t, http.MethodPost, app.URL+"/api/corrections", student.Token, map[string]string{
		"request_type": "attendance",
		"reference_id": record.ID,
		"reason":       "I was present, the register is wrong",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("correction create: expected 201, got %d", resp.StatusCode)
	}
	var request model.CorrectionRequest
	decodeBody(t, resp, &request)
	if request.Status != "pending" {
		t.Fatalf("expected pending, got %s", request.Status)
	}

	resp = doReq(t, http.MethodPut, app.URL+"/api/corrections/"+request.ID, admin.Token, map[string]string{
		"status":      "approved",
		"admin_notes": "register corrected",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("correction review: expected 200, got %d", resp.StatusCode)
	}
	var reviewed model.CorrectionRequest
	decodeBody(t, resp, &reviewed)
	if reviewed.Status != "approved" || reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != admin.ID {
		t.Fatalf("unexpected review result: %+v", reviewed)
	}

	// The student sees the decision; another student does not.
	resp = doReq(t, http.MethodGet, app.URL+"/api/corrections", student.Token, nil)
	var mine []model.CorrectionRequest
	decodeBody(t, resp, &mine)
	found := false
	for _, req := range mine {
		if req.ID == request.ID && req.Status == "approved" {
			found = true
		}
		if req.StudentID != student.ID {
			t.Fatalf("student received a foreign correction request: %+v", req)
		}
	}
	if !found {
		t.Fatalf("student should see their reviewed request")
	}
}
