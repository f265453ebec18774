package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"coachly/internal/domain"
	"coachly/internal/handler"
	"coachly/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const studentID = uint(3)

func enrollmentTestRouter(t *testing.T) (*gin.Engine, *testDeps) {
	t.Helper()
	deps := newTestDeps(t)
	deps.seedUser(t, coachID, domain.RoleCoach)
	deps.seedUser(t, studentID, domain.RoleStudent)

	eh := handler.NewEnrollmentHandler(deps.courseRepo, deps.enrollmentRepo, deps.walletRepo)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/courses/:id/enroll", authAs(studentID), eh.Enroll)
	r.GET("/me/enrollments", authAs(studentID), eh.ListMine)
	return r, deps
}

func seedCourse(t *testing.T, deps *testDeps, price string, free bool, status string) *models.Course {
	t.Helper()
	c := &models.Course{
		CoachID:      coachID,
		Title:        "Intro to Coaching",
		PriceCredits: decimal.RequireFromString(price),
		IsFree:       free,
		Status:       status,
	}
	require.NoError(t, deps.courseRepo.Create(c))
	return c
}

func enroll(r *gin.Engine, courseID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/courses/"+courseID+"/enroll", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestEnrollInvalidCourseID(t *testing.T) {
	r, _ := enrollmentTestRouter(t)
	rec := enroll(r, "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollUnpublishedCourseNotFound(t *testing.T) {
	r, deps := enrollmentTestRouter(t)
	c := seedCourse(t, deps, "10", false, domain.CourseDraft)
	rec := enroll(r, c.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollPaidCourseTransfersCredits(t *testing.T) {
	r, deps := enrollmentTestRouter(t)
	c := seedCourse(t, deps, "25", false, domain.CoursePublished)
	deps.fund(t, studentID, "40")

	rec := enroll(r, c.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	student, err := deps.walletRepo.GetByUserID(studentID)
	require.NoError(t, err)
	coach, err := deps.walletRepo.GetByUserID(coachID)
	require.NoError(t, err)
	assert.True(t, student.Balance.Equal(decimal.RequireFromString("15")))
	assert.True(t, coach.Balance.Equal(decimal.RequireFromString("25")))

	// The ledger shows a payment on the student side and an earning on the
	// coach side, both tied to the course.
	rows, _, err := deps.walletRepo.ListTransactions(coachID, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, domain.LedgerCourseEarning, rows[0].Type)
	assert.Equal(t, c.ID, rows[0].ReferenceID)
}

func TestEnrollInsufficientCredits(t *testing.T) {
	r, deps := enrollmentTestRouter(t)
	c := seedCourse(t, deps, "25", false, domain.CoursePublished)
	deps.fund(t, studentID, "10")

	rec := enroll(r, c.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient credits")

	student, err := deps.walletRepo.GetByUserID(studentID)
	require.NoError(t, err)
	assert.True(t, student.Balance.Equal(decimal.RequireFromString("10")))
}

func TestEnrollFreeCourse(t *testing.T) {
	r, deps := enrollmentTestRouter(t)
	c := seedCourse(t, deps, "0", true, domain.CoursePublished)

	rec := enroll(r, c.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	e, err := deps.enrollmentRepo.GetByUserAndCourse(studentID, c.ID)
	require.NoError(t, err)
	assert.True(t, e.PaidCredits.IsZero())
}

func TestEnrollTwiceConflicts(t *testing.T) {
	r, deps := enrollmentTestRouter(t)
	c := seedCourse(t, deps, "0", true, domain.CoursePublished)

	rec := enroll(r, c.ID)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = enroll(r, c.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCoachCannotEnrollInOwnCourse(t *testing.T) {
	deps := newTestDeps(t)
	deps.seedUser(t, coachID, domain.RoleCoach)
	c := seedCourse(t, deps, "10", false, domain.CoursePublished)

	eh := handler.NewEnrollmentHandler(deps.courseRepo, deps.enrollmentRepo, deps.walletRepo)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/courses/:id/enroll", authAs(coachID), eh.Enroll)

	rec := enroll(r, c.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "own course")
}
