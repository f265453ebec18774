package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"coachly/internal/domain"
	"coachly/internal/middleware"
	"coachly/internal/models"
	"coachly/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EnrollmentHandler struct {
	courseRepo     *repository.CourseRepository
	enrollmentRepo *repository.EnrollmentRepository
	walletRepo     *repository.WalletRepository
}

func NewEnrollmentHandler(courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository, walletRepo *repository.WalletRepository) *EnrollmentHandler {
	return &EnrollmentHandler{courseRepo: courseRepo, enrollmentRepo: enrollmentRepo, walletRepo: walletRepo}
}

// Enroll signs the caller up for a course. Paid courses move credits from
// student to coach atomically before the enrollment row is written; if the
// row can't be written the transfer is reversed.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	userID := middleware.GetUserID(c)
	courseID := c.Param("id")
	if _, err := uuid.Parse(courseID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}
	course, err := h.courseRepo.GetByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load course"})
		return
	}
	if course.Status != domain.CoursePublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	if course.CoachID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you cannot enroll in your own course"})
		return
	}
	if _, err := h.enrollmentRepo.GetByUserAndCourse(userID, courseID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "already enrolled in this course"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check enrollment"})
		return
	}

	paid := decimal.Zero
	if !course.IsFree && course.PriceCredits.IsPositive() {
		paid = course.PriceCredits
		err := h.walletRepo.TransferCredits(
			userID, course.CoachID, paid,
			domain.LedgerCoursePayment, domain.LedgerCourseEarning,
			"course", courseID, "",
		)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient credits"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to charge credits"})
			return
		}
	}

	enrollment := &models.Enrollment{
		UserID:      userID,
		CourseID:    courseID,
		Status:      domain.EnrollmentEnrolled,
		PaidCredits: paid,
	}
	if err := h.enrollmentRepo.Create(enrollment); err != nil {
		if paid.IsPositive() {
			// Reverse the charge so the student isn't left paid-but-unenrolled.
			if rerr := h.walletRepo.TransferCredits(
				course.CoachID, userID, paid,
				domain.LedgerRefund, domain.LedgerRefund,
				"course", courseID, "",
			); rerr != nil {
				log.Printf("[Enrollment] refund after failed enrollment user %d course %s: %v", userID, courseID, rerr)
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create enrollment"})
		return
	}
	log.Printf("[Enrollment] user %d enrolled in course %s (%s credits)", userID, courseID, paid)
	c.JSON(http.StatusCreated, gin.H{
		"enrollment_id": enrollment.ID,
		"course_id":     courseID,
		"paid_credits":  paid,
		"status":        enrollment.Status,
	})
}

// ListMine returns the caller's enrollments with course details.
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, total, err := h.enrollmentRepo.ListByUser(userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load enrollments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enrollments": rows,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}
