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
	"coachly/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CourseHandler struct {
	courseRepo     *repository.CourseRepository
	enrollmentRepo *repository.EnrollmentRepository
	cloud          cloudinary.Client
}

func NewCourseHandler(courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository, cloud cloudinary.Client) *CourseHandler {
	return &CourseHandler{courseRepo: courseRepo, enrollmentRepo: enrollmentRepo, cloud: cloud}
}

type courseRequest struct {
	Title        string          `json:"title" binding:"required,max=255"`
	Description  string          `json:"description"`
	Category     string          `json:"category" binding:"max=64"`
	PriceCredits decimal.Decimal `json:"price_credits"`
	IsFree       bool            `json:"is_free"`
	Publish      bool            `json:"publish"`
}

func (h *CourseHandler) Create(c *gin.Context) {
	coachID := middleware.GetUserID(c)
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.IsFree && !req.PriceCredits.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_credits must be positive unless the course is free"})
		return
	}
	status := domain.CourseDraft
	if req.Publish {
		status = domain.CoursePublished
	}
	price := req.PriceCredits
	if req.IsFree {
		price = decimal.Zero
	}
	course := &models.Course{
		CoachID:      coachID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		PriceCredits: price,
		IsFree:       req.IsFree,
		Status:       status,
	}
	if err := h.courseRepo.Create(course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create course"})
		return
	}
	log.Printf("[Course] coach %d created course %s (%s)", coachID, course.ID, course.Status)
	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) Update(c *gin.Context) {
	coachID := middleware.GetUserID(c)
	course, ok := h.ownedCourse(c, coachID)
	if !ok {
		return
	}
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.IsFree && !req.PriceCredits.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_credits must be positive unless the course is free"})
		return
	}
	course.Title = req.Title
	course.Description = req.Description
	course.Category = req.Category
	course.IsFree = req.IsFree
	course.PriceCredits = req.PriceCredits
	if req.IsFree {
		course.PriceCredits = decimal.Zero
	}
	if req.Publish && course.Status == domain.CourseDraft {
		course.Status = domain.CoursePublished
	}
	if err := h.courseRepo.Update(course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update course"})
		return
	}
	c.JSON(http.StatusOK, course)
}

// Archive takes a course off the catalog. Existing enrollments keep access,
// so this is a status flip rather than a delete.
func (h *CourseHandler) Archive(c *gin.Context) {
	coachID := middleware.GetUserID(c)
	course, ok := h.ownedCourse(c, coachID)
	if !ok {
		return
	}
	course.Status = domain.CourseArchived
	if err := h.courseRepo.Update(course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to archive course"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": course.ID, "status": course.Status})
}

// UploadCover accepts a multipart image and stores the optimized URL.
func (h *CourseHandler) UploadCover(c *gin.Context) {
	coachID := middleware.GetUserID(c)
	course, ok := h.ownedCourse(c, coachID)
	if !ok {
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer f.Close()
	url, thumbURL, err := h.cloud.UploadImage(c.Request.Context(), f, "coachly/courses", course.ID)
	if err != nil {
		log.Printf("[Course] cover upload for %s: %v", course.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	course.CoverImageURL = url
	if err := h.courseRepo.Update(course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save course"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": course.ID, "cover_image_url": url, "thumbnail_url": thumbURL})
}

// ListPublished is the public catalog.
func (h *CourseHandler) ListPublished(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, total, err := h.courseRepo.ListPublished(c.Query("category"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"courses": rows,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// Get returns a single published course with its enrollment count.
func (h *CourseHandler) Get(c *gin.Context) {
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
	students, _ := h.enrollmentRepo.CountByCourse(courseID)
	c.JSON(http.StatusOK, gin.H{
		"course":   course,
		"students": students,
	})
}

// MyCourses lists the coach's own courses in any status.
func (h *CourseHandler) MyCourses(c *gin.Context) {
	coachID := middleware.GetUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, total, err := h.courseRepo.ListByCoach(coachID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"courses": rows,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *CourseHandler) ownedCourse(c *gin.Context, coachID uint) (*models.Course, bool) {
	courseID := c.Param("id")
	if _, err := uuid.Parse(courseID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return nil, false
	}
	course, err := h.courseRepo.GetByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load course"})
		return nil, false
	}
	if course.CoachID != coachID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not own this course"})
		return nil, false
	}
	return course, true
}
