package repository

import (
	"coachly/internal/models"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Create(e *models.Enrollment) error {
	return r.db.Create(e).Error
}

func (r *EnrollmentRepository) GetByUserAndCourse(userID uint, courseID string) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByUser(userID uint, page, limit int) ([]models.Enrollment, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	q := r.db.Model(&models.Enrollment{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Enrollment
	err := q.Preload("Course").Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&rows).Error
	return rows, total, err
}

// CountByCourse reports how many students a course has.
func (r *EnrollmentRepository) CountByCourse(courseID string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}
