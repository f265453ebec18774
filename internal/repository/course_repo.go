package repository

import (
	"coachly/internal/domain"
	"coachly/internal/models"

	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(c *models.Course) error {
	return r.db.Create(c).Error
}

func (r *CourseRepository) GetByID(id string) (*models.Course, error) {
	var c models.Course
	if err := r.db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) Update(c *models.Course) error {
	return r.db.Save(c).Error
}

// ListPublished returns published courses, optionally filtered by category.
func (r *CourseRepository) ListPublished(category string, page, limit int) ([]models.Course, int64, error) {
	q := r.db.Model(&models.Course{}).Where("status = ?", domain.CoursePublished)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	return r.list(q, page, limit)
}

func (r *CourseRepository) ListByCoach(coachID uint, page, limit int) ([]models.Course, int64, error) {
	return r.list(r.db.Model(&models.Course{}).Where("coach_id = ?", coachID), page, limit)
}

func (r *CourseRepository) list(q *gorm.DB, page, limit int) ([]models.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Course
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error
	return rows, total, err
}
