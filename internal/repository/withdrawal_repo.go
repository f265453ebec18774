package repository

import (
	"time"

	"coachly/internal/domain"
	"coachly/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(w *models.WithdrawalRequest) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByRef(ref string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.Where("transaction_ref = ?", ref).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) Update(w *models.WithdrawalRequest) error {
	return r.db.Save(w).Error
}

func (r *WithdrawalRepository) ListByCoach(coachID uint, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	return r.list(r.db.Where("coach_id = ?", coachID), page, limit)
}

// List returns requests filtered by status ("" = all), newest first.
func (r *WithdrawalRepository) List(status string, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.Model(&models.WithdrawalRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.list(q, page, limit)
}

func (r *WithdrawalRepository) list(q *gorm.DB, page, limit int) ([]models.WithdrawalRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var total int64
	if err := q.Model(&models.WithdrawalRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.WithdrawalRequest
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error
	return rows, total, err
}

// ListProcessingOlderThan returns processing requests past the cooldown
// window, oldest first, capped at limit. The poller uses this batch.
func (r *WithdrawalRepository) ListProcessingOlderThan(cutoff time.Time, limit int) ([]models.WithdrawalRequest, error) {
	var rows []models.WithdrawalRequest
	err := r.db.Where("status = ? AND created_at <= ?", domain.WithdrawalProcessing, cutoff).
		Order("created_at ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

// CountByCoachSince counts requests a coach has created after the given
// time, regardless of outcome. Backs the hourly request limit.
func (r *WithdrawalRepository) CountByCoachSince(coachID uint, since time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.WithdrawalRequest{}).
		Where("coach_id = ? AND created_at >= ?", coachID, since).
		Count(&n).Error
	return n, err
}

// SumCreditsByCoachSince totals the credits a coach has requested after the
// given time, excluding rejected and failed requests. Backs the daily cap.
func (r *WithdrawalRepository) SumCreditsByCoachSince(coachID uint, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.Model(&models.WithdrawalRequest{}).
		Where("coach_id = ? AND created_at >= ? AND status NOT IN ?",
			coachID, since, []string{domain.WithdrawalRejected, domain.WithdrawalFailed}).
		Select("COALESCE(SUM(credits_amount), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
