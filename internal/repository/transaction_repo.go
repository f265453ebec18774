package repository

import (
	"coachly/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByTxRef(txRef string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.Where("tx_ref = ?", txRef).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) Update(t *models.Transaction) error {
	return r.db.Save(t).Error
}

// FinalizeWithCredit saves the transaction and applies the wallet credit in
// one database transaction. A failed credit rolls the status back, so the
// row never reads success while the wallet was left uncredited and a
// gateway retry can finalize it cleanly.
func (r *TransactionRepository) FinalizeWithCredit(t *models.Transaction, amount decimal.Decimal, entryType string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		_, err := applyLedgerEntry(tx, t.UserID, amount, entryType, "transaction", t.TxRef, "")
		return err
	})
}

func (r *TransactionRepository) ListByUser(userID uint, page, limit int) ([]models.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	q := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Transaction
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error
	return rows, total, err
}
