package repository

import (
	"errors"
	"time"

	"coachly/internal/domain"
	"coachly/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	return getOrCreate(r.db, userID)
}

func getOrCreate(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = models.Wallet{UserID: userID, Balance: decimal.Zero}
	if err := tx.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// ApplyLedgerEntry changes a wallet balance by delta and appends the
// matching CreditTransaction row, both inside one database transaction.
// A delta that would drive the balance negative fails with
// ErrInsufficientBalance before any mutation. The balance guard lives in
// the UPDATE itself so concurrent writers cannot slip past it.
func (r *WalletRepository) ApplyLedgerEntry(userID uint, delta decimal.Decimal, entryType, refType, refID, metadata string) (*models.CreditTransaction, error) {
	var entry *models.CreditTransaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = applyLedgerEntry(tx, userID, delta, entryType, refType, refID, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// applyLedgerEntry is the shared mutation body; tx must already be a
// transaction so callers can bundle other writes with the balance change.
func applyLedgerEntry(tx *gorm.DB, userID uint, delta decimal.Decimal, entryType, refType, refID, metadata string) (*models.CreditTransaction, error) {
	if delta.IsZero() {
		return nil, ErrInvalidAmount
	}
	if _, err := getOrCreate(tx, userID); err != nil {
		return nil, err
	}
	res := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND balance + ? >= 0", userID, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientBalance
	}
	var after models.Wallet
	if err := tx.Where("user_id = ?", userID).First(&after).Error; err != nil {
		return nil, err
	}
	entry := models.CreditTransaction{
		UserID:        userID,
		Type:          entryType,
		Amount:        delta,
		BalanceBefore: after.Balance.Sub(delta),
		BalanceAfter:  after.Balance,
		ReferenceType: refType,
		ReferenceID:   refID,
		Metadata:      metadata,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// TransferCredits moves credits between two users atomically: guarded debit
// of the payer, credit of the payee, and one ledger row per side. This is
// the single path through which credits move between users.
func (r *WalletRepository) TransferCredits(fromID, toID uint, amount decimal.Decimal, debitType, creditType, refType, refID, metadata string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := getOrCreate(tx, fromID); err != nil {
			return err
		}
		if _, err := getOrCreate(tx, toID); err != nil {
			return err
		}
		res := tx.Model(&models.Wallet{}).
			Where("user_id = ? AND balance >= ?", fromID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}
		if err := tx.Model(&models.Wallet{}).
			Where("user_id = ?", toID).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}
		var from, to models.Wallet
		if err := tx.Where("user_id = ?", fromID).First(&from).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", toID).First(&to).Error; err != nil {
			return err
		}
		debit := models.CreditTransaction{
			UserID:        fromID,
			Type:          debitType,
			Amount:        amount.Neg(),
			BalanceBefore: from.Balance.Add(amount),
			BalanceAfter:  from.Balance,
			ReferenceType: refType,
			ReferenceID:   refID,
			Metadata:      metadata,
		}
		credit := models.CreditTransaction{
			UserID:        toID,
			Type:          creditType,
			Amount:        amount,
			BalanceBefore: to.Balance.Sub(amount),
			BalanceAfter:  to.Balance,
			ReferenceType: refType,
			ReferenceID:   refID,
			Metadata:      metadata,
		}
		if err := tx.Create(&debit).Error; err != nil {
			return err
		}
		return tx.Create(&credit).Error
	})
}

// WithdrawableBalance returns the portion of a coach's balance eligible for
// withdrawal. With aging disabled that is the full balance; otherwise only
// earnings older than agingDays count, net of prior withdrawals and refunds.
func (r *WalletRepository) WithdrawableBalance(userID uint, agingDays int) (decimal.Decimal, error) {
	w, err := r.GetOrCreate(userID)
	if err != nil {
		return decimal.Zero, err
	}
	if agingDays <= 0 {
		return w.Balance, nil
	}
	cutoff := time.Now().AddDate(0, 0, -agingDays)
	var matured decimal.Decimal
	row := r.db.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND type = ? AND created_at <= ?", userID, domain.LedgerCourseEarning, cutoff).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&matured); err != nil {
		return decimal.Zero, err
	}
	var offsets decimal.Decimal
	row = r.db.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND type IN ?", userID, []string{domain.LedgerWithdrawal, domain.LedgerRefund}).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&offsets); err != nil {
		return decimal.Zero, err
	}
	eligible := matured.Add(offsets) // withdrawals are negative, refunds positive
	if eligible.GreaterThan(w.Balance) {
		eligible = w.Balance
	}
	if eligible.IsNegative() {
		eligible = decimal.Zero
	}
	return eligible, nil
}

// ListTransactions returns a user's ledger rows, newest first.
func (r *WalletRepository) ListTransactions(userID uint, page, limit int) ([]models.CreditTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	q := r.db.Model(&models.CreditTransaction{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.CreditTransaction
	err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}
