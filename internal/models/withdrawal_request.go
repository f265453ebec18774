package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalRequest is a coach's request to convert credits into an MWK
// payout. Credits are deducted at approval time, not at creation.
type WithdrawalRequest struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CoachID        uint            `gorm:"not null;index" json:"coach_id"`
	CreditsAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"credits_amount"`
	AmountMWK      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount_mwk"`
	Status         string          `gorm:"size:20;not null;index" json:"status"` // pending, processing, approved, completed, rejected, failed
	PaymentMethod  string          `gorm:"size:50;not null" json:"payment_method"`
	PaymentDetails string          `gorm:"type:text" json:"payment_details"` // JSON
	TransactionRef string          `gorm:"size:64;uniqueIndex;not null" json:"transaction_ref"`
	Notes          string          `gorm:"type:text" json:"notes"` // coach-supplied
	ProcessedBy    *uint           `json:"processed_by"`
	ProcessedAt    *time.Time      `json:"processed_at"`
	AdminNotes     string          `gorm:"type:text" json:"admin_notes"`
	FailureReason  string          `gorm:"size:255" json:"failure_reason"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	Coach User `gorm:"foreignKey:CoachID" json:"-"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
