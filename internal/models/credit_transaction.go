package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditTransaction is an immutable ledger row recording one balance change.
// BalanceAfter - BalanceBefore always equals Amount.
type CreditTransaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Type          string          `gorm:"size:30;not null;index" json:"type"` // purchase, course_payment, course_earning, withdrawal, refund
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"` // positive = credit, negative = debit
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_after"`
	ReferenceType string          `gorm:"size:50" json:"reference_type"` // e.g. course, transaction, withdrawal_request
	ReferenceID   string          `gorm:"size:128;index" json:"reference_id"`
	Metadata      string          `gorm:"type:text" json:"metadata"` // JSON
	CreatedAt     time.Time       `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
