package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is the payment-gateway-facing record, distinct from the
// CreditTransaction ledger. Created before the checkout redirect, finalized
// by the webhook.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	TxRef           string          `gorm:"size:64;uniqueIndex;not null" json:"tx_ref"`
	AmountMWK       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount_mwk"`
	Currency        string          `gorm:"size:3;default:'MWK'" json:"currency"`
	CreditsAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"credits_amount"`
	Status          string          `gorm:"size:20;not null;index" json:"status"` // pending, success, failed
	TransactionMode string          `gorm:"size:30;not null" json:"transaction_mode"`
	GatewayResponse string          `gorm:"type:text" json:"-"`
	CompletedAt     *time.Time      `json:"completed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
