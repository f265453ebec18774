package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	TxRef       string
	Amount      decimal.Decimal
	Currency    string
	Email       string
	Description string
	ReturnURL   string
	CallbackURL string
}

type CheckoutResponse struct {
	TxRef       string
	CheckoutURL string
	Status      string
}

// TransactionStatus is the gateway's view of a checkout or payout.
type TransactionStatus struct {
	Reference string
	Status    string // gateway vocabulary: pending, processing, success, completed, failed, rejected, cancelled
	Raw       string // raw gateway body, stored for audit
}

type PayoutRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Method    string            // bank_transfer, mobile_money
	Details   map[string]string // account/phone fields as the gateway expects them
	Narration string
}

type PayoutResponse struct {
	Reference string
	Status    string
}

type Provider interface {
	InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
	VerifyTransaction(ctx context.Context, txRef string) (*TransactionStatus, error)
	InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error)
	PayoutStatus(ctx context.Context, reference string) (*TransactionStatus, error)
}
