package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"coachly/internal/domain"
	"coachly/internal/models"
	"coachly/internal/repository"
	"coachly/pkg/payment"
)

// CheckCooldown is how old a processing request must be before the poller
// queries the gateway for it again.
const CheckCooldown = 5 * time.Minute

// CheckBatchSize bounds one polling pass.
const CheckBatchSize = 50

// WithdrawalService drives gateway-routed withdrawal requests from
// processing to a terminal status. Updating to the same terminal status
// twice is harmless, so overlapping polling runs are safe.
type WithdrawalService struct {
	withdrawals *repository.WithdrawalRepository
	wallets     *repository.WalletRepository
	provider    payment.Provider
}

func NewWithdrawalService(
	withdrawals *repository.WithdrawalRepository,
	wallets *repository.WalletRepository,
	provider payment.Provider,
) *WithdrawalService {
	return &WithdrawalService{withdrawals: withdrawals, wallets: wallets, provider: provider}
}

// MapGatewayStatus translates the gateway's payout vocabulary into the
// withdrawal lifecycle. The second return is false for statuses that leave
// the request untouched.
func MapGatewayStatus(gatewayStatus string) (string, bool) {
	switch gatewayStatus {
	case "success", "completed":
		return domain.WithdrawalCompleted, true
	case "failed", "rejected", "cancelled":
		return domain.WithdrawalFailed, true
	case "pending", "processing":
		return "", false
	default:
		log.Printf("[Withdrawal] unrecognized gateway status %q, leaving request unchanged", gatewayStatus)
		return "", false
	}
}

// CheckOne queries the gateway for a single request and applies the status
// mapping. It returns the (possibly unchanged) status. Gateway errors are
// reported to the caller but leave the request in its current state for a
// later retry.
func (s *WithdrawalService) CheckOne(ctx context.Context, w *models.WithdrawalRequest) (string, error) {
	if w.Status != domain.WithdrawalProcessing {
		return w.Status, nil
	}
	st, err := s.provider.PayoutStatus(ctx, w.TransactionRef)
	if err != nil {
		log.Printf("[Withdrawal] gateway check failed for %s: %v", w.TransactionRef, err)
		return w.Status, err
	}
	mapped, ok := MapGatewayStatus(st.Status)
	if !ok {
		return w.Status, nil
	}
	switch mapped {
	case domain.WithdrawalCompleted:
		now := time.Now()
		w.Status = domain.WithdrawalCompleted
		w.ProcessedAt = &now
		if err := s.withdrawals.Update(w); err != nil {
			return w.Status, err
		}
		log.Printf("[Withdrawal] request %d completed (ref=%s)", w.ID, w.TransactionRef)
	case domain.WithdrawalFailed:
		w.Status = domain.WithdrawalFailed
		w.FailureReason = fmt.Sprintf("gateway reported %s", st.Status)
		if err := s.withdrawals.Update(w); err != nil {
			return w.Status, err
		}
		// Credits were deducted at approval; a failed payout returns them.
		if _, err := s.wallets.ApplyLedgerEntry(
			w.CoachID, w.CreditsAmount, domain.LedgerRefund,
			"withdrawal_request", fmt.Sprintf("%d", w.ID), "",
		); err != nil {
			log.Printf("[Withdrawal] refund after failed payout %d: %v", w.ID, err)
		}
		log.Printf("[Withdrawal] request %d failed, refunded %s credits to coach %d", w.ID, w.CreditsAmount, w.CoachID)
	}
	return w.Status, nil
}

// CheckPending scans processing requests older than the cooldown window in
// one bounded batch. Meant to run on a schedule.
func (s *WithdrawalService) CheckPending(ctx context.Context) {
	cutoff := time.Now().Add(-CheckCooldown)
	rows, err := s.withdrawals.ListProcessingOlderThan(cutoff, CheckBatchSize)
	if err != nil {
		log.Printf("[Withdrawal] pending scan: %v", err)
		return
	}
	if len(rows) == 0 {
		return
	}
	log.Printf("[Withdrawal] checking %d processing request(s)", len(rows))
	for i := range rows {
		if _, err := s.CheckOne(ctx, &rows[i]); err != nil {
			// already logged; move on to the next request
			continue
		}
	}
}
