package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"coachly/config"
	"coachly/internal/domain"
	"coachly/internal/middleware"
	"coachly/internal/models"
	"coachly/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalHandler struct {
	cfg            *config.Config
	walletRepo     *repository.WalletRepository
	withdrawalRepo *repository.WithdrawalRepository
}

func NewWithdrawalHandler(
	cfg *config.Config,
	walletRepo *repository.WalletRepository,
	withdrawalRepo *repository.WithdrawalRepository,
) *WithdrawalHandler {
	return &WithdrawalHandler{
		cfg:            cfg,
		walletRepo:     walletRepo,
		withdrawalRepo: withdrawalRepo,
	}
}

// Create files a pending withdrawal request. The balance is validated here
// but credits are deducted only at approval, so a rejected request never
// locks funds.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	coachID := middleware.GetUserID(c)
	var req struct {
		CreditsAmount  decimal.Decimal        `json:"credits_amount" binding:"required"`
		PaymentMethod  string                 `json:"payment_method" binding:"required"`
		PaymentDetails map[string]interface{} `json:"payment_details" binding:"required"`
		Notes          string                 `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.CreditsAmount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credits_amount must be positive"})
		return
	}
	limits := h.cfg.Withdrawal
	if req.CreditsAmount.LessThan(limits.MinCredits) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("minimum withdrawal is %s credits", limits.MinCredits)})
		return
	}
	if req.CreditsAmount.GreaterThan(limits.MaxCredits) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("maximum withdrawal is %s credits", limits.MaxCredits)})
		return
	}
	if limits.MaxPerHour > 0 {
		n, err := h.withdrawalRepo.CountByCoachSince(coachID, time.Now().Add(-time.Hour))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check request rate"})
			return
		}
		if n >= int64(limits.MaxPerHour) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many withdrawal requests, try again later"})
			return
		}
	}
	if limits.DailyCapCredits.IsPositive() {
		// The cap window is a UTC calendar day. Truncate on a local clock
		// would move the reset to an arbitrary local hour.
		startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
		used, err := h.withdrawalRepo.SumCreditsByCoachSince(coachID, startOfDay)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check daily cap"})
			return
		}
		if used.Add(req.CreditsAmount).GreaterThan(limits.DailyCapCredits) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("daily withdrawal cap of %s credits exceeded", limits.DailyCapCredits)})
			return
		}
	}
	withdrawable, err := h.walletRepo.WithdrawableBalance(coachID, limits.CreditAgingDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	if req.CreditsAmount.GreaterThan(withdrawable) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient withdrawable balance"})
		return
	}
	details, _ := json.Marshal(req.PaymentDetails)
	w := &models.WithdrawalRequest{
		CoachID:        coachID,
		CreditsAmount:  req.CreditsAmount,
		AmountMWK:      req.CreditsAmount.Mul(limits.CreditRateMWK),
		Status:         domain.WithdrawalPending,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: string(details),
		TransactionRef: fmt.Sprintf("wd-%s", uuid.NewString()),
		Notes:          req.Notes,
	}
	if err := h.withdrawalRepo.Create(w); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record withdrawal request"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"withdrawal_request_id": w.ID,
		"credits_amount":        w.CreditsAmount,
		"amount_mwk":            w.AmountMWK,
		"status":                w.Status,
	})
}

// ListMine returns the coach's own withdrawal requests.
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	coachID := middleware.GetUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, total, err := h.withdrawalRepo.ListByCoach(coachID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawal requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"withdrawals": rows,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}
