package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"coachly/config"
	"coachly/internal/domain"
	"coachly/internal/middleware"
	"coachly/internal/models"
	"coachly/internal/repository"
	"coachly/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	cfg             *config.Config
	walletRepo      *repository.WalletRepository
	transactionRepo *repository.TransactionRepository
	userRepo        *repository.UserRepository
	provider        payment.Provider
}

func NewWalletHandler(
	cfg *config.Config,
	walletRepo *repository.WalletRepository,
	transactionRepo *repository.TransactionRepository,
	userRepo *repository.UserRepository,
	provider payment.Provider,
) *WalletHandler {
	return &WalletHandler{
		cfg:             cfg,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		provider:        provider,
	}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	w, err := h.walletRepo.GetOrCreate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	withdrawable, err := h.walletRepo.WithdrawableBalance(userID, h.cfg.Withdrawal.CreditAgingDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":              w.Balance,
		"withdrawable_balance": withdrawable,
	})
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, total, err := h.walletRepo.ListTransactions(userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": rows,
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

// PurchaseCredits creates a pending gateway transaction and returns the
// checkout URL. The wallet is credited only when the webhook confirms the
// payment.
func (h *WalletHandler) PurchaseCredits(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		CreditsAmount decimal.Decimal `json:"credits_amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.CreditsAmount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credits_amount must be positive"})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	amountMWK := req.CreditsAmount.Mul(h.cfg.Withdrawal.CreditRateMWK)
	txRef := fmt.Sprintf("cr-%s", uuid.NewString())
	t := &models.Transaction{
		UserID:          userID,
		TxRef:           txRef,
		AmountMWK:       amountMWK,
		Currency:        h.cfg.Payment.Currency,
		CreditsAmount:   req.CreditsAmount,
		Status:          domain.TxPending,
		TransactionMode: domain.TransactionModeCreditPurchase,
	}
	if err := h.transactionRepo.Create(t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create transaction"})
		return
	}
	checkout, err := h.provider.InitiateCheckout(c.Request.Context(), payment.CheckoutRequest{
		TxRef:       txRef,
		Amount:      amountMWK,
		Currency:    h.cfg.Payment.Currency,
		Email:       u.Email,
		Description: fmt.Sprintf("Purchase of %s credits", req.CreditsAmount),
		ReturnURL:   h.cfg.Payment.AppBaseURL + "/api/v1/webhooks/credits/return",
		CallbackURL: h.cfg.Payment.AppBaseURL + "/api/v1/webhooks/credits",
	})
	if err != nil {
		log.Printf("[Credits] checkout init failed for tx_ref=%s: %v", txRef, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"tx_ref":         txRef,
		"amount_mwk":     amountMWK,
		"credits_amount": req.CreditsAmount,
		"checkout_url":   checkout.CheckoutURL,
		"status":         domain.TxPending,
	})
}
