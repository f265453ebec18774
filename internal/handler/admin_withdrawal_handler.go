package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"coachly/config"
	"coachly/internal/domain"
	"coachly/internal/middleware"
	"coachly/internal/models"
	"coachly/internal/repository"
	"coachly/internal/service"
	"coachly/pkg/mailer"
	"coachly/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminWithdrawalHandler struct {
	cfg            *config.Config
	walletRepo     *repository.WalletRepository
	withdrawalRepo *repository.WithdrawalRepository
	userRepo       *repository.UserRepository
	auditRepo      *repository.AuditLogRepository
	withdrawalSvc  *service.WithdrawalService
	provider       payment.Provider
	mail           *mailer.Mailer
	payoutEnabled  bool
}

func NewAdminWithdrawalHandler(
	cfg *config.Config,
	walletRepo *repository.WalletRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditLogRepository,
	withdrawalSvc *service.WithdrawalService,
	provider payment.Provider,
	mail *mailer.Mailer,
) *AdminWithdrawalHandler {
	return &AdminWithdrawalHandler{
		cfg:            cfg,
		walletRepo:     walletRepo,
		withdrawalRepo: withdrawalRepo,
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		withdrawalSvc:  withdrawalSvc,
		provider:       provider,
		mail:           mail,
		payoutEnabled:  cfg.Payment.SecretKey != "",
	}
}

// Decide approves or rejects a pending request. This is the single
// authoritative approval path: the ledger debit at approval time re-checks
// the live balance, so a balance that has dropped since creation fails with
// 400 and the request stays pending. Requests already in a terminal state
// are acknowledged without reprocessing.
func (h *AdminWithdrawalHandler) Decide(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	var req struct {
		WithdrawalRequestID uint   `json:"withdrawal_request_id" binding:"required"`
		Action              string `json:"action" binding:"required,oneof=approve reject"`
		AdminNotes          string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.withdrawalRepo.GetByID(req.WithdrawalRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load request"})
		return
	}
	if domain.WithdrawalTerminal(w.Status) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"action":  req.Action,
			"status":  w.Status,
			"message": "request already processed",
		})
		return
	}
	if w.Status != domain.WithdrawalPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("request is %s, only pending requests can be decided", w.Status)})
		return
	}
	switch req.Action {
	case "approve":
		h.approve(c, w, adminID, req.AdminNotes)
	case "reject":
		h.reject(c, w, adminID, req.AdminNotes)
	}
}

func (h *AdminWithdrawalHandler) approve(c *gin.Context, w *models.WithdrawalRequest, adminID uint, notes string) {
	// Deduct first: the guarded ledger update is what re-validates the
	// balance at approval time.
	if _, err := h.walletRepo.ApplyLedgerEntry(
		w.CoachID, w.CreditsAmount.Neg(), domain.LedgerWithdrawal,
		"withdrawal_request", fmt.Sprintf("%d", w.ID), "",
	); err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance at approval time"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deduct credits"})
		return
	}
	if h.payoutEnabled {
		var details map[string]string
		_ = json.Unmarshal([]byte(w.PaymentDetails), &details)
		_, err := h.provider.InitiatePayout(c.Request.Context(), payment.PayoutRequest{
			Reference: w.TransactionRef,
			Amount:    w.AmountMWK,
			Currency:  h.cfg.Payment.Currency,
			Method:    w.PaymentMethod,
			Details:   details,
			Narration: fmt.Sprintf("Coachly withdrawal %d", w.ID),
		})
		if err != nil {
			// Refund the debit and leave the request pending so the admin
			// can approve again once the gateway recovers. A terminal status
			// here would strand the request with no re-dispatch path.
			log.Printf("[Withdrawal] payout dispatch failed for %s: %v", w.TransactionRef, err)
			if _, refundErr := h.walletRepo.ApplyLedgerEntry(
				w.CoachID, w.CreditsAmount, domain.LedgerRefund,
				"withdrawal_request", fmt.Sprintf("%d", w.ID), "",
			); refundErr != nil {
				log.Printf("[Withdrawal] refund after failed dispatch for %s: %v", w.TransactionRef, refundErr)
			}
			w.FailureReason = "payout dispatch failed"
			if updErr := h.withdrawalRepo.Update(w); updErr != nil {
				log.Printf("[Withdrawal] record dispatch failure for %s: %v", w.TransactionRef, updErr)
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "payout dispatch failed, request remains pending"})
			return
		}
		w.Status = domain.WithdrawalProcessing
	} else {
		w.Status = domain.WithdrawalApproved
	}
	now := time.Now()
	w.ProcessedBy = &adminID
	w.ProcessedAt = &now
	w.AdminNotes = notes
	w.FailureReason = ""
	if err := h.withdrawalRepo.Update(w); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update request"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &adminID,
		Action:     "withdrawal_approved",
		Resource:   "withdrawal_request",
		ResourceID: fmt.Sprintf("%d", w.ID),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	h.notifyCoach(w, "Your withdrawal request was approved",
		fmt.Sprintf("<p>Your withdrawal of %s credits (%s MWK) was approved.</p>", w.CreditsAmount, w.AmountMWK))
	log.Printf("[Withdrawal] request %d approved by admin %d, deducted %s credits", w.ID, adminID, w.CreditsAmount)
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"action":                "approve",
		"withdrawal_request_id": w.ID,
		"status":                w.Status,
	})
}

func (h *AdminWithdrawalHandler) reject(c *gin.Context, w *models.WithdrawalRequest, adminID uint, notes string) {
	now := time.Now()
	w.Status = domain.WithdrawalRejected
	w.ProcessedBy = &adminID
	w.ProcessedAt = &now
	w.AdminNotes = notes
	if err := h.withdrawalRepo.Update(w); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update request"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &adminID,
		Action:     "withdrawal_rejected",
		Resource:   "withdrawal_request",
		ResourceID: fmt.Sprintf("%d", w.ID),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	h.notifyCoach(w, "Your withdrawal request was rejected",
		fmt.Sprintf("<p>Your withdrawal of %s credits was rejected.</p><p>%s</p>", w.CreditsAmount, notes))
	log.Printf("[Withdrawal] request %d rejected by admin %d", w.ID, adminID)
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"action":                "reject",
		"withdrawal_request_id": w.ID,
		"status":                w.Status,
	})
}

// List returns withdrawal requests for the admin dashboard.
func (h *AdminWithdrawalHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, total, err := h.withdrawalRepo.List(c.Query("status"), page, limit)
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

// CheckStatus re-queries the gateway for one request on demand. Gateway
// failures leave the request untouched and still answer 200 with the
// current (unchanged) status.
func (h *AdminWithdrawalHandler) CheckStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	w, err := h.withdrawalRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load request"})
		return
	}
	status, checkErr := h.withdrawalSvc.CheckOne(c.Request.Context(), w)
	resp := gin.H{
		"withdrawal_request_id": w.ID,
		"status":                status,
	}
	if checkErr != nil {
		resp["gateway_error"] = "gateway unreachable, status unchanged"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminWithdrawalHandler) notifyCoach(w *models.WithdrawalRequest, subject, body string) {
	if !h.mail.Enabled() {
		return
	}
	coach, err := h.userRepo.GetByID(w.CoachID)
	if err != nil {
		return
	}
	if err := h.mail.Send([]string{coach.Email}, subject, body); err != nil {
		log.Printf("[Withdrawal] notify coach %d: %v", w.CoachID, err)
	}
}
