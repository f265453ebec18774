package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"coachly/config"
	"coachly/internal/domain"
	"coachly/internal/models"
	"coachly/internal/repository"
	"coachly/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreditsCallback is the gateway webhook payload for a checkout.
type CreditsCallback struct {
	TxRef     string `json:"tx_ref"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	EventType string `json:"event_type"`
}

type CreditsWebhookHandler struct {
	cfg             *config.Config
	transactionRepo *repository.TransactionRepository
	auditRepo       *repository.AuditLogRepository
	provider        payment.Provider
}

func NewCreditsWebhookHandler(
	cfg *config.Config,
	transactionRepo *repository.TransactionRepository,
	auditRepo *repository.AuditLogRepository,
	provider payment.Provider,
) *CreditsWebhookHandler {
	return &CreditsWebhookHandler{
		cfg:             cfg,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		provider:        provider,
	}
}

// Handle processes the gateway callback. The raw body is authenticated with
// HMAC-SHA256 over the shared secret before anything is parsed. Replays of
// an already-successful transaction are acknowledged without re-crediting.
func (h *CreditsWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret == "" {
		log.Printf("[Webhook] rejected: webhook secret not configured")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "webhook not configured"})
		return
	}
	sig := c.GetHeader("Signature")
	if sig == "" || !h.verifySignature(body, sig) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var payload CreditsCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	txRef := payload.TxRef
	if txRef == "" {
		txRef = payload.Reference
	}
	if txRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tx_ref required"})
		return
	}
	h.finalize(c, txRef, payload.Status, string(body))
}

// HandleReturn is the browser redirect target after checkout. There is no
// signature on a redirect, so the status is re-verified against the gateway
// before finalizing, then the user is sent to the frontend result page.
func (h *CreditsWebhookHandler) HandleReturn(c *gin.Context) {
	txRef := c.Query("tx_ref")
	if txRef == "" {
		c.Redirect(http.StatusFound, h.cfg.Payment.AppBaseURL+"/payment/failed")
		return
	}
	st, err := h.provider.VerifyTransaction(c.Request.Context(), txRef)
	if err != nil {
		log.Printf("[Webhook] verify failed for tx_ref=%s: %v", txRef, err)
		c.Redirect(http.StatusFound, h.cfg.Payment.AppBaseURL+"/payment/failed?tx_ref="+txRef)
		return
	}
	status, err := h.applyStatus(txRef, st.Status, st.Raw, c.ClientIP(), c.Request.UserAgent())
	// The server-to-server webhook usually beats the browser here, so an
	// already-finalized transaction is the normal case. The redirect is
	// decided on the transaction's status, not on whether this request was
	// the one that finalized it.
	if errors.Is(err, errAlreadyProcessed) {
		err = nil
	}
	if err != nil || status != domain.TxSuccess {
		c.Redirect(http.StatusFound, h.cfg.Payment.AppBaseURL+"/payment/failed?tx_ref="+txRef)
		return
	}
	c.Redirect(http.StatusFound, h.cfg.Payment.AppBaseURL+"/payment/success?tx_ref="+txRef)
}

func (h *CreditsWebhookHandler) finalize(c *gin.Context, txRef, gatewayStatus, raw string) {
	status, err := h.applyStatus(txRef, gatewayStatus, raw, c.ClientIP(), c.Request.UserAgent())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	if errors.Is(err, errAlreadyProcessed) {
		c.JSON(http.StatusOK, gin.H{"received": true, "status": "already processed"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "status": status})
}

var errAlreadyProcessed = errors.New("transaction already processed")

// applyStatus updates the transaction row and, on a successful credit
// purchase, credits the wallet exactly once. The transaction's own status
// is the idempotency guard.
func (h *CreditsWebhookHandler) applyStatus(txRef, gatewayStatus, raw, ip, userAgent string) (string, error) {
	t, err := h.transactionRepo.GetByTxRef(txRef)
	if err != nil {
		log.Printf("[Webhook] transaction not found for tx_ref=%s", txRef)
		return "", err
	}
	if t.Status == domain.TxSuccess {
		log.Printf("[Webhook] tx_ref=%s already success, ignoring replay", txRef)
		return t.Status, errAlreadyProcessed
	}
	switch gatewayStatus {
	case "success", "completed":
		now := time.Now()
		t.Status = domain.TxSuccess
		t.CompletedAt = &now
		t.GatewayResponse = raw
		if t.TransactionMode == domain.TransactionModeCreditPurchase {
			// Status flip and wallet credit commit together: if the credit
			// fails the row stays pending and the gateway retry gets another
			// shot instead of tripping the replay guard.
			if err := h.transactionRepo.FinalizeWithCredit(t, t.CreditsAmount, domain.LedgerPurchase); err != nil {
				log.Printf("[Webhook] wallet credit failed for tx_ref=%s: %v", txRef, err)
				return "", err
			}
		} else if err := h.transactionRepo.Update(t); err != nil {
			return "", err
		}
		_ = h.auditRepo.Create(&models.AuditLog{
			UserID:     &t.UserID,
			Action:     "credit_purchase_completed",
			Resource:   "transaction",
			ResourceID: t.TxRef,
			IP:         ip,
			UserAgent:  userAgent,
		})
		log.Printf("[Webhook] tx_ref=%s success, credited %s credits to user %d", txRef, t.CreditsAmount, t.UserID)
	case "failed", "cancelled", "rejected":
		t.Status = domain.TxFailed
		t.GatewayResponse = raw
		if err := h.transactionRepo.Update(t); err != nil {
			return "", err
		}
		log.Printf("[Webhook] tx_ref=%s failed (gateway status %s)", txRef, gatewayStatus)
	default:
		log.Printf("[Webhook] tx_ref=%s unhandled gateway status %q, leaving pending", txRef, gatewayStatus)
	}
	return t.Status, nil
}

func (h *CreditsWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Payment.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
