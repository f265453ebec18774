package handler_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"coachly/internal/domain"
	"coachly/internal/handler"
	"coachly/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookTestRouter(t *testing.T) (*gin.Engine, *testDeps) {
	t.Helper()
	deps := newTestDeps(t)
	h := handler.NewCreditsWebhookHandler(deps.cfg, deps.transactionRepo, deps.auditRepo, deps.provider)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/credits", h.Handle)
	r.GET("/webhooks/credits/return", h.HandleReturn)
	return r, deps
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func seedPendingPurchase(t *testing.T, deps *testDeps, txRef string, credits string) {
	t.Helper()
	require.NoError(t, deps.transactionRepo.Create(&models.Transaction{
		UserID:          1,
		TxRef:           txRef,
		AmountMWK:       decimal.RequireFromString(credits).Mul(deps.cfg.Withdrawal.CreditRateMWK),
		CreditsAmount:   decimal.RequireFromString(credits),
		Status:          domain.TxPending,
		TransactionMode: domain.TransactionModeCreditPurchase,
	}))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r, deps := webhookTestRouter(t)
	seedPendingPurchase(t, deps, "cr-1", "50")

	body := []byte(`{"tx_ref":"cr-1","status":"success"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/credits", bytes.NewReader(body))
	req.Header.Set("Signature", "deadbeef")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	tx, err := deps.transactionRepo.GetByTxRef("cr-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TxPending, tx.Status)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	r, deps := webhookTestRouter(t)
	seedPendingPurchase(t, deps, "cr-1", "50")

	body := []byte(`{"tx_ref":"cr-1","status":"success"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/credits", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookCreditsWalletOnce(t *testing.T) {
	r, deps := webhookTestRouter(t)
	seedPendingPurchase(t, deps, "cr-1", "50")

	body := []byte(`{"tx_ref":"cr-1","status":"success"}`)
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/credits", bytes.NewReader(body))
		req.Header.Set("Signature", sign(deps.cfg.Payment.WebhookSecret, body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := send()
	assert.Equal(t, http.StatusOK, rec.Code)
	w, err := deps.walletRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("50")))

	// Replay acknowledges without crediting again.
	rec = send()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already processed")
	w, err = deps.walletRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("50")), "replay must not double-credit, got %s", w.Balance)
}

func TestReturnAfterWebhookRedirectsToSuccess(t *testing.T) {
	r, deps := webhookTestRouter(t)
	seedPendingPurchase(t, deps, "cr-1", "50")
	deps.provider.SetStatus("cr-1", "success")

	// Server-to-server webhook lands first and finalizes the purchase.
	body := []byte(`{"tx_ref":"cr-1","status":"success"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/credits", bytes.NewReader(body))
	req.Header.Set("Signature", sign(deps.cfg.Payment.WebhookSecret, body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The browser return for the same purchase must still land on the
	// success page, not the failed one.
	req = httptest.NewRequest(http.MethodGet, "/webhooks/credits/return?tx_ref=cr-1", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, deps.cfg.Payment.AppBaseURL+"/payment/success?tx_ref=cr-1", rec.Header().Get("Location"))
	w, err := deps.walletRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("50")), "return must not credit again, got %s", w.Balance)
}

func TestWebhookKeepsPendingWhenCreditFails(t *testing.T) {
	r, deps := webhookTestRouter(t)
	// A zero credits amount makes the ledger write fail after the status
	// flip, exercising the rollback.
	seedPendingPurchase(t, deps, "cr-bad", "0")

	body := []byte(`{"tx_ref":"cr-bad","status":"success"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/credits", bytes.NewReader(body))
	req.Header.Set("Signature", sign(deps.cfg.Payment.WebhookSecret, body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	tx, err := deps.transactionRepo.GetByTxRef("cr-bad")
	require.NoError(t, err)
	assert.Equal(t, domain.TxPending, tx.Status, "failed credit must leave the row retryable")
	_, err = deps.walletRepo.GetByUserID(1)
	assert.Error(t, err, "no wallet row should survive the rollback")
}

func TestWebhookFailedStatus(t *testing.T) {
	r, deps := webhookTestRouter(t)
	seedPendingPurchase(t, deps, "cr-1", "50")

	body := []byte(`{"tx_ref":"cr-1","status":"failed"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/credits", bytes.NewReader(body))
	req.Header.Set("Signature", sign(deps.cfg.Payment.WebhookSecret, body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	tx, err := deps.transactionRepo.GetByTxRef("cr-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TxFailed, tx.Status)
	_, err = deps.walletRepo.GetByUserID(1)
	assert.Error(t, err, "no wallet should be created for a failed purchase")
}

func TestWebhookUnknownTransaction(t *testing.T) {
	r, deps := webhookTestRouter(t)

	body := []byte(`{"tx_ref":"cr-missing","status":"success"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/credits", bytes.NewReader(body))
	req.Header.Set("Signature", sign(deps.cfg.Payment.WebhookSecret, body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReturnRedirectVerifiesWithGateway(t *testing.T) {
	r, deps := webhookTestRouter(t)
	seedPendingPurchase(t, deps, "cr-1", "25")
	deps.provider.SetStatus("cr-1", "success")

	req := httptest.NewRequest(http.MethodGet, "/webhooks/credits/return?tx_ref=cr-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, deps.cfg.Payment.AppBaseURL+"/payment/success?tx_ref=cr-1", rec.Header().Get("Location"))
	w, err := deps.walletRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("25")))
}

func TestReturnRedirectFailedPayment(t *testing.T) {
	r, deps := webhookTestRouter(t)
	seedPendingPurchase(t, deps, "cr-1", "25")
	deps.provider.SetStatus("cr-1", "failed")

	req := httptest.NewRequest(http.MethodGet, "/webhooks/credits/return?tx_ref=cr-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, deps.cfg.Payment.AppBaseURL+"/payment/failed?tx_ref=cr-1", rec.Header().Get("Location"))
}

