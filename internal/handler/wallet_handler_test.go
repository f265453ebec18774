package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coachly/internal/domain"
	"coachly/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletTestRouter(t *testing.T) (*gin.Engine, *testDeps) {
	t.Helper()
	deps := newTestDeps(t)
	deps.seedUser(t, studentID, domain.RoleStudent)
	wh := handler.NewWalletHandler(deps.cfg, deps.walletRepo, deps.transactionRepo, deps.userRepo, deps.provider)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me/wallet", authAs(studentID), wh.GetBalance)
	r.GET("/me/wallet/transactions", authAs(studentID), wh.ListTransactions)
	r.POST("/me/wallet/purchase", authAs(studentID), wh.PurchaseCredits)
	return r, deps
}

func TestGetBalanceCreatesEmptyWallet(t *testing.T) {
	r, _ := walletTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/me/wallet", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Balance           decimal.Decimal `json:"balance"`
		WithdrawableValue decimal.Decimal `json:"withdrawable_balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Balance.IsZero())
	assert.True(t, resp.WithdrawableValue.IsZero())
}

func TestPurchaseCreditsCreatesPendingTransaction(t *testing.T) {
	r, deps := walletTestRouter(t)

	body := []byte(`{"credits_amount":"50"}`)
	req := httptest.NewRequest(http.MethodPost, "/me/wallet/purchase", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		TxRef       string          `json:"tx_ref"`
		AmountMWK   decimal.Decimal `json:"amount_mwk"`
		CheckoutURL string          `json:"checkout_url"`
		Status      string          `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CheckoutURL)
	assert.Equal(t, domain.TxPending, resp.Status)
	// 50 credits at 1000 MWK each.
	assert.True(t, resp.AmountMWK.Equal(decimal.RequireFromString("50000")), "got %s", resp.AmountMWK)

	tx, err := deps.transactionRepo.GetByTxRef(resp.TxRef)
	require.NoError(t, err)
	assert.Equal(t, domain.TxPending, tx.Status)
	assert.Equal(t, domain.TransactionModeCreditPurchase, tx.TransactionMode)

	// No credits until the webhook confirms.
	w, err := deps.walletRepo.GetOrCreate(studentID)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestPurchaseCreditsRejectsNonPositive(t *testing.T) {
	r, _ := walletTestRouter(t)
	body := []byte(`{"credits_amount":"-5"}`)
	req := httptest.NewRequest(http.MethodPost, "/me/wallet/purchase", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
