package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"coachly/internal/domain"
	"coachly/internal/handler"
	"coachly/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	coachID = uint(1)
	adminID = uint(2)
)

func withdrawalTestRouter(t *testing.T) (*gin.Engine, *testDeps) {
	t.Helper()
	deps := newTestDeps(t)
	deps.seedUser(t, coachID, domain.RoleCoach)
	deps.seedUser(t, adminID, domain.RoleAdmin)

	withdrawalSvc := service.NewWithdrawalService(deps.withdrawalRepo, deps.walletRepo, deps.provider)
	wh := handler.NewWithdrawalHandler(deps.cfg, deps.walletRepo, deps.withdrawalRepo)
	ah := handler.NewAdminWithdrawalHandler(
		deps.cfg, deps.walletRepo, deps.withdrawalRepo, deps.userRepo,
		deps.auditRepo, withdrawalSvc, deps.provider, nil,
	)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/withdrawals", authAs(coachID), wh.Create)
	r.GET("/me/withdrawals", authAs(coachID), wh.ListMine)
	r.POST("/admin/withdrawals/decide", authAs(adminID), ah.Decide)
	r.POST("/admin/withdrawals/:id/check", authAs(adminID), ah.CheckStatus)
	return r, deps
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createWithdrawal(t *testing.T, r *gin.Engine, credits string) uint {
	t.Helper()
	rec := postJSON(t, r, "/withdrawals", gin.H{
		"credits_amount": credits,
		"payment_method": "mobile_money",
		"payment_details": gin.H{
			"phone": "+265991234567",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		ID uint `json:"withdrawal_request_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func TestWithdrawalApproveDeductsAtApproval(t *testing.T) {
	r, deps := withdrawalTestRouter(t)
	deps.fund(t, coachID, "100")

	id := createWithdrawal(t, r, "60")

	// Creation validates but never deducts.
	w, err := deps.walletRepo.GetByUserID(coachID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("100")))

	rec := postJSON(t, r, "/admin/withdrawals/decide", gin.H{
		"withdrawal_request_id": id,
		"action":                "approve",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	w, err = deps.walletRepo.GetByUserID(coachID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("40")), "got %s", w.Balance)

	req, err := deps.withdrawalRepo.GetByID(id)
	require.NoError(t, err)
	// Payout provider is configured in tests, so approval dispatches.
	assert.Equal(t, domain.WithdrawalProcessing, req.Status)
	assert.NotNil(t, req.ProcessedBy)
	assert.Equal(t, adminID, *req.ProcessedBy)
}

func TestWithdrawalApproveInsufficientBalanceStaysPending(t *testing.T) {
	r, deps := withdrawalTestRouter(t)
	deps.fund(t, coachID, "100")

	id := createWithdrawal(t, r, "60")

	// Balance drops between creation and approval.
	err := deps.walletRepo.TransferCredits(coachID, adminID, decimal.RequireFromString("70"),
		domain.LedgerCoursePayment, domain.LedgerCourseEarning, "course", "c-1", "")
	require.NoError(t, err)

	rec := postJSON(t, r, "/admin/withdrawals/decide", gin.H{
		"withdrawal_request_id": id,
		"action":                "approve",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req, err := deps.withdrawalRepo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalPending, req.Status)
	w, err := deps.walletRepo.GetByUserID(coachID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("30")), "failed approval must not deduct, got %s", w.Balance)
}

func TestWithdrawalDecideTerminalIsIdempotent(t *testing.T) {
	r, deps := withdrawalTestRouter(t)
	deps.fund(t, coachID, "100")

	id := createWithdrawal(t, r, "20")
	rec := postJSON(t, r, "/admin/withdrawals/decide", gin.H{
		"withdrawal_request_id": id,
		"action":                "reject",
		"admin_notes":           "details look wrong",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req, err := deps.withdrawalRepo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalRejected, req.Status)
	assert.Equal(t, "details look wrong", req.AdminNotes)

	// A second decision of either kind acknowledges without changing anything.
	for _, action := range []string{"approve", "reject"} {
		rec = postJSON(t, r, "/admin/withdrawals/decide", gin.H{
			"withdrawal_request_id": id,
			"action":                action,
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "already processed")
	}
	w, err := deps.walletRepo.GetByUserID(coachID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("100")), "rejected request never touches the wallet")
}

func TestWithdrawalCreateValidations(t *testing.T) {
	r, deps := withdrawalTestRouter(t)
	deps.fund(t, coachID, "100")

	// Below the minimum.
	rec := postJSON(t, r, "/withdrawals", gin.H{
		"credits_amount":  "5",
		"payment_method":  "mobile_money",
		"payment_details": gin.H{"phone": "+265991234567"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// More than the withdrawable balance.
	rec = postJSON(t, r, "/withdrawals", gin.H{
		"credits_amount":  "200",
		"payment_method":  "mobile_money",
		"payment_details": gin.H{"phone": "+265991234567"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient withdrawable balance")
}

func TestWithdrawalDailyCap(t *testing.T) {
	r, deps := withdrawalTestRouter(t)
	deps.fund(t, coachID, "1000")
	deps.cfg.Withdrawal.DailyCapCredits = decimal.RequireFromString("25")

	createWithdrawal(t, r, "20")

	rec := postJSON(t, r, "/withdrawals", gin.H{
		"credits_amount":  "10",
		"payment_method":  "mobile_money",
		"payment_details": gin.H{"phone": "+265991234567"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "daily withdrawal cap")
}

func TestWithdrawalApproveDispatchFailureStaysRetryable(t *testing.T) {
	r, deps := withdrawalTestRouter(t)
	deps.fund(t, coachID, "100")

	id := createWithdrawal(t, r, "60")
	deps.provider.FailPayouts(errors.New("gateway down"))

	rec := postJSON(t, r, "/admin/withdrawals/decide", gin.H{
		"withdrawal_request_id": id,
		"action":                "approve",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())

	// Debit is rolled back and the request stays decidable.
	req, err := deps.withdrawalRepo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalPending, req.Status)
	assert.Equal(t, "payout dispatch failed", req.FailureReason)
	w, err := deps.walletRepo.GetByUserID(coachID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("100")), "failed dispatch must refund, got %s", w.Balance)

	// Once the gateway recovers the same request can be approved.
	deps.provider.FailPayouts(nil)
	rec = postJSON(t, r, "/admin/withdrawals/decide", gin.H{
		"withdrawal_request_id": id,
		"action":                "approve",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, err = deps.withdrawalRepo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalProcessing, req.Status)
	assert.Empty(t, req.FailureReason)
	w, err = deps.walletRepo.GetByUserID(coachID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("40")), "got %s", w.Balance)
}

func TestWithdrawalHourlyRateLimit(t *testing.T) {
	r, deps := withdrawalTestRouter(t)
	deps.fund(t, coachID, "1000")

	for i := 0; i < deps.cfg.Withdrawal.MaxPerHour; i++ {
		createWithdrawal(t, r, "10")
	}
	rec := postJSON(t, r, "/withdrawals", gin.H{
		"credits_amount":  "10",
		"payment_method":  "mobile_money",
		"payment_details": gin.H{"phone": "+265991234567"},
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestWithdrawalCheckStatusRefundsOnFailure(t *testing.T) {
	r, deps := withdrawalTestRouter(t)
	deps.fund(t, coachID, "100")

	id := createWithdrawal(t, r, "60")
	rec := postJSON(t, r, "/admin/withdrawals/decide", gin.H{
		"withdrawal_request_id": id,
		"action":                "approve",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req, err := deps.withdrawalRepo.GetByID(id)
	require.NoError(t, err)
	deps.provider.SetStatus(req.TransactionRef, "failed")

	rec = postJSON(t, r, fmt.Sprintf("/admin/withdrawals/%d/check", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.WithdrawalFailed)

	w, err := deps.walletRepo.GetByUserID(coachID)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("100")), "failed payout refunds the deduction, got %s", w.Balance)
}
