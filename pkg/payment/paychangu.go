package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// PayChanguProvider talks to the PayChangu gateway (checkout + payouts) with
// the merchant secret key as a bearer token.
type PayChanguProvider struct {
	BaseURL   string
	SecretKey string
	client    *resty.Client
}

func NewPayChanguProvider(baseURL, secretKey string) *PayChanguProvider {
	if baseURL == "" {
		baseURL = "https://api.paychangu.com"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/json")
	return &PayChanguProvider{BaseURL: baseURL, SecretKey: secretKey, client: client}
}

type payChanguEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type payChanguCheckoutData struct {
	TxRef       string `json:"tx_ref"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

func (p *PayChanguProvider) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	body := map[string]string{
		"tx_ref":       req.TxRef,
		"amount":       req.Amount.StringFixed(2),
		"currency":     req.Currency,
		"email":        req.Email,
		"description":  req.Description,
		"return_url":   req.ReturnURL,
		"callback_url": req.CallbackURL,
	}
	resp, err := p.client.R().SetContext(ctx).SetBody(body).Post("/payment")
	if err != nil {
		return nil, fmt.Errorf("paychangu checkout: %w", err)
	}
	log.Printf("[PayChangu] POST /payment tx_ref=%s status=%d", req.TxRef, resp.StatusCode())
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("paychangu checkout: %d %s", resp.StatusCode(), resp.String())
	}
	var env payChanguEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, err
	}
	var data payChanguCheckoutData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	if data.TxRef == "" {
		data.TxRef = req.TxRef
	}
	return &CheckoutResponse{TxRef: data.TxRef, CheckoutURL: data.CheckoutURL, Status: data.Status}, nil
}

type payChanguTxData struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

func (p *PayChanguProvider) VerifyTransaction(ctx context.Context, txRef string) (*TransactionStatus, error) {
	resp, err := p.client.R().SetContext(ctx).Get("/verify-payment/" + txRef)
	if err != nil {
		return nil, fmt.Errorf("paychangu verify: %w", err)
	}
	log.Printf("[PayChangu] GET /verify-payment/%s status=%d", txRef, resp.StatusCode())
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("paychangu verify: %d %s", resp.StatusCode(), resp.String())
	}
	var env payChanguEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, err
	}
	var data payChanguTxData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	return &TransactionStatus{Reference: txRef, Status: data.Status, Raw: string(resp.Body())}, nil
}

type payChanguPayoutData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func (p *PayChanguProvider) InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	body := map[string]interface{}{
		"reference": req.Reference,
		"amount":    req.Amount.StringFixed(2),
		"currency":  req.Currency,
		"method":    req.Method,
		"details":   req.Details,
		"narration": req.Narration,
	}
	resp, err := p.client.R().SetContext(ctx).SetBody(body).Post("/payouts")
	if err != nil {
		return nil, fmt.Errorf("paychangu payout: %w", err)
	}
	log.Printf("[PayChangu] POST /payouts reference=%s status=%d", req.Reference, resp.StatusCode())
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("paychangu payout: %d %s", resp.StatusCode(), resp.String())
	}
	var env payChanguEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, err
	}
	var data payChanguPayoutData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}
	return &PayoutResponse{Reference: data.Reference, Status: data.Status}, nil
}

func (p *PayChanguProvider) PayoutStatus(ctx context.Context, reference string) (*TransactionStatus, error) {
	resp, err := p.client.R().SetContext(ctx).Get("/payouts/" + reference)
	if err != nil {
		return nil, fmt.Errorf("paychangu payout status: %w", err)
	}
	log.Printf("[PayChangu] GET /payouts/%s status=%d", reference, resp.StatusCode())
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("paychangu payout status: %d %s", resp.StatusCode(), resp.String())
	}
	var env payChanguEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, err
	}
	var data payChanguPayoutData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	return &TransactionStatus{Reference: reference, Status: data.Status, Raw: string(resp.Body())}, nil
}
