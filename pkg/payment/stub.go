package payment

import (
	"context"
	"sync"
)

// StubProvider is an in-memory provider for development and tests. Statuses
// can be primed per reference; unknown references report pending.
type StubProvider struct {
	mu        sync.Mutex
	statuses  map[string]string
	payoutErr error
}

func NewStubProvider() *StubProvider {
	return &StubProvider{statuses: make(map[string]string)}
}

// SetStatus primes the status the stub reports for a reference.
func (s *StubProvider) SetStatus(reference, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[reference] = status
}

// FailPayouts makes InitiatePayout return err until cleared with nil.
func (s *StubProvider) FailPayouts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payoutErr = err
}

func (s *StubProvider) status(reference string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.statuses[reference]; ok {
		return st
	}
	return "pending"
}

func (s *StubProvider) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	return &CheckoutResponse{
		TxRef:       req.TxRef,
		CheckoutURL: "https://checkout.stub.local/" + req.TxRef,
		Status:      "pending",
	}, nil
}

func (s *StubProvider) VerifyTransaction(ctx context.Context, txRef string) (*TransactionStatus, error) {
	return &TransactionStatus{Reference: txRef, Status: s.status(txRef)}, nil
}

func (s *StubProvider) InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	s.mu.Lock()
	err := s.payoutErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &PayoutResponse{Reference: req.Reference, Status: "processing"}, nil
}

func (s *StubProvider) PayoutStatus(ctx context.Context, reference string) (*TransactionStatus, error) {
	return &TransactionStatus{Reference: reference, Status: s.status(reference)}, nil
}
