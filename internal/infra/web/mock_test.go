//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/usecase"
)

// --- Mock use cases and locker ---

type mockCheckoutUC struct {
	mu sync.Mutex

	ProcessPaymentFunc   func(ctx context.Context, orderID int64, in usecase.CheckoutInput) (usecase.CheckoutResult, error)
	AddPaymentMethodFunc func(ctx context.Context, userID int64, paymentMethodID string) (*model.PaymentToken, string, error)

	ProcessCalls []usecase.CheckoutInput
}

var _ usecase.CheckoutUseCase = (*mockCheckoutUC)(nil)

func (m *mockCheckoutUC) ProcessPayment(ctx context.Context, orderID int64, in usecase.CheckoutInput) (usecase.CheckoutResult, error) {
	m.mu.Lock()
	m.ProcessCalls = append(m.ProcessCalls, in)
	m.mu.Unlock()
	if m.ProcessPaymentFunc != nil {
		return m.ProcessPaymentFunc(ctx, orderID, in)
	}
	return usecase.CheckoutResult{Success: true, Redirect: "https://shop.example/thanks"}, nil
}

func (m *mockCheckoutUC) AddPaymentMethod(ctx context.Context, userID int64, paymentMethodID string) (*model.PaymentToken, string, error) {
	if m.AddPaymentMethodFunc != nil {
		return m.AddPaymentMethodFunc(ctx, userID, paymentMethodID)
	}
	return &model.PaymentToken{ID: "tok-1", UserID: userID, MethodID: paymentMethodID}, "https://shop.example/account", nil
}

type mockRenewalUC struct {
	ProcessRenewalFunc func(ctx context.Context, amount int64, renewalOrderID int64, retry bool, previousError error) error

	Calls int
}

var _ usecase.RenewalUseCase = (*mockRenewalUC)(nil)

func (m *mockRenewalUC) ProcessRenewal(ctx context.Context, amount int64, renewalOrderID int64, retry bool, previousError error) error {
	m.Calls++
	if m.ProcessRenewalFunc != nil {
		return m.ProcessRenewalFunc(ctx, amount, renewalOrderID, retry, previousError)
	}
	return nil
}

type mockLocker struct {
	mu sync.Mutex

	TryLockErr error
	Locked     []string
	Unlocked   []string
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TryLockErr != nil {
		return "", m.TryLockErr
	}
	m.Locked = append(m.Locked, key)
	return "lock-token", nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unlocked = append(m.Unlocked, key)
	return nil
}
