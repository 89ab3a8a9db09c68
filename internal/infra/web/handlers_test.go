//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/usecase"
)

type testServer struct {
	srv      *Server
	checkout *mockCheckoutUC
	renewal  *mockRenewalUC
	locker   *mockLocker
	auth     *AuthManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	checkout := &mockCheckoutUC{}
	renewal := &mockRenewalUC{}
	locker := &mockLocker{}
	auth := NewAuthManager("test-secret-please-rotate", time.Hour)
	logger := zerolog.Nop()
	srv := NewServer(checkout, renewal, auth, locker, 30*time.Second, &logger)
	return &testServer{srv: srv, checkout: checkout, renewal: renewal, locker: locker, auth: auth}
}

func (ts *testServer) request(t *testing.T, method, path string, body any, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID > 0 {
		tok, err := ts.auth.Mint(userID)
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestCheckoutHandler(t *testing.T) {
	t.Run("processes a payment and returns the redirect", func(t *testing.T) {
		ts := newTestServer(t)
		ts.checkout.ProcessPaymentFunc = func(ctx context.Context, orderID int64, in usecase.CheckoutInput) (usecase.CheckoutResult, error) {
			if orderID != 42 {
				t.Errorf("expected order 42, got %d", orderID)
			}
			if in.UserID != 7 {
				t.Errorf("expected user 7 from the token subject, got %d", in.UserID)
			}
			if in.TransactionID != "txn-1" {
				t.Errorf("expected transaction id passed through, got %q", in.TransactionID)
			}
			return usecase.CheckoutResult{Success: true, Redirect: "https://shop.example/thanks?order_id=42"}, nil
		}

		rec := ts.request(t, http.MethodPost, "/api/v1/orders/42/payment",
			checkoutRequest{TransactionID: "txn-1"}, 7)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp checkoutResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.Success || resp.Redirect != "https://shop.example/thanks?order_id=42" {
			t.Errorf("unexpected response: %+v", resp)
		}
		if len(ts.locker.Locked) != 1 || len(ts.locker.Unlocked) != 1 {
			t.Errorf("expected the order lock taken and released, got %+v", ts.locker)
		}
	})

	t.Run("rejects requests without a bearer token", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.request(t, http.MethodPost, "/api/v1/orders/42/payment", checkoutRequest{}, 0)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if len(ts.checkout.ProcessCalls) != 0 {
			t.Error("use case must not run unauthenticated")
		}
	})

	t.Run("returns 409 when a checkout is already running", func(t *testing.T) {
		ts := newTestServer(t)
		ts.locker.TryLockErr = domain.ErrCheckoutInProgress

		rec := ts.request(t, http.MethodPost, "/api/v1/orders/42/payment", checkoutRequest{TokenID: "tok-1"}, 7)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if len(ts.checkout.ProcessCalls) != 0 {
			t.Error("use case must not run while locked")
		}
	})

	t.Run("maps domain errors to status codes", func(t *testing.T) {
		cases := []struct {
			err  error
			want int
		}{
			{domain.ErrNotFound, http.StatusNotFound},
			{domain.ErrMissingPaymentInput, http.StatusBadRequest},
			{domain.ErrAmountMismatch, http.StatusBadRequest},
			{domain.ErrNoPaymentMethod, http.StatusUnprocessableEntity},
		}
		for _, tc := range cases {
			ts := newTestServer(t)
			ts.checkout.ProcessPaymentFunc = func(ctx context.Context, orderID int64, in usecase.CheckoutInput) (usecase.CheckoutResult, error) {
				return usecase.CheckoutResult{}, tc.err
			}
			rec := ts.request(t, http.MethodPost, "/api/v1/orders/42/payment", checkoutRequest{TokenID: "tok-1"}, 7)
			if rec.Code != tc.want {
				t.Errorf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
			}
		}
	})

	t.Run("a decline is a 200 with success false", func(t *testing.T) {
		ts := newTestServer(t)
		ts.checkout.ProcessPaymentFunc = func(ctx context.Context, orderID int64, in usecase.CheckoutInput) (usecase.CheckoutResult, error) {
			return usecase.CheckoutResult{Success: false, Message: "Payment error: Insufficient funds"}, nil
		}

		rec := ts.request(t, http.MethodPost, "/api/v1/orders/42/payment", checkoutRequest{TokenID: "tok-1"}, 7)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp checkoutResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Success || resp.Message != "Payment error: Insufficient funds" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})
}

func TestAddPaymentMethodHandler(t *testing.T) {
	t.Run("stores a method and returns the token", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.request(t, http.MethodPost, "/api/v1/payment-methods",
			addMethodRequest{PaymentMethodID: "pm-1"}, 7)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp addMethodResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.TokenID != "tok-1" || resp.Redirect == "" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("requires payment_method_id", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.request(t, http.MethodPost, "/api/v1/payment-methods", addMethodRequest{}, 7)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRenewalHandler(t *testing.T) {
	t.Run("invokes renewal processing with request fields", func(t *testing.T) {
		ts := newTestServer(t)
		ts.renewal.ProcessRenewalFunc = func(ctx context.Context, amount int64, renewalOrderID int64, retry bool, previousError error) error {
			if amount != 1500 || renewalOrderID != 50 || !retry {
				t.Errorf("unexpected args: amount=%d order=%d retry=%v", amount, renewalOrderID, retry)
			}
			if previousError == nil || previousError.Error() != "card expired" {
				t.Errorf("expected previous error carried through, got %v", previousError)
			}
			return nil
		}

		rec := ts.request(t, http.MethodPost, "/api/v1/renewals",
			renewalRequest{OrderID: 50, Amount: 1500, Retry: true, PreviousError: "card expired"}, 7)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("a decline maps to 402", func(t *testing.T) {
		ts := newTestServer(t)
		ts.renewal.ProcessRenewalFunc = func(ctx context.Context, amount int64, renewalOrderID int64, retry bool, previousError error) error {
			return &domain.TransactionDeclinedError{Description: "Do not honor"}
		}

		rec := ts.request(t, http.MethodPost, "/api/v1/renewals", renewalRequest{OrderID: 50, Amount: 1500}, 7)
		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", rec.Code)
		}
	})

	t.Run("no resolvable method maps to 422", func(t *testing.T) {
		ts := newTestServer(t)
		ts.renewal.ProcessRenewalFunc = func(ctx context.Context, amount int64, renewalOrderID int64, retry bool, previousError error) error {
			return domain.ErrNoPaymentMethod
		}

		rec := ts.request(t, http.MethodPost, "/api/v1/renewals", renewalRequest{OrderID: 50, Amount: 1500}, 7)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})
}
