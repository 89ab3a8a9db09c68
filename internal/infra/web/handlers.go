package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/infra/logging"
	"commerce-payload-bridge/internal/infra/metrics"
	"commerce-payload-bridge/internal/infra/redis"
	"commerce-payload-bridge/internal/usecase"
)

type checkoutRequest struct {
	PaymentMethodID        string `json:"payment_method_id"`
	TokenID                string `json:"token_id"`
	TransactionID          string `json:"transaction_id"`
	UpdateAllSubscriptions bool   `json:"update_all_subscriptions"`
}

type checkoutResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}
	ctx = logging.WithOrderID(ctx, orderID)

	claims, err := s.auth.ParseFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	ctx = logging.WithUserID(ctx, userID)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// One checkout per order at a time; a double-submitted form waits briefly,
	// then bounces.
	lockKey := redis.OrderLockKey(orderID)
	lockToken, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		metrics.IncCheckout("conflict")
		http.Error(w, "Checkout already in progress", http.StatusConflict)
		return
	}
	defer func() { _ = s.locker.Unlock(ctx, lockKey, lockToken) }()

	result, err := s.checkoutUC.ProcessPayment(ctx, orderID, usecase.CheckoutInput{
		UserID:                 userID,
		PaymentMethodID:        req.PaymentMethodID,
		TokenID:                req.TokenID,
		TransactionID:          req.TransactionID,
		UpdateAllSubscriptions: req.UpdateAllSubscriptions,
	})
	if err != nil {
		s.writeCheckoutError(w, err)
		return
	}

	if result.Success {
		metrics.IncCheckout("success")
	} else {
		metrics.IncCheckout("declined")
	}
	writeJSON(w, http.StatusOK, checkoutResponse{
		Success:  result.Success,
		Redirect: result.Redirect,
		Message:  result.Message,
	})
}

func (s *Server) writeCheckoutError(w http.ResponseWriter, err error) {
	metrics.IncCheckout("error")
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrMissingPaymentInput), errors.Is(err, domain.ErrAmountMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNoPaymentMethod):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error().Err(err).Msg("checkout failed")
		http.Error(w, "Payment processing failed", http.StatusInternalServerError)
	}
}

type addMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

type addMethodResponse struct {
	TokenID  string `json:"token_id"`
	Redirect string `json:"redirect"`
}

func (s *Server) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := s.auth.ParseFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req addMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentMethodID == "" {
		http.Error(w, "payment_method_id is required", http.StatusBadRequest)
		return
	}

	token, redirect, err := s.checkoutUC.AddPaymentMethod(ctx, userID, req.PaymentMethodID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Payment method not found", http.StatusNotFound)
			return
		}
		s.log.Error().Err(err).Msg("add payment method failed")
		http.Error(w, "Failed to store payment method", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, addMethodResponse{TokenID: token.ID, Redirect: redirect})
}

type renewalRequest struct {
	OrderID       int64  `json:"order_id"`
	Amount        int64  `json:"amount"` // minor units
	Retry         bool   `json:"retry"`
	PreviousError string `json:"previous_error"`
}

// handleRenewal is the host scheduler's hook for a due subscription renewal.
func (s *Server) handleRenewal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req renewalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID <= 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ctx = logging.WithOrderID(ctx, req.OrderID)

	var prevErr error
	if req.PreviousError != "" {
		prevErr = errors.New(req.PreviousError)
	}

	err := s.renewalUC.ProcessRenewal(ctx, req.Amount, req.OrderID, req.Retry, prevErr)
	switch {
	case err == nil:
		metrics.IncRenewal("success")
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncRenewal("error")
		http.Error(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNoPaymentMethod):
		metrics.IncRenewal("error")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case domain.IsDeclined(err):
		metrics.IncRenewal("declined")
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"success": false,
			"message": err.Error(),
		})
	default:
		metrics.IncRenewal("error")
		s.log.Error().Err(err).Int64("order_id", req.OrderID).Msg("renewal failed")
		http.Error(w, "Renewal processing failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
