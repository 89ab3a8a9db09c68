// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutInput is the request-scoped payment input from the host checkout.
// Exactly one of PaymentMethodID / TokenID / TransactionID is expected;
// precedence when several are present follows ProcessPayment's branch order.
type CheckoutInput struct {
	UserID                 int64  // acting customer, always explicit
	PaymentMethodID        string // fresh processor payment method
	TokenID                string // previously stored token
	TransactionID          string // client-confirmed transaction
	UpdateAllSubscriptions bool
}

// CheckoutResult is the terminal outcome returned to the host checkout.
// Success carries a redirect target; a recoverable decline carries a
// human-readable message instead.
type CheckoutResult struct {
	Success  bool
	Redirect string
	Message  string
}

type CheckoutUseCase interface {
	// ProcessPayment processes a single order's payment at checkout time.
	ProcessPayment(ctx context.Context, orderID int64, in CheckoutInput) (CheckoutResult, error)
	// AddPaymentMethod stores a processor payment method as a reusable token
	// outside of any order; returns the token and the account-page redirect.
	AddPaymentMethod(ctx context.Context, userID int64, paymentMethodID string) (*model.PaymentToken, string, error)
}

type checkoutUC struct {
	orders   repository.OrderRepository
	tokens   repository.TokenRepository
	subs     repository.SubscriptionRepository
	proc     adapter.PaymentProcessor
	tokenUC  TokenUseCase
	charge   ChargeUseCase
	customer CustomerUseCase

	returnURL  string // post-payment landing page, order id appended
	accountURL string // saved-cards account page
	log        *zerolog.Logger
}

func NewCheckoutUseCase(
	orders repository.OrderRepository,
	tokens repository.TokenRepository,
	subs repository.SubscriptionRepository,
	proc adapter.PaymentProcessor,
	tokenUC TokenUseCase,
	charge ChargeUseCase,
	customer CustomerUseCase,
	returnURL, accountURL string,
	logger *zerolog.Logger,
) *checkoutUC {
	l := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{
		orders:     orders,
		tokens:     tokens,
		subs:       subs,
		proc:       proc,
		tokenUC:    tokenUC,
		charge:     charge,
		customer:   customer,
		returnURL:  returnURL,
		accountURL: accountURL,
		log:        &l,
	}
}

func (u *checkoutUC) ProcessPayment(ctx context.Context, orderID int64, in CheckoutInput) (CheckoutResult, error) {
	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return CheckoutResult{}, err
	}

	// Branch 1: the order id is itself a subscription -> payment-method change,
	// nothing is charged.
	if sub, err := u.subs.FindByID(ctx, repository.NoTX, orderID); err == nil {
		return u.changeSubscriptionMethod(ctx, order, sub, in)
	}

	var txn *model.Transaction

	switch {
	// Branch 2: charge a stored token or a fresh payment method.
	case in.TokenID != "" || in.PaymentMethodID != "":
		token, err := u.resolveChargeToken(ctx, order, in)
		if err != nil {
			return CheckoutResult{}, err
		}
		txn, err = u.charge.ChargeOrder(ctx, order, order.Total, token.MethodID)
		if err != nil {
			var declined *domain.TransactionDeclinedError
			if errors.As(err, &declined) {
				u.log.Info().Int64("order_id", order.ID).Str("reason", declined.Description).Msg("charge declined")
				return CheckoutResult{Success: false, Message: "Payment error: " + declined.Description}, nil
			}
			return CheckoutResult{}, err
		}

	// Branch 3: the client already confirmed a transaction; verify and adopt it.
	default:
		txn, err = u.adoptClientTransaction(ctx, order, in)
		if err != nil {
			return CheckoutResult{}, err
		}
	}

	if err := u.finalize(ctx, order, txn); err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{Success: true, Redirect: u.orderReturnURL(order)}, nil
}

// changeSubscriptionMethod implements the payment-method update branch: the
// new method is tokenized and attached to the subscription's anchor order,
// optionally propagated to every subscription the customer owns.
func (u *checkoutUC) changeSubscriptionMethod(ctx context.Context, order *model.Order, sub *model.Subscription, in CheckoutInput) (CheckoutResult, error) {
	if in.PaymentMethodID == "" {
		return CheckoutResult{}, domain.ErrMissingPaymentInput
	}
	pm, err := u.proc.GetPaymentMethod(ctx, in.PaymentMethodID)
	if err != nil {
		return CheckoutResult{}, err
	}
	token, err := u.tokenUC.Reconcile(ctx, pm, order.UserID)
	if err != nil {
		return CheckoutResult{}, err
	}

	if err := u.setAnchorPaymentMethod(ctx, sub.ParentOrderID, token, pm); err != nil {
		return CheckoutResult{}, err
	}

	if in.UpdateAllSubscriptions {
		all, err := u.subs.FindByUser(ctx, repository.NoTX, order.UserID)
		if err != nil {
			return CheckoutResult{}, err
		}
		for _, s := range all {
			if err := u.setAnchorPaymentMethod(ctx, s.ParentOrderID, token, pm); err != nil {
				return CheckoutResult{}, err
			}
		}
	}

	u.log.Info().Int64("subscription_id", sub.ID).Str("token_id", token.ID).
		Bool("all", in.UpdateAllSubscriptions).Msg("subscription payment method updated")
	return CheckoutResult{Success: true, Redirect: u.accountURL}, nil
}

func (u *checkoutUC) setAnchorPaymentMethod(ctx context.Context, anchorOrderID int64, token *model.PaymentToken, pm *model.PaymentMethod) error {
	anchor, err := u.orders.FindByID(ctx, repository.NoTX, anchorOrderID)
	if err != nil {
		return err
	}
	anchor.PaymentMethodID = token.ID
	anchor.PaymentMethodTitle = pm.Description
	return u.orders.Save(ctx, repository.NoTX, anchor)
}

// resolveChargeToken turns the checkout input into a chargeable token. Fresh
// payment methods get reconciled; when the order starts a subscription the
// token is also recorded on the order for future renewals.
func (u *checkoutUC) resolveChargeToken(ctx context.Context, order *model.Order, in CheckoutInput) (*model.PaymentToken, error) {
	if in.TokenID != "" {
		return u.tokens.FindByID(ctx, repository.NoTX, in.TokenID)
	}

	pm, err := u.proc.GetPaymentMethod(ctx, in.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	token, err := u.tokenUC.Reconcile(ctx, pm, order.UserID)
	if err != nil {
		return nil, err
	}

	if u.orderHasSubscription(ctx, order) {
		order.PaymentMethodID = token.ID
		order.PaymentMethodTitle = pm.Description
		if err := u.orders.Save(ctx, repository.NoTX, order); err != nil {
			return nil, err
		}
	}
	return token, nil
}

// adoptClientTransaction verifies a transaction the checkout page already
// executed: the amount must equal the order total exactly, the customer
// account link is backfilled, and for subscription orders a token is minted
// from the transaction's payment method.
func (u *checkoutUC) adoptClientTransaction(ctx context.Context, order *model.Order, in CheckoutInput) (*model.Transaction, error) {
	if in.TransactionID == "" {
		return nil, domain.ErrMissingPaymentInput
	}
	txn, err := u.proc.GetTransaction(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}

	if txn.Amount != order.Total {
		u.log.Warn().Int64("order_id", order.ID).
			Int64("order_total", order.Total).
			Int64("transaction_amount", txn.Amount).
			Msg("client transaction amount mismatch")
		return nil, domain.ErrAmountMismatch
	}

	if txn.AccountID == "" {
		accountID, err := u.customer.ResolveAccountID(ctx, order, nil)
		if err != nil {
			return nil, err
		}
		if accountID != "" {
			if err := u.proc.UpdateTransaction(ctx, txn.ID, map[string]any{"customer_id": accountID}); err != nil {
				return nil, err
			}
			if err := u.proc.UpdatePaymentMethod(ctx, txn.PaymentMethodID, map[string]any{"account_id": accountID}); err != nil {
				return nil, err
			}
			txn.AccountID = accountID
		}
	}

	order.TransactionID = txn.RefNumber

	if u.orderHasSubscription(ctx, order) {
		pm, err := u.proc.GetPaymentMethod(ctx, txn.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		token, err := u.tokenUC.Reconcile(ctx, pm, order.UserID)
		if err != nil {
			return nil, err
		}
		if err := u.tokens.AttachToOrder(ctx, repository.NoTX, order.ID, token.ID); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

// finalize marks an approved transaction processed and the order paid. A
// transaction already processed by charge execution passes through untouched.
func (u *checkoutUC) finalize(ctx context.Context, order *model.Order, txn *model.Transaction) error {
	if txn == nil || txn.StatusCode != model.TransactionApproved {
		return nil
	}
	if txn.Status == model.TransactionStatusProcessed {
		return nil
	}
	if err := u.proc.UpdateTransaction(ctx, txn.ID, map[string]any{
		"status":      model.TransactionStatusProcessed,
		"description": chargeDescription(order),
	}); err != nil {
		return err
	}
	txn.Status = model.TransactionStatusProcessed

	markOrderPaid(order)
	return u.orders.Save(ctx, repository.NoTX, order)
}

func (u *checkoutUC) orderHasSubscription(ctx context.Context, order *model.Order) bool {
	subs, err := u.subs.FindByParentOrder(ctx, repository.NoTX, order.ID)
	if err != nil {
		return false
	}
	return len(subs) > 0
}

func (u *checkoutUC) orderReturnURL(order *model.Order) string {
	return fmt.Sprintf("%s?order_id=%d", u.returnURL, order.ID)
}

func (u *checkoutUC) AddPaymentMethod(ctx context.Context, userID int64, paymentMethodID string) (*model.PaymentToken, string, error) {
	if paymentMethodID == "" {
		return nil, "", domain.ErrMissingPaymentInput
	}
	pm, err := u.proc.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return nil, "", err
	}
	token, err := u.tokenUC.Reconcile(ctx, pm, userID)
	if err != nil {
		return nil, "", err
	}
	return token, u.accountURL, nil
}
