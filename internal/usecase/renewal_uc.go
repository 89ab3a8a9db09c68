// File: internal/usecase/renewal_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ RenewalUseCase = (*renewalUC)(nil)

type RenewalUseCase interface {
	// ProcessRenewal charges a subscription renewal order. It is a no-op when
	// the order is not pending (the scheduler may redeliver the same event).
	// domain.ErrNoPaymentMethod is returned to the scheduler's dunning/retry
	// mechanism when no usable token can be resolved.
	ProcessRenewal(ctx context.Context, amount int64, renewalOrderID int64, retry bool, previousError error) error
}

type renewalUC struct {
	orders repository.OrderRepository
	tokens repository.TokenRepository
	subs   repository.SubscriptionRepository
	proc   adapter.PaymentProcessor
	charge ChargeUseCase
	log    *zerolog.Logger
}

func NewRenewalUseCase(
	orders repository.OrderRepository,
	tokens repository.TokenRepository,
	subs repository.SubscriptionRepository,
	proc adapter.PaymentProcessor,
	charge ChargeUseCase,
	logger *zerolog.Logger,
) *renewalUC {
	l := logger.With().Str("component", "RenewalUC").Logger()
	return &renewalUC{orders: orders, tokens: tokens, subs: subs, proc: proc, charge: charge, log: &l}
}

func (u *renewalUC) ProcessRenewal(ctx context.Context, amount int64, renewalOrderID int64, retry bool, previousError error) error {
	order, err := u.orders.FindByID(ctx, repository.NoTX, renewalOrderID)
	if err != nil {
		return err
	}

	// Guard against double-charging on scheduler redelivery.
	if order.Status != model.OrderStatusPending {
		u.log.Info().Int64("order_id", order.ID).Str("status", string(order.Status)).
			Msg("renewal order not pending, skipping")
		return nil
	}
	if previousError != nil {
		u.log.Info().Int64("order_id", order.ID).Bool("retry", retry).
			AnErr("previous_error", previousError).Msg("renewal retry")
	}

	token, err := u.resolveRenewalToken(ctx, order)
	if err != nil {
		return err
	}

	if _, err := u.charge.ChargeOrder(ctx, order, amount, token.MethodID); err != nil {
		return err
	}

	// Persist the resolved token on the renewal order for future reference.
	order.PaymentMethodID = token.ID
	if pm, err := u.proc.GetPaymentMethod(ctx, token.MethodID); err == nil {
		order.PaymentMethodTitle = pm.Description
	}
	return u.orders.Save(ctx, repository.NoTX, order)
}

// resolveRenewalToken resolves the payment token from the first subscription
// associated with the renewal order: the anchor order's stored payment method,
// falling back to the anchor's attached token list for orders created by
// older integration versions.
func (u *renewalUC) resolveRenewalToken(ctx context.Context, order *model.Order) (*model.PaymentToken, error) {
	anchorID := order.ParentID
	if anchorID == 0 {
		anchorID = order.ID
	}
	subs, err := u.subs.FindByParentOrder(ctx, repository.NoTX, anchorID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, domain.ErrNoPaymentMethod
	}

	// TODO: when one order carries several subscriptions whose payment methods
	// diverged after purchase, the first subscription may not be authoritative.
	sub := subs[0]
	anchor, err := u.orders.FindByID(ctx, repository.NoTX, sub.ParentOrderID)
	if err != nil {
		return nil, err
	}

	if anchor.PaymentMethodID != "" {
		token, err := u.tokens.FindByID(ctx, repository.NoTX, anchor.PaymentMethodID)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	// Legacy support: fall back to the anchor order's token list.
	attached, err := u.tokens.FindByOrder(ctx, repository.NoTX, anchor.ID)
	if err != nil {
		return nil, err
	}
	if len(attached) == 0 {
		return nil, domain.ErrNoPaymentMethod
	}
	return attached[0], nil
}
