// File: internal/usecase/customer_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ CustomerUseCase = (*customerUC)(nil)

type CustomerUseCase interface {
	// ResolveAccountID lazily determines the processor customer account id for
	// the order's payer and caches it in order metadata. Remote lookup
	// failures are non-fatal: they return an empty id and leave the cache
	// untouched for the next attempt.
	//
	// When current is non-nil and lacks an account link, the resolved id is
	// patched onto it best-effort.
	ResolveAccountID(ctx context.Context, order *model.Order, current *model.PaymentMethod) (string, error)
}

type customerUC struct {
	orders repository.OrderRepository
	tokens repository.TokenRepository
	proc   adapter.PaymentProcessor
	log    *zerolog.Logger
}

func NewCustomerUseCase(orders repository.OrderRepository, tokens repository.TokenRepository, proc adapter.PaymentProcessor, logger *zerolog.Logger) *customerUC {
	l := logger.With().Str("component", "CustomerUC").Logger()
	return &customerUC{orders: orders, tokens: tokens, proc: proc, log: &l}
}

func (u *customerUC) ResolveAccountID(ctx context.Context, order *model.Order, current *model.PaymentMethod) (string, error) {
	accountID := order.MetaValue(model.MetaCustomerID)

	if accountID == "" {
		accountID = u.walkStoredMethod(ctx, order)
	}
	if accountID == "" {
		return "", nil
	}

	order.SetMeta(model.MetaCustomerID, accountID)
	if err := u.orders.Save(ctx, repository.NoTX, order); err != nil {
		return "", err
	}

	if current != nil && current.AccountID == "" {
		if err := u.proc.UpdatePaymentMethod(ctx, current.ID, map[string]any{"account_id": accountID}); err != nil {
			u.log.Warn().Err(err).
				Str("method_id", current.ID).
				Str("account_id", accountID).
				Msg("account link patch failed")
		}
	}
	return accountID, nil
}

// walkStoredMethod follows order -> stored token -> processor method ->
// account id. Any miss along the way yields an empty id.
func (u *customerUC) walkStoredMethod(ctx context.Context, order *model.Order) string {
	if order.PaymentMethodID == "" {
		return ""
	}
	token, err := u.tokens.FindByID(ctx, repository.NoTX, order.PaymentMethodID)
	if err != nil || token.MethodID == "" {
		return ""
	}
	pm, err := u.proc.GetPaymentMethod(ctx, token.MethodID)
	if err != nil {
		u.log.Debug().Err(err).Str("method_id", token.MethodID).Msg("account lookup failed")
		return ""
	}
	return pm.AccountID
}
