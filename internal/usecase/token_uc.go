// File: internal/usecase/token_uc.go
package usecase

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ TokenUseCase = (*tokenUC)(nil)

type TokenUseCase interface {
	// Reconcile maps a processor payment method to exactly one local token for
	// the given user, creating one only when no existing token matches either
	// the processor id or the card fingerprint.
	Reconcile(ctx context.Context, pm *model.PaymentMethod, userID int64) (*model.PaymentToken, error)
}

type tokenUC struct {
	tokens repository.TokenRepository
	proc   adapter.PaymentProcessor
	log    *zerolog.Logger
}

func NewTokenUseCase(tokens repository.TokenRepository, proc adapter.PaymentProcessor, logger *zerolog.Logger) *tokenUC {
	l := logger.With().Str("component", "TokenUC").Logger()
	return &tokenUC{tokens: tokens, proc: proc, log: &l}
}

func (u *tokenUC) Reconcile(ctx context.Context, pm *model.PaymentMethod, userID int64) (*model.PaymentToken, error) {
	existing, err := u.tokens.FindByUserAndGateway(ctx, repository.NoTX, userID, model.GatewayID)
	if err != nil {
		return nil, err
	}

	for _, t := range existing {
		if t.Matches(pm) {
			u.patchBackref(ctx, pm.ID, t.ID)
			return t, nil
		}
	}

	t := model.NewTokenFromMethod(pm, userID)
	t.ID = ulid.Make().String()
	if err := u.tokens.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	u.patchBackref(ctx, pm.ID, t.ID)
	return t, nil
}

// patchBackref stores the local token id on the processor payment method.
// Non-critical bookkeeping: the attempt is logged and failures never surface.
func (u *tokenUC) patchBackref(ctx context.Context, methodID, tokenID string) {
	err := u.proc.UpdatePaymentMethod(ctx, methodID, map[string]any{
		"attrs": map[string]string{model.AttrTokenID: tokenID},
	})
	if err != nil {
		u.log.Warn().Err(err).
			Str("method_id", methodID).
			Str("token_id", tokenID).
			Msg("token back-reference patch failed")
		return
	}
	u.log.Debug().Str("method_id", methodID).Str("token_id", tokenID).Msg("token back-reference patched")
}
