package repository

import (
	"context"

	"commerce-payload-bridge/internal/domain/model"
)

// TokenRepository is the port to the host's saved-payment-method store.
type TokenRepository interface {
	Save(ctx context.Context, tx Tx, t *model.PaymentToken) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentToken, error)
	// FindByUserAndGateway lists a user's tokens for one gateway, oldest first.
	FindByUserAndGateway(ctx context.Context, tx Tx, userID int64, gatewayID string) ([]*model.PaymentToken, error)

	// AttachToOrder links a token to an order (the order's token list, used by
	// the legacy renewal fallback).
	AttachToOrder(ctx context.Context, tx Tx, orderID int64, tokenID string) error
	// FindByOrder lists tokens attached to an order, in attachment order.
	FindByOrder(ctx context.Context, tx Tx, orderID int64) ([]*model.PaymentToken, error)
}
