package adapter

import (
	"context"

	"commerce-payload-bridge/internal/domain/model"
)

// PaymentProcessor is the hex port for the remote payment processor.
//
// Update calls take free-form field patches because the processor exposes its
// records as attribute maps; the concrete client owns the wire encoding.
type PaymentProcessor interface {
	Name() string

	GetPaymentMethod(ctx context.Context, id string) (*model.PaymentMethod, error)
	// UpdatePaymentMethod patches fields on a stored method, e.g.
	// {"account_id": ...} or {"attrs": {...}}.
	UpdatePaymentMethod(ctx context.Context, id string, fields map[string]any) error

	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	// CreateTransaction submits a charge. A processor decline is returned as
	// *domain.TransactionDeclinedError.
	CreateTransaction(ctx context.Context, req model.TransactionRequest) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, fields map[string]any) error
}
