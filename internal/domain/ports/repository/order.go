package repository

import (
	"context"

	"commerce-payload-bridge/internal/domain/model"
)

// OrderRepository is the port to the host order store.
type OrderRepository interface {
	// Create inserts a new order and assigns its id.
	Create(ctx context.Context, tx Tx, o *model.Order) error
	// Save upserts the full order record, line items and metadata included.
	Save(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Order, error)
}
