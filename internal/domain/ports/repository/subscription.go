package repository

import (
	"context"
	"time"

	"commerce-payload-bridge/internal/domain/model"
)

// SubscriptionRepository is the port to the host subscription store.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	// FindByID returns domain.ErrNotFound when the id is not a subscription.
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Subscription, error)
	// FindByParentOrder lists subscriptions anchored on the given order.
	FindByParentOrder(ctx context.Context, tx Tx, orderID int64) ([]*model.Subscription, error)
	FindByUser(ctx context.Context, tx Tx, userID int64) ([]*model.Subscription, error)
	// FindDue lists active subscriptions whose next payment is at or before
	// now, capped at limit.
	FindDue(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Subscription, error)
}
