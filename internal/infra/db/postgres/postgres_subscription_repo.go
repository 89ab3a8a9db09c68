package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, parent_order_id, status, interval_seconds, next_payment_at, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, parent_order_id, status, interval_seconds, next_payment_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,NOW(),NOW()
) ON CONFLICT (id) DO UPDATE SET
  user_id=$2, parent_order_id=$3, status=$4, interval_seconds=$5, next_payment_at=$6, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.ParentOrderID, s.Status, int64(s.Interval/time.Second), s.NextPaymentAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindByParentOrder(ctx context.Context, tx repository.Tx, orderID int64) ([]*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE parent_order_id=$1 ORDER BY id ASC;`
	return r.findMany(ctx, tx, q, orderID)
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1 ORDER BY id ASC;`
	return r.findMany(ctx, tx, q, userID)
}

func (r *subscriptionRepo) FindDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE status='active' AND next_payment_at IS NOT NULL AND next_payment_at <= $1 ORDER BY next_payment_at ASC LIMIT $2;`
	return r.findMany(ctx, tx, q, now, limit)
}

func (r *subscriptionRepo) findMany(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	var intervalSec int64
	if err := row.Scan(&s.ID, &s.UserID, &s.ParentOrderID, &s.Status, &intervalSec,
		&s.NextPaymentAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Interval = time.Duration(intervalSec) * time.Second
	return s, nil
}
