package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, user_id, total, currency, status, transaction_id, payment_method_id, payment_method_title, parent_id, items, meta, created_at, updated_at, paid_at`

func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (
  user_id, total, currency, status, transaction_id, payment_method_id, payment_method_title, parent_id, items, meta, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW(),$11
) RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q,
		o.UserID, o.Total, o.Currency, o.Status, o.TransactionID, o.PaymentMethodID,
		o.PaymentMethodTitle, o.ParentID, o.Items, o.Meta, o.PaidAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&o.ID); err != nil {
		return domain.ErrReadDatabaseRow
	}
	return nil
}

func (r *orderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (
  id, user_id, total, currency, status, transaction_id, payment_method_id, payment_method_title, parent_id, items, meta, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW(),$12
) ON CONFLICT (id) DO UPDATE SET
  user_id=$2, total=$3, currency=$4, status=$5, transaction_id=$6, payment_method_id=$7, payment_method_title=$8, parent_id=$9, items=$10, meta=$11, updated_at=NOW(), paid_at=$12;`

	_, err := execSQL(ctx, r.pool, tx, q,
		o.ID, o.UserID, o.Total, o.Currency, o.Status, o.TransactionID, o.PaymentMethodID,
		o.PaymentMethodTitle, o.ParentID, o.Items, o.Meta, o.PaidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.Currency, &o.Status, &o.TransactionID,
		&o.PaymentMethodID, &o.PaymentMethodTitle, &o.ParentID, &o.Items, &o.Meta,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}
