package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/repository"
	"commerce-payload-bridge/internal/infra/security"
)

var _ repository.TokenRepository = (*tokenRepo)(nil)

// tokenRepo stores payment tokens. The processor method id is encrypted at
// rest; card display fields stay plaintext so saved-card lists render without
// the key.
type tokenRepo struct {
	pool *pgxpool.Pool
	enc  *security.EncryptionService
}

func NewTokenRepo(pool *pgxpool.Pool, enc *security.EncryptionService) *tokenRepo {
	return &tokenRepo{pool: pool, enc: enc}
}

const tokenColumns = `id, user_id, gateway_id, method_id, card_brand, last4, expiry_month, expiry_year, created_at`

func (r *tokenRepo) Save(ctx context.Context, tx repository.Tx, t *model.PaymentToken) error {
	methodID, err := r.enc.Encrypt(t.MethodID)
	if err != nil {
		return domain.ErrOperationFailed
	}

	const q = `
INSERT INTO payment_tokens (
  id, user_id, gateway_id, method_id, card_brand, last4, expiry_month, expiry_year, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (id) DO UPDATE SET
  user_id=$2, gateway_id=$3, method_id=$4, card_brand=$5, last4=$6, expiry_month=$7, expiry_year=$8;`

	_, err = execSQL(ctx, r.pool, tx, q,
		t.ID, t.UserID, t.GatewayID, methodID, t.CardBrand, t.Last4, t.ExpiryMonth, t.ExpiryYear, t.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *tokenRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM payment_tokens WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return r.scanToken(row)
}

func (r *tokenRepo) FindByUserAndGateway(ctx context.Context, tx repository.Tx, userID int64, gatewayID string) ([]*model.PaymentToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM payment_tokens WHERE user_id=$1 AND gateway_id=$2 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, gatewayID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	return r.collectTokens(rows)
}

func (r *tokenRepo) AttachToOrder(ctx context.Context, tx repository.Tx, orderID int64, tokenID string) error {
	const q = `
INSERT INTO order_tokens (order_id, token_id, position)
VALUES ($1, $2, COALESCE((SELECT MAX(position)+1 FROM order_tokens WHERE order_id=$1), 0))
ON CONFLICT (order_id, token_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, orderID, tokenID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *tokenRepo) FindByOrder(ctx context.Context, tx repository.Tx, orderID int64) ([]*model.PaymentToken, error) {
	const q = `
SELECT t.id, t.user_id, t.gateway_id, t.method_id, t.card_brand, t.last4, t.expiry_month, t.expiry_year, t.created_at
  FROM payment_tokens t
  JOIN order_tokens ot ON ot.token_id = t.id
 WHERE ot.order_id = $1
 ORDER BY ot.position ASC;`

	rows, err := queryRows(ctx, r.pool, tx, q, orderID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	return r.collectTokens(rows)
}

func (r *tokenRepo) scanToken(row pgx.Row) (*model.PaymentToken, error) {
	t := &model.PaymentToken{}
	var methodID string
	if err := row.Scan(&t.ID, &t.UserID, &t.GatewayID, &methodID, &t.CardBrand,
		&t.Last4, &t.ExpiryMonth, &t.ExpiryYear, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	plain, err := r.enc.Decrypt(methodID)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	t.MethodID = plain
	return t, nil
}

func (r *tokenRepo) collectTokens(rows pgx.Rows) ([]*model.PaymentToken, error) {
	var out []*model.PaymentToken
	for rows.Next() {
		t, err := r.scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
