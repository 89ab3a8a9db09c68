// File: internal/usecase/charge_uc.go
package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ ChargeUseCase = (*chargeUC)(nil)

type ChargeUseCase interface {
	// ChargeOrder executes exactly one charge for the order against the
	// processor, records the reference number on the order, marks it paid and
	// patches the transaction to its processed terminal status.
	//
	// The two remote calls and the local save are not transactional; a crash
	// between them is reconciled by the host via order-number lookups.
	ChargeOrder(ctx context.Context, order *model.Order, amount int64, methodID string) (*model.Transaction, error)
}

type chargeUC struct {
	orders repository.OrderRepository
	proc   adapter.PaymentProcessor
	log    *zerolog.Logger
}

func NewChargeUseCase(orders repository.OrderRepository, proc adapter.PaymentProcessor, logger *zerolog.Logger) *chargeUC {
	l := logger.With().Str("component", "ChargeUC").Logger()
	return &chargeUC{orders: orders, proc: proc, log: &l}
}

// chargeDescription embeds the order id and a product summary; it is set both
// on create and on the terminal status patch.
func chargeDescription(order *model.Order) string {
	return fmt.Sprintf("Payment for order #%d related to Product: %s", order.ID, order.ProductSummary())
}

func (u *chargeUC) ChargeOrder(ctx context.Context, order *model.Order, amount int64, methodID string) (*model.Transaction, error) {
	desc := chargeDescription(order)

	txn, err := u.proc.CreateTransaction(ctx, model.TransactionRequest{
		Type:            "payment",
		Amount:          amount,
		PaymentMethodID: methodID,
		OrderNumber:     strconv.FormatInt(order.ID, 10),
		Description:     desc,
	})
	if err != nil {
		return nil, err
	}

	order.TransactionID = txn.RefNumber
	markOrderPaid(order)
	if err := u.orders.Save(ctx, repository.NoTX, order); err != nil {
		return nil, err
	}

	if err := u.proc.UpdateTransaction(ctx, txn.ID, map[string]any{
		"status":      model.TransactionStatusProcessed,
		"description": desc,
	}); err != nil {
		return nil, err
	}
	txn.Status = model.TransactionStatusProcessed

	u.log.Info().
		Int64("order_id", order.ID).
		Str("transaction_id", txn.ID).
		Str("ref_number", txn.RefNumber).
		Int64("amount", amount).
		Msg("charge executed")
	return txn, nil
}

func markOrderPaid(order *model.Order) {
	if order.IsPaid() {
		return
	}
	now := time.Now()
	order.Status = model.OrderStatusProcessing
	order.PaidAt = &now
	order.UpdatedAt = now
}
