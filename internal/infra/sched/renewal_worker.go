// File: internal/infra/sched/renewal_worker.go
package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/domain/ports/repository"
	"commerce-payload-bridge/internal/infra/metrics"
	"commerce-payload-bridge/internal/usecase"
)

// RenewalWorker periodically scans for due subscriptions, creates a pending
// renewal order for each and charges it through the renewal use case. Failed
// renewals put the subscription on hold and notify dunning.
type RenewalWorker struct {
	interval  time.Duration
	batchSize int

	txm       repository.TransactionManager
	subs      repository.SubscriptionRepository
	orders    repository.OrderRepository
	renewalUC usecase.RenewalUseCase
	notifier  adapter.DunningNotifier
	log       *zerolog.Logger
}

func NewRenewalWorker(
	interval time.Duration,
	batchSize int,
	txm repository.TransactionManager,
	subs repository.SubscriptionRepository,
	orders repository.OrderRepository,
	renewalUC usecase.RenewalUseCase,
	notifier adapter.DunningNotifier,
	logger *zerolog.Logger,
) *RenewalWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	compLog := logger.With().Str("component", "RenewalWorker").Logger()
	return &RenewalWorker{
		interval:  interval,
		batchSize: batchSize,
		txm:       txm,
		subs:      subs,
		orders:    orders,
		renewalUC: renewalUC,
		notifier:  notifier,
		log:       &compLog,
	}
}

func (w *RenewalWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting renewal worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping renewal worker")
			return ctx.Err()
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one scan over due subscriptions.
func (w *RenewalWorker) Sweep(ctx context.Context) {
	due, err := w.subs.FindDue(ctx, repository.NoTX, time.Now(), w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("due subscription scan failed")
		return
	}
	metrics.ObserveRenewalBatch(len(due))

	for _, sub := range due {
		if err := w.renewOne(ctx, sub); err != nil {
			w.log.Error().Err(err).Int64("subscription_id", sub.ID).Msg("renewal failed")
		}
	}
}

func (w *RenewalWorker) renewOne(ctx context.Context, sub *model.Subscription) error {
	// Create the renewal order under a transaction holding the anchor row,
	// so overlapping sweeps cannot mint two renewals for one due date.
	var renewal *model.Order
	err := w.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		anchor, err := w.orders.FindByID(ctx, tx, sub.ParentOrderID)
		if err != nil {
			return err
		}
		renewal = &model.Order{
			UserID:   sub.UserID,
			Total:    anchor.Total,
			Currency: anchor.Currency,
			Status:   model.OrderStatusPending,
			ParentID: anchor.ID,
			Items:    anchor.Items,
		}
		return w.orders.Create(ctx, tx, renewal)
	})
	if err != nil {
		metrics.IncRenewal("error")
		return err
	}

	err = w.renewalUC.ProcessRenewal(ctx, renewal.Total, renewal.ID, false, nil)
	if err != nil {
		w.handleFailure(ctx, sub, renewal, err)
		return err
	}

	metrics.IncRenewal("success")
	metrics.IncCharge("success")
	metrics.AddChargeRevenue(renewal.Currency, renewal.Total)
	next := time.Now().Add(sub.Interval)
	sub.NextPaymentAt = &next
	if err := w.subs.Save(ctx, repository.NoTX, sub); err != nil {
		w.log.Error().Err(err).Int64("subscription_id", sub.ID).
			Msg("failed to advance next payment date")
	}
	return nil
}

// handleFailure marks the renewal order failed, puts the subscription on hold
// and fires a dunning notification. The next sweep will not pick the
// subscription up again until it is reactivated.
func (w *RenewalWorker) handleFailure(ctx context.Context, sub *model.Subscription, renewal *model.Order, cause error) {
	if domain.IsDeclined(cause) {
		metrics.IncRenewal("declined")
		metrics.IncCharge("declined")
	} else {
		metrics.IncRenewal("error")
		metrics.IncCharge("error")
	}

	renewal.Status = model.OrderStatusFailed
	if err := w.orders.Save(ctx, repository.NoTX, renewal); err != nil {
		w.log.Error().Err(err).Int64("order_id", renewal.ID).Msg("failed to mark renewal order failed")
	}

	sub.Status = model.SubscriptionStatusOnHold
	if err := w.subs.Save(ctx, repository.NoTX, sub); err != nil {
		w.log.Error().Err(err).Int64("subscription_id", sub.ID).Msg("failed to put subscription on hold")
	}

	if w.notifier != nil {
		if err := w.notifier.NotifyRenewalFailure(ctx, renewal.ID, renewal.Total, cause.Error()); err != nil {
			w.log.Warn().Err(err).Int64("order_id", renewal.ID).Msg("dunning notification failed")
		}
	}
}
