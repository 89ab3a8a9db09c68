package payload

import (
	"context"

	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/infra/metrics"
	red "commerce-payload-bridge/internal/infra/redis"
)

var _ adapter.PaymentProcessor = (*cachedProcessor)(nil)

// cachedProcessor decorates the API client with a payment-method cache.
// Transactions are never cached; their status changes mid-checkout.
type cachedProcessor struct {
	inner adapter.PaymentProcessor
	cache *red.MethodCache
}

func NewCachedProcessor(inner adapter.PaymentProcessor, cache *red.MethodCache) adapter.PaymentProcessor {
	return &cachedProcessor{inner: inner, cache: cache}
}

func (d *cachedProcessor) Name() string { return d.inner.Name() }

func (d *cachedProcessor) GetPaymentMethod(ctx context.Context, id string) (*model.PaymentMethod, error) {
	if pm, err := d.cache.Get(ctx, id); err == nil {
		metrics.IncCacheRequest("payment_method", "hit")
		return pm, nil
	}

	metrics.IncCacheRequest("payment_method", "miss")
	pm, err := d.inner.GetPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = d.cache.Store(ctx, pm)
	return pm, nil
}

// UpdatePaymentMethod drops the cached copy so attrs and account patches are
// visible on the next read.
func (d *cachedProcessor) UpdatePaymentMethod(ctx context.Context, id string, fields map[string]any) error {
	_ = d.cache.Invalidate(ctx, id)
	return d.inner.UpdatePaymentMethod(ctx, id, fields)
}

func (d *cachedProcessor) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return d.inner.GetTransaction(ctx, id)
}

func (d *cachedProcessor) CreateTransaction(ctx context.Context, req model.TransactionRequest) (*model.Transaction, error) {
	return d.inner.CreateTransaction(ctx, req)
}

func (d *cachedProcessor) UpdateTransaction(ctx context.Context, id string, fields map[string]any) error {
	return d.inner.UpdateTransaction(ctx, id, fields)
}
