package redis

import (
	"context"
	"encoding/json"
	"time"

	"commerce-payload-bridge/internal/domain/model"
)

// MethodCache keeps recently fetched processor payment methods so repeated
// checkout steps do not refetch the same record.
type MethodCache struct {
	client *redClient
	ttl    time.Duration
}

func NewMethodCache(client *redClient, ttl time.Duration) *MethodCache {
	return &MethodCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *MethodCache) Store(ctx context.Context, pm *model.PaymentMethod) error {
	key := "payment_method:" + pm.ID
	data, err := json.Marshal(pm)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl)
}

func (c *MethodCache) Get(ctx context.Context, id string) (*model.PaymentMethod, error) {
	key := "payment_method:" + id
	data, err := c.client.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var pm model.PaymentMethod
	if err := json.Unmarshal([]byte(data), &pm); err != nil {
		return nil, err
	}
	return &pm, nil
}

// Invalidate drops a cached method, used after an attrs or account patch.
func (c *MethodCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, "payment_method:"+id)
}
