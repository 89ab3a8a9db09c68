package adapter

import "context"

// DunningNotifier pushes renewal-payment failures to the merchant's ops
// channel so someone can chase the customer. Delivery is best-effort.
type DunningNotifier interface {
	NotifyRenewalFailure(ctx context.Context, orderID int64, amount int64, reason string) error
}
