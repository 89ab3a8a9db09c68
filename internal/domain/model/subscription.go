package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusOnHold    SubscriptionStatus = "on-hold"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription mirrors the host's recurring-purchase record. The anchor
// (parent) order is where the subscription's payment method is authoritatively
// stored; renewal orders reference it via Order.ParentID.
type Subscription struct {
	ID            int64
	UserID        int64
	ParentOrderID int64
	Status        SubscriptionStatus
	Interval      time.Duration // billing period
	NextPaymentAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Due reports whether a renewal payment is due at the given time.
func (s *Subscription) Due(now time.Time) bool {
	return s.Status == SubscriptionStatusActive &&
		s.NextPaymentAt != nil && !now.Before(*s.NextPaymentAt)
}
