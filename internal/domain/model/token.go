package model

import "time"

// GatewayID identifies this gateway in the host's token store.
const GatewayID = "payload"

// PaymentToken is the local durable reference to a processor payment method,
// scoped to one user and one gateway. Card display fields are mirrored from
// the payment method at creation time.
type PaymentToken struct {
	ID          string // ULID
	UserID      int64
	GatewayID   string
	MethodID    string // processor payment-method id
	CardBrand   string
	Last4       string
	ExpiryMonth string // "MM"
	ExpiryYear  string // "YYYY"
	CreatedAt   time.Time
}

// Matches reports whether the token refers to the given payment method, either
// by exact processor id or by card fingerprint.
func (t *PaymentToken) Matches(pm *PaymentMethod) bool {
	if t.MethodID == pm.ID {
		return true
	}
	return pm.Card.SameCard(t.CardBrand, t.Last4, t.ExpiryMonth, t.ExpiryYear)
}

// NewTokenFromMethod populates a token from a payment method's card fields.
// The caller assigns the ID and persists it.
func NewTokenFromMethod(pm *PaymentMethod, userID int64) *PaymentToken {
	return &PaymentToken{
		UserID:      userID,
		GatewayID:   GatewayID,
		MethodID:    pm.ID,
		CardBrand:   pm.Card.Brand,
		Last4:       pm.Card.Last4(),
		ExpiryMonth: pm.Card.ExpiryMonth(),
		ExpiryYear:  pm.Card.ExpiryYear(),
		CreatedAt:   time.Now(),
	}
}
