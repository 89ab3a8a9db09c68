// File: internal/domain/model/processor.go
package model

import "strings"

// Processor-side records. These are owned by Payload; we only read and patch
// them, so the structs carry exactly the fields the bridge touches.

// AttrTokenID is the payment-method attribute key holding the back-reference
// to the local token id.
const AttrTokenID = "_token_id"

// CardSummary is the card block of a processor payment method.
// Expiry is the processor's "MM/YYYY" form.
type CardSummary struct {
	Brand  string `json:"card_brand"`
	Number string `json:"card_number"` // masked, e.g. "xxxxxxxxxxxx4242"
	Expiry string `json:"expiry"`
}

// Last4 returns the last four digits of the (masked) card number.
func (c CardSummary) Last4() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// ExpiryMonth returns the two-digit month from the MM/YYYY expiry.
func (c CardSummary) ExpiryMonth() string {
	if len(c.Expiry) < 2 {
		return ""
	}
	return c.Expiry[:2]
}

// ExpiryYear returns the four-digit year from the MM/YYYY expiry.
func (c CardSummary) ExpiryYear() string {
	if len(c.Expiry) < 4 {
		return ""
	}
	return c.Expiry[len(c.Expiry)-4:]
}

// SameCard matches on the card fingerprint: last4, expiry month/year and
// case-insensitive brand. The processor may issue a new payment-method id for
// the same physical card; this keeps the saved-cards list stable.
func (c CardSummary) SameCard(brand, last4, expMonth, expYear string) bool {
	return c.Last4() == last4 &&
		c.ExpiryMonth() == expMonth &&
		c.ExpiryYear() == expYear &&
		strings.EqualFold(c.Brand, brand)
}

// PaymentMethod is a stored card on the processor side.
type PaymentMethod struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"account_id"` // processor customer link; may be empty
	Description string            `json:"description"`
	Card        CardSummary       `json:"card"`
	Attrs       map[string]string `json:"attrs"`
}

type TransactionStatusCode string

const (
	TransactionApproved TransactionStatusCode = "approved"
	TransactionDeclined TransactionStatusCode = "declined"
)

// TransactionStatusProcessed is the terminal status we patch onto a finished
// charge.
const TransactionStatusProcessed = "processed"

// Transaction is a processor charge attempt. Amount is minor units; the API
// client converts to the processor's decimal representation.
type Transaction struct {
	ID              string
	Type            string // "payment"
	Amount          int64
	StatusCode      TransactionStatusCode
	Status          string
	RefNumber       string
	PaymentMethodID string
	AccountID       string
	OrderNumber     string
	Description     string
}

// TransactionRequest is the payload for creating a charge.
type TransactionRequest struct {
	Type            string
	Amount          int64
	PaymentMethodID string
	OrderNumber     string
	Description     string
}
