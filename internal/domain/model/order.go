package model

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // created, awaiting payment
	OrderStatusProcessing OrderStatus = "processing" // paid, awaiting fulfilment
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
)

// MetaCustomerID is the order metadata key caching the resolved processor
// customer account id.
const MetaCustomerID = "payload_customer_id"

// LineItem is a purchased product line on an order.
type LineItem struct {
	Name     string
	Quantity int
	Total    int64 // minor units
}

// Order mirrors the host commerce system's order record. Amounts are stored in
// minor units (cents) to avoid float errors.
type Order struct {
	ID                 int64
	UserID             int64
	Total              int64
	Currency           string
	Status             OrderStatus
	TransactionID      string // processor reference number once charged
	PaymentMethodID    string // local token id used to pay
	PaymentMethodTitle string // human description of the method
	ParentID           int64  // anchor order for renewals; 0 when none
	Items              []LineItem
	Meta               map[string]string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	PaidAt             *time.Time
}

// MetaValue reads a metadata key; empty string when absent.
func (o *Order) MetaValue(key string) string {
	if o.Meta == nil {
		return ""
	}
	return o.Meta[key]
}

// SetMeta writes a metadata key, allocating the map on first use.
func (o *Order) SetMeta(key, value string) {
	if o.Meta == nil {
		o.Meta = map[string]string{}
	}
	o.Meta[key] = value
}

// ProductSummary returns the comma-joined line-item names, used in
// processor-facing charge descriptions.
func (o *Order) ProductSummary() string {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		names = append(names, it.Name)
	}
	return strings.Join(names, ", ")
}

// IsPaid reports whether the order has reached a paid status.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusProcessing || o.Status == OrderStatusCompleted
}
