package models

import (
	"time"
)

type OrderStatus string

func (s OrderStatus) String() string {
	return string(s)
}

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	// OrderID is the human-readable business identifier,
	// e.g. W-7KQ2ZD-300826. The serial row id never leaves the database.
	OrderID        string      `json:"order_id"`
	ProductID      int64       `json:"product_id"`
	TotalAmount    float64     `json:"total_amount"`
	UserIdentifier string      `json:"user_identifier,omitempty"`
	PaymentID      string      `json:"payment_id,omitempty"`
	OrderStatus    OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	PaidAt         *time.Time  `json:"paid_at,omitempty"`
}
