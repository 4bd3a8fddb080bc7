package models

import "time"

// PaymentStatus mirrors the status values eSewa reports in its callback.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentComplete   PaymentStatus = "COMPLETE"
	PaymentFullRefund PaymentStatus = "FULL_REFUND"
	PaymentCanceled   PaymentStatus = "CANCELED"
	// PaymentUnknown covers any status string outside the documented set.
	// It is never persisted.
	PaymentUnknown PaymentStatus = "UNKNOWN"
)

// ParsePaymentStatus maps a raw gateway status onto the closed set.
// Anything unrecognized becomes PaymentUnknown rather than an error so
// the state machine owns the rejection.
func ParsePaymentStatus(s string) PaymentStatus {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentComplete, PaymentFullRefund, PaymentCanceled:
		return PaymentStatus(s)
	default:
		return PaymentUnknown
	}
}

// Order is created exactly once per gateway transaction. TransactionID
// carries a storage-level uniqueness constraint; duplicate callback
// deliveries must resolve to the same row.
type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	BookID        string        `json:"book_id"`
	Quantity      int           `json:"quantity"`
	Price         int64         `json:"price"`
	TransactionID string        `json:"transaction_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
}
