package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// Payment is immutable once written; one row per successful simulation.
type Payment struct {
	ID              int           `json:"id"`
	OrderID         int           `json:"order_id"`
	Amount          float64       `json:"amount"`
	Method          string        `json:"method"`
	Status          PaymentStatus `json:"status"`
	TransactionID   string        `json:"transaction_id"`
	GatewayResponse string        `json:"gateway_response,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

type SimulatePaymentRequest struct {
	OrderID       int     `json:"order_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
}
