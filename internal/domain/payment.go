package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment is the settlement record written when a ride completes.
type Payment struct {
	ID             string
	RideID         string
	Amount         float64
	Mode           PaymentMode
	Status         PaymentStatus
	IdempotencyKey string
	CreatedAt      time.Time
}
