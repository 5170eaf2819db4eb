package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested  RideStatus = "Requested"
	RideStatusAccepted   RideStatus = "Accepted"
	RideStatusInProgress RideStatus = "In Progress"
	RideStatusCompleted  RideStatus = "Completed"
	RideStatusCancelled  RideStatus = "Cancelled"
)

// rideTransitions is the ride lifecycle as a table. Terminal states have no entry.
var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusRequested:  {RideStatusAccepted, RideStatusCancelled},
	RideStatusAccepted:   {RideStatusInProgress, RideStatusCancelled},
	RideStatusInProgress: {RideStatusCompleted},
}

// CanTransition reports whether a ride may move from one status to another.
func CanTransition(from, to RideStatus) bool {
	for _, next := range rideTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// RidePaymentStatus represents the settlement state of a ride.
type RidePaymentStatus string

const (
	RidePaymentPending RidePaymentStatus = "Pending"
	RidePaymentPaid    RidePaymentStatus = "Paid"
)

// PaymentMode represents how the rider pays for a ride.
type PaymentMode string

const (
	PaymentModeCash PaymentMode = "Cash"
	PaymentModeCard PaymentMode = "Card"
	PaymentModeUpi  PaymentMode = "Upi"
)

// Valid reports whether the payment mode is known.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCard, PaymentModeUpi:
		return true
	}
	return false
}

// Party identifies who cancelled a ride.
type Party string

const (
	PartyUser   Party = "user"
	PartyDriver Party = "driver"
)

// Location is a labelled point.
type Location struct {
	Name string
	Lat  float64
	Lng  float64
}

// Ride represents a ride request and its lifecycle.
type Ride struct {
	ID                 string
	RiderID            string
	DriverID           string // empty until accepted
	CarType            ComfortClass
	Pickup             Location
	Dropoff            Location
	OTP                int // 0 until accepted
	Fare               float64
	DistanceKm         float64
	DurationMin        float64
	Status             RideStatus
	PaymentStatus      RidePaymentStatus
	PaymentMode        PaymentMode
	CancelledBy        Party
	CancellationReason string
	CreatedAt          time.Time
	AcceptedAt         time.Time
	StartedAt          time.Time
	CompletedAt        time.Time
	CancelledAt        time.Time
}

// Redacted returns a copy of the ride as the given viewer may see it.
// Only the rider sees the OTP, and only while the ride waits for pickup.
func (r Ride) Redacted(viewer Role) Ride {
	if viewer != RoleUser || r.Status != RideStatusAccepted {
		r.OTP = 0
	}
	return r
}
