package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideRequested  NotificationType = "RIDE_REQUESTED"
	NotificationRideAccepted   NotificationType = "RIDE_ACCEPTED"
	NotificationJourneyStarted NotificationType = "JOURNEY_STARTED"
	NotificationRideCompleted  NotificationType = "RIDE_COMPLETED"
	NotificationRideCancelled  NotificationType = "RIDE_CANCELLED"
)

// Notification is a ride lifecycle event addressed to one party.
type Notification struct {
	ID          string            `json:"id"`
	Type        NotificationType  `json:"type"`
	RideID      string            `json:"ride_id"`
	RecipientID string            `json:"recipient_id"`
	Status      domain.RideStatus `json:"status"`
	Message     string            `json:"message"`
	Data        map[string]any    `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Publisher delivers notifications to the outside world.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// NotificationService turns ride transitions into notifications.
// Delivery is best-effort: a failed publish is logged and never fails the transition.
type NotificationService struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewNotificationService creates a new NotificationService. publisher may be nil.
func NewNotificationService(publisher Publisher, logger *slog.Logger) *NotificationService {
	return &NotificationService{publisher: publisher, logger: logger}
}

// NotifyRideRequested announces a new open ride of a comfort class.
func (s *NotificationService) NotifyRideRequested(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, ride, NotificationRideRequested, "",
		fmt.Sprintf("New %s ride from %s to %s", ride.CarType, ride.Pickup.Name, ride.Dropoff.Name),
		map[string]any{"car_type": ride.CarType, "fare": ride.Fare})
}

// NotifyRideAccepted tells the rider a driver is on the way. The OTP is never published.
func (s *NotificationService) NotifyRideAccepted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, ride, NotificationRideAccepted, ride.RiderID,
		"A driver has accepted your ride",
		map[string]any{"driver_id": ride.DriverID})
}

// NotifyJourneyStarted tells the rider the journey has begun.
func (s *NotificationService) NotifyJourneyStarted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, ride, NotificationJourneyStarted, ride.RiderID, "Your journey has started", nil)
}

// NotifyRideCompleted tells the rider the ride is over and paid.
func (s *NotificationService) NotifyRideCompleted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, ride, NotificationRideCompleted, ride.RiderID,
		fmt.Sprintf("Ride completed. Total fare: %.2f", ride.Fare),
		map[string]any{"fare": ride.Fare, "payment_mode": ride.PaymentMode})
}

// NotifyRideCancelled notifies the other party about a cancellation.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride) {
	recipientID := ride.RiderID
	message := "The driver has cancelled the ride"
	if ride.CancelledBy == domain.PartyUser {
		recipientID = ride.DriverID
		message = "The rider has cancelled the ride"
	}

	if recipientID == "" {
		return // No one to notify
	}

	s.send(ctx, ride, NotificationRideCancelled, recipientID, message,
		map[string]any{"cancelled_by": ride.CancelledBy, "reason": ride.CancellationReason})
}

func (s *NotificationService) send(ctx context.Context, ride *domain.Ride, typ NotificationType, recipientID, message string, data map[string]any) {
	if s == nil || s.publisher == nil {
		return
	}

	n := Notification{
		ID:          uuid.New().String(),
		Type:        typ,
		RideID:      ride.ID,
		RecipientID: recipientID,
		Status:      ride.Status,
		Message:     message,
		Data:        data,
		CreatedAt:   time.Now(),
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "notification publish failed", "type", typ, "ride_id", ride.ID, "error", err)
	}
}
