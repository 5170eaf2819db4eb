package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

var errInvalidBody = fmt.Errorf("%w: invalid request body", service.ErrValidation)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError records err for APM and sends it with the matching HTTP status code.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := mapErrorToHTTPStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(code, ErrorResponse{Error: msg})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service error kinds to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrState), errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// invalidBody tags a gin binding failure as a validation error.
func invalidBody(err error) error {
	return fmt.Errorf("%w: %v", errInvalidBody, err)
}

// LocationRequest is a labelled point in a request body. Coordinates are
// pointers so a missing lat or lng is told apart from zero.
type LocationRequest struct {
	Name string   `json:"name" binding:"required"`
	Lat  *float64 `json:"lat" binding:"required"`
	Lng  *float64 `json:"lng" binding:"required"`
}

func (l LocationRequest) toDomain() domain.Location {
	return domain.Location{Name: l.Name, Lat: *l.Lat, Lng: *l.Lng}
}

// LocationBody is a labelled point in a response.
type LocationBody struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func locationBody(l domain.Location) LocationBody {
	return LocationBody{Name: l.Name, Lat: l.Lat, Lng: l.Lng}
}

// RideResponse is the HTTP representation of a ride as seen by one viewer.
type RideResponse struct {
	ID                 string       `json:"id"`
	RiderID            string       `json:"rider_id"`
	DriverID           string       `json:"driver_id,omitempty"`
	CarType            string       `json:"car_type"`
	Pickup             LocationBody `json:"pickup"`
	Dropoff            LocationBody `json:"dropoff"`
	OTP                int          `json:"otp,omitempty"`
	Fare               float64      `json:"fare"`
	DistanceKm         float64      `json:"distance_km"`
	DurationMin        float64      `json:"duration_min"`
	Status             string       `json:"status"`
	PaymentStatus      string       `json:"payment_status"`
	PaymentMode        string       `json:"payment_mode"`
	CancelledBy        string       `json:"cancelled_by,omitempty"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	AcceptedAt         *time.Time   `json:"accepted_at,omitempty"`
	StartedAt          *time.Time   `json:"started_at,omitempty"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
	CancelledAt        *time.Time   `json:"cancelled_at,omitempty"`

	Driver  *DriverProfile  `json:"driver,omitempty"`
	Vehicle *VehicleProfile `json:"vehicle,omitempty"`
}

// DriverProfile is the public part of the assigned driver.
type DriverProfile struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// VehicleProfile identifies the assigned car at pickup.
type VehicleProfile struct {
	Make               string `json:"make"`
	Model              string `json:"model"`
	Color              string `json:"color"`
	RegistrationNumber string `json:"registration_number"`
	Comfort            string `json:"comfort"`
}

// rideResponse renders the ride with the OTP visible only where viewer may see it.
func rideResponse(ride *domain.Ride, viewer domain.Role) RideResponse {
	r := ride.Redacted(viewer)
	return RideResponse{
		ID:                 r.ID,
		RiderID:            r.RiderID,
		DriverID:           r.DriverID,
		CarType:            string(r.CarType),
		Pickup:             locationBody(r.Pickup),
		Dropoff:            locationBody(r.Dropoff),
		OTP:                r.OTP,
		Fare:               r.Fare,
		DistanceKm:         r.DistanceKm,
		DurationMin:        r.DurationMin,
		Status:             string(r.Status),
		PaymentStatus:      string(r.PaymentStatus),
		PaymentMode:        string(r.PaymentMode),
		CancelledBy:        string(r.CancelledBy),
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
		AcceptedAt:         optionalTime(r.AcceptedAt),
		StartedAt:          optionalTime(r.StartedAt),
		CompletedAt:        optionalTime(r.CompletedAt),
		CancelledAt:        optionalTime(r.CancelledAt),
	}
}

// rideDetailsResponse renders the ride plus whatever assignment details were loaded.
func rideDetailsResponse(details *service.RideDetails, viewer domain.Role) RideResponse {
	out := rideResponse(details.Ride, viewer)
	if d := details.Driver; d != nil {
		out.Driver = &DriverProfile{Name: d.Name, Phone: d.Phone}
	}
	if v := details.Vehicle; v != nil {
		out.Vehicle = &VehicleProfile{
			Make:               v.Make,
			Model:              v.Model,
			Color:              v.Color,
			RegistrationNumber: v.RegistrationNumber,
			Comfort:            string(v.Comfort),
		}
	}
	return out
}

func rideResponses(rides []*domain.Ride, viewer domain.Role) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		out = append(out, rideResponse(ride, viewer))
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
