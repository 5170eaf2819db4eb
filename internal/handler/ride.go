package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// RideHandler handles rider-facing HTTP requests.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	Pickup      LocationRequest `json:"pickup"`
	Dropoff     LocationRequest `json:"dropoff"`
	CarType     string          `json:"car_type" binding:"required"`
	PaymentMode string          `json:"payment_mode,omitempty"` // Cash, Card or Upi
}

// EstimateFaresRequest is the HTTP request body for a fare preview.
type EstimateFaresRequest struct {
	Pickup  LocationRequest `json:"pickup"`
	Dropoff LocationRequest `json:"dropoff"`
}

// FareEstimateResponse is one priced comfort class.
type FareEstimateResponse struct {
	CarType     string  `json:"car_type"`
	Image       string  `json:"image,omitempty"`
	Fare        float64 `json:"fare"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// CancelRideRequest is the optional HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		RiderID:     caller.ID,
		Pickup:      req.Pickup.toDomain(),
		Dropoff:     req.Dropoff.toDomain(),
		CarType:     domain.ComfortClass(req.CarType),
		PaymentMode: domain.PaymentMode(req.PaymentMode),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, rideResponse(ride, domain.RoleUser))
}

// EstimateFares handles POST /v1/fares/estimate
func (h *RideHandler) EstimateFares(c *gin.Context) {
	var req EstimateFaresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}

	estimates, err := h.rideService.EstimateFares(c.Request.Context(), req.Pickup.toDomain(), req.Dropoff.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]FareEstimateResponse, 0, len(estimates))
	for _, e := range estimates {
		out = append(out, FareEstimateResponse{
			CarType:     string(e.CarType),
			Image:       e.Image,
			Fare:        e.Fare,
			DistanceKm:  e.DistanceKm,
			DurationMin: e.DurationMin,
		})
	}
	respondJSON(c, http.StatusOK, out)
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	details, err := h.rideService.GetRideDetails(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideDetailsResponse(details, caller.Role))
}

// ListRides handles GET /v1/rides
func (h *RideHandler) ListRides(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	rides, err := h.rideService.ListRiderRides(c.Request.Context(), caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponses(rides, domain.RoleUser))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	var req CancelRideRequest
	// The body is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, invalidBody(err))
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), service.CancelRideRequest{
		RideID:      c.Param("id"),
		CancelledBy: domain.PartyUser,
		ActorID:     caller.ID,
		Reason:      req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, domain.RoleUser))
}
