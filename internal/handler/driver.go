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

// DriverHandler handles driver-facing HTTP requests. The driver is always the token subject.
type DriverHandler struct {
	driverService   *service.DriverService
	rideService     *service.RideService
	matchingService *service.MatchingService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(
	driverService *service.DriverService,
	rideService *service.RideService,
	matchingService *service.MatchingService,
) *DriverHandler {
	return &DriverHandler{
		driverService:   driverService,
		rideService:     rideService,
		matchingService: matchingService,
	}
}

// RegisterDriverRequest is the HTTP request body for registering a driver.
type RegisterDriverRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email" binding:"required"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email"`
	IsAvailable bool   `json:"is_available"`
}

// VehicleRequest is the HTTP request body for a driver's vehicle.
type VehicleRequest struct {
	Make               string `json:"make" binding:"required"`
	Model              string `json:"model" binding:"required"`
	Color              string `json:"color" binding:"required"`
	Year               int    `json:"year" binding:"required"`
	RegistrationNumber string `json:"registration_number" binding:"required"`
	Comfort            string `json:"comfort" binding:"required"`
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID                 string `json:"id"`
	DriverID           string `json:"driver_id"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	Color              string `json:"color,omitempty"`
	Year               int    `json:"year,omitempty"`
	RegistrationNumber string `json:"registration_number"`
	Comfort            string `json:"comfort"`
}

// StartJourneyRequest carries the OTP the rider read out.
type StartJourneyRequest struct {
	OTP int `json:"otp" binding:"required"`
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}

	driver, err := h.driverService.RegisterDriver(c.Request.Context(), service.RegisterDriverRequest{
		ID:    caller.ID,
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, DriverResponse{
		ID:          driver.ID,
		Name:        driver.Name,
		Phone:       driver.Phone,
		Email:       driver.Email,
		IsAvailable: driver.IsAvailable,
	})
}

// RegisterVehicle handles PUT /v1/drivers/me/vehicle
func (h *DriverHandler) RegisterVehicle(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}

	vehicle, err := h.driverService.RegisterVehicle(c.Request.Context(), service.RegisterVehicleRequest{
		DriverID:           caller.ID,
		Make:               req.Make,
		Model:              req.Model,
		Color:              req.Color,
		Year:               req.Year,
		RegistrationNumber: req.RegistrationNumber,
		Comfort:            domain.ComfortClass(req.Comfort),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, VehicleResponse{
		ID:                 vehicle.ID,
		DriverID:           vehicle.DriverID,
		Make:               vehicle.Make,
		Model:              vehicle.Model,
		Color:              vehicle.Color,
		Year:               vehicle.Year,
		RegistrationNumber: vehicle.RegistrationNumber,
		Comfort:            string(vehicle.Comfort),
	})
}

// ListOpenRides handles GET /v1/drivers/me/rides/open
func (h *DriverHandler) ListOpenRides(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	rides, err := h.matchingService.ListOpenRidesForDriver(c.Request.Context(), caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponses(rides, domain.RoleDriver))
}

// AcceptRide handles POST /v1/drivers/me/rides/:id/accept
func (h *DriverHandler) AcceptRide(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	ride, err := h.rideService.AcceptRide(c.Request.Context(), c.Param("id"), caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, domain.RoleDriver))
}

// StartJourney handles POST /v1/drivers/me/rides/:id/start
func (h *DriverHandler) StartJourney(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	var req StartJourneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidBody(err))
		return
	}

	ride, err := h.rideService.StartJourney(c.Request.Context(), c.Param("id"), caller.ID, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, domain.RoleDriver))
}

// CompleteRide handles POST /v1/drivers/me/rides/:id/complete
func (h *DriverHandler) CompleteRide(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	ride, err := h.rideService.CompleteRide(c.Request.Context(), c.Param("id"), caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, domain.RoleDriver))
}

// CancelRide handles POST /v1/drivers/me/rides/:id/cancel
func (h *DriverHandler) CancelRide(c *gin.Context) {
	caller, _ := middleware.CallerFromContext(c)

	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, invalidBody(err))
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), service.CancelRideRequest{
		RideID:      c.Param("id"),
		CancelledBy: domain.PartyDriver,
		ActorID:     caller.ID,
		Reason:      req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, domain.RoleDriver))
}
