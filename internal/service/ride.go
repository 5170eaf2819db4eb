package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

const driverLockTTL = 10 * time.Second

// RideService owns the ride lifecycle. Every transition is a compare-and-set on the ride's status.
type RideService struct {
	rideRepo            repository.RideRepository
	carTypeRepo         repository.CarTypeRepository
	vehicleRepo         repository.VehicleRepository
	driverRepo          repository.DriverRepository
	availability        *AvailabilityGate
	lockStore           redis.LockStoreInterface
	paymentService      *PaymentService
	routes              RouteEstimator
	notificationService *NotificationService
	logger              *slog.Logger

	newOTP func() int
}

// NewRideService creates a new RideService. lockStore and notificationService may be nil.
func NewRideService(
	rideRepo repository.RideRepository,
	carTypeRepo repository.CarTypeRepository,
	vehicleRepo repository.VehicleRepository,
	driverRepo repository.DriverRepository,
	availability *AvailabilityGate,
	lockStore redis.LockStoreInterface,
	paymentService *PaymentService,
	routes RouteEstimator,
	notificationService *NotificationService,
	logger *slog.Logger,
) *RideService {
	return &RideService{
		rideRepo:            rideRepo,
		carTypeRepo:         carTypeRepo,
		vehicleRepo:         vehicleRepo,
		driverRepo:          driverRepo,
		availability:        availability,
		lockStore:           lockStore,
		paymentService:      paymentService,
		routes:              routes,
		notificationService: notificationService,
		logger:              logger,
		newOTP:              NewOTP,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	RiderID     string
	Pickup      domain.Location
	Dropoff     domain.Location
	CarType     domain.ComfortClass
	PaymentMode domain.PaymentMode // Optional: defaults to Cash
}

// CreateRide prices the trip once and records it as Requested.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if req.PaymentMode == "" {
		req.PaymentMode = domain.PaymentModeCash
	}
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	route, err := s.routes.Estimate(ctx, waypoint(req.Pickup), waypoint(req.Dropoff))
	if err != nil {
		return nil, err
	}

	pricing, err := s.carTypeRepo.Get(ctx, req.CarType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPricingUnavailable
		}
		return nil, err
	}

	fare, err := ComputeFare(route.DistanceKm, route.DurationMin, *pricing)
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:            uuid.New().String(),
		RiderID:       req.RiderID,
		CarType:       req.CarType,
		Pickup:        req.Pickup,
		Dropoff:       req.Dropoff,
		Fare:          fare,
		DistanceKm:    route.DistanceKm,
		DurationMin:   route.DurationMin,
		Status:        domain.RideStatusRequested,
		PaymentStatus: domain.RidePaymentPending,
		PaymentMode:   req.PaymentMode,
		CreatedAt:     time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.notificationService.NotifyRideRequested(ctx, ride)
	return ride, nil
}

// FareEstimate is an advisory price for one comfort class.
type FareEstimate struct {
	CarType     domain.ComfortClass
	Image       string
	Fare        float64
	DistanceKm  float64
	DurationMin float64
}

// EstimateFares prices a trip for every catalog entry without persisting anything.
func (s *RideService) EstimateFares(ctx context.Context, pickup, dropoff domain.Location) ([]FareEstimate, error) {
	if !validLocation(pickup) {
		return nil, ErrInvalidPickupLocation
	}
	if !validLocation(dropoff) {
		return nil, ErrInvalidDropoffLocation
	}

	route, err := s.routes.Estimate(ctx, waypoint(pickup), waypoint(dropoff))
	if err != nil {
		return nil, err
	}

	carTypes, err := s.carTypeRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	estimates := make([]FareEstimate, 0, len(carTypes))
	for _, ct := range carTypes {
		fare, err := ComputeFare(route.DistanceKm, route.DurationMin, *ct)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unpriceable car type", "car_type", ct.Comfort, "error", err)
			continue
		}
		estimates = append(estimates, FareEstimate{
			CarType:     ct.Comfort,
			Image:       ct.Image,
			Fare:        fare,
			DistanceKm:  route.DistanceKm,
			DurationMin: route.DurationMin,
		})
	}
	return estimates, nil
}

// AcceptRide assigns the driver to a Requested ride and issues its OTP.
// Of any number of concurrent accepts on one ride exactly one succeeds; the rest get ErrRideAlreadyTaken.
func (s *RideService) AcceptRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := checkOpen(ride); err != nil {
		return nil, err
	}

	if s.lockStore != nil {
		token, locked, err := s.lockStore.AcquireDriverLock(ctx, driverID, driverLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrDriverBusy
		}
		defer func() {
			if err := s.lockStore.ReleaseDriverLock(ctx, driverID, token); err != nil {
				s.logger.WarnContext(ctx, "driver lock release failed", "driver_id", driverID, "error", err)
			}
		}()
	}

	if err := s.availability.Confirm(ctx, driverID); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	if vehicle.Comfort != ride.CarType {
		return nil, ErrComfortMismatch
	}

	accepted := *ride
	accepted.DriverID = driverID
	accepted.OTP = s.newOTP()
	accepted.Status = domain.RideStatusAccepted
	accepted.AcceptedAt = time.Now()

	if err := s.transition(ctx, &accepted, ride.Status); err != nil {
		if errors.Is(err, ErrRideChanged) {
			return nil, ErrRideAlreadyTaken
		}
		return nil, err
	}

	// The ride is committed; a failed flip is logged and left for the next Release.
	if err := s.availability.Reserve(ctx, driverID); err != nil {
		s.logger.WarnContext(ctx, "driver reserve failed", "driver_id", driverID, "ride_id", rideID, "error", err)
	}

	s.notificationService.NotifyRideAccepted(ctx, &accepted)
	return &accepted, nil
}

// StartJourney moves an Accepted ride to In Progress once the rider's OTP checks out.
// The status is checked before the caller: a ride that is not Accepted yields
// ErrRideNotAccepted whoever asks.
func (s *RideService) StartJourney(ctx context.Context, rideID, driverID string, otp int) (*domain.Ride, error) {
	if otp == 0 {
		return nil, ErrOTPRequired
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusAccepted {
		return nil, ErrRideNotAccepted
	}
	if ride.DriverID != driverID {
		return nil, ErrNotAssignedDriver
	}
	if err := VerifyOTP(ride.OTP, otp); err != nil {
		return nil, err
	}

	started := *ride
	started.Status = domain.RideStatusInProgress
	started.StartedAt = time.Now()

	if err := s.transition(ctx, &started, ride.Status); err != nil {
		return nil, err
	}

	s.notificationService.NotifyJourneyStarted(ctx, &started)
	return &started, nil
}

// CompleteRide settles and closes an In Progress ride. Completing a Completed ride returns it unchanged.
func (s *RideService) CompleteRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, ErrNotAssignedDriver
	}
	if ride.Status == domain.RideStatusCompleted {
		return ride, nil
	}
	if ride.Status != domain.RideStatusInProgress {
		return nil, ErrRideNotInProgress
	}

	if _, err := s.paymentService.Settle(ctx, ride); err != nil {
		return nil, err
	}

	completed := *ride
	completed.Status = domain.RideStatusCompleted
	completed.PaymentStatus = domain.RidePaymentPaid
	completed.CompletedAt = time.Now()

	if err := s.transition(ctx, &completed, ride.Status); err != nil {
		if !errors.Is(err, ErrRideChanged) {
			return nil, err
		}
		// A concurrent completion may have won.
		current, getErr := s.getRide(ctx, rideID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == domain.RideStatusCompleted {
			return current, nil
		}
		return nil, err
	}

	s.release(ctx, driverID, rideID)
	s.notificationService.NotifyRideCompleted(ctx, &completed)
	return &completed, nil
}

// CancelRideRequest contains the parameters for cancelling a ride.
type CancelRideRequest struct {
	RideID      string
	CancelledBy domain.Party
	ActorID     string // rider or driver ID, matching CancelledBy
	Reason      string
}

// CancelRide cancels a Requested or Accepted ride on behalf of its rider or its assigned driver.
func (s *RideService) CancelRide(ctx context.Context, req CancelRideRequest) (*domain.Ride, error) {
	if req.CancelledBy != domain.PartyUser && req.CancelledBy != domain.PartyDriver {
		return nil, ErrInvalidParty
	}

	ride, err := s.getRide(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	switch req.CancelledBy {
	case domain.PartyUser:
		if ride.RiderID != req.ActorID {
			return nil, ErrNotRideOwner
		}
	case domain.PartyDriver:
		if ride.DriverID == "" || ride.DriverID != req.ActorID {
			return nil, ErrNotAssignedDriver
		}
	}

	if !domain.CanTransition(ride.Status, domain.RideStatusCancelled) {
		return nil, ErrRideCannotBeCancelled
	}

	cancelled := *ride
	cancelled.Status = domain.RideStatusCancelled
	cancelled.CancelledBy = req.CancelledBy
	cancelled.CancellationReason = strings.TrimSpace(req.Reason)
	cancelled.CancelledAt = time.Now()

	if err := s.transition(ctx, &cancelled, ride.Status); err != nil {
		return nil, err
	}

	if cancelled.DriverID != "" {
		s.release(ctx, cancelled.DriverID, cancelled.ID)
	}

	s.notificationService.NotifyRideCancelled(ctx, &cancelled)
	return &cancelled, nil
}

// GetRide returns a ride the caller is party to.
func (s *RideService) GetRide(ctx context.Context, rideID string, caller domain.Caller) (*domain.Ride, error) {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case domain.RoleSuperAdmin:
	case domain.RoleUser:
		if ride.RiderID != caller.ID {
			return nil, ErrNotRideOwner
		}
	case domain.RoleDriver:
		if ride.DriverID != caller.ID {
			return nil, ErrNotAssignedDriver
		}
	default:
		return nil, ErrForbidden
	}
	return ride, nil
}

// RideDetails is a ride together with the driver and vehicle assigned to it.
// Driver and Vehicle are nil until a driver accepts.
type RideDetails struct {
	Ride    *domain.Ride
	Driver  *domain.Driver
	Vehicle *domain.Vehicle
}

// GetRideDetails is GetRide plus, for the rider and admins, the assigned driver's
// profile and car so the rider can find the vehicle at pickup.
func (s *RideService) GetRideDetails(ctx context.Context, rideID string, caller domain.Caller) (*RideDetails, error) {
	ride, err := s.GetRide(ctx, rideID, caller)
	if err != nil {
		return nil, err
	}

	details := &RideDetails{Ride: ride}
	if ride.DriverID == "" || caller.Role == domain.RoleDriver {
		return details, nil
	}

	driver, err := s.driverRepo.GetByID(ctx, ride.DriverID)
	switch {
	case err == nil:
		details.Driver = driver
	case errors.Is(err, repository.ErrNotFound):
		s.logger.WarnContext(ctx, "assigned driver missing", "driver_id", ride.DriverID, "ride_id", ride.ID)
	default:
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByDriverID(ctx, ride.DriverID)
	switch {
	case err == nil:
		details.Vehicle = vehicle
	case errors.Is(err, repository.ErrNotFound):
		s.logger.WarnContext(ctx, "assigned vehicle missing", "driver_id", ride.DriverID, "ride_id", ride.ID)
	default:
		return nil, err
	}
	return details, nil
}

// ListRiderRides returns the rider's rides, newest first.
func (s *RideService) ListRiderRides(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.rideRepo.ListByRider(ctx, riderID)
}

func (s *RideService) getRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return ride, nil
}

// transition writes next if the stored ride is still in status from.
func (s *RideService) transition(ctx context.Context, next *domain.Ride, from domain.RideStatus) error {
	if !domain.CanTransition(from, next.Status) {
		return fmt.Errorf("%w: %s to %s", ErrState, from, next.Status)
	}

	ok, err := s.rideRepo.CompareAndSwap(ctx, next, from)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRideChanged
	}
	return nil
}

// release frees the driver after the ride has been closed. Failures are logged only.
func (s *RideService) release(ctx context.Context, driverID, rideID string) {
	if err := s.availability.Release(ctx, driverID); err != nil {
		s.logger.WarnContext(ctx, "driver release failed", "driver_id", driverID, "ride_id", rideID, "error", err)
	}
}

// checkOpen reports why a ride cannot be accepted, if it cannot.
func checkOpen(ride *domain.Ride) error {
	if ride.Status == domain.RideStatusRequested {
		return nil
	}
	if ride.DriverID != "" {
		return ErrRideAlreadyTaken
	}
	return ErrRideNotOpen
}

func validateCreateRequest(req CreateRideRequest) error {
	if strings.TrimSpace(req.RiderID) == "" {
		return ErrInvalidRiderID
	}
	if !validLocation(req.Pickup) {
		return ErrInvalidPickupLocation
	}
	if !validLocation(req.Dropoff) {
		return ErrInvalidDropoffLocation
	}
	if !req.CarType.Valid() {
		return ErrInvalidCarType
	}
	if !req.PaymentMode.Valid() {
		return ErrInvalidPaymentMode
	}
	return nil
}

func validLocation(loc domain.Location) bool {
	return strings.TrimSpace(loc.Name) != "" && isValidLatitude(loc.Lat) && isValidLongitude(loc.Lng)
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// waypoint formats a location the way the route oracle accepts it.
func waypoint(loc domain.Location) string {
	return fmt.Sprintf("%f,%f", loc.Lat, loc.Lng)
}
