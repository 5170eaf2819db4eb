package service

import (
	"context"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// MatchingService offers open rides to drivers. Drivers pull; nothing is pushed or assigned here.
type MatchingService struct {
	rideRepo     repository.RideRepository
	vehicleRepo  repository.VehicleRepository
	availability *AvailabilityGate
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	rideRepo repository.RideRepository,
	vehicleRepo repository.VehicleRepository,
	availability *AvailabilityGate,
) *MatchingService {
	return &MatchingService{
		rideRepo:     rideRepo,
		vehicleRepo:  vehicleRepo,
		availability: availability,
	}
}

// ListOpenRidesForDriver returns Requested rides of the driver's comfort class, oldest first.
// An empty list is a valid answer.
func (s *MatchingService) ListOpenRidesForDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	available, err := s.availability.IsAvailable(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrDriverUnavailable
	}

	vehicle, err := s.vehicleRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}

	rides, err := s.rideRepo.ListOpen(ctx, vehicle.Comfort)
	if err != nil {
		return nil, err
	}
	if rides == nil {
		rides = []*domain.Ride{}
	}
	return rides, nil
}
