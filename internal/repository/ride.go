package repository

import (
	"context"

	"ridehail/internal/domain"
)

// RideRepository defines the persistence operations for the ride ledger.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListByRider retrieves a rider's rides, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error)

	// ListOpen retrieves REQUESTED rides of the given comfort class, oldest first.
	ListOpen(ctx context.Context, carType domain.ComfortClass) ([]*domain.Ride, error)

	// CompareAndSwap writes the ride only if its stored status still equals expected.
	// It returns false, nil when another writer got there first.
	CompareAndSwap(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) (bool, error)
}
