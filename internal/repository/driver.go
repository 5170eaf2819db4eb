package repository

import (
	"context"

	"ridehail/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// SetAvailability sets the driver's availability flag.
	SetAvailability(ctx context.Context, id string, available bool) error
}

// VehicleRepository defines the persistence operations for driver vehicles.
type VehicleRepository interface {
	// Upsert creates or replaces the driver's active vehicle.
	Upsert(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByDriverID retrieves the active vehicle owned by a driver.
	GetByDriverID(ctx context.Context, driverID string) (*domain.Vehicle, error)
}
