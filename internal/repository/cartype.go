package repository

import (
	"context"

	"ridehail/internal/domain"
)

// CarTypeRepository defines the persistence operations for the pricing catalog.
type CarTypeRepository interface {
	// Get retrieves the catalog entry for a comfort class.
	Get(ctx context.Context, comfort domain.ComfortClass) (*domain.CarType, error)

	// GetAll retrieves every catalog entry.
	GetAll(ctx context.Context) ([]*domain.CarType, error)

	// Upsert creates or replaces a catalog entry.
	Upsert(ctx context.Context, carType *domain.CarType) error
}
