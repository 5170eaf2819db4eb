package service

import (
	"context"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// CatalogService maintains the per-class pricing reference data.
type CatalogService struct {
	carTypeRepo repository.CarTypeRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(carTypeRepo repository.CarTypeRepository) *CatalogService {
	return &CatalogService{carTypeRepo: carTypeRepo}
}

// ListCarTypes returns every catalog entry.
func (s *CatalogService) ListCarTypes(ctx context.Context) ([]*domain.CarType, error) {
	carTypes, err := s.carTypeRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if carTypes == nil {
		carTypes = []*domain.CarType{}
	}
	return carTypes, nil
}

// UpsertCarType replaces the rates for a class. Rides already created keep their fare.
func (s *CatalogService) UpsertCarType(ctx context.Context, ct domain.CarType) (*domain.CarType, error) {
	if !ct.Comfort.Valid() {
		return nil, ErrInvalidCarType
	}
	if !nonNegative(ct.PerKm) || !nonNegative(ct.PerMin) {
		return nil, ErrInvalidPricing
	}
	if err := s.carTypeRepo.Upsert(ctx, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}
