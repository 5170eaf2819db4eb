package service

import (
	"context"
	"errors"
	"log/slog"

	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// AvailabilityGate decides whether a driver may receive ride offers.
// Postgres is the source of truth. The Redis set is written only after a
// Postgres write, by Reserve and Release.
type AvailabilityGate struct {
	driverRepo repository.DriverRepository
	cacheStore redis.AvailabilityStoreInterface
	logger     *slog.Logger
}

// NewAvailabilityGate creates a new AvailabilityGate. cacheStore may be nil.
func NewAvailabilityGate(driverRepo repository.DriverRepository, cacheStore redis.AvailabilityStoreInterface, logger *slog.Logger) *AvailabilityGate {
	return &AvailabilityGate{
		driverRepo: driverRepo,
		cacheStore: cacheStore,
		logger:     logger,
	}
}

// IsAvailable reports whether the driver is free. Unknown drivers yield ErrDriverNotFound.
// A cache hit answers directly; a miss reads Postgres and leaves the cache alone,
// so a read racing Reserve cannot put a busy driver back in the set.
func (g *AvailabilityGate) IsAvailable(ctx context.Context, driverID string) (bool, error) {
	if driverID == "" {
		return false, ErrInvalidDriverID
	}

	if g.cacheStore != nil {
		cached, err := g.cacheStore.IsDriverAvailable(ctx, driverID)
		if err == nil && cached {
			return true, nil
		}
		if err != nil {
			g.logger.WarnContext(ctx, "availability cache read failed", "driver_id", driverID, "error", err)
		}
	}

	return g.stored(ctx, driverID)
}

// Confirm reads the driver's flag from Postgres, skipping the cache.
// Callers that are about to commit an assignment use it instead of IsAvailable.
func (g *AvailabilityGate) Confirm(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	available, err := g.stored(ctx, driverID)
	if err != nil {
		return err
	}
	if !available {
		return ErrDriverUnavailable
	}
	return nil
}

func (g *AvailabilityGate) stored(ctx context.Context, driverID string) (bool, error) {
	driver, err := g.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrDriverNotFound
		}
		return false, err
	}
	return driver.IsAvailable, nil
}

// Reserve marks the driver busy.
func (g *AvailabilityGate) Reserve(ctx context.Context, driverID string) error {
	return g.set(ctx, driverID, false)
}

// Release makes the driver eligible for offers again.
func (g *AvailabilityGate) Release(ctx context.Context, driverID string) error {
	return g.set(ctx, driverID, true)
}

func (g *AvailabilityGate) set(ctx context.Context, driverID string, available bool) error {
	if err := g.driverRepo.SetAvailability(ctx, driverID, available); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDriverNotFound
		}
		return err
	}
	g.cache(ctx, driverID, available)
	return nil
}

func (g *AvailabilityGate) cache(ctx context.Context, driverID string, available bool) {
	if g.cacheStore == nil {
		return
	}

	var err error
	if available {
		err = g.cacheStore.AddAvailableDriver(ctx, driverID)
	} else {
		err = g.cacheStore.RemoveAvailableDriver(ctx, driverID)
	}
	if err != nil {
		g.logger.WarnContext(ctx, "availability cache write failed", "driver_id", driverID, "available", available, "error", err)
	}
}
