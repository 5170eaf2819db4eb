package redis

import (
	"context"
	"time"
)

// AvailabilityStoreInterface defines the interface for the driver availability cache.
type AvailabilityStoreInterface interface {
	AddAvailableDriver(ctx context.Context, driverID string) error
	RemoveAvailableDriver(ctx context.Context, driverID string) error
	IsDriverAvailable(ctx context.Context, driverID string) (bool, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (string, bool, error)
	ReleaseDriverLock(ctx context.Context, driverID, token string) error
}

// Ensure concrete types implement interfaces.
var (
	_ AvailabilityStoreInterface = (*AvailabilityStore)(nil)
	_ LockStoreInterface         = (*LockStore)(nil)
)
