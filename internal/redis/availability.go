package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// availableDriversKey is the set of driver IDs known to be free for new offers.
const availableDriversKey = "available_drivers"

// AvailabilityStore caches driver availability in a Redis set.
// Membership means available; absence means unknown or busy, and callers fall back to Postgres.
type AvailabilityStore struct {
	client *redis.Client
}

// NewAvailabilityStore creates a new AvailabilityStore.
func NewAvailabilityStore(client *redis.Client) *AvailabilityStore {
	return &AvailabilityStore{client: client}
}

// AddAvailableDriver marks a driver as available.
func (s *AvailabilityStore) AddAvailableDriver(ctx context.Context, driverID string) error {
	return s.client.SAdd(ctx, availableDriversKey, driverID).Err()
}

// RemoveAvailableDriver removes a driver from the available set.
func (s *AvailabilityStore) RemoveAvailableDriver(ctx context.Context, driverID string) error {
	return s.client.SRem(ctx, availableDriversKey, driverID).Err()
}

// IsDriverAvailable checks if a driver is in the available set.
func (s *AvailabilityStore) IsDriverAvailable(ctx context.Context, driverID string) (bool, error) {
	return s.client.SIsMember(ctx, availableDriversKey, driverID).Result()
}
