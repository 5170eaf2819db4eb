// Package tests runs ride lifecycle scenarios through the HTTP router against in-memory stores.
package tests

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/repository"
	"ridehail/internal/service"
)

// ──────────────────────────────────────────────
// RIDE LEDGER
// ──────────────────────────────────────────────

// MockRideRepository keeps rides in memory. CompareAndSwap is atomic under its mutex.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]domain.Ride

	CASCallCount int32
	CASWins      int32
}

// NewMockRideRepository creates an empty ride ledger.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{rides: make(map[string]domain.Ride)}
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; ok {
		return repository.ErrDuplicate
	}
	m.rides[ride.ID] = *ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ride, nil
}

func (m *MockRideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	return m.filter(func(r domain.Ride) bool { return r.RiderID == riderID }, true), nil
}

func (m *MockRideRepository) ListOpen(ctx context.Context, carType domain.ComfortClass) ([]*domain.Ride, error) {
	return m.filter(func(r domain.Ride) bool {
		return r.Status == domain.RideStatusRequested && r.CarType == carType
	}, false), nil
}

func (m *MockRideRepository) CompareAndSwap(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) (bool, error) {
	atomic.AddInt32(&m.CASCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok || stored.Status != expected {
		return false, nil
	}
	m.rides[ride.ID] = *ride
	atomic.AddInt32(&m.CASWins, 1)
	return true, nil
}

// Status returns the stored status of a ride.
func (m *MockRideRepository) Status(id string) domain.RideStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id].Status
}

func (m *MockRideRepository) filter(keep func(domain.Ride) bool, newestFirst bool) []*domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if keep(r) {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ──────────────────────────────────────────────
// DRIVERS AND VEHICLES
// ──────────────────────────────────────────────

// MockDriverRepository keeps drivers in memory and enforces unique emails.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]domain.Driver
}

// NewMockDriverRepository creates an empty driver store.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]domain.Driver)}
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drivers {
		if d.ID == driver.ID || d.Email == driver.Email {
			return repository.ErrDuplicate
		}
	}
	m.drivers[driver.ID] = *driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (m *MockDriverRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.IsAvailable = available
	m.drivers[id] = d
	return nil
}

// Available reports the stored availability flag of a driver.
func (m *MockDriverRepository) Available(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id].IsAvailable
}

// MockVehicleRepository keeps one vehicle per driver and enforces unique registrations.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]domain.Vehicle
	seq      int
}

// NewMockVehicleRepository creates an empty vehicle store.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{vehicles: make(map[string]domain.Vehicle)}
}

func (m *MockVehicleRepository) Upsert(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for driverID, v := range m.vehicles {
		if driverID != vehicle.DriverID && v.RegistrationNumber == vehicle.RegistrationNumber {
			return repository.ErrDuplicate
		}
	}
	if existing, ok := m.vehicles[vehicle.DriverID]; ok {
		vehicle.ID = existing.ID
	} else {
		m.seq++
		vehicle.ID = "vehicle-" + strconv.Itoa(m.seq)
	}
	m.vehicles[vehicle.DriverID] = *vehicle
	return nil
}

func (m *MockVehicleRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

// ──────────────────────────────────────────────
// CATALOG AND PAYMENTS
// ──────────────────────────────────────────────

// MockCarTypeRepository holds the pricing catalog.
type MockCarTypeRepository struct {
	mu       sync.RWMutex
	carTypes map[domain.ComfortClass]domain.CarType
}

// NewMockCarTypeRepository creates a catalog seeded with the given entries.
func NewMockCarTypeRepository(entries ...domain.CarType) *MockCarTypeRepository {
	m := &MockCarTypeRepository{carTypes: make(map[domain.ComfortClass]domain.CarType)}
	for _, e := range entries {
		m.carTypes[e.Comfort] = e
	}
	return m
}

func (m *MockCarTypeRepository) Get(ctx context.Context, comfort domain.ComfortClass) (*domain.CarType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ct, ok := m.carTypes[comfort]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ct, nil
}

func (m *MockCarTypeRepository) GetAll(ctx context.Context) ([]*domain.CarType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.CarType, 0, len(m.carTypes))
	for _, comfort := range domain.ComfortClasses {
		if ct, ok := m.carTypes[comfort]; ok {
			out = append(out, &ct)
		}
	}
	return out, nil
}

func (m *MockCarTypeRepository) Upsert(ctx context.Context, carType *domain.CarType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carTypes[carType.Comfort] = *carType
	return nil
}

// MockPaymentRepository keeps payments keyed by idempotency key.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

// NewMockPaymentRepository creates an empty payment store.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.IdempotencyKey]; ok {
		return repository.ErrDuplicate
	}
	p := *payment
	m.payments[payment.IdempotencyKey] = &p
	return nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[key]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

// Count returns the number of stored payments.
func (m *MockPaymentRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

// ──────────────────────────────────────────────
// EXTERNAL COLLABORATORS
// ──────────────────────────────────────────────

// FixedRoute answers every route query with the same distance and duration.
type FixedRoute struct {
	Result service.RouteEstimate
}

func (f FixedRoute) Estimate(ctx context.Context, origin, destination string) (service.RouteEstimate, error) {
	return f.Result, nil
}

// RecordingPublisher keeps every published notification.
type RecordingPublisher struct {
	mu   sync.Mutex
	sent []service.Notification
}

func (p *RecordingPublisher) Publish(ctx context.Context, n service.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return nil
}

// Types returns the notification types in publish order.
func (p *RecordingPublisher) Types() []service.NotificationType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]service.NotificationType, 0, len(p.sent))
	for _, n := range p.sent {
		out = append(out, n.Type)
	}
	return out
}

// MemoryIdempotencyStore is a map-backed middleware.IdempotencyStore without expiry.
type MemoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryIdempotencyStore creates an empty store.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{data: make(map[string][]byte)}
}

func (s *MemoryIdempotencyStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, middleware.ErrCacheMiss
	}
	return v, nil
}

func (s *MemoryIdempotencyStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = value
	return true, nil
}

func (s *MemoryIdempotencyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryIdempotencyStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var (
	_ repository.RideRepository    = (*MockRideRepository)(nil)
	_ repository.DriverRepository  = (*MockDriverRepository)(nil)
	_ repository.VehicleRepository = (*MockVehicleRepository)(nil)
	_ repository.CarTypeRepository = (*MockCarTypeRepository)(nil)
	_ repository.PaymentRepository = (*MockPaymentRepository)(nil)
	_ service.RouteEstimator       = FixedRoute{}
	_ service.Publisher            = (*RecordingPublisher)(nil)
	_ middleware.IdempotencyStore  = (*MemoryIdempotencyStore)(nil)
)
