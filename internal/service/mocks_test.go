package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// mockRideRepository keeps rides in memory and serialises CompareAndSwap like a row lock would.
type mockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	CASCallCount    int32

	// Error injection
	CreateError error
	CASError    error
}

func newMockRideRepository() *mockRideRepository {
	return &mockRideRepository{rides: make(map[string]*domain.Ride)}
}

func (m *mockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
}

func (m *mockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddRide(ride)
	return nil
}

func (m *mockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *mockRideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	return m.list(func(r *domain.Ride) bool { return r.RiderID == riderID }, func(a, b *domain.Ride) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (m *mockRideRepository) ListOpen(ctx context.Context, carType domain.ComfortClass) ([]*domain.Ride, error) {
	return m.list(func(r *domain.Ride) bool {
		return r.Status == domain.RideStatusRequested && r.CarType == carType
	}, func(a, b *domain.Ride) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (m *mockRideRepository) list(keep func(*domain.Ride) bool, less func(a, b *domain.Ride) bool) []*domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if keep(r) {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

func (m *mockRideRepository) CompareAndSwap(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) (bool, error) {
	atomic.AddInt32(&m.CASCallCount, 1)
	if m.CASError != nil {
		return false, m.CASError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok || stored.Status != expected {
		return false, nil
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return true, nil
}

// Ride returns the stored ride for assertions.
func (m *mockRideRepository) Ride(id string) domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK DRIVER AND VEHICLE REPOSITORIES
// ──────────────────────────────────────────────

type mockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	SetAvailabilityCallCount int32
	CreateError              error
	SetAvailabilityError     error

	// AfterGet runs once a GetByID has read its row, before it returns.
	AfterGet func(id string)
}

func newMockDriverRepository() *mockDriverRepository {
	return &mockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

func (m *mockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *driver
	m.drivers[driver.ID] = &copy
}

func (m *mockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drivers {
		if d.ID == driver.ID || d.Email == driver.Email {
			return repository.ErrDuplicate
		}
	}
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *mockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	driver, ok := m.drivers[id]
	var copy domain.Driver
	if ok {
		copy = *driver
	}
	hook := m.AfterGet
	m.mu.RUnlock()

	if !ok {
		return nil, repository.ErrNotFound
	}
	if hook != nil {
		hook(id)
	}
	return &copy, nil
}

func (m *mockDriverRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	atomic.AddInt32(&m.SetAvailabilityCallCount, 1)
	if m.SetAvailabilityError != nil {
		return m.SetAvailabilityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.IsAvailable = available
	return nil
}

// Available reports the stored flag for assertions.
func (m *mockDriverRepository) Available(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id].IsAvailable
}

type mockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle // by driver ID
}

func newMockVehicleRepository() *mockVehicleRepository {
	return &mockVehicleRepository{vehicles: make(map[string]*domain.Vehicle)}
}

func (m *mockVehicleRepository) Upsert(ctx context.Context, v *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for driverID, existing := range m.vehicles {
		if driverID != v.DriverID && existing.RegistrationNumber == v.RegistrationNumber {
			return repository.ErrDuplicate
		}
	}
	copy := *v
	m.vehicles[v.DriverID] = &copy
	return nil
}

func (m *mockVehicleRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK CATALOG AND PAYMENT REPOSITORIES
// ──────────────────────────────────────────────

type mockCarTypeRepository struct {
	mu       sync.RWMutex
	carTypes map[domain.ComfortClass]*domain.CarType
}

func newMockCarTypeRepository(entries ...domain.CarType) *mockCarTypeRepository {
	m := &mockCarTypeRepository{carTypes: make(map[domain.ComfortClass]*domain.CarType)}
	for i := range entries {
		m.carTypes[entries[i].Comfort] = &entries[i]
	}
	return m
}

func (m *mockCarTypeRepository) Get(ctx context.Context, comfort domain.ComfortClass) (*domain.CarType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ct, ok := m.carTypes[comfort]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ct
	return &copy, nil
}

func (m *mockCarTypeRepository) GetAll(ctx context.Context) ([]*domain.CarType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.CarType, 0, len(m.carTypes))
	for _, c := range domain.ComfortClasses {
		if ct, ok := m.carTypes[c]; ok {
			copy := *ct
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *mockCarTypeRepository) Upsert(ctx context.Context, ct *domain.CarType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ct
	m.carTypes[ct.Comfort] = &copy
	return nil
}

type mockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment // by idempotency key

	CreateCallCount int32
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *mockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.IdempotencyKey]; ok {
		return repository.ErrDuplicate
	}
	copy := *p
	m.payments[p.IdempotencyKey] = &copy
	return nil
}

func (m *mockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[key]
	if !ok {
		return nil, nil
	}
	copy := *p
	return &copy, nil
}

func (m *mockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
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

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

type mockAvailabilityStore struct {
	mu  sync.Mutex
	set map[string]bool

	ReadError error
}

func newMockAvailabilityStore() *mockAvailabilityStore {
	return &mockAvailabilityStore{set: make(map[string]bool)}
}

func (m *mockAvailabilityStore) AddAvailableDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set[driverID] = true
	return nil
}

func (m *mockAvailabilityStore) RemoveAvailableDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.set, driverID)
	return nil
}

func (m *mockAvailabilityStore) IsDriverAvailable(ctx context.Context, driverID string) (bool, error) {
	if m.ReadError != nil {
		return false, m.ReadError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set[driverID], nil
}

func (m *mockAvailabilityStore) Has(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set[driverID]
}

type mockLockStore struct {
	mu    sync.Mutex
	locks map[string]string
	seq   int
}

func newMockLockStore() *mockLockStore {
	return &mockLockStore{locks: make(map[string]string)}
}

func (m *mockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[driverID]; held {
		return "", false, nil
	}
	m.seq++
	token := strconv.Itoa(m.seq)
	m.locks[driverID] = token
	return token, true, nil
}

func (m *mockLockStore) ReleaseDriverLock(ctx context.Context, driverID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[driverID] == token {
		delete(m.locks, driverID)
	}
	return nil
}

// Hold takes the lock on behalf of another in-flight accept.
func (m *mockLockStore) Hold(driverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[driverID] = "held"
}

// ──────────────────────────────────────────────
// MOCK COLLABORATORS
// ──────────────────────────────────────────────

type mockRouteEstimator struct {
	Result RouteEstimate
	Err    error
	Delay  time.Duration

	CallCount int32
}

func (m *mockRouteEstimator) Estimate(ctx context.Context, origin, destination string) (RouteEstimate, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return RouteEstimate{}, ctx.Err()
		}
	}
	if m.Err != nil {
		return RouteEstimate{}, m.Err
	}
	return m.Result, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []Notification
	Err       error
}

func (m *mockPublisher) Publish(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, n)
	return m.Err
}

func (m *mockPublisher) Types() []NotificationType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]NotificationType, 0, len(m.published))
	for _, n := range m.published {
		types = append(types, n.Type)
	}
	return types
}

type failingPSP struct{}

func (failingPSP) Charge(ctx context.Context, amount float64, mode domain.PaymentMode) (bool, error) {
	return false, nil
}

// ──────────────────────────────────────────────
// TEST ENVIRONMENT
// ──────────────────────────────────────────────

type testEnv struct {
	rides     *mockRideRepository
	drivers   *mockDriverRepository
	vehicles  *mockVehicleRepository
	carTypes  *mockCarTypeRepository
	payments  *mockPaymentRepository
	cache     *mockAvailabilityStore
	locks     *mockLockStore
	routes    *mockRouteEstimator
	publisher *mockPublisher

	gate     *AvailabilityGate
	rideSvc  *RideService
	matchSvc *MatchingService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv wires a RideService over in-memory mocks: a 10 km / 20 min route and
// Mini priced at 10/km + 2/min.
func newTestEnv() *testEnv {
	env := &testEnv{
		rides:     newMockRideRepository(),
		drivers:   newMockDriverRepository(),
		vehicles:  newMockVehicleRepository(),
		carTypes:  newMockCarTypeRepository(domain.CarType{Comfort: domain.ComfortMini, PerKm: 10, PerMin: 2}),
		payments:  newMockPaymentRepository(),
		cache:     newMockAvailabilityStore(),
		locks:     newMockLockStore(),
		routes:    &mockRouteEstimator{Result: RouteEstimate{DistanceKm: 10, DurationMin: 20}},
		publisher: &mockPublisher{},
	}

	logger := discardLogger()
	env.gate = NewAvailabilityGate(env.drivers, env.cache, logger)
	env.rideSvc = NewRideService(
		env.rides,
		env.carTypes,
		env.vehicles,
		env.drivers,
		env.gate,
		env.locks,
		NewPaymentService(env.payments, NewOfflinePSP()),
		NewTimeBoundEstimator(env.routes, time.Second),
		NewNotificationService(env.publisher, logger),
		logger,
	)
	env.matchSvc = NewMatchingService(env.rides, env.vehicles, env.gate)
	return env
}

// addDriver registers an available driver with a vehicle of the given class.
func (e *testEnv) addDriver(id string, comfort domain.ComfortClass) {
	e.drivers.AddDriver(&domain.Driver{ID: id, Name: id, Email: id + "@example.com", IsAvailable: true})
	_ = e.vehicles.Upsert(context.Background(), &domain.Vehicle{
		ID: "v-" + id, DriverID: id, Make: "Maruti", Model: "Swift", Color: "Red", Year: 2021,
		RegistrationNumber: "REG-" + id, Comfort: comfort,
	})
}

func validCreateRequest() CreateRideRequest {
	return CreateRideRequest{
		RiderID: "rider-1",
		Pickup:  domain.Location{Name: "MG Road", Lat: 12.9756, Lng: 77.6050},
		Dropoff: domain.Location{Name: "Airport", Lat: 13.1989, Lng: 77.7068},
		CarType: domain.ComfortMini,
	}
}
