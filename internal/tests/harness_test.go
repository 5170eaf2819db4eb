package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"ridehail/internal/app"
	"ridehail/internal/domain"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

var jwtSecret = []byte("scenario-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

// harness is one fully wired router over in-memory stores.
// The route oracle always answers 10 km / 20 min and Mini costs 10/km + 2/min.
type harness struct {
	t        *testing.T
	router   *gin.Engine
	rides    *MockRideRepository
	drivers  *MockDriverRepository
	payments *MockPaymentRepository
	events   *RecordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rides := NewMockRideRepository()
	drivers := NewMockDriverRepository()
	vehicles := NewMockVehicleRepository()
	carTypes := NewMockCarTypeRepository(
		domain.CarType{Comfort: domain.ComfortMini, PerKm: 10, PerMin: 2},
		domain.CarType{Comfort: domain.ComfortCompact, PerKm: 12, PerMin: 1.5},
		domain.CarType{Comfort: domain.ComfortLuxury, PerKm: 20, PerMin: 2.5},
	)
	payments := NewMockPaymentRepository()
	events := &RecordingPublisher{}

	availability := service.NewAvailabilityGate(drivers, nil, logger)
	rideService := service.NewRideService(
		rides,
		carTypes,
		vehicles,
		drivers,
		availability,
		nil,
		service.NewPaymentService(payments, service.NewOfflinePSP()),
		FixedRoute{Result: service.RouteEstimate{DistanceKm: 10, DurationMin: 20}},
		service.NewNotificationService(events, logger),
		logger,
	)

	router := app.NewRouter(app.RouterDeps{
		RideHandler: handler.NewRideHandler(rideService),
		DriverHandler: handler.NewDriverHandler(
			service.NewDriverService(drivers, vehicles),
			rideService,
			service.NewMatchingService(rides, vehicles, availability),
		),
		CarTypeHandler:   handler.NewCarTypeHandler(service.NewCatalogService(carTypes)),
		IdempotencyStore: NewMemoryIdempotencyStore(),
		JWTSecret:        jwtSecret,
		Logger:           logger,
	})

	return &harness{
		t:        t,
		router:   router,
		rides:    rides,
		drivers:  drivers,
		payments: payments,
		events:   events,
	}
}

func location(name string, lat, lng float64) handler.LocationRequest {
	return handler.LocationRequest{Name: name, Lat: &lat, Lng: &lng}
}

func bearer(sub string, role domain.Role) string {
	claims := middleware.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	return "Bearer " + s
}

// do sends a request. body may be nil, a string of raw JSON, or a value to marshal.
func (h *harness) do(method, path, auth string, body any, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) expect(w *httptest.ResponseRecorder, code int) {
	h.t.Helper()
	if w.Code != code {
		h.t.Fatalf("expected %d, got %d: %s", code, w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

// onboardDriver registers a driver and their vehicle.
func (h *harness) onboardDriver(id string, comfort domain.ComfortClass, registration string) string {
	h.t.Helper()
	auth := bearer(id, domain.RoleDriver)

	h.expect(h.do(http.MethodPost, "/v1/drivers/register", auth, handler.RegisterDriverRequest{
		Name:  "Driver " + id,
		Phone: "9800000000",
		Email: id + "@example.com",
	}), http.StatusCreated)

	h.expect(h.do(http.MethodPut, "/v1/drivers/me/vehicle", auth, handler.VehicleRequest{
		Make:               "Maruti",
		Model:              "Swift",
		Color:              "White",
		Year:               2021,
		RegistrationNumber: registration,
		Comfort:            string(comfort),
	}), http.StatusOK)

	return auth
}

func (h *harness) createRide(riderAuth string, carType domain.ComfortClass) handler.RideResponse {
	h.t.Helper()
	w := h.do(http.MethodPost, "/v1/rides", riderAuth, handler.CreateRideRequest{
		Pickup:  location("MG Road", 12.9756, 77.6066),
		Dropoff: location("Airport", 13.1986, 77.7066),
		CarType: string(carType),
	})
	h.expect(w, http.StatusCreated)
	return decode[handler.RideResponse](h.t, w)
}
