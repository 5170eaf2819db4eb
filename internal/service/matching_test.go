package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridehail/internal/domain"
)

func TestListOpenRidesForDriver_FiltersByClassAndStatus(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	env.addDriver("driver-1", domain.ComfortMini)

	now := time.Now()
	env.rides.AddRide(&domain.Ride{ID: "mini-new", CarType: domain.ComfortMini, Status: domain.RideStatusRequested, CreatedAt: now})
	env.rides.AddRide(&domain.Ride{ID: "mini-old", CarType: domain.ComfortMini, Status: domain.RideStatusRequested, CreatedAt: now.Add(-time.Minute)})
	env.rides.AddRide(&domain.Ride{ID: "luxury", CarType: domain.ComfortLuxury, Status: domain.RideStatusRequested, CreatedAt: now})
	env.rides.AddRide(&domain.Ride{ID: "taken", CarType: domain.ComfortMini, DriverID: "driver-9", Status: domain.RideStatusAccepted, CreatedAt: now})

	rides, err := env.matchSvc.ListOpenRidesForDriver(ctx, "driver-1")
	if err != nil {
		t.Fatalf("ListOpenRidesForDriver: %v", err)
	}
	if len(rides) != 2 {
		t.Fatalf("expected 2 open rides, got %d", len(rides))
	}
	if rides[0].ID != "mini-old" || rides[1].ID != "mini-new" {
		t.Errorf("expected oldest first, got %s, %s", rides[0].ID, rides[1].ID)
	}
}

func TestListOpenRidesForDriver_DropsAcceptedRide(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()
	env.addDriver("driver-1", domain.ComfortMini)
	env.addDriver("driver-2", domain.ComfortMini)

	ride, err := env.rideSvc.CreateRide(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("CreateRide: %v", err)
	}

	before, _ := env.matchSvc.ListOpenRidesForDriver(ctx, "driver-2")
	if len(before) != 1 {
		t.Fatalf("expected ride to be offered, got %d rides", len(before))
	}

	if _, err := env.rideSvc.AcceptRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Fatalf("AcceptRide: %v", err)
	}

	after, err := env.matchSvc.ListOpenRidesForDriver(ctx, "driver-2")
	if err != nil {
		t.Fatalf("ListOpenRidesForDriver: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("accepted ride must no longer be offered, got %d", len(after))
	}
}

func TestListOpenRidesForDriver_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addDriver("driver-1", domain.ComfortCompact)

	rides, err := env.matchSvc.ListOpenRidesForDriver(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rides == nil || len(rides) != 0 {
		t.Errorf("expected empty list, got %#v", rides)
	}
}

func TestListOpenRidesForDriver_Rejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		setup   func(env *testEnv)
		wantErr error
	}{
		{"unknown driver", func(env *testEnv) {}, ErrDriverNotFound},
		{"no vehicle", func(env *testEnv) {
			env.drivers.AddDriver(&domain.Driver{ID: "driver-1", IsAvailable: true})
		}, ErrVehicleNotFound},
		{"busy driver", func(env *testEnv) {
			env.addDriver("driver-1", domain.ComfortMini)
			_ = env.drivers.SetAvailability(context.Background(), "driver-1", false)
		}, ErrDriverUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv()
			tc.setup(env)

			_, err := env.matchSvc.ListOpenRidesForDriver(context.Background(), "driver-1")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
