package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const rideColumns = `id, rider_id, driver_id, car_type,
	pickup_name, pickup_lat, pickup_lng, dropoff_name, dropoff_lat, dropoff_lng,
	otp, fare, distance_km, duration_min, status, payment_status, payment_mode,
	cancelled_by, cancellation_reason,
	created_at, accepted_at, started_at, completed_at, cancelled_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		nullString(ride.DriverID),
		ride.CarType,
		ride.Pickup.Name,
		ride.Pickup.Lat,
		ride.Pickup.Lng,
		ride.Dropoff.Name,
		ride.Dropoff.Lat,
		ride.Dropoff.Lng,
		nullInt(ride.OTP),
		ride.Fare,
		ride.DistanceKm,
		ride.DurationMin,
		ride.Status,
		ride.PaymentStatus,
		ride.PaymentMode,
		nullString(string(ride.CancelledBy)),
		nullString(ride.CancellationReason),
		ride.CreatedAt,
		nullTime(ride.AcceptedAt),
		nullTime(ride.StartedAt),
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
	)
	return err
}

// GetByID retrieves a ride by ID. An id that is not a UUID cannot name a ride.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	if uuid.Validate(id) != nil {
		return nil, repository.ErrNotFound
	}

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// ListByRider retrieves a rider's rides, newest first.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE rider_id = $1 ORDER BY created_at DESC LIMIT 100`
	return r.list(ctx, query, riderID)
}

// ListOpen retrieves REQUESTED rides of the given comfort class, oldest first.
func (r *RideRepository) ListOpen(ctx context.Context, carType domain.ComfortClass) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE status = $1 AND car_type = $2 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, domain.RideStatusRequested, carType)
}

// CompareAndSwap writes the mutable ride fields only if the stored status still equals expected.
func (r *RideRepository) CompareAndSwap(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) (bool, error) {
	query := `
		UPDATE rides
		SET driver_id = $1, otp = $2, status = $3, payment_status = $4,
			cancelled_by = $5, cancellation_reason = $6,
			accepted_at = $7, started_at = $8, completed_at = $9, cancelled_at = $10
		WHERE id = $11 AND status = $12
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(ride.DriverID),
		nullInt(ride.OTP),
		ride.Status,
		ride.PaymentStatus,
		nullString(string(ride.CancelledBy)),
		nullString(ride.CancellationReason),
		nullTime(ride.AcceptedAt),
		nullTime(ride.StartedAt),
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
		ride.ID,
		expected,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := make([]*domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, cancelledBy, cancellationReason sql.NullString
	var otp sql.NullInt64
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&ride.CarType,
		&ride.Pickup.Name,
		&ride.Pickup.Lat,
		&ride.Pickup.Lng,
		&ride.Dropoff.Name,
		&ride.Dropoff.Lat,
		&ride.Dropoff.Lng,
		&otp,
		&ride.Fare,
		&ride.DistanceKm,
		&ride.DurationMin,
		&ride.Status,
		&ride.PaymentStatus,
		&ride.PaymentMode,
		&cancelledBy,
		&cancellationReason,
		&ride.CreatedAt,
		&acceptedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.OTP = int(otp.Int64)
	ride.CancelledBy = domain.Party(cancelledBy.String)
	ride.CancellationReason = cancellationReason.String
	ride.AcceptedAt = acceptedAt.Time
	ride.StartedAt = startedAt.Time
	ride.CompletedAt = completedAt.Time
	ride.CancelledAt = cancelledAt.Time

	return &ride, nil
}
