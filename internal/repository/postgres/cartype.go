package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// CarTypeRepository is a PostgreSQL implementation of repository.CarTypeRepository.
type CarTypeRepository struct {
	q Querier
}

// NewCarTypeRepository creates a new PostgreSQL pricing catalog repository.
func NewCarTypeRepository(db *sql.DB) *CarTypeRepository {
	return &CarTypeRepository{q: db}
}

// Get retrieves the catalog entry for a comfort class.
func (r *CarTypeRepository) Get(ctx context.Context, comfort domain.ComfortClass) (*domain.CarType, error) {
	query := `SELECT comfort, per_km, per_min, image FROM car_types WHERE comfort = $1`

	var ct domain.CarType
	err := r.q.QueryRowContext(ctx, query, comfort).Scan(&ct.Comfort, &ct.PerKm, &ct.PerMin, &ct.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &ct, nil
}

// GetAll retrieves every catalog entry.
func (r *CarTypeRepository) GetAll(ctx context.Context) ([]*domain.CarType, error) {
	query := `SELECT comfort, per_km, per_min, image FROM car_types ORDER BY per_km, comfort`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carTypes []*domain.CarType
	for rows.Next() {
		var ct domain.CarType
		if err := rows.Scan(&ct.Comfort, &ct.PerKm, &ct.PerMin, &ct.Image); err != nil {
			return nil, err
		}
		carTypes = append(carTypes, &ct)
	}
	return carTypes, rows.Err()
}

// Upsert creates or replaces a catalog entry.
func (r *CarTypeRepository) Upsert(ctx context.Context, ct *domain.CarType) error {
	query := `
		INSERT INTO car_types (comfort, per_km, per_min, image)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (comfort) DO UPDATE
		SET per_km = EXCLUDED.per_km, per_min = EXCLUDED.per_min, image = EXCLUDED.image
	`
	_, err := r.q.ExecContext(ctx, query, ct.Comfort, ct.PerKm, ct.PerMin, ct.Image)
	return err
}
