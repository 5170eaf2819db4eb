package service

import (
	"math"

	"ridehail/internal/domain"
)

// ComputeFare prices a trip: distance times the per-km rate plus duration times the per-minute rate.
// The result is rounded to two decimals.
func ComputeFare(distanceKm, durationMin float64, pricing domain.CarType) (float64, error) {
	if !nonNegative(distanceKm) || !nonNegative(durationMin) {
		return 0, ErrInvalidFareInput
	}
	if !nonNegative(pricing.PerKm) || !nonNegative(pricing.PerMin) {
		return 0, ErrInvalidPricing
	}

	fare := distanceKm*pricing.PerKm + durationMin*pricing.PerMin
	return math.Round(fare*100) / 100, nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
