package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RouteEstimate is what the route oracle knows about a trip.
type RouteEstimate struct {
	DistanceKm  float64
	DurationMin float64
}

// RouteEstimator is the distance/duration oracle.
type RouteEstimator interface {
	Estimate(ctx context.Context, origin, destination string) (RouteEstimate, error)
}

// DefaultRouteTimeout bounds a single oracle call when no timeout is configured.
const DefaultRouteTimeout = 3 * time.Second

// TimeBoundEstimator caps every oracle call with a deadline and maps any failure to ErrProvider.
type TimeBoundEstimator struct {
	next    RouteEstimator
	timeout time.Duration
}

// NewTimeBoundEstimator wraps next with the given per-call timeout.
func NewTimeBoundEstimator(next RouteEstimator, timeout time.Duration) *TimeBoundEstimator {
	if timeout <= 0 {
		timeout = DefaultRouteTimeout
	}
	return &TimeBoundEstimator{next: next, timeout: timeout}
}

// Estimate implements RouteEstimator. The deadline holds even if next ignores
// its context; a late answer is dropped.
func (e *TimeBoundEstimator) Estimate(ctx context.Context, origin, destination string) (RouteEstimate, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		est RouteEstimate
		err error
	}
	done := make(chan result, 1)
	go func() {
		est, err := e.next.Estimate(ctx, origin, destination)
		done <- result{est: est, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return RouteEstimate{}, fmt.Errorf("%w: timed out after %s", ErrProvider, e.timeout)
		}
		return RouteEstimate{}, fmt.Errorf("%w: %v", ErrProvider, res.err)
	}
	if !nonNegative(res.est.DistanceKm) || !nonNegative(res.est.DurationMin) {
		return RouteEstimate{}, fmt.Errorf("%w: oracle returned %+v", ErrProvider, res.est)
	}
	return res.est, nil
}
