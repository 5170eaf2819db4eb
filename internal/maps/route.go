package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"ridehail/internal/service"
)

// ErrNoRoute is returned when the Directions API finds no drivable route.
var ErrNoRoute = errors.New("no route found")

// directionsClient is the slice of *maps.Client the route service needs.
type directionsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// RouteService answers distance and duration queries with the Google Maps Directions API.
type RouteService struct {
	client directionsClient
}

// Ensure RouteService implements service.RouteEstimator.
var _ service.RouteEstimator = (*RouteService)(nil)

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Estimate returns the driving distance in kilometres and duration in minutes
// of the first leg of the first route between origin and destination.
func (s *RouteService) Estimate(ctx context.Context, origin, destination string) (service.RouteEstimate, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return service.RouteEstimate{}, fmt.Errorf("maps api error: %w", err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return service.RouteEstimate{}, ErrNoRoute
	}

	leg := routes[0].Legs[0]
	return service.RouteEstimate{
		DistanceKm:  float64(leg.Distance.Meters) / 1000,
		DurationMin: leg.Duration.Minutes(),
	}, nil
}
