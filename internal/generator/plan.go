package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/geo"
	"github.com/ukydev/geo-payloads/internal/interp"
	"github.com/ukydev/geo-payloads/internal/models"
)

// MinimumDistanceKm is the minimum air-line distance between the start and end of a trip.
const MinimumDistanceKm = 200.0

var (
	ErrInsufficientWaypoints = errors.New("location file must contain at least 2 locations")
	ErrNoEligibleDestination = errors.New("no destination far enough from the start")
	ErrNoRouteFound          = errors.New("no route found")
)

// planRoute chooses a new trip and routes it. A non-nil startHint continues
// from where the previous trip ended and starts with the inter-trip break.
func (g *RoutePayloadGenerator) planRoute(cfg models.RunConfig, startHint *models.Location, topic string) error {
	logger := log.WithField("topic", topic)

	locations, err := g.rt.WaypointSet(cfg.LocationFile)
	if err != nil {
		return fmt.Errorf("load locations %s: %w", cfg.LocationFile, err)
	}
	logger.WithField("locations", len(locations)).Debug("Choosing a route")
	if len(locations) < 2 {
		return ErrInsufficientWaypoints
	}

	attempts := g.rt.MaxRouteAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		startIdx := -1
		var start models.Location
		if startHint != nil {
			start = *startHint
		} else {
			startIdx = g.Rand.Intn(len(locations))
			start = locations[startIdx]
		}

		endIdx, err := g.pickDestination(locations, start, startIdx)
		if err != nil {
			return err
		}
		end := locations[endIdx]

		route, err := g.requestRoute(start, end)
		if err != nil {
			lastErr = err
			logger.WithError(err).WithField("attempt", attempt).Warn("Errors in route planning, retrying")
			continue
		}

		g.route = route
		g.interpolator = interp.New(route, g.Rand)
		g.routeID = uuid.New().String()
		g.segmentStart = g.Clock()
		g.breakTaken = false
		if startHint != nil {
			g.pause(cfg, *startHint, TripBreak)
		}

		logger.WithFields(log.Fields{
			"route_id":    g.routeID,
			"start":       start.String(),
			"end":         end.String(),
			"distance_km": int64(route.Distance / 1000),
			"duration":    route.Duration.Round(time.Minute).String(),
		}).Info("Chose a new route")
		return nil
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrNoRouteFound, attempts, lastErr)
}

// pickDestination samples waypoints until one differs from the start and is
// more than MinimumDistanceKm away from it.
func (g *RoutePayloadGenerator) pickDestination(locations []models.Location, start models.Location, startIdx int) (int, error) {
	samples := g.rt.MaxDestinationSamples
	if samples < 1 {
		samples = 1
	}
	for i := 0; i < samples; i++ {
		idx := g.Rand.Intn(len(locations))
		if idx == startIdx {
			continue
		}
		if geo.DistanceKm(start, locations[idx]) > MinimumDistanceKm {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("%w after %d samples (minimum %.0fkm)", ErrNoEligibleDestination, samples, MinimumDistanceKm)
}

func (g *RoutePayloadGenerator) requestRoute(start, end models.Location) (*models.Route, error) {
	ctx := context.Background()
	if g.rt.RouteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.rt.RouteTimeout)
		defer cancel()
	}
	route, err := g.rt.Router.Route(ctx, start, end, g.rt.Profile)
	if err != nil {
		return nil, err
	}
	if route == nil || len(route.Points) < 2 {
		return nil, errors.New("route has fewer than 2 points")
	}
	return route, nil
}
