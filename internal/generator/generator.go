// Package generator turns planned routes into a stream of vehicle telemetry
// payloads, one per tick, including driver breaks and continuous trips.
package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/interp"
	"github.com/ukydev/geo-payloads/internal/models"
)

const (
	// TripBreak is the pause between two consecutive trips, before the time multiplier.
	TripBreak = 30 * time.Minute
	// DriverBreak is the mid-route pause, before the time multiplier.
	DriverBreak = 30 * time.Minute
	// BreakProbability is the chance that the driver takes the mid-route break.
	BreakProbability = 0.9

	breakWindowStart = 0.4
	breakWindowEnd   = 0.5
)

// FailurePayload is emitted whenever a payload could not be produced.
const FailurePayload = "{}"

// Input is one tick request for a generator.
type Input struct {
	Topic string
	Rate  time.Duration
	// Source names the run configuration to use.
	Source string
}

// RoutePayloadGenerator simulates a single vehicle. It is not safe for
// concurrent use; give every agent its own generator.
type RoutePayloadGenerator struct {
	rt *Runtime

	// Clock and Rand may be replaced before the first call to NextPayload.
	Clock func() time.Time
	Rand  interp.Rand

	route        *models.Route
	interpolator *interp.Interpolator
	routeID      string
	segmentStart time.Time
	breakTaken   bool

	pauseUntil    time.Time
	pauseLocation models.Location
}

// New creates a generator sharing the given runtime.
func New(rt *Runtime) *RoutePayloadGenerator {
	return &RoutePayloadGenerator{
		rt:    rt,
		Clock: time.Now,
		Rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RouteID is the identifier of the current trip, empty before the first trip.
func (g *RoutePayloadGenerator) RouteID() string {
	return g.routeID
}

// NextPayload advances the simulation to the current time and returns the
// serialized telemetry. Failures are logged and yield FailurePayload.
func (g *RoutePayloadGenerator) NextPayload(in Input) (payload []byte) {
	logger := log.WithField("topic", in.Topic)
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Failed to generate payload")
			payload = []byte(FailurePayload)
		}
	}()

	cfg, err := g.rt.Config(in.Source)
	if err != nil {
		logger.WithError(err).Error("Failed to load config")
		return []byte(FailurePayload)
	}
	logger.WithFields(log.Fields{"rate": in.Rate, "source": in.Source}).Debug("Generating payload")

	if !g.pauseUntil.IsZero() {
		if g.Clock().Before(g.pauseUntil) {
			logger.WithField("until", g.pauseUntil.Format(time.RFC3339)).Debug("On a break")
			return g.breakPayload(logger)
		}
		logger.Info("Break is over")
		g.pauseUntil = time.Time{}
	}

	if g.route == nil {
		if err := g.planRoute(cfg, nil, in.Topic); err != nil {
			logger.WithError(err).Error("Failed to plan route")
			return []byte(FailurePayload)
		}
	}
	return g.nextLocation(cfg, logger, in.Topic)
}

func (g *RoutePayloadGenerator) nextLocation(cfg models.RunConfig, logger *log.Entry, topic string) []byte {
	total := time.Duration(float64(g.route.Duration) * cfg.TimeMultiplier)
	elapsed := g.Clock().Sub(g.segmentStart)

	percentage := 1.0
	if total > 0 {
		percentage = float64(elapsed) / float64(total)
	}
	if percentage < 0 {
		percentage = 0
	}
	routeEnd := percentage >= 1
	if routeEnd {
		percentage = 1
	}

	res := g.interpolator.Point(percentage)

	if !g.breakTaken && percentage > breakWindowStart && percentage < breakWindowEnd {
		g.breakTaken = true
		if g.Rand.Float64() < BreakProbability {
			if res.Location != nil {
				g.pause(cfg, *res.Location, DriverBreak)
				logger.WithField("until", g.pauseUntil.Format(time.RFC3339)).Info("Truck driver is taking a break")
			} else {
				logger.Error("Location not found, skipping break")
			}
		} else {
			logger.Info("Truck driver is not taking a break")
		}
	}

	if routeEnd || res.Ended() {
		end := g.route.End()
		logger.WithField("route_id", g.routeID).Info("Route ended, planning the next one")
		if err := g.planRoute(cfg, &end, topic); err != nil {
			logger.WithError(err).Error("Failed to plan next route")
			return []byte(FailurePayload)
		}
		return g.breakPayload(logger)
	}

	return g.marshal(logger, models.CarData{
		Location:   *res.Location,
		Speed:      res.Speed,
		SpeedLimit: res.SpeedLimit,
		RouteID:    g.routeID,
		Break:      false,
	})
}

// pause stops the vehicle at loc for d scaled by the time multiplier. The
// segment start is left alone: route progress keeps counting from the time
// the route was planned, so the vehicle moves on from where the elapsed time
// puts it once the pause is over.
func (g *RoutePayloadGenerator) pause(cfg models.RunConfig, loc models.Location, d time.Duration) {
	scaled := time.Duration(float64(d) * cfg.TimeMultiplier)
	g.pauseUntil = g.Clock().Add(scaled)
	g.pauseLocation = loc
}

func (g *RoutePayloadGenerator) breakPayload(logger *log.Entry) []byte {
	return g.marshal(logger, models.CarData{
		Location:   g.pauseLocation,
		Speed:      0,
		SpeedLimit: 0,
		RouteID:    g.routeID,
		Break:      true,
	})
}

func (g *RoutePayloadGenerator) marshal(logger *log.Entry, data models.CarData) []byte {
	b, err := json.Marshal(data)
	if err != nil {
		logger.WithError(fmt.Errorf("marshal payload: %w", err)).Error("Failed to serialize payload")
		return []byte(FailurePayload)
	}
	return b
}
