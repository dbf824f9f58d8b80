// Package interp maps elapsed route time onto a position along a planned route.
package interp

import (
	"math"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/geo"
	"github.com/ukydev/geo-payloads/internal/models"
)

// Rand is the random source used for speed noise. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Result is the interpolated state of a vehicle at one point in time.
// A nil Location means the route end was reached or no position could be derived.
type Result struct {
	Speed      float64 // km/h
	Location   *models.Location
	SpeedLimit float64 // km/h
}

// Ended reports whether the result carries no position.
func (r Result) Ended() bool {
	return r.Location == nil
}

// Interpolator walks one immutable route. It keeps no traversal state, so
// repeated calls with the same percentage select the same position.
type Interpolator struct {
	route    *models.Route
	segments []float64 // great-circle length of segment i in meters
	total    float64
	rnd      Rand
}

// New creates an interpolator for route. A nil rnd uses a private unseeded source.
func New(route *models.Route, rnd Rand) *Interpolator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	in := &Interpolator{route: route, rnd: rnd}
	if n := len(route.Points); n > 1 {
		in.segments = make([]float64, n-1)
		for i := 0; i < n-1; i++ {
			in.segments[i] = geo.DistanceMeters(route.Points[i], route.Points[i+1])
			in.total += in.segments[i]
		}
	}
	return in
}

// Distance is the great-circle length of the route in meters.
func (in *Interpolator) Distance() float64 {
	return in.total
}

// Point returns the position at the given fraction (0..1) of the route's
// distance together with an estimated speed and speed limit. Percentages of
// 1 or more mark the end of the route and return a result without location.
func (in *Interpolator) Point(percentage float64) Result {
	if percentage >= 1 {
		log.Debug("Route end was reached")
		return Result{}
	}
	if percentage < 0 {
		percentage = 0
	}

	target := in.total * percentage
	acc := 0.0
	for i, segLen := range in.segments {
		if acc+segLen < target {
			acc += segLen
			continue
		}

		segPercentage := 0.0
		if segLen > 0 {
			segPercentage = (target - acc) / segLen
		}
		if segPercentage > 1 {
			log.Debug("Route end was reached")
			return Result{}
		}

		speed, limit, ok := in.speedAt(i)
		if !ok {
			log.WithFields(log.Fields{
				"segment":      i,
				"instructions": len(in.route.Instructions),
			}).Warn("No instruction covers the current segment")
			return Result{}
		}

		p := geo.Lerp(in.route.Points[i], in.route.Points[i+1], segPercentage)
		return Result{Speed: speed, Location: &p, SpeedLimit: limit}
	}

	log.WithFields(log.Fields{
		"percentage":  percentage,
		"points":      len(in.route.Points),
		"accumulated": acc,
		"target":      target,
		"distance":    in.total,
	}).Warn("Could not generate point at percentage")
	return Result{}
}

// speedAt derives the speed of the instruction covering segment i, plus a
// small cubic noise term, and estimates the speed limit from it.
// Instruction k covers segment i while the cumulative point count of
// instructions 0..k is greater than i, so a segment starting exactly on an
// instruction boundary belongs to the next instruction.
func (in *Interpolator) speedAt(i int) (speed, limit float64, ok bool) {
	offset := 0
	for _, instr := range in.route.Instructions {
		offset += instr.Points
		if offset <= i {
			continue
		}
		base := 0.0
		if hours := instr.Duration.Hours(); hours > 0 {
			base = (instr.Distance / 1000) / hours
		}
		noise := math.Pow(float64(in.rnd.Intn(21)-10), 3) / 1000
		return math.Max(0, base+noise), math.Round(base/10) * 10, true
	}
	return 0, 0, false
}
