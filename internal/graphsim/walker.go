package graphsim

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/geo"
	"github.com/ukydev/geo-payloads/internal/models"
)

const (
	// StepMeters is the distance travelled per tick.
	StepMeters = 8.0
	// DefaultMaxAttempts bounds the search for a usable round trip.
	DefaultMaxAttempts = 1000
)

// Minimum edge counts of the three chained legs start->end->middle->start.
var minLegEdges = [3]int{4, 3, 2}

var ErrNoPath = errors.New("no round trip found in street graph")

// Rand picks random line indices. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Walker moves one vehicle along a round trip of three chained shortest
// paths, a fixed step per tick. Direction on each edge is inferred from the
// distance to the next edge's endpoints, which can pick the wrong way at
// sharp junctions. A Walker is not safe for concurrent use.
type Walker struct {
	graph   *Graph
	edges   []int
	edgeIdx int
	iter    int
	reverse bool
}

// NewWalker plans a round trip between the first points of randomly chosen
// lines. Endpoint choices are retried up to maxAttempts times.
func NewWalker(g *Graph, rnd Rand, maxAttempts int) (*Walker, error) {
	edges, err := planRoundTrip(g, rnd, maxAttempts)
	if err != nil {
		return nil, err
	}

	first, second := g.Edge(edges[0]), g.Edge(edges[1])
	reverse := geo.DistanceKm(g.Vertex(first.From), g.Vertex(second.From)) <
		geo.DistanceKm(g.Vertex(first.To), g.Vertex(second.From))

	return &Walker{graph: g, edges: edges, reverse: reverse}, nil
}

func planRoundTrip(g *Graph, rnd Rand, maxAttempts int) ([]int, error) {
	if g.NumLines() == 0 {
		return nil, fmt.Errorf("%w: graph has no lines", ErrNoPath)
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := g.LineStart(rnd.Intn(g.NumLines()))
		end := g.LineStart(rnd.Intn(g.NumLines()))
		middle := g.LineStart(rnd.Intn(g.NumLines()))
		logger := log.WithFields(log.Fields{"start": start, "end": end, "middle": middle, "attempt": attempt})

		legs := [3][2]int{{start, end}, {end, middle}, {middle, start}}
		var trip []int
		ok := true
		for i, leg := range legs {
			path, found := g.ShortestPath(leg[0], leg[1])
			if !found || len(path) < minLegEdges[i] {
				ok = false
				break
			}
			trip = append(trip, path...)
		}
		if !ok {
			logger.Debug("Rejected round trip")
			continue
		}
		logger.WithField("edges", len(trip)).Info("Planned round trip")
		return trip, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrNoPath, maxAttempts)
}

// Len is the number of edges in the round trip.
func (w *Walker) Len() int {
	return len(w.edges)
}

// Next advances one step and returns the new position.
func (w *Walker) Next() models.Location {
	if w.edgeIdx >= len(w.edges) {
		w.edgeIdx = 0
		log.Debug("Rolling over edge list")
	}
	e := w.graph.Edge(w.edges[w.edgeIdx])
	from, to := w.graph.Vertex(e.From), w.graph.Vertex(e.To)

	offset := StepMeters * float64(w.iter)
	var p models.Location
	if w.reverse {
		p = geo.Step(to, from, offset)
	} else {
		p = geo.Step(from, to, offset)
	}

	w.iter++
	if StepMeters*float64(w.iter) > e.Distance*1000 {
		w.iter = 0
		w.edgeIdx++
		next := w.graph.Edge(w.edges[w.edgeIdx%len(w.edges)])
		w.reverse = geo.DistanceKm(p, w.graph.Vertex(next.From)) >= geo.DistanceKm(p, w.graph.Vertex(next.To))
	}
	return p
}

// NextPayload advances one step and returns the position as "lat,lon".
func (w *Walker) NextPayload() []byte {
	return []byte(w.Next().String())
}
