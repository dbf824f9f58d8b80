package models

import "time"

// Instruction covers a contiguous run of route points and carries the
// distance and travel time of that run as reported by the routing engine.
type Instruction struct {
	Text     string        `json:"text,omitempty"`
	Distance float64       `json:"distance"` // in meters
	Duration time.Duration `json:"duration"`
	Points   int           `json:"points"` // number of route points covered
}

// Route is the best path between two locations returned by a routing engine.
// Points are ordered from origin to destination. A Route is never modified
// once it has been returned.
type Route struct {
	Points       []Location    `json:"points"`
	Instructions []Instruction `json:"instructions"`
	Distance     float64       `json:"distance"` // in meters
	Duration     time.Duration `json:"duration"`
}

// Start returns the first point of the route.
func (r *Route) Start() Location {
	return r.Points[0]
}

// End returns the last point of the route.
func (r *Route) End() Location {
	return r.Points[len(r.Points)-1]
}
