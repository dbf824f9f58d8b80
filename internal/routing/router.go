// Package routing talks to the road routing engines that plan truck routes.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ukydev/geo-payloads/internal/models"
)

// ErrNoRoute is returned when the engine answers without any path.
var ErrNoRoute = errors.New("no route found")

// Router computes the best path between two locations for a vehicle profile.
type Router interface {
	Route(ctx context.Context, start, end models.Location, profile string) (*models.Route, error)
}

// RoutingError carries the errors a routing engine reported for a request.
// These are failures of the particular start/end pair, not of the engine.
type RoutingError struct {
	Errors []string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing failed: %s", strings.Join(e.Errors, "; "))
}

// Is makes errors.Is(err, ErrNoRoute) hold for every RoutingError.
func (e *RoutingError) Is(target error) bool {
	return target == ErrNoRoute
}
