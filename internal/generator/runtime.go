package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ukydev/geo-payloads/internal/cache"
	"github.com/ukydev/geo-payloads/internal/config"
	"github.com/ukydev/geo-payloads/internal/db"
	"github.com/ukydev/geo-payloads/internal/models"
	"github.com/ukydev/geo-payloads/internal/routing"
)

// MongoPrefix marks a location source that is read from a MongoDB collection.
const MongoPrefix = "mongo:"

// Runtime is the process-wide state shared by every generator: the routing
// engine handle and the config and waypoint caches. Build it once at startup.
type Runtime struct {
	Router  routing.Router
	Profile string

	// RouteTimeout bounds a single routing request; zero means no timeout.
	RouteTimeout          time.Duration
	MaxRouteAttempts      int
	MaxDestinationSamples int

	Configs   *cache.Memo[models.RunConfig]
	Waypoints *cache.Memo[[]models.Location]

	LoadConfig    func(source string) (models.RunConfig, error)
	LoadWaypoints func(source string) ([]models.Location, error)
}

// NewRuntime wires a Runtime from the settings. warehouses resolves a Mongo
// collection name for "mongo:<collection>" sources and may be nil.
func NewRuntime(router routing.Router, s config.Settings, warehouses func(name string) db.WarehouseCollection) *Runtime {
	return &Runtime{
		Router:                router,
		Profile:               s.VehicleProfile,
		RouteTimeout:          s.RouteTimeout,
		MaxRouteAttempts:      s.MaxRouteAttempts,
		MaxDestinationSamples: s.MaxDestinationSamples,
		Configs:               cache.NewMemo[models.RunConfig](),
		Waypoints:             cache.NewMemo[[]models.Location](),
		LoadConfig:            config.LoadRunConfig,
		LoadWaypoints:         WaypointLoader(warehouses),
	}
}

// Config returns the cached run configuration for source.
func (rt *Runtime) Config(source string) (models.RunConfig, error) {
	return rt.Configs.GetOrLoad(source, func() (models.RunConfig, error) {
		return rt.LoadConfig(source)
	})
}

// WaypointSet returns the cached waypoints for source.
func (rt *Runtime) WaypointSet(source string) ([]models.Location, error) {
	return rt.Waypoints.GetOrLoad(source, func() ([]models.Location, error) {
		return rt.LoadWaypoints(source)
	})
}

// WaypointLoader loads GeoJSON files, or Mongo collections for sources of the
// form "mongo:<collection>".
func WaypointLoader(warehouses func(name string) db.WarehouseCollection) func(string) ([]models.Location, error) {
	return func(source string) ([]models.Location, error) {
		if !strings.HasPrefix(source, MongoPrefix) {
			return config.LoadWaypointFile(source)
		}
		if warehouses == nil {
			return nil, fmt.Errorf("waypoint source %q needs MongoDB, but MONGO_URI is not set", source)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return warehouses(strings.TrimPrefix(source, MongoPrefix)).FindWaypoints(ctx)
	}
}
