package routing

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/config"
)

// NewRouter builds the router selected by the settings, wrapped in the
// persistent route cache when one is configured. The returned function
// releases the resources held by the router.
func NewRouter(s config.Settings) (Router, func() error, error) {
	var r Router
	switch s.RouterKind {
	case "osrm":
		r = NewOSRMClient(s.RouterURL)
	case "graphhopper":
		r = NewGraphHopperClient(s.RouterURL)
	default:
		return nil, nil, fmt.Errorf("unknown router kind %q", s.RouterKind)
	}
	log.WithFields(log.Fields{"kind": s.RouterKind, "url": s.RouterURL}).Info("Using routing engine")

	if s.RouteCacheDB == "" {
		return r, func() error { return nil }, nil
	}
	c, err := OpenSQLiteCache(s.RouteCacheDB, r)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("path", s.RouteCacheDB).Info("Route cache enabled")
	return c, c.Close, nil
}
