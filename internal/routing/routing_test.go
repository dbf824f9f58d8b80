package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/geo-payloads/internal/config"
	"github.com/ukydev/geo-payloads/internal/models"
)

var (
	start = models.Location{Lat: 52.5, Lon: 13.4}
	end   = models.Location{Lat: 48.1, Lon: 11.6}
)

const osrmOK = `{
  "code": "Ok",
  "routes": [{
    "distance": 3000, "duration": 120,
    "legs": [{"steps": [
      {"distance": 1000, "duration": 60, "name": "A9", "maneuver": {"type": "depart"},
       "geometry": {"coordinates": [[13.4, 52.5], [13.41, 52.49], [13.42, 52.48]]}},
      {"distance": 2000, "duration": 60, "name": "", "maneuver": {"type": "turn", "modifier": "left"},
       "geometry": {"coordinates": [[13.42, 52.48], [13.43, 52.47]]}},
      {"distance": 0, "duration": 0, "name": "", "maneuver": {"type": "arrive"},
       "geometry": {"coordinates": [[13.43, 52.47], [13.43, 52.47]]}}
    ]}]
  }]
}`

func fastEngine(h *httpEngine) {
	h.backoff = time.Millisecond
}

func TestOSRMClient_Route(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/route/v1/driving/13.400000,52.500000;11.600000,48.100000"), r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("steps"))
		w.Write([]byte(osrmOK))
	}))
	defer server.Close()

	route, err := NewOSRMClient(server.URL).Route(context.Background(), start, end, "car")
	require.NoError(t, err)

	assert.Equal(t, 3000.0, route.Distance)
	assert.Equal(t, 2*time.Minute, route.Duration)
	require.Len(t, route.Points, 4)
	assert.Equal(t, models.Location{Lat: 52.5, Lon: 13.4}, route.Start())
	assert.Equal(t, models.Location{Lat: 52.47, Lon: 13.43}, route.End())

	require.Len(t, route.Instructions, 3)
	assert.Equal(t, 2, route.Instructions[0].Points)
	assert.Equal(t, 1, route.Instructions[1].Points)
	assert.Equal(t, 0, route.Instructions[2].Points)
	assert.Equal(t, "turn left", route.Instructions[1].Text)
	assert.Equal(t, time.Minute, route.Instructions[0].Duration)
}

func TestOSRMClient_NoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": "NoRoute", "message": "Impossible route between points"}`))
	}))
	defer server.Close()

	_, err := NewOSRMClient(server.URL).Route(context.Background(), start, end, "car")
	var rerr *RoutingError
	require.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.Errors[0], "NoRoute")
	assert.True(t, errors.Is(err, ErrNoRoute))
}

func TestOSRMClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(osrmOK))
	}))
	defer server.Close()

	c := NewOSRMClient(server.URL)
	fastEngine(&c.httpEngine)
	_, err := c.Route(context.Background(), start, end, "car")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOSRMClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewOSRMClient(server.URL)
	fastEngine(&c.httpEngine)
	_, err := c.Route(context.Background(), start, end, "car")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoRoute))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestOSRMClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(osrmOK))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOSRMClient(server.URL).Route(ctx, start, end, "car")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGraphHopperClient_Route(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route", r.URL.Path)
		assert.Equal(t, []string{"52.500000,13.400000", "48.100000,11.600000"}, r.URL.Query()["point"])
		assert.Equal(t, "car", r.URL.Query().Get("profile"))
		w.Write([]byte(`{"paths": [{
		  "distance": 2500, "time": 90000,
		  "points": {"type": "LineString", "coordinates": [[13.4, 52.5], [13.41, 52.49], [13.42, 52.48]]},
		  "instructions": [
		    {"distance": 1500, "time": 60000, "interval": [0, 1], "text": "Continue"},
		    {"distance": 1000, "time": 30000, "interval": [1, 2], "text": "Turn right"},
		    {"distance": 0, "time": 0, "interval": [2, 2], "text": "Arrive"}
		  ]}]}`))
	}))
	defer server.Close()

	route, err := NewGraphHopperClient(server.URL).Route(context.Background(), start, end, "car")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, route.Duration)
	assert.Len(t, route.Points, 3)
	require.Len(t, route.Instructions, 3)
	assert.Equal(t, 1, route.Instructions[1].Points)
	assert.Equal(t, 30*time.Second, route.Instructions[1].Duration)
}

func TestGraphHopperClient_PointNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Cannot find point 0", "hints": [{"message": "Cannot find point 0: 52.5,13.4"}]}`))
	}))
	defer server.Close()

	_, err := NewGraphHopperClient(server.URL).Route(context.Background(), start, end, "car")
	var rerr *RoutingError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, []string{"Cannot find point 0: 52.5,13.4"}, rerr.Errors)
}

// MockRouter is a mock implementation of Router
type MockRouter struct {
	mock.Mock
}

func (m *MockRouter) Route(ctx context.Context, start, end models.Location, profile string) (*models.Route, error) {
	args := m.Called(ctx, start, end, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Route), args.Error(1)
}

func TestSQLiteCache_StoresRoutes(t *testing.T) {
	route := &models.Route{
		Points:       []models.Location{start, end},
		Instructions: []models.Instruction{{Distance: 505000, Duration: 5 * time.Hour, Points: 1}},
		Distance:     505000,
		Duration:     5 * time.Hour,
	}
	next := new(MockRouter)
	next.On("Route", mock.Anything, start, end, "car").Return(route, nil).Once()

	c, err := OpenSQLiteCache(filepath.Join(t.TempDir(), "routes.db"), next)
	require.NoError(t, err)
	defer c.Close()

	first, err := c.Route(context.Background(), start, end, "car")
	require.NoError(t, err)
	second, err := c.Route(context.Background(), start, end, "car")
	require.NoError(t, err)

	assert.Equal(t, route, first)
	assert.Equal(t, route, second)
	next.AssertExpectations(t)
}

func TestSQLiteCache_DoesNotStoreFailures(t *testing.T) {
	next := new(MockRouter)
	next.On("Route", mock.Anything, start, end, "car").Return(nil, &RoutingError{Errors: []string{"no path"}}).Twice()

	c, err := OpenSQLiteCache(filepath.Join(t.TempDir(), "routes.db"), next)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 2; i++ {
		_, err := c.Route(context.Background(), start, end, "car")
		assert.ErrorIs(t, err, ErrNoRoute)
	}
	next.AssertExpectations(t)
}

func TestNewRouter(t *testing.T) {
	r, closeFn, err := NewRouter(config.Settings{RouterKind: "osrm", RouterURL: "http://localhost:5000"})
	require.NoError(t, err)
	assert.IsType(t, &OSRMClient{}, r)
	assert.NoError(t, closeFn())

	r, closeFn, err = NewRouter(config.Settings{
		RouterKind:   "graphhopper",
		RouterURL:    "http://localhost:8989",
		RouteCacheDB: filepath.Join(t.TempDir(), "routes.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCache{}, r)
	assert.NoError(t, closeFn())

	_, _, err = NewRouter(config.Settings{RouterKind: "valhalla"})
	assert.Error(t, err)
}
