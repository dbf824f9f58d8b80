package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ukydev/geo-payloads/internal/models"
)

// GraphHopperClient plans routes against a GraphHopper server configured
// with a "fastest, no turn costs" car profile.
type GraphHopperClient struct {
	httpEngine
}

// NewGraphHopperClient creates a client for the GraphHopper server at baseURL.
func NewGraphHopperClient(baseURL string) *GraphHopperClient {
	return &GraphHopperClient{httpEngine: newHTTPEngine(baseURL)}
}

type ghResponse struct {
	Message string `json:"message"`
	Hints   []struct {
		Message string `json:"message"`
	} `json:"hints"`
	Paths []struct {
		Distance float64 `json:"distance"`
		Time     int64   `json:"time"` // ms
		Points   struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"points"`
		Instructions []struct {
			Distance float64 `json:"distance"`
			Time     int64   `json:"time"` // ms
			Interval []int   `json:"interval"`
			Text     string  `json:"text"`
		} `json:"instructions"`
	} `json:"paths"`
}

// Route implements Router.
func (g *GraphHopperClient) Route(ctx context.Context, start, end models.Location, profile string) (*models.Route, error) {
	q := url.Values{}
	q.Add("point", fmt.Sprintf("%.6f,%.6f", start.Lat, start.Lon))
	q.Add("point", fmt.Sprintf("%.6f,%.6f", end.Lat, end.Lon))
	q.Set("profile", profile)
	q.Set("points_encoded", "false")
	q.Set("instructions", "true")

	body, err := g.getWithRetry(ctx, g.baseURL+"/route?"+q.Encode())
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code < 500 {
			if rerr := ghError(he.Body); rerr != nil {
				return nil, rerr
			}
		}
		return nil, fmt.Errorf("graphhopper route: %w", err)
	}

	var resp ghResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("graphhopper route: decode response: %w", err)
	}
	if len(resp.Paths) == 0 {
		return nil, ErrNoRoute
	}

	best := resp.Paths[0]
	route := &models.Route{
		Distance: best.Distance,
		Duration: time.Duration(best.Time) * time.Millisecond,
		Points:   make([]models.Location, 0, len(best.Points.Coordinates)),
	}
	for _, c := range best.Points.Coordinates {
		if len(c) < 2 {
			continue
		}
		route.Points = append(route.Points, models.Location{Lat: c[1], Lon: c[0]})
	}
	for _, in := range best.Instructions {
		points := 0
		if len(in.Interval) == 2 {
			points = in.Interval[1] - in.Interval[0]
		}
		route.Instructions = append(route.Instructions, models.Instruction{
			Text:     in.Text,
			Distance: in.Distance,
			Duration: time.Duration(in.Time) * time.Millisecond,
			Points:   points,
		})
	}
	if len(route.Points) < 2 {
		return nil, ErrNoRoute
	}
	return route, nil
}

func ghError(body []byte) error {
	var resp ghResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}
	var msgs []string
	for _, h := range resp.Hints {
		msgs = append(msgs, h.Message)
	}
	if len(msgs) == 0 && resp.Message != "" {
		msgs = append(msgs, resp.Message)
	}
	if len(msgs) == 0 {
		return nil
	}
	return &RoutingError{Errors: msgs}
}
