package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/geo-payloads/internal/models"
)

// OSRMClient plans routes against an OSRM HTTP server.
type OSRMClient struct {
	httpEngine
}

// NewOSRMClient creates a client for the OSRM server at baseURL.
func NewOSRMClient(baseURL string) *OSRMClient {
	return &OSRMClient{httpEngine: newHTTPEngine(baseURL)}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Legs     []struct {
			Steps []osrmStep `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type osrmStep struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Name     string  `json:"name"`
	Maneuver struct {
		Type     string `json:"type"`
		Modifier string `json:"modifier"`
	} `json:"maneuver"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Route implements Router.
func (o *OSRMClient) Route(ctx context.Context, start, end models.Location, profile string) (*models.Route, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=false&steps=true&geometries=geojson",
		o.baseURL, osrmProfile(profile), start.Lon, start.Lat, end.Lon, end.Lat)

	body, err := o.getWithRetry(ctx, url)
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code < 500 {
			if rerr := osrmError(he.Body); rerr != nil {
				return nil, rerr
			}
		}
		return nil, fmt.Errorf("osrm route: %w", err)
	}

	var resp osrmResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("osrm route: decode response: %w", err)
	}
	if resp.Code != "Ok" {
		return nil, &RoutingError{Errors: []string{resp.Code + ": " + resp.Message}}
	}
	if len(resp.Routes) == 0 {
		return nil, ErrNoRoute
	}

	best := resp.Routes[0]
	route := &models.Route{
		Distance: best.Distance,
		Duration: seconds(best.Duration),
	}
	for _, leg := range best.Legs {
		for _, step := range leg.Steps {
			from := len(route.Points) - 1
			if from < 0 {
				from = 0
			}
			for _, c := range step.Geometry.Coordinates {
				if len(c) < 2 {
					continue
				}
				p := models.Location{Lat: c[1], Lon: c[0]}
				if n := len(route.Points); n > 0 && route.Points[n-1] == p {
					continue
				}
				route.Points = append(route.Points, p)
			}
			route.Instructions = append(route.Instructions, models.Instruction{
				Text:     stepText(step),
				Distance: step.Distance,
				Duration: seconds(step.Duration),
				Points:   len(route.Points) - 1 - from,
			})
		}
	}
	if len(route.Points) < 2 {
		return nil, ErrNoRoute
	}
	return route, nil
}

func osrmError(body []byte) error {
	var resp osrmResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Code == "" {
		return nil
	}
	return &RoutingError{Errors: []string{resp.Code + ": " + resp.Message}}
}

// osrmProfile maps vehicle profiles onto the OSRM profile names.
func osrmProfile(profile string) string {
	switch profile {
	case "", "car":
		return "driving"
	case "bike":
		return "cycling"
	case "foot":
		return "walking"
	}
	return profile
}

func stepText(s osrmStep) string {
	text := s.Maneuver.Type
	if s.Maneuver.Modifier != "" {
		text += " " + s.Maneuver.Modifier
	}
	if s.Name != "" {
		text += " onto " + s.Name
	}
	return text
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
