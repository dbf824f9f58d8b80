package config

import (
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/models"
)

// LoadWaypointFile reads a GeoJSON feature collection and returns the
// coordinates of its point features in file order.
func LoadWaypointFile(path string) ([]models.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waypoint file: %w", err)
	}
	return ParseWaypoints(data)
}

// ParseWaypoints extracts point features from a GeoJSON feature collection.
// Features that are not points are skipped.
func ParseWaypoints(data []byte) ([]models.Location, error) {
	warehouses, err := ParseWarehouses(data)
	if err != nil {
		return nil, err
	}
	points := make([]models.Location, 0, len(warehouses))
	for _, w := range warehouses {
		if loc, ok := w.Location(); ok {
			points = append(points, loc)
		}
	}
	return points, nil
}

// LoadWarehouseFile reads the point features of a GeoJSON file as warehouse documents.
func LoadWarehouseFile(path string) ([]models.Warehouse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waypoint file: %w", err)
	}
	return ParseWarehouses(data)
}

// ParseWarehouses converts the point features of a feature collection,
// keeping their properties.
func ParseWarehouses(data []byte) ([]models.Warehouse, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse waypoint file: %w", err)
	}
	warehouses := make([]models.Warehouse, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			log.WithField("feature", i).Warn("Skipping non-point waypoint feature")
			continue
		}
		warehouses = append(warehouses, models.Warehouse{
			Type: "Feature",
			Geometry: models.WarehouseGeometry{
				Type:        "Point",
				Coordinates: []float64{f.Geometry.Point[0], f.Geometry.Point[1]},
			},
			Properties: f.Properties,
		})
	}
	return warehouses, nil
}
