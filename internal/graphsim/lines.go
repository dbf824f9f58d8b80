package graphsim

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/models"
)

// LoadLines reads street lines from path. Files ending in .geojson or .json
// hold LineString features, anything else uses the text format of ParseLines.
func LoadLines(path string) ([][]models.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lines file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return ParseLineFeatures(data)
	default:
		return ParseLines(string(data)), nil
	}
}

// ParseLines parses lines separated by "_", each a ";" separated list of
// "lat,lon" pairs. Pairs that cannot be parsed are logged and skipped.
func ParseLines(s string) [][]models.Location {
	var lines [][]models.Location
	for _, raw := range strings.Split(strings.TrimSpace(s), "_") {
		var line []models.Location
		for _, pair := range strings.Split(raw, ";") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			p, err := parsePoint(pair)
			if err != nil {
				log.WithError(err).WithField("point", pair).Error("Failed to parse line point")
				continue
			}
			line = append(line, p)
		}
		lines = append(lines, line)
	}
	return lines
}

func parsePoint(pair string) (models.Location, error) {
	parts := strings.Split(pair, ",")
	if len(parts) != 2 {
		return models.Location{}, fmt.Errorf("expected lat,lon but got %d fields", len(parts))
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("longitude: %w", err)
	}
	return models.Location{Lat: lat, Lon: lon}, nil
}

// ParseLineFeatures extracts LineString and MultiLineString geometries from a
// GeoJSON feature collection.
func ParseLineFeatures(data []byte) ([][]models.Location, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse lines file: %w", err)
	}
	var lines [][]models.Location
	for i, f := range fc.Features {
		switch {
		case f.Geometry == nil:
			log.WithField("feature", i).Warn("Skipping feature without geometry")
		case f.Geometry.IsLineString():
			lines = append(lines, toLine(f.Geometry.LineString))
		case f.Geometry.IsMultiLineString():
			for _, ls := range f.Geometry.MultiLineString {
				lines = append(lines, toLine(ls))
			}
		default:
			log.WithFields(log.Fields{"feature": i, "type": f.Geometry.Type}).Warn("Skipping non-line feature")
		}
	}
	return lines, nil
}

func toLine(coords [][]float64) []models.Location {
	line := make([]models.Location, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		line = append(line, models.Location{Lat: c[1], Lon: c[0]})
	}
	return line
}
