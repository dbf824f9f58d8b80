package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Warehouse is a waypoint stored in MongoDB. Documents keep the GeoJSON point
// feature layout they were imported from.
type Warehouse struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Type       string                 `bson:"type" json:"type"`
	Geometry   WarehouseGeometry      `bson:"geometry" json:"geometry"`
	Properties map[string]interface{} `bson:"properties,omitempty" json:"properties,omitempty"`
}

// WarehouseGeometry is a GeoJSON point, coordinates in [lon, lat] order.
type WarehouseGeometry struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// Location returns the warehouse position, or false if the geometry is not a usable point.
func (w Warehouse) Location() (Location, bool) {
	if w.Geometry.Type != "Point" || len(w.Geometry.Coordinates) < 2 {
		return Location{}, false
	}
	return Location{Lat: w.Geometry.Coordinates[1], Lon: w.Geometry.Coordinates[0]}, true
}
