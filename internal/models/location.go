package models

import "fmt"

// Location represents a geographical location with latitude and longitude coordinates.
// Locations compare and hash by value, so they can be used as map keys.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// String renders the location in the "lat,lon" form consumed by the map client.
func (l Location) String() string {
	return fmt.Sprintf("%v,%v", l.Lat, l.Lon)
}
