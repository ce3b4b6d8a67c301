package models

// Point represents a geographical point defined by its latitude and longitude in degrees.
type Point struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}

// NewPoint builds a Point from a (latitude, longitude) pair.
func NewPoint(lat, lng float64) Point {
	return Point{Latitude: lat, Longitude: lng}
}

// BoundingBox is a viewport given by two opposite corners. The corners may be
// supplied in any order; consumers normalise them to min/max.
type BoundingBox struct {
	First  Point
	Second Point
}

// Location is a geocoding result: the resolved place name, its coordinates
// and the raw vendor payload it was parsed from.
// Locations are produced by response parsing only and never mutated afterwards.
type Location struct {
	Address string         // Address is the display name; empty when the vendor returned none.
	Point   Point          // Point holds the resolved coordinates.
	Raw     map[string]any // Raw is the vendor JSON object of this result.
}
