package geocoder

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/meridian/internal/models"
)

// ErrInvalidPoint is returned when coordinates cannot be parsed or are out of range.
var ErrInvalidPoint = errors.New("invalid point")

// AxisOrder selects how a point is rendered into a request.
type AxisOrder int

const (
	// LatLng renders "lat,lng".
	LatLng AxisOrder = iota
	// LngLat renders "lng,lat".
	LngLat
)

const (
	maxLatitude  = 90
	maxLongitude = 180
	fullCircle   = 360
	pairLength   = 2
)

// ParsePoint parses a "lat,lng" string such as "40.7128, -74.0060".
func ParsePoint(s string) (models.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != pairLength {
		return models.Point{}, fmt.Errorf("%w: %q, expected \"lat,lng\"", ErrInvalidPoint, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("%w: invalid latitude %q", ErrInvalidPoint, parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("%w: invalid longitude %q", ErrInvalidPoint, parts[1])
	}

	return NormalizePoint(models.NewPoint(lat, lng))
}

// NormalizePoint validates the latitude and wraps the longitude into [-180, 180].
func NormalizePoint(p models.Point) (models.Point, error) {
	if !isFinite(p.Latitude) || !isFinite(p.Longitude) {
		return models.Point{}, fmt.Errorf("%w: coordinates must be finite", ErrInvalidPoint)
	}
	if math.Abs(p.Latitude) > maxLatitude {
		return models.Point{}, fmt.Errorf("%w: latitude %v out of [-90, 90]", ErrInvalidPoint, p.Latitude)
	}

	if math.Abs(p.Longitude) > maxLongitude {
		lng := math.Mod(p.Longitude+maxLongitude, fullCircle)
		if lng < 0 {
			lng += fullCircle
		}
		p.Longitude = lng - maxLongitude
	}

	return p, nil
}

// FormatPoint renders p as a comma-joined pair in the given order.
func FormatPoint(p models.Point, order AxisOrder) string {
	lat := formatFloat(p.Latitude)
	lng := formatFloat(p.Longitude)
	if order == LngLat {
		return lng + "," + lat
	}
	return lat + "," + lng
}

// FormatBoundingBox renders the box as "lon1,lat1,lon2,lat2" with the
// south-west corner first regardless of the order the corners were given in.
func FormatBoundingBox(box models.BoundingBox) string {
	lat1 := math.Min(box.First.Latitude, box.Second.Latitude)
	lon1 := math.Min(box.First.Longitude, box.Second.Longitude)
	lat2 := math.Max(box.First.Latitude, box.Second.Latitude)
	lon2 := math.Max(box.First.Longitude, box.Second.Longitude)

	return strings.Join([]string{
		formatFloat(lon1), formatFloat(lat1), formatFloat(lon2), formatFloat(lat2),
	}, ",")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
