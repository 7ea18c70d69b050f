package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

const (
	// MinVertices is the smallest ring that encloses an area.
	MinVertices = 3

	SquareMetersPerHectare = 10000.0
)

// Ring is an open boundary: the last point is not a copy of the first.
type Ring []Point

// Clone returns an independent copy of the ring.
func (r Ring) Clone() Ring {
	if r == nil {
		return nil
	}
	out := make(Ring, len(r))
	copy(out, r)
	return out
}

// IsComplete reports whether the ring has enough vertices to be persisted.
func IsComplete(r Ring) bool {
	return len(r) >= MinVertices
}

// Finite reports whether every vertex has finite coordinates.
func Finite(r Ring) bool {
	for _, p := range r {
		if !p.Finite() {
			return false
		}
	}
	return true
}

// Close converts the ring to an orb.Ring with the first point re-appended.
func Close(r Ring) orb.Ring {
	if len(r) == 0 {
		return orb.Ring{}
	}
	closed := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		closed = append(closed, p.orb())
	}
	if !closed.Closed() {
		closed = append(closed, closed[0])
	}
	return closed
}

// AreaHectares returns the spherical area of the ring in hectares rounded to
// two decimals. Incomplete or non-finite rings have zero area.
func AreaHectares(r Ring) float64 {
	if !IsComplete(r) || !Finite(r) {
		return 0
	}
	sqm := orbgeo.Area(orb.Polygon{Close(r)})
	return round2(sqm / SquareMetersPerHectare)
}

// Centroid returns the planar centroid of the enclosed area.
func Centroid(r Ring) (Point, bool) {
	if !IsComplete(r) || !Finite(r) {
		return Point{}, false
	}
	c, area := planar.CentroidArea(orb.Polygon{Close(r)})
	if area == 0 {
		// degenerate ring: fall back to the bounding box centre
		c = Close(r).Bound().Center()
	}
	return fromOrb(c), true
}

// PerimeterMeters returns the great-circle length of the closed boundary.
func PerimeterMeters(r Ring) float64 {
	if len(r) < 2 || !Finite(r) {
		return 0
	}
	closed := Close(r)
	var total float64
	for i := 1; i < len(closed); i++ {
		total += orbgeo.Distance(closed[i-1], closed[i])
	}
	return total
}

// WKT renders the closed ring as a POLYGON, empty for incomplete rings.
func WKT(r Ring) string {
	if !IsComplete(r) {
		return ""
	}
	return wkt.MarshalString(orb.Polygon{Close(r)})
}

// Feature encodes the ring as a GeoJSON Feature with the given properties.
func Feature(r Ring, props map[string]interface{}) ([]byte, error) {
	var geometry orb.Geometry = orb.Polygon{Close(r)}
	if !IsComplete(r) {
		geometry = orb.MultiPoint(toOrbPoints(r))
	}
	feature := geojson.NewFeature(geometry)
	for k, v := range props {
		feature.Properties[k] = v
	}
	return feature.MarshalJSON()
}

func toOrbPoints(r Ring) []orb.Point {
	points := make([]orb.Point, 0, len(r))
	for _, p := range r {
		points = append(points, p.orb())
	}
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
