// Package geo reduces neighborhood polygons to the few points worth sending
// as point queries.
package geo

import (
	"github.com/paulmach/orb"
)

// minRingForReduction is the smallest ring that gets reduced; smaller rings
// are queried vertex by vertex.
const minRingForReduction = 6

// Sample returns the significant vertices of ring: the first vertex with the
// minimum x, minimum y, maximum x and maximum y, followed by the mean of those
// four points. Rings with fewer than six vertices are returned unchanged.
// X is longitude and Y latitude, as the portal sends them.
func Sample(ring orb.Ring) []orb.Point {
	if len(ring) < minRingForReduction {
		out := make([]orb.Point, len(ring))
		copy(out, ring)
		return out
	}

	minX, minY, maxX, maxY := ring[0], ring[0], ring[0], ring[0]
	for _, p := range ring[1:] {
		if p.X() < minX.X() {
			minX = p
		}
		if p.Y() < minY.Y() {
			minY = p
		}
		if p.X() > maxX.X() {
			maxX = p
		}
		if p.Y() > maxY.Y() {
			maxY = p
		}
	}

	extremes := []orb.Point{minX, minY, maxX, maxY}
	var cx, cy float64
	for _, p := range extremes {
		cx += p.X()
		cy += p.Y()
	}
	n := float64(len(extremes))
	return append(extremes, orb.Point{cx / n, cy / n})
}

// OuterRing returns the outer ring of the first polygon in g. Holes are ignored.
func OuterRing(g orb.Geometry) (orb.Ring, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) == 0 || len(v[0]) == 0 {
			return nil, false
		}
		return v[0], true
	case orb.MultiPolygon:
		if len(v) == 0 {
			return nil, false
		}
		return OuterRing(v[0])
	case orb.Ring:
		return v, len(v) > 0
	default:
		return nil, false
	}
}
