// Package geom provides the planar primitives the network packages build on:
// points, polylines, projection of a point onto a polyline, and the rounding
// applied at persistence boundaries.
//
// All coordinates are planar map units. Nothing here is aware of geographic
// reference systems; inputs are assumed to live in one projected CRS.
package geom

import "math"

// Point is a position in planar map units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to other.
func (p Point) DistanceTo(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Polyline is an ordered vertex chain. For reach geometries the first vertex
// is the upstream end and the last vertex the downstream end.
type Polyline []Point

// Length returns the arc length: the sum of the segment lengths. Polylines
// with fewer than two vertices have length zero.
func (pl Polyline) Length() float64 {
	var sum float64
	for i := 1; i < len(pl); i++ {
		sum += pl[i-1].DistanceTo(pl[i])
	}
	return sum
}

// Projection is the result of projecting a point onto a polyline.
type Projection struct {
	// Point is the nearest point on the polyline.
	Point Point
	// Dist is the distance from the query point to Point.
	Dist float64
	// Along is the arc length from the polyline's first vertex to Point.
	Along float64
}

// Project returns the nearest point on the polyline to p. Candidate points
// are clamped to each segment, so the result always lies on the polyline.
// When several segments are equally near, the earliest one wins, keeping the
// result deterministic for points equidistant to multiple segments.
func (pl Polyline) Project(p Point) Projection {
	best := Projection{Dist: math.Inf(1)}
	if len(pl) == 0 {
		return best
	}
	if len(pl) == 1 {
		return Projection{Point: pl[0], Dist: p.DistanceTo(pl[0])}
	}

	var walked float64
	for i := 1; i < len(pl); i++ {
		a, b := pl[i-1], pl[i]
		seg := a.DistanceTo(b)

		t := 0.0
		if seg > 0 {
			t = ((p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)) / (seg * seg)
			t = math.Max(0, math.Min(1, t))
		}
		cand := Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
		if d := p.DistanceTo(cand); d < best.Dist {
			best = Projection{Point: cand, Dist: d, Along: walked + t*seg}
		}
		walked += seg
	}
	return best
}

// PointAt returns the point at arc length d from the first vertex. Distances
// outside [0, Length] clamp to the nearest endpoint.
func (pl Polyline) PointAt(d float64) Point {
	if len(pl) == 0 {
		return Point{}
	}
	if d <= 0 {
		return pl[0]
	}
	var walked float64
	for i := 1; i < len(pl); i++ {
		a, b := pl[i-1], pl[i]
		seg := a.DistanceTo(b)
		if walked+seg >= d && seg > 0 {
			t := (d - walked) / seg
			return Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
		}
		walked += seg
	}
	return pl[len(pl)-1]
}

// Reverse returns a new polyline with the vertex order flipped.
func (pl Polyline) Reverse() Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[len(pl)-1-i] = p
	}
	return out
}

// Round2 rounds to two decimal places. Applied to lengths and distances only
// when they cross a persistence boundary, never during accumulation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
