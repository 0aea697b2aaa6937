// Package geometry provides planar predicates used to test sky footprints
// against query regions.
package geometry

import (
	"errors"
	"math"
)

var (
	// ErrTooFewVertices indicates a polygon with fewer than three vertices
	ErrTooFewVertices = errors.New("polygon needs at least 3 vertices")

	// ErrNotConvex indicates the vertices do not describe a convex polygon
	ErrNotConvex = errors.New("polygon is not convex")

	// ErrDegenerate indicates all vertices are collinear
	ErrDegenerate = errors.New("polygon is degenerate")
)

// Point is a 2-D coordinate pair in a shared planar frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Contains reports whether p lies inside or on the boundary of the convex
// polygon described by vertices, which must be given in clockwise order.
//
// For every edge i -> i+1 the dot product of (vertex[i] - p) and
// (vertex[i+1] - vertex[i]) is taken. The point is outside as soon as a
// nonzero sign disagrees with the first nonzero sign seen. Zero products are
// ignored, so points on an edge and fully collinear polygons yield true.
//
// The result for non-convex polygons or inconsistent winding is undefined;
// use Validate and Clockwise to prepare untrusted input. Fewer than three
// vertices always yields false.
func Contains(p Point, vertices []Point) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	sign := 0
	for i := 0; i < n; i++ {
		cur := vertices[i]
		next := vertices[(i+1)%n]

		ax, ay := cur.X-p.X, cur.Y-p.Y
		bx, by := next.X-cur.X, next.Y-cur.Y

		s := signum(ax*bx + ay*by)
		if s == 0 {
			continue
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// SignedArea returns the shoelace area of the polygon. It is negative for
// clockwise and positive for counter-clockwise winding.
func SignedArea(vertices []Point) float64 {
	var sum float64
	n := len(vertices)
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Clockwise returns the vertices in clockwise order, reversing a copy when
// the input winds counter-clockwise.
func Clockwise(vertices []Point) []Point {
	out := make([]Point, len(vertices))
	copy(out, vertices)
	if SignedArea(out) > 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Validate checks that vertices describe a convex, non-degenerate polygon.
// Winding is not checked; see Clockwise.
func Validate(vertices []Point) error {
	n := len(vertices)
	if n < 3 {
		return ErrTooFewVertices
	}
	for _, v := range vertices {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return ErrDegenerate
		}
	}

	turn := 0
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		c := vertices[(i+2)%n]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		s := signum(cross)
		if s == 0 {
			continue
		}
		if turn == 0 {
			turn = s
		} else if s != turn {
			return ErrNotConvex
		}
	}
	if turn == 0 {
		return ErrDegenerate
	}
	return nil
}

func signum(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
