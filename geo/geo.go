// Package geo implements the pure, deterministic geometry and radio-physics
// functions the rest of the simulator builds on: squared-distance and
// obstacle intersection tests, log-distance path loss with shadowing,
// noise summation, LoRa airtime, and effective-range solving. Nothing in
// this package touches virtual time, queues, or node state - it is called
// from the event loop (medium) on every candidate transmitter/receiver
// pair, so the hot paths avoid sqrt and allocation where possible.
package geo

import "math"

// Point is a 2D coordinate in world units (metres, 1:1 per the scene).
type Point struct {
	X, Y float64
}

// DistSq returns the squared Euclidean distance between a and b. Used on
// the hot path (effective-range gating) to avoid a sqrt call.
func DistSq(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Sqrt(DistSq(a, b))
}

// Rectangle is an axis-aligned obstacle with TopLeft.X < BottomRight.X and
// TopLeft.Y < BottomRight.Y.
type Rectangle struct {
	TopLeft, BottomRight Point
}

// Circle is a circular obstacle with Radius > 0.
type Circle struct {
	Center Point
	Radius float64
}

// Obstacle is the tagged union of obstacle shapes a scene may contain.
// Exactly one of Rect/Circ is non-nil.
type Obstacle struct {
	Rect *Rectangle
	Circ *Circle
}

// IntersectsSegment reports whether the line segment from a to b crosses
// this obstacle. Signals are fully blocked on any intersection: there is
// no reflection or diffraction modeled.
func (o Obstacle) IntersectsSegment(a, b Point) bool {
	if o.Rect != nil {
		return segmentIntersectsRect(a, b, *o.Rect)
	}
	return segmentIntersectsCircle(a, b, *o.Circ)
}

// segmentIntersectsRect tests a segment against an axis-aligned rectangle
// using the slab method (segment-vs-AABB).
func segmentIntersectsRect(a, b Point, r Rectangle) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y

	tMin, tMax := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > tMax {
				return false
			}
			if t > tMin {
				tMin = t
			}
		} else {
			if t < tMin {
				return false
			}
			if t < tMax {
				tMax = t
			}
		}
		return true
	}

	if !clip(-dx, a.X-r.TopLeft.X) {
		return false
	}
	if !clip(dx, r.BottomRight.X-a.X) {
		return false
	}
	if !clip(-dy, a.Y-r.TopLeft.Y) {
		return false
	}
	if !clip(dy, r.BottomRight.Y-a.Y) {
		return false
	}
	return tMin <= tMax
}

// segmentIntersectsCircle tests a segment against a circle by finding the
// closest point on the segment to the circle's center and comparing it
// against the radius. Handles the degenerate (zero-length segment) case.
func segmentIntersectsCircle(a, b Point, c Circle) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy

	if lenSq == 0 {
		return DistSq(a, c.Center) <= c.Radius*c.Radius
	}

	t := ((c.Center.X-a.X)*dx + (c.Center.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return DistSq(closest, c.Center) <= c.Radius*c.Radius
}
