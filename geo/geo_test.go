package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistSq(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}
	assert.Equal(t, 25.0, DistSq(a, b))
	assert.Equal(t, 5.0, Dist(a, b))
}

func TestSegmentIntersectsRect(t *testing.T) {
	r := Rectangle{TopLeft: Point{1500, 500}, BottomRight: Point{2500, 1500}}
	ob := Obstacle{Rect: &r}

	// segment crossing straight through the rectangle
	assert.True(t, ob.IntersectsSegment(Point{1000, 1000}, Point{3000, 1000}))
	// segment entirely above the rectangle
	assert.False(t, ob.IntersectsSegment(Point{1000, 0}, Point{3000, 0}))
}

func TestSegmentIntersectsCircle(t *testing.T) {
	c := Circle{Center: Point{1000, 1000}, Radius: 100}
	ob := Obstacle{Circ: &c}

	assert.True(t, ob.IntersectsSegment(Point{0, 1000}, Point{2000, 1000}))
	assert.False(t, ob.IntersectsSegment(Point{0, 2000}, Point{2000, 2000}))

	// degenerate (zero-length) segment at the circle's center
	assert.True(t, ob.IntersectsSegment(Point{1000, 1000}, Point{1000, 1000}))
}
