package spatialmath

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Ordered list of box vertices.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// AABB is an axis-aligned bounding box given by its (lower, upper) corners. Lower <= Upper holds
// componentwise for every box built through NewAABB.
type AABB struct {
	Lower r3.Vector `json:"lower"`
	Upper r3.Vector `json:"upper"`
}

// NewAABB builds a bounding box, failing on a malformed corner pair.
func NewAABB(lower, upper r3.Vector) (AABB, error) {
	box := AABB{Lower: lower, Upper: upper}
	if !box.Valid() {
		return AABB{}, NewMalformedAABBError(lower, upper)
	}
	return box, nil
}

// AABBFromPoints returns the tightest box around the given points.
func AABBFromPoints(pts ...r3.Vector) AABB {
	if len(pts) == 0 {
		return AABB{}
	}
	box := AABB{Lower: pts[0], Upper: pts[0]}
	for _, pt := range pts[1:] {
		box = box.AddPoint(pt)
	}
	return box
}

// BoxAABB returns the world-frame bounding box of a box with the given half size placed at pose.
func BoxAABB(p Pose, halfSize r3.Vector) (AABB, error) {
	if halfSize.X < 0 || halfSize.Y < 0 || halfSize.Z < 0 {
		return AABB{}, NewBadGeometryDimensionsError(halfSize.Mul(2))
	}
	q := p.Orientation().Quaternion()
	center := p.Point()
	pts := make([]r3.Vector, 0, len(boxVertices))
	for _, v := range boxVertices {
		corner := r3.Vector{X: v.X * halfSize.X, Y: v.Y * halfSize.Y, Z: v.Z * halfSize.Z}
		pts = append(pts, center.Add(RotatePoint(q, corner)))
	}
	return AABBFromPoints(pts...), nil
}

// Valid reports whether lower <= upper componentwise.
func (a AABB) Valid() bool {
	return a.Lower.X <= a.Upper.X && a.Lower.Y <= a.Upper.Y && a.Lower.Z <= a.Upper.Z
}

// Center returns the midpoint of the box.
func (a AABB) Center() r3.Vector {
	return a.Lower.Add(a.Upper).Mul(0.5)
}

// Extent returns upper - lower.
func (a AABB) Extent() r3.Vector {
	return a.Upper.Sub(a.Lower)
}

// AddPoint grows the box to include pt.
func (a AABB) AddPoint(pt r3.Vector) AABB {
	return AABB{
		Lower: r3.Vector{X: math.Min(a.Lower.X, pt.X), Y: math.Min(a.Lower.Y, pt.Y), Z: math.Min(a.Lower.Z, pt.Z)},
		Upper: r3.Vector{X: math.Max(a.Upper.X, pt.X), Y: math.Max(a.Upper.Y, pt.Y), Z: math.Max(a.Upper.Z, pt.Z)},
	}
}

// Union returns the smallest box containing both boxes.
func (a AABB) Union(b AABB) AABB {
	return a.AddPoint(b.Lower).AddPoint(b.Upper)
}

// Translate moves the box by v.
func (a AABB) Translate(v r3.Vector) AABB {
	return AABB{Lower: a.Lower.Add(v), Upper: a.Upper.Add(v)}
}

// Shrink moves every face inward by the matching component of by. ok is false when the result
// would be malformed, i.e. the box is too small to fit something of half size `by`.
func (a AABB) Shrink(by r3.Vector) (AABB, bool) {
	shrunk := AABB{Lower: a.Lower.Add(by), Upper: a.Upper.Sub(by)}
	return shrunk, shrunk.Valid()
}

// ContainsPoint checks if a point is inside the box, boundary included.
func (a AABB) ContainsPoint(pt r3.Vector) bool {
	return pt.X >= a.Lower.X && pt.X <= a.Upper.X &&
		pt.Y >= a.Lower.Y && pt.Y <= a.Upper.Y &&
		pt.Z >= a.Lower.Z && pt.Z <= a.Upper.Z
}

// Contains reports whether b lies fully inside a, boundary included.
func (a AABB) Contains(b AABB) bool {
	return a.ContainsPoint(b.Lower) && a.ContainsPoint(b.Upper)
}

// Overlaps checks if two boxes overlap on all three axes.
func (a AABB) Overlaps(b AABB) bool {
	return a.Upper.X >= b.Lower.X && a.Lower.X <= b.Upper.X &&
		a.Upper.Y >= b.Lower.Y && a.Lower.Y <= b.Upper.Y &&
		a.Upper.Z >= b.Lower.Z && a.Lower.Z <= b.Upper.Z
}

// SignedDistance returns the separation between two boxes. Disjoint boxes give their euclidean gap,
// touching boxes give 0, and overlapping boxes give the negated depth of the shallowest axis of
// penetration.
func (a AABB) SignedDistance(b AABB) float64 {
	gaps := [3]float64{
		math.Max(b.Lower.X-a.Upper.X, a.Lower.X-b.Upper.X),
		math.Max(b.Lower.Y-a.Upper.Y, a.Lower.Y-b.Upper.Y),
		math.Max(b.Lower.Z-a.Upper.Z, a.Lower.Z-b.Upper.Z),
	}
	outside := 0.
	penetration := math.Inf(-1)
	for _, g := range gaps {
		if g > 0 {
			outside += g * g
		}
		penetration = math.Max(penetration, g)
	}
	if outside > 0 {
		return math.Sqrt(outside)
	}
	return penetration
}

// Sample draws a point uniformly from the box.
func (a AABB) Sample(rng *rand.Rand) r3.Vector {
	ext := a.Extent()
	return r3.Vector{
		X: a.Lower.X + rng.Float64()*ext.X,
		Y: a.Lower.Y + rng.Float64()*ext.Y,
		Z: a.Lower.Z + rng.Float64()*ext.Z,
	}
}

// To2D drops the z component.
func (a AABB) To2D() AABB2D {
	return AABB2D{r2.Rect{
		X: r1.Interval{Lo: a.Lower.X, Hi: a.Upper.X},
		Y: r1.Interval{Lo: a.Lower.Y, Hi: a.Upper.Y},
	}}
}

func (a AABB) String() string {
	return fmt.Sprintf("AABB(%v, %v)", a.Lower, a.Upper)
}

// AABB2D is the planar projection of an AABB.
type AABB2D struct {
	r2.Rect
}

// NewAABB2D builds a planar box from its corners, failing on a malformed pair.
func NewAABB2D(lower, upper r2.Point) (AABB2D, error) {
	if lower.X > upper.X || lower.Y > upper.Y {
		return AABB2D{}, NewMalformedAABBError(r3.Vector{X: lower.X, Y: lower.Y}, r3.Vector{X: upper.X, Y: upper.Y})
	}
	return AABB2D{r2.Rect{X: r1.Interval{Lo: lower.X, Hi: upper.X}, Y: r1.Interval{Lo: lower.Y, Hi: upper.Y}}}, nil
}

// Contains reports whether b lies fully inside a, boundary included.
func (a AABB2D) Contains(b AABB2D) bool {
	return a.Rect.Contains(b.Rect)
}

// Overlaps reports whether the two planar boxes share any point.
func (a AABB2D) Overlaps(b AABB2D) bool {
	return a.Rect.Intersects(b.Rect)
}

// ContainsPoint reports whether the planar point lies inside the box, boundary included.
func (a AABB2D) ContainsPoint(pt r2.Point) bool {
	return a.Rect.ContainsPoint(pt)
}
