package spatialmath

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// AABBContainsAABB reports whether contained lies fully inside container in 3D.
func AABBContainsAABB(contained, container AABB) bool {
	return container.Contains(contained)
}

// AABBContainsAABB2D reports whether the planar footprint of contained lies inside that of container.
func AABBContainsAABB2D(contained, container AABB) bool {
	return container.To2D().Contains(contained.To2D())
}

// IsOn reports whether an object's footprint rests within a region's footprint.
func IsOn(objAABB, regionAABB AABB) bool {
	return AABBContainsAABB2D(objAABB, regionAABB)
}

// IsAbove reports whether the planar projection of point lies within the footprint of aabb.
func IsAbove(point r3.Vector, aabb AABB) bool {
	return aabb.To2D().ContainsPoint(r2.Point{X: point.X, Y: point.Y})
}

// AABBOverlap reports whether two boxes intersect.
func AABBOverlap(a, b AABB) bool {
	return a.Overlaps(b)
}

// PointDistance returns the euclidean distance between two points.
func PointDistance(a, b r3.Vector) float64 {
	return a.Distance(b)
}
