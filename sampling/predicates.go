package sampling

import (
	"github.com/golang/geo/r3"

	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// InSpace assigns pose and reports whether obj then lies fully inside space.
func InSpace(w world.Provider, pose *world.Pose, space world.BodyRef) (bool, error) {
	if err := pose.Assign(w); err != nil {
		return false, err
	}
	return IsContained(w, pose.Body, space)
}

// IsContained reports whether obj's box lies inside the space's box.
func IsContained(w world.Provider, obj world.BodyID, space world.BodyRef) (bool, error) {
	objBox, spaceBox, err := boxes(w, obj, space)
	if err != nil {
		return false, err
	}
	return spatialmath.AABBContainsAABB(objBox, spaceBox), nil
}

// IsOn reports whether obj's footprint lies within the surface's footprint. Height is not checked.
func IsOn(w world.Provider, obj world.BodyID, surface world.BodyRef) (bool, error) {
	objBox, surfaceBox, err := boxes(w, obj, surface)
	if err != nil {
		return false, err
	}
	return spatialmath.IsOn(objBox, surfaceBox), nil
}

// IsAbove reports whether point projects into the footprint of ref.
func IsAbove(w world.Provider, ref world.BodyRef, point r3.Vector) (bool, error) {
	box, err := w.AABB(ref)
	if err != nil {
		return false, err
	}
	return spatialmath.IsAbove(point, box), nil
}

func boxes(w world.Provider, obj world.BodyID, region world.BodyRef) (spatialmath.AABB, spatialmath.AABB, error) {
	objBox, err := w.AABB(obj)
	if err != nil {
		return spatialmath.AABB{}, spatialmath.AABB{}, err
	}
	regionBox, err := w.AABB(region)
	if err != nil {
		return spatialmath.AABB{}, spatialmath.AABB{}, err
	}
	return objBox, regionBox, nil
}
