package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// NewMalformedAABBError is returned when a bounding box has a lower corner above its upper corner.
func NewMalformedAABBError(lower, upper r3.Vector) error {
	return errors.Errorf("malformed AABB: lower corner %v is not below upper corner %v", lower, upper)
}

// NewBadGeometryDimensionsError is returned when a box is given negative dimensions.
func NewBadGeometryDimensionsError(dims r3.Vector) error {
	return errors.Errorf("invalid dimension(s) %v for box, dimensions must be non-negative", dims)
}
