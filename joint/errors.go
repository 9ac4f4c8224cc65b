package joint

import (
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/tamp/referenceframe"
)

// NewOutOfRangeError is returned when a requested joint value lies outside the joint limits.
func NewOutOfRangeError(name string, value float64, limit referenceframe.Limit) error {
	return referenceframe.NewOutOfBoundsError(name, value, limit)
}

// NewBadExtentError is returned when an opening fraction is outside [0, 1].
func NewBadExtentError(extent float64) error {
	return errors.Errorf("opening extent %v must be within [0, 1]", extent)
}

// IsOutOfRangeError reports whether err came from NewOutOfRangeError.
func IsOutOfRangeError(err error) bool {
	return err != nil && strings.Contains(err.Error(), referenceframe.OOBErrString)
}
