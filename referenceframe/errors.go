package referenceframe

import "github.com/pkg/errors"

// OOBErrString is a string that all OOB errors should contain, so that they can be checked for distinct from other errors.
const OOBErrString = "input out of bounds"

// NewIncorrectDoFError returns an error indicating that the number of inputs does not match the degrees of freedom.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewOutOfBoundsError returns an error indicating that a value lies outside a limit.
func NewOutOfBoundsError(name string, value float64, limit Limit) error {
	return errors.Errorf("%s: %s %s value %v not in limits [%v, %v]", OOBErrString, name, "joint", value, limit.Min, limit.Max)
}
