package world

import "github.com/pkg/errors"

// NewUnknownBodyError returns an error for a body the world does not know about.
func NewUnknownBodyError(body BodyID) error {
	return errors.Errorf("unknown body %d", body)
}

// NewUnknownLinkError returns an error for a link not found on a body.
func NewUnknownLinkError(body BodyID, link LinkID) error {
	return errors.Errorf("body %d has no link %d", body, link)
}

// NewUnknownJointError returns an error for a joint not found on a body.
func NewUnknownJointError(body BodyID, joint JointID) error {
	return errors.Errorf("body %d has no joint %d", body, joint)
}

// NewUnknownGroupError returns an error for a joint group not defined on a body.
func NewUnknownGroupError(body BodyID, group string) error {
	return errors.Errorf("body %d has no joint group %q", body, group)
}

// NewUnsupportedRefError is returned when a query receives a BodyRef kind it cannot answer.
func NewUnsupportedRefError(ref BodyRef) error {
	return errors.Errorf("unsupported body reference %T (%v)", ref, ref)
}
