package attachment

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// Request describes an attachment to make. A zero MaxDistance attaches unconditionally.
type Request struct {
	Parent      world.BodyID
	ParentLink  world.LinkID
	Child       world.BodyRef
	ChildLink   world.LinkID
	Kind        Kind
	MaxDistance float64
}

// NewTooFarError describes a refused attachment.
func NewTooFarError(child world.BodyRef, distance, maxDistance float64) error {
	return errors.Errorf("%v is %v from its parent, must be below %v to attach", child, distance, maxDistance)
}

// Attach makes the requested attachment and returns the updated set. When the child lies
// MaxDistance or more from the parent link, or farther than the oracle looks, the set is returned
// unchanged with a nil attachment. Errors are reserved for failed world queries.
func Attach(w world.World, s Set, req Request, logger logging.Logger) (Set, *Attachment, error) {
	childRef, childPose, err := childFrame(w, req)
	if err != nil {
		return s, nil, err
	}
	parentRef := world.BodyLink{ID: req.Parent, Link: req.ParentLink}

	if req.MaxDistance > 0 {
		contacts, err := w.ClosestPoints(parentRef, childRef, req.MaxDistance)
		if err != nil {
			return s, nil, err
		}
		dist, ok := world.MinDistance(contacts)
		if !ok || dist >= req.MaxDistance {
			logger.Debugw("too far to attach", "parent", parentRef, "child", req.Child,
				"distance", dist, "found", ok, "max_distance", req.MaxDistance)
			return s, nil, nil
		}
	}

	parentPose, err := w.LinkPose(req.Parent, req.ParentLink)
	if err != nil {
		return s, nil, err
	}
	a := &Attachment{
		Parent:     req.Parent,
		ParentLink: req.ParentLink,
		Grasp:      spatialmath.PoseBetween(parentPose, childPose),
		Child:      req.Child,
		ChildLink:  req.ChildLink,
		Kind:       req.Kind,
	}
	if _, ok := req.Child.(world.BodyJoint); ok {
		a.Kind = KindJoint
		a.Memo = NewJointMemo()
		if err := a.Remember(w); err != nil {
			return s, nil, err
		}
	}
	logger.Debugw("attached", "attachment", a)
	return s.With(a), a, nil
}

// childFrame returns what the distance is measured to and the pose the grasp is relative to:
// the handle link for joints, the body otherwise.
func childFrame(w world.Provider, req Request) (world.BodyRef, spatialmath.Pose, error) {
	switch child := req.Child.(type) {
	case world.BodyJoint:
		handle, err := w.HandleLink(child)
		if err != nil {
			return nil, nil, err
		}
		pose, err := w.LinkPose(child.ID, handle)
		if err != nil {
			return nil, nil, err
		}
		return world.BodyLink{ID: child.ID, Link: handle}, pose, nil
	case world.BodyID:
		pose, err := w.Pose(child)
		if err != nil {
			return nil, nil, err
		}
		if req.ChildLink != world.BaseLink {
			return world.BodyLink{ID: child, Link: req.ChildLink}, pose, nil
		}
		return child, pose, nil
	default:
		return nil, nil, world.NewUnsupportedRefError(req.Child)
	}
}

// Detach removes child's attachment. It is a no-op when child is not attached.
func Detach(s Set, child world.BodyRef) Set {
	return s.Without(child)
}

// AssignAll assigns every attachment, parents before children, and reports every failure.
func AssignAll(w world.Provider, s Set) error {
	var errs error
	for _, a := range s.All() {
		errs = multierr.Append(errs, errors.Wrapf(a.Assign(w), "assigning %v", a))
	}
	return errs
}
