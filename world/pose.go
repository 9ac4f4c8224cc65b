package world

import (
	"fmt"

	"go.viam.com/tamp/spatialmath"
)

// Pose is the pose of a body, optionally recording what supports it. Values are immutable once built.
type Pose struct {
	Body    BodyID
	Value   spatialmath.Pose
	Support BodyRef
	Index   int64
}

// NewPose builds a pose for body, taking its index from counter.
func NewPose(counter *Counter, body BodyID, value spatialmath.Pose, support BodyRef) *Pose {
	if value == nil {
		value = spatialmath.NewZeroPose()
	}
	return &Pose{Body: body, Value: value, Support: support, Index: counter.Next()}
}

// CurrentPose wraps the live pose of body.
func CurrentPose(counter *Counter, p Provider, body BodyID) (*Pose, error) {
	value, err := p.Pose(body)
	if err != nil {
		return nil, err
	}
	return NewPose(counter, body, value, nil), nil
}

// Assign pushes the pose into the world.
func (p *Pose) Assign(w Provider) error {
	return w.SetPose(p.Body, p.Value)
}

// Equal reports whether two poses place the same body at exactly the same transform.
func (p *Pose) Equal(other *Pose) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Body == other.Body && spatialmath.PoseEqual(p.Value, other.Value)
}

// Pose2D returns the planar projection of the pose.
func (p *Pose) Pose2D() spatialmath.Pose2D {
	return spatialmath.Pose2DFromPose(p.Value)
}

func (p *Pose) String() string {
	return fmt.Sprintf("p%d=%v", p.Index, p.Value)
}
