package world

import (
	"github.com/golang/geo/r3"

	"go.viam.com/tamp/referenceframe"
	"go.viam.com/tamp/spatialmath"
)

// JointType is the kinematic type of a joint.
type JointType string

// The joint types the world understands.
const (
	Revolute  JointType = "revolute"
	Prismatic JointType = "prismatic"
	Fixed     JointType = "fixed"
)

// JointInfo describes a joint: its name, type and limits.
type JointInfo struct {
	Name  string
	Type  JointType
	Limit referenceframe.Limit
}

// Provider exposes the geometry and kinematic state of the live world.
type Provider interface {
	Bodies() []BodyID
	Name(body BodyID) (string, error)

	Pose(body BodyID) (spatialmath.Pose, error)
	SetPose(body BodyID, pose spatialmath.Pose) error
	LinkPose(body BodyID, link LinkID) (spatialmath.Pose, error)

	// AABB returns the world aligned bounding box of a body, a link, or the links moved by a joint.
	AABB(ref BodyRef) (spatialmath.AABB, error)

	Joints(body BodyID) ([]JointID, error)
	Joint(ref BodyJoint) (JointInfo, error)
	JointPosition(ref BodyJoint) (float64, error)
	// SetJointPosition does not enforce limits.
	SetJointPosition(ref BodyJoint, value float64) error
	// HandleLink returns the link to grab when articulating the joint.
	HandleLink(ref BodyJoint) (LinkID, error)
	// LinkSubtree returns link and every link below it.
	LinkSubtree(body BodyID, link LinkID) ([]LinkID, error)

	Groups(body BodyID) ([]string, error)
	GroupPositions(body BodyID, group string) ([]referenceframe.Input, error)
	SetGroupPositions(body BodyID, group string, inputs []referenceframe.Input) error
}

// Contact is a closest-point record between two bodies. A negative distance is a penetration depth.
type Contact struct {
	PointA   r3.Vector
	PointB   r3.Vector
	Distance float64
}

// CollisionOracle answers pairwise proximity queries.
type CollisionOracle interface {
	// Collides reports whether a and b are within maxDistance of each other. Touching counts.
	Collides(a, b BodyRef, maxDistance float64) (bool, error)
	// ClosestPoints returns contact records for every geometry pair within maxDistance.
	ClosestPoints(a, b BodyRef, maxDistance float64) ([]Contact, error)
}

// World is everything the planning core needs from the simulator.
type World interface {
	Provider
	CollisionOracle
}

// MinDistance returns the smallest distance among contacts, and false when there are none.
func MinDistance(contacts []Contact) (float64, bool) {
	if len(contacts) == 0 {
		return 0, false
	}
	minDist := contacts[0].Distance
	for _, c := range contacts[1:] {
		if c.Distance < minDist {
			minDist = c.Distance
		}
	}
	return minDist, true
}

// HandlePose returns the world pose of the link used to articulate a joint.
func HandlePose(p Provider, ref BodyJoint) (spatialmath.Pose, error) {
	link, err := p.HandleLink(ref)
	if err != nil {
		return nil, err
	}
	return p.LinkPose(ref.ID, link)
}
