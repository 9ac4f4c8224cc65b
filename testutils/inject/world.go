// Package inject contains function-field doubles of the world and oracle interfaces for tests.
package inject

import (
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// World is an injected world.
type World struct {
	world.World
	PoseFunc             func(id world.BodyID) (spatialmath.Pose, error)
	SetPoseFunc          func(id world.BodyID, pose spatialmath.Pose) error
	AABBFunc             func(ref world.BodyRef) (spatialmath.AABB, error)
	JointPositionFunc    func(ref world.BodyJoint) (float64, error)
	SetJointPositionFunc func(ref world.BodyJoint, value float64) error
	CollidesFunc         func(a, b world.BodyRef, maxDistance float64) (bool, error)
	ClosestPointsFunc    func(a, b world.BodyRef, maxDistance float64) ([]world.Contact, error)
}

// Pose calls the injected Pose or the real version.
func (w *World) Pose(id world.BodyID) (spatialmath.Pose, error) {
	if w.PoseFunc == nil {
		return w.World.Pose(id)
	}
	return w.PoseFunc(id)
}

// SetPose calls the injected SetPose or the real version.
func (w *World) SetPose(id world.BodyID, pose spatialmath.Pose) error {
	if w.SetPoseFunc == nil {
		return w.World.SetPose(id, pose)
	}
	return w.SetPoseFunc(id, pose)
}

// AABB calls the injected AABB or the real version.
func (w *World) AABB(ref world.BodyRef) (spatialmath.AABB, error) {
	if w.AABBFunc == nil {
		return w.World.AABB(ref)
	}
	return w.AABBFunc(ref)
}

// JointPosition calls the injected JointPosition or the real version.
func (w *World) JointPosition(ref world.BodyJoint) (float64, error) {
	if w.JointPositionFunc == nil {
		return w.World.JointPosition(ref)
	}
	return w.JointPositionFunc(ref)
}

// SetJointPosition calls the injected SetJointPosition or the real version.
func (w *World) SetJointPosition(ref world.BodyJoint, value float64) error {
	if w.SetJointPositionFunc == nil {
		return w.World.SetJointPosition(ref, value)
	}
	return w.SetJointPositionFunc(ref, value)
}

// Collides calls the injected Collides or the real version.
func (w *World) Collides(a, b world.BodyRef, maxDistance float64) (bool, error) {
	if w.CollidesFunc == nil {
		return w.World.Collides(a, b, maxDistance)
	}
	return w.CollidesFunc(a, b, maxDistance)
}

// ClosestPoints calls the injected ClosestPoints or the real version.
func (w *World) ClosestPoints(a, b world.BodyRef, maxDistance float64) ([]world.Contact, error) {
	if w.ClosestPointsFunc == nil {
		return w.World.ClosestPoints(a, b, maxDistance)
	}
	return w.ClosestPointsFunc(a, b, maxDistance)
}
