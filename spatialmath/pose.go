package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/tamp/utils"
)

// Pose represents a 6dof pose, position and orientation, with respect to the world frame.
// The orientation is always a unit rotation.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type pose struct {
	point r3.Vector
	q     quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &pose{q: quat.Number{Real: 1}}
}

// NewPose takes in a position and orientation and returns a Pose. The orientation is normalized;
// a nil orientation means no rotation.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &pose{point: p, q: Normalize(o.Quaternion())}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &pose{point: point, q: quat.Number{Real: 1}}
}

// NewPoseFromOrientation takes in a position and orientation and returns a Pose.
func NewPoseFromOrientation(point r3.Vector, o Orientation) Pose {
	return NewPose(point, o)
}

// NewPoseFromXYZYaw builds a pose with roll = pitch = 0.
func NewPoseFromXYZYaw(x, y, z, yaw float64) Pose {
	return NewPose(r3.Vector{X: x, Y: y, Z: z}, &EulerAngles{Yaw: yaw})
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() Orientation {
	q := quaternion(p.q)
	return &q
}

// String renders the pose as (x, y, z, yaw) rounded to 3 decimals.
func (p *pose) String() string {
	yaw := QuatToEulerAngles(p.q).Yaw
	return fmt.Sprintf("(%v, %v, %v, %v)",
		utils.RoundTo(p.point.X, 3), utils.RoundTo(p.point.Y, 3), utils.RoundTo(p.point.Z, 3), utils.RoundTo(yaw, 3))
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// Child frames are expressed by composing their parent with their relative transform:
// Compose(parentLinkPose, grasp).
func Compose(a, b Pose) Pose {
	aq := a.Orientation().Quaternion()
	return &pose{
		point: a.Point().Add(RotatePoint(aq, b.Point())),
		q:     Normalize(quat.Mul(aq, b.Orientation().Quaternion())),
	}
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B,
// PoseInverse(p) will give the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(p.Orientation().Quaternion())
	return &pose{
		point: RotatePoint(inv, p.Point()).Mul(-1),
		q:     inv,
	}
}

// PoseBetween returns the difference between two spatialmath.Pose objects:
// Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseEqual reports exact equality of position and rotation. It is the comparison used to decide
// whether a world configuration entry carries any information.
func PoseEqual(a, b Pose) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Point() == b.Point() && a.Orientation().Quaternion() == b.Orientation().Quaternion()
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), math.Max(epsilon, 1e-8))
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// Pose2D is the planar projection (x, y, yaw) of a pose, used for base motion.
type Pose2D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPoseFromPose2D lifts a planar pose to 3D at height z with roll = pitch = 0.
func NewPoseFromPose2D(p Pose2D, z float64) Pose {
	return NewPoseFromXYZYaw(p.X, p.Y, z, p.Theta)
}

// Pose2DFromPose projects a pose onto the plane, keeping x, y and yaw.
func Pose2DFromPose(p Pose) Pose2D {
	pt := p.Point()
	return Pose2D{X: pt.X, Y: pt.Y, Theta: p.Orientation().EulerAngles().Yaw}
}
