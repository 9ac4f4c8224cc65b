// Package fake implements an in-memory kinematic world of boxes, links and joints. It stands in
// for the physics engine in tests and in the command line tool.
package fake

import (
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/referenceframe"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// Shape is a box rigidly attached to a link.
type Shape struct {
	Offset   spatialmath.Pose
	HalfSize r3.Vector
}

// Box returns a shape centered at center with the given half size.
func Box(center, halfSize r3.Vector) Shape {
	return Shape{Offset: spatialmath.NewPoseFromPoint(center), HalfSize: halfSize}
}

// JointSpec describes the joint moving a link relative to its parent.
type JointSpec struct {
	Name  string
	Type  world.JointType
	Axis  r3.Vector
	Limit referenceframe.Limit
	Value float64
}

// LinkSpec describes a link of a body.
type LinkSpec struct {
	Name   string
	Parent world.LinkID
	Origin spatialmath.Pose
	Joint  *JointSpec
	Shapes []Shape
}

type link struct {
	spec  LinkSpec
	value float64
}

type group struct {
	name   string
	joints []world.JointID
}

type body struct {
	name   string
	pose   spatialmath.Pose
	shapes []Shape
	links  []*link
	groups []group
}

// World is an in-memory world.World. It is not safe for concurrent use.
type World struct {
	bodies []*body
	logger logging.Logger
}

var _ world.World = (*World)(nil)

// NewWorld returns an empty world.
func NewWorld(logger logging.Logger) *World {
	return &World{logger: logger}
}

// AddBody adds a body with shapes on its base link and returns its id.
func (w *World) AddBody(name string, pose spatialmath.Pose, shapes ...Shape) world.BodyID {
	if pose == nil {
		pose = spatialmath.NewZeroPose()
	}
	w.bodies = append(w.bodies, &body{name: name, pose: pose, shapes: shapes})
	id := world.BodyID(len(w.bodies) - 1)
	w.logger.Debugw("added body", "name", name, "id", id)
	return id
}

// AddLink adds a link to a body. Its joint, if any, gets the same index.
func (w *World) AddLink(id world.BodyID, spec LinkSpec) (world.LinkID, error) {
	b, err := w.body(id)
	if err != nil {
		return 0, err
	}
	if spec.Parent != world.BaseLink && (spec.Parent < 0 || int(spec.Parent) >= len(b.links)) {
		return 0, world.NewUnknownLinkError(id, spec.Parent)
	}
	if spec.Origin == nil {
		spec.Origin = spatialmath.NewZeroPose()
	}
	l := &link{spec: spec}
	if spec.Joint != nil {
		l.value = spec.Joint.Value
	}
	b.links = append(b.links, l)
	return world.LinkID(len(b.links) - 1), nil
}

// AddGroup names an ordered set of joints of a body.
func (w *World) AddGroup(id world.BodyID, name string, joints ...world.JointID) error {
	b, err := w.body(id)
	if err != nil {
		return err
	}
	for _, j := range joints {
		if _, err := b.joint(id, j); err != nil {
			return err
		}
	}
	b.groups = append(b.groups, group{name: name, joints: joints})
	return nil
}

// BodyByName looks up a body.
func (w *World) BodyByName(name string) (world.BodyID, bool) {
	for i, b := range w.bodies {
		if b.name == name {
			return world.BodyID(i), true
		}
	}
	return 0, false
}

// LinkByName looks up a link of a body.
func (w *World) LinkByName(id world.BodyID, name string) (world.LinkID, bool) {
	b, err := w.body(id)
	if err != nil {
		return 0, false
	}
	for i, l := range b.links {
		if l.spec.Name == name {
			return world.LinkID(i), true
		}
	}
	return 0, false
}

// JointByName looks up a joint of a body.
func (w *World) JointByName(id world.BodyID, name string) (world.JointID, bool) {
	b, err := w.body(id)
	if err != nil {
		return 0, false
	}
	for i, l := range b.links {
		if l.spec.Joint != nil && l.spec.Joint.Name == name {
			return world.JointID(i), true
		}
	}
	return 0, false
}

// Bodies returns every body id.
func (w *World) Bodies() []world.BodyID {
	ids := make([]world.BodyID, len(w.bodies))
	for i := range w.bodies {
		ids[i] = world.BodyID(i)
	}
	return ids
}

// Name returns the name of a body.
func (w *World) Name(id world.BodyID) (string, error) {
	b, err := w.body(id)
	if err != nil {
		return "", err
	}
	return b.name, nil
}

// Pose returns the pose of a body's base.
func (w *World) Pose(id world.BodyID) (spatialmath.Pose, error) {
	b, err := w.body(id)
	if err != nil {
		return nil, err
	}
	return b.pose, nil
}

// SetPose moves a body.
func (w *World) SetPose(id world.BodyID, pose spatialmath.Pose) error {
	b, err := w.body(id)
	if err != nil {
		return err
	}
	b.pose = pose
	return nil
}

// LinkPose returns the world pose of a link.
func (w *World) LinkPose(id world.BodyID, l world.LinkID) (spatialmath.Pose, error) {
	b, err := w.body(id)
	if err != nil {
		return nil, err
	}
	return b.linkPose(id, l)
}

// AABB returns the bounding box of a body, link, or the links moved by a joint.
func (w *World) AABB(ref world.BodyRef) (spatialmath.AABB, error) {
	boxes, origin, err := w.worldBoxes(ref)
	if err != nil {
		return spatialmath.AABB{}, err
	}
	if len(boxes) == 0 {
		return spatialmath.AABBFromPoints(origin), nil
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out, nil
}

// Joints returns the ids of every movable or fixed joint of a body.
func (w *World) Joints(id world.BodyID) ([]world.JointID, error) {
	b, err := w.body(id)
	if err != nil {
		return nil, err
	}
	var joints []world.JointID
	for i, l := range b.links {
		if l.spec.Joint != nil {
			joints = append(joints, world.JointID(i))
		}
	}
	return joints, nil
}

// Joint returns a joint's description.
func (w *World) Joint(ref world.BodyJoint) (world.JointInfo, error) {
	b, err := w.body(ref.ID)
	if err != nil {
		return world.JointInfo{}, err
	}
	l, err := b.joint(ref.ID, ref.Joint)
	if err != nil {
		return world.JointInfo{}, err
	}
	return world.JointInfo{Name: l.spec.Joint.Name, Type: l.spec.Joint.Type, Limit: l.spec.Joint.Limit}, nil
}

// JointPosition returns a joint's current value.
func (w *World) JointPosition(ref world.BodyJoint) (float64, error) {
	b, err := w.body(ref.ID)
	if err != nil {
		return 0, err
	}
	l, err := b.joint(ref.ID, ref.Joint)
	if err != nil {
		return 0, err
	}
	return l.value, nil
}

// SetJointPosition sets a joint's value without checking limits.
func (w *World) SetJointPosition(ref world.BodyJoint, value float64) error {
	b, err := w.body(ref.ID)
	if err != nil {
		return err
	}
	l, err := b.joint(ref.ID, ref.Joint)
	if err != nil {
		return err
	}
	l.value = value
	return nil
}

// HandleLink returns the first link below the joint whose name mentions "handle", or the joint's
// own link when there is none.
func (w *World) HandleLink(ref world.BodyJoint) (world.LinkID, error) {
	b, err := w.body(ref.ID)
	if err != nil {
		return 0, err
	}
	if _, err := b.joint(ref.ID, ref.Joint); err != nil {
		return 0, err
	}
	for _, l := range b.subtree(ref.ChildLink()) {
		if strings.Contains(b.links[l].spec.Name, "handle") {
			return l, nil
		}
	}
	return ref.ChildLink(), nil
}

// LinkSubtree returns link and every link descending from it.
func (w *World) LinkSubtree(id world.BodyID, l world.LinkID) ([]world.LinkID, error) {
	b, err := w.body(id)
	if err != nil {
		return nil, err
	}
	if l != world.BaseLink && (l < 0 || int(l) >= len(b.links)) {
		return nil, world.NewUnknownLinkError(id, l)
	}
	return b.subtree(l), nil
}

// Groups returns the joint group names of a body in registration order.
func (w *World) Groups(id world.BodyID) ([]string, error) {
	b, err := w.body(id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(b.groups))
	for _, g := range b.groups {
		names = append(names, g.name)
	}
	return names, nil
}

// GroupPositions returns the values of a group's joints.
func (w *World) GroupPositions(id world.BodyID, name string) ([]referenceframe.Input, error) {
	b, err := w.body(id)
	if err != nil {
		return nil, err
	}
	g, err := b.group(id, name)
	if err != nil {
		return nil, err
	}
	inputs := make([]referenceframe.Input, 0, len(g.joints))
	for _, j := range g.joints {
		inputs = append(inputs, referenceframe.Input{Value: b.links[j].value})
	}
	return inputs, nil
}

// SetGroupPositions sets the values of a group's joints.
func (w *World) SetGroupPositions(id world.BodyID, name string, inputs []referenceframe.Input) error {
	b, err := w.body(id)
	if err != nil {
		return err
	}
	g, err := b.group(id, name)
	if err != nil {
		return err
	}
	if len(inputs) != len(g.joints) {
		return referenceframe.NewIncorrectDoFError(len(inputs), len(g.joints))
	}
	for i, j := range g.joints {
		b.links[j].value = inputs[i].Value
	}
	return nil
}

// Collides reports whether any pair of boxes of a and b lies within maxDistance.
func (w *World) Collides(a, b world.BodyRef, maxDistance float64) (bool, error) {
	contacts, err := w.ClosestPoints(a, b, maxDistance)
	if err != nil {
		return false, err
	}
	return len(contacts) > 0, nil
}

// ClosestPoints returns a contact for every pair of boxes of a and b within maxDistance.
func (w *World) ClosestPoints(a, b world.BodyRef, maxDistance float64) ([]world.Contact, error) {
	boxesA, _, err := w.worldBoxes(a)
	if err != nil {
		return nil, err
	}
	boxesB, _, err := w.worldBoxes(b)
	if err != nil {
		return nil, err
	}
	var contacts []world.Contact
	for _, ba := range boxesA {
		for _, bb := range boxesB {
			d := ba.SignedDistance(bb)
			if d > maxDistance {
				continue
			}
			pa := clamp(bb.Center(), ba)
			contacts = append(contacts, world.Contact{PointA: pa, PointB: clamp(pa, bb), Distance: d})
		}
	}
	return contacts, nil
}

// worldBoxes returns the world aligned boxes of every shape referenced, plus the reference's origin.
func (w *World) worldBoxes(ref world.BodyRef) ([]spatialmath.AABB, r3.Vector, error) {
	b, err := w.body(ref.Body())
	if err != nil {
		return nil, r3.Vector{}, err
	}
	var links []world.LinkID
	var root world.LinkID
	switch r := ref.(type) {
	case world.BodyID:
		root = world.BaseLink
		links = b.subtree(world.BaseLink)
	case world.BodyLink:
		if r.Link != world.BaseLink && (r.Link < 0 || int(r.Link) >= len(b.links)) {
			return nil, r3.Vector{}, world.NewUnknownLinkError(r.ID, r.Link)
		}
		root = r.Link
		links = []world.LinkID{r.Link}
	case world.BodyJoint:
		if _, err := b.joint(r.ID, r.Joint); err != nil {
			return nil, r3.Vector{}, err
		}
		root = r.ChildLink()
		links = b.subtree(root)
	default:
		return nil, r3.Vector{}, world.NewUnsupportedRefError(ref)
	}

	rootPose, err := b.linkPose(ref.Body(), root)
	if err != nil {
		return nil, r3.Vector{}, err
	}
	var boxes []spatialmath.AABB
	for _, l := range links {
		lp, err := b.linkPose(ref.Body(), l)
		if err != nil {
			return nil, r3.Vector{}, err
		}
		for _, s := range b.linkShapes(l) {
			box, err := spatialmath.BoxAABB(spatialmath.Compose(lp, s.Offset), s.HalfSize)
			if err != nil {
				return nil, r3.Vector{}, errors.Wrapf(err, "body %q", b.name)
			}
			boxes = append(boxes, box)
		}
	}
	return boxes, rootPose.Point(), nil
}

func (w *World) body(id world.BodyID) (*body, error) {
	if id < 0 || int(id) >= len(w.bodies) {
		return nil, world.NewUnknownBodyError(id)
	}
	return w.bodies[id], nil
}

func (b *body) joint(id world.BodyID, j world.JointID) (*link, error) {
	if j < 0 || int(j) >= len(b.links) || b.links[j].spec.Joint == nil {
		return nil, world.NewUnknownJointError(id, j)
	}
	return b.links[j], nil
}

func (b *body) group(id world.BodyID, name string) (group, error) {
	for _, g := range b.groups {
		if g.name == name {
			return g, nil
		}
	}
	return group{}, world.NewUnknownGroupError(id, name)
}

func (b *body) linkShapes(l world.LinkID) []Shape {
	if l == world.BaseLink {
		return b.shapes
	}
	return b.links[l].spec.Shapes
}

// subtree lists root and its descendants. Links always come after their parent.
func (b *body) subtree(root world.LinkID) []world.LinkID {
	out := []world.LinkID{root}
	in := map[world.LinkID]bool{root: true}
	for i, l := range b.links {
		if in[l.spec.Parent] && world.LinkID(i) != root {
			in[world.LinkID(i)] = true
			out = append(out, world.LinkID(i))
		}
	}
	return out
}

func (b *body) linkPose(id world.BodyID, l world.LinkID) (spatialmath.Pose, error) {
	if l == world.BaseLink {
		return b.pose, nil
	}
	if l < 0 || int(l) >= len(b.links) {
		return nil, world.NewUnknownLinkError(id, l)
	}
	lk := b.links[l]
	parent, err := b.linkPose(id, lk.spec.Parent)
	if err != nil {
		return nil, err
	}
	return spatialmath.Compose(spatialmath.Compose(parent, lk.spec.Origin), lk.motion()), nil
}

// motion is the transform contributed by the link's joint at its current value.
func (l *link) motion() spatialmath.Pose {
	j := l.spec.Joint
	if j == nil {
		return spatialmath.NewZeroPose()
	}
	switch j.Type {
	case world.Revolute:
		return spatialmath.NewPose(r3.Vector{}, spatialmath.NewR4AAFromAxis(j.Axis, l.value))
	case world.Prismatic:
		axis := j.Axis
		if axis.Norm() == 0 {
			axis = r3.Vector{X: 1}
		}
		return spatialmath.NewPoseFromPoint(axis.Normalize().Mul(l.value))
	default:
		return spatialmath.NewZeroPose()
	}
}

func clamp(p r3.Vector, box spatialmath.AABB) r3.Vector {
	return r3.Vector{
		X: math.Max(box.Lower.X, math.Min(p.X, box.Upper.X)),
		Y: math.Max(box.Lower.Y, math.Min(p.Y, box.Upper.Y)),
		Z: math.Max(box.Lower.Z, math.Min(p.Z, box.Upper.Z)),
	}
}
