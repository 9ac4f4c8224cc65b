package fake

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.viam.com/test"

	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/referenceframe"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

func newCabinet(t *testing.T) (*World, world.BodyID, world.BodyJoint, world.BodyJoint) {
	t.Helper()
	w := NewWorld(logging.NewTestLogger(t))
	cab := w.AddBody("cabinet", spatialmath.NewPoseFromPoint(r3.Vector{X: 1}),
		Box(r3.Vector{Z: 0.5}, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}))
	drawer, err := w.AddLink(cab, LinkSpec{
		Name:   "drawer",
		Parent: world.BaseLink,
		Origin: spatialmath.NewPoseFromPoint(r3.Vector{X: -0.5, Z: 0.5}),
		Joint: &JointSpec{
			Name: "drawer_joint", Type: world.Prismatic, Axis: r3.Vector{X: -1},
			Limit: referenceframe.Limit{Min: 0, Max: 0.4},
		},
		Shapes: []Shape{Box(r3.Vector{}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1})},
	})
	test.That(t, err, test.ShouldBeNil)
	_, err = w.AddLink(cab, LinkSpec{
		Name:   "drawer_handle",
		Parent: drawer,
		Origin: spatialmath.NewPoseFromPoint(r3.Vector{X: -0.15}),
		Shapes: []Shape{Box(r3.Vector{}, r3.Vector{X: 0.01, Y: 0.05, Z: 0.01})},
	})
	test.That(t, err, test.ShouldBeNil)
	door, err := w.AddLink(cab, LinkSpec{
		Name:   "door",
		Parent: world.BaseLink,
		Origin: spatialmath.NewPoseFromPoint(r3.Vector{X: -0.5, Y: -0.5}),
		Joint: &JointSpec{
			Name: "door_joint", Type: world.Revolute, Axis: r3.Vector{Z: 1},
			Limit: referenceframe.Limit{Min: 0, Max: math.Pi / 2},
		},
		Shapes: []Shape{Box(r3.Vector{Y: 0.5}, r3.Vector{X: 0.01, Y: 0.5, Z: 0.1})},
	})
	test.That(t, err, test.ShouldBeNil)
	return w, cab, world.BodyJoint{ID: cab, Joint: world.JointID(drawer)}, world.BodyJoint{ID: cab, Joint: world.JointID(door)}
}

func TestLinkKinematics(t *testing.T) {
	w, cab, drawer, door := newCabinet(t)

	pose, err := w.LinkPose(cab, drawer.ChildLink())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 0.5, Z: 0.5}, 1e-9), test.ShouldBeTrue)

	test.That(t, w.SetJointPosition(drawer, 0.4), test.ShouldBeNil)
	pose, err = w.LinkPose(cab, drawer.ChildLink())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 0.1, Z: 0.5}, 1e-9), test.ShouldBeTrue)

	// the handle rides along with the drawer
	handle, err := w.HandleLink(drawer)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, handle, test.ShouldEqual, world.LinkID(1))
	hp, err := world.HandlePose(w, drawer)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(hp.Point(), r3.Vector{X: -0.05, Z: 0.5}, 1e-9), test.ShouldBeTrue)

	// no handle link below the door: the door itself is the handle
	handle, err = w.HandleLink(door)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, handle, test.ShouldEqual, door.ChildLink())

	test.That(t, w.SetJointPosition(door, math.Pi/2), test.ShouldBeNil)
	box, err := w.AABB(door)
	test.That(t, err, test.ShouldBeNil)
	// the panel swung from +y to -x around the hinge at (0.5, -0.5)
	test.That(t, box.Lower.X, test.ShouldAlmostEqual, -0.5)
	test.That(t, box.Upper.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, box.Lower.Y, test.ShouldAlmostEqual, -0.51)

	subtree, err := w.LinkSubtree(cab, world.BaseLink)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, subtree, test.ShouldResemble, []world.LinkID{world.BaseLink, 0, 1, 2})
	subtree, err = w.LinkSubtree(cab, drawer.ChildLink())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, subtree, test.ShouldResemble, []world.LinkID{0, 1})

	joints, err := w.Joints(cab)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joints, test.ShouldResemble, []world.JointID{0, 2})
	_, err = w.Joint(world.BodyJoint{ID: cab, Joint: 1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCollisions(t *testing.T) {
	w := NewWorld(logging.NewTestLogger(t))
	a := w.AddBody("a", nil, Box(r3.Vector{}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}))
	b := w.AddBody("b", spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5}), Box(r3.Vector{}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}))

	collides, err := w.Collides(a, b, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, collides, test.ShouldBeFalse)
	collides, err = w.Collides(a, b, 0.31)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, collides, test.ShouldBeTrue)

	contacts, err := w.ClosestPoints(a, b, 1)
	test.That(t, err, test.ShouldBeNil)
	want := []world.Contact{{PointA: r3.Vector{X: 0.1}, PointB: r3.Vector{X: 0.4}, Distance: 0.3}}
	test.That(t, cmp.Diff(want, contacts, cmpopts.EquateApprox(0, 1e-9)), test.ShouldBeEmpty)

	test.That(t, w.SetPose(b, spatialmath.NewPoseFromPoint(r3.Vector{X: 0.15})), test.ShouldBeNil)
	collides, err = w.Collides(a, b, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, collides, test.ShouldBeTrue)

	_, err = w.Collides(a, world.BodyID(7), 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGroups(t *testing.T) {
	w := NewWorld(logging.NewTestLogger(t))
	robot := w.AddBody("robot", nil)
	for _, name := range []string{"x", "y"} {
		_, err := w.AddLink(robot, LinkSpec{
			Name: name, Parent: world.BaseLink,
			Joint: &JointSpec{Name: name, Type: world.Prismatic, Limit: referenceframe.Limit{Min: -1, Max: 1}},
		})
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, w.AddGroup(robot, "base", 0, 1), test.ShouldBeNil)
	test.That(t, w.AddGroup(robot, "bad", 5), test.ShouldNotBeNil)

	test.That(t, w.SetGroupPositions(robot, "base", referenceframe.FloatsToInputs([]float64{0.5, -0.5})), test.ShouldBeNil)
	inputs, err := w.GroupPositions(robot, "base")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, referenceframe.InputsToFloats(inputs), test.ShouldResemble, []float64{0.5, -0.5})
	test.That(t, w.SetGroupPositions(robot, "base", referenceframe.FloatsToInputs([]float64{1})), test.ShouldNotBeNil)
	_, err = w.GroupPositions(robot, "arm")
	test.That(t, err, test.ShouldNotBeNil)

	groups, err := w.Groups(robot)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, groups, test.ShouldResemble, []string{"base"})
}

func TestSceneConfig(t *testing.T) {
	cfg, err := ReadSceneFile(filepath.Join("data", "kitchen.json"))
	test.That(t, err, test.ShouldBeNil)
	w, err := NewWorldFromConfig(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	cab, ok := w.BodyByName("cabinet")
	test.That(t, ok, test.ShouldBeTrue)
	j, ok := w.JointByName(cab, "drawer_joint")
	test.That(t, ok, test.ShouldBeTrue)
	info, err := w.Joint(world.BodyJoint{ID: cab, Joint: j})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Type, test.ShouldEqual, world.Prismatic)
	test.That(t, info.Limit, test.ShouldResemble, referenceframe.Limit{Min: 0, Max: 0.4})
	handle, ok := w.LinkByName(cab, "drawer_handle")
	test.That(t, ok, test.ShouldBeTrue)
	got, err := w.HandleLink(world.BodyJoint{ID: cab, Joint: j})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, handle)

	robot, ok := w.BodyByName("pr2")
	test.That(t, ok, test.ShouldBeTrue)
	groups, err := w.Groups(robot)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, groups, test.ShouldResemble, []string{"base", "torso"})

	bad := &SceneConfig{Bodies: []BodyConfig{
		{Name: "a"},
		{Name: "a", Links: []LinkConfig{
			{Name: "l", Parent: "missing", Joint: &JointConfig{Name: "j", Type: "ball"}},
		}, Groups: []GroupConfig{{Name: "g", Joints: []string{"nope"}}}},
		{Name: "b", Shapes: []ShapeConfig{{HalfSize: VectorConfig{X: -1}}}},
	}}
	err = bad.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, msg := range []string{"duplicate body name", "must be declared before", "unknown joint type", "unknown joint \"nope\"", "dimensions"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}
}

func TestSceneFileEnv(t *testing.T) {
	t.Setenv("TAMP_TABLE_X", "2.5")
	path := filepath.Join(t.TempDir(), "scene.json")
	scene := `{"bodies": [{"name": "table", "pose": {"x": ${TAMP_TABLE_X}, "y": 0, "z": 0},
		"shapes": [{"offset": {"x": 0, "y": 0, "z": 0}, "half_size": {"x": 1, "y": 1, "z": 0}}]}]}`
	test.That(t, os.WriteFile(path, []byte(scene), 0o600), test.ShouldBeNil)

	cfg, err := ReadSceneFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Bodies, test.ShouldHaveLength, 1)
	test.That(t, cfg.Bodies[0].Pose.X, test.ShouldEqual, 2.5)

	_, err = ReadSceneFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	schema, err := json.Marshal(SceneSchema())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(schema), test.ShouldContainSubstring, "half_size")
	test.That(t, string(schema), test.ShouldContainSubstring, "joints")
}
