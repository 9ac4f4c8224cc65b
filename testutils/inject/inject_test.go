package inject

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/tamp/joint"
	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/referenceframe"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/wconf"
	"go.viam.com/tamp/world"
	"go.viam.com/tamp/world/fake"
)

func newDrawerWorld(t *testing.T) (*fake.World, world.BodyJoint, world.BodyID) {
	t.Helper()
	w := fake.NewWorld(logging.NewTestLogger(t))
	cab := w.AddBody("cabinet", nil)
	drawer, err := w.AddLink(cab, fake.LinkSpec{
		Name: "drawer", Parent: world.BaseLink,
		Joint:  &fake.JointSpec{Name: "drawer", Type: world.Prismatic, Axis: r3.Vector{X: 1}, Limit: referenceframe.Limit{Min: 0, Max: 0.4}},
		Shapes: []fake.Shape{fake.Box(r3.Vector{}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1})},
	})
	test.That(t, err, test.ShouldBeNil)
	cup := w.AddBody("cup", spatialmath.NewPoseFromPoint(r3.Vector{X: 5}), fake.Box(r3.Vector{}, r3.Vector{X: 0.05, Y: 0.05, Z: 0.05}))
	return w, world.BodyJoint{ID: cab, Joint: world.JointID(drawer)}, cup
}

func TestWorldPassthrough(t *testing.T) {
	w, drawer, cup := newDrawerWorld(t)
	injected := &World{World: w}

	value, err := injected.JointPosition(drawer)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldEqual, 0.0)
	hit, err := injected.Collides(cup, drawer.ID, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)

	injected.CollidesFunc = func(a, b world.BodyRef, maxDistance float64) (bool, error) {
		return true, nil
	}
	injected.JointPositionFunc = func(ref world.BodyJoint) (float64, error) {
		return 0.25, nil
	}
	hit, err = injected.Collides(cup, drawer.ID, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
	value, err = injected.JointPosition(drawer)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldEqual, 0.25)

	var moved []world.BodyID
	injected.SetPoseFunc = func(id world.BodyID, pose spatialmath.Pose) error {
		moved = append(moved, id)
		return w.SetPose(id, pose)
	}
	test.That(t, injected.SetPose(cup, spatialmath.NewZeroPose()), test.ShouldBeNil)
	test.That(t, moved, test.ShouldResemble, []world.BodyID{cup})
}

func TestReachabilityOracle(t *testing.T) {
	w, drawer, cup := newDrawerWorld(t)
	counter := world.NewCounter()
	factory := joint.NewFactory(w, counter, nil)
	goal := wconf.ReachGoal{
		Object: cup,
		Pose:   world.NewPose(counter, cup, spatialmath.NewPoseFromPoint(r3.Vector{Z: 1}), nil),
	}
	current := wconf.New(counter, nil, nil)
	logger := logging.NewTestLogger(t)

	var seen []float64
	oracle := &ReachabilityOracle{
		TestReachableFunc: func(ctx context.Context, g wconf.ReachGoal, wc *wconf.WConf) (bool, error) {
			pos, ok := wc.Position(drawer)
			test.That(t, ok, test.ShouldBeTrue)
			seen = append(seen, pos.Value)
			return true, nil
		},
	}
	alts, err := wconf.SampleAlternateWorld(context.Background(), w, factory, current, goal, oracle, wconf.AlternateOptions{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alts, test.ShouldHaveLength, 1)
	test.That(t, seen, test.ShouldResemble, []float64{0.4})

	oracle.TestReachableFunc = func(context.Context, wconf.ReachGoal, *wconf.WConf) (bool, error) {
		return false, errors.New("planner crashed")
	}
	_, err = wconf.SampleAlternateWorld(context.Background(), w, factory, current, goal, oracle, wconf.AlternateOptions{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "planner crashed")
	value, err := w.JointPosition(drawer)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldEqual, 0.0)
}
