package sampling

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/testutils/inject"
	"go.viam.com/tamp/utils"
	"go.viam.com/tamp/world"
	"go.viam.com/tamp/world/fake"
)

var cubeHalf = r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}

func newSampler(t *testing.T, w world.World) *Sampler {
	t.Helper()
	s, err := NewSampler(w, world.NewCounter(), NewBasicOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return s
}

// newTable returns a world holding a flat unit table spanning (0,0,0)-(1,1,0) and a cube parked
// away from it.
func newTable(t *testing.T) (*fake.World, world.BodyID, world.BodyID) {
	t.Helper()
	w := fake.NewWorld(logging.NewTestLogger(t))
	table := w.AddBody("table", nil, fake.Box(r3.Vector{X: 0.5, Y: 0.5}, r3.Vector{X: 0.5, Y: 0.5}))
	cube := w.AddBody("cube", spatialmath.NewPoseFromPoint(r3.Vector{X: 5, Y: 5}), fake.Box(r3.Vector{}, cubeHalf))
	return w, table, cube
}

func TestSamplePlacementOnSurface(t *testing.T) {
	w, table, cube := newTable(t)
	obstacle := w.AddBody("block", nil, fake.Box(r3.Vector{X: 0.5, Y: 0.5, Z: 0.1}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}))
	s := newSampler(t, w)
	obstacles := []world.BodyRef{obstacle, table, cube}

	pose, ok, err := s.SamplePlacementOnSurface(cube, table, obstacles, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pose.Body, test.ShouldEqual, cube)
	test.That(t, pose.Support, test.ShouldEqual, world.BodyRef(table))

	// the cube is left at the sample
	current, err := w.Pose(cube)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseEqual(current, pose.Value), test.ShouldBeTrue)

	on, err := IsOn(w, cube, table)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, on, test.ShouldBeTrue)
	hit, err := w.Collides(cube, obstacle, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)

	box, err := w.AABB(cube)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.Lower.Z, test.ShouldAlmostEqual, s.Options().PlacementEpsilon)

	t.Run("no room", func(t *testing.T) {
		wall := w.AddBody("wall", nil, fake.Box(r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vector{X: 1, Y: 1, Z: 1}))
		before, err := w.Pose(cube)
		test.That(t, err, test.ShouldBeNil)

		pose, ok, err := s.SamplePlacementOnSurface(cube, table, []world.BodyRef{wall}, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, pose, test.ShouldBeNil)

		after, err := w.Pose(cube)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.PoseEqual(before, after), test.ShouldBeTrue)

		_, err = AsError(pose, ok, err)
		test.That(t, err, test.ShouldEqual, ErrNoFeasibleSample)
	})

	t.Run("object too large", func(t *testing.T) {
		big := w.AddBody("big", nil, fake.Box(r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 0.1}))
		_, ok, err := s.SamplePlacementOnSurface(big, table, nil, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
	})
}

func TestPlacementOnLinkChecksSiblingLinks(t *testing.T) {
	w := fake.NewWorld(logging.NewTestLogger(t))
	cab := w.AddBody("cabinet", nil)
	shelf, err := w.AddLink(cab, fake.LinkSpec{
		Name: "shelf", Parent: world.BaseLink,
		Shapes: []fake.Shape{fake.Box(r3.Vector{Z: 0.5}, r3.Vector{X: 0.5, Y: 0.5, Z: 0.01})},
	})
	test.That(t, err, test.ShouldBeNil)
	// a board just above the shelf leaves no headroom anywhere
	board, err := w.AddLink(cab, fake.LinkSpec{
		Name: "board", Parent: world.BaseLink,
		Shapes: []fake.Shape{fake.Box(r3.Vector{Z: 0.65}, r3.Vector{X: 0.5, Y: 0.5, Z: 0.05})},
	})
	test.That(t, err, test.ShouldBeNil)
	cube := w.AddBody("cube", spatialmath.NewPoseFromPoint(r3.Vector{X: 5, Y: 5}), fake.Box(r3.Vector{}, cubeHalf))
	s := newSampler(t, w)
	onShelf := world.BodyLink{ID: cab, Link: shelf}

	_, ok, err := s.SamplePlacementOnSurface(cube, onShelf, []world.BodyRef{world.BodyLink{ID: cab, Link: board}}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	_, ok, err = s.SamplePlacementOnSurface(cube, onShelf, []world.BodyRef{cab}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	// the shelf itself is never an obstacle
	pose, ok, err := s.SamplePlacementOnSurface(cube, onShelf, []world.BodyRef{onShelf}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	hit, err := w.Collides(cube, world.BodyLink{ID: cab, Link: board}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
	test.That(t, pose.Support, test.ShouldResemble, world.BodyRef(onShelf))
}

func TestSampleKPlacements(t *testing.T) {
	w, table, cube := newTable(t)
	s := newSampler(t, w)
	start, err := w.Pose(cube)
	test.That(t, err, test.ShouldBeNil)

	poses, err := s.SampleKPlacements(cube, []world.BodyRef{table}, nil, 4, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, poses, test.ShouldHaveLength, 4)
	seen := map[int64]bool{}
	for _, p := range poses {
		test.That(t, seen[p.Index], test.ShouldBeFalse)
		seen[p.Index] = true
		in, err := InSpace(w, p, table)
		test.That(t, err, test.ShouldBeNil)
		// a flat table has no volume to be inside of
		test.That(t, in, test.ShouldBeFalse)
		on, err := IsOn(w, cube, table)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, on, test.ShouldBeTrue)
	}

	t.Run("restores", func(t *testing.T) {
		test.That(t, w.SetPose(cube, start), test.ShouldBeNil)
		_, err := s.SamplePlacements(cube, []world.BodyRef{table}, nil)
		test.That(t, err, test.ShouldBeNil)
		after, err := w.Pose(cube)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.PoseEqual(start, after), test.ShouldBeTrue)
	})

	t.Run("empty", func(t *testing.T) {
		poses, err := s.SampleKPlacements(cube, nil, nil, 3, 10)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, poses, test.ShouldBeEmpty)

		wall := w.AddBody("wall", nil, fake.Box(r3.Vector{X: 0.5, Y: 0.5}, r3.Vector{X: 1, Y: 1, Z: 1}))
		poses, err = s.SampleKPlacements(cube, []world.BodyRef{table}, []world.BodyRef{wall}, 3, 10)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, poses, test.ShouldBeEmpty)
	})
}

func TestOverridesAndCorrections(t *testing.T) {
	w := fake.NewWorld(logging.NewTestLogger(t))
	braiser := w.AddBody("braiser_bottom", nil, fake.Box(r3.Vector{X: 0.5, Y: 0.5}, r3.Vector{X: 0.3, Y: 0.3, Z: 0.02}))
	egg := w.AddBody("eggblock", nil, fake.Box(r3.Vector{}, r3.Vector{X: 0.02, Y: 0.02, Z: 0.02}))
	plate := w.AddBody("plate-fat", nil, fake.Box(r3.Vector{}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.01}))
	rack := w.AddBody("dishrack", nil, fake.Box(r3.Vector{X: 0.84, Y: 8.8}, r3.Vector{X: 0.2, Y: 0.5, Z: 0.05}))
	s := newSampler(t, w)

	pose, ok, err := s.SamplePlacementOnSurface(egg, braiser, nil, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pose.Value.Point().X, test.ShouldEqual, 0.55)

	pose, ok, err = s.SamplePlacementOnSurface(plate, rack, nil, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	pt := pose.Value.Point()
	test.That(t, pt.X, test.ShouldEqual, 0.84)
	test.That(t, pt.Z, test.ShouldEqual, 0.88)
	test.That(t, pt.Y, test.ShouldBeGreaterThanOrEqualTo, 8.58)
	test.That(t, pt.Y, test.ShouldBeLessThanOrEqualTo, 9.)

	// objects placed on a plate may hang over its edges
	poses, err := s.SampleKPlacements(egg, []world.BodyRef{plate}, nil, 2, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, poses, test.ShouldHaveLength, 2)

	s.SetOverrides()
	s.SetCorrections()
	pose, ok, err = s.SamplePlacementOnSurface(egg, braiser, nil, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pose.Value.Point().X, test.ShouldNotEqual, 0.55)
}

// newShelf returns a world with a closed shelf volume spanning z in [0.4, 0.6].
func newShelf(t *testing.T) (*fake.World, world.BodyID) {
	t.Helper()
	w := fake.NewWorld(logging.NewTestLogger(t))
	shelf := w.AddBody("shelf", nil, fake.Box(r3.Vector{Z: 0.5}, r3.Vector{X: 0.5, Y: 0.5, Z: 0.1}))
	return w, shelf
}

func TestSampleContainment(t *testing.T) {
	w, shelf := newShelf(t)
	cube := w.AddBody("cube", spatialmath.NewPoseFromPoint(r3.Vector{X: 5}), fake.Box(r3.Vector{}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.05}))
	tall := w.AddBody("bottle", spatialmath.NewPoseFromPoint(r3.Vector{X: -5}), fake.Box(r3.Vector{}, r3.Vector{X: 0.05, Y: 0.05, Z: 0.2}))
	s := newSampler(t, w)

	pose, ok, err := s.SampleContainment(cube, shelf, nil, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	in, err := InSpace(w, pose, shelf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, in, test.ShouldBeTrue)

	_, ok, err = s.SampleContainment(tall, shelf, nil, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	pose, ok, err = s.SampleContainment(tall, shelf, nil, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	contained, err := IsContained(w, tall, shelf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, contained, test.ShouldBeFalse)
	on, err := IsOn(w, tall, shelf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, on, test.ShouldBeTrue)
	box, err := w.AABB(tall)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, box.Lower.Z, test.ShouldAlmostEqual, 0.4+s.Options().PlacementEpsilon)
	above, err := IsAbove(w, shelf, pose.Value.Point())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, above, test.ShouldBeTrue)
}

func TestSampleContainmentList(t *testing.T) {
	w, shelf := newShelf(t)
	other := w.AddBody("shelf2", spatialmath.NewPoseFromPoint(r3.Vector{X: 3}),
		fake.Box(r3.Vector{Z: 0.5}, r3.Vector{X: 0.5, Y: 0.5, Z: 0.1}))
	start := spatialmath.NewPoseFromPoint(r3.Vector{Y: 5})
	cube := w.AddBody("cube", start, fake.Box(r3.Vector{}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.05}))
	s := newSampler(t, w)

	poses, err := s.SampleContainmentList(cube, []world.BodyRef{shelf, other}, []world.BodyRef{shelf, other})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, poses, test.ShouldHaveLength, s.Options().NumSamples)
	for _, p := range poses {
		in, err := InSpace(w, p, p.Support)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, in, test.ShouldBeTrue)
	}
	test.That(t, w.SetPose(cube, start), test.ShouldBeNil)

	poses, err = s.SampleContainmentList(cube, []world.BodyRef{shelf}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, poses, test.ShouldNotBeEmpty)
	after, err := w.Pose(cube)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseEqual(start, after), test.ShouldBeTrue)

	poses, err = s.SampleContainmentList(cube, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, poses, test.ShouldBeEmpty)
}

func TestSampleInteriorWithDrop(t *testing.T) {
	w := fake.NewWorld(logging.NewTestLogger(t))
	bin := w.AddBody("bin", nil,
		fake.Box(r3.Vector{Z: 0.01}, r3.Vector{X: 0.3, Y: 0.3, Z: 0.01}),
		fake.Box(r3.Vector{X: 0.29, Z: 0.2}, r3.Vector{X: 0.01, Y: 0.3, Z: 0.2}),
		fake.Box(r3.Vector{X: -0.29, Z: 0.2}, r3.Vector{X: 0.01, Y: 0.3, Z: 0.2}),
		fake.Box(r3.Vector{Y: 0.29, Z: 0.2}, r3.Vector{X: 0.3, Y: 0.01, Z: 0.2}),
		fake.Box(r3.Vector{Y: -0.29, Z: 0.2}, r3.Vector{X: 0.3, Y: 0.01, Z: 0.2}),
	)
	egg := w.AddBody("egg", spatialmath.NewPoseFromPoint(r3.Vector{X: 2}), fake.Box(r3.Vector{}, r3.Vector{X: 0.05, Y: 0.05, Z: 0.05}))
	s := newSampler(t, w)

	pose, ok, err := s.SampleInteriorWithDrop(egg, bin, []world.BodyRef{bin})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pose.Support, test.ShouldEqual, world.BodyRef(bin))

	box, err := w.AABB(egg)
	test.That(t, err, test.ShouldBeNil)
	gap := box.Lower.Z - 0.02
	test.That(t, gap, test.ShouldBeGreaterThan, 0)
	test.That(t, gap, test.ShouldBeLessThan, 0.0015)
	hit, err := w.Collides(egg, bin, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)

	t.Run("does not fit", func(t *testing.T) {
		wide := w.AddBody("tray", nil, fake.Box(r3.Vector{}, r3.Vector{X: 0.4, Y: 0.4, Z: 0.01}))
		before, err := w.Pose(wide)
		test.That(t, err, test.ShouldBeNil)
		_, ok, err := s.SampleInteriorWithDrop(wide, bin, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeFalse)
		after, err := w.Pose(wide)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.PoseEqual(before, after), test.ShouldBeTrue)
	})
}

func TestStreams(t *testing.T) {
	w, table, cube := newTable(t)
	s := newSampler(t, w)
	start, err := w.Pose(cube)
	test.That(t, err, test.ShouldBeNil)

	var got []*world.Pose
	for pose, err := range s.PlacementStream(cube, []world.BodyRef{table}, nil) {
		test.That(t, err, test.ShouldBeNil)
		got = append(got, pose)
		if len(got) == 5 {
			break
		}
	}
	test.That(t, got, test.ShouldHaveLength, 5)
	after, err := w.Pose(cube)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseEqual(start, after), test.ShouldBeTrue)

	// a flat table holds nothing
	n := 0
	for _, err := range s.ContainmentStream(cube, []world.BodyRef{table}, nil) {
		test.That(t, err, test.ShouldBeNil)
		n++
	}
	test.That(t, n, test.ShouldEqual, 0)

	for range s.PlacementStream(cube, nil, nil) {
		t.Fatal("stream over no surfaces yielded")
	}
}

func TestOptions(t *testing.T) {
	opts := NewBasicOptions()
	test.That(t, opts.NumTrials, test.ShouldEqual, 20)
	test.That(t, opts.DropSteps, test.ShouldResemble, DefaultDropSteps)
	test.That(t, opts.Validate(), test.ShouldBeNil)

	t.Setenv(utils.NumTrialsEnvVar, "7")
	t.Setenv(utils.RandomSeedEnvVar, "42")
	opts = NewBasicOptions()
	test.That(t, opts.NumTrials, test.ShouldEqual, 7)
	test.That(t, opts.RandomSeed, test.ShouldEqual, 42)

	opts, err := NewOptionsFromExtra(map[string]interface{}{
		"num_samples": "5",
		"xy_only":     true,
		"drop_steps":  []float64{0.2, 0.02},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.NumSamples, test.ShouldEqual, 5)
	test.That(t, opts.XYOnly, test.ShouldBeTrue)
	test.That(t, opts.DropSteps, test.ShouldResemble, []float64{0.2, 0.02})

	_, err = NewOptionsFromExtra(map[string]interface{}{"bogus": 1})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewOptionsFromExtra(map[string]interface{}{"drop_steps": []float64{0.01, 0.1}})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewOptionsFromExtra(map[string]interface{}{"num_trials": 0})
	test.That(t, err, test.ShouldNotBeNil)

	opts = NewBasicOptions()
	opts.MinDistance = -1
	_, err = NewSampler(nil, world.NewCounter(), opts, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSamplerOracleErrors(t *testing.T) {
	w, table, cube := newTable(t)
	start, err := w.Pose(cube)
	test.That(t, err, test.ShouldBeNil)
	block := w.AddBody("block", spatialmath.NewPoseFromPoint(r3.Vector{X: -3}), fake.Box(r3.Vector{}, cubeHalf))

	injected := &inject.World{World: w}
	injected.CollidesFunc = func(a, b world.BodyRef, maxDistance float64) (bool, error) {
		return false, errors.New("engine went away")
	}
	s := newSampler(t, injected)

	_, ok, err := s.SamplePlacementOnSurface(cube, table, []world.BodyRef{block}, 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "engine went away")
	test.That(t, ok, test.ShouldBeFalse)
	after, err := w.Pose(cube)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseEqual(start, after), test.ShouldBeTrue)

	// no obstacles means no collision queries
	_, ok, err = s.SamplePlacementOnSurface(cube, table, nil, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	injected.AABBFunc = func(ref world.BodyRef) (spatialmath.AABB, error) {
		return spatialmath.AABB{}, world.NewUnknownBodyError(ref.Body())
	}
	_, err = s.SampleContainmentList(cube, []world.BodyRef{table}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
