package sampling

import (
	"math"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// tryContainment is one trial of putting obj inside space. The sampling region is the space shrunk
// by the object's half extent so that the whole object, not just its center, stays inside. With
// xyOnly only the footprint must fit and the object rests on the floor of the space.
func (s *Sampler) tryContainment(
	obj world.BodyID, space world.BodyRef, obstacles []world.BodyRef, xyOnly bool,
) (spatialmath.Pose, bool, error) {
	yaw, err := s.yawFor(space)
	if err != nil {
		return nil, false, err
	}
	fp, err := s.footprint(obj, yaw)
	if err != nil {
		return nil, false, err
	}
	box, err := s.w.AABB(space)
	if err != nil {
		return nil, false, err
	}
	shrinkBy := fp.half
	if xyOnly {
		shrinkBy.Z = 0
	}
	region, ok := box.Shrink(shrinkBy)
	if !ok {
		return nil, false, nil
	}
	pt := region.Sample(s.rng)
	z := pt.Z - fp.center.Z
	if xyOnly {
		z = box.Lower.Z + s.opts.PlacementEpsilon - fp.lower.Z
	}
	pose := fp.at(pt.X, pt.Y, z)
	if err := s.w.SetPose(obj, pose); err != nil {
		return nil, false, err
	}
	objBox, err := s.w.AABB(obj)
	if err != nil {
		return nil, false, err
	}
	contained := spatialmath.AABBContainsAABB(objBox, box)
	if xyOnly {
		contained = spatialmath.AABBContainsAABB2D(objBox, box)
	}
	if !contained {
		return nil, false, nil
	}
	free, err := s.collisionFree(obj, obstacles, s.opts.MinDistance, space)
	if err != nil || !free {
		return nil, false, err
	}
	return pose, true, nil
}

// SampleContainment samples a collision-free pose of obj inside space within NumTrials trials.
// On success obj is left at the returned pose; otherwise it is put back.
func (s *Sampler) SampleContainment(
	obj world.BodyID, space world.BodyRef, obstacles []world.BodyRef, xyOnly bool,
) (*world.Pose, bool, error) {
	restore, err := s.keepPose(obj)
	if err != nil {
		return nil, false, err
	}
	for trial := 0; trial < s.opts.NumTrials; trial++ {
		pose, ok, err := s.tryContainment(obj, space, obstacles, xyOnly)
		if err != nil {
			return nil, false, multierr.Combine(err, restore())
		}
		if ok {
			return world.NewPose(s.counter, obj, pose, space), true, nil
		}
	}
	s.logger.Debugw("no feasible containment", "object", s.nameOf(obj), "space", space, "trials", s.opts.NumTrials)
	return nil, false, restore()
}

// SampleContainmentList collects up to NumSamples contained poses of obj over spaces within
// MaxContainAttempts attempts. Each pose is rechecked against obstacles after lifting it by
// DropRecheckLift. obj is put back afterwards.
func (s *Sampler) SampleContainmentList(
	obj world.BodyID, spaces, obstacles []world.BodyRef,
) (out []*world.Pose, err error) {
	if len(spaces) == 0 {
		return nil, nil
	}
	restore, err := s.keepPose(obj)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, restore())
	}()

	for attempt := 0; attempt < s.opts.MaxContainAttempts && len(out) < s.opts.NumSamples; attempt++ {
		space := spaces[s.rng.Intn(len(spaces))]
		pose, ok, err := s.tryContainment(obj, space, obstacles, s.opts.XYOnly)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		ok, err = s.liftedFree(obj, pose, space, obstacles)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, world.NewPose(s.counter, obj, pose, space))
		}
	}
	return out, nil
}

// liftedFree checks obstacles with obj raised by DropRecheckLift, then puts obj back at pose.
func (s *Sampler) liftedFree(
	obj world.BodyID, pose spatialmath.Pose, space world.BodyRef, obstacles []world.BodyRef,
) (bool, error) {
	lifted := spatialmath.NewPose(pose.Point().Add(r3.Vector{Z: s.opts.DropRecheckLift}), pose.Orientation())
	if err := s.w.SetPose(obj, lifted); err != nil {
		return false, err
	}
	free, err := s.collisionFree(obj, obstacles, s.opts.MinDistance, space)
	if err != nil {
		return false, err
	}
	return free, s.w.SetPose(obj, pose)
}

// tryDrop is one trial of SampleInteriorWithDrop. It starts from a contained pose clear of the
// container, then lowers the object by each step size in turn until it touches the container,
// backing off one step each time.
func (s *Sampler) tryDrop(
	obj world.BodyID, container world.BodyRef, obstacles []world.BodyRef,
) (spatialmath.Pose, bool, error) {
	start, ok, err := s.tryContainment(obj, container, obstacles, false)
	if err != nil || !ok {
		return nil, false, err
	}
	touching, err := s.w.Collides(obj, container, 0)
	if err != nil || touching {
		return nil, false, err
	}
	box, err := s.w.AABB(container)
	if err != nil {
		return nil, false, err
	}
	objBox, err := s.w.AABB(obj)
	if err != nil {
		return nil, false, err
	}

	point := start.Point()
	// distance from the object's underside to its origin
	below := point.Z - objBox.Lower.Z
	place := func(z float64) error {
		point.Z = z
		return s.w.SetPose(obj, spatialmath.NewPose(point, start.Orientation()))
	}
	for _, step := range s.opts.DropSteps {
		// enough steps to pass below the container floor
		n := int(math.Ceil((point.Z-below-box.Lower.Z)/step)) + 1
		for i := 0; i < n; i++ {
			if err := place(point.Z - step); err != nil {
				return nil, false, err
			}
			hit, err := s.w.Collides(obj, container, 0)
			if err != nil {
				return nil, false, err
			}
			if hit {
				if err := place(point.Z + step); err != nil {
					return nil, false, err
				}
				break
			}
		}
	}

	final := spatialmath.NewPose(point, start.Orientation())
	if point.Z-below < box.Lower.Z {
		// fell through
		return nil, false, nil
	}
	hit, err := s.w.Collides(obj, container, 0)
	if err != nil || hit {
		return nil, false, err
	}
	objBox, err = s.w.AABB(obj)
	if err != nil {
		return nil, false, err
	}
	if !spatialmath.AABBContainsAABB2D(objBox, box) {
		return nil, false, nil
	}
	free, err := s.liftedFree(obj, final, container, obstacles)
	if err != nil || !free {
		return nil, false, err
	}
	return final, true, nil
}

// SampleInteriorWithDrop samples a pose of obj resting on the floor of container: the highest
// collision-free height reachable by lowering in DropSteps increments. On success obj is left at
// the returned pose; otherwise it is put back.
func (s *Sampler) SampleInteriorWithDrop(
	obj world.BodyID, container world.BodyRef, obstacles []world.BodyRef,
) (*world.Pose, bool, error) {
	restore, err := s.keepPose(obj)
	if err != nil {
		return nil, false, err
	}
	for trial := 0; trial < s.opts.NumTrials; trial++ {
		pose, ok, err := s.tryDrop(obj, container, obstacles)
		if err != nil {
			return nil, false, multierr.Combine(err, restore())
		}
		if ok {
			return world.NewPose(s.counter, obj, pose, container), true, nil
		}
	}
	s.logger.Debugw("no feasible drop", "object", s.nameOf(obj), "container", container, "trials", s.opts.NumTrials)
	return nil, false, restore()
}
