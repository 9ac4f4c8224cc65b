package sampling

import (
	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// tryPlacement is one trial of placing obj on surface: a random yaw, a center uniform over the
// surface shrunk by the object's half extent, set down PlacementEpsilon above the top. obj is left
// at the candidate.
func (s *Sampler) tryPlacement(
	obj world.BodyID, surface world.BodyRef, obstacles []world.BodyRef, minDistance float64,
) (spatialmath.Pose, bool, error) {
	fp, err := s.footprint(obj, s.randomYaw())
	if err != nil {
		return nil, false, err
	}
	box, err := s.w.AABB(surface)
	if err != nil {
		return nil, false, err
	}
	region, ok := box.Shrink(r3.Vector{X: fp.half.X, Y: fp.half.Y})
	if !ok {
		return nil, false, nil
	}
	pt := region.Sample(s.rng)
	pose := fp.at(pt.X, pt.Y, box.Upper.Z+s.opts.PlacementEpsilon-fp.lower.Z)
	pose = spatialmath.NewPose(s.correct(obj, surface, pose.Point()), pose.Orientation())
	if err := s.w.SetPose(obj, pose); err != nil {
		return nil, false, err
	}
	free, err := s.collisionFree(obj, obstacles, minDistance, surface)
	if err != nil || !free {
		return nil, false, err
	}
	return pose, true, nil
}

// SamplePlacementOnSurface samples a collision-free pose of obj resting on surface within
// NumTrials trials. On success obj is left at the returned pose; otherwise it is put back.
// obstacles may include obj and the surface; both are ignored.
func (s *Sampler) SamplePlacementOnSurface(
	obj world.BodyID, surface world.BodyRef, obstacles []world.BodyRef, minDistance float64,
) (*world.Pose, bool, error) {
	restore, err := s.keepPose(obj)
	if err != nil {
		return nil, false, err
	}
	if o, ok := s.findOverride(obj, surface); ok {
		poses, err := s.sampleOverride(o, obj, surface, obstacles, 1)
		if err != nil || len(poses) == 0 {
			return nil, false, multierr.Combine(err, restore())
		}
		return poses[0], true, nil
	}
	for trial := 0; trial < s.opts.NumTrials; trial++ {
		pose, ok, err := s.tryPlacement(obj, surface, obstacles, minDistance)
		if err != nil {
			return nil, false, multierr.Combine(err, restore())
		}
		if ok {
			return world.NewPose(s.counter, obj, pose, surface), true, nil
		}
	}
	s.logger.Debugw("no feasible placement", "object", s.nameOf(obj), "surface", surface, "trials", s.opts.NumTrials)
	return nil, false, restore()
}

// SampleKPlacements collects up to k collision-free placements of obj over surfaces within
// maxTrials trials, drawing a random surface per trial. A matching override takes precedence. The
// result may be short or empty. obj is put back afterwards.
func (s *Sampler) SampleKPlacements(
	obj world.BodyID, surfaces, obstacles []world.BodyRef, k, maxTrials int,
) (out []*world.Pose, err error) {
	if len(surfaces) == 0 || k <= 0 {
		return nil, nil
	}
	restore, err := s.keepPose(obj)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, restore())
	}()

	for _, surface := range surfaces {
		if o, ok := s.findOverride(obj, surface); ok {
			return s.sampleOverride(o, obj, surface, obstacles, k)
		}
	}
	for trial := 0; trial < maxTrials && len(out) < k; trial++ {
		surface := surfaces[s.rng.Intn(len(surfaces))]
		pose, ok, err := s.tryPlacement(obj, surface, obstacles, s.opts.MinDistance)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, world.NewPose(s.counter, obj, pose, surface))
		}
	}
	if len(out) < k {
		s.logger.Debugw("placement batch short", "object", s.nameOf(obj), "found", len(out), "wanted", k, "trials", maxTrials)
	}
	return out, nil
}

// SamplePlacements is SampleKPlacements with NumSamples poses and ListTrials trials.
func (s *Sampler) SamplePlacements(obj world.BodyID, surfaces, obstacles []world.BodyRef) ([]*world.Pose, error) {
	return s.SampleKPlacements(obj, surfaces, obstacles, s.opts.NumSamples, s.opts.ListTrials)
}
