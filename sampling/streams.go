package sampling

import (
	"iter"

	"go.viam.com/tamp/world"
)

// PlacementStream yields fresh placements of obj on surfaces, one per accepted trial, until the
// consumer stops or ListTrials trials are spent. obj is put back when the stream ends.
func (s *Sampler) PlacementStream(obj world.BodyID, surfaces, obstacles []world.BodyRef) iter.Seq2[*world.Pose, error] {
	return s.stream(obj, surfaces, func(surface world.BodyRef) (*world.Pose, bool, error) {
		pose, ok, err := s.tryPlacement(obj, surface, obstacles, s.opts.MinDistance)
		if err != nil || !ok {
			return nil, false, err
		}
		return world.NewPose(s.counter, obj, pose, surface), true, nil
	})
}

// ContainmentStream is PlacementStream for poses inside spaces.
func (s *Sampler) ContainmentStream(obj world.BodyID, spaces, obstacles []world.BodyRef) iter.Seq2[*world.Pose, error] {
	return s.stream(obj, spaces, func(space world.BodyRef) (*world.Pose, bool, error) {
		pose, ok, err := s.tryContainment(obj, space, obstacles, s.opts.XYOnly)
		if err != nil || !ok {
			return nil, false, err
		}
		return world.NewPose(s.counter, obj, pose, space), true, nil
	})
}

func (s *Sampler) stream(
	obj world.BodyID, regions []world.BodyRef, try func(world.BodyRef) (*world.Pose, bool, error),
) iter.Seq2[*world.Pose, error] {
	return func(yield func(*world.Pose, error) bool) {
		if len(regions) == 0 {
			return
		}
		restore, err := s.keepPose(obj)
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() {
			if err := restore(); err != nil {
				s.logger.Warnw("failed to restore pose after stream", "object", s.nameOf(obj), "error", err)
			}
		}()
		for trial := 0; trial < s.opts.ListTrials; trial++ {
			pose, ok, err := try(regions[s.rng.Intn(len(regions))])
			if err != nil {
				yield(nil, err)
				return
			}
			if ok && !yield(pose, nil) {
				return
			}
		}
	}
}
