package wconf

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/tamp/joint"
	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/referenceframe"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// ReachGoal is what the robot must reach: an object at a pose, held with a grasp, from a base
// configuration.
type ReachGoal struct {
	Object   world.BodyID
	Pose     *world.Pose
	Grasp    spatialmath.Pose
	BaseConf []referenceframe.Input
}

// ReachabilityOracle decides whether a goal is reachable in a world configuration.
type ReachabilityOracle interface {
	TestReachable(ctx context.Context, goal ReachGoal, w *WConf) (bool, error)
}

// Alternative is a world configuration differing from the original in one joint.
type Alternative struct {
	Joint    world.BodyJoint
	Position *joint.Position
	WConf    *WConf
	Distance float64
}

// AlternateOptions controls SampleAlternateWorld.
type AlternateOptions struct {
	// Joints are the candidates; empty means every joint of every body.
	Joints []world.BodyJoint
	// MaxDistance drops joints whose handle is farther than this from the goal. Zero keeps all.
	MaxDistance float64
	// FirstOnly stops at the first reachable alternative.
	FirstOnly bool
	// OpenSamples, when positive, replaces the toggle of each joint with its open candidates,
	// drawing this many sampled door angles.
	OpenSamples int
}

// SampleAlternateWorld toggles joints near the goal, one at a time, and returns the resulting
// configurations under which the goal is reachable, nearest handle first. Every candidate is tested
// from configuration w, and the world is left there.
func SampleAlternateWorld(
	ctx context.Context,
	wld world.Provider,
	factory *joint.Factory,
	w *WConf,
	goal ReachGoal,
	oracle ReachabilityOracle,
	opts AlternateOptions,
	logger logging.Logger,
) ([]Alternative, error) {
	if err := w.Assign(wld); err != nil {
		return nil, err
	}
	candidates, originals, err := alternateCandidates(wld, factory, w, goal, opts)
	if err != nil {
		return nil, err
	}
	objPose, err := wld.Pose(goal.Object)
	if err != nil {
		return nil, err
	}
	restore := func() error {
		errs := wld.SetPose(goal.Object, objPose)
		for ref, value := range originals {
			errs = multierr.Append(errs, wld.SetJointPosition(ref, value))
		}
		return multierr.Append(errs, w.Assign(wld))
	}

	var accepted []Alternative
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return accepted, multierr.Combine(err, restore())
		}
		if err := restore(); err != nil {
			return accepted, err
		}
		ok, err := oracle.TestReachable(ctx, goal, c.WConf)
		if err != nil {
			return accepted, multierr.Combine(err, restore())
		}
		logger.Debugw("alternate world candidate", "joint", c.Joint, "position", c.Position,
			"distance", c.Distance, "reachable", ok)
		if !ok {
			continue
		}
		accepted = append(accepted, c)
		if opts.FirstOnly {
			break
		}
	}
	return accepted, restore()
}

func alternateCandidates(
	wld world.Provider, factory *joint.Factory, w *WConf, goal ReachGoal, opts AlternateOptions,
) ([]Alternative, map[world.BodyJoint]float64, error) {
	refs := opts.Joints
	if len(refs) == 0 {
		for _, b := range wld.Bodies() {
			joints, err := wld.Joints(b)
			if err != nil {
				return nil, nil, err
			}
			for _, j := range joints {
				refs = append(refs, world.BodyJoint{ID: b, Joint: j})
			}
		}
	}

	target := goal.Pose.Value.Point()
	var out []Alternative
	originals := map[world.BodyJoint]float64{}
	for _, ref := range refs {
		cur, err := factory.Current(ref)
		if err != nil {
			return nil, nil, err
		}
		if cur.Category() == joint.Fixed {
			continue
		}
		originals[ref] = cur.Value
		var nexts []*joint.Position
		if opts.OpenSamples > 0 {
			nexts = factory.OpenCandidates(cur, opts.OpenSamples)
		} else {
			next, err := factory.Toggle(ref)
			if err != nil {
				return nil, nil, err
			}
			nexts = append(nexts, next)
		}
		nexts = lo.Reject(nexts, func(p *joint.Position, _ int) bool { return p.Value == cur.Value })
		if len(nexts) == 0 {
			continue
		}
		handle, err := world.HandlePose(wld, ref)
		if err != nil {
			return nil, nil, err
		}
		dist := spatialmath.PointDistance(target, handle.Point())
		if opts.MaxDistance > 0 && dist > opts.MaxDistance {
			continue
		}
		for _, next := range nexts {
			alt, err := w.UpdatePosition(ref, next)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, Alternative{Joint: ref, Position: next, WConf: alt, Distance: dist})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, originals, nil
}
