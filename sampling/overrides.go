package sampling

import (
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// Correction pins coordinates of placements of an object on a surface, both matched by name
// substring. Nil coordinates are left as sampled.
type Correction struct {
	Object  string
	Surface string
	X, Y, Z *float64
}

func (c Correction) apply(p r3.Vector) r3.Vector {
	if c.X != nil {
		p.X = *c.X
	}
	if c.Y != nil {
		p.Y = *c.Y
	}
	if c.Z != nil {
		p.Z = *c.Z
	}
	return p
}

// DefaultCorrections are the learned corrections for known object and surface pairs.
func DefaultCorrections() []Correction {
	return []Correction{
		{Object: "eggblock", Surface: "braiser_bottom", X: lo.ToPtr(0.55)},
	}
}

// OverrideFunc draws one candidate pose for obj on surface.
type OverrideFunc func(s *Sampler, obj world.BodyID, surface world.BodyRef) (spatialmath.Pose, error)

// Override replaces the general placement sampler for objects or surfaces matched by name
// substring. An empty pattern matches anything; at least one must be set.
type Override struct {
	Name    string
	Object  string
	Surface string
	Sample  OverrideFunc
}

func (o Override) matches(objName, surfaceName string) bool {
	if o.Object == "" && o.Surface == "" {
		return false
	}
	return strings.Contains(objName, o.Object) && strings.Contains(surfaceName, o.Surface)
}

// DefaultOverrides are the hand-tuned samplers for flat plates.
func DefaultOverrides() []Override {
	return []Override{
		{Name: "plate object", Object: "plate-fat", Sample: samplePlateObject},
		{Name: "plate surface", Surface: "plate-fat", Sample: sampleAnywhereOnSurface},
	}
}

// samplePlateObject stands a plate on its edge in the dish rack.
func samplePlateObject(s *Sampler, _ world.BodyID, _ world.BodyRef) (spatialmath.Pose, error) {
	y := 8.58 + s.rng.Float64()*(9-8.58)
	return spatialmath.NewPose(r3.Vector{X: 0.84, Y: y, Z: 0.88}, &spatialmath.EulerAngles{Pitch: math.Pi / 2}), nil
}

// sampleAnywhereOnSurface puts the object's center anywhere over the surface with a random yaw,
// letting it overhang the edges.
func sampleAnywhereOnSurface(s *Sampler, obj world.BodyID, surface world.BodyRef) (spatialmath.Pose, error) {
	fp, err := s.footprint(obj, s.randomYaw())
	if err != nil {
		return nil, err
	}
	box, err := s.w.AABB(surface)
	if err != nil {
		return nil, err
	}
	pt := box.Sample(s.rng)
	return fp.at(pt.X, pt.Y, box.Upper.Z+s.opts.PlacementEpsilon-fp.lower.Z), nil
}

func (s *Sampler) findOverride(obj world.BodyID, surface world.BodyRef) (Override, bool) {
	objName, surfaceName := s.nameOf(obj), s.nameOf(surface.Body())
	return lo.Find(s.overrides, func(o Override) bool { return o.matches(objName, surfaceName) })
}

func (s *Sampler) correct(obj world.BodyID, surface world.BodyRef, p r3.Vector) r3.Vector {
	objName, surfaceName := s.nameOf(obj), s.nameOf(surface.Body())
	for _, c := range s.corrections {
		if strings.Contains(objName, c.Object) && strings.Contains(surfaceName, c.Surface) {
			p = c.apply(p)
		}
	}
	return p
}

// sampleOverride runs OverrideTrials trials of an override and returns up to k collision-free
// poses. obj is left at its last candidate.
func (s *Sampler) sampleOverride(
	o Override, obj world.BodyID, surface world.BodyRef, obstacles []world.BodyRef, k int,
) ([]*world.Pose, error) {
	var out []*world.Pose
	for trial := 0; trial < s.opts.OverrideTrials && len(out) < k; trial++ {
		pose, err := o.Sample(s, obj, surface)
		if err != nil {
			return out, err
		}
		if err := s.w.SetPose(obj, pose); err != nil {
			return out, err
		}
		free, err := s.collisionFree(obj, obstacles, s.opts.MinDistance, surface)
		if err != nil {
			return out, err
		}
		if free {
			out = append(out, world.NewPose(s.counter, obj, pose, surface))
		}
	}
	s.logger.Debugw("override sampler", "override", o.Name, "object", s.nameOf(obj), "found", len(out))
	return out, nil
}
