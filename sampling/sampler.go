// Package sampling implements rejection samplers for object placements on surfaces, inside
// containers, and resting on the floor of a container, subject to collision and region-fit
// constraints. Samplers read and write the one live world; they must not be used concurrently.
package sampling

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// ErrNoFeasibleSample is what AsError reports for an exhausted sampler.
var ErrNoFeasibleSample = errors.New("no feasible sample")

// AsError turns a (value, ok, err) sample into (value, err) for callers that want an error when
// nothing was found.
func AsError[T any](v T, ok bool, err error) (T, error) {
	if err != nil {
		return v, err
	}
	if !ok {
		return v, ErrNoFeasibleSample
	}
	return v, nil
}

// Sampler draws poses for objects of a world. Exhausting a trial budget is never an error: single
// samples report ok == false and batches come back short or empty.
type Sampler struct {
	w           world.World
	counter     *world.Counter
	opts        *Options
	rng         *rand.Rand
	logger      logging.Logger
	overrides   []Override
	corrections []Correction
}

// NewSampler validates opts and returns a sampler seeded from opts.RandomSeed, with the default
// overrides and corrections installed.
func NewSampler(w world.World, counter *world.Counter, opts *Options, logger logging.Logger) (*Sampler, error) {
	if opts == nil {
		opts = NewBasicOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{
		w:       w,
		counter: counter,
		opts:    opts,
		//nolint:gosec
		rng:         rand.New(rand.NewSource(int64(opts.RandomSeed))),
		logger:      logger,
		overrides:   DefaultOverrides(),
		corrections: DefaultCorrections(),
	}, nil
}

// Options returns the sampler's options.
func (s *Sampler) Options() *Options {
	return s.opts
}

// SetOverrides replaces the override table.
func (s *Sampler) SetOverrides(overrides ...Override) {
	s.overrides = overrides
}

// SetCorrections replaces the correction table.
func (s *Sampler) SetCorrections(corrections ...Correction) {
	s.corrections = corrections
}

// footprint is an object's bounding box measured with its origin at zero in a given orientation.
type footprint struct {
	orientation spatialmath.Orientation
	lower       r3.Vector
	center      r3.Vector
	half        r3.Vector
}

func (s *Sampler) footprint(obj world.BodyID, o spatialmath.Orientation) (footprint, error) {
	if err := s.w.SetPose(obj, spatialmath.NewPose(r3.Vector{}, o)); err != nil {
		return footprint{}, err
	}
	box, err := s.w.AABB(obj)
	if err != nil {
		return footprint{}, err
	}
	return footprint{orientation: o, lower: box.Lower, center: box.Center(), half: box.Extent().Mul(0.5)}, nil
}

// at returns the pose putting the footprint's center at (x, y) and its origin at height z.
func (fp footprint) at(x, y, z float64) spatialmath.Pose {
	return spatialmath.NewPose(r3.Vector{X: x - fp.center.X, Y: y - fp.center.Y, Z: z}, fp.orientation)
}

func (s *Sampler) randomYaw() spatialmath.Orientation {
	return &spatialmath.EulerAngles{Yaw: s.rng.Float64() * 2 * math.Pi}
}

// yawFor returns the fixed yaw configured for the space's name, or a random one.
func (s *Sampler) yawFor(space world.BodyRef) (spatialmath.Orientation, error) {
	name, err := s.w.Name(space.Body())
	if err != nil {
		return nil, err
	}
	keys := lo.Keys(s.opts.FixedYaws)
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(name, key) {
			return &spatialmath.EulerAngles{Yaw: s.opts.FixedYaws[key]}, nil
		}
	}
	return s.randomYaw(), nil
}

// collisionFree reports whether obj keeps MinDistance-style clearance from every obstacle other
// than itself and region. A link region excuses only that link; other links of its body still count.
func (s *Sampler) collisionFree(
	obj world.BodyID, obstacles []world.BodyRef, minDistance float64, region world.BodyRef,
) (bool, error) {
	for _, ob := range obstacles {
		if ob.Body() == obj || excused(ob, region) {
			continue
		}
		collides, err := s.w.Collides(obj, ob, minDistance)
		if err != nil {
			return false, err
		}
		if collides {
			return false, nil
		}
	}
	return true, nil
}

func excused(obstacle, region world.BodyRef) bool {
	if obstacle == region {
		return true
	}
	_, whole := region.(world.BodyID)
	return whole && obstacle.Body() == region.Body()
}

// keepPose captures obj's pose so a failed or batch sampler can put it back.
func (s *Sampler) keepPose(obj world.BodyID) (func() error, error) {
	orig, err := s.w.Pose(obj)
	if err != nil {
		return nil, err
	}
	return func() error { return s.w.SetPose(obj, orig) }, nil
}

func (s *Sampler) nameOf(b world.BodyID) string {
	name, err := s.w.Name(b)
	if err != nil {
		return b.String()
	}
	return name
}
