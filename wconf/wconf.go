// Package wconf implements world configurations: sparse snapshots of object poses and joint
// positions, updated copy-on-write and pushed into the live world on demand.
package wconf

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/tamp/attachment"
	"go.viam.com/tamp/joint"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// WConf is a world configuration. An object or joint without an entry is at its default. A WConf
// is never modified after construction; updates return a new WConf sharing unchanged entries.
type WConf struct {
	poses     map[world.BodyID]*world.Pose
	positions map[world.BodyJoint]*joint.Position

	// values found to carry no deviation, remembered so that re-applying them stays a no-op
	defaultPoses     map[world.BodyID]*world.Pose
	defaultPositions map[world.BodyJoint]*joint.Position

	counter *world.Counter
	Index   int64
}

// New builds a configuration from poses and positions.
func New(counter *world.Counter, poses []*world.Pose, positions []*joint.Position) *WConf {
	w := &WConf{
		poses:            make(map[world.BodyID]*world.Pose, len(poses)),
		positions:        make(map[world.BodyJoint]*joint.Position, len(positions)),
		defaultPoses:     map[world.BodyID]*world.Pose{},
		defaultPositions: map[world.BodyJoint]*joint.Position{},
		counter:          counter,
		Index:            counter.Next(),
	}
	for _, p := range poses {
		w.poses[p.Body] = p
	}
	for _, p := range positions {
		w.positions[p.Ref()] = p
	}
	return w
}

// NewInconsistentKeyError is returned when an update's key disagrees with the value's own body or joint.
func NewInconsistentKeyError(key, valueKey world.BodyRef) error {
	return errors.Errorf("inconsistent world configuration key: %v updated with a value for %v", key, valueKey)
}

func (w *WConf) next() *WConf {
	out := *w
	out.Index = w.counter.Next()
	return &out
}

// Pose returns obj's entry.
func (w *WConf) Pose(obj world.BodyID) (*world.Pose, bool) {
	p, ok := w.poses[obj]
	return p, ok
}

// Position returns the joint's entry.
func (w *WConf) Position(ref world.BodyJoint) (*joint.Position, bool) {
	p, ok := w.positions[ref]
	return p, ok
}

// Poses lists pose entries ordered by body.
func (w *WConf) Poses() []*world.Pose {
	keys := lo.Keys(w.poses)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return lo.Map(keys, func(k world.BodyID, _ int) *world.Pose { return w.poses[k] })
}

// Positions lists joint entries ordered by body and joint.
func (w *WConf) Positions() []*joint.Position {
	keys := lo.Keys(w.positions)
	sort.Slice(keys, func(i, j int) bool { return world.RefLess(keys[i], keys[j]) })
	return lo.Map(keys, func(k world.BodyJoint, _ int) *joint.Position { return w.positions[k] })
}

// Len returns the number of entries.
func (w *WConf) Len() int {
	return len(w.poses) + len(w.positions)
}

// UpdatePose returns a configuration with obj at p. Setting an entry to the value it already holds
// removes the entry, recording the value as obj's default; setting an absent entry to its recorded
// default changes nothing.
func (w *WConf) UpdatePose(obj world.BodyID, p *world.Pose) (*WConf, error) {
	if p == nil || p.Body != obj {
		var valueKey world.BodyRef
		if p != nil {
			valueKey = p.Body
		}
		return nil, NewInconsistentKeyError(obj, valueKey)
	}
	existing, ok := w.poses[obj]
	switch {
	case ok && existing.Equal(p):
		out := w.next()
		out.poses = lo.OmitByKeys(w.poses, []world.BodyID{obj})
		out.defaultPoses = lo.Assign(w.defaultPoses, map[world.BodyID]*world.Pose{obj: p})
		return out, nil
	case !ok && w.defaultPoses[obj].Equal(p):
		return w, nil
	default:
		out := w.next()
		out.poses = lo.Assign(w.poses, map[world.BodyID]*world.Pose{obj: p})
		return out, nil
	}
}

// UpdatePosition is UpdatePose for joint positions.
func (w *WConf) UpdatePosition(ref world.BodyJoint, p *joint.Position) (*WConf, error) {
	if p == nil || p.Ref() != ref {
		var valueKey world.BodyRef
		if p != nil {
			valueKey = p.Ref()
		}
		return nil, NewInconsistentKeyError(ref, valueKey)
	}
	existing, ok := w.positions[ref]
	switch {
	case ok && existing.Equal(p):
		out := w.next()
		out.positions = lo.OmitByKeys(w.positions, []world.BodyJoint{ref})
		out.defaultPositions = lo.Assign(w.defaultPositions, map[world.BodyJoint]*joint.Position{ref: p})
		return out, nil
	case !ok && w.defaultPositions[ref].Equal(p):
		return w, nil
	default:
		out := w.next()
		out.positions = lo.Assign(w.positions, map[world.BodyJoint]*joint.Position{ref: p})
		return out, nil
	}
}

// PoseUpdate pairs an object with its new pose.
type PoseUpdate struct {
	Body world.BodyID
	Pose *world.Pose
}

// Merge applies several pose updates in order with the UpdatePose rule. It fails on the first
// inconsistent key.
func (w *WConf) Merge(updates ...PoseUpdate) (*WConf, error) {
	out := w
	for _, u := range updates {
		var err error
		if out, err = out.UpdatePose(u.Body, u.Pose); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Assign pushes every entry into the world. Entries are independent; callers re-run attachment
// assignment afterwards when bodies depend on each other.
func (w *WConf) Assign(wld world.Provider) error {
	var errs error
	for _, p := range w.Poses() {
		errs = multierr.Append(errs, errors.Wrapf(p.Assign(wld), "assigning %v", p))
	}
	for _, p := range w.Positions() {
		errs = multierr.Append(errs, errors.Wrapf(p.Assign(wld), "assigning %v", p))
	}
	return errs
}

// PoseFromAttachments assigns the configuration, then the attachments, and returns obj's pose when
// the attachments moved it.
func (w *WConf) PoseFromAttachments(
	wld world.Provider, obj world.BodyID, atts attachment.Set,
) (*world.Pose, bool, error) {
	if err := w.Assign(wld); err != nil {
		return nil, false, err
	}
	before, err := wld.Pose(obj)
	if err != nil {
		return nil, false, err
	}
	if err := attachment.AssignAll(wld, atts); err != nil {
		return nil, false, err
	}
	after, err := wld.Pose(obj)
	if err != nil {
		return nil, false, err
	}
	if spatialmath.PoseEqual(before, after) {
		return nil, false, nil
	}
	return world.NewPose(w.counter, obj, after, nil), true, nil
}

// Printout renders the entries, restricted to obstacles when any are given, with body names.
func (w *WConf) Printout(wld world.Provider, obstacles ...world.BodyID) string {
	keep := func(b world.BodyID) bool { return len(obstacles) == 0 || lo.Contains(obstacles, b) }
	name := func(b world.BodyID) string {
		n, err := wld.Name(b)
		if err != nil {
			return b.String()
		}
		return n
	}
	t := table.NewWriter()
	t.SetTitle("%v", w)
	t.AppendHeader(table.Row{"Entry", "Value", "State"})
	for _, p := range w.Poses() {
		if keep(p.Body) {
			t.AppendRow(table.Row{name(p.Body), p.String(), ""})
		}
	}
	for _, p := range w.Positions() {
		if keep(p.Body) {
			t.AppendRow(table.Row{name(p.Body) + "." + p.Info.Name, p.String(), p.State()})
		}
	}
	return t.Render()
}

func (w *WConf) String() string {
	return fmt.Sprintf("wconf%d", w.Index)
}
