package joint

import (
	"math"
	"math/rand"

	"go.viam.com/tamp/world"
)

// WideOpenAngle is the extra door angle, in radians, offered as an open candidate.
const WideOpenAngle = 1.77

// Factory builds positions for joints of a world, numbering them from a shared counter.
type Factory struct {
	w       world.Provider
	counter *world.Counter
	rng     *rand.Rand
}

// NewFactory returns a factory. rng is used only by OpenCandidates.
func NewFactory(w world.Provider, counter *world.Counter, rng *rand.Rand) *Factory {
	if rng == nil {
		//nolint:gosec
		rng = rand.New(rand.NewSource(0))
	}
	return &Factory{w: w, counter: counter, rng: rng}
}

func (f *Factory) build(ref world.BodyJoint, info world.JointInfo, value float64) *Position {
	return &Position{Body: ref.ID, Joint: ref.Joint, Value: value, Index: f.counter.Next(), Info: info}
}

// Current returns the joint's live value.
func (f *Factory) Current(ref world.BodyJoint) (*Position, error) {
	info, err := f.w.Joint(ref)
	if err != nil {
		return nil, err
	}
	value, err := f.w.JointPosition(ref)
	if err != nil {
		return nil, err
	}
	return f.build(ref, info, value), nil
}

// At returns a position at value, which must lie within the joint limits.
func (f *Factory) At(ref world.BodyJoint, value float64) (*Position, error) {
	info, err := f.w.Joint(ref)
	if err != nil {
		return nil, err
	}
	if !info.Limit.Contains(value) {
		return nil, NewOutOfRangeError(info.Name, value, info.Limit)
	}
	return f.build(ref, info, value), nil
}

// Virtual returns a position at value without checking limits.
func (f *Factory) Virtual(ref world.BodyJoint, value float64) (*Position, error) {
	info, err := f.w.Joint(ref)
	if err != nil {
		return nil, err
	}
	return f.build(ref, info, value), nil
}

// AtMax returns the joint at its upper limit.
func (f *Factory) AtMax(ref world.BodyJoint) (*Position, error) {
	info, err := f.w.Joint(ref)
	if err != nil {
		return nil, err
	}
	return f.build(ref, info, info.Limit.Max), nil
}

// AtMin returns the joint at its lower limit.
func (f *Factory) AtMin(ref world.BodyJoint) (*Position, error) {
	info, err := f.w.Joint(ref)
	if err != nil {
		return nil, err
	}
	return f.build(ref, info, info.Limit.Min), nil
}

// Open returns the position opening the joint by extent, a fraction in [0, 1]. Doors open
// proportionally; drawers and switches go to their upper limit. Fixed joints keep their value.
func (f *Factory) Open(ref world.BodyJoint, extent float64) (*Position, error) {
	if extent < 0 || extent > 1 {
		return nil, NewBadExtentError(extent)
	}
	cur, err := f.Current(ref)
	if err != nil {
		return nil, err
	}
	lim := cur.Info.Limit
	switch cur.Category() {
	case DoorMax:
		return f.build(ref, cur.Info, lim.Max*extent), nil
	case DoorMin:
		return f.build(ref, cur.Info, lim.Min*extent), nil
	case Drawer, Switch:
		return f.build(ref, cur.Info, lim.Max), nil
	case Fixed:
	}
	return cur, nil
}

// Close returns the closed position: the upper limit for door-min joints, the lower limit otherwise.
// Fixed joints keep their value.
func (f *Factory) Close(ref world.BodyJoint) (*Position, error) {
	cur, err := f.Current(ref)
	if err != nil {
		return nil, err
	}
	lim := cur.Info.Limit
	switch cur.Category() {
	case DoorMin:
		return f.build(ref, cur.Info, lim.Max), nil
	case DoorMax, Drawer, Switch:
		return f.build(ref, cur.Info, lim.Min), nil
	case Fixed:
	}
	return cur, nil
}

// Toggle fully opens a closed joint and closes any other.
func (f *Factory) Toggle(ref world.BodyJoint) (*Position, error) {
	_, state, err := CheckJointState(f.w, ref)
	if err != nil {
		return nil, err
	}
	if IsClosed(state) {
		return f.Open(ref, 1)
	}
	return f.Close(ref)
}

// Flip sends a joint at one limit to the other. Middle values are returned unchanged.
func (f *Factory) Flip(p *Position) *Position {
	switch p.Extent() {
	case ExtentMax:
		return f.build(p.Ref(), p.Info, p.Info.Limit.Min)
	case ExtentMin:
		return f.build(p.Ref(), p.Info, p.Info.Limit.Max)
	case ExtentMiddle:
	}
	return p
}

// OpenCandidates proposes positions that change a joint's state from p. A joint at a limit proposes
// the other limit. Doors with a wide swing, or left partially open, additionally propose n angles
// a little past a right angle from the closed position, plus WideOpenAngle. Door angles may exceed
// the joint limits.
func (f *Factory) OpenCandidates(p *Position, n int) []*Position {
	var out []*Position
	switch p.Extent() {
	case ExtentMax, ExtentMin:
		out = append(out, f.Flip(p))
	case ExtentMiddle:
	}

	lim := p.Info.Limit
	cat := p.Category()
	if cat != DoorMax && cat != DoorMin {
		return out
	}
	if lim.Range() <= math.Pi/2 && p.Extent() != ExtentMiddle {
		return out
	}
	// door-min joints open towards negative angles
	sign, closed := 1.0, lim.Min
	if cat == DoorMin {
		sign, closed = -1.0, lim.Max
	}
	for i := 0; i < n; i++ {
		value := closed + sign*(math.Pi/2+f.rng.Float64()*math.Pi/8)
		out = append(out, f.build(p.Ref(), p.Info, value))
	}
	out = append(out, f.build(p.Ref(), p.Info, sign*WideOpenAngle))
	return out
}
