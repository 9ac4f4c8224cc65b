package joint

import (
	"strings"

	"go.viam.com/tamp/world"
)

// Category is the kind of articulated object a joint belongs to.
type Category string

// Joint categories.
const (
	DoorMax Category = "door-max"
	DoorMin Category = "door-min"
	Switch  Category = "switch"
	Drawer  Category = "drawer"
	Fixed   Category = "fixed"
)

// FixedState is the state of a joint that cannot move.
const FixedState = "fixed joint"

// CategoryOf derives a joint's category from its type and limits. A joint whose lower limit is not
// below its upper limit is fixed.
func CategoryOf(info world.JointInfo) Category {
	lim := info.Limit
	if !lim.Valid() {
		return Fixed
	}
	switch info.Type {
	case world.Revolute:
		switch {
		case lim.Min == 0:
			return DoorMax
		case lim.Max == 0:
			return DoorMin
		case lim.Min+lim.Max == 0:
			return Switch
		}
	case world.Prismatic:
		return Drawer
	case world.Fixed:
	}
	return Fixed
}

// StateOf describes a joint at value, e.g. "door OPENED partially". A switch that is neither
// off nor on has an empty state.
func StateOf(info world.JointInfo, value float64) string {
	lim := info.Limit
	switch CategoryOf(info) {
	case DoorMax:
		return openState("door", value, lim.Max, lim.Min)
	case DoorMin:
		return openState("door", value, lim.Min, lim.Max)
	case Drawer:
		return openState("drawer", value, lim.Max, lim.Min)
	case Switch:
		switch value {
		case lim.Min:
			return "switch TURNED OFF"
		case lim.Max:
			return "switch TURNED ON"
		}
		// a switch between its stops has no state
		return ""
	case Fixed:
	}
	return FixedState
}

func openState(noun string, value, open, closed float64) string {
	switch value {
	case open:
		return noun + " OPENED fully"
	case closed:
		return noun + " CLOSED"
	default:
		return noun + " OPENED partially"
	}
}

// IsClosed reports whether a state label describes a closed or switched off joint.
func IsClosed(state string) bool {
	return strings.HasSuffix(state, "CLOSED") || strings.HasSuffix(state, "TURNED OFF")
}

// CheckJointState returns the category and state of a joint at its current value.
func CheckJointState(w world.Provider, ref world.BodyJoint) (Category, string, error) {
	info, err := w.Joint(ref)
	if err != nil {
		return "", "", err
	}
	value, err := w.JointPosition(ref)
	if err != nil {
		return "", "", err
	}
	return CategoryOf(info), StateOf(info, value), nil
}

// Summary is the category and state of one joint.
type Summary struct {
	Joint    world.BodyJoint
	Name     string
	Category Category
	State    string
	Value    float64
}

// Summarize reports every joint of a body.
func Summarize(w world.Provider, body world.BodyID) ([]Summary, error) {
	joints, err := w.Joints(body)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(joints))
	for _, j := range joints {
		ref := world.BodyJoint{ID: body, Joint: j}
		info, err := w.Joint(ref)
		if err != nil {
			return nil, err
		}
		value, err := w.JointPosition(ref)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{
			Joint:    ref,
			Name:     info.Name,
			Category: CategoryOf(info),
			State:    StateOf(info, value),
			Value:    value,
		})
	}
	return summaries, nil
}
