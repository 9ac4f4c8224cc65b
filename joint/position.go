// Package joint models scalar joint positions and the open/close policies of articulated objects
// such as doors, drawers and switches.
package joint

import (
	"fmt"

	"go.viam.com/tamp/referenceframe"
	"go.viam.com/tamp/utils"
	"go.viam.com/tamp/world"
)

// Extent classifies a joint value relative to its limits.
type Extent string

// The extents a value can have.
const (
	ExtentMax    Extent = "max"
	ExtentMin    Extent = "min"
	ExtentMiddle Extent = "middle"
)

// Position is a value of one joint. Values are immutable once built; the index is for debugging.
type Position struct {
	Body  world.BodyID
	Joint world.JointID
	Value float64
	Index int64
	Info  world.JointInfo
}

// Ref returns the joint the position is for.
func (p *Position) Ref() world.BodyJoint {
	return world.BodyJoint{ID: p.Body, Joint: p.Joint}
}

// Extent compares the value to the joint limits exactly.
func (p *Position) Extent() Extent {
	switch p.Value {
	case p.Info.Limit.Max:
		return ExtentMax
	case p.Info.Limit.Min:
		return ExtentMin
	default:
		return ExtentMiddle
	}
}

// Category returns the joint's category.
func (p *Position) Category() Category {
	return CategoryOf(p.Info)
}

// State returns the human readable state of the joint at this value.
func (p *Position) State() string {
	return StateOf(p.Info, p.Value)
}

// InRange reports whether the value lies within the joint limits.
func (p *Position) InRange() bool {
	return p.Info.Limit.Contains(p.Value)
}

// Input returns the value as a frame input.
func (p *Position) Input() referenceframe.Input {
	return referenceframe.Input{Value: p.Value}
}

// Assign sets the joint in the world to this value.
func (p *Position) Assign(w world.Provider) error {
	return w.SetJointPosition(p.Ref(), p.Value)
}

// Equal reports whether two positions set the same joint to the same value.
func (p *Position) Equal(other *Position) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Body == other.Body && p.Joint == other.Joint && p.Value == other.Value
}

func (p *Position) String() string {
	return fmt.Sprintf("pstn%d=%v", p.Index, utils.RoundTo(p.Value, 3))
}
