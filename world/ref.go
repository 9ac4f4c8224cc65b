// Package world defines how the planning core sees the simulated world: identifiers for bodies,
// links and joints, the geometry provider and collision oracle it consumes, and the body-bound
// pose values it produces.
package world

import "fmt"

// BodyID identifies a body owned by the simulated world.
type BodyID int

// LinkID identifies a link within a body. BaseLink is the body's root.
type LinkID int

// JointID identifies a joint within a body. A joint shares its index with the link it moves.
type JointID int

// BaseLink is the root link of every body.
const BaseLink LinkID = -1

// BodyRef is a reference to a whole body, one of its links, or one of its joints.
// It is resolved once at construction; callers switch on the concrete type.
type BodyRef interface {
	fmt.Stringer
	Body() BodyID
	isBodyRef()
}

// BodyLink references a single link of a body.
type BodyLink struct {
	ID   BodyID
	Link LinkID
}

// BodyJoint references a single joint of a body.
type BodyJoint struct {
	ID    BodyID
	Joint JointID
}

// Body returns the body itself.
func (b BodyID) Body() BodyID { return b }

func (b BodyID) String() string { return fmt.Sprintf("%d", int(b)) }

func (BodyID) isBodyRef() {}

// Body returns the body owning the link.
func (bl BodyLink) Body() BodyID { return bl.ID }

func (bl BodyLink) String() string { return fmt.Sprintf("(%d, link %d)", bl.ID, bl.Link) }

func (BodyLink) isBodyRef() {}

// Body returns the body owning the joint.
func (bj BodyJoint) Body() BodyID { return bj.ID }

func (bj BodyJoint) String() string { return fmt.Sprintf("(%d, joint %d)", bj.ID, bj.Joint) }

func (BodyJoint) isBodyRef() {}

// ChildLink returns the link moved by the joint.
func (bj BodyJoint) ChildLink() LinkID { return LinkID(bj.Joint) }

// RefLess orders refs by body, then by kind (body, link, joint), then by index.
func RefLess(a, b BodyRef) bool {
	if a.Body() != b.Body() {
		return a.Body() < b.Body()
	}
	ka, ia := refKey(a)
	kb, ib := refKey(b)
	if ka != kb {
		return ka < kb
	}
	return ia < ib
}

func refKey(r BodyRef) (int, int) {
	switch v := r.(type) {
	case BodyLink:
		return 1, int(v.Link)
	case BodyJoint:
		return 2, int(v.Joint)
	default:
		return 0, 0
	}
}
