// Package attachment tracks kinematic attachments: grasped or stacked bodies that ride on a parent
// link, and articulated joints that follow a parent's configuration.
package attachment

import (
	"fmt"

	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// Kind distinguishes the ways a child can depend on its parent.
type Kind int

const (
	// KindGrasp is a body held rigidly by a robot link.
	KindGrasp Kind = iota
	// KindObject is a body resting rigidly on another body.
	KindObject
	// KindJoint is a joint driven by the parent's configuration, e.g. a drawer pulled by a gripper.
	KindJoint
)

func (k Kind) String() string {
	switch k {
	case KindGrasp:
		return "grasp"
	case KindObject:
		return "object"
	case KindJoint:
		return "joint"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Attachment is a parent to child relation. Grasp is the child pose relative to the parent link,
// fixed when the attachment is made. Child is a world.BodyID for rigid attachments and a
// world.BodyJoint for joint attachments.
type Attachment struct {
	Parent     world.BodyID
	ParentLink world.LinkID
	Grasp      spatialmath.Pose
	Child      world.BodyRef
	ChildLink  world.LinkID
	Kind       Kind
	Memo       *JointMemo
}

// ChildBody returns the body the child belongs to.
func (a *Attachment) ChildBody() world.BodyID {
	return a.Child.Body()
}

// ParentRef returns the parent link as a reference.
func (a *Attachment) ParentRef() world.BodyLink {
	return world.BodyLink{ID: a.Parent, Link: a.ParentLink}
}

// Assign moves the child to follow the parent's current state. Rigid children are placed at
// parent_link_pose * grasp. Joint children take the remembered value for the parent's rounded
// configuration; when nothing is remembered the joint is left as it is.
func (a *Attachment) Assign(w world.Provider) error {
	switch child := a.Child.(type) {
	case world.BodyJoint:
		if a.Memo == nil {
			return nil
		}
		value, ok, err := a.Memo.Lookup(w, a.Parent)
		if err != nil || !ok {
			return err
		}
		return w.SetJointPosition(child, value)
	default:
		parentPose, err := w.LinkPose(a.Parent, a.ParentLink)
		if err != nil {
			return err
		}
		return w.SetPose(child.Body(), spatialmath.Compose(parentPose, a.Grasp))
	}
}

// Remember records the joint child's current value against the parent's current configuration.
// It does nothing for rigid attachments.
func (a *Attachment) Remember(w world.Provider) error {
	child, ok := a.Child.(world.BodyJoint)
	if !ok || a.Memo == nil {
		return nil
	}
	value, err := w.JointPosition(child)
	if err != nil {
		return err
	}
	return a.Memo.Record(w, a.Parent, value)
}

// Bodies returns every link kinematically implicated by the attachment: the child's subtree and
// the parent's subtree rooted at the parent link.
func (a *Attachment) Bodies(w world.Provider) ([]world.BodyLink, error) {
	childRoot := a.ChildLink
	if j, ok := a.Child.(world.BodyJoint); ok {
		childRoot = j.ChildLink()
	}
	childLinks, err := w.LinkSubtree(a.ChildBody(), childRoot)
	if err != nil {
		return nil, err
	}
	parentLinks, err := w.LinkSubtree(a.Parent, a.ParentLink)
	if err != nil {
		return nil, err
	}
	seen := map[world.BodyLink]bool{}
	var out []world.BodyLink
	add := func(body world.BodyID, links []world.LinkID) {
		for _, l := range links {
			bl := world.BodyLink{ID: body, Link: l}
			if !seen[bl] {
				seen[bl] = true
				out = append(out, bl)
			}
		}
	}
	add(a.ChildBody(), childLinks)
	add(a.Parent, parentLinks)
	return out, nil
}

// ApplyMapping returns a copy with parent and child bodies renamed through mapping. Bodies absent
// from mapping keep their id.
func (a *Attachment) ApplyMapping(mapping map[world.BodyID]world.BodyID) *Attachment {
	remap := func(b world.BodyID) world.BodyID {
		if to, ok := mapping[b]; ok {
			return to
		}
		return b
	}
	out := *a
	out.Parent = remap(a.Parent)
	switch child := a.Child.(type) {
	case world.BodyJoint:
		out.Child = world.BodyJoint{ID: remap(child.ID), Joint: child.Joint}
	case world.BodyLink:
		out.Child = world.BodyLink{ID: remap(child.ID), Link: child.Link}
	default:
		out.Child = remap(child.Body())
	}
	return &out
}

func (a *Attachment) String() string {
	return fmt.Sprintf("attachment(%s %v:%d -> %v)", a.Kind, a.Parent, a.ParentLink, a.Child)
}
