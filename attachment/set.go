package attachment

import (
	"sort"

	"github.com/samber/lo"

	"go.viam.com/tamp/world"
)

// Set holds at most one attachment per child body: a joint attachment and a rigid one on the same
// body replace each other. Sets are values: With and Without return new sets and never modify the
// receiver.
type Set struct {
	byChild map[world.BodyID]*Attachment
}

// NewSet builds a set; later attachments for the same child body replace earlier ones.
func NewSet(atts ...*Attachment) Set {
	m := make(map[world.BodyID]*Attachment, len(atts))
	for _, a := range atts {
		m[a.ChildBody()] = a
	}
	return Set{byChild: m}
}

// Len returns the number of attachments.
func (s Set) Len() int {
	return len(s.byChild)
}

// Get returns the attachment of child's body.
func (s Set) Get(child world.BodyRef) (*Attachment, bool) {
	a, ok := s.byChild[child.Body()]
	return a, ok
}

// With returns a set where a replaces any attachment of the same child body.
func (s Set) With(a *Attachment) Set {
	return Set{byChild: lo.Assign(s.byChild, map[world.BodyID]*Attachment{a.ChildBody(): a})}
}

// Without returns a set with the attachment of child's body removed. It is a no-op when that body
// is not attached.
func (s Set) Without(child world.BodyRef) Set {
	if _, ok := s.byChild[child.Body()]; !ok {
		return s
	}
	return Set{byChild: lo.OmitByKeys(s.byChild, []world.BodyID{child.Body()})}
}

// Children lists attached children in a stable order.
func (s Set) Children() []world.BodyRef {
	children := lo.MapToSlice(s.byChild, func(_ world.BodyID, a *Attachment) world.BodyRef { return a.Child })
	sort.Slice(children, func(i, j int) bool { return world.RefLess(children[i], children[j]) })
	return children
}

// All lists attachments ordered so that a parent that is itself attached is assigned before its
// children.
func (s Set) All() []*Attachment {
	bodies := s.Bodies()
	placed := map[world.BodyID]bool{}
	out := make([]*Attachment, 0, len(bodies))
	var visit func(a *Attachment)
	visit = func(a *Attachment) {
		if placed[a.ChildBody()] {
			return
		}
		placed[a.ChildBody()] = true
		// an attached parent moves first
		if parent, ok := s.byChild[a.Parent]; ok {
			visit(parent)
		}
		out = append(out, a)
	}
	for _, b := range bodies {
		visit(s.byChild[b])
	}
	return out
}

// Bodies returns the attached child bodies in increasing id order.
func (s Set) Bodies() []world.BodyID {
	bodies := lo.Keys(s.byChild)
	sort.Slice(bodies, func(i, j int) bool { return bodies[i] < bodies[j] })
	return bodies
}
