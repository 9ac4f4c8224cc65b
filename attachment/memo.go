package attachment

import (
	"go.viam.com/tamp/referenceframe"
	"go.viam.com/tamp/world"
)

// MemoPrecision is the number of decimals parent configurations are rounded to before lookup.
const MemoPrecision = 3

// JointMemo remembers joint values keyed by a parent's rounded group configurations. It stands in
// for solving inverse kinematics from the parent to the joint.
type JointMemo struct {
	entries map[string]map[string]float64
}

// NewJointMemo returns an empty memo.
func NewJointMemo() *JointMemo {
	return &JointMemo{entries: map[string]map[string]float64{}}
}

// Record stores value under the parent's current configuration of every joint group.
func (m *JointMemo) Record(w world.Provider, parent world.BodyID, value float64) error {
	groups, err := w.Groups(parent)
	if err != nil {
		return err
	}
	for _, g := range groups {
		inputs, err := w.GroupPositions(parent, g)
		if err != nil {
			return err
		}
		if m.entries[g] == nil {
			m.entries[g] = map[string]float64{}
		}
		m.entries[g][referenceframe.ConfigurationKey(inputs, MemoPrecision)] = value
	}
	return nil
}

// Lookup consults the parent's groups in order and returns the first remembered value matching the
// rounded current configuration.
func (m *JointMemo) Lookup(w world.Provider, parent world.BodyID) (float64, bool, error) {
	groups, err := w.Groups(parent)
	if err != nil {
		return 0, false, err
	}
	for _, g := range groups {
		byKey, ok := m.entries[g]
		if !ok {
			continue
		}
		inputs, err := w.GroupPositions(parent, g)
		if err != nil {
			return 0, false, err
		}
		if value, ok := byKey[referenceframe.ConfigurationKey(inputs, MemoPrecision)]; ok {
			return value, true, nil
		}
	}
	return 0, false, nil
}

// Len returns the number of remembered entries across groups.
func (m *JointMemo) Len() int {
	n := 0
	for _, byKey := range m.entries {
		n += len(byKey)
	}
	return n
}
