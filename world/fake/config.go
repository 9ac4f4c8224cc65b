package fake

import (
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/referenceframe"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/world"
)

// SceneConfig describes a world as JSON.
type SceneConfig struct {
	Bodies []BodyConfig `json:"bodies"`
}

// BodyConfig describes one body.
type BodyConfig struct {
	Name   string        `json:"name"`
	Pose   PoseConfig    `json:"pose"`
	Shapes []ShapeConfig `json:"shapes,omitempty"`
	Links  []LinkConfig  `json:"links,omitempty"`
	Groups []GroupConfig `json:"groups,omitempty"`
}

// PoseConfig is a position plus roll/pitch/yaw in radians.
type PoseConfig struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Roll  float64 `json:"roll,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`
	Yaw   float64 `json:"yaw,omitempty"`
}

// VectorConfig is a 3-vector.
type VectorConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ShapeConfig is a box on a link.
type ShapeConfig struct {
	Offset   PoseConfig   `json:"offset"`
	HalfSize VectorConfig `json:"half_size"`
}

// LinkConfig describes a link. An empty parent means the base link.
type LinkConfig struct {
	Name   string        `json:"name"`
	Parent string        `json:"parent,omitempty"`
	Origin PoseConfig    `json:"origin"`
	Joint  *JointConfig  `json:"joint,omitempty"`
	Shapes []ShapeConfig `json:"shapes,omitempty"`
}

// JointConfig describes the joint moving a link.
type JointConfig struct {
	Name  string       `json:"name"`
	Type  string       `json:"type"`
	Axis  VectorConfig `json:"axis"`
	Min   float64      `json:"min"`
	Max   float64      `json:"max"`
	Value float64      `json:"value,omitempty"`
}

// GroupConfig is a named list of joint names.
type GroupConfig struct {
	Name   string   `json:"name"`
	Joints []string `json:"joints"`
}

// ReadSceneFile reads and validates a scene file. ${VAR} references are expanded from the
// environment first.
func ReadSceneFile(path string) (*SceneConfig, error) {
	data, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scene file")
	}
	var cfg SceneConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse scene file %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SceneSchema returns the JSON schema of scene files.
func SceneSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&SceneConfig{})
}

// Validate checks names, references and dimensions, reporting every problem found.
func (cfg *SceneConfig) Validate() error {
	var errs error
	bodyNames := map[string]bool{}
	for i, b := range cfg.Bodies {
		if b.Name == "" {
			errs = multierr.Append(errs, errors.Errorf("bodies.%d: name is required", i))
		} else if bodyNames[b.Name] {
			errs = multierr.Append(errs, errors.Errorf("bodies.%d: duplicate body name %q", i, b.Name))
		}
		bodyNames[b.Name] = true
		errs = multierr.Append(errs, b.validate(i))
	}
	return errs
}

func (b *BodyConfig) validate(i int) error {
	var errs error
	errs = multierr.Append(errs, validateShapes(b.Shapes))
	links := map[string]bool{}
	joints := map[string]bool{}
	for j, l := range b.Links {
		if l.Name == "" {
			errs = multierr.Append(errs, errors.Errorf("bodies.%d.links.%d: name is required", i, j))
		} else if links[l.Name] {
			errs = multierr.Append(errs, errors.Errorf("bodies.%d.links.%d: duplicate link name %q", i, j, l.Name))
		}
		if l.Parent != "" && !links[l.Parent] {
			errs = multierr.Append(errs, errors.Errorf("bodies.%d.links.%d: parent %q must be declared before its children", i, j, l.Parent))
		}
		links[l.Name] = true
		errs = multierr.Append(errs, validateShapes(l.Shapes))
		if l.Joint == nil {
			continue
		}
		switch world.JointType(l.Joint.Type) {
		case world.Revolute, world.Prismatic, world.Fixed:
		default:
			errs = multierr.Append(errs, errors.Errorf("bodies.%d.links.%d: unknown joint type %q", i, j, l.Joint.Type))
		}
		if l.Joint.Name == "" {
			errs = multierr.Append(errs, errors.Errorf("bodies.%d.links.%d: joint name is required", i, j))
		}
		joints[l.Joint.Name] = true
	}
	for g, grp := range b.Groups {
		for _, name := range grp.Joints {
			if !joints[name] {
				errs = multierr.Append(errs, errors.Errorf("bodies.%d.groups.%d: unknown joint %q", i, g, name))
			}
		}
	}
	return errs
}

func validateShapes(shapes []ShapeConfig) error {
	var errs error
	for _, s := range shapes {
		hs := s.HalfSize.vector()
		if hs.X < 0 || hs.Y < 0 || hs.Z < 0 {
			errs = multierr.Append(errs, spatialmath.NewBadGeometryDimensionsError(hs.Mul(2)))
		}
	}
	return errs
}

// NewWorldFromConfig builds a world from a validated scene.
func NewWorldFromConfig(cfg *SceneConfig, logger logging.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := NewWorld(logger)
	for _, bc := range cfg.Bodies {
		id := w.AddBody(bc.Name, bc.Pose.pose(), shapes(bc.Shapes)...)
		linkIDs := map[string]world.LinkID{}
		jointIDs := map[string]world.JointID{}
		for _, lc := range bc.Links {
			spec := LinkSpec{Name: lc.Name, Parent: world.BaseLink, Origin: lc.Origin.pose(), Shapes: shapes(lc.Shapes)}
			if lc.Parent != "" {
				spec.Parent = linkIDs[lc.Parent]
			}
			if jc := lc.Joint; jc != nil {
				spec.Joint = &JointSpec{
					Name:  jc.Name,
					Type:  world.JointType(jc.Type),
					Axis:  jc.Axis.vector(),
					Limit: referenceframe.Limit{Min: jc.Min, Max: jc.Max},
					Value: jc.Value,
				}
			}
			lid, err := w.AddLink(id, spec)
			if err != nil {
				return nil, errors.Wrapf(err, "body %q link %q", bc.Name, lc.Name)
			}
			linkIDs[lc.Name] = lid
			if lc.Joint != nil {
				jointIDs[lc.Joint.Name] = world.JointID(lid)
			}
		}
		for _, gc := range bc.Groups {
			joints := make([]world.JointID, 0, len(gc.Joints))
			for _, name := range gc.Joints {
				joints = append(joints, jointIDs[name])
			}
			if err := w.AddGroup(id, gc.Name, joints...); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

func (pc PoseConfig) pose() spatialmath.Pose {
	return spatialmath.NewPose(
		r3.Vector{X: pc.X, Y: pc.Y, Z: pc.Z},
		&spatialmath.EulerAngles{Roll: pc.Roll, Pitch: pc.Pitch, Yaw: pc.Yaw},
	)
}

func (vc VectorConfig) vector() r3.Vector {
	return r3.Vector{X: vc.X, Y: vc.Y, Z: vc.Z}
}

func shapes(cfgs []ShapeConfig) []Shape {
	out := make([]Shape, 0, len(cfgs))
	for _, sc := range cfgs {
		out = append(out, Shape{Offset: sc.Offset.pose(), HalfSize: sc.HalfSize.vector()})
	}
	return out
}
