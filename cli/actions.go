package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/tamp/joint"
	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/sampling"
	"go.viam.com/tamp/spatialmath"
	"go.viam.com/tamp/utils"
	"go.viam.com/tamp/wconf"
	"go.viam.com/tamp/world"
	"go.viam.com/tamp/world/fake"
)

// session is the state shared by every command: the scene loaded into a world, and a sampler over it.
type session struct {
	w       *fake.World
	counter *world.Counter
	opts    *sampling.Options
	sampler *sampling.Sampler
	logger  logging.Logger
	logFile io.Closer
	errOut  io.Writer
}

func newSession(cCtx *cli.Context) (*session, error) {
	logger := logging.NewBlankLogger("tamp")
	logger.AddAppender(logging.NewWriterAppender(cCtx.App.ErrWriter))
	logger.SetLevel(logging.INFO)
	if cCtx.Bool(debugFlag) {
		logger.SetLevel(logging.DEBUG)
	}
	var logFile io.Closer
	if path := cCtx.String(logFileFlag); path != "" {
		var appender logging.ConsoleAppender
		appender, logFile = logging.NewFileAppender(path)
		logger.AddAppender(appender)
	}
	logging.ReplaceGlobal(logger)

	path := cCtx.String(sceneFlag)
	cfg, err := fake.ReadSceneFile(path)
	if err != nil {
		return nil, multierr.Combine(err, closeIfSet(logFile))
	}
	w, err := fake.NewWorldFromConfig(cfg, logger.Sublogger("world"))
	if err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "invalid scene %q", path), closeIfSet(logFile))
	}

	opts := sampling.NewBasicOptions()
	if cCtx.IsSet(seedFlag) {
		opts.RandomSeed = cCtx.Int(seedFlag)
	}
	if cCtx.IsSet(trialsFlag) {
		opts.NumTrials = cCtx.Int(trialsFlag)
	}
	counter := world.NewCounter()
	sampler, err := sampling.NewSampler(w, counter, opts, logger.Sublogger("sampling"))
	if err != nil {
		return nil, multierr.Combine(err, closeIfSet(logFile))
	}
	return &session{
		w:       w,
		counter: counter,
		opts:    opts,
		sampler: sampler,
		logger:  logger,
		logFile: logFile,
		errOut:  cCtx.App.ErrWriter,
	}, nil
}

func (s *session) close() {
	if s.logFile == nil {
		return
	}
	if err := s.logFile.Close(); err != nil {
		warningf(s.errOut, "failed to close log file: %v", err)
	}
}

func closeIfSet(c io.Closer) error {
	if c == nil {
		return nil
	}
	return c.Close()
}

// body resolves a body by name.
func (s *session) body(name string) (world.BodyID, error) {
	id, ok := s.w.BodyByName(name)
	if !ok {
		return 0, errors.Errorf("no body named %q in scene", name)
	}
	return id, nil
}

// ref resolves "body" to the body and "body:link" to one of its links.
func (s *session) ref(name string) (world.BodyRef, error) {
	bodyName, linkName, hasLink := strings.Cut(name, ":")
	id, err := s.body(bodyName)
	if err != nil {
		return nil, err
	}
	if !hasLink {
		return id, nil
	}
	link, ok := s.w.LinkByName(id, linkName)
	if !ok {
		return nil, errors.Errorf("body %q has no link named %q", bodyName, linkName)
	}
	return world.BodyLink{ID: id, Link: link}, nil
}

// obstacles is every body of the scene except the excluded ones. The body of a link region is
// split into its other links so they still count.
func (s *session) obstacles(region world.BodyRef, exclude ...world.BodyID) ([]world.BodyRef, error) {
	bodies := lo.Reject(s.w.Bodies(), func(b world.BodyID, _ int) bool { return lo.Contains(exclude, b) })
	out := lo.Map(bodies, func(b world.BodyID, _ int) world.BodyRef { return b })
	rl, ok := region.(world.BodyLink)
	if !ok {
		return out, nil
	}
	links, err := s.w.LinkSubtree(rl.ID, world.BaseLink)
	if err != nil {
		return nil, err
	}
	out = lo.Reject(out, func(b world.BodyRef, _ int) bool { return b == world.BodyRef(rl.ID) })
	for _, l := range links {
		if l != rl.Link {
			out = append(out, world.BodyLink{ID: rl.ID, Link: l})
		}
	}
	return out, nil
}

func (s *session) printPoses(cCtx *cli.Context, what string, poses ...*world.Pose) {
	if len(poses) == 0 {
		warningf(cCtx.App.ErrWriter, "no feasible %s found within %d trials", what, s.opts.NumTrials)
		return
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Pose", "Object", "Support", "Inside", "On"})
	for _, p := range poses {
		name, err := s.w.Name(p.Body)
		if err != nil {
			name = p.Body.String()
		}
		inside, on := "", ""
		if p.Support != nil {
			in, isOn, err := s.relations(p)
			if err != nil {
				s.logger.Warnw("cannot relate pose to its support", "pose", p, "support", p.Support, "error", err)
				inside, on = "error", "error"
			} else {
				inside, on = fmt.Sprint(in), fmt.Sprint(isOn)
			}
		}
		t.AppendRow(table.Row{p.String(), name, p.Support, inside, on})
	}
	printf(cCtx.App.Writer, "%s", t.Render())
}

// relations puts the pose's body at the pose and reports whether it is inside and on its support.
func (s *session) relations(p *world.Pose) (bool, bool, error) {
	if err := p.Assign(s.w); err != nil {
		return false, false, err
	}
	in, err := sampling.IsContained(s.w, p.Body, p.Support)
	if err != nil {
		return false, false, err
	}
	on, err := sampling.IsOn(s.w, p.Body, p.Support)
	return in, on, err
}

// PlaceAction samples placements of an object on a surface.
func PlaceAction(cCtx *cli.Context) error {
	s, err := newSession(cCtx)
	if err != nil {
		return err
	}
	defer s.close()
	obj, err := s.body(cCtx.String(objectFlag))
	if err != nil {
		return err
	}
	surface, err := s.ref(cCtx.String(surfaceFlag))
	if err != nil {
		return err
	}
	obstacles, err := s.obstacles(surface, obj)
	if err != nil {
		return err
	}
	if n := cCtx.Int(countFlag); n > 1 {
		poses, err := s.sampler.SampleKPlacements(obj, []world.BodyRef{surface}, obstacles, n, s.opts.ListTrials)
		if err != nil {
			return err
		}
		s.printPoses(cCtx, "placement", poses...)
		return nil
	}
	pose, ok, err := s.sampler.SamplePlacementOnSurface(obj, surface, obstacles, s.opts.MinDistance)
	if err != nil {
		return err
	}
	if !ok {
		s.printPoses(cCtx, "placement")
		return nil
	}
	s.printPoses(cCtx, "placement", pose)
	return nil
}

// ContainAction samples a pose of an object inside a space.
func ContainAction(cCtx *cli.Context) error {
	s, err := newSession(cCtx)
	if err != nil {
		return err
	}
	defer s.close()
	obj, err := s.body(cCtx.String(objectFlag))
	if err != nil {
		return err
	}
	space, err := s.ref(cCtx.String(spaceFlag))
	if err != nil {
		return err
	}
	obstacles, err := s.obstacles(space, obj)
	if err != nil {
		return err
	}
	pose, ok, err := s.sampler.SampleContainment(obj, space, obstacles, cCtx.Bool(xyOnlyFlag))
	if err != nil {
		return err
	}
	if !ok {
		s.printPoses(cCtx, "containment")
		return nil
	}
	s.printPoses(cCtx, "containment", pose)
	return nil
}

// DropAction samples a pose of an object resting on the floor of a container.
func DropAction(cCtx *cli.Context) error {
	s, err := newSession(cCtx)
	if err != nil {
		return err
	}
	defer s.close()
	obj, err := s.body(cCtx.String(objectFlag))
	if err != nil {
		return err
	}
	container, err := s.ref(cCtx.String(containerFlag))
	if err != nil {
		return err
	}
	obstacles, err := s.obstacles(container, obj)
	if err != nil {
		return err
	}
	pose, ok, err := s.sampler.SampleInteriorWithDrop(obj, container, obstacles)
	if err != nil {
		return err
	}
	if !ok {
		s.printPoses(cCtx, "drop")
		return nil
	}
	s.printPoses(cCtx, "drop", pose)
	return nil
}

// JointsAction lists the joints of one or every body.
func JointsAction(cCtx *cli.Context) error {
	s, err := newSession(cCtx)
	if err != nil {
		return err
	}
	defer s.close()
	bodies := s.w.Bodies()
	if name := cCtx.String(bodyFlag); name != "" {
		id, err := s.body(name)
		if err != nil {
			return err
		}
		bodies = []world.BodyID{id}
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Body", "Joint", "Category", "State", "Value"})
	for _, b := range bodies {
		summaries, err := joint.Summarize(s.w, b)
		if err != nil {
			return err
		}
		name, err := s.w.Name(b)
		if err != nil {
			return err
		}
		for _, sum := range summaries {
			value := fmt.Sprintf("%.3f", sum.Value)
			switch sum.Category {
			case joint.DoorMax, joint.DoorMin, joint.Switch:
				value += fmt.Sprintf(" (%.1f deg)", utils.RadToDeg(sum.Value))
			case joint.Drawer, joint.Fixed:
			}
			t.AppendRow(table.Row{name, sum.Name, sum.Category, sum.State, value})
		}
	}
	printf(cCtx.App.Writer, "%s", t.Render())
	return nil
}

// SchemaAction prints the JSON schema of scene files.
func SchemaAction(cCtx *cli.Context) error {
	out, err := json.MarshalIndent(fake.SceneSchema(), "", "  ")
	if err != nil {
		return err
	}
	printf(cCtx.App.Writer, "%s", out)
	return nil
}

// AlternateAction searches for single joint toggles after which the object can sit at the goal.
func AlternateAction(cCtx *cli.Context) error {
	s, err := newSession(cCtx)
	if err != nil {
		return err
	}
	defer s.close()
	obj, err := s.body(cCtx.String(objectFlag))
	if err != nil {
		return err
	}
	goal := wconf.ReachGoal{
		Object: obj,
		Pose: world.NewPose(s.counter, obj, spatialmath.NewPoseFromPoint(r3.Vector{
			X: cCtx.Float64(goalXFlag),
			Y: cCtx.Float64(goalYFlag),
			Z: cCtx.Float64(goalZFlag),
		}), nil),
	}
	obstacles, err := s.obstacles(nil, obj)
	if err != nil {
		return err
	}
	oracle := &wconf.ClearanceOracle{World: s.w, Obstacles: obstacles, MinDistance: s.opts.MinDistance}
	//nolint:gosec
	factory := joint.NewFactory(s.w, s.counter, rand.New(rand.NewSource(int64(s.opts.RandomSeed))))
	current := wconf.New(s.counter, nil, nil)

	alts, err := wconf.SampleAlternateWorld(cCtx.Context, s.w, factory, current, goal, oracle,
		wconf.AlternateOptions{MaxDistance: cCtx.Float64(maxDistFlag), OpenSamples: cCtx.Int(openFlag)},
		s.logger.Sublogger("alternate"))
	if err != nil {
		return err
	}
	if len(alts) == 0 {
		warningf(cCtx.App.ErrWriter, "no single joint toggle clears %v", goal.Pose)
		return nil
	}
	infof(cCtx.App.Writer, "%d alternate world(s) for %v", len(alts), goal.Pose)
	for _, alt := range alts {
		printf(cCtx.App.Writer, "%s", alt.WConf.Printout(s.w, alt.Joint.ID))
	}
	return nil
}
