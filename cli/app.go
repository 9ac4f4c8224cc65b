// Package cli contains the tamp command line tool: sampling and joint inspection against a JSON
// scene.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// CLI flags.
const (
	sceneFlag     = "scene"
	seedFlag      = "seed"
	trialsFlag    = "trials"
	debugFlag     = "debug"
	logFileFlag   = "log-file"
	objectFlag    = "object"
	surfaceFlag   = "surface"
	spaceFlag     = "space"
	containerFlag = "container"
	countFlag     = "count"
	xyOnlyFlag    = "xy-only"
	bodyFlag      = "body"
	goalXFlag     = "x"
	goalYFlag     = "y"
	goalZFlag     = "z"
	maxDistFlag   = "max-distance"
	openFlag      = "open-samples"

	defaultScene = "world/fake/data/kitchen.json"
)

var app = &cli.App{
	Name:            "tamp",
	Usage:           "sample object placements and inspect articulated bodies in a scene",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    sceneFlag,
			Aliases: []string{"s"},
			Value:   defaultScene,
			Usage:   "load the scene from `FILE`",
		},
		&cli.IntFlag{
			Name:  seedFlag,
			Usage: "random seed for the samplers (overrides TAMP_RANDOM_SEED)",
		},
		&cli.IntFlag{
			Name:  trialsFlag,
			Usage: "rejection trials per sample (overrides TAMP_NUM_TRIALS)",
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  logFileFlag,
			Usage: "also write logs to `FILE`, rotated by size",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "place",
			Usage:     "sample placements of an object on a surface",
			UsageText: "tamp place --object <name> --surface <name>[:link] [--count N]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: objectFlag, Required: true, Usage: "body to place"},
				&cli.StringFlag{Name: surfaceFlag, Required: true, Usage: "body or body:link to place on"},
				&cli.IntFlag{Name: countFlag, Value: 1, Usage: "number of placements"},
			},
			Action: PlaceAction,
		},
		{
			Name:      "contain",
			Usage:     "sample poses of an object inside a space",
			UsageText: "tamp contain --object <name> --space <name>[:link] [--xy-only]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: objectFlag, Required: true, Usage: "body to put away"},
				&cli.StringFlag{Name: spaceFlag, Required: true, Usage: "body or body:link to put it in"},
				&cli.BoolFlag{Name: xyOnlyFlag, Usage: "only require the footprint to fit"},
			},
			Action: ContainAction,
		},
		{
			Name:      "drop",
			Usage:     "sample a resting pose of an object on the floor of a container",
			UsageText: "tamp drop --object <name> --container <name>[:link]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: objectFlag, Required: true, Usage: "body to drop"},
				&cli.StringFlag{Name: containerFlag, Required: true, Usage: "body or body:link to drop into"},
			},
			Action: DropAction,
		},
		{
			Name:      "joints",
			Usage:     "list the joints of a body with their category and state",
			UsageText: "tamp joints [--body <name>]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: bodyFlag, Usage: "body to inspect; all articulated bodies when omitted"},
			},
			Action: JointsAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of scene files",
			Action: SchemaAction,
		},
		{
			Name:      "alternate",
			Usage:     "find joint toggles that clear a goal pose for an object",
			UsageText: "tamp alternate --object <name> --x X --y Y --z Z",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: objectFlag, Required: true, Usage: "body to move"},
				&cli.Float64Flag{Name: goalXFlag, Required: true},
				&cli.Float64Flag{Name: goalYFlag, Required: true},
				&cli.Float64Flag{Name: goalZFlag, Required: true},
				&cli.Float64Flag{Name: maxDistFlag, Usage: "ignore joints whose handle is farther than this from the goal"},
				&cli.IntFlag{Name: openFlag, Usage: "try this many sampled door angles instead of a plain toggle"},
			},
			Action: AlternateAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
