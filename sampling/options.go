package sampling

import (
	"math"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/tamp/logging"
	"go.viam.com/tamp/utils"
)

// default values for sampling options.
const (
	// Rejection trials for a single placement or containment sample.
	defaultNumTrials = 20

	// Trials budget for list samplers collecting several poses.
	defaultListTrials = 40

	// Poses returned by list samplers.
	defaultNumSamples = 3

	// Trials for hand-tuned override samplers.
	defaultOverrideTrials = 30

	// Attempts at drawing containment samples across several spaces.
	defaultMaxContainAttempts = 20

	// Height above a surface at which placed objects are set down.
	defaultPlacementEpsilon = 1e-3

	// Lift applied to a contained pose before the final collision recheck.
	defaultDropRecheckLift = 0.01

	defaultRandomSeed = 0
)

// DefaultDropSteps are the decreasing step sizes used when lowering an object into a container.
var DefaultDropSteps = []float64{0.1, 0.05, 0.01, 0.001}

// DefaultFixedYaws are yaws, keyed by container name substring, used instead of a random yaw when
// placing objects inside appliances that only open one way.
var DefaultFixedYaws = map[string]float64{
	"microwave": math.Pi,
	"toaster":   math.Pi / 2,
}

// Options configure the samplers.
type Options struct {
	// Rejection trials for a single sample.
	NumTrials int `json:"num_trials"`

	// Trials budget for list samplers.
	ListTrials int `json:"list_trials"`

	// Number of poses list samplers try to return.
	NumSamples int `json:"num_samples"`

	// Trials for override samplers.
	OverrideTrials int `json:"override_trials"`

	// Attempts for SampleContainmentList.
	MaxContainAttempts int `json:"max_contain_attempts"`

	// Objects closer than this to an obstacle count as colliding.
	MinDistance float64 `json:"min_distance"`

	// Gap left between a placed object and its surface.
	PlacementEpsilon float64 `json:"placement_epsilon"`

	// Strictly decreasing step sizes for SampleInteriorWithDrop.
	DropSteps []float64 `json:"drop_steps"`

	// Lift applied to a pose before the final collision recheck of contained samples.
	DropRecheckLift float64 `json:"drop_recheck_lift"`

	// Seed of the sampler's random source.
	RandomSeed int `json:"rseed"`

	// Only require the planar footprint of contained objects to be inside the space.
	XYOnly bool `json:"xy_only"`

	// Fixed yaws keyed by container name substring.
	FixedYaws map[string]float64 `json:"fixed_yaws"`
}

// NewBasicOptions returns the default options, with trial count and seed overridable through
// the TAMP_NUM_TRIALS and TAMP_RANDOM_SEED environment variables.
func NewBasicOptions() *Options {
	yaws := make(map[string]float64, len(DefaultFixedYaws))
	for k, v := range DefaultFixedYaws {
		yaws[k] = v
	}
	return &Options{
		NumTrials:          utils.GetenvIntLogged(utils.NumTrialsEnvVar, defaultNumTrials, logging.Global()),
		ListTrials:         defaultListTrials,
		NumSamples:         defaultNumSamples,
		OverrideTrials:     defaultOverrideTrials,
		MaxContainAttempts: defaultMaxContainAttempts,
		PlacementEpsilon:   defaultPlacementEpsilon,
		DropSteps:          append([]float64(nil), DefaultDropSteps...),
		DropRecheckLift:    defaultDropRecheckLift,
		RandomSeed:         utils.GetenvIntLogged(utils.RandomSeedEnvVar, defaultRandomSeed, logging.Global()),
		FixedYaws:          yaws,
	}
}

// NewOptionsFromExtra returns the default options overridden by the fields present in extra,
// keyed by their json names.
func NewOptionsFromExtra(extra map[string]interface{}) (*Options, error) {
	opts := NewBasicOptions()
	if len(extra) == 0 {
		return opts, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, errors.Wrap(err, "invalid sampling options")
	}
	return opts, opts.Validate()
}

// Validate checks that every budget is positive and that drop steps strictly decrease.
func (o *Options) Validate() error {
	if o.NumTrials <= 0 || o.ListTrials <= 0 || o.NumSamples <= 0 || o.OverrideTrials <= 0 || o.MaxContainAttempts <= 0 {
		return errors.New("sampling trial counts must be positive")
	}
	if o.MinDistance < 0 || o.PlacementEpsilon < 0 || o.DropRecheckLift < 0 {
		return errors.New("sampling distances must be non-negative")
	}
	if len(o.DropSteps) == 0 {
		return errors.New("drop_steps must not be empty")
	}
	for i, step := range o.DropSteps {
		if step <= 0 || (i > 0 && step >= o.DropSteps[i-1]) {
			return errors.Errorf("drop_steps must be positive and strictly decreasing, got %v", o.DropSteps)
		}
	}
	return nil
}
