package referenceframe

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/tamp/utils"
)

// Input wraps the input to a mutable frame, e.g. a joint angle or a drawer extension.
//   - revolute inputs should be in radians.
//   - prismatic inputs should be in meters.
type Input struct {
	Value float64
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, f := range inputs {
		floats[i] = f.Value
	}
	return floats
}

// InterpolateInputs will return a set of inputs that are the specified percent between the two given sets of
// inputs. For example, setting by to 0.5 will return the inputs halfway between the from/to values, and 0.25 would
// return one quarter of the way from "from" to "to".
func InterpolateInputs(from, to []Input, by float64) []Input {
	var newVals []Input
	for i, j1 := range from {
		newVals = append(newVals, Input{j1.Value + ((to[i].Value - j1.Value) * by)})
	}
	return newVals
}

// InputsL2Distance returns the two-norm between two Input sets.
func InputsL2Distance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	diff := make([]float64, 0, len(from))
	for i, f := range from {
		diff = append(diff, f.Value-to[i].Value)
	}
	// 2 is the L value returning a standard L2 Normalization
	return floats.Norm(diff, 2)
}

// RoundInputs rounds every value to the given number of decimal places.
func RoundInputs(inputs []Input, places int) []Input {
	rounded := make([]Input, len(inputs))
	for i, in := range inputs {
		rounded[i] = Input{utils.RoundTo(in.Value, places)}
	}
	return rounded
}

// ConfigurationKey renders a configuration rounded to `places` decimals as a comparable string, so
// that configurations which agree up to that precision share a key.
func ConfigurationKey(inputs []Input, places int) string {
	parts := make([]string, 0, len(inputs))
	for _, in := range RoundInputs(inputs, places) {
		parts = append(parts, strconv.FormatFloat(in.Value, 'f', places, 64))
	}
	return "(" + strings.Join(parts, ",") + ")"
}
