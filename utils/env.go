package utils

import (
	"os"
	"strconv"

	"go.viam.com/tamp/logging"
)

const (
	// NumTrialsEnvVar overrides the default number of rejection-sampling trials.
	NumTrialsEnvVar = "TAMP_NUM_TRIALS"

	// RandomSeedEnvVar overrides the default random seed used by samplers.
	RandomSeedEnvVar = "TAMP_RANDOM_SEED"
)

// GetenvInt returns the integer value of the given environment variable, or defaultVal if the
// variable is unset or cannot be parsed.
func GetenvInt(name string, defaultVal int) int {
	return getenvIntHelper(name, defaultVal, nil)
}

// GetenvIntLogged is like GetenvInt but warns on the given logger when the value cannot be parsed.
func GetenvIntLogged(name string, defaultVal int, logger logging.Logger) int {
	return getenvIntHelper(name, defaultVal, logger)
}

func getenvIntHelper(name string, defaultVal int, logger logging.Logger) int {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		if logger != nil {
			logger.Warnf("Failed to parse %s env var, falling back to default %d", name, defaultVal)
		}
		return defaultVal
	}
	return val
}
