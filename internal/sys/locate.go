package sys

import (
	"fmt"
	"math/bits"

	"github.com/caarlos0/env/v11"
)

// collectorEnv mirrors the variables ittnotify itself consults.
type collectorEnv struct {
	Lib64 string `env:"INTEL_LIBITTNOTIFY64"`
	Lib32 string `env:"INTEL_LIBITTNOTIFY32"`
}

// CollectorEnvVar names the variable consulted for this target's pointer width.
func CollectorEnvVar() string {
	if bits.UintSize == 64 {
		return "INTEL_LIBITTNOTIFY64"
	}
	return "INTEL_LIBITTNOTIFY32"
}

func collectorPath() (string, error) {
	var cfg collectorEnv
	if err := env.Parse(&cfg); err != nil {
		return "", fmt.Errorf("parse collector env: %w", err)
	}
	path := cfg.Lib32
	if bits.UintSize == 64 {
		path = cfg.Lib64
	}
	if path == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNoCollector, CollectorEnvVar())
	}
	return path, nil
}
