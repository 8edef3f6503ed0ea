package config

import (
	"fmt"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// twinEnv holds raw environment overrides. Values stay strings so an unset variable
// can be told apart from an explicit zero.
type twinEnv struct {
	ThicknessFraction string `env:"TWINLAB_THICKNESS_FRACTION"`
	Seed              string `env:"TWINLAB_SEED"`
	Workers           string `env:"TWINLAB_WORKERS"`
	ScanMode          string `env:"TWINLAB_SCAN_MODE"`
	OutputDir         string `env:"TWINLAB_OUTPUT_DIR"`
}

// ApplyEnv overlays TWINLAB_* environment variables on c and revalidates it.
func (c *TwinConfig) ApplyEnv() error {
	var raw twinEnv
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if raw.ThicknessFraction != "" {
		v, err := strconv.ParseFloat(raw.ThicknessFraction, 64)
		if err != nil {
			return fmt.Errorf("TWINLAB_THICKNESS_FRACTION: %w", err)
		}
		c.ThicknessFraction = ptrFloat64(v)
	}
	if raw.Seed != "" {
		v, err := strconv.ParseUint(raw.Seed, 10, 64)
		if err != nil {
			return fmt.Errorf("TWINLAB_SEED: %w", err)
		}
		c.Seed = ptrUint64(v)
	}
	if raw.Workers != "" {
		v, err := strconv.Atoi(raw.Workers)
		if err != nil {
			return fmt.Errorf("TWINLAB_WORKERS: %w", err)
		}
		c.Workers = ptrInt(v)
	}
	if raw.ScanMode != "" {
		c.ScanMode = ptrString(raw.ScanMode)
	}
	if raw.OutputDir != "" {
		c.OutputDir = ptrString(raw.OutputDir)
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration from env: %w", err)
	}
	return nil
}
