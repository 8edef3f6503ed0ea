package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/twinlab/internal/twin"
)

// DefaultConfigPath is the path to the canonical twin defaults file.
const DefaultConfigPath = "config/twinlab.defaults.json"

// TwinConfig is the on-disk configuration of a twin insertion run.
// Every field is optional; the Get* methods supply the defaults.
type TwinConfig struct {
	// Engine params
	ThicknessFraction *float64 `json:"thickness_fraction,omitempty"` // in equivalent diameters
	Seed              *uint64  `json:"seed,omitempty"`
	Workers           *int     `json:"workers,omitempty"`
	ScanMode          *string  `json:"scan_mode,omitempty"` // "indexed" or "full"

	// Post-processing params
	RecomputeStats *bool `json:"recompute_stats,omitempty"`

	// Report params
	SliceZ    *int    `json:"slice_z,omitempty"` // -1 selects the middle slice
	OutputDir *string `json:"output_dir,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrUint64(v uint64) *uint64    { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTwinConfig returns a TwinConfig with all fields unset.
func EmptyTwinConfig() *TwinConfig {
	return &TwinConfig{}
}

// DefaultTwinConfig returns a TwinConfig with every field set to its default.
func DefaultTwinConfig() *TwinConfig {
	return &TwinConfig{
		ThicknessFraction: ptrFloat64(twin.DefaultThicknessFraction),
		Seed:              ptrUint64(1),
		Workers:           ptrInt(1),
		ScanMode:          ptrString("indexed"),
		RecomputeStats:    ptrBool(false),
		SliceZ:            ptrInt(-1),
		OutputDir:         ptrString(""),
	}
}

// LoadTwinConfig loads a TwinConfig from a JSON file.
// The file must have a .json extension and be at most 1 MiB. Omitted fields keep
// their defaults, so partial configs are safe.
func LoadTwinConfig(path string) (*TwinConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTwinConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *TwinConfig) Validate() error {
	if c.ThicknessFraction != nil {
		tf := *c.ThicknessFraction
		if math.IsNaN(tf) || math.IsInf(tf, 0) || tf < 0 {
			return fmt.Errorf("thickness_fraction must be finite and non-negative, got %g", tf)
		}
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.ScanMode != nil {
		if _, ok := twin.ParseScanMode(*c.ScanMode); !ok {
			return fmt.Errorf("invalid scan_mode %q (want \"indexed\" or \"full\")", *c.ScanMode)
		}
	}

	if c.SliceZ != nil && *c.SliceZ < -1 {
		return fmt.Errorf("slice_z must be -1 or a slice index, got %d", *c.SliceZ)
	}

	return nil
}

// GetThicknessFraction returns the thickness_fraction value or the default.
func (c *TwinConfig) GetThicknessFraction() float64 {
	if c.ThicknessFraction == nil {
		return twin.DefaultThicknessFraction
	}
	return *c.ThicknessFraction
}

// GetSeed returns the seed value or the default.
func (c *TwinConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// GetWorkers returns the workers value or the default.
func (c *TwinConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetScanMode returns the parsed scan_mode, falling back to indexed.
func (c *TwinConfig) GetScanMode() twin.ScanMode {
	if c.ScanMode == nil {
		return twin.ScanIndexed
	}
	m, _ := twin.ParseScanMode(*c.ScanMode)
	return m
}

// GetRecomputeStats returns the recompute_stats value or the default.
func (c *TwinConfig) GetRecomputeStats() bool {
	if c.RecomputeStats == nil {
		return false
	}
	return *c.RecomputeStats
}

// GetSliceZ returns the slice_z value or the default (-1, middle slice).
func (c *TwinConfig) GetSliceZ() int {
	if c.SliceZ == nil {
		return -1
	}
	return *c.SliceZ
}

// GetOutputDir returns the output_dir value or the default (no reports).
func (c *TwinConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return ""
	}
	return *c.OutputDir
}

// EngineConfig converts the file configuration into engine parameters.
func (c *TwinConfig) EngineConfig() twin.Config {
	return twin.Config{
		ThicknessFraction: c.GetThicknessFraction(),
		Workers:           c.GetWorkers(),
		Scan:              c.GetScanMode(),
	}
}
