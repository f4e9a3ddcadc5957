// Package config loads and validates experiment configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/protocol"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/sweep"
)

// DefaultConfigPath is where the CLI looks for a config when none is given.
const DefaultConfigPath = "config/experiment.json"

// ExperimentConfig is the root configuration for one experiment run.
// The schema mirrors what the CLI flags can override.
type ExperimentConfig struct {
	// Hardware
	SerialPort string `json:"serial_port"`
	BaudRate   int    `json:"baud_rate,omitempty"`

	// Acquisition
	AcquireExe string `json:"acquire_exe"`
	StagingDir string `json:"staging_dir"`
	NFiles     int    `json:"nfiles"`
	NRefls     int    `json:"nrefls"`

	// Sweep. A channel with all six range bounds zero is inactive and
	// stays pinned at zero for the whole experiment.
	ParallelSweep bool                                      `json:"parallel_sweep"`
	Waveform      string                                    `json:"waveform"`
	Channels      [protocol.NumChannels]sweep.ChannelRanges `json:"channels"`

	// Output
	Prefix     string `json:"prefix"`
	OutputDir  string `json:"output_dir"`
	RunLogPath string `json:"runlog_path,omitempty"`
}

// Default returns a configuration with sensible values for a single
// inactive-channel dry run. Callers are expected to fill in the ranges.
func Default() *ExperimentConfig {
	return &ExperimentConfig{
		SerialPort: "/dev/ttyUSB0",
		BaudRate:   115200,
		AcquireExe: "DataReader.exe",
		StagingDir: "refls1",
		NFiles:     10,
		NRefls:     4,
		Waveform:   "sine",
		Prefix:     "experiment",
		OutputDir:  "runs",
	}
}

// Load reads an ExperimentConfig from a JSON file. The path must have a
// .json extension and the file must be under the size cap. Fields omitted
// from the JSON keep their zero values; Validate rejects incomplete configs.
func Load(path string) (*ExperimentConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	cfg := &ExperimentConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a JSON file, indented for hand editing.
func (c *ExperimentConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration values are usable.
func (c *ExperimentConfig) Validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("serial_port must be set")
	}
	if c.AcquireExe == "" {
		return fmt.Errorf("acquire_exe must be set")
	}
	if c.StagingDir == "" {
		return fmt.Errorf("staging_dir must be set")
	}
	if c.Prefix == "" {
		return fmt.Errorf("prefix must be set")
	}
	if c.NFiles <= 0 {
		return fmt.Errorf("nfiles must be positive, got %d", c.NFiles)
	}
	if c.NRefls <= 0 {
		return fmt.Errorf("nrefls must be positive, got %d", c.NRefls)
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("baud_rate must be non-negative, got %d", c.BaudRate)
	}

	for i, ch := range c.Channels {
		for _, r := range []struct {
			name string
			spec sweep.RangeSpec
		}{
			{"amplitude", ch.Amplitude},
			{"bias", ch.Bias},
			{"frequency", ch.Frequency},
		} {
			if r.spec.Step < 0 {
				return fmt.Errorf("channel %d %s: step must be non-negative, got %f", i, r.name, r.spec.Step)
			}
			if r.spec.Step > 0 && r.spec.Min > r.spec.Max {
				return fmt.Errorf("channel %d %s: min %f exceeds max %f", i, r.name, r.spec.Min, r.spec.Max)
			}
		}
	}

	return nil
}

// SweepMode returns the planner mode selected by the config.
func (c *ExperimentConfig) SweepMode() sweep.Mode {
	if c.ParallelSweep {
		return sweep.Parallel
	}
	return sweep.Sequential
}

// WaveformKind parses the configured waveform name. Unknown names fall
// back to sine with a logged warning.
func (c *ExperimentConfig) WaveformKind() protocol.Waveform {
	return protocol.ParseWaveform(c.Waveform)
}

// ChannelRanges returns the per-channel sweep ranges as planner input.
func (c *ExperimentConfig) ChannelRanges() [protocol.NumChannels]sweep.ChannelRanges {
	return c.Channels
}
