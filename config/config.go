// Package config holds the optional, JSON-backed run-tuning knobs for the
// simulator. None of these change architectural behavior; they only
// bound or toggle the harness around it (cycle cap, trace output).
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the optional run configuration loadable via -config. Every
// field has a default: a config file that sets no fields ("{}") behaves
// identically to DefaultConfig(). Load reports an error for a missing
// file or one that is not valid JSON, including an empty file.
type Config struct {
	// MaxCycles caps the simulation; 0 means unbounded (run until halt).
	MaxCycles uint64 `json:"max_cycles"`

	// TraceDir is the directory cycle_trace.txt, inst_trace.txt,
	// srami_out.txt and sramd_out.txt are written to. Empty disables
	// trace output entirely.
	TraceDir string `json:"trace_dir"`

	// CycleTrace and InstTrace independently gate the two trace files,
	// so a run can keep the cheaper instruction trace while skipping the
	// much larger per-cycle dump.
	CycleTrace bool `json:"cycle_trace"`
	InstTrace  bool `json:"inst_trace"`
}

// DefaultConfig returns the configuration used when no -config file is
// given: unbounded run, both traces enabled, no trace directory (the
// caller decides where output goes).
func DefaultConfig() *Config {
	return &Config{
		MaxCycles:  0,
		TraceDir:   "",
		CycleTrace: true,
		InstTrace:  true,
	}
}

// Load reads a Config from a JSON file, starting from DefaultConfig so a
// file only needs to mention the fields it wants to override.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
